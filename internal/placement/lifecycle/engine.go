// Package lifecycle implements the state machine and cross-entity invariants
// of the placement pipeline: offer, application, internship, evaluation and
// document. It assumes the caller has already been authorized.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"go.uber.org/zap"
)

// Engine applies lifecycle transitions against an injected Store.
type Engine struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for submission, evaluation and upload dates.
func WithClock(now func() time.Time) Option {
	return func(eng *Engine) {
		eng.now = now
	}
}

// NewEngine constructs an Engine committing to store.
func NewEngine(store Store, logger *zap.Logger, opts ...Option) *Engine {
	eng := &Engine{
		store:  store,
		now:    time.Now,
		logger: logger.Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// ValidateTransition decides whether an application may move from one status
// to another. Any known status may currently follow any other.
func ValidateTransition(_, to models.ApplicationStatus) error {
	if !to.Valid() {
		return e.ErrInvalidStatus
	}
	return nil
}

// RegisterCompany creates a pending (not validated) company owned by userID.
func (eng *Engine) RegisterCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return nil, fmt.Errorf("%w: company name is required", e.ErrInvalidInput)
	}
	user, err := eng.store.GetUser(ctx, company.UserID)
	if err != nil {
		return nil, wrap(err, "failed to load user")
	}
	if user.Role != models.RoleCompany {
		return nil, fmt.Errorf("%w: user %d is not a company account", e.ErrInvalidInput, user.ID)
	}
	if _, err := eng.store.GetCompanyByUser(ctx, company.UserID); err == nil {
		return nil, e.ErrCompanyAlreadyExists
	} else if !errors.Is(err, e.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing company: %w", err)
	}

	company.ID = 0
	company.Validated = false
	if err := eng.store.CreateCompany(ctx, company); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// RegisterCompanyAdvisor adds a supervisor on the company side. Internships
// reference one when they are created.
func (eng *Engine) RegisterCompanyAdvisor(ctx context.Context, advisor *models.CompanyAdvisor) (*models.CompanyAdvisor, error) {
	advisor.Name = strings.TrimSpace(advisor.Name)
	if advisor.Name == "" {
		return nil, fmt.Errorf("%w: advisor name is required", e.ErrInvalidInput)
	}
	if _, err := eng.store.GetCompany(ctx, advisor.CompanyID); err != nil {
		return nil, wrap(err, "failed to load company")
	}
	advisor.ID = 0
	if err := eng.store.CreateCompanyAdvisor(ctx, advisor); err != nil {
		return nil, fmt.Errorf("failed to create company advisor: %w", err)
	}
	eng.logger.Info("company advisor registered",
		zap.Int64("advisor_id", advisor.ID),
		zap.Int64("company_id", advisor.CompanyID),
	)
	return advisor, nil
}

// ValidateCompany sets the validation flag that gates offer visibility.
func (eng *Engine) ValidateCompany(ctx context.Context, companyID int64, validated bool) error {
	if err := eng.store.SetCompanyValidated(ctx, companyID, validated); err != nil {
		return wrap(err, "failed to validate company")
	}
	return nil
}

// CreateOffer publishes an offer for an existing company, validated or pending.
func (eng *Engine) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := validateOffer(offer.Title, offer.Duration); err != nil {
		return nil, err
	}
	if _, err := eng.store.GetCompany(ctx, offer.CompanyID); err != nil {
		return nil, wrap(err, "failed to load company")
	}
	offer.ID = 0
	offer.PublishedAt = eng.now()
	if err := eng.store.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

// UpdateOffer applies a partial update and returns the stored offer.
func (eng *Engine) UpdateOffer(ctx context.Context, update *models.OfferUpdate) (*models.Offer, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: offer title is required", e.ErrInvalidInput)
	}
	if update.Duration != nil && *update.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", e.ErrInvalidInput)
	}
	if err := eng.store.UpdateOffer(ctx, update); err != nil {
		return nil, wrap(err, "failed to update offer")
	}
	offer, err := eng.store.GetOffer(ctx, update.ID)
	if err != nil {
		return nil, wrap(err, "failed to load offer")
	}
	return offer, nil
}

// DeleteOffer removes an offer that no application references.
func (eng *Engine) DeleteOffer(ctx context.Context, offerID int64) error {
	return eng.store.WithTransaction(ctx, func(tx Store) error {
		if _, err := tx.GetOffer(ctx, offerID); err != nil {
			return wrap(err, "failed to load offer")
		}
		count, err := tx.CountApplicationsForOffer(ctx, offerID)
		if err != nil {
			return fmt.Errorf("failed to count applications: %w", err)
		}
		if count > 0 {
			return e.ErrHasApplications
		}
		return wrap(tx.DeleteOffer(ctx, offerID), "failed to delete offer")
	})
}

// ListPublicOffers returns only offers whose company is validated.
func (eng *Engine) ListPublicOffers(ctx context.Context) ([]models.Offer, error) {
	offers, err := eng.store.ListPublicOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// Submit files a pending application of a student to a visible offer.
// Uniqueness of the (student, offer) pair is enforced by the store on insert.
func (eng *Engine) Submit(ctx context.Context, studentID, offerID int64) (*models.Application, error) {
	var app *models.Application
	err := eng.store.WithTransaction(ctx, func(tx Store) error {
		if _, err := tx.GetStudent(ctx, studentID); err != nil {
			return wrap(err, "failed to load student")
		}
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return wrap(err, "failed to load offer")
		}
		company, err := tx.GetCompany(ctx, offer.CompanyID)
		if err != nil {
			return wrap(err, "failed to load company")
		}
		if !company.Validated {
			return e.ErrOfferNotFound
		}

		app = &models.Application{
			StudentID:   studentID,
			OfferID:     offerID,
			Status:      models.ApplicationPending,
			SubmittedAt: eng.now(),
		}
		return wrap(tx.CreateApplication(ctx, app), "failed to create application")
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SetStatus overwrites the status of an application.
func (eng *Engine) SetStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) (*models.Application, error) {
	var app *models.Application
	err := eng.store.WithTransaction(ctx, func(tx Store) error {
		current, err := tx.GetApplicationForUpdate(ctx, applicationID)
		if err != nil {
			return wrap(err, "failed to load application")
		}
		if err := ValidateTransition(current.Status, status); err != nil {
			return err
		}
		if err := tx.UpdateApplicationStatus(ctx, applicationID, status); err != nil {
			return wrap(err, "failed to update application status")
		}
		current.Status = status
		app = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// DeleteApplication removes an application no internship references.
func (eng *Engine) DeleteApplication(ctx context.Context, applicationID int64) error {
	return eng.store.WithTransaction(ctx, func(tx Store) error {
		if _, err := tx.GetApplicationForUpdate(ctx, applicationID); err != nil {
			return wrap(err, "failed to load application")
		}
		exists, err := tx.InternshipExistsForApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to check internship existence: %w", err)
		}
		if exists {
			return e.ErrHasDependentInternship
		}
		return wrap(tx.DeleteApplication(ctx, applicationID), "failed to delete application")
	})
}

// CreateInternship realises an accepted application. The status check, the
// existence check, the insert and the student flag update form one transaction;
// the application row stays locked until it ends.
func (eng *Engine) CreateInternship(ctx context.Context, in models.NewInternship) (*models.Internship, error) {
	if in.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", e.ErrInvalidInput)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", e.ErrInvalidInput)
	}

	var internship *models.Internship
	err := eng.store.WithTransaction(ctx, func(tx Store) error {
		app, err := tx.GetApplicationForUpdate(ctx, in.ApplicationID)
		if err != nil {
			return wrap(err, "failed to load application")
		}
		if app.Status != models.ApplicationAccepted {
			return e.ErrApplicationNotAccepted
		}
		exists, err := tx.InternshipExistsForApplication(ctx, in.ApplicationID)
		if err != nil {
			return fmt.Errorf("failed to check internship existence: %w", err)
		}
		if exists {
			return e.ErrInternshipAlreadyExists
		}
		if _, err := tx.GetFacultyAdvisor(ctx, in.FacultyAdvisorID); err != nil {
			return wrap(err, "failed to load faculty advisor")
		}
		if _, err := tx.GetCompanyAdvisor(ctx, in.CompanyAdvisorID); err != nil {
			return wrap(err, "failed to load company advisor")
		}

		internship = &models.Internship{
			ApplicationID:    in.ApplicationID,
			FacultyAdvisorID: in.FacultyAdvisorID,
			CompanyAdvisorID: in.CompanyAdvisorID,
			StartDate:        in.StartDate,
			EndDate:          in.EndDate,
		}
		if err := tx.CreateInternship(ctx, internship); err != nil {
			return wrap(err, "failed to create internship")
		}
		return wrap(tx.SetStudentHasInternship(ctx, app.StudentID, true), "failed to flag student")
	})
	if err != nil {
		return nil, err
	}
	eng.logger.Info("internship created",
		zap.Int64("internship_id", internship.ID),
		zap.Int64("application_id", internship.ApplicationID),
	)
	return internship, nil
}

// UpdateInternship overwrites dates and final state. Setting a final state
// triggers nothing else.
func (eng *Engine) UpdateInternship(ctx context.Context, update *models.InternshipUpdate) (*models.Internship, error) {
	if update.FinalState != nil && !update.FinalState.Valid() {
		return nil, e.ErrInvalidFinalState
	}
	if update.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", e.ErrInvalidInput)
	}
	if err := eng.store.UpdateInternship(ctx, update); err != nil {
		return nil, wrap(err, "failed to update internship")
	}
	internship, err := eng.store.GetInternship(ctx, update.ID)
	if err != nil {
		return nil, wrap(err, "failed to load internship")
	}
	return internship, nil
}

// CreateEvaluation records an assessment dated today. Any number of
// evaluations may exist per internship.
func (eng *Engine) CreateEvaluation(ctx context.Context, internshipID int64, typ models.EvaluationType, score int, report string) (*models.Evaluation, error) {
	if err := validateEvaluation(typ, score); err != nil {
		return nil, err
	}
	if _, err := eng.store.GetInternship(ctx, internshipID); err != nil {
		return nil, wrap(err, "failed to load internship")
	}
	evaluation := &models.Evaluation{
		InternshipID: internshipID,
		Type:         typ,
		Date:         eng.now(),
		Score:        score,
		Report:       report,
	}
	if err := eng.store.CreateEvaluation(ctx, evaluation); err != nil {
		return nil, fmt.Errorf("failed to create evaluation: %w", err)
	}
	return evaluation, nil
}

// UpdateEvaluation overwrites an evaluation under the same checks as creation.
func (eng *Engine) UpdateEvaluation(ctx context.Context, update *models.EvaluationUpdate) (*models.Evaluation, error) {
	if err := validateEvaluation(update.Type, update.Score); err != nil {
		return nil, err
	}
	if err := eng.store.UpdateEvaluation(ctx, update); err != nil {
		return nil, wrap(err, "failed to update evaluation")
	}
	evaluation, err := eng.store.GetEvaluation(ctx, update.ID)
	if err != nil {
		return nil, wrap(err, "failed to load evaluation")
	}
	return evaluation, nil
}

// DeleteEvaluation removes an evaluation.
func (eng *Engine) DeleteEvaluation(ctx context.Context, id int64) error {
	return wrap(eng.store.DeleteEvaluation(ctx, id), "failed to delete evaluation")
}

// AttachDocument appends document metadata to an internship. Size limits
// belong to the upload transport.
func (eng *Engine) AttachDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if strings.TrimSpace(doc.OriginalName) == "" || strings.TrimSpace(doc.StoredName) == "" {
		return nil, fmt.Errorf("%w: original and stored file names are required", e.ErrInvalidInput)
	}
	if _, err := eng.store.GetInternship(ctx, doc.InternshipID); err != nil {
		return nil, wrap(err, "failed to load internship")
	}
	doc.ID = 0
	doc.Category = models.ParseDocumentCategory(string(doc.Category))
	doc.UploadedAt = eng.now()
	if err := eng.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes document metadata.
func (eng *Engine) DeleteDocument(ctx context.Context, id int64) error {
	return wrap(eng.store.DeleteDocument(ctx, id), "failed to delete document")
}

func validateOffer(title string, duration int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: offer title is required", e.ErrInvalidInput)
	}
	if duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", e.ErrInvalidInput)
	}
	return nil
}

func validateEvaluation(typ models.EvaluationType, score int) error {
	if !typ.Valid() {
		return e.ErrInvalidType
	}
	if score < models.MinScore || score > models.MaxScore {
		return e.ErrScoreOutOfRange
	}
	return nil
}

// wrap keeps domain failures as they are and adds context to anything else.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{e.ErrNotFound, e.ErrConflict, e.ErrInvalidState, e.ErrOutOfRange, e.ErrDependencyExists, e.ErrInvalidInput} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

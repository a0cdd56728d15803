// Package controller implements the workflow operations of the placement
// service. Each operation authorizes the caller through the guard, then
// delegates to the lifecycle engine and publishes an event once the change
// is committed.
package controller

import (
	"context"
	"strings"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/events"
	"github.com/gartstein/placement/internal/placement/guard"
	"github.com/gartstein/placement/internal/placement/lifecycle"
	"github.com/gartstein/placement/internal/placement/models"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// PlacementService is the workflow API consumed by the transport layer.
type PlacementService struct {
	store    lifecycle.Store
	engine   *lifecycle.Engine
	guard    *guard.Guard
	producer EventProducer
	logger   *zap.Logger
}

// NewPlacementService wires a guard and a lifecycle engine over store.
func NewPlacementService(store lifecycle.Store, producer EventProducer, logger *zap.Logger, opts ...lifecycle.Option) *PlacementService {
	return &PlacementService{
		store:    store,
		engine:   lifecycle.NewEngine(store, logger, opts...),
		guard:    guard.New(logger),
		producer: producer,
		logger:   logger.Named("workflow"),
	}
}

func (s *PlacementService) emit(eventType events.EventType, actor models.Identity, entityID int64, payload interface{}) {
	s.producer.Produce(events.NewEvent(eventType, actor, entityID, payload))
}

// RegisterCompany creates the pending company profile of a company user.
func (s *PlacementService) RegisterCompany(ctx context.Context, actor models.Identity, company *models.Company) (*models.Company, error) {
	if err := s.guard.Authorize(ctx, actor, guard.RegisterCompany, nil); err != nil {
		return nil, err
	}
	company.UserID = actor.UserID
	created, err := s.engine.RegisterCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	s.emit(events.CompanyRegistered, actor, created.ID, created)
	return created, nil
}

// RegisterCompanyAdvisor adds a company-side supervisor to companyID.
func (s *PlacementService) RegisterCompanyAdvisor(ctx context.Context, actor models.Identity, advisor *models.CompanyAdvisor) (*models.CompanyAdvisor, error) {
	if err := s.guard.Authorize(ctx, actor, guard.RegisterAdvisor, s.ownsCompany(advisor.CompanyID)); err != nil {
		return nil, err
	}
	created, err := s.engine.RegisterCompanyAdvisor(ctx, advisor)
	if err != nil {
		return nil, err
	}
	s.emit(events.CompanyAdvisorRegistered, actor, created.ID, created)
	return created, nil
}

// ValidateCompany flips the validation flag of a company.
func (s *PlacementService) ValidateCompany(ctx context.Context, actor models.Identity, companyID int64, validated bool) error {
	if err := s.guard.Authorize(ctx, actor, guard.ValidateCompany, nil); err != nil {
		return err
	}
	if err := s.engine.ValidateCompany(ctx, companyID, validated); err != nil {
		return err
	}
	s.emit(events.CompanyValidated, actor, companyID, map[string]bool{"validated": validated})
	return nil
}

func (s *PlacementService) CreateOffer(ctx context.Context, actor models.Identity, offer *models.Offer) (*models.Offer, error) {
	if err := s.guard.Authorize(ctx, actor, guard.CreateOffer, s.ownsCompany(offer.CompanyID)); err != nil {
		return nil, err
	}
	created, err := s.engine.CreateOffer(ctx, offer)
	if err != nil {
		return nil, err
	}
	s.emit(events.OfferCreated, actor, created.ID, created)
	return created, nil
}

func (s *PlacementService) UpdateOffer(ctx context.Context, actor models.Identity, update *models.OfferUpdate) (*models.Offer, error) {
	if err := s.guard.Authorize(ctx, actor, guard.UpdateOffer, s.ownsOffer(update.ID)); err != nil {
		return nil, err
	}
	updated, err := s.engine.UpdateOffer(ctx, update)
	if err != nil {
		return nil, err
	}
	s.emit(events.OfferUpdated, actor, updated.ID, updated)
	return updated, nil
}

func (s *PlacementService) DeleteOffer(ctx context.Context, actor models.Identity, offerID int64) error {
	if err := s.guard.Authorize(ctx, actor, guard.DeleteOffer, s.ownsOffer(offerID)); err != nil {
		return err
	}
	if err := s.engine.DeleteOffer(ctx, offerID); err != nil {
		return err
	}
	s.emit(events.OfferDeleted, actor, offerID, nil)
	return nil
}

// ListPublicOffers is open to any caller, including anonymous ones.
func (s *PlacementService) ListPublicOffers(ctx context.Context) ([]models.Offer, error) {
	return s.engine.ListPublicOffers(ctx)
}

// GetOffer returns an offer of a validated company. Offers of pending
// companies are only shown to their owner and to program managers.
func (s *PlacementService) GetOffer(ctx context.Context, actor models.Identity, offerID int64) (*models.Offer, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	company, err := s.store.GetCompany(ctx, offer.CompanyID)
	if err != nil {
		return nil, err
	}
	if company.Validated || actor.Role == models.RoleProgramManager {
		return offer, nil
	}
	if actor.Role == models.RoleCompany && company.UserID == actor.UserID {
		return offer, nil
	}
	return nil, e.ErrOfferNotFound
}

func (s *PlacementService) ListOfferApplications(ctx context.Context, actor models.Identity, offerID int64) ([]models.Application, error) {
	if err := s.guard.Authorize(ctx, actor, guard.ViewOfferApplications, s.ownsOffer(offerID)); err != nil {
		return nil, err
	}
	if _, err := s.store.GetOffer(ctx, offerID); err != nil {
		return nil, err
	}
	return s.store.ListApplicationsByOffer(ctx, offerID)
}

func (s *PlacementService) SubmitApplication(ctx context.Context, actor models.Identity, studentID, offerID int64) (*models.Application, error) {
	if err := s.guard.Authorize(ctx, actor, guard.SubmitApplication, s.ownsStudent(studentID)); err != nil {
		return nil, err
	}
	app, err := s.engine.Submit(ctx, studentID, offerID)
	if err != nil {
		return nil, err
	}
	s.emit(events.ApplicationSubmitted, actor, app.ID, app)
	return app, nil
}

// SetApplicationStatus accepts case-insensitive status names.
func (s *PlacementService) SetApplicationStatus(ctx context.Context, actor models.Identity, applicationID int64, status models.ApplicationStatus) (*models.Application, error) {
	if err := s.guard.Authorize(ctx, actor, guard.SetApplicationStatus, s.ownsApplication(applicationID)); err != nil {
		return nil, err
	}
	status = models.ApplicationStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	app, err := s.engine.SetStatus(ctx, applicationID, status)
	if err != nil {
		return nil, err
	}
	s.emit(events.ApplicationStatusChanged, actor, app.ID, map[string]models.ApplicationStatus{"status": app.Status})
	return app, nil
}

func (s *PlacementService) DeleteApplication(ctx context.Context, actor models.Identity, applicationID int64) error {
	if err := s.guard.Authorize(ctx, actor, guard.DeleteApplication, s.ownsApplication(applicationID)); err != nil {
		return err
	}
	if err := s.engine.DeleteApplication(ctx, applicationID); err != nil {
		return err
	}
	s.emit(events.ApplicationDeleted, actor, applicationID, nil)
	return nil
}

func (s *PlacementService) GetApplication(ctx context.Context, actor models.Identity, applicationID int64) (*models.Application, error) {
	if err := s.guard.Authorize(ctx, actor, guard.ViewApplication, s.ownsApplication(applicationID)); err != nil {
		return nil, err
	}
	return s.store.GetApplication(ctx, applicationID)
}

func (s *PlacementService) CreateInternship(ctx context.Context, actor models.Identity, in models.NewInternship) (*models.Internship, error) {
	if err := s.guard.Authorize(ctx, actor, guard.CreateInternship, nil); err != nil {
		return nil, err
	}
	internship, err := s.engine.CreateInternship(ctx, in)
	if err != nil {
		return nil, err
	}
	s.emit(events.InternshipCreated, actor, internship.ID, internship)
	return internship, nil
}

func (s *PlacementService) UpdateInternship(ctx context.Context, actor models.Identity, update *models.InternshipUpdate) (*models.Internship, error) {
	if err := s.guard.Authorize(ctx, actor, guard.UpdateInternship, s.ownsInternship(update.ID)); err != nil {
		return nil, err
	}
	if update.FinalState != nil {
		state := models.FinalState(strings.ToUpper(strings.TrimSpace(string(*update.FinalState))))
		update.FinalState = &state
	}
	internship, err := s.engine.UpdateInternship(ctx, update)
	if err != nil {
		return nil, err
	}
	s.emit(events.InternshipUpdated, actor, internship.ID, internship)
	return internship, nil
}

func (s *PlacementService) GetInternship(ctx context.Context, actor models.Identity, internshipID int64) (*models.Internship, error) {
	if err := s.guard.Authorize(ctx, actor, guard.ViewInternship, s.ownsInternship(internshipID)); err != nil {
		return nil, err
	}
	return s.store.GetInternship(ctx, internshipID)
}

func (s *PlacementService) CreateEvaluation(ctx context.Context, actor models.Identity, internshipID int64, typ models.EvaluationType, score int, report string) (*models.Evaluation, error) {
	if err := s.guard.Authorize(ctx, actor, guard.WriteEvaluation, s.ownsInternship(internshipID)); err != nil {
		return nil, err
	}
	evaluation, err := s.engine.CreateEvaluation(ctx, internshipID, normalizeType(typ), score, report)
	if err != nil {
		return nil, err
	}
	s.emit(events.EvaluationCreated, actor, evaluation.ID, evaluation)
	return evaluation, nil
}

func (s *PlacementService) UpdateEvaluation(ctx context.Context, actor models.Identity, update *models.EvaluationUpdate) (*models.Evaluation, error) {
	if err := s.guard.Authorize(ctx, actor, guard.WriteEvaluation, s.ownsEvaluation(update.ID)); err != nil {
		return nil, err
	}
	update.Type = normalizeType(update.Type)
	evaluation, err := s.engine.UpdateEvaluation(ctx, update)
	if err != nil {
		return nil, err
	}
	s.emit(events.EvaluationUpdated, actor, evaluation.ID, evaluation)
	return evaluation, nil
}

func (s *PlacementService) DeleteEvaluation(ctx context.Context, actor models.Identity, evaluationID int64) error {
	if err := s.guard.Authorize(ctx, actor, guard.WriteEvaluation, s.ownsEvaluation(evaluationID)); err != nil {
		return err
	}
	if err := s.engine.DeleteEvaluation(ctx, evaluationID); err != nil {
		return err
	}
	s.emit(events.EvaluationDeleted, actor, evaluationID, nil)
	return nil
}

func (s *PlacementService) ListEvaluations(ctx context.Context, actor models.Identity, internshipID int64) ([]models.Evaluation, error) {
	if err := s.guard.Authorize(ctx, actor, guard.ViewEvaluations, s.ownsInternship(internshipID)); err != nil {
		return nil, err
	}
	if _, err := s.store.GetInternship(ctx, internshipID); err != nil {
		return nil, err
	}
	return s.store.ListEvaluations(ctx, internshipID)
}

func (s *PlacementService) AttachDocument(ctx context.Context, actor models.Identity, doc *models.Document) (*models.Document, error) {
	if err := s.guard.Authorize(ctx, actor, guard.WriteDocument, s.ownsInternship(doc.InternshipID)); err != nil {
		return nil, err
	}
	attached, err := s.engine.AttachDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.emit(events.DocumentAttached, actor, attached.ID, attached)
	return attached, nil
}

func (s *PlacementService) DeleteDocument(ctx context.Context, actor models.Identity, documentID int64) error {
	if err := s.guard.Authorize(ctx, actor, guard.WriteDocument, s.ownsDocument(documentID)); err != nil {
		return err
	}
	if err := s.engine.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	s.emit(events.DocumentDeleted, actor, documentID, nil)
	return nil
}

func (s *PlacementService) ListDocuments(ctx context.Context, actor models.Identity, internshipID int64) ([]models.Document, error) {
	if err := s.guard.Authorize(ctx, actor, guard.ViewDocuments, s.ownsInternship(internshipID)); err != nil {
		return nil, err
	}
	if _, err := s.store.GetInternship(ctx, internshipID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, internshipID)
}

func normalizeType(t models.EvaluationType) models.EvaluationType {
	return models.EvaluationType(strings.ToUpper(strings.TrimSpace(string(t))))
}

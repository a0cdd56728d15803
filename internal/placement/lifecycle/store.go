package lifecycle

import (
	"context"

	"github.com/gartstein/placement/internal/placement/models"
)

// Store is the entity store the engine commits to. Lookups of absent rows
// return the matching not-found error from the errors package.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)

	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	GetCompanyByUser(ctx context.Context, userID int64) (*models.Company, error)
	SetCompanyValidated(ctx context.Context, id int64, validated bool) error
	CreateCompanyAdvisor(ctx context.Context, advisor *models.CompanyAdvisor) error
	GetCompanyAdvisor(ctx context.Context, id int64) (*models.CompanyAdvisor, error)

	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	SetStudentHasInternship(ctx context.Context, id int64, has bool) error
	GetFacultyAdvisor(ctx context.Context, id int64) (*models.FacultyAdvisor, error)

	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, id int64) (*models.Offer, error)
	UpdateOffer(ctx context.Context, update *models.OfferUpdate) error
	DeleteOffer(ctx context.Context, id int64) error
	ListPublicOffers(ctx context.Context) ([]models.Offer, error)
	CountApplicationsForOffer(ctx context.Context, offerID int64) (int64, error)

	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	// GetApplicationForUpdate reads the application and locks its row until the
	// surrounding transaction ends.
	GetApplicationForUpdate(ctx context.Context, id int64) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
	DeleteApplication(ctx context.Context, id int64) error
	ListApplicationsByOffer(ctx context.Context, offerID int64) ([]models.Application, error)

	CreateInternship(ctx context.Context, internship *models.Internship) error
	GetInternship(ctx context.Context, id int64) (*models.Internship, error)
	InternshipExistsForApplication(ctx context.Context, applicationID int64) (bool, error)
	UpdateInternship(ctx context.Context, update *models.InternshipUpdate) error

	CreateEvaluation(ctx context.Context, evaluation *models.Evaluation) error
	GetEvaluation(ctx context.Context, id int64) (*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, update *models.EvaluationUpdate) error
	DeleteEvaluation(ctx context.Context, id int64) error
	ListEvaluations(ctx context.Context, internshipID int64) ([]models.Evaluation, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListDocuments(ctx context.Context, internshipID int64) ([]models.Document, error)

	// WithTransaction runs fn against a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}

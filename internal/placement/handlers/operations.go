package handlers

import (
	"context"
	"net/http"

	"github.com/gartstein/placement/internal/placement/models"
	"github.com/gartstein/placement/internal/pkg/utils"
)

// PlacementController defines the workflow operations that the gRPC/HTTP
// handlers will invoke.
type PlacementController interface {
	RegisterCompany(ctx context.Context, actor models.Identity, company *models.Company) (*models.Company, error)
	ValidateCompany(ctx context.Context, actor models.Identity, companyID int64, validated bool) error
	RegisterCompanyAdvisor(ctx context.Context, actor models.Identity, advisor *models.CompanyAdvisor) (*models.CompanyAdvisor, error)
	CreateOffer(ctx context.Context, actor models.Identity, offer *models.Offer) (*models.Offer, error)
	UpdateOffer(ctx context.Context, actor models.Identity, update *models.OfferUpdate) (*models.Offer, error)
	DeleteOffer(ctx context.Context, actor models.Identity, offerID int64) error
	ListPublicOffers(ctx context.Context) ([]models.Offer, error)
	GetOffer(ctx context.Context, actor models.Identity, offerID int64) (*models.Offer, error)
	ListOfferApplications(ctx context.Context, actor models.Identity, offerID int64) ([]models.Application, error)
	SubmitApplication(ctx context.Context, actor models.Identity, studentID, offerID int64) (*models.Application, error)
	SetApplicationStatus(ctx context.Context, actor models.Identity, applicationID int64, status models.ApplicationStatus) (*models.Application, error)
	DeleteApplication(ctx context.Context, actor models.Identity, applicationID int64) error
	GetApplication(ctx context.Context, actor models.Identity, applicationID int64) (*models.Application, error)
	CreateInternship(ctx context.Context, actor models.Identity, in models.NewInternship) (*models.Internship, error)
	UpdateInternship(ctx context.Context, actor models.Identity, update *models.InternshipUpdate) (*models.Internship, error)
	GetInternship(ctx context.Context, actor models.Identity, internshipID int64) (*models.Internship, error)
	CreateEvaluation(ctx context.Context, actor models.Identity, internshipID int64, typ models.EvaluationType, score int, report string) (*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, actor models.Identity, update *models.EvaluationUpdate) (*models.Evaluation, error)
	DeleteEvaluation(ctx context.Context, actor models.Identity, evaluationID int64) error
	ListEvaluations(ctx context.Context, actor models.Identity, internshipID int64) ([]models.Evaluation, error)
	AttachDocument(ctx context.Context, actor models.Identity, doc *models.Document) (*models.Document, error)
	DeleteDocument(ctx context.Context, actor models.Identity, documentID int64) error
	ListDocuments(ctx context.Context, actor models.Identity, internshipID int64) ([]models.Document, error)
}

// decodeFunc fills a request struct from the transport payload.
type decodeFunc func(v interface{}) error

type invokeFunc func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error)

// operation binds a workflow operation to its gRPC method name and HTTP route.
type operation struct {
	name   string
	method string
	path   string
	public bool
	invoke invokeFunc
}

type idRequest struct {
	ID int64 `json:"id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type listResponse struct {
	Items interface{} `json:"items"`
}

type registerCompanyRequest struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}

type validateCompanyRequest struct {
	ID        int64 `json:"id"`
	Validated bool  `json:"validated"`
}

type companyAdvisorRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

type offerRequest struct {
	ID           int64   `json:"id"`
	CompanyID    int64   `json:"company_id"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
	Duration     *int    `json:"duration"`
	Location     *string `json:"location"`
}

type submitApplicationRequest struct {
	StudentID int64 `json:"student_id"`
	OfferID   int64 `json:"offer_id"`
}

type setStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type createInternshipRequest struct {
	ApplicationID    int64 `json:"application_id"`
	FacultyAdvisorID int64 `json:"faculty_advisor_id"`
	CompanyAdvisorID int64 `json:"company_advisor_id"`
	StartDate        Date  `json:"start_date"`
	EndDate          *Date `json:"end_date"`
}

type updateInternshipRequest struct {
	ID         int64   `json:"id"`
	StartDate  Date    `json:"start_date"`
	EndDate    *Date   `json:"end_date"`
	FinalState *string `json:"final_state"`
}

type evaluationRequest struct {
	ID           int64  `json:"id"`
	InternshipID int64  `json:"internship_id"`
	Type         string `json:"type"`
	Score        int    `json:"score"`
	Report       string `json:"report"`
}

type documentRequest struct {
	InternshipID int64  `json:"internship_id"`
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	Category     string `json:"category"`
	MediaType    string `json:"media_type"`
	Size         int64  `json:"size"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// operations lists every workflow operation exposed by the transports.
var operations = []operation{
	{name: "RegisterCompany", method: http.MethodPost, path: "/v1/companies", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req registerCompanyRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.RegisterCompany(ctx, actor, &models.Company{Name: req.Name, TaxID: req.TaxID, Address: req.Address})
	}},
	{name: "ValidateCompany", method: http.MethodPut, path: "/v1/companies/{id}/validation", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req validateCompanyRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		if err := svc.ValidateCompany(ctx, actor, req.ID, req.Validated); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil
	}},
	{name: "RegisterCompanyAdvisor", method: http.MethodPost, path: "/v1/companies/{id}/advisors", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req companyAdvisorRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.RegisterCompanyAdvisor(ctx, actor, &models.CompanyAdvisor{
			CompanyID: req.ID,
			Name:      req.Name,
			Email:     req.Email,
			Position:  req.Position,
		})
	}},
	{name: "CreateOffer", method: http.MethodPost, path: "/v1/offers", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req offerRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		offer := &models.Offer{
			CompanyID:    req.CompanyID,
			Title:        derefString(req.Title),
			Description:  derefString(req.Description),
			Requirements: derefString(req.Requirements),
			Location:     derefString(req.Location),
		}
		if req.Duration != nil {
			offer.Duration = *req.Duration
		}
		return svc.CreateOffer(ctx, actor, offer)
	}},
	{name: "UpdateOffer", method: http.MethodPatch, path: "/v1/offers/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req offerRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.UpdateOffer(ctx, actor, &models.OfferUpdate{
			ID:           req.ID,
			Title:        req.Title,
			Description:  req.Description,
			Requirements: req.Requirements,
			Duration:     req.Duration,
			Location:     req.Location,
		})
	}},
	{name: "DeleteOffer", method: http.MethodDelete, path: "/v1/offers/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		if err := svc.DeleteOffer(ctx, actor, req.ID); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil
	}},
	{name: "ListPublicOffers", method: http.MethodGet, path: "/v1/offers", public: true, invoke: func(ctx context.Context, svc PlacementController, _ models.Identity, _ decodeFunc) (interface{}, error) {
		offers, err := svc.ListPublicOffers(ctx)
		if err != nil {
			return nil, err
		}
		return listResponse{Items: offers}, nil
	}},
	{name: "GetOffer", method: http.MethodGet, path: "/v1/offers/{id}", public: true, invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.GetOffer(ctx, actor, req.ID)
	}},
	{name: "ListOfferApplications", method: http.MethodGet, path: "/v1/offers/{id}/applications", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		apps, err := svc.ListOfferApplications(ctx, actor, req.ID)
		if err != nil {
			return nil, err
		}
		return listResponse{Items: apps}, nil
	}},
	{name: "SubmitApplication", method: http.MethodPost, path: "/v1/applications", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req submitApplicationRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.SubmitApplication(ctx, actor, req.StudentID, req.OfferID)
	}},
	{name: "SetApplicationStatus", method: http.MethodPatch, path: "/v1/applications/{id}/status", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req setStatusRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.SetApplicationStatus(ctx, actor, req.ID, models.ApplicationStatus(req.Status))
	}},
	{name: "DeleteApplication", method: http.MethodDelete, path: "/v1/applications/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		if err := svc.DeleteApplication(ctx, actor, req.ID); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil
	}},
	{name: "GetApplication", method: http.MethodGet, path: "/v1/applications/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.GetApplication(ctx, actor, req.ID)
	}},
	{name: "CreateInternship", method: http.MethodPost, path: "/v1/internships", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req createInternshipRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.CreateInternship(ctx, actor, models.NewInternship{
			ApplicationID:    req.ApplicationID,
			FacultyAdvisorID: req.FacultyAdvisorID,
			CompanyAdvisorID: req.CompanyAdvisorID,
			StartDate:        req.StartDate.Time,
			EndDate:          req.EndDate.timePtr(),
		})
	}},
	{name: "UpdateInternship", method: http.MethodPut, path: "/v1/internships/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req updateInternshipRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		update := &models.InternshipUpdate{
			ID:        req.ID,
			StartDate: req.StartDate.Time,
			EndDate:   req.EndDate.timePtr(),
		}
		if req.FinalState != nil && *req.FinalState != "" {
			update.FinalState = utils.Ptr(models.FinalState(*req.FinalState))
		}
		return svc.UpdateInternship(ctx, actor, update)
	}},
	{name: "GetInternship", method: http.MethodGet, path: "/v1/internships/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.GetInternship(ctx, actor, req.ID)
	}},
	{name: "CreateEvaluation", method: http.MethodPost, path: "/v1/internships/{internship_id}/evaluations", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req evaluationRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.CreateEvaluation(ctx, actor, req.InternshipID, models.EvaluationType(req.Type), req.Score, req.Report)
	}},
	{name: "ListEvaluations", method: http.MethodGet, path: "/v1/internships/{internship_id}/evaluations", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req evaluationRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		evaluations, err := svc.ListEvaluations(ctx, actor, req.InternshipID)
		if err != nil {
			return nil, err
		}
		return listResponse{Items: evaluations}, nil
	}},
	{name: "UpdateEvaluation", method: http.MethodPut, path: "/v1/evaluations/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req evaluationRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.UpdateEvaluation(ctx, actor, &models.EvaluationUpdate{
			ID:     req.ID,
			Type:   models.EvaluationType(req.Type),
			Score:  req.Score,
			Report: req.Report,
		})
	}},
	{name: "DeleteEvaluation", method: http.MethodDelete, path: "/v1/evaluations/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		if err := svc.DeleteEvaluation(ctx, actor, req.ID); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil
	}},
	{name: "AttachDocument", method: http.MethodPost, path: "/v1/internships/{internship_id}/documents", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req documentRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		return svc.AttachDocument(ctx, actor, &models.Document{
			InternshipID: req.InternshipID,
			OriginalName: req.OriginalName,
			StoredName:   req.StoredName,
			Category:     models.DocumentCategory(req.Category),
			MediaType:    req.MediaType,
			Size:         req.Size,
		})
	}},
	{name: "ListDocuments", method: http.MethodGet, path: "/v1/internships/{internship_id}/documents", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req documentRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		docs, err := svc.ListDocuments(ctx, actor, req.InternshipID)
		if err != nil {
			return nil, err
		}
		return listResponse{Items: docs}, nil
	}},
	{name: "DeleteDocument", method: http.MethodDelete, path: "/v1/documents/{id}", invoke: func(ctx context.Context, svc PlacementController, actor models.Identity, decode decodeFunc) (interface{}, error) {
		var req idRequest
		if err := decode(&req); err != nil {
			return nil, err
		}
		if err := svc.DeleteDocument(ctx, actor, req.ID); err != nil {
			return nil, err
		}
		return okResponse{OK: true}, nil
	}},
}

// lookupOperation returns the operation registered under name.
func lookupOperation(name string) (operation, bool) {
	for _, op := range operations {
		if op.name == name {
			return op, true
		}
	}
	return operation{}, false
}

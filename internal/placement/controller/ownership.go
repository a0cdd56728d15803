package controller

import (
	"context"

	"github.com/gartstein/placement/internal/placement/guard"
	"github.com/gartstein/placement/internal/placement/models"
)

// Ownership predicates handed to the guard. They only read the store.

func (s *PlacementService) ownsCompany(companyID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		company, err := s.store.GetCompany(ctx, companyID)
		if err != nil {
			return false, err
		}
		return company.UserID == actor.UserID, nil
	}
}

func (s *PlacementService) ownsOffer(offerID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		offer, err := s.store.GetOffer(ctx, offerID)
		if err != nil {
			return false, err
		}
		return s.ownsCompany(offer.CompanyID)(ctx, actor)
	}
}

func (s *PlacementService) ownsStudent(studentID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		student, err := s.store.GetStudent(ctx, studentID)
		if err != nil {
			return false, err
		}
		return student.UserID == actor.UserID, nil
	}
}

// ownsApplication: a student owns its own applications, a company the
// applications to its offers.
func (s *PlacementService) ownsApplication(applicationID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		app, err := s.store.GetApplication(ctx, applicationID)
		if err != nil {
			return false, err
		}
		return s.ownsApplicationRecord(ctx, actor, app)
	}
}

func (s *PlacementService) ownsApplicationRecord(ctx context.Context, actor models.Identity, app *models.Application) (bool, error) {
	switch actor.Role {
	case models.RoleStudent:
		return s.ownsStudent(app.StudentID)(ctx, actor)
	case models.RoleCompany:
		return s.ownsOffer(app.OfferID)(ctx, actor)
	default:
		return false, nil
	}
}

// ownsInternship: the student placed, the company it came from and the
// assigned faculty advisor take part in an internship.
func (s *PlacementService) ownsInternship(internshipID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		internship, err := s.store.GetInternship(ctx, internshipID)
		if err != nil {
			return false, err
		}
		if actor.Role == models.RoleFacultyAdvisor {
			advisor, err := s.store.GetFacultyAdvisor(ctx, internship.FacultyAdvisorID)
			if err != nil {
				return false, err
			}
			return advisor.UserID == actor.UserID, nil
		}
		app, err := s.store.GetApplication(ctx, internship.ApplicationID)
		if err != nil {
			return false, err
		}
		return s.ownsApplicationRecord(ctx, actor, app)
	}
}

func (s *PlacementService) ownsEvaluation(evaluationID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		evaluation, err := s.store.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return false, err
		}
		return s.ownsInternship(evaluation.InternshipID)(ctx, actor)
	}
}

func (s *PlacementService) ownsDocument(documentID int64) guard.OwnershipFunc {
	return func(ctx context.Context, actor models.Identity) (bool, error) {
		doc, err := s.store.GetDocument(ctx, documentID)
		if err != nil {
			return false, err
		}
		return s.ownsInternship(doc.InternshipID)(ctx, actor)
	}
}

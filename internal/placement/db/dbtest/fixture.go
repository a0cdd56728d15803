// Package dbtest provides a throwaway sqlite entity store seeded with one
// actor of every role, for tests of the packages built on top of it.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gartstein/placement/internal/placement/db"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/stretchr/testify/require"
)

// NewRepository opens an empty in-memory store closed at test cleanup.
func NewRepository(t testing.TB) *db.Repository {
	t.Helper()
	repo, err := db.NewSQLiteRepository(":memory:")
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// Fixture holds the seeded rows and the identities of their users.
type Fixture struct {
	Student        models.Identity
	OtherStudent   models.Identity
	Company        models.Identity
	PendingCompany models.Identity
	Advisor        models.Identity
	OtherAdvisor   models.Identity
	Manager        models.Identity
	StudentID      int64
	OtherStudentID int64
	CompanyID      int64
	PendingID      int64
	CompanyAdvisor int64
	FacultyAdvisor int64
	OtherFaculty   int64
	OfferID        int64
	HiddenOfferID  int64
}

// Seed fills repo with a validated company and its offer, a pending company
// and its hidden offer, two students, two faculty advisors, a company advisor
// and a program manager.
func Seed(t testing.TB, repo *db.Repository) *Fixture {
	t.Helper()
	ctx := context.Background()
	fx := &Fixture{}

	account := func(role models.Role, name string, profile func(userID int64) interface{}) models.Identity {
		user := &models.User{
			Email:        fmt.Sprintf("%s@example.com", name),
			PasswordHash: "x",
			Role:         role,
		}
		require.NoError(t, repo.CreateAccount(ctx, user, profile), "failed to seed %s", name)
		return models.Identity{UserID: user.ID, Role: role}
	}

	var student, otherStudent models.Student
	fx.Student = account(models.RoleStudent, "student", func(userID int64) interface{} {
		student = models.Student{UserID: userID, Name: "Student"}
		return &student
	})
	fx.OtherStudent = account(models.RoleStudent, "other-student", func(userID int64) interface{} {
		otherStudent = models.Student{UserID: userID, Name: "Other Student"}
		return &otherStudent
	})
	fx.StudentID, fx.OtherStudentID = student.ID, otherStudent.ID

	var advisor, otherAdvisor models.FacultyAdvisor
	fx.Advisor = account(models.RoleFacultyAdvisor, "advisor", func(userID int64) interface{} {
		advisor = models.FacultyAdvisor{UserID: userID, Name: "Advisor", Department: "CS"}
		return &advisor
	})
	fx.OtherAdvisor = account(models.RoleFacultyAdvisor, "other-advisor", func(userID int64) interface{} {
		otherAdvisor = models.FacultyAdvisor{UserID: userID, Name: "Other Advisor"}
		return &otherAdvisor
	})
	fx.FacultyAdvisor, fx.OtherFaculty = advisor.ID, otherAdvisor.ID

	fx.Manager = account(models.RoleProgramManager, "manager", func(userID int64) interface{} {
		return &models.ProgramManager{UserID: userID, Name: "Manager"}
	})

	fx.Company = account(models.RoleCompany, "company", nil)
	fx.PendingCompany = account(models.RoleCompany, "pending-company", nil)

	company := &models.Company{UserID: fx.Company.UserID, Name: "Acme", Validated: true}
	require.NoError(t, repo.CreateCompany(ctx, company))
	pending := &models.Company{UserID: fx.PendingCompany.UserID, Name: "Pending Ltd"}
	require.NoError(t, repo.CreateCompany(ctx, pending))
	fx.CompanyID, fx.PendingID = company.ID, pending.ID

	companyAdvisor := &models.CompanyAdvisor{CompanyID: company.ID, Name: "Mentor"}
	require.NoError(t, repo.CreateCompanyAdvisor(ctx, companyAdvisor))
	fx.CompanyAdvisor = companyAdvisor.ID

	now := time.Now().UTC()
	offer := &models.Offer{CompanyID: company.ID, Title: "Backend intern", Duration: 6, PublishedAt: now}
	require.NoError(t, repo.CreateOffer(ctx, offer))
	hidden := &models.Offer{CompanyID: pending.ID, Title: "Hidden intern", Duration: 3, PublishedAt: now}
	require.NoError(t, repo.CreateOffer(ctx, hidden))
	fx.OfferID, fx.HiddenOfferID = offer.ID, hidden.ID

	return fx
}

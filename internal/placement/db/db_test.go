package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gartstein/placement/internal/placement/db"
	"github.com/gartstein/placement/internal/placement/db/dbtest"
	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/lifecycle"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/gartstein/placement/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptedApplication stores an accepted application of the fixture student.
func acceptedApplication(t *testing.T, repo *db.Repository, fx *dbtest.Fixture) *models.Application {
	t.Helper()
	app := &models.Application{
		StudentID:   fx.StudentID,
		OfferID:     fx.OfferID,
		Status:      models.ApplicationAccepted,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, repo.CreateApplication(context.Background(), app))
	return app
}

func newInternship(t *testing.T, repo *db.Repository, fx *dbtest.Fixture) *models.Internship {
	t.Helper()
	app := acceptedApplication(t, repo, fx)
	internship := &models.Internship{
		ApplicationID:    app.ID,
		FacultyAdvisorID: fx.FacultyAdvisor,
		CompanyAdvisorID: fx.CompanyAdvisor,
		StartDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateInternship(context.Background(), internship))
	return internship
}

func TestNewRepository_UnsupportedDriver(t *testing.T) {
	_, err := db.NewRepository(&db.Config{Driver: "mysql"})
	assert.Error(t, err)
}

// TestCreateUser_DuplicateEmail verifies the unique email index.
func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo := dbtest.NewRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, &models.User{Email: "a@example.com", PasswordHash: "x", Role: models.RoleStudent}))
	err := repo.CreateUser(ctx, &models.User{Email: "a@example.com", PasswordHash: "y", Role: models.RoleCompany})
	assert.ErrorIs(t, err, e.ErrDuplicateEmail)
	assert.ErrorIs(t, err, e.ErrConflict)

	user, err := repo.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)

	_, err = repo.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, e.ErrUserNotFound)
}

func TestCreateAccount_RollsBackOnProfileFailure(t *testing.T) {
	repo := dbtest.NewRepository(t)
	ctx := context.Background()

	user := &models.User{Email: "s@example.com", PasswordHash: "x", Role: models.RoleStudent}
	err := repo.CreateAccount(ctx, user, func(int64) interface{} {
		// no such user
		return &models.Student{UserID: 9999, Name: "Ghost"}
	})
	require.Error(t, err)

	_, err = repo.GetUserByEmail(ctx, "s@example.com")
	assert.ErrorIs(t, err, e.ErrNotFound, "user insert must be rolled back with the profile")
}

func TestCompany(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	company, err := repo.GetCompanyByUser(ctx, fx.Company.UserID)
	require.NoError(t, err)
	assert.Equal(t, fx.CompanyID, company.ID)

	err = repo.CreateCompany(ctx, &models.Company{UserID: fx.Company.UserID, Name: "Second"})
	assert.ErrorIs(t, err, e.ErrCompanyAlreadyExists)

	require.NoError(t, repo.SetCompanyValidated(ctx, fx.PendingID, true))
	pending, err := repo.GetCompany(ctx, fx.PendingID)
	require.NoError(t, err)
	assert.True(t, pending.Validated)

	assert.ErrorIs(t, repo.SetCompanyValidated(ctx, 9999, true), e.ErrCompanyNotFound)
	_, err = repo.GetCompany(ctx, 9999)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListPublicOffers_OnlyValidatedCompanies(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	offers, err := repo.ListPublicOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, fx.OfferID, offers[0].ID)

	require.NoError(t, repo.SetCompanyValidated(ctx, fx.CompanyID, false))
	offers, err = repo.ListPublicOffers(ctx)
	require.NoError(t, err)
	assert.Empty(t, offers)

	require.NoError(t, repo.SetCompanyValidated(ctx, fx.PendingID, true))
	offers, err = repo.ListPublicOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, fx.HiddenOfferID, offers[0].ID)
}

func TestUpdateOffer(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	err := repo.UpdateOffer(ctx, &models.OfferUpdate{
		ID:       fx.OfferID,
		Title:    utils.Ptr("Platform intern"),
		Duration: utils.Ptr(0),
	})
	require.NoError(t, err)

	offer, err := repo.GetOffer(ctx, fx.OfferID)
	require.NoError(t, err)
	assert.Equal(t, "Platform intern", offer.Title)
	assert.Equal(t, 0, offer.Duration)

	assert.NoError(t, repo.UpdateOffer(ctx, &models.OfferUpdate{ID: fx.OfferID}), "empty update only checks existence")
	assert.ErrorIs(t, repo.UpdateOffer(ctx, &models.OfferUpdate{ID: 9999}), e.ErrOfferNotFound)
	assert.ErrorIs(t, repo.UpdateOffer(ctx, &models.OfferUpdate{ID: 9999, Title: utils.Ptr("x")}), e.ErrOfferNotFound)
}

func TestCreateApplication_DuplicatePair(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	first := &models.Application{StudentID: fx.StudentID, OfferID: fx.OfferID, Status: models.ApplicationPending, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateApplication(ctx, first))

	second := &models.Application{StudentID: fx.StudentID, OfferID: fx.OfferID, Status: models.ApplicationPending, SubmittedAt: time.Now()}
	err := repo.CreateApplication(ctx, second)
	assert.ErrorIs(t, err, e.ErrDuplicateApplication)
	assert.ErrorIs(t, err, e.ErrConflict)

	other := &models.Application{StudentID: fx.OtherStudentID, OfferID: fx.OfferID, Status: models.ApplicationPending, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateApplication(ctx, other))

	count, err := repo.CountApplicationsForOffer(ctx, fx.OfferID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	apps, err := repo.ListApplicationsByOffer(ctx, fx.OfferID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestApplicationStatusAndDelete(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	app := &models.Application{StudentID: fx.StudentID, OfferID: fx.OfferID, Status: models.ApplicationPending, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateApplication(ctx, app))

	require.NoError(t, repo.UpdateApplicationStatus(ctx, app.ID, models.ApplicationRejected))
	stored, err := repo.GetApplicationForUpdate(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, stored.Status)

	require.NoError(t, repo.DeleteApplication(ctx, app.ID))
	_, err = repo.GetApplication(ctx, app.ID)
	assert.ErrorIs(t, err, e.ErrApplicationNotFound)
	assert.ErrorIs(t, repo.DeleteApplication(ctx, app.ID), e.ErrApplicationNotFound)
	assert.ErrorIs(t, repo.UpdateApplicationStatus(ctx, app.ID, models.ApplicationAccepted), e.ErrApplicationNotFound)
}

func TestForeignKeysRestrictDeletes(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	acceptedApplication(t, repo, fx)
	err := repo.DeleteOffer(ctx, fx.OfferID)
	assert.Error(t, err, "an offer with applications must not be deleted by the store")

	_, err = repo.GetOffer(ctx, fx.OfferID)
	assert.NoError(t, err)

	require.NoError(t, repo.DeleteOffer(ctx, fx.HiddenOfferID))
	assert.ErrorIs(t, repo.DeleteOffer(ctx, fx.HiddenOfferID), e.ErrOfferNotFound)
}

func TestCreateInternship_OnePerApplication(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	internship := newInternship(t, repo, fx)

	exists, err := repo.InternshipExistsForApplication(ctx, internship.ApplicationID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.CreateInternship(ctx, &models.Internship{
		ApplicationID:    internship.ApplicationID,
		FacultyAdvisorID: fx.OtherFaculty,
		CompanyAdvisorID: fx.CompanyAdvisor,
		StartDate:        time.Now(),
	})
	assert.ErrorIs(t, err, e.ErrInternshipAlreadyExists)

	exists, err = repo.InternshipExistsForApplication(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateInternship_Overwrites(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	internship := newInternship(t, repo, fx)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	state := models.FinalCompleted

	require.NoError(t, repo.UpdateInternship(ctx, &models.InternshipUpdate{
		ID:         internship.ID,
		StartDate:  internship.StartDate,
		EndDate:    &end,
		FinalState: &state,
	}))
	stored, err := repo.GetInternship(ctx, internship.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EndDate)
	assert.True(t, end.Equal(*stored.EndDate))
	require.NotNil(t, stored.FinalState)
	assert.Equal(t, models.FinalCompleted, *stored.FinalState)

	require.NoError(t, repo.UpdateInternship(ctx, &models.InternshipUpdate{ID: internship.ID, StartDate: internship.StartDate}))
	stored, err = repo.GetInternship(ctx, internship.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.EndDate)
	assert.Nil(t, stored.FinalState)

	assert.ErrorIs(t, repo.UpdateInternship(ctx, &models.InternshipUpdate{ID: 9999, StartDate: time.Now()}), e.ErrInternshipNotFound)
}

func TestEvaluations(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	internship := newInternship(t, repo, fx)
	progress := &models.Evaluation{InternshipID: internship.ID, Type: models.EvaluationProgress, Date: time.Now(), Score: 16}
	final := &models.Evaluation{InternshipID: internship.ID, Type: models.EvaluationFinal, Date: time.Now(), Score: 20}
	require.NoError(t, repo.CreateEvaluation(ctx, progress))
	require.NoError(t, repo.CreateEvaluation(ctx, final))

	list, err := repo.ListEvaluations(ctx, internship.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, progress.ID, list[0].ID)

	require.NoError(t, repo.UpdateEvaluation(ctx, &models.EvaluationUpdate{ID: progress.ID, Type: models.EvaluationProgress, Score: 0, Report: "redo"}))
	stored, err := repo.GetEvaluation(ctx, progress.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Score)
	assert.Equal(t, "redo", stored.Report)

	err = repo.CreateEvaluation(ctx, &models.Evaluation{InternshipID: internship.ID, Type: models.EvaluationFinal, Date: time.Now(), Score: 21})
	assert.Error(t, err, "check constraint must reject out of range scores")

	require.NoError(t, repo.DeleteEvaluation(ctx, final.ID))
	assert.ErrorIs(t, repo.DeleteEvaluation(ctx, final.ID), e.ErrEvaluationNotFound)
	assert.ErrorIs(t, repo.UpdateEvaluation(ctx, &models.EvaluationUpdate{ID: final.ID, Type: models.EvaluationFinal}), e.ErrEvaluationNotFound)
}

func TestDocuments(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	internship := newInternship(t, repo, fx)
	for _, name := range []string{"report.pdf", "report.pdf"} {
		require.NoError(t, repo.CreateDocument(ctx, &models.Document{
			InternshipID: internship.ID,
			OriginalName: name,
			StoredName:   "stored-" + name,
			Category:     models.DocumentReport,
			UploadedAt:   time.Now(),
		}))
	}

	docs, err := repo.ListDocuments(ctx, internship.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2, "documents have no uniqueness constraint")

	require.NoError(t, repo.DeleteDocument(ctx, docs[0].ID))
	_, err = repo.GetDocument(ctx, docs[0].ID)
	assert.ErrorIs(t, err, e.ErrDocumentNotFound)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	repo := dbtest.NewRepository(t)
	fx := dbtest.Seed(t, repo)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx lifecycle.Store) error {
		if err := tx.SetCompanyValidated(ctx, fx.PendingID, true); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	company, err := repo.GetCompany(ctx, fx.PendingID)
	require.NoError(t, err)
	assert.False(t, company.Validated)
}

package guard

import (
	"context"
	"errors"
	"testing"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var allRoles = []models.Role{
	models.RoleStudent,
	models.RoleCompany,
	models.RoleFacultyAdvisor,
	models.RoleProgramManager,
}

func owned(ok bool) OwnershipFunc {
	return func(context.Context, models.Identity) (bool, error) {
		return ok, nil
	}
}

func TestAuthorize_Matrix(t *testing.T) {
	g := New(zaptest.NewLogger(t))
	ctx := context.Background()

	// expected outcome per role when the caller owns the resource.
	tests := []struct {
		action  Action
		allowed []models.Role
	}{
		{CreateOffer, []models.Role{models.RoleCompany}},
		{UpdateOffer, []models.Role{models.RoleCompany, models.RoleProgramManager}},
		{DeleteOffer, []models.Role{models.RoleCompany, models.RoleProgramManager}},
		{SubmitApplication, []models.Role{models.RoleStudent}},
		{SetApplicationStatus, []models.Role{models.RoleCompany, models.RoleProgramManager}},
		{DeleteApplication, []models.Role{models.RoleStudent, models.RoleProgramManager}},
		{CreateInternship, []models.Role{models.RoleProgramManager}},
		{UpdateInternship, []models.Role{models.RoleProgramManager, models.RoleFacultyAdvisor}},
		{WriteEvaluation, []models.Role{models.RoleFacultyAdvisor, models.RoleCompany, models.RoleProgramManager}},
		{ValidateCompany, []models.Role{models.RoleProgramManager}},
		{RegisterCompany, []models.Role{models.RoleCompany}},
		{RegisterAdvisor, []models.Role{models.RoleCompany, models.RoleProgramManager}},
		{WriteDocument, allRoles},
		{ViewInternship, allRoles},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.ElementsMatch(t, tt.allowed, g.Roles(tt.action))
			for _, role := range allRoles {
				err := g.Authorize(ctx, models.Identity{UserID: 1, Role: role}, tt.action, owned(true))
				if contains(tt.allowed, role) {
					assert.NoError(t, err, "%s should be allowed to %s", role, tt.action)
				} else {
					assert.ErrorIs(t, err, e.ErrUnauthorized, "%s should not be allowed to %s", role, tt.action)
				}
			}
		})
	}
}

func TestAuthorize_EveryActionDeclared(t *testing.T) {
	for action, grants := range Permissions {
		assert.NotEmpty(t, grants, "action %s has no grants", action)
	}
}

func TestAuthorize_Ownership(t *testing.T) {
	g := New(zaptest.NewLogger(t))
	ctx := context.Background()
	company := models.Identity{UserID: 5, Role: models.RoleCompany}
	manager := models.Identity{UserID: 6, Role: models.RoleProgramManager}

	assert.NoError(t, g.Authorize(ctx, company, UpdateOffer, owned(true)))
	assert.ErrorIs(t, g.Authorize(ctx, company, UpdateOffer, owned(false)), e.ErrUnauthorized)
	assert.ErrorIs(t, g.Authorize(ctx, company, UpdateOffer, nil), e.ErrUnauthorized)

	// unrestricted grants never consult ownership
	called := false
	err := g.Authorize(ctx, manager, UpdateOffer, func(context.Context, models.Identity) (bool, error) {
		called = true
		return false, nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestAuthorize_RoleCheckedBeforeOwnership(t *testing.T) {
	g := New(zaptest.NewLogger(t))
	called := false
	owns := func(context.Context, models.Identity) (bool, error) {
		called = true
		return true, nil
	}

	err := g.Authorize(context.Background(), models.Identity{UserID: 1, Role: models.RoleStudent}, CreateInternship, owns)
	assert.ErrorIs(t, err, e.ErrUnauthorized)
	assert.False(t, called, "ownership must not be looked up for a role without a grant")
}

func TestAuthorize_OwnershipErrorPropagates(t *testing.T) {
	g := New(zaptest.NewLogger(t))
	err := g.Authorize(context.Background(), models.Identity{UserID: 1, Role: models.RoleCompany}, DeleteOffer,
		func(context.Context, models.Identity) (bool, error) {
			return false, e.ErrOfferNotFound
		})
	assert.ErrorIs(t, err, e.ErrOfferNotFound)
	assert.False(t, errors.Is(err, e.ErrUnauthorized))
}

func TestAuthorize_AnonymousDenied(t *testing.T) {
	g := New(zaptest.NewLogger(t))
	for action := range Permissions {
		err := g.Authorize(context.Background(), models.Identity{}, action, owned(true))
		assert.ErrorIs(t, err, e.ErrUnauthorized, "anonymous caller allowed to %s", action)
	}
}

func TestAuthorize_LogsDenial(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g := New(zap.New(core))

	err := g.Authorize(context.Background(), models.Identity{UserID: 42, Role: models.RoleStudent}, ValidateCompany, nil)
	require.Error(t, err)

	entries := logs.FilterMessage("permission denied").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(42), fields["user_id"])
	assert.Equal(t, string(ValidateCompany), fields["action"])
	assert.Equal(t, string(models.RoleStudent), fields["role"])
}

func contains(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

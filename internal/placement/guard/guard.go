// Package guard decides whether an actor may perform an action. Permissions
// are declared in one table: the roles allowed per action, each optionally
// restricted to resources the actor owns.
package guard

import (
	"context"
	"fmt"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"go.uber.org/zap"
)

// Action is an operation subject to authorization.
type Action string

const (
	RegisterCompany       Action = "company.register"
	ValidateCompany       Action = "company.validate"
	RegisterAdvisor       Action = "company.advisor.register"
	CreateOffer           Action = "offer.create"
	UpdateOffer           Action = "offer.update"
	DeleteOffer           Action = "offer.delete"
	ViewOfferApplications Action = "offer.applications"
	SubmitApplication     Action = "application.submit"
	SetApplicationStatus  Action = "application.status"
	DeleteApplication     Action = "application.delete"
	ViewApplication       Action = "application.view"
	CreateInternship      Action = "internship.create"
	UpdateInternship      Action = "internship.update"
	ViewInternship        Action = "internship.view"
	WriteEvaluation       Action = "evaluation.write"
	ViewEvaluations       Action = "evaluation.view"
	WriteDocument         Action = "document.write"
	ViewDocuments         Action = "document.view"
)

// Grant allows a role to perform an action. When Owner is set the actor must
// also own the targeted resource.
type Grant struct {
	Role  models.Role
	Owner bool
}

func allow(role models.Role) Grant { return Grant{Role: role} }
func owner(role models.Role) Grant { return Grant{Role: role, Owner: true} }

// participants may act on an internship they take part in.
var participants = []Grant{
	owner(models.RoleStudent),
	owner(models.RoleCompany),
	owner(models.RoleFacultyAdvisor),
	allow(models.RoleProgramManager),
}

// Permissions is the role/action matrix.
var Permissions = map[Action][]Grant{
	RegisterCompany:       {allow(models.RoleCompany)},
	ValidateCompany:       {allow(models.RoleProgramManager)},
	RegisterAdvisor:       {owner(models.RoleCompany), allow(models.RoleProgramManager)},
	CreateOffer:           {owner(models.RoleCompany)},
	UpdateOffer:           {owner(models.RoleCompany), allow(models.RoleProgramManager)},
	DeleteOffer:           {owner(models.RoleCompany), allow(models.RoleProgramManager)},
	ViewOfferApplications: {owner(models.RoleCompany), allow(models.RoleProgramManager)},
	SubmitApplication:     {owner(models.RoleStudent)},
	SetApplicationStatus:  {owner(models.RoleCompany), allow(models.RoleProgramManager)},
	DeleteApplication:     {owner(models.RoleStudent), allow(models.RoleProgramManager)},
	ViewApplication:       {owner(models.RoleStudent), owner(models.RoleCompany), allow(models.RoleProgramManager)},
	CreateInternship:      {allow(models.RoleProgramManager)},
	UpdateInternship:      {allow(models.RoleProgramManager), owner(models.RoleFacultyAdvisor)},
	ViewInternship:        participants,
	WriteEvaluation:       {owner(models.RoleFacultyAdvisor), owner(models.RoleCompany), allow(models.RoleProgramManager)},
	ViewEvaluations:       participants,
	WriteDocument:         participants,
	ViewDocuments:         participants,
}

// OwnershipFunc reports whether actor owns the resource targeted by a request.
type OwnershipFunc func(ctx context.Context, actor models.Identity) (bool, error)

// Guard evaluates the permission table.
type Guard struct {
	permissions map[Action][]Grant
	logger      *zap.Logger
}

// New constructs a Guard over the default permission table.
func New(logger *zap.Logger) *Guard {
	return &Guard{
		permissions: Permissions,
		logger:      logger.Named("guard"),
	}
}

// Authorize returns nil when actor may perform action, and an error wrapping
// ErrUnauthorized otherwise. owns is consulted only for grants restricted to
// owners; a nil owns denies those grants. Errors from owns are returned as is.
func (g *Guard) Authorize(ctx context.Context, actor models.Identity, action Action, owns OwnershipFunc) error {
	if actor.Anonymous() {
		return g.deny(actor, action, "no authenticated caller")
	}
	grant, ok := g.grantFor(actor.Role, action)
	if !ok {
		return g.deny(actor, action, fmt.Sprintf("role %s may not perform %s", actor.Role, action))
	}
	if !grant.Owner {
		return nil
	}
	if owns == nil {
		return g.deny(actor, action, "ownership cannot be established")
	}
	owned, err := owns(ctx, actor)
	if err != nil {
		return err
	}
	if !owned {
		return g.deny(actor, action, fmt.Sprintf("%s is limited to resources the caller owns", action))
	}
	return nil
}

// Roles lists the roles allowed to perform action.
func (g *Guard) Roles(action Action) []models.Role {
	grants := g.permissions[action]
	roles := make([]models.Role, 0, len(grants))
	for _, grant := range grants {
		roles = append(roles, grant.Role)
	}
	return roles
}

func (g *Guard) grantFor(role models.Role, action Action) (Grant, bool) {
	for _, grant := range g.permissions[action] {
		if grant.Role == role {
			return grant, true
		}
	}
	return Grant{}, false
}

func (g *Guard) deny(actor models.Identity, action Action, reason string) error {
	g.logger.Info("permission denied",
		zap.Int64("user_id", actor.UserID),
		zap.String("role", string(actor.Role)),
		zap.String("action", string(action)),
		zap.String("reason", reason),
	)
	return fmt.Errorf("%w: %s", e.ErrUnauthorized, reason)
}

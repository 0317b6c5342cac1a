package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Users       repos.UserRepo
	Assessments repos.AssessmentRepo
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log != nil {
		deps.Log = deps.Log.With("usecases", "users")
	}
	return Usecases{deps: deps}
}

type UserInput struct {
	Email          string
	Role           types.Role
	FirstNames     string
	LastNames      string
	DocumentNumber string
	Code           string
	Phone          string

	HomeInstitution string
	Specialty       string
	SupervisorID    *uuid.UUID
	InstitutionID   *uuid.UUID

	Profession    string
	LicenseNumber string
	Workplace     string
}

func (in UserInput) validate() error {
	v := apperrors.NewValidation()
	if strings.TrimSpace(in.Email) == "" {
		v.Add("email", "required")
	}
	if strings.TrimSpace(in.FirstNames) == "" {
		v.Add("first_names", "required")
	}
	if strings.TrimSpace(in.LastNames) == "" {
		v.Add("last_names", "required")
	}
	switch in.Role {
	case types.RoleAdmin, types.RoleSupervisor, types.RoleSurveyor:
	default:
		v.Add("role", "unknown role")
	}
	return v.Err()
}

// authorizeManage decides whether the actor may create or modify a user
// with the given shape. Admins manage everyone; supervisors manage only
// surveyors assigned to themselves.
func (u Usecases) authorizeManage(actor types.Actor, role types.Role, supervisorID *uuid.UUID) error {
	if actor.Can(types.CapManageUsers) {
		return nil
	}
	if actor.Role == types.RoleSupervisor &&
		role == types.RoleSurveyor &&
		supervisorID != nil && *supervisorID == actor.ID {
		return nil
	}
	return fmt.Errorf("manage users: %w", apperrors.ErrUnauthorized)
}

func (u Usecases) Create(ctx context.Context, actor types.Actor, in UserInput) (uuid.UUID, error) {
	if err := in.validate(); err != nil {
		return uuid.Nil, err
	}
	if err := u.authorizeManage(actor, in.Role, in.SupervisorID); err != nil {
		return uuid.Nil, err
	}
	dbc := dbctx.New(ctx)
	existing, err := u.deps.Users.GetByEmail(dbc, strings.ToLower(in.Email))
	if err != nil {
		return uuid.Nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return uuid.Nil, apperrors.Validation("email", "already registered")
	}
	if in.SupervisorID != nil {
		sup, err := u.deps.Users.GetByID(dbc, *in.SupervisorID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load supervisor: %w", err)
		}
		if sup == nil || sup.Role != types.RoleSupervisor {
			return uuid.Nil, apperrors.Validation("supervisor_id", "must reference a supervisor")
		}
	}
	usr := &types.User{ID: uuid.New()}
	applyInput(usr, in)
	if err := u.deps.Users.Create(dbc, usr); err != nil {
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}
	u.deps.Log.Info("user created", "user_id", usr.ID, "role", usr.Role, "actor_id", actor.ID)
	return usr.ID, nil
}

func (u Usecases) Update(ctx context.Context, actor types.Actor, id uuid.UUID, in UserInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	usr, err := u.deps.Users.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if usr == nil {
		return fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
	}
	// The actor needs authority over both the current and the new shape:
	// a supervisor cannot grab someone else's surveyor or promote one.
	if err := u.authorizeManage(actor, usr.Role, usr.SupervisorID); err != nil {
		return err
	}
	if err := u.authorizeManage(actor, in.Role, in.SupervisorID); err != nil {
		return err
	}
	applyInput(usr, in)
	if err := u.deps.Users.Update(dbc, usr); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes a user that has never recorded a case. Recorders stay
// so their assessments keep a valid attribution.
func (u Usecases) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	dbc := dbctx.New(ctx)
	usr, err := u.deps.Users.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if usr == nil {
		return fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
	}
	if err := u.authorizeManage(actor, usr.Role, usr.SupervisorID); err != nil {
		return err
	}
	recorded, err := u.deps.Assessments.List(dbc, repos.CaseFilter{
		RecordedByIDs: []uuid.UUID{usr.ID},
		Limit:         1,
	})
	if err != nil {
		return fmt.Errorf("check recorded cases: %w", err)
	}
	if len(recorded) > 0 {
		return fmt.Errorf("user has recorded cases: %w", apperrors.ErrInUse)
	}
	if err := u.deps.Users.Delete(dbc, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	u.deps.Log.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (u Usecases) Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*types.User, error) {
	dbc := dbctx.New(ctx)
	usr, err := u.deps.Users.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if usr == nil {
		return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
	}
	if actor.ID == id {
		return usr, nil
	}
	if err := u.authorizeManage(actor, usr.Role, usr.SupervisorID); err != nil {
		return nil, err
	}
	return usr, nil
}

// ListByRole is an admin-only listing.
func (u Usecases) ListByRole(ctx context.Context, actor types.Actor, role types.Role) ([]*types.User, error) {
	if !actor.Can(types.CapManageUsers) {
		return nil, fmt.Errorf("list users: %w", apperrors.ErrUnauthorized)
	}
	return u.deps.Users.ListByRole(dbctx.New(ctx), role)
}

// Team lists the surveyors assigned to a supervisor. Supervisors see
// their own team; admins can ask for anyone's.
func (u Usecases) Team(ctx context.Context, actor types.Actor, supervisorID uuid.UUID) ([]*types.User, error) {
	if !actor.Can(types.CapManageUsers) {
		if !actor.Can(types.CapViewTeamCases) || supervisorID != actor.ID {
			return nil, fmt.Errorf("list team: %w", apperrors.ErrUnauthorized)
		}
	}
	return u.deps.Users.ListBySupervisor(dbctx.New(ctx), supervisorID)
}

func applyInput(usr *types.User, in UserInput) {
	usr.Email = strings.ToLower(strings.TrimSpace(in.Email))
	usr.Role = in.Role
	usr.FirstNames = strings.TrimSpace(in.FirstNames)
	usr.LastNames = strings.TrimSpace(in.LastNames)
	usr.DocumentNumber = in.DocumentNumber
	usr.Code = in.Code
	usr.Phone = in.Phone
	usr.HomeInstitution = in.HomeInstitution
	usr.Specialty = in.Specialty
	usr.SupervisorID = in.SupervisorID
	usr.InstitutionID = in.InstitutionID
	usr.Profession = in.Profession
	usr.LicenseNumber = in.LicenseNumber
	usr.Workplace = in.Workplace
}

package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/labelr/internal/core/access"
	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,31}$`)

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	workflow
}

// NewUserService creates a new UserService with injected dependencies.
func NewUserService(deps Deps) *UserServiceImpl {
	return &UserServiceImpl{workflow: newWorkflow(deps)}
}

// Bootstrap creates the first admin account. It needs no acting user and
// fails once any account exists.
func (s *UserServiceImpl) Bootstrap(ctx context.Context, req primary.CreateUserRequest) (*primary.User, error) {
	ctx = correlate(ctx)
	req.Role = string(access.RoleAdmin)
	rec, err := newUserRecord(req)
	if err != nil {
		return nil, err
	}

	var ob outbox
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		n, err := uow.Users().Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return errs.Conflict("users already exist, create accounts as an admin instead")
		}
		if err := uow.Users().Create(ctx, rec); err != nil {
			return err
		}
		ob.record(rec.ID, "user.bootstrapped", "user", rec.ID, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToUser(rec), nil
}

// CreateUser creates a user account. Usernames are unique.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req primary.CreateUserRequest) (*primary.User, error) {
	ctx = correlate(ctx)
	rec, err := newUserRecord(req)
	if err != nil {
		return nil, err
	}

	var ob outbox
	err = s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageUsers(actor); !r.Allowed {
			return r.Error()
		}
		if err := uow.Users().Create(ctx, rec); err != nil {
			if errs.IsConflict(err) {
				return errs.Conflict("username %q is taken", rec.Username)
			}
			return err
		}
		ob.record(actor.ID, "user.created", "user", rec.ID, map[string]any{"role": rec.Role})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flush(ctx, &ob)
	return recordToUser(rec), nil
}

func newUserRecord(req primary.CreateUserRequest) (*secondary.UserRecord, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, errs.Validation("username", "username %q must be 2-32 characters of a-z, 0-9, '.', '_' or '-'", req.Username)
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, errs.Validation("email", "email %q is not an address", email)
	}
	return &secondary.UserRecord{
		Username: username,
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     string(role),
		IsActive: true,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, id int64) (*primary.User, error) {
	record, err := s.store.Repos().Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordToUser(record), nil
}

// ListUsers lists users, optionally by role.
func (s *UserServiceImpl) ListUsers(ctx context.Context, role string) ([]*primary.User, error) {
	if role != "" {
		r, err := access.ParseRole(role)
		if err != nil {
			return nil, err
		}
		role = string(r)
	}
	records, err := s.store.Repos().Users().List(ctx, secondary.UserFilters{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return mapSlice(records, recordToUser), nil
}

// DeactivateUser disables an account. Admins cannot deactivate themselves.
func (s *UserServiceImpl) DeactivateUser(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, false)
}

// ActivateUser re-enables an account.
func (s *UserServiceImpl) ActivateUser(ctx context.Context, id int64) error {
	return s.setActive(ctx, id, true)
}

func (s *UserServiceImpl) setActive(ctx context.Context, id int64, active bool) error {
	ctx = correlate(ctx)
	var ob outbox
	err := s.store.WithinTx(ctx, func(ctx context.Context, uow secondary.UnitOfWork) error {
		actor, err := loadActor(ctx, uow)
		if err != nil {
			return err
		}
		if r := access.CanManageUsers(actor); !r.Allowed {
			return r.Error()
		}
		if !active && actor.ID == id {
			return errs.Conflict("cannot deactivate your own account")
		}
		if err := uow.Users().SetActive(ctx, id, active); err != nil {
			return err
		}
		action := "user.deactivated"
		if active {
			action = "user.activated"
		}
		ob.record(actor.ID, action, "user", id, nil)
		return nil
	})
	if err != nil {
		return err
	}

	s.flush(ctx, &ob)
	return nil
}

var _ primary.UserService = (*UserServiceImpl)(nil)

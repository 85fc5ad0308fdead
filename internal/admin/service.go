package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/internal/users"
	"github.com/syncdeck/syncdeck-backend/pkg/config"
	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox"
	"github.com/syncdeck/syncdeck-backend/pkg/outbox/payloads"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
	"github.com/syncdeck/syncdeck-backend/pkg/security"
)

const tempPasswordLength = 16

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params users.ListParams) ([]models.User, *pagination.Cursor, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Service exposes the back-office user management operations. Route
// middleware restricts these to admins; the service only guards the
// cases middleware cannot see.
type Service interface {
	ListUsers(ctx context.Context, params ListUsersParams) (*UserList, error)
	DeactivateUser(ctx context.Context, actorID, userID uuid.UUID) (*users.UserDTO, error)
	ReactivateUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	ResetPassword(ctx context.Context, userID uuid.UUID) (*ResetPasswordResult, error)
}

// ServiceParams wires the admin service dependencies.
type ServiceParams struct {
	Users       userStore
	Tx          txRunner
	Outbox      outboxPublisher
	PasswordCfg config.PasswordConfig
	Logger      *logger.Logger
}

type service struct {
	users       userStore
	tx          txRunner
	outbox      outboxPublisher
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the admin service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:       params.Users,
		tx:          params.Tx,
		outbox:      params.Outbox,
		passwordCfg: params.PasswordCfg,
		logg:        params.Logger,
	}, nil
}

// ListUsers returns accounts newest first with cursor pagination.
func (s *service) ListUsers(ctx context.Context, params ListUsersParams) (*UserList, error) {
	listParams := users.ListParams{
		Role:  params.Role,
		Limit: params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		listParams.Cursor = cursor
	}

	rows, next, err := s.users.List(ctx, listParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	list := &UserList{Users: make([]users.UserDTO, 0, len(rows))}
	for i := range rows {
		list.Users = append(list.Users, *users.FromModel(&rows[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// DeactivateUser disables an account and emits user_deactivated so
// downstream consumers can react. Admins cannot deactivate themselves
// or other admin accounts.
func (s *service) DeactivateUser(ctx context.Context, actorID, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot deactivate your own account")
	}
	if user.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deactivated here")
	}
	if !user.IsActive {
		return users.FromModel(user), nil
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.users.SetActive(ctx, tx, user.ID, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventUserDeactivated,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleAdmin.String()},
			Data: payloads.UserDeactivatedEvent{
				UserID:        user.ID,
				Role:          user.Role,
				DeactivatedAt: now,
			},
			Version:    1,
			OccurredAt: now,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit user deactivated")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.IsActive = false
	logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
	s.logg.Info(logCtx, "user deactivated")
	return users.FromModel(user), nil
}

// ReactivateUser re-enables a previously deactivated account.
func (s *service) ReactivateUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsActive {
		return users.FromModel(user), nil
	}

	updated, err := s.users.SetActive(ctx, nil, user.ID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate user")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	user.IsActive = true
	logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
	s.logg.Info(logCtx, "user reactivated")
	return users.FromModel(user), nil
}

// ResetPassword replaces the user's credential with a random temporary
// password and returns it once so the admin can hand it over.
func (s *service) ResetPassword(ctx context.Context, userID uuid.UUID) (*ResetPasswordResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash temporary password")
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store temporary password")
	}

	logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
	s.logg.Info(logCtx, "password reset by admin")
	return &ResetPasswordResult{TempPassword: tempPassword}, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

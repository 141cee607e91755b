package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// UserCreateInput captures fields for admin user creation. Role is referenced
// by id, unlike self-registration which names it.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	RoleID   string
}

// UserUpdateInput captures optional fields for user updates.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	RoleID   *string
	IsActive *bool
}

// UserService manages user accounts. Route-level role guards gate the
// admin-only endpoints; ownership rules that depend on the target record are
// enforced here.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, logger *zap.Logger, bcryptCost int) *UserService {
	return &UserService{users: users, roles: roles, logger: logger, bcryptCost: bcryptCost}
}

// Create adds a new account (Admin only).
func (s *UserService) Create(ctx context.Context, identity domain.Identity, input UserCreateInput) (*domain.User, error) {
	if identity.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only Admin can create users")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already in use", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	role, err := s.roles.GetByID(ctx, input.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid role id", nil)
		}
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("actor", identity.Subject))
	return user, nil
}

// List returns all accounts (Admin only).
func (s *UserService) List(ctx context.Context, identity domain.Identity) ([]domain.User, error) {
	if identity.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only Admin can list users")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one account. Admins may read anyone; others only themselves.
func (s *UserService) Get(ctx context.Context, identity domain.Identity, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if identity.Role != domain.RoleAdmin && identity.Subject != user.ID {
		return nil, apperrors.NewForbidden("you can only view your own profile")
	}
	return user, nil
}

// Update modifies an account. Admins may update anyone; others only
// themselves. A new password is re-hashed, a new role id is validated.
func (s *UserService) Update(ctx context.Context, identity domain.Identity, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if identity.Role != domain.RoleAdmin && identity.Subject != user.ID {
		return nil, apperrors.NewForbidden("you can only update your own account")
	}

	if input.RoleID != nil {
		role, err := s.roles.GetByID(ctx, *input.RoleID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("invalid role id", nil)
			}
			return nil, apperrors.MapError(err)
		}
		user.RoleID = role.ID
		user.RoleName = role.Name
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes an account (Admin only).
func (s *UserService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if identity.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only Admin can delete users")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor", identity.Subject))
	return nil
}

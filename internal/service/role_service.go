package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// RoleService manages role records. Every mutating operation is Admin only;
// the checks are kept here as well as at the routes so a misconfigured route
// cannot bypass them.
type RoleService struct {
	roles  repository.RoleRepository
	logger *zap.Logger
}

// NewRoleService builds the service.
func NewRoleService(roles repository.RoleRepository, logger *zap.Logger) *RoleService {
	return &RoleService{roles: roles, logger: logger}
}

// Create adds a new role.
func (s *RoleService) Create(ctx context.Context, identity domain.Identity, name, description string) (*domain.Role, error) {
	if identity.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only Admin can create roles")
	}

	if _, err := s.roles.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("role already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	role := &domain.Role{Name: name, Description: description}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("role created", zap.String("role", name), zap.String("actor", identity.Subject))
	return role, nil
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// Get returns one role by id.
func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("role", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// Update renames or redescribes a role. Tokens already carrying the old role
// name keep it until they expire or are refreshed.
func (s *RoleService) Update(ctx context.Context, identity domain.Identity, id string, name, description *string) (*domain.Role, error) {
	if identity.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only Admin can update roles")
	}

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("role", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if name != nil {
		role.Name = *name
	}
	if description != nil {
		role.Description = *description
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	return role, nil
}

// Delete removes a role.
func (s *RoleService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if identity.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only Admin can delete roles")
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("role", nil)
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("role deleted", zap.String("role_id", id), zap.String("actor", identity.Subject))
	return nil
}

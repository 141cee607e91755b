package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// TokenPair is the result of every successful issuance: one short-lived
// access token and one long-lived refresh token signed from the same base
// claims. Issuing a new pair never revokes an older one; outstanding tokens
// simply age out.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login and token rotation.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service. The token manager is constructed here
// from config so that the signing secret is read exactly once.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL(), nil),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates by email and password. An unknown email and a wrong
// password fail with the identical error value so the response shape carries
// no enumeration signal.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, TokenPair{}, apperrors.NewInvalidCredentials()
		}
		return nil, TokenPair{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, apperrors.NewInvalidCredentials()
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserLoggedIn, user.ID, events.UserLoggedInPayload{UserID: user.ID, Email: user.Email})
	return user, pair, nil
}

// Register creates a new account with the named role and immediately issues a
// token pair (register implies login).
func (s *AuthService) Register(ctx context.Context, name, email, password, roleName string) (*domain.User, TokenPair, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, TokenPair{}, apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
		}
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{UserID: user.ID, Email: user.Email, Role: user.RoleName})
	return user, pair, nil
}

// Refresh rotates a still-valid refresh token into a fresh pair. Any codec
// failure and any non-refresh kind collapse into the same invalid-token 401.
// The identity is re-read from the store, so a deleted account cannot keep a
// session alive and a role change takes effect on the next rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, TokenPair, error) {
	claims, err := s.tokenMgr.Parse(refreshToken)
	if err != nil {
		return nil, TokenPair{}, apperrors.NewInvalidToken()
	}
	if claims.Kind != domain.TokenKindRefresh {
		return nil, TokenPair{}, apperrors.NewInvalidToken()
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, TokenPair{}, apperrors.NewUnauthorized("session no longer valid")
		}
		return nil, TokenPair{}, apperrors.MapError(err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperrors.MapError(err)
	}
	return user, pair, nil
}

// Profile returns the stored account behind the request identity. The role
// inside an unexpired access token is trusted for authorization, but the
// profile itself is always re-read.
func (s *AuthService) Profile(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// issuePair signs an access and a refresh token from the same base claims
// with independent TTLs.
func (s *AuthService) issuePair(user *domain.User) (TokenPair, error) {
	identity := domain.Identity{Subject: user.ID, Email: user.Email, Role: user.RoleName}

	accessToken, accessExp, err := s.tokenMgr.Sign(identity, domain.TokenKindAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, refreshExp, err := s.tokenMgr.Sign(identity, domain.TokenKindRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

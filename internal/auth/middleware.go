package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

const identityKey = "auth_identity"

// Middleware validates bearer tokens and attaches the caller identity to the
// request. The identity is rebuilt from token claims on every request; no
// store lookup happens here.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs the access guard.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. Every failure mode --
// missing header, malformed token, bad signature, expiry, refresh token
// presented as access token -- yields the same generic 401 so validation
// internals never leak to the caller. Auth failures are never retried.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.Parse(parts[1])
	if err != nil {
		return apperrors.NewInvalidToken()
	}
	if claims.Kind != domain.TokenKindAccess {
		return apperrors.NewInvalidToken()
	}

	c.Locals(identityKey, claims.Identity())
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller. This is the only
// way downstream code learns who the caller is.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

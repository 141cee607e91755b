package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// RequireRole admits a request iff the caller's role is in the allowed set.
// The set is declared per endpoint at route-registration time; an empty set
// admits any authenticated caller. Must run after Middleware.Handle has
// attached the identity -- a missing identity is denied outright.
func RequireRole(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			// unreachable when guard ordering is respected
			return apperrors.NewForbidden("no identity")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

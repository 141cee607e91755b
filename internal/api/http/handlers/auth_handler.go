package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the refresh cookie so browsers only send it to the
// rotation endpoint.
const refreshCookiePath = "/auth/refresh"

// AuthHandler exposes login, refresh, logout, register and profile endpoints.
type AuthHandler struct {
	auth *service.AuthService
	app  config.AppConfig
	cfg  config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, appCfg config.AppConfig, authCfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{auth: authService, app: appCfg, cfg: authCfg}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !validEmail(req.Email) {
		return apperrors.NewValidationError("invalid email", nil)
	}
	if len(req.Password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	user, pair, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpiresAt,
		User:        dto.NewUserResponse(user),
	}})
}

// Register handles POST /auth/register. Registration implies login: the
// response carries a fresh pair just like Login.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Role == "" {
		return apperrors.NewValidationError("name and role required", nil)
	}
	if !validEmail(req.Email) {
		return apperrors.NewValidationError("invalid email", nil)
	}
	if len(req.Password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	user, pair, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpiresAt,
		User:        dto.NewUserResponse(user),
	}})
}

// Refresh handles POST /auth/refresh. The refresh token is sourced from the
// cookie only; each call rotates both tokens.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token == "" {
		return apperrors.NewUnauthorized("missing refresh token")
	}

	_, pair, err := h.auth.Refresh(c.Context(), token)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(fiber.Map{"data": dto.RefreshResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpiresAt,
	}})
}

// Logout handles POST /auth/logout. Public, always succeeds. Stateless tokens
// cannot be revoked; clearing the cookies is all logout can do, and any
// unexpired access token keeps working until it ages out.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.expireCookie(c, refreshCookieName, refreshCookiePath)
	h.expireCookie(c, "access_token", "/")
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// Profile handles GET /auth/profile (access token required).
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.auth.Profile(c.Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(user)})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  time.Now().Add(h.cfg.RefreshCookieMaxAge()),
		HTTPOnly: true,
		Secure:   !h.app.IsDevelopment(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *AuthHandler) expireCookie(c *fiber.Ctx, name, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   !h.app.IsDevelopment(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

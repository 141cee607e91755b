package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

func testApp(tm *TokenManager, roles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Code})
		},
	})

	mw := NewMiddleware(tm)
	app.Get("/protected", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewInternalError(nil)
		}
		return c.JSON(fiber.Map{"subject": identity.Subject, "role": identity.Role})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestAccessGuard(t *testing.T) {
	tm := NewTokenManager("secret-1", time.Minute, time.Hour, nil)
	accessToken, _, err := tm.Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	refreshToken, _, err := tm.Sign(testIdentity, domain.TokenKindRefresh)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	expired, _, err := NewTokenManager("secret-1", time.Minute, time.Hour,
		fixedClock(time.Now().Add(-time.Hour))).Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "no header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "refresh token on access endpoint", authHeader: "Bearer " + refreshToken, wantStatus: http.StatusUnauthorized},
		{name: "valid access token", authHeader: "Bearer " + accessToken, wantStatus: http.StatusOK},
	}

	app := testApp(tm)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, tt.authHeader)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRoleGuard(t *testing.T) {
	tm := NewTokenManager("secret-1", time.Minute, time.Hour, nil)
	devToken, _, err := tm.Sign(testIdentity, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tests := []struct {
		name       string
		roles      []string
		wantStatus int
	}{
		{name: "empty set admits", roles: nil, wantStatus: http.StatusOK},
		{name: "role in set", roles: []string{domain.RoleDeveloper}, wantStatus: http.StatusOK},
		{name: "role among several", roles: []string{domain.RoleAdmin, domain.RoleDeveloper}, wantStatus: http.StatusOK},
		{name: "role not in set", roles: []string{domain.RoleAdmin}, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp(tm, tt.roles...)
			resp := doRequest(t, app, "Bearer "+devToken)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRoleGuardWithoutIdentity(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Code})
		},
	})
	// role guard wired without the access guard in front
	app.Get("/broken", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/broken", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

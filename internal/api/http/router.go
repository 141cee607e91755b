package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/http/handlers"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	Tasks          *handlers.TasksHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Required-role sets are declared here, at
// registration time; the role guard always runs behind the access guard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/profile", cfg.AuthMiddleware.Handle, cfg.Auth.Profile)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Users.Create)
	users.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
	users.Get("/:id", auth.RequireRole(), cfg.Users.Get)
	users.Patch("/:id", auth.RequireRole(), cfg.Users.Update)
	users.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Users.Delete)

	roles := app.Group("/roles", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	roles.Post("", cfg.Roles.Create)
	roles.Get("", cfg.Roles.List)
	roles.Get("/:id", cfg.Roles.Get)
	roles.Patch("/:id", cfg.Roles.Update)
	roles.Delete("/:id", cfg.Roles.Delete)

	tasks := app.Group("/tasks", cfg.AuthMiddleware.Handle)
	tasks.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Tasks.Create)
	tasks.Get("", auth.RequireRole(), cfg.Tasks.List)
	tasks.Get("/:id", auth.RequireRole(), cfg.Tasks.Get)
	tasks.Patch("/:id", auth.RequireRole(), cfg.Tasks.Update)
	tasks.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tasks.Delete)
}

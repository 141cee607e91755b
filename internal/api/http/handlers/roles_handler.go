package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// RolesHandler exposes role management endpoints (all Admin-gated at the
// router).
type RolesHandler struct {
	roles *service.RoleService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roleService *service.RoleService) *RolesHandler {
	return &RolesHandler{roles: roleService}
}

// Create handles POST /roles.
func (h *RolesHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Name) < 3 {
		return apperrors.NewValidationError("role name must be at least 3 characters", nil)
	}

	role, err := h.roles.Create(c.Context(), identity, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// List handles GET /roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	roles, err := h.roles.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, dto.NewRoleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /roles/:id.
func (h *RolesHandler) Get(c *fiber.Ctx) error {
	role, err := h.roles.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// Update handles PATCH /roles/:id.
func (h *RolesHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	role, err := h.roles.Update(c.Context(), identity, c.Params("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// Delete handles DELETE /roles/:id.
func (h *RolesHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.roles.Delete(c.Context(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

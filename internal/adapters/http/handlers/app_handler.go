package handlers

import (
	"strings"

	"authgate/internal/core/services"
	"authgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AppHandler handles app registration endpoints
type AppHandler struct {
	apps *services.AppService
}

// NewAppHandler creates a new app handler
func NewAppHandler(apps *services.AppService) *AppHandler {
	return &AppHandler{apps: apps}
}

// CreateAppRequest represents the new-app request body
type CreateAppRequest struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// Create registers a new app. The response carries the secret; it is
// never retrievable again.
func (h *AppHandler) Create(c *fiber.Ctx) error {
	var req CreateAppRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "App name is required")
	}

	credentials, err := h.apps.Create(c.Context(), strings.TrimSpace(req.Name), req.Attributes)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, "App created successfully", fiber.Map{
		"app": credentials,
	})
}

// Delete removes an app registration
func (h *AppHandler) Delete(c *fiber.Ctx) error {
	if err := h.apps.Delete(c.Context(), c.Params("id")); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "App deleted successfully", nil)
}

// Find searches apps by name substring
func (h *AppHandler) Find(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	matches, err := h.apps.FindLike(c.Context(), query)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Apps retrieved successfully", fiber.Map{
		"apps": matches,
	})
}

// Details returns an app by id, without credential material
func (h *AppHandler) Details(c *fiber.Ctx) error {
	app, err := h.apps.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "App retrieved successfully", fiber.Map{
		"app": app,
	})
}

// SetAttribute stores an app attribute
func (h *AppHandler) SetAttribute(c *fiber.Ctx) error {
	var req AttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.apps.SetAttribute(c.Context(), c.Params("id"), c.Params("key"), req.Value)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Attribute updated successfully", fiber.Map{
		"app": app,
	})
}

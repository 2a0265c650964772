package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	appMode    string
	storePing  func() error
	storeLabel string
}

// NewHealthHandler creates a new health handler. storePing may be nil
// for backends without a connection to check.
func NewHealthHandler(appMode, storeLabel string, storePing func() error) *HealthHandler {
	return &HealthHandler{appMode: appMode, storePing: storePing, storeLabel: storeLabel}
}

// Root handles the root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "authgate API v1.0 is running",
		"mode":    h.appMode,
	})
}

// HealthCheck reports API and store health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	storeStatus := "healthy"
	if h.storePing != nil {
		if err := h.storePing(); err != nil {
			storeStatus = "unhealthy"
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":         "healthy",
			h.storeLabel: storeStatus,
		},
	})
}

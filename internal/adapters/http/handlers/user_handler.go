package handlers

import (
	"strings"

	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/core/services"
	"authgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	users    *services.UserService
	notifier *services.NotificationService
	cfg      *config.Config
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, notifier *services.NotificationService, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, notifier: notifier, cfg: cfg}
}

// CreateUserRequest represents the new-user request body
type CreateUserRequest struct {
	Email string `json:"email"`
}

// ResetRequestBody represents the password-reset request body
type ResetRequestBody struct {
	Email string `json:"email"`
}

// AttributeRequest represents a single attribute assignment
type AttributeRequest struct {
	Value string `json:"value"`
}

// Create provisions a new user and mails a password-setup link
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}

	email := strings.TrimSpace(req.Email)
	user, resetCode, err := h.users.Create(c.Context(), h.cfg.ServiceDomain, email)
	if err != nil {
		return response.DomainError(c, err)
	}

	// The user exists regardless of delivery; a failed mail is reported
	// alongside the created resource, not as a rollback.
	mailed := true
	if err := h.notifier.SendNewUser(c.Context(), email, resetCode); err != nil {
		mailed = false
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"user":   user.Profile(),
		"mailed": mailed,
	})
}

// RequestReset issues a fresh reset code and mails the reset link. The
// response does not reveal whether the email is registered.
func (h *UserHandler) RequestReset(c *fiber.Ctx) error {
	var req ResetRequestBody
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}

	email := strings.TrimSpace(req.Email)
	user, err := h.users.GetByEmail(c.Context(), email)
	if err == nil {
		resetCode, resetErr := h.users.ResetPassword(c.Context(), user.UserID, h.cfg.ServiceDomain)
		if resetErr == nil {
			_ = h.notifier.SendReset(c.Context(), email, resetCode)
		}
	}

	return response.Success(c, "If the account exists, a reset email has been sent", nil)
}

// Find searches users by email substring
func (h *UserHandler) Find(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return response.BadRequest(c, "Query parameter 'q' is required")
	}

	matches, err := h.users.FindLike(c.Context(), query)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": matches,
	})
}

// Details returns a user's profile by id
func (h *UserHandler) Details(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.Profile(),
	})
}

// SetNamedAttribute updates a restricted named attribute. Setting status
// to "reset" triggers the full reset flow including the email.
func (h *UserHandler) SetNamedAttribute(c *fiber.Ctx) error {
	userID := c.Params("id")
	name := c.Params("name")

	var req AttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if name == "status" && req.Value == domain.StatusReset {
		user, err := h.users.GetByID(c.Context(), userID)
		if err != nil {
			return response.DomainError(c, err)
		}
		resetCode, err := h.users.ResetPassword(c.Context(), userID, h.cfg.ServiceDomain)
		if err != nil {
			return response.DomainError(c, err)
		}
		mailed := true
		if err := h.notifier.SendReset(c.Context(), user.Email, resetCode); err != nil {
			mailed = false
		}
		updated, err := h.users.GetByID(c.Context(), userID)
		if err != nil {
			return response.DomainError(c, err)
		}
		return response.Success(c, "Password reset initiated", fiber.Map{
			"user":   updated.Profile(),
			"mailed": mailed,
		})
	}

	user, err := h.users.UpdateNamedAttribute(c.Context(), userID, name, req.Value)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Attribute updated successfully", fiber.Map{
		"user": user.Profile(),
	})
}

// SetAttribute stores an open profile attribute
func (h *UserHandler) SetAttribute(c *fiber.Ctx) error {
	var req AttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.users.SetAttribute(c.Context(), c.Params("id"), c.Params("key"), req.Value)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Attribute updated successfully", fiber.Map{
		"user": user.Profile(),
	})
}

// Delete removes a user
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.Context(), c.Params("id")); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "User deleted successfully", nil)
}

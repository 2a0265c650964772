package handlers

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/core/services"
	"authgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	sessions *services.SessionService
	users    *services.UserService
	cfg      *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *services.SessionService, users *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{sessions: sessions, users: users, cfg: cfg}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RedeemResetRequest represents the reset-code redemption body
type RedeemResetRequest struct {
	Email     string `json:"email"`
	ResetCode string `json:"reset_code"`
	Password  string `json:"password"`
}

// Login authenticates a user and issues a token pair
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	pair, err := h.sessions.Login(c.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccessDenied) {
			return response.Unauthorized(c, "Invalid email or password")
		}
		return response.DomainError(c, err)
	}

	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": pair.AccessToken,
	})
}

// AppToken authenticates an app via Basic credentials (key as username,
// secret as password) and issues a long-lived access token
func (h *AuthHandler) AppToken(c *fiber.Ctx) error {
	key, secret, ok := basicCredentials(c.Get("Authorization"))
	if !ok {
		c.Set("WWW-Authenticate", `Basic realm="app token"`)
		return response.Unauthorized(c, "Basic credentials required")
	}

	token, err := h.sessions.AppToken(c.Context(), key, secret)
	if err != nil {
		if errors.Is(err, domain.ErrAccessDenied) || errors.Is(err, domain.ErrInput) {
			return response.Unauthorized(c, "Invalid app credentials")
		}
		return response.DomainError(c, err)
	}

	return response.Success(c, "App token issued", fiber.Map{
		"access_token": token,
	})
}

// RefreshToken mints a new access token from a valid refresh token
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	accessToken, err := h.sessions.Refresh(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleRefresh):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Session superseded, please login again")
		case errors.Is(err, domain.ErrAccessDenied):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		default:
			return response.DomainError(c, err)
		}
	}

	h.setAccessCookie(c, accessToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token": accessToken,
	})
}

// RedeemReset exchanges a valid reset code for a new password
func (h *AuthHandler) RedeemReset(c *fiber.Ctx) error {
	var req RedeemResetRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.ResetCode == "" {
		return response.BadRequest(c, "Email and reset code are required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	user, err := h.users.RedeemResetCode(c.Context(), strings.TrimSpace(req.Email), req.ResetCode, req.Password)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Password set successfully", fiber.Map{
		"user": user.Profile(),
	})
}

// Logout invalidates the current refresh session and clears cookies
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	subject, _ := c.Locals("subject").(string)
	if subject != "" {
		if user, err := h.users.GetByEmail(c.Context(), subject); err == nil {
			_ = h.users.SetRefreshJti(c.Context(), user.UserID, "")
		}
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// basicCredentials decodes an HTTP Basic Authorization header
func basicCredentials(header string) (string, string, bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", "", false
	}
	key, secret, found := strings.Cut(string(decoded), ":")
	if !found || key == "" {
		return "", "", false
	}
	return key, secret, true
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	h.setAccessCookie(c, accessToken)

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// setAccessCookie sets the access token cookie
func (h *AuthHandler) setAccessCookie(c *fiber.Ctx, accessToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenSecs,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}

package middleware

import (
	"errors"
	"strings"

	"authgate/internal/config"
	"authgate/internal/core/services"
	"authgate/internal/pkg/jwt"
	"authgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares
const (
	LocalSubject   = "subject"
	LocalGroups    = "groups"
	LocalAppID     = "appId"
	LocalPrincipal = "principal"
)

// RequireAuth validates the access token and stores its claims in the
// request context
func RequireAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set claims in context
		c.Locals(LocalSubject, claims.Subject)
		c.Locals(LocalGroups, claims.Groups)
		c.Locals(LocalAppID, claims.AppID)

		return c.Next()
	}
}

// Protected resolves the token subject to a principal and evaluates the
// given predicates. Runs after RequireAuth.
func Protected(authz *services.AuthzService, predicates ...services.Predicate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, ok := c.Locals(LocalSubject).(string)
		if !ok || subject == "" {
			return response.Unauthorized(c, "Unauthorized")
		}

		principal, err := authz.Authorize(c.Context(), subject, predicates...)
		if err != nil {
			return response.DomainError(c, err)
		}

		c.Locals(LocalPrincipal, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the principal resolved by Protected, or nil
func PrincipalFrom(c *fiber.Ctx) *services.Principal {
	principal, _ := c.Locals(LocalPrincipal).(*services.Principal)
	return principal
}

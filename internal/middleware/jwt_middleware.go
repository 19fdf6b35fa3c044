package middleware

import (
	"log"
	"strings"

	"recette/internal/services"

	"github.com/gofiber/fiber/v2"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when the header is absent or malformed.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired gates a route behind "user present". It is evaluated on every
// request, so a session that expires mid-use fails the next navigation, not
// just the next login.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message":  "Authentication required",
				"redirect": "/auth",
			})
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message":  "Invalid or expired token",
				"redirect": "/auth",
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("email", claims["email"])
		return c.Next()
	}
}

// GuestOnly gates a route behind "user absent": a valid session presented to
// a guest-only route (login, signup, password reset request) is bounced to
// the authenticated landing route instead.
func GuestOnly(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token != "" {
			if _, err := authService.ValidateToken(token); err == nil {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"message":  "Already signed in",
					"redirect": "/recipes",
				})
			}
		}
		return c.Next()
	}
}

package handlers

import (
	"recette/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for the user profile.
type ProfileHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(authService *services.AuthService) *ProfileHandler {
	return &ProfileHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the profile routes. The availability check is
// public so the signup form can use it before any session exists.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Get("/profiles/username-available", h.HandleUsernameAvailable)
	router.Get("/profile", authRequired, h.HandleGetProfile)
	router.Put("/profile", authRequired, h.HandleSetUsername)
}

// HandleUsernameAvailable reports whether a username is free to claim.
func (h *ProfileHandler) HandleUsernameAvailable(c *fiber.Ctx) error {
	username := c.Query("username")
	if len(username) < 3 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Username must be at least 3 characters",
		})
	}

	taken, err := h.authService.UsernameTaken(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not check username",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"username":  username,
		"available": !taken,
	})
}

// HandleGetProfile returns the authenticated user's profile.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	profile, err := h.authService.Profile(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load profile",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"profile": profile})
}

// SetUsernameRequest attaches a username to the profile via upsert.
type SetUsernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100,alphanum"`
}

// HandleSetUsername attaches the username. Once set it cannot change.
func (h *ProfileHandler) HandleSetUsername(c *fiber.Ctx) error {
	var req SetUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	userID, _ := c.Locals("user_id").(string)
	profile, err := h.authService.SetUsername(userID, req.Username)
	if err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Could not set username",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Username saved",
		"profile": profile,
	})
}

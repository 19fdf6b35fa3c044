package handlers

import (
	"errors"
	"fmt"

	"recette/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusForServiceError maps service sentinel errors to HTTP status codes.
func statusForServiceError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrIdentifierNotFound),
		errors.Is(err, services.ErrEmailNotConfirmed),
		errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrEmailRegistered),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrUsernameImmutable):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidEmail):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// validationErrorResponse renders validator failures as a field -> message
// map. Validation errors never reach a service.
func validationErrorResponse(c *fiber.Ctx, err error) error {
	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

package handlers

import (
	"log"

	"recette/internal/models"
	"recette/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	recipeService *services.RecipeService
	validate      *validator.Validate
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipeService *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the recipe routes. Reading is public; writing
// requires a session.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Get("/recipes", h.HandleList)
	router.Get("/recipes/:slug", h.HandleDetail)
	router.Get("/my/recipes", authRequired, h.HandleMine)
	router.Post("/recipes", authRequired, h.HandleCreate)
	router.Put("/recipes/:slug", authRequired, h.HandleUpdate)
	router.Delete("/recipes/:slug", authRequired, h.HandleDelete)
}

// HandleList returns every recipe with main image and author.
func (h *RecipeHandler) HandleList(c *fiber.Ctx) error {
	recipes, err := h.recipeService.List()
	if err != nil {
		log.Printf("Error listing recipes: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not list recipes",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"recipes": recipes})
}

// HandleMine returns the authenticated user's recipes.
func (h *RecipeHandler) HandleMine(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	recipes, err := h.recipeService.ListByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not list recipes",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"recipes": recipes})
}

// HandleDetail resolves a slug and returns the full recipe.
func (h *RecipeHandler) HandleDetail(c *fiber.Ctx) error {
	detail, err := h.recipeService.GetBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message":  "Recipe not found",
			"redirect": "/recipes",
		})
	}
	return c.JSON(fiber.Map{"recipe": detail})
}

// HandleCreate inserts a recipe and promotes its pending images.
func (h *RecipeHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.CreateRecipeRequest
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
	detail, err := h.recipeService.Create(userID, &req)
	if err != nil {
		log.Printf("Error creating recipe: %v", err)
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message": "Could not create recipe",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Recipe created",
		"recipe":  detail,
	})
}

// HandleUpdate edits an owned recipe. The title (and therefore the slug)
// cannot change.
func (h *RecipeHandler) HandleUpdate(c *fiber.Ctx) error {
	var req models.UpdateRecipeRequest
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
	detail, err := h.recipeService.Update(userID, c.Params("slug"), &req)
	if err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message":  "Could not update recipe",
			"error":    err.Error(),
			"redirect": "/recipes",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Recipe updated",
		"recipe":  detail,
	})
}

// HandleDelete removes an owned recipe, its image rows and stored objects.
func (h *RecipeHandler) HandleDelete(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.recipeService.Delete(c.Context(), userID, c.Params("slug")); err != nil {
		return c.Status(statusForServiceError(err)).JSON(fiber.Map{
			"message":  "Could not delete recipe",
			"error":    err.Error(),
			"redirect": "/recipes",
		})
	}
	return c.JSON(fiber.Map{"message": "Recipe deleted"})
}

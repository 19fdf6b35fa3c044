package repositories

import "recette/internal/models"

// ImageRepository defines the interface for recipe image data access.
type ImageRepository interface {
	Create(image *models.RecipeImage) error
	GetByID(id string) (*models.RecipeImage, error)
	// GetByRecipe returns a recipe's images ordered by creation time, so
	// list order is deterministic by upload order.
	GetByRecipe(recipeID string) ([]models.RecipeImage, error)
	// SetMain flags one image of a recipe as main and clears the flag on
	// every other image of the same recipe.
	SetMain(recipeID, imageID string) error
	Delete(id string) error
	DeleteByRecipe(recipeID string) error
}

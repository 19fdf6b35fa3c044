package repositories

import (
	"fmt"

	"recette/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{db: db}
}

// GetAll retrieves all recipes, newest first.
func (r *GORMRecipeRepository) GetAll() ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := r.db.Order("created_at DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all recipes: %w", err)
	}
	return recipes, nil
}

// GetByID retrieves a single recipe by its ID.
func (r *GORMRecipeRepository) GetByID(id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.First(&recipe, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get recipe by ID %s: %w", id, err)
	}
	return &recipe, nil
}

// GetByUser retrieves every recipe owned by a user, newest first.
func (r *GORMRecipeRepository) GetByUser(userID string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := r.db.Order("created_at DESC").Find(&recipes, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get recipes for user %s: %w", userID, err)
	}
	return recipes, nil
}

// Create creates a new recipe.
func (r *GORMRecipeRepository) Create(recipe *models.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if err := r.db.Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update updates an existing recipe.
func (r *GORMRecipeRepository) Update(recipe *models.Recipe) error {
	res := r.db.Save(recipe)
	if res.Error != nil {
		return fmt.Errorf("failed to update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe with ID %s not found for update: %w", recipe.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete deletes a recipe by its ID.
func (r *GORMRecipeRepository) Delete(id string) error {
	res := r.db.Delete(&models.Recipe{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

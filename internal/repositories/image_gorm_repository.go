package repositories

import (
	"fmt"

	"recette/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMImageRepository is a GORM implementation of ImageRepository.
type GORMImageRepository struct {
	db *gorm.DB
}

// NewGORMImageRepository creates a new instance of GORMImageRepository.
func NewGORMImageRepository(db *gorm.DB) *GORMImageRepository {
	return &GORMImageRepository{db: db}
}

// Create creates a new recipe image row.
func (r *GORMImageRepository) Create(image *models.RecipeImage) error {
	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	if err := r.db.Create(image).Error; err != nil {
		return fmt.Errorf("failed to create recipe image: %w", err)
	}
	return nil
}

// GetByID retrieves a single image row.
func (r *GORMImageRepository) GetByID(id string) (*models.RecipeImage, error) {
	var image models.RecipeImage
	if err := r.db.First(&image, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get image by ID %s: %w", id, err)
	}
	return &image, nil
}

// GetByRecipe retrieves a recipe's images in upload order.
func (r *GORMImageRepository) GetByRecipe(recipeID string) ([]models.RecipeImage, error) {
	var images []models.RecipeImage
	if err := r.db.Order("created_at ASC").Find(&images, "recipe_id = ?", recipeID).Error; err != nil {
		return nil, fmt.Errorf("failed to get images for recipe %s: %w", recipeID, err)
	}
	return images, nil
}

// SetMain flags one image as main and clears every other flag of the recipe
// in a single transaction.
func (r *GORMImageRepository) SetMain(recipeID, imageID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RecipeImage{}).
			Where("id = ? AND recipe_id = ?", imageID, recipeID).
			Update("is_main", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.RecipeImage{}).
			Where("recipe_id = ? AND id <> ?", recipeID, imageID).
			Update("is_main", false).Error
	})
	if err != nil {
		return fmt.Errorf("failed to set main image %s for recipe %s: %w", imageID, recipeID, err)
	}
	return nil
}

// Delete deletes a single image row.
func (r *GORMImageRepository) Delete(id string) error {
	res := r.db.Delete(&models.RecipeImage{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("image with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteByRecipe deletes all image rows of a recipe.
func (r *GORMImageRepository) DeleteByRecipe(recipeID string) error {
	if err := r.db.Delete(&models.RecipeImage{}, "recipe_id = ?", recipeID).Error; err != nil {
		return fmt.Errorf("failed to delete images for recipe %s: %w", recipeID, err)
	}
	return nil
}

package repositories

import (
	"fmt"
	"sync"
	"time"

	"recette/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockImageRepository is an in-memory implementation of ImageRepository.
// Images are kept in insertion order, matching the GORM implementation's
// created_at ordering.
type MockImageRepository struct {
	images []models.RecipeImage
	mu     sync.RWMutex
}

// NewMockImageRepository creates a new empty MockImageRepository.
func NewMockImageRepository() *MockImageRepository {
	return &MockImageRepository{}
}

// Create appends a new image row, generating an ID when absent.
func (m *MockImageRepository) Create(image *models.RecipeImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if image.ID == "" {
		image.ID = uuid.New().String()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}
	m.images = append(m.images, *image)
	return nil
}

// GetByID retrieves an image by ID.
func (m *MockImageRepository) GetByID(id string) (*models.RecipeImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.images {
		if img.ID == id {
			cp := img
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("image with ID %s not found: %w", id, gorm.ErrRecordNotFound)
}

// GetByRecipe retrieves a recipe's images in insertion order.
func (m *MockImageRepository) GetByRecipe(recipeID string) ([]models.RecipeImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var images []models.RecipeImage
	for _, img := range m.images {
		if img.RecipeID == recipeID {
			images = append(images, img)
		}
	}
	return images, nil
}

// SetMain flags one image as main and clears the others of the recipe.
func (m *MockImageRepository) SetMain(recipeID, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.images {
		if m.images[i].RecipeID != recipeID {
			continue
		}
		if m.images[i].ID == imageID {
			m.images[i].IsMain = true
			found = true
		} else {
			m.images[i].IsMain = false
		}
	}
	if !found {
		return fmt.Errorf("image with ID %s not found for recipe %s: %w", imageID, recipeID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes an image by ID.
func (m *MockImageRepository) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.images {
		if m.images[i].ID == id {
			m.images = append(m.images[:i], m.images[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("image with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
}

// DeleteByRecipe removes every image row of a recipe.
func (m *MockImageRepository) DeleteByRecipe(recipeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.images[:0]
	for _, img := range m.images {
		if img.RecipeID != recipeID {
			kept = append(kept, img)
		}
	}
	m.images = kept
	return nil
}

package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"recette/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockRecipeRepository is an in-memory implementation of RecipeRepository.
type MockRecipeRepository struct {
	recipes map[string]models.Recipe
	mu      sync.RWMutex
}

// NewMockRecipeRepository creates a new empty MockRecipeRepository.
func NewMockRecipeRepository() *MockRecipeRepository {
	return &MockRecipeRepository{recipes: make(map[string]models.Recipe)}
}

// GetAll retrieves all recipes, newest first.
func (m *MockRecipeRepository) GetAll() ([]models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recipes := make([]models.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		recipes = append(recipes, r)
	}
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
	})
	return recipes, nil
}

// GetByID retrieves a recipe by ID.
func (m *MockRecipeRepository) GetByID(id string) (*models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recipe, ok := m.recipes[id]
	if !ok {
		return nil, fmt.Errorf("recipe with ID %s not found: %w", id, gorm.ErrRecordNotFound)
	}
	return &recipe, nil
}

// GetByUser retrieves every recipe owned by a user, newest first.
func (m *MockRecipeRepository) GetByUser(userID string) ([]models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var recipes []models.Recipe
	for _, r := range m.recipes {
		if r.UserID == userID {
			recipes = append(recipes, r)
		}
	}
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
	})
	return recipes, nil
}

// Create stores a new recipe, generating an ID when absent.
func (m *MockRecipeRepository) Create(recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now()
	}
	m.recipes[recipe.ID] = *recipe
	return nil
}

// Update replaces an existing recipe.
func (m *MockRecipeRepository) Update(recipe *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipe.ID]; !ok {
		return fmt.Errorf("recipe with ID %s not found for update: %w", recipe.ID, gorm.ErrRecordNotFound)
	}
	m.recipes[recipe.ID] = *recipe
	return nil
}

// Delete removes a recipe by ID.
func (m *MockRecipeRepository) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return fmt.Errorf("recipe with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	delete(m.recipes, id)
	return nil
}

package models

import "gorm.io/gorm"

// Recipe represents a published recipe. Ingredients and Instructions hold
// sanitized HTML fragments (p/br/ul/ol/li/strong/em only). The title is
// immutable after creation because the public slug is derived from it.
type Recipe struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID       string `json:"user_id" gorm:"index;type:varchar(36)"`
	Title        string `json:"title" gorm:"type:varchar(200)" validate:"required,min=3,max=200"`
	Subtitle     string `json:"subtitle" gorm:"type:varchar(300)" validate:"omitempty,max=300"`
	Servings     int    `json:"servings" validate:"required,gt=0"`
	PrepTime     int    `json:"prep_time" validate:"gte=0"` // minutes
	CookTime     int    `json:"cook_time" validate:"gte=0"` // minutes
	Ingredients  string `json:"ingredients" gorm:"type:text"`
	Instructions string `json:"instructions" gorm:"type:text"`
	gorm.Model          // CreatedAt, UpdatedAt, DeletedAt
}

// CreateRecipeRequest is the payload for creating a recipe. Images carries the
// pending uploads made before the recipe row existed; they are promoted to
// RecipeImage rows on successful insert.
type CreateRecipeRequest struct {
	Title        string         `json:"title" validate:"required,min=3,max=200"`
	Subtitle     string         `json:"subtitle" validate:"omitempty,max=300"`
	Servings     int            `json:"servings" validate:"required,gt=0"`
	PrepTime     int            `json:"prep_time" validate:"gte=0"`
	CookTime     int            `json:"cook_time" validate:"gte=0"`
	Ingredients  string         `json:"ingredients"`
	Instructions string         `json:"instructions"`
	Images       []PendingImage `json:"images" validate:"omitempty,dive"`
}

// UpdateRecipeRequest deliberately has no title field: titles are immutable
// after creation.
type UpdateRecipeRequest struct {
	Subtitle     string `json:"subtitle" validate:"omitempty,max=300"`
	Servings     int    `json:"servings" validate:"required,gt=0"`
	PrepTime     int    `json:"prep_time" validate:"gte=0"`
	CookTime     int    `json:"cook_time" validate:"gte=0"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

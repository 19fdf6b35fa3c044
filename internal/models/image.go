package models

import "gorm.io/gorm"

// RecipeImage is a stored image attached to a recipe. At most one image per
// recipe has IsMain set; once a recipe has any images, exactly one is main.
type RecipeImage struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RecipeID    string `json:"recipe_id" gorm:"index;type:varchar(36)"`
	ImageURL    string `json:"image_url" gorm:"type:varchar(500)"`
	StoragePath string `json:"storage_path" gorm:"type:varchar(500)"`
	IsMain      bool   `json:"is_main"`
	gorm.Model         // CreatedAt, UpdatedAt, DeletedAt
}

// PendingImage is a transient upload record held by the client between the
// storage upload and the recipe insert. Format is the content type the bytes
// were re-encoded to.
type PendingImage struct {
	URL    string `json:"url" validate:"required,url"`
	Path   string `json:"path" validate:"required"`
	IsMain bool   `json:"is_main"`
	Format string `json:"format"`
}

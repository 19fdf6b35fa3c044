package repositories

import (
	"fmt"

	"recette/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProfileRepository is a GORM implementation of ProfileRepository.
type GORMProfileRepository struct {
	db *gorm.DB
}

// NewGORMProfileRepository creates a new instance of GORMProfileRepository.
func NewGORMProfileRepository(db *gorm.DB) *GORMProfileRepository {
	return &GORMProfileRepository{db: db}
}

// Upsert inserts the profile row, or updates the username on conflict.
func (r *GORMProfileRepository) Upsert(profile *models.Profile) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

// GetByUserID retrieves the profile row for a user.
func (r *GORMProfileRepository) GetByUserID(userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return &profile, nil
}

// GetByUsername retrieves a profile by its username.
func (r *GORMProfileRepository) GetByUsername(username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.First(&profile, "username = ?", username).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile by username %s: %w", username, err)
	}
	return &profile, nil
}

// GetByUserIDs retrieves all profiles for the given user IDs.
func (r *GORMProfileRepository) GetByUserIDs(userIDs []string) ([]models.Profile, error) {
	var profiles []models.Profile
	if len(userIDs) == 0 {
		return profiles, nil
	}
	if err := r.db.Find(&profiles, "user_id IN ?", userIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

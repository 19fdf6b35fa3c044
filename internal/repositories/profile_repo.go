package repositories

import "recette/internal/models"

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	// Upsert inserts or updates the profile row for a user.
	Upsert(profile *models.Profile) error
	GetByUserID(userID string) (*models.Profile, error)
	GetByUsername(username string) (*models.Profile, error)
	// GetByUserIDs retrieves the profiles for a set of users, for decorating
	// recipe listings with author usernames.
	GetByUserIDs(userIDs []string) ([]models.Profile, error)
}

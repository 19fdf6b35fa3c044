package models

import "gorm.io/gorm"

// Auth providers a user account can originate from.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// User represents an account in the session store.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password string `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, empty for OAuth accounts
	Provider string `json:"provider" gorm:"type:varchar(32);default:email"`
	// Confirmed is false until the user follows the emailed confirmation link.
	// OAuth accounts are confirmed from the start.
	Confirmed         bool   `json:"confirmed"`
	ConfirmationToken string `json:"-" gorm:"type:varchar(36);index"`
	ResetToken        string `json:"-" gorm:"type:varchar(36);index"`
	gorm.Model        // CreatedAt, UpdatedAt, DeletedAt
}

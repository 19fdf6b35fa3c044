package models

import "gorm.io/gorm"

// Profile is the public-facing row attached to a user. The username is
// optional, unique, and immutable once set; it is attached post-hoc via an
// upsert from the profile endpoint and is what the login flow resolves to an
// email.
type Profile struct {
	UserID     string `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"omitempty,min=3,max=100,alphanum"`
	gorm.Model `json:"-"`
}

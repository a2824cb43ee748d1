// Package models provides the data structures persisted by the repository
// layer: users, matching profiles, like edges, matches, per-user settings and
// the moderator registry. List-valued and sub-document fields are stored as
// JSON text and decoded at the scan boundary with schema validation; a
// malformed stored document degrades to documented defaults instead of
// failing the read.
package models

import (
	"time"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// User represents a registered account. Profiles, likes, matches and
// settings all hang off the user row via ON DELETE CASCADE.
type User struct {
	// UserID is the external chat-platform identifier, used as the primary key.
	UserID int64 `json:"user_id" db:"user_id"`

	// Username is the optional public handle.
	Username *string `json:"username" db:"username"`

	// FirstName is the display name.
	FirstName string `json:"first_name" db:"first_name"`

	// CreatedAt records when the account was first seen.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// IsActive is the soft-deactivation flag. Inactive users are excluded
	// from candidate search.
	IsActive bool `json:"is_active" db:"is_active"`
}

// NewUser creates a user with an active default state.
func NewUser(userID int64, username *string, firstName string) *User {
	return &User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		CreatedAt: time.Now(),
		IsActive:  true,
	}
}

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return constants.TableUsers
}

package models

import (
	"time"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// Match is a materialized mutual-like pair. The participant ids are always
// stored in canonical (min, max) order so a pair can exist at most once
// regardless of which side triggered its creation.
type Match struct {
	ID        int64     `json:"id" db:"id"`
	User1ID   int64     `json:"user1_id" db:"user1_id"`
	User2ID   int64     `json:"user2_id" db:"user2_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

// TableName returns the database table name for the Match model.
func (m *Match) TableName() string {
	return constants.TableMatches
}

// Partner returns the other participant of the match.
func (m *Match) Partner(userID int64) int64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// CanonicalPair orders two user ids as (min, max), the storage order for
// match rows.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

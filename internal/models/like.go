package models

import (
	"time"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// Like is a directed edge from one user to another. The (liker, liked) pair
// is unique; adding the same like twice is a no-op.
type Like struct {
	ID      int64 `json:"id" db:"id"`
	LikerID int64 `json:"liker_id" db:"liker_id"`
	LikedID int64 `json:"liked_id" db:"liked_id"`

	// CreatedAt records when the like was sent.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// ViewedAt is set when the recipient has seen the like notification;
	// nil means not yet viewed.
	ViewedAt *time.Time `json:"viewed_at" db:"viewed_at"`
}

// TableName returns the database table name for the Like model.
func (l *Like) TableName() string {
	return constants.TableLikes
}

// LikeStats aggregates a user's like activity.
type LikeStats struct {
	// Sent is the number of likes the user has given.
	Sent int `json:"sent"`

	// Received is the number of likes the user has received.
	Received int `json:"received"`

	// Unviewed is the number of received likes not yet seen.
	Unviewed int `json:"unviewed"`

	// Mutual is the number of reciprocal like pairs the user participates in.
	Mutual int `json:"mutual"`
}

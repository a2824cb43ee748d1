package models

import (
	"time"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// Profile holds a user's matching attributes: rating, preferred role,
// list-valued preferences and an optional single media attachment, plus the
// moderation sub-state. A profile is visible to search only when its
// moderation status is approved and the owning user is active.
type Profile struct {
	// UserID references the owning user; profiles are one-to-one with users.
	UserID int64 `json:"user_id" db:"user_id"`

	// GameNickname is the in-game handle shown on the profile card.
	GameNickname string `json:"game_nickname" db:"game_nickname"`

	// Rating is the competitive rating value used by range filters,
	// top-bracket ranking and the compatibility score.
	Rating int `json:"rating" db:"rating"`

	// ProfileURL links to the player's external competitive profile.
	ProfileURL string `json:"profile_url" db:"profile_url"`

	// Role is the preferred team role.
	Role string `json:"role" db:"role"`

	// FavoriteMaps, PlaytimeSlots and Categories are stored as JSON text.
	FavoriteMaps  []string `json:"favorite_maps" db:"favorite_maps"`
	PlaytimeSlots []string `json:"playtime_slots" db:"playtime_slots"`
	Categories    []string `json:"categories" db:"categories"`

	// Description is the free-text self-description.
	Description *string `json:"description" db:"description"`

	// MediaType is "photo" or "video"; MediaFileID is the chat-platform file
	// reference. Both are nil when no media is attached.
	MediaType   *string `json:"media_type" db:"media_type"`
	MediaFileID *string `json:"media_file_id" db:"media_file_id"`

	// Moderation sub-state. New profiles always start pending.
	ModerationStatus string     `json:"moderation_status" db:"moderation_status"`
	ModerationReason *string    `json:"moderation_reason" db:"moderation_reason"`
	ModeratedBy      *int64     `json:"moderated_by" db:"moderated_by"`
	ModeratedAt      *time.Time `json:"moderated_at" db:"moderated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewProfile creates a profile in the pending moderation state.
func NewProfile(userID int64, gameNickname string, rating int, profileURL, role string, favoriteMaps, playtimeSlots, categories []string, description *string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:           userID,
		GameNickname:     gameNickname,
		Rating:           rating,
		ProfileURL:       profileURL,
		Role:             role,
		FavoriteMaps:     favoriteMaps,
		PlaytimeSlots:    playtimeSlots,
		Categories:       categories,
		Description:      description,
		ModerationStatus: constants.ModerationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// TableName returns the database table name for the Profile model.
func (p *Profile) TableName() string {
	return constants.TableProfiles
}

// IsApproved reports whether the profile has cleared moderation.
func (p *Profile) IsApproved() bool {
	return p.ModerationStatus == constants.ModerationApproved
}

// HasMedia reports whether a media attachment is present.
func (p *Profile) HasMedia() bool {
	return p.MediaType != nil && p.MediaFileID != nil
}

// ProfileUpdate represents a partial profile update. Only non-nil fields are
// applied; the moderation sub-state is managed separately by the moderation
// operations and cannot be set through an update.
type ProfileUpdate struct {
	GameNickname  *string   `json:"game_nickname"`
	Rating        *int      `json:"rating" validate:"omitempty,min=0"`
	ProfileURL    *string   `json:"profile_url"`
	Role          *string   `json:"role"`
	FavoriteMaps  *[]string `json:"favorite_maps" validate:"omitempty,max=20"`
	PlaytimeSlots *[]string `json:"playtime_slots" validate:"omitempty,max=20"`
	Categories    *[]string `json:"categories" validate:"omitempty,max=20"`
	Description   *string   `json:"description"`
	MediaType     *string   `json:"media_type" validate:"omitempty,oneof=photo video"`
	MediaFileID   *string   `json:"media_file_id"`
}

// IsEmpty reports whether the update carries no changes.
func (u *ProfileUpdate) IsEmpty() bool {
	return u.GameNickname == nil && u.Rating == nil && u.ProfileURL == nil &&
		u.Role == nil && u.FavoriteMaps == nil && u.PlaytimeSlots == nil &&
		u.Categories == nil && u.Description == nil && u.MediaType == nil &&
		u.MediaFileID == nil
}

// Apply updates the profile with the non-nil fields of the update and bumps
// the modification timestamp.
func (p *Profile) Apply(update *ProfileUpdate) {
	if update.GameNickname != nil {
		p.GameNickname = *update.GameNickname
	}
	if update.Rating != nil {
		p.Rating = *update.Rating
	}
	if update.ProfileURL != nil {
		p.ProfileURL = *update.ProfileURL
	}
	if update.Role != nil {
		p.Role = *update.Role
	}
	if update.FavoriteMaps != nil {
		p.FavoriteMaps = *update.FavoriteMaps
	}
	if update.PlaytimeSlots != nil {
		p.PlaytimeSlots = *update.PlaytimeSlots
	}
	if update.Categories != nil {
		p.Categories = *update.Categories
	}
	if update.Description != nil {
		p.Description = update.Description
	}
	if update.MediaType != nil {
		p.MediaType = update.MediaType
	}
	if update.MediaFileID != nil {
		p.MediaFileID = update.MediaFileID
	}
	p.UpdatedAt = time.Now()
}

package models

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// SearchFilters holds the per-user candidate search preferences. Stored as a
// JSON sub-document in user_settings.search_filters; absent keys fall back
// to the defaults returned by DefaultSearchFilters.
type SearchFilters struct {
	// RatingFilter selects a rating predicate: relative modes
	// (lower/similar/higher), named range buckets
	// (newbie/intermediate/advanced/pro), the top-bracket ranking mode, or
	// "any".
	RatingFilter string `json:"rating_filter" validate:"omitempty,oneof=any lower similar higher newbie intermediate advanced pro top"`

	// PreferredRoles restricts candidates to these roles; empty means any.
	PreferredRoles []string `json:"preferred_roles" validate:"max=10,dive,max=64"`

	// MapsCompatibility sets the shared-map threshold: strict >=3,
	// moderate >=2, soft >=1, any.
	MapsCompatibility string `json:"maps_compatibility" validate:"omitempty,oneof=strict moderate soft any"`

	// TimeCompatibility sets the shared-slot threshold: strict >=2,
	// soft >=1, any.
	TimeCompatibility string `json:"time_compatibility" validate:"omitempty,oneof=strict soft any"`

	// CategoriesFilter keeps only candidates sharing at least one category;
	// empty means any.
	CategoriesFilter []string `json:"categories_filter" validate:"max=10,dive,max=64"`

	// MinCompatibility is the minimum compatibility score in percent.
	MinCompatibility int `json:"min_compatibility" validate:"min=0,max=100"`

	// MaxCandidates caps the number of candidates returned per search.
	MaxCandidates int `json:"max_candidates" validate:"min=1,max=100"`
}

// DefaultSearchFilters returns the documented filter defaults.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{
		RatingFilter:      "any",
		PreferredRoles:    []string{},
		MapsCompatibility: "any",
		TimeCompatibility: "any",
		CategoriesFilter:  []string{},
		MinCompatibility:  constants.DefaultMinCompatibility,
		MaxCandidates:     constants.DefaultSearchLimit,
	}
}

// searchFiltersDoc mirrors SearchFilters with pointer fields so a stored
// document can be overlaid onto the defaults: absent keys keep the default,
// present keys override it.
type searchFiltersDoc struct {
	RatingFilter      *string   `json:"rating_filter"`
	PreferredRoles    *[]string `json:"preferred_roles"`
	MapsCompatibility *string   `json:"maps_compatibility"`
	TimeCompatibility *string   `json:"time_compatibility"`
	CategoriesFilter  *[]string `json:"categories_filter"`
	MinCompatibility  *int      `json:"min_compatibility"`
	MaxCandidates     *int      `json:"max_candidates"`
}

// ParseSearchFilters decodes the stored search_filters document, merging it
// over the defaults. Malformed or schema-violating data degrades to the
// defaults with a logged warning, never an error.
func ParseSearchFilters(raw string) SearchFilters {
	filters := DefaultSearchFilters()
	if raw == "" {
		return filters
	}

	var doc searchFiltersDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Warn().Err(err).Msg("Malformed search_filters, using defaults")
		return DefaultSearchFilters()
	}

	if doc.RatingFilter != nil {
		filters.RatingFilter = *doc.RatingFilter
	}
	if doc.PreferredRoles != nil {
		filters.PreferredRoles = *doc.PreferredRoles
	}
	if doc.MapsCompatibility != nil {
		filters.MapsCompatibility = *doc.MapsCompatibility
	}
	if doc.TimeCompatibility != nil {
		filters.TimeCompatibility = *doc.TimeCompatibility
	}
	if doc.CategoriesFilter != nil {
		filters.CategoriesFilter = *doc.CategoriesFilter
	}
	if doc.MinCompatibility != nil {
		filters.MinCompatibility = *doc.MinCompatibility
	}
	if doc.MaxCandidates != nil {
		filters.MaxCandidates = *doc.MaxCandidates
	}

	if err := validate.Struct(&filters); err != nil {
		log.Warn().Err(err).Msg("search_filters failed validation, using defaults")
		return DefaultSearchFilters()
	}
	return filters
}

// Encode serializes the filters for storage.
func (f *SearchFilters) Encode() (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PrivacySettings holds the privacy sub-document stored in
// user_settings.privacy_settings.
type PrivacySettings struct {
	// ProfileVisibility gates inclusion in candidate search: "all" (visible
	// to everyone), "hidden" (never shown) or "matches_only" (shown only to
	// searchers with a verified mutual like).
	ProfileVisibility string `json:"profile_visibility" validate:"omitempty,oneof=all hidden matches_only"`

	// Notifications holds per-kind notification preferences; an absent kind
	// defaults to enabled.
	Notifications map[string]bool `json:"notifications"`

	// DataSharing opts into anonymized statistics sharing.
	DataSharing bool `json:"data_sharing"`
}

// DefaultPrivacySettings returns the fail-open privacy defaults: visible to
// everyone, all notifications on.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility: constants.VisibilityAll,
		Notifications:     map[string]bool{},
	}
}

// ParsePrivacySettings decodes the stored privacy document. Malformed data
// degrades to the visible-to-everyone defaults with a logged warning.
func ParsePrivacySettings(raw string) PrivacySettings {
	settings := DefaultPrivacySettings()
	if raw == "" {
		return settings
	}

	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Warn().Err(err).Msg("Malformed privacy_settings, using defaults")
		return DefaultPrivacySettings()
	}
	if settings.ProfileVisibility == "" {
		settings.ProfileVisibility = constants.VisibilityAll
	}
	if settings.Notifications == nil {
		settings.Notifications = map[string]bool{}
	}
	if err := validate.Struct(&settings); err != nil {
		log.Warn().Err(err).Msg("privacy_settings failed validation, using defaults")
		return DefaultPrivacySettings()
	}
	return settings
}

// Encode serializes the privacy settings for storage.
func (p *PrivacySettings) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UserSettings represents a user's preferences row. The JSON sub-documents
// are decoded eagerly at the scan boundary.
type UserSettings struct {
	UserID int64 `json:"user_id" db:"user_id"`

	// NotificationsEnabled is the master notification switch; the per-kind
	// preferences in PrivacySettings refine it.
	NotificationsEnabled bool `json:"notifications_enabled" db:"notifications_enabled"`

	SearchFilters   SearchFilters   `json:"search_filters" db:"search_filters"`
	PrivacySettings PrivacySettings `json:"privacy_settings" db:"privacy_settings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUserSettings creates settings with all defaults.
func NewUserSettings(userID int64) *UserSettings {
	now := time.Now()
	return &UserSettings{
		UserID:               userID,
		NotificationsEnabled: true,
		SearchFilters:        DefaultSearchFilters(),
		PrivacySettings:      DefaultPrivacySettings(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// TableName returns the database table name for the UserSettings model.
func (s *UserSettings) TableName() string {
	return constants.TableUserSettings
}

// NotificationEnabled reports whether a notification kind should be
// delivered: the master switch must be on, and the per-kind preference
// defaults to enabled when not explicitly set.
func (s *UserSettings) NotificationEnabled(kind string) bool {
	if !s.NotificationsEnabled {
		return false
	}
	enabled, ok := s.PrivacySettings.Notifications[kind]
	if !ok {
		return true
	}
	return enabled
}

// UserSettingsUpdate represents a partial settings update.
type UserSettingsUpdate struct {
	NotificationsEnabled *bool            `json:"notifications_enabled"`
	SearchFilters        *SearchFilters   `json:"search_filters"`
	PrivacySettings      *PrivacySettings `json:"privacy_settings"`
}

// IsEmpty reports whether the update carries no changes.
func (u *UserSettingsUpdate) IsEmpty() bool {
	return u.NotificationsEnabled == nil && u.SearchFilters == nil && u.PrivacySettings == nil
}

// Apply updates the settings with the non-nil fields of the update.
func (s *UserSettings) Apply(update *UserSettingsUpdate) {
	if update.NotificationsEnabled != nil {
		s.NotificationsEnabled = *update.NotificationsEnabled
	}
	if update.SearchFilters != nil {
		s.SearchFilters = *update.SearchFilters
	}
	if update.PrivacySettings != nil {
		s.PrivacySettings = *update.PrivacySettings
	}
	s.UpdatedAt = time.Now()
}

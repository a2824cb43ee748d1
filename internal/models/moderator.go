package models

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// Permissions enumerates what a moderator may do. Each role implies a
// default set; explicit stored overrides win over the role defaults.
type Permissions struct {
	ModerateProfiles bool `json:"moderate_profiles"`
	ManageModerators bool `json:"manage_moderators"`
	ViewStats        bool `json:"view_stats"`
	ManageUsers      bool `json:"manage_users"`
	AccessLogs       bool `json:"access_logs"`
}

// DefaultPermissions returns the permission set implied by a role. Unknown
// roles get the plain moderator set.
func DefaultPermissions(role string) Permissions {
	switch role {
	case constants.RoleSuperAdmin:
		return Permissions{
			ModerateProfiles: true,
			ManageModerators: true,
			ViewStats:        true,
			ManageUsers:      true,
			AccessLogs:       true,
		}
	case constants.RoleAdmin:
		return Permissions{
			ModerateProfiles: true,
			ViewStats:        true,
			AccessLogs:       true,
		}
	default:
		return Permissions{
			ModerateProfiles: true,
		}
	}
}

// permissionsDoc overlays stored overrides onto the role defaults.
type permissionsDoc struct {
	ModerateProfiles *bool `json:"moderate_profiles"`
	ManageModerators *bool `json:"manage_moderators"`
	ViewStats        *bool `json:"view_stats"`
	ManageUsers      *bool `json:"manage_users"`
	AccessLogs       *bool `json:"access_logs"`
}

// ParsePermissions decodes the stored permissions document for a role.
// Malformed data degrades to the role's default set with a logged warning.
func ParsePermissions(raw, role string) Permissions {
	perms := DefaultPermissions(role)
	if raw == "" {
		return perms
	}

	var doc permissionsDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Warn().Err(err).Str("role", role).Msg("Malformed permissions, using role defaults")
		return DefaultPermissions(role)
	}

	if doc.ModerateProfiles != nil {
		perms.ModerateProfiles = *doc.ModerateProfiles
	}
	if doc.ManageModerators != nil {
		perms.ManageModerators = *doc.ManageModerators
	}
	if doc.ViewStats != nil {
		perms.ViewStats = *doc.ViewStats
	}
	if doc.ManageUsers != nil {
		perms.ManageUsers = *doc.ManageUsers
	}
	if doc.AccessLogs != nil {
		perms.AccessLogs = *doc.AccessLogs
	}
	return perms
}

// Encode serializes the permissions for storage.
func (p *Permissions) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Moderator represents a row in the moderator registry.
type Moderator struct {
	UserID      int64       `json:"user_id" db:"user_id"`
	Role        string      `json:"role" db:"role"`
	Permissions Permissions `json:"permissions" db:"permissions"`
	AppointedBy *int64      `json:"appointed_by" db:"appointed_by"`
	AppointedAt time.Time   `json:"appointed_at" db:"appointed_at"`
	IsActive    bool        `json:"is_active" db:"is_active"`
}

// NewModerator creates an active moderator with the role's default
// permission set.
func NewModerator(userID int64, role string, appointedBy *int64) *Moderator {
	return &Moderator{
		UserID:      userID,
		Role:        role,
		Permissions: DefaultPermissions(role),
		AppointedBy: appointedBy,
		AppointedAt: time.Now(),
		IsActive:    true,
	}
}

// TableName returns the database table name for the Moderator model.
func (m *Moderator) TableName() string {
	return constants.TableModerators
}

// CanModerateProfiles reports whether this moderator may review profiles.
// Deactivated moderators can do nothing regardless of permissions.
func (m *Moderator) CanModerateProfiles() bool {
	return m.IsActive && m.Permissions.ModerateProfiles
}

// CanManageModerators reports whether this moderator may appoint or
// deactivate other moderators.
func (m *Moderator) CanManageModerators() bool {
	return m.IsActive && m.Permissions.ManageModerators
}

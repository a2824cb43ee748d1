// Package repository implements the domain operations over the pooled
// SQLite databases: users, profiles, likes, matches, settings, the moderator
// registry, candidate search and the cache-warming ranking queries.
//
// Every operation acquires its connection through the manager's scoped
// gateway; writes additionally run under the lock-retry executor so
// transient "database is locked" contention is absorbed with jittered
// backoff instead of surfacing to callers.
package repository

import (
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
)

// Store bundles all repositories over one connection manager.
type Store struct {
	Users      UserRepository
	Profiles   ProfileRepository
	Likes      LikeRepository
	Matches    MatchRepository
	Settings   SettingsRepository
	Moderators ModeratorRepository
	Search     SearchRepository
	Warmup     WarmupRepository
}

// NewStore wires every repository to the manager. Search composes the
// profile, settings and like repositories for its candidate pipeline.
func NewStore(mgr *database.Manager) *Store {
	users := NewUserRepository(mgr)
	profiles := NewProfileRepository(mgr)
	likes := NewLikeRepository(mgr)
	matches := NewMatchRepository(mgr)
	settings := NewSettingsRepository(mgr)
	moderators := NewModeratorRepository(mgr)

	return &Store{
		Users:      users,
		Profiles:   profiles,
		Likes:      likes,
		Matches:    matches,
		Settings:   settings,
		Moderators: moderators,
		Search:     NewSearchRepository(mgr, profiles, settings, likes),
		Warmup:     NewWarmupRepository(mgr),
	}
}

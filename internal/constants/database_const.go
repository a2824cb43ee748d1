// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines constants related to database structures,
// including logical database names, table names, column names and SQLite pragma
// values. These constants ensure consistent and correct database access patterns
// throughout the application, reducing the risk of SQL errors and simplifying
// database schema changes.
package constants

// Logical Database Names identify the independently pooled SQLite files the
// manager serves. Each logical database has its own file, pragma profile and
// connection pool.
const (
	// DBMain is the primary transactional database holding all domain tables.
	DBMain = "main"

	// DBCache is the secondary cache-oriented database tuned for read-heavy
	// warmup queries.
	DBCache = "cache"
)

// Table Names define the names of database tables used in the application.
// Using these constants instead of string literals ensures consistency
// and makes database schema changes easier to implement.
const (
	// TableUsers is the name of the table storing user account information.
	TableUsers = "users"

	// TableProfiles is the name of the table storing player matching profiles.
	TableProfiles = "profiles"

	// TableLikes is the name of the table storing directed like edges.
	TableLikes = "likes"

	// TableMatches is the name of the table storing materialized mutual matches.
	TableMatches = "matches"

	// TableUserSettings is the name of the table storing user preferences and settings.
	TableUserSettings = "user_settings"

	// TableModerators is the name of the table storing the moderator registry.
	TableModerators = "moderators"
)

// Common Column Names define frequently used database column names.
// These constants ensure consistent column name usage in SQL queries.
const (
	// ColumnUserID is the column name for user identifier keys.
	ColumnUserID = "user_id"

	// ColumnCreatedAt is the column name for creation timestamps.
	ColumnCreatedAt = "created_at"

	// ColumnUpdatedAt is the column name for modification timestamps.
	ColumnUpdatedAt = "updated_at"

	// ColumnIsActive is the column name for soft-deactivation flags.
	ColumnIsActive = "is_active"

	// ColumnModerationStatus is the column name for the profile moderation state.
	ColumnModerationStatus = "moderation_status"
)

// SQLite Pragma Values define the per-connection tuning applied when a pooled
// connection is created. The main database favors integrity (foreign keys on,
// small cache); the cache database favors throughput (large cache, generous
// busy timeout).
const (
	// PragmaJournalModeWAL enables the write-ahead log so readers do not block
	// during a writer's transaction.
	PragmaJournalModeWAL = "PRAGMA journal_mode = WAL"

	// PragmaSynchronousNormal trades a small durability window for write
	// throughput, which WAL mode makes safe for this workload.
	PragmaSynchronousNormal = "PRAGMA synchronous = NORMAL"

	// PragmaTempStoreMemory keeps temporary tables and indexes in memory.
	PragmaTempStoreMemory = "PRAGMA temp_store = MEMORY"

	// PragmaForeignKeysOn enforces foreign key constraints on the main database.
	PragmaForeignKeysOn = "PRAGMA foreign_keys = ON"

	// PragmaCacheSizeMain is the page cache for the main database.
	PragmaCacheSizeMain = "PRAGMA cache_size = 1000"

	// PragmaCacheSizeCache is the enlarged page cache for the cache database.
	PragmaCacheSizeCache = "PRAGMA cache_size = 10000"

	// PragmaBusyTimeoutCache relaxes lock waits on the cache database, where
	// contention is tolerable and retries are cheap.
	PragmaBusyTimeoutCache = "PRAGMA busy_timeout = 5000"

	// PragmaWALCheckpointFull forces a full write-ahead-log checkpoint. Used as
	// a durability barrier after critical foreground writes.
	PragmaWALCheckpointFull = "PRAGMA wal_checkpoint(FULL)"
)

// Moderation Status Values enumerate the lifecycle of a profile under review.
const (
	// ModerationPending marks a profile awaiting review. New profiles always
	// start here.
	ModerationPending = "pending"

	// ModerationApproved marks a profile cleared for search visibility.
	ModerationApproved = "approved"

	// ModerationRejected marks a profile refused by a moderator.
	ModerationRejected = "rejected"
)

// Moderator Role Values enumerate the moderator registry roles, each of which
// implies a default permission set.
const (
	RoleModerator  = "moderator"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Profile Visibility Values enumerate the privacy gate applied during search.
const (
	// VisibilityAll makes a profile visible to every searcher. This is the
	// documented default when privacy data is absent or malformed.
	VisibilityAll = "all"

	// VisibilityHidden excludes a profile from every search.
	VisibilityHidden = "hidden"

	// VisibilityMatchesOnly shows a profile only to searchers with a verified
	// mutual like.
	VisibilityMatchesOnly = "matches_only"
)

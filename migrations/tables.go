package migrations

// Migration describes one idempotent schema step. Every statement uses
// IF NOT EXISTS so the full set can run on every startup.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// Table is the table affected by this migration
	Table string
	// SQL is the idempotent DDL statement
	SQL string
}

// createUsersTable creates the users table
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		Table:       "users",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				user_id INTEGER PRIMARY KEY,
				username TEXT,
				first_name TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				is_active BOOLEAN DEFAULT 1
			)
		`,
	}
}

// createProfilesTable creates the profiles table
func createProfilesTable() Migration {
	return Migration{
		Name:        "create_profiles_table",
		Description: "Creates the profiles table with moderation and media fields",
		Table:       "profiles",
		SQL: `
			CREATE TABLE IF NOT EXISTS profiles (
				user_id INTEGER PRIMARY KEY,
				game_nickname TEXT NOT NULL DEFAULT '',
				rating INTEGER NOT NULL,
				profile_url TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				favorite_maps TEXT NOT NULL,
				playtime_slots TEXT NOT NULL,
				categories TEXT NOT NULL DEFAULT '[]',
				description TEXT,
				media_type TEXT,
				media_file_id TEXT,
				moderation_status TEXT NOT NULL DEFAULT 'pending',
				moderation_reason TEXT,
				moderated_by INTEGER,
				moderated_at TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
				FOREIGN KEY (moderated_by) REFERENCES users (user_id)
			)
		`,
	}
}

// createLikesTable creates the likes table
func createLikesTable() Migration {
	return Migration{
		Name:        "create_likes_table",
		Description: "Creates the likes table storing directed like edges",
		Table:       "likes",
		SQL: `
			CREATE TABLE IF NOT EXISTS likes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				liker_id INTEGER NOT NULL,
				liked_id INTEGER NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				viewed_at TIMESTAMP,
				FOREIGN KEY (liker_id) REFERENCES users (user_id) ON DELETE CASCADE,
				FOREIGN KEY (liked_id) REFERENCES users (user_id) ON DELETE CASCADE,
				UNIQUE(liker_id, liked_id)
			)
		`,
	}
}

// createMatchesTable creates the matches table
func createMatchesTable() Migration {
	return Migration{
		Name:        "create_matches_table",
		Description: "Creates the matches table storing mutual-like pairs",
		Table:       "matches",
		SQL: `
			CREATE TABLE IF NOT EXISTS matches (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user1_id INTEGER NOT NULL,
				user2_id INTEGER NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				is_active BOOLEAN DEFAULT 1,
				FOREIGN KEY (user1_id) REFERENCES users (user_id) ON DELETE CASCADE,
				FOREIGN KEY (user2_id) REFERENCES users (user_id) ON DELETE CASCADE,
				UNIQUE(user1_id, user2_id)
			)
		`,
	}
}

// createUserSettingsTable creates the user_settings table
func createUserSettingsTable() Migration {
	return Migration{
		Name:        "create_user_settings_table",
		Description: "Creates the user_settings table with JSON sub-documents",
		Table:       "user_settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS user_settings (
				user_id INTEGER PRIMARY KEY,
				notifications_enabled BOOLEAN DEFAULT 1,
				search_filters TEXT,
				privacy_settings TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE
			)
		`,
	}
}

// createModeratorsTable creates the moderators table
func createModeratorsTable() Migration {
	return Migration{
		Name:        "create_moderators_table",
		Description: "Creates the moderators registry table",
		Table:       "moderators",
		SQL: `
			CREATE TABLE IF NOT EXISTS moderators (
				user_id INTEGER PRIMARY KEY,
				role TEXT NOT NULL DEFAULT 'moderator',
				permissions TEXT,
				appointed_by INTEGER,
				appointed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				is_active BOOLEAN DEFAULT 1,
				FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
				FOREIGN KEY (appointed_by) REFERENCES users (user_id)
			)
		`,
	}
}

// GetMigrations returns all table migrations in dependency order. The users
// table comes first because every other table references it.
func GetMigrations() []Migration {
	return []Migration{
		createUsersTable(),
		createProfilesTable(),
		createLikesTable(),
		createMatchesTable(),
		createUserSettingsTable(),
		createModeratorsTable(),
	}
}

// columnUpgrades are best-effort ALTER TABLE statements bringing databases
// created by older versions up to the current schema. SQLite has no
// ADD COLUMN IF NOT EXISTS, so "duplicate column name" failures are the
// expected steady-state outcome and are swallowed.
func columnUpgrades() []string {
	return []string{
		"ALTER TABLE profiles ADD COLUMN game_nickname TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE profiles ADD COLUMN moderation_status TEXT NOT NULL DEFAULT 'pending'",
		"ALTER TABLE profiles ADD COLUMN moderation_reason TEXT",
		"ALTER TABLE profiles ADD COLUMN moderated_by INTEGER",
		"ALTER TABLE profiles ADD COLUMN moderated_at TIMESTAMP",
		"ALTER TABLE profiles ADD COLUMN media_type TEXT",
		"ALTER TABLE profiles ADD COLUMN media_file_id TEXT",
		"ALTER TABLE profiles ADD COLUMN categories TEXT NOT NULL DEFAULT '[]'",
		"ALTER TABLE likes ADD COLUMN viewed_at TIMESTAMP",
	}
}

// indexStatements are the named indexes backing the hot query paths: rating
// ordering for search, moderation queue scans and like/match lookups.
func indexStatements() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_profiles_rating ON profiles (rating)",
		"CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles (role)",
		"CREATE INDEX IF NOT EXISTS idx_profiles_moderation ON profiles (moderation_status)",
		"CREATE INDEX IF NOT EXISTS idx_likes_liker ON likes (liker_id)",
		"CREATE INDEX IF NOT EXISTS idx_likes_liked ON likes (liked_id)",
		"CREATE INDEX IF NOT EXISTS idx_likes_viewed ON likes (viewed_at)",
		"CREATE INDEX IF NOT EXISTS idx_matches_users ON matches (user1_id, user2_id)",
		"CREATE INDEX IF NOT EXISTS idx_matches_active ON matches (is_active)",
		"CREATE INDEX IF NOT EXISTS idx_moderators_active ON moderators (is_active)",
	}
}

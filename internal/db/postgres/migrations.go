package postgres

// Migration is one versioned schema change.
type Migration struct {
	Version int
	SQL     string
}

// Migrations are embedded in the binary to keep deploys to a single file.
var Migrations = []Migration{
	{1, migration001Points},
	{2, migration002GuildSettings},
	{3, migration003Admin},
	{4, migration004SettingsChanges},
}

// points is owned by the system that awards points. The bot creates it only
// so a fresh database is usable; it never writes rows.
var migration001Points = `
CREATE TABLE IF NOT EXISTS points (
    guild_id VARCHAR(64) NOT NULL,
    user_id VARCHAR(64) NOT NULL,
    amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
    updated_at TIMESTAMP DEFAULT NOW(),
    PRIMARY KEY (guild_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_points_leaderboard ON points(guild_id, amount DESC, user_id);
`

var migration002GuildSettings = `
CREATE TABLE IF NOT EXISTS guild_settings (
    guild_id VARCHAR(64) PRIMARY KEY,
    points_system BOOLEAN NOT NULL DEFAULT FALSE,
    activity_roles JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration003Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`

var migration004SettingsChanges = `
CREATE TABLE IF NOT EXISTS admin_settings_changes (
    id BIGSERIAL PRIMARY KEY,
    admin_id BIGINT NOT NULL,
    guild_id VARCHAR(64) NOT NULL,
    field VARCHAR(32) NOT NULL,
    value TEXT NOT NULL,
    changed_at TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_settings_changes_guild ON admin_settings_changes(guild_id, changed_at DESC);
`

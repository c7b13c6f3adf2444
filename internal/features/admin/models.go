// Package admin lets the administrators listed in ADMIN_IDS edit guild
// settings from a private chat after a password login.
// models.go describes sessions, login attempts and the settings audit trail.
package admin

import "time"

const (
	// MaxFailedAttempts within AttemptWindow locks the login.
	MaxFailedAttempts = 3
	AttemptWindow     = time.Hour
	SessionTTL        = 24 * time.Hour

	// HistoryLimit caps the /history reply.
	HistoryLimit = 10
)

// Settings fields an admin can change.
const (
	FieldLadder       = "ladder"
	FieldPointsSystem = "points_system"
)

// AdminSession is an authenticated admin session.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt is one /login try, kept for brute-force protection.
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// SettingsChange is one audited edit of a guild's settings. Value is the new
// value as the admin would type it: a ladder like "100:Bronze" or on/off.
type SettingsChange struct {
	ID        int64     `db:"id"`
	AdminID   int64     `db:"admin_id"`
	GuildID   string    `db:"guild_id"`
	Field     string    `db:"field"`
	Value     string    `db:"value"`
	ChangedAt time.Time `db:"changed_at"`
}

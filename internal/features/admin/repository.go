// Package admin: repository.go stores admin sessions, login attempts and the
// audit trail of guild settings edits.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/activity-bot/internal/common"
)

// Repository is the Postgres SessionStore.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession opens a session for the admin.
func (r *Repository) CreateSession(ctx context.Context, session *AdminSession) error {
	query := `
		INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)
	`
	if _, err := r.db.Exec(ctx, query, session.UserID, session.SessionToken, session.ExpiresAt); err != nil {
		return fmt.Errorf("create session (admin=%d): %w", session.UserID, err)
	}
	return nil
}

// GetActiveSession returns the admin's newest unexpired session, or
// common.ErrSessionExpired.
func (r *Repository) GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error) {
	query := `
		SELECT id, user_id, session_token, authenticated_at, expires_at, last_activity, is_active
		FROM admin_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s AdminSession
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.AuthenticatedAt,
		&s.ExpiresAt, &s.LastActivity, &s.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrSessionExpired
		}
		return nil, fmt.Errorf("read session (admin=%d): %w", userID, err)
	}
	return &s, nil
}

// DeactivateSession closes every session of the admin.
func (r *Repository) DeactivateSession(ctx context.Context, userID int64) error {
	query := `UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("close sessions (admin=%d): %w", userID, err)
	}
	return nil
}

// UpdateActivity bumps last_activity of the active session.
func (r *Repository) UpdateActivity(ctx context.Context, userID int64) error {
	query := `UPDATE admin_sessions SET last_activity = NOW() WHERE user_id = $1 AND is_active = TRUE`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// LogAttempt records a /login try.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	query := `INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, success)
	return err
}

// GetRecentAttempts counts failed attempts within period.
func (r *Repository) GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID, time.Now().Add(-period)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count login attempts (admin=%d): %w", userID, err)
	}
	return count, nil
}

// LogChange appends a settings edit to the audit trail.
func (r *Repository) LogChange(ctx context.Context, change SettingsChange) error {
	query := `
		INSERT INTO admin_settings_changes (admin_id, guild_id, field, value)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, change.AdminID, change.GuildID, change.Field, change.Value); err != nil {
		return fmt.Errorf("log %s change (guild=%s): %w", change.Field, change.GuildID, err)
	}
	return nil
}

// RecentChanges returns the guild's latest settings edits, newest first.
func (r *Repository) RecentChanges(ctx context.Context, guildID string, limit int) ([]SettingsChange, error) {
	query := `
		SELECT id, admin_id, guild_id, field, value, changed_at
		FROM admin_settings_changes
		WHERE guild_id = $1
		ORDER BY changed_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("read changes (guild=%s): %w", guildID, err)
	}
	defer rows.Close()

	var out []SettingsChange
	for rows.Next() {
		var c SettingsChange
		if err := rows.Scan(&c.ID, &c.AdminID, &c.GuildID, &c.Field, &c.Value, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Package points reads per-guild activity point leaderboards.
// models.go describes a leaderboard record and the store contract.
package points

import (
	"context"
	"time"
)

// Record is one (guild, user) row of the leaderboard.
// Amount is maintained by the system that awards points and is never negative.
// UpdatedAt is only filled by single-record reads and is nil when the awarding
// system left it unset.
type Record struct {
	GuildID   string     `db:"guild_id"`
	UserID    string     `db:"user_id"`
	Amount    int64      `db:"amount"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// Store is the read side of a leaderboard.
//
// FetchWindow returns records [offset, offset+limit) of the guild's
// leaderboard sorted by amount descending. The order of equal amounts is
// store specific but identical across calls, so consecutive windows neither
// skip nor repeat a record.
//
// GetUserPoints returns common.ErrUserNotFound when the user has no record.
type Store interface {
	FetchWindow(ctx context.Context, guildID string, offset, limit int) ([]Record, error)
	GetUserPoints(ctx context.Context, guildID, userID string) (*Record, error)
}

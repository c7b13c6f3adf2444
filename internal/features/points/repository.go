// Package points: repository.go reads the points table in PostgreSQL.
// The table is written by the system that awards points; this bot only reads it.
package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/activity-bot/internal/common"
)

// Repository is the Postgres Store.
//
// Equal amounts are ordered by user_id ascending, which keeps consecutive
// windows consistent with each other. The (guild_id, amount DESC, user_id)
// index serves both the filter and the order.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the points repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FetchWindow returns records [offset, offset+limit) of the guild's leaderboard.
func (r *Repository) FetchWindow(ctx context.Context, guildID string, offset, limit int) ([]Record, error) {
	query := `
		SELECT guild_id, user_id, amount
		FROM points
		WHERE guild_id = $1
		ORDER BY amount DESC, user_id ASC
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, guildID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: window read (guild=%s offset=%d): %w", common.ErrStoreUnavailable, guildID, offset, err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.GuildID, &rec.UserID, &rec.Amount); err != nil {
			return nil, fmt.Errorf("%w: scan window row: %w", common.ErrStoreUnavailable, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read window rows: %w", common.ErrStoreUnavailable, err)
	}
	return out, nil
}

// GetUserPoints returns the user's record, or common.ErrUserNotFound.
func (r *Repository) GetUserPoints(ctx context.Context, guildID, userID string) (*Record, error) {
	query := `
		SELECT guild_id, user_id, amount, updated_at
		FROM points
		WHERE guild_id = $1 AND user_id = $2
	`
	var rec Record
	err := r.db.QueryRow(ctx, query, guildID, userID).Scan(&rec.GuildID, &rec.UserID, &rec.Amount, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("points (guild=%s user=%s): %w", guildID, userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%w: points (guild=%s user=%s): %w", common.ErrStoreUnavailable, guildID, userID, err)
	}
	return &rec, nil
}

// Package settings: repository.go stores guild settings in the guild_settings table.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

// Repository works with the guild_settings table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates the settings repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Get returns the guild's settings.
func (r *Repository) Get(ctx context.Context, guildID string) (*GuildSettings, error) {
	query := `
		SELECT guild_id, points_system, activity_roles, updated_at
		FROM guild_settings
		WHERE guild_id = $1
	`
	var g GuildSettings
	err := r.db.QueryRow(ctx, query, guildID).Scan(&g.GuildID, &g.PointsSystem, &g.ActivityRoles, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("settings (guild=%s): %w", guildID, common.ErrGuildNotConfigured)
		}
		return nil, fmt.Errorf("failed to read settings (guild=%s): %w", guildID, err)
	}
	return &g, nil
}

// ListEnabled returns the guilds with the points system on.
func (r *Repository) ListEnabled(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT guild_id FROM guild_settings WHERE points_system = TRUE ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetLadder replaces the guild's tier ladder, creating the row if needed.
func (r *Repository) SetLadder(ctx context.Context, guildID string, ladder tiers.Ladder) error {
	query := `
		INSERT INTO guild_settings (guild_id, activity_roles)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE
		SET activity_roles = EXCLUDED.activity_roles, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, guildID, ladder.Steps()); err != nil {
		return fmt.Errorf("failed to save ladder (guild=%s): %w", guildID, err)
	}
	return nil
}

// SetPointsSystem switches the activity system on or off.
func (r *Repository) SetPointsSystem(ctx context.Context, guildID string, enabled bool) error {
	query := `
		INSERT INTO guild_settings (guild_id, points_system)
		VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE
		SET points_system = EXCLUDED.points_system, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, guildID, enabled); err != nil {
		return fmt.Errorf("failed to save points_system (guild=%s): %w", guildID, err)
	}
	return nil
}

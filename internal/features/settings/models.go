// Package settings holds per-guild configuration of the activity system:
// whether it is enabled and which tier ladder it uses.
package settings

import (
	"context"
	"time"

	"serotonyl.ru/activity-bot/internal/features/tiers"
)

// GuildSettings is one guild's configuration.
type GuildSettings struct {
	GuildID       string       `db:"guild_id" yaml:"-"`
	PointsSystem  bool         `db:"points_system" yaml:"points_system"`
	ActivityRoles []tiers.Step `db:"activity_roles" yaml:"activity_roles"` // ordered, each cost is a delta
	UpdatedAt     time.Time    `db:"updated_at" yaml:"-"`
}

// Ladder validates ActivityRoles into a tiers.Ladder.
func (g *GuildSettings) Ladder() (tiers.Ladder, error) {
	return tiers.NewLadder(g.ActivityRoles)
}

// Source returns settings for a guild, or common.ErrGuildNotConfigured.
type Source interface {
	Get(ctx context.Context, guildID string) (*GuildSettings, error)
	ListEnabled(ctx context.Context) ([]string, error)
}

// Writer changes settings. Only the Postgres source is writable.
type Writer interface {
	SetLadder(ctx context.Context, guildID string, ladder tiers.Ladder) error
	SetPointsSystem(ctx context.Context, guildID string, enabled bool) error
}

//go:build integration

package settings

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/db/postgres"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("settings_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func TestRepository_Integration(t *testing.T) {
	repo := NewRepository(setupPostgres(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "-100")
	assert.ErrorIs(t, err, common.ErrGuildNotConfigured)

	ladder := tiers.MustLadder(tiers.Step{Cost: 100, Label: "Bronze"}, tiers.Step{Cost: 150, Label: "Silver"})
	require.NoError(t, repo.SetLadder(ctx, "-100", ladder))

	g, err := repo.Get(ctx, "-100")
	require.NoError(t, err)
	assert.False(t, g.PointsSystem, "new guilds start disabled")
	assert.Equal(t, ladder.Steps(), g.ActivityRoles)

	require.NoError(t, repo.SetPointsSystem(ctx, "-100", true))
	require.NoError(t, repo.SetPointsSystem(ctx, "-200", false))

	g, err = repo.Get(ctx, "-100")
	require.NoError(t, err)
	assert.True(t, g.PointsSystem)
	assert.Len(t, g.ActivityRoles, 2, "switching keeps the ladder")

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"-100"}, enabled)

	// an empty ladder is stored as []
	require.NoError(t, repo.SetLadder(ctx, "-100", tiers.Ladder{}))
	g, err = repo.Get(ctx, "-100")
	require.NoError(t, err)
	assert.Empty(t, g.ActivityRoles)
}

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

const sampleFile = `
guilds:
  "-1001":
    points_system: true
    activity_roles:
      - {cost: 100, label: Bronze}
      - {cost: 150, label: Silver}
  "-1002":
    points_system: false
  "-1003":
    points_system: true
`

func TestParseFile(t *testing.T) {
	src, err := ParseFile([]byte(sampleFile))
	require.NoError(t, err)
	ctx := context.Background()

	g, err := src.Get(ctx, "-1001")
	require.NoError(t, err)
	assert.Equal(t, "-1001", g.GuildID)
	assert.True(t, g.PointsSystem)

	ladder, err := g.Ladder()
	require.NoError(t, err)
	assert.Equal(t, "100:Bronze 150:Silver", ladder.String())
	assert.Equal(t, int64(250), ladder.Threshold(1))

	off, err := src.Get(ctx, "-1002")
	require.NoError(t, err)
	assert.False(t, off.PointsSystem)
	assert.Empty(t, off.ActivityRoles)

	_, err = src.Get(ctx, "-9999")
	assert.ErrorIs(t, err, common.ErrGuildNotConfigured)

	enabled, err := src.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"-1001", "-1003"}, enabled)
}

func TestParseFile_InvalidLadder(t *testing.T) {
	_, err := ParseFile([]byte(`
guilds:
  "-1001":
    points_system: true
    activity_roles:
      - {cost: 100, label: Bronze}
      - {cost: 0, label: Broken}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidLadder)

	var invalid *tiers.InvalidLadderError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
}

func TestParseFile_BadYAML(t *testing.T) {
	_, err := ParseFile([]byte("guilds: [not, a, map"))
	assert.Error(t, err)
}

func TestFileSource_GetReturnsCopy(t *testing.T) {
	src, err := ParseFile([]byte(sampleFile))
	require.NoError(t, err)

	g, err := src.Get(context.Background(), "-1001")
	require.NoError(t, err)
	g.ActivityRoles[0].Cost = -5
	g.PointsSystem = false

	again, err := src.Get(context.Background(), "-1001")
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.ActivityRoles[0].Cost)
	assert.True(t, again.PointsSystem)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)
	_, err = src.Get(context.Background(), "-1003")
	assert.NoError(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

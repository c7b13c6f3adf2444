package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noticeSet struct{ resets int }

func (n *noticeSet) ResetNotified() int {
	n.resets++
	return 3
}

type guildList struct {
	ids []string
	err error
}

func (g guildList) ListEnabled(ctx context.Context) ([]string, error) { return g.ids, g.err }

type syncRecorder struct {
	synced []string
	fail   map[string]bool
}

func (s *syncRecorder) Sync(ctx context.Context, guildID string) (int, error) {
	if s.fail[guildID] {
		return 0, errors.New("redis down")
	}
	s.synced = append(s.synced, guildID)
	return 10, nil
}

type syncResults struct{ ok, failed int }

func (r *syncResults) MirrorSynced(err error) {
	if err != nil {
		r.failed++
		return
	}
	r.ok++
}

func TestResetNotices(t *testing.T) {
	notices := &noticeSet{}
	s := NewScheduler(time.UTC, notices, guildList{}, nil, "", nil)
	s.ResetNotices()
	assert.Equal(t, 1, notices.resets)
}

func TestSyncMirror(t *testing.T) {
	mirror := &syncRecorder{fail: map[string]bool{"-2": true}}
	results := &syncResults{}
	s := NewScheduler(time.UTC, &noticeSet{}, guildList{ids: []string{"-1", "-2", "-3"}}, mirror, "@every 1m", results)

	s.SyncMirror(context.Background())

	assert.Equal(t, []string{"-1", "-3"}, mirror.synced, "a failing guild does not stop the others")
	assert.Equal(t, 2, results.ok)
	assert.Equal(t, 1, results.failed)
}

func TestSyncMirror_ListError(t *testing.T) {
	mirror := &syncRecorder{}
	s := NewScheduler(time.UTC, &noticeSet{}, guildList{err: errors.New("db down")}, mirror, "@every 1m", nil)
	s.SyncMirror(context.Background())
	assert.Empty(t, mirror.synced)
}

func TestSyncMirror_DisabledWithoutMirror(t *testing.T) {
	s := NewScheduler(time.UTC, &noticeSet{}, guildList{ids: []string{"-1"}}, nil, "", nil)
	assert.NotPanics(t, func() { s.SyncMirror(context.Background()) })
}

func TestStart(t *testing.T) {
	t.Run("postgres store registers only the reset", func(t *testing.T) {
		s := NewScheduler(time.UTC, &noticeSet{}, guildList{}, nil, "", nil)
		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()
		assert.Len(t, s.cron.Entries(), 1)
	})

	t.Run("redis store syncs at start and on schedule", func(t *testing.T) {
		mirror := &syncRecorder{}
		s := NewScheduler(time.UTC, &noticeSet{}, guildList{ids: []string{"-1"}}, mirror, "@every 5m", nil)
		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()
		assert.Len(t, s.cron.Entries(), 2)
		assert.Equal(t, []string{"-1"}, mirror.synced)
	})

	t.Run("bad schedule", func(t *testing.T) {
		s := NewScheduler(time.UTC, &noticeSet{}, guildList{}, &syncRecorder{}, "whenever", nil)
		assert.Error(t, s.Start(context.Background()))
	})
}

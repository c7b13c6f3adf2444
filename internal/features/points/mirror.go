package points

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Mirror copies guild leaderboards from a source Store into Redis.
//
// The copy is built under a temporary key and renamed over the live key at
// the end, so readers never see a half-written leaderboard.
type Mirror struct {
	source    Store
	client    SortedSetClient
	batchSize int
}

// NewMirror creates a mirror that reads the source batchSize records at a time.
func NewMirror(source Store, client SortedSetClient, batchSize int) *Mirror {
	if batchSize <= 0 {
		batchSize = 2500
	}
	return &Mirror{source: source, client: client, batchSize: batchSize}
}

// Sync rebuilds the guild's sorted set and returns the number of records copied.
func (m *Mirror) Sync(ctx context.Context, guildID string) (int, error) {
	live := Key(guildID)
	tmp := live + ":sync"

	if err := m.client.Del(ctx, tmp).Err(); err != nil {
		return 0, fmt.Errorf("clear %s: %w", tmp, err)
	}

	copied := 0
	for offset := 0; ; offset += m.batchSize {
		records, err := m.source.FetchWindow(ctx, guildID, offset, m.batchSize)
		if err != nil {
			return copied, fmt.Errorf("read source window at %d: %w", offset, err)
		}
		if len(records) > 0 {
			members := make([]redis.Z, len(records))
			for i, rec := range records {
				members[i] = redis.Z{Score: float64(rec.Amount), Member: rec.UserID}
			}
			if err := m.client.ZAdd(ctx, tmp, members...).Err(); err != nil {
				return copied, fmt.Errorf("write %s: %w", tmp, err)
			}
			copied += len(records)
		}
		if len(records) < m.batchSize {
			break
		}
	}

	if copied == 0 {
		if err := m.client.Del(ctx, live).Err(); err != nil {
			return 0, fmt.Errorf("clear %s: %w", live, err)
		}
		return 0, nil
	}

	if err := m.client.Rename(ctx, tmp, live).Err(); err != nil {
		return copied, fmt.Errorf("publish %s: %w", live, err)
	}

	log.WithFields(log.Fields{
		"component": "mirror",
		"guild_id":  guildID,
		"records":   copied,
	}).Debug("leaderboard mirrored to redis")
	return copied, nil
}

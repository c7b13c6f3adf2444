// Package points: redis_store.go serves leaderboards from Redis sorted sets.
// One sorted set per guild, member = user id, score = amount.
package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"serotonyl.ru/activity-bot/internal/common"
)

// KeyPrefix is prepended to the guild id to form the sorted set key.
const KeyPrefix = "activity:points:"

// SortedSetClient is the subset of *redis.Client used here.
type SortedSetClient interface {
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	ZScore(ctx context.Context, key, member string) *redis.FloatCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Rename(ctx context.Context, key, newkey string) *redis.StatusCmd
}

// RedisStore is the Redis Store.
//
// Equal scores come back in reverse lexicographic member order, which is
// how ZREVRANGE orders ties. It is stable between calls as long as the set
// is not rewritten mid-scan.
type RedisStore struct {
	client SortedSetClient
}

// NewRedisStore creates the store.
func NewRedisStore(client SortedSetClient) *RedisStore {
	return &RedisStore{client: client}
}

// Key returns the sorted set key of the guild.
func Key(guildID string) string {
	return KeyPrefix + guildID
}

// FetchWindow returns records [offset, offset+limit) of the guild's leaderboard.
func (s *RedisStore) FetchWindow(ctx context.Context, guildID string, offset, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	start := int64(offset)
	stop := start + int64(limit) - 1

	zs, err := s.client.ZRevRangeWithScores(ctx, Key(guildID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis window (guild=%s offset=%d): %w", common.ErrStoreUnavailable, guildID, offset, err)
	}

	out := make([]Record, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected member type %T", common.ErrStoreUnavailable, z.Member)
		}
		out = append(out, Record{GuildID: guildID, UserID: member, Amount: int64(z.Score)})
	}
	return out, nil
}

// GetUserPoints returns the user's record, or common.ErrUserNotFound.
func (s *RedisStore) GetUserPoints(ctx context.Context, guildID, userID string) (*Record, error) {
	score, err := s.client.ZScore(ctx, Key(guildID), userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("points (guild=%s user=%s): %w", guildID, userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%w: redis score (guild=%s user=%s): %w", common.ErrStoreUnavailable, guildID, userID, err)
	}
	return &Record{GuildID: guildID, UserID: userID, Amount: int64(score)}, nil
}

package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/brianvoe/gofakeit/v7"

	"serotonyl.ru/activity-bot/internal/features/points"
)

// ------------------------
// Fake leaderboard store
// ------------------------

type fetchCall struct {
	offset int
	limit  int
}

type FakeWindowStore struct {
	records []points.Record
	calls   []fetchCall

	FetchWindowFunc func(ctx context.Context, guildID string, offset, limit int) ([]points.Record, error)
}

// newFakeStore sorts the records the way the Postgres repository does:
// amount descending, user id ascending.
func newFakeStore(records []points.Record) *FakeWindowStore {
	sorted := make([]points.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	return &FakeWindowStore{records: sorted}
}

func (f *FakeWindowStore) FetchWindow(ctx context.Context, guildID string, offset, limit int) ([]points.Record, error) {
	f.calls = append(f.calls, fetchCall{offset: offset, limit: limit})
	if f.FetchWindowFunc != nil {
		return f.FetchWindowFunc(ctx, guildID, offset, limit)
	}
	if offset >= len(f.records) {
		return []points.Record{}, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[offset:end], nil
}

// generateLeaderboard builds n records with distinct user ids and random
// amounts, repeatable for a seed.
func generateLeaderboard(seed uint64, n int) []points.Record {
	faker := gofakeit.New(seed)
	out := make([]points.Record, n)
	for i := range out {
		out[i] = points.Record{
			GuildID: "guild-1",
			UserID:  fmt.Sprintf("user-%06d", i),
			Amount:  int64(faker.IntRange(1, 50000)),
		}
	}
	return out
}

// filler returns count records that all outrank amount and never match a
// real user id.
func filler(prefix string, count int, amount int64) []points.Record {
	out := make([]points.Record, count)
	for i := range out {
		out[i] = points.Record{GuildID: "guild-1", UserID: fmt.Sprintf("%s-%06d", prefix, i), Amount: amount}
	}
	return out
}

// Package rank finds a member's place on a guild leaderboard.
//
// The leaderboard can be far larger than what is reasonable to load at once,
// so the resolver reads it in fixed-size windows, best amounts first, and
// scans each window for the member. At most one window is held in memory.
package rank

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/features/points"
)

const (
	// DefaultWindowSize is the number of records requested per store read.
	// Tunable: larger windows mean fewer round trips and bigger payloads.
	DefaultWindowSize = 2500
	// DefaultMaxWindows caps how many windows one lookup may read
	// (1,000,000 records with the default window size).
	DefaultMaxWindows = 400

	// Unranked is the rank reported when no position could be determined.
	Unranked = 0
)

// Outcome tells apart the reasons behind a lookup result. The rank is 0
// for every outcome except OutcomeFound.
type Outcome string

const (
	OutcomeFound      Outcome = "found"
	OutcomeAbsent     Outcome = "absent"      // store exhausted without a match
	OutcomeStoreError Outcome = "store_error" // a window read failed
	OutcomeCapReached Outcome = "cap_reached" // MaxWindows read without a match
	OutcomeNoPoints   Outcome = "no_points"   // precondition not met, store untouched
)

// Result of one lookup.
type Result struct {
	Rank    int
	Outcome Outcome
	// Windows is the number of store reads performed.
	Windows int
	// Err is the store error behind OutcomeStoreError.
	Err error
}

// Ranked reports whether a position was found.
func (r Result) Ranked() bool {
	return r.Rank != Unranked
}

// WindowFetcher is the part of points.Store the resolver needs.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, guildID string, offset, limit int) ([]points.Record, error)
}

// Resolver resolves ranks. It keeps no per-lookup state and is safe for
// concurrent use.
type Resolver struct {
	store      WindowFetcher
	windowSize int
	maxWindows int
}

// NewResolver creates a resolver. Non-positive sizes fall back to the defaults.
func NewResolver(store WindowFetcher, windowSize, maxWindows int) *Resolver {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if maxWindows <= 0 {
		maxWindows = DefaultMaxWindows
	}
	return &Resolver{store: store, windowSize: windowSize, maxWindows: maxWindows}
}

// WindowSize returns the configured window size.
func (r *Resolver) WindowSize() int { return r.windowSize }

// Resolve returns the 1-based rank of userID in the guild's leaderboard.
//
// The caller is expected to have checked that totalPoints is positive; a
// member without points is Unranked and the store is not read.
//
// Store errors are not retried and not returned: they end the lookup as
// Unranked with OutcomeStoreError, same as a member that is not found. A
// cancelled ctx counts as a store error.
func (r *Resolver) Resolve(ctx context.Context, guildID, userID string, totalPoints int64) Result {
	if totalPoints <= 0 {
		return Result{Rank: Unranked, Outcome: OutcomeNoPoints}
	}

	logger := log.WithFields(log.Fields{
		"component": "rank",
		"lookup_id": uuid.NewString(),
		"guild_id":  guildID,
		"user_id":   userID,
	})
	started := time.Now()

	offset := 0
	for window := 1; window <= r.maxWindows; window++ {
		records, err := r.fetch(ctx, guildID, offset)
		if err != nil {
			logger.WithError(err).WithField("offset", offset).Warn("leaderboard window read failed, reporting unranked")
			return Result{Rank: Unranked, Outcome: OutcomeStoreError, Windows: window, Err: err}
		}

		for i, rec := range records {
			if rec.UserID == userID {
				rank := offset + i + 1
				logger.WithFields(log.Fields{
					"rank":    rank,
					"windows": window,
					"elapsed": time.Since(started),
				}).Debug("rank resolved")
				return Result{Rank: rank, Outcome: OutcomeFound, Windows: window}
			}
		}

		// A short (or empty) window is the end of the leaderboard.
		if len(records) < r.windowSize {
			logger.WithField("windows", window).Info("member not on leaderboard")
			return Result{Rank: Unranked, Outcome: OutcomeAbsent, Windows: window}
		}

		offset += r.windowSize
	}

	logger.WithFields(log.Fields{
		"windows": r.maxWindows,
		"offset":  offset,
	}).Warn("window cap reached without finding member")
	return Result{Rank: Unranked, Outcome: OutcomeCapReached, Windows: r.maxWindows}
}

func (r *Resolver) fetch(ctx context.Context, guildID string, offset int) ([]points.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.store.FetchWindow(ctx, guildID, offset, r.windowSize)
}

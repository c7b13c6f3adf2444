package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the map size that triggers pruning of idle users.
	cleanupThreshold = 500
	maxIdleAge       = 10 * time.Minute
)

type userEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter gives every user a token bucket of limit requests refilled
// over window. Idle users are pruned inline once the map grows.
type RateLimiter struct {
	mu    sync.Mutex
	users map[int64]*userEntry
	r     rate.Limit
	burst int
}

// NewRateLimiter allows limit requests per window per user.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		users: make(map[int64]*userEntry),
		r:     rate.Every(window / time.Duration(limit)),
		burst: limit,
	}
}

// Allow reports whether userID may be served now and consumes a token.
func (rl *RateLimiter) Allow(userID int64) bool {
	return rl.limiter(userID).Allow()
}

// Tracked returns the number of users with a live bucket.
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.users)
}

func (rl *RateLimiter) limiter(userID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.users) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for id, e := range rl.users {
			if e.lastSeen.Before(cutoff) {
				delete(rl.users, id)
			}
		}
	}

	e, ok := rl.users[userID]
	if !ok {
		e = &userEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.users[userID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Package activity builds a member's activity card: rank on the guild
// leaderboard, tier title and progress toward the next tier.
package activity

import (
	"serotonyl.ru/activity-bot/internal/features/rank"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

// ActivityReport is the card content. Built per request, never stored.
type ActivityReport struct {
	TierLabel       string
	Rank            int // rank.Unranked when no position is known
	TotalPoints     int64
	CurrentProgress int64
	NextRequired    int64
	MaxTier         bool
	Ranked          bool
}

// NewReport merges a rank lookup and a ladder position.
func NewReport(total int64, r rank.Result, p tiers.Progress) ActivityReport {
	return ActivityReport{
		TierLabel:       p.Label,
		Rank:            r.Rank,
		TotalPoints:     total,
		CurrentProgress: p.CurrentProgress,
		NextRequired:    p.NextRequired,
		MaxTier:         p.MaxTier,
		Ranked:          r.Ranked(),
	}
}

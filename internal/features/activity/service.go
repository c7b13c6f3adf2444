// Package activity: service.go loads guild settings and points and assembles the card.
package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/features/points"
	"serotonyl.ru/activity-bot/internal/features/rank"
	"serotonyl.ru/activity-bot/internal/features/settings"
	"serotonyl.ru/activity-bot/internal/features/tiers"
)

// RankResolver is satisfied by *rank.Resolver.
type RankResolver interface {
	Resolve(ctx context.Context, guildID, userID string, totalPoints int64) rank.Result
}

// PointsLookup returns one member's points record.
type PointsLookup interface {
	GetUserPoints(ctx context.Context, guildID, userID string) (*points.Record, error)
}

// LookupObserver receives the outcome of every rank lookup.
type LookupObserver interface {
	ObserveLookup(outcome string, windows int, elapsed time.Duration)
}

// Build resolves the rank and the ladder position for a member whose total
// is already known. Rank lookup failures leave the report Unranked.
func Build(ctx context.Context, resolver RankResolver, guildID, userID string, total int64, ladder tiers.Ladder) ActivityReport {
	result := resolver.Resolve(ctx, guildID, userID, total)
	progress := tiers.ComputeProgress(ladder, total)
	return NewReport(total, result, progress)
}

// Service answers card requests.
type Service struct {
	settings settings.Source
	points   PointsLookup
	resolver RankResolver
	timeout  time.Duration
	observer LookupObserver
}

// NewService creates the service. timeout bounds one rank lookup, 0 means
// no bound beyond the caller's ctx. observer may be nil.
func NewService(src settings.Source, pts PointsLookup, resolver RankResolver, timeout time.Duration, observer LookupObserver) *Service {
	return &Service{
		settings: src,
		points:   pts,
		resolver: resolver,
		timeout:  timeout,
		observer: observer,
	}
}

// Card builds the activity card of userID in guildID.
//
// Returns common.ErrPointsDisabled when the guild has no enabled activity
// system and common.ErrNoPoints when the member has no point record. A record
// with zero points still gets a card, unranked.
func (s *Service) Card(ctx context.Context, guildID, userID string) (*ActivityReport, error) {
	g, err := s.settings.Get(ctx, guildID)
	if err != nil {
		if errors.Is(err, common.ErrGuildNotConfigured) {
			return nil, common.ErrPointsDisabled
		}
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	if !g.PointsSystem {
		return nil, common.ErrPointsDisabled
	}

	ladder, err := g.Ladder()
	if err != nil {
		return nil, fmt.Errorf("guild %s: %w", guildID, err)
	}

	rec, err := s.points.GetUserPoints(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrNoPoints
		}
		return nil, err
	}

	lookupCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report := Build(lookupCtx, observed{s.resolver, s.observer}, guildID, userID, rec.Amount, ladder)

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"user_id":  userID,
		"rank":     report.Rank,
		"tier":     report.TierLabel,
	}).Debug("activity card built")
	return &report, nil
}

// observed reports every lookup to the observer.
type observed struct {
	resolver RankResolver
	observer LookupObserver
}

func (o observed) Resolve(ctx context.Context, guildID, userID string, totalPoints int64) rank.Result {
	started := time.Now()
	res := o.resolver.Resolve(ctx, guildID, userID, totalPoints)
	if o.observer != nil {
		o.observer.ObserveLookup(string(res.Outcome), res.Windows, time.Since(started))
	}
	return res
}

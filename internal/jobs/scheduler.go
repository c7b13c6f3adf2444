// Package jobs runs background tasks on a cron schedule: the daily reset
// of the activity card notice and the Redis leaderboard mirror sync.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DailyResetSpec runs at midnight in the scheduler's location.
const DailyResetSpec = "0 0 * * *"

// NoticeResetter forgets who has seen the card notice.
type NoticeResetter interface {
	ResetNotified() int
}

// GuildLister lists guilds with the activity system on.
type GuildLister interface {
	ListEnabled(ctx context.Context) ([]string, error)
}

// MirrorSyncer copies one guild's leaderboard to Redis.
type MirrorSyncer interface {
	Sync(ctx context.Context, guildID string) (int, error)
}

// SyncObserver is told about every guild sync.
type SyncObserver interface {
	MirrorSynced(err error)
}

// Scheduler manages the background jobs.
type Scheduler struct {
	cron *cron.Cron

	notices      NoticeResetter
	guilds       GuildLister
	mirror       MirrorSyncer // nil when the points store is Postgres
	syncSchedule string
	observer     SyncObserver
}

// NewScheduler creates the scheduler. mirror and observer may be nil.
func NewScheduler(loc *time.Location, notices NoticeResetter, guilds GuildLister, mirror MirrorSyncer, syncSchedule string, observer SyncObserver) *Scheduler {
	logger := cronLogger{log.WithField("component", "cron")}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		cron:         c,
		notices:      notices,
		guilds:       guilds,
		mirror:       mirror,
		syncSchedule: syncSchedule,
		observer:     observer,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(DailyResetSpec, s.ResetNotices); err != nil {
		return fmt.Errorf("schedule notice reset: %w", err)
	}

	if s.mirror != nil {
		// fill Redis before the first tick so lookups have data
		s.SyncMirror(ctx)
		if _, err := s.cron.AddFunc(s.syncSchedule, func() { s.SyncMirror(ctx) }); err != nil {
			return fmt.Errorf("schedule mirror sync %q: %w", s.syncSchedule, err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"jobs":     len(s.cron.Entries()),
		"location": s.cron.Location().String(),
	}).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}

// ResetNotices clears the card notice set.
func (s *Scheduler) ResetNotices() {
	n := s.notices.ResetNotified()
	log.WithField("members", n).Info("[CRON] card notice set reset")
}

// SyncMirror copies every enabled guild's leaderboard to Redis. A failing
// guild is logged and does not stop the others.
func (s *Scheduler) SyncMirror(ctx context.Context) {
	if s.mirror == nil {
		return
	}

	guilds, err := s.guilds.ListEnabled(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] failed to list guilds for mirror sync")
		return
	}

	started := time.Now()
	total := 0
	for _, guildID := range guilds {
		if ctx.Err() != nil {
			return
		}
		n, err := s.mirror.Sync(ctx, guildID)
		if s.observer != nil {
			s.observer.MirrorSynced(err)
		}
		if err != nil {
			log.WithError(err).WithField("guild_id", guildID).Error("[CRON] mirror sync failed")
			continue
		}
		total += n
	}

	log.WithFields(log.Fields{
		"guilds":  len(guilds),
		"records": total,
		"elapsed": time.Since(started),
	}).Debug("[CRON] mirror sync finished")
}

// cronLogger routes cron's own messages to logrus.
type cronLogger struct {
	entry *log.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}

// Package app builds every component of the bot.
// app.go is the assembly point: database pool, optional Redis, stores,
// services, handlers, scheduler and the metrics server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/bot"
	"serotonyl.ru/activity-bot/internal/common"
	"serotonyl.ru/activity-bot/internal/config"
	"serotonyl.ru/activity-bot/internal/db/postgres"
	"serotonyl.ru/activity-bot/internal/db/redis"
	"serotonyl.ru/activity-bot/internal/features/activity"
	"serotonyl.ru/activity-bot/internal/features/admin"
	"serotonyl.ru/activity-bot/internal/features/points"
	"serotonyl.ru/activity-bot/internal/features/rank"
	"serotonyl.ru/activity-bot/internal/features/settings"
	"serotonyl.ru/activity-bot/internal/jobs"
	"serotonyl.ru/activity-bot/internal/metrics"
)

// App holds the running components.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Metrics   *http.Server
	DB        *pgxpool.Pool
	Redis     *goredis.Client // nil unless POINTS_STORE=redis
	BotAPI    *telego.Bot
}

// New creates and wires the application. The order matters, components
// depend on the ones built before them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	a := &App{DB: pool}

	// === 2. Telegram Bot API ===
	a.BotAPI, err = telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(cfg.AppEnv == "development", true))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	me, err := a.BotAPI.GetMe(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	log.Infof("Authorized as @%s", me.Username)

	m := metrics.New()

	// === 3. Stores ===
	pgPoints := points.NewRepository(pool)
	var store points.Store = pgPoints
	var mirror *points.Mirror
	if cfg.PointsStore == config.StoreRedis {
		a.Redis, err = redis.NewClient(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		store = points.NewRedisStore(a.Redis)
		mirror = points.NewMirror(pgPoints, a.Redis, cfg.RankWindowSize)
	}

	settingsRepo := settings.NewRepository(pool)
	var guilds settings.Source = settingsRepo
	if cfg.GuildSettingsFile != "" {
		fileSource, err := settings.LoadFile(cfg.GuildSettingsFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		guilds = fileSource
		log.WithField("file", cfg.GuildSettingsFile).Info("Guild settings are read from file, admin edits go to Postgres")
	}

	// === 4. Services ===
	resolver := rank.NewResolver(store, cfg.RankWindowSize, cfg.RankMaxWindows)
	activityService := activity.NewService(guilds, store, resolver, cfg.RankLookupTimeout, m)
	adminService := admin.NewService(admin.NewRepository(pool), settingsRepo, cfg.IsAdmin, cfg.AdminPasswordHash)

	// === 5. Handlers and bot ===
	activityHandler := activity.NewHandler(activityService, a.BotAPI)
	adminHandler := admin.NewHandler(adminService, a.BotAPI)
	a.Bot = bot.New(a.BotAPI, cfg, activityHandler, adminHandler, m)

	// === 6. Background jobs ===
	var syncer jobs.MirrorSyncer
	if mirror != nil {
		syncer = mirror
	}
	a.Scheduler = jobs.NewScheduler(common.Location(cfg.AppTimezone), activityHandler, guilds, syncer, cfg.MirrorSyncSchedule, m)

	// === 7. Metrics endpoint ===
	a.Metrics = m.NewServer(cfg.MetricsAddr)

	log.WithFields(log.Fields{
		"points_store": cfg.PointsStore,
		"window_size":  resolver.WindowSize(),
	}).Info("Application assembled")
	return a, nil
}

// Close releases the connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Package main is the bot entry point.
// It loads the configuration, builds the application and runs it until
// SIGINT/SIGTERM, then shuts down gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/activity-bot/internal/app"
	"serotonyl.ru/activity-bot/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Bot starting ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// cancelled on SIGINT/SIGTERM (Ctrl+C, docker stop)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}
	defer application.Scheduler.Stop()

	go func() {
		log.WithField("addr", application.Metrics.Addr).Info("Metrics server listening")
		if err := application.Metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	botDone := make(chan error, 1)
	go func() { botDone <- application.Bot.Start(ctx) }()

	log.Info("=== Bot is ready ===")

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, stopping...")
	case err := <-botDone:
		if err != nil {
			log.WithError(err).Error("Bot stopped with error")
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := application.Metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}

	log.Info("=== Bot stopped ===")
}

// setupLogging configures the log format.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

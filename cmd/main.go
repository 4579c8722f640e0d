package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rafrcruz/lkdposts-sub001/internal/config"
	"github.com/rafrcruz/lkdposts-sub001/internal/database"
	"github.com/rafrcruz/lkdposts-sub001/internal/feed"
	"github.com/rafrcruz/lkdposts-sub001/internal/generator"
	"github.com/rafrcruz/lkdposts-sub001/internal/models"
	"github.com/rafrcruz/lkdposts-sub001/internal/scheduler"
	"github.com/rafrcruz/lkdposts-sub001/internal/server"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.InfoContext(ctx, "No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	defaults := models.OwnerSettings{
		WindowDays:      cfg.DefaultWindowDays,
		CooldownSeconds: cfg.DefaultCooldownSecs,
		Model:           cfg.DefaultModel,
	}

	refresher := feed.NewRefresher(
		db,
		time.Duration(cfg.FeedCooldownSecs)*time.Second,
		log,
	)

	client := generator.NewOpenAIClient(cfg.OpenAIAPIKey)
	tracker := generator.NewProgressTracker()
	runner := generator.NewRunner(db, refresher, client, tracker, defaults, log)
	log.InfoContext(ctx, "Generation runner is initialized",
		"defaultModel", cfg.DefaultModel)

	if cfg.EnableFeedCron {
		sched := scheduler.New(ctx, db, refresher, cfg.DefaultWindowDays, log)

		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err)

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started")
	}

	srv := server.New(
		cfg.ListenAddr,
		cfg.JWTSecret,
		runner,
		db,
		refresher,
		defaults,
		log,
	)

	go func() {
		if err := srv.Start(); err != nil {
			log.ErrorContext(ctx, "Server stopped with error",
				"error", err)
			cancel()
		}
	}()
	log.InfoContext(ctx, "Server is started",
		"listenAddr", cfg.ListenAddr)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
	case <-ctx.Done():
	}
	log.InfoContext(ctx, "Exiting...")

	if err = srv.Stop(context.Background()); err != nil {
		log.ErrorContext(ctx, "Failed to stop server",
			"error", err)
	}
	log.InfoContext(ctx, "Server is stopped")
}

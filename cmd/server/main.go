package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/clients/analytics"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/config"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/database"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/events"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/feed"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/ideas"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
	telegramjobs "github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram/jobs"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/trend"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/scheduler"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/server"
	"github.com/Johnhyeon/stock-tracker-sub001/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet, fall back to a default one
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting stock tracker")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(ideas.Schema, telegram.Schema, feed.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared infrastructure
	eventManager := events.NewManager(log)
	analyticsClient := analytics.NewClient(cfg.AnalyticsServiceURL, log)

	// Ideas module
	ideaRepo := ideas.NewIdeaRepository(db.Conn(), log)
	positionRepo := ideas.NewPositionRepository(db.Conn(), log)
	ideaService := ideas.NewService(ideaRepo, positionRepo, eventManager, log)
	ideaHandler := ideas.NewHandler(ideaService, log)

	// Telegram module
	telegramSource := telegram.NewAnalyticsSource(analyticsClient, log)
	telegramRepo := telegram.NewRepository(db.Conn(), log)
	telegramHandler := telegram.NewHandler(telegramSource, log)

	// Feed module
	filterStore := feed.NewStore(db.Conn(), log)
	filterManager := feed.NewManager(filterStore, log)
	aggregator := feed.NewAggregator(ideaService, telegramSource, log)
	feedHandler := feed.NewHandler(aggregator, filterManager, log)

	// Trend module
	trendService := trend.NewService(analyticsClient, log)
	trendHandler := trend.NewHandler(trendService, log)

	// Initialize scheduler
	sched := scheduler.New(log)

	syncJob := telegramjobs.NewSyncJob(telegramSource, telegramRepo, eventManager, log)
	if err := sched.AddJob(cfg.TelegramSyncCron, syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register telegram sync job")
	}

	refreshJob := trend.NewRefreshJob(trendService, positionRepo, eventManager, cfg.SparklineDays, log)
	if err := sched.AddJob(cfg.SparklineSyncCron, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sparkline refresh job")
	}

	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Port,
		Log:          log,
		DB:           db,
		Config:       cfg,
		DevMode:      cfg.DevMode,
		Ideas:        ideaHandler,
		Telegram:     telegramHandler,
		TelegramRepo: telegramRepo,
		Feed:         feedHandler,
		Trend:        trendHandler,
		Events:       eventManager,
		Analytics:    analyticsClient,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

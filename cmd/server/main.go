package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/app"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/logging"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	log.Logger = logger

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	logger.Info().
		Str("version", version.Version).
		Str("database", cfg.Database.Path).
		Str("provider", cfg.Acquisition.Provider).
		Bool("ai", application.Recommendation.AIEnabled()).
		Msg("application initialized")

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if err := application.Start(jobCtx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start background jobs")
	}

	// Create router
	router := api.NewRouter(api.Services{
		System:         application.System,
		Acquisition:    application.Acquisition,
		Recommendation: application.Recommendation,
		Baselines:      application.Baselines,
	}, cfg, logger)

	// The write timeout leaves room for the LLM deadline on top of local scoring.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: max(60*time.Second, cfg.LLM.Timeout+cfg.Acquisition.BatchTimeout),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

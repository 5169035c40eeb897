// Package app wires configuration, storage and services into a runnable application.
// Both the HTTP server and the fundctl CLI build their services here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/database"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/llm"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/repository"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

const quoteSource = "Yahoo Finance"

// App holds the database and the services built on it.
type App struct {
	DB             *sql.DB
	System         *service.SystemService
	Acquisition    *service.AcquisitionService
	Recommendation *service.RecommendationService
	// Baselines is nil when category baselines are disabled.
	Baselines *service.BaselineService
}

// NewQuoteClient returns the quote provider selected by name.
func NewQuoteClient(provider string) (yahoo.Client, error) {
	switch provider {
	case "", "chart":
		return yahoo.NewFinanceClient(), nil
	case "finance-go":
		return yahoo.NewQuoteAPIClient(), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", provider)
	}
}

// New opens and migrates the run journal database and builds every service.
// Close must be called to release the database.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a, err := build(db, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func build(db *sql.DB, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	runRepo := repository.NewRunRepository(db)

	quotes, err := NewQuoteClient(cfg.Acquisition.Provider)
	if err != nil {
		return nil, err
	}
	classifier, err := service.NewClassifier(cfg.Acquisition.Categories)
	if err != nil {
		return nil, fmt.Errorf("category table: %w", err)
	}

	a := &App{DB: db}
	a.Acquisition = service.NewAcquisitionService(
		quotes,
		classifier,
		cfg.Acquisition,
		quoteSource,
		runRepo,
		logger.With().Str("component", "acquisition").Logger(),
	)

	// A typed nil must not reach the BaselineProvider interface.
	var baselines service.BaselineProvider
	if cfg.Baselines.Enabled {
		a.Baselines = service.NewBaselineService(quotes, cfg.Baselines, logger.With().Str("component", "baselines").Logger())
		baselines = a.Baselines
	}

	var chat llm.Client
	if cfg.LLM.Enabled() {
		chat = llm.NewChatClient(cfg.LLM)
	} else {
		logger.Info().Msg("no usable LLM key configured, analysis uses local scoring only")
	}
	a.Recommendation = service.NewRecommendationService(
		chat,
		cfg.LLM,
		baselines,
		runRepo,
		logger.With().Str("component", "recommendation").Logger(),
	)

	a.System = service.NewSystemService(db, runRepo, map[string]bool{
		"aiAnalysis": cfg.LLM.Enabled(),
		"baselines":  cfg.Baselines.Enabled,
	})
	return a, nil
}

// Start launches background jobs.
func (a *App) Start(ctx context.Context) error {
	if a.Baselines == nil {
		return nil
	}
	return a.Baselines.Start(ctx)
}

// Close stops background jobs and closes the database.
func (a *App) Close() error {
	if a.Baselines != nil {
		a.Baselines.Stop()
	}
	return a.DB.Close()
}

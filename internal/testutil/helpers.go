package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/llm"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/repository"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

// TestAcquisitionConfig returns acquisition settings scaled down to milliseconds.
// The serial pass covers the first five symbols, as in production.
func TestAcquisitionConfig() config.AcquisitionConfig {
	return config.AcquisitionConfig{
		Provider:           "chart",
		Symbols:            []string{"AAPL", "MSFT", "SPY"},
		MaxSymbols:         12,
		MaxConcurrency:     12,
		SymbolTimeout:      40 * time.Millisecond,
		BatchTimeout:       100 * time.Millisecond,
		SerialTimeout:      30 * time.Millisecond,
		SerialFallbackSize: 5,
	}
}

// TestLLMConfig returns an enabled LLM configuration with a short timeout.
func TestLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		APIKey:      "sk-test-key",
		BaseURL:     "http://127.0.0.1:0",
		Model:       "deepseek-chat",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     200 * time.Millisecond,
	}
}

// TestBaselineConfig returns baseline settings with a short per-index deadline.
func TestBaselineConfig() config.BaselineConfig {
	return config.BaselineConfig{
		Enabled:         true,
		RefreshSchedule: "@every 15m",
		TTL:             15 * time.Minute,
		SymbolTimeout:   50 * time.Millisecond,
	}
}

// NewTestAcquisitionService creates an AcquisitionService over client without a journal.
func NewTestAcquisitionService(t *testing.T, client yahoo.Client) *service.AcquisitionService {
	t.Helper()
	return NewTestAcquisitionServiceWithConfig(t, client, TestAcquisitionConfig(), nil)
}

// NewTestAcquisitionServiceWithConfig creates an AcquisitionService with custom settings.
// recorder may be nil.
func NewTestAcquisitionServiceWithConfig(t *testing.T, client yahoo.Client, cfg config.AcquisitionConfig, recorder service.RunRecorder) *service.AcquisitionService {
	t.Helper()

	classifier, err := service.NewClassifier(cfg.Categories)
	if err != nil {
		t.Fatalf("Failed to build classifier: %v", err)
	}
	return service.NewAcquisitionService(client, classifier, cfg, "Test", recorder, zerolog.Nop())
}

// NewTestRecommendationService creates a RecommendationService.
// client and baselines may be nil.
func NewTestRecommendationService(t *testing.T, client llm.Client, cfg config.LLMConfig, baselines service.BaselineProvider) *service.RecommendationService {
	t.Helper()
	return service.NewRecommendationService(client, cfg, baselines, nil, zerolog.Nop())
}

// NewTestBaselineService creates a BaselineService over client.
func NewTestBaselineService(t *testing.T, client yahoo.Client) *service.BaselineService {
	t.Helper()
	return service.NewBaselineService(client, TestBaselineConfig(), zerolog.Nop())
}

// NewTestSystemService creates a SystemService backed by db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, repository.NewRunRepository(db), map[string]bool{
		"aiAnalysis": false,
		"baselines":  false,
	})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

package app_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/app"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/testutil"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:    config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "journal.db")},
		Acquisition: testutil.TestAcquisitionConfig(),
		LLM:         config.LLMConfig{Model: "deepseek-chat"},
		Baselines:   testutil.TestBaselineConfig(),
	}
}

func TestNewQuoteClient(t *testing.T) {
	t.Run("chart is the default", func(t *testing.T) {
		for _, name := range []string{"", "chart"} {
			c, err := app.NewQuoteClient(name)
			if err != nil {
				t.Fatalf("NewQuoteClient(%q) returned unexpected error: %v", name, err)
			}
			if _, ok := c.(*yahoo.FinanceClient); !ok {
				t.Errorf("NewQuoteClient(%q) = %T, want *yahoo.FinanceClient", name, c)
			}
		}
	})

	t.Run("finance-go selects the quote API client", func(t *testing.T) {
		c, err := app.NewQuoteClient("finance-go")
		if err != nil {
			t.Fatalf("NewQuoteClient() returned unexpected error: %v", err)
		}
		if _, ok := c.(*yahoo.QuoteAPIClient); !ok {
			t.Errorf("NewQuoteClient() = %T, want *yahoo.QuoteAPIClient", c)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := app.NewQuoteClient("bloomberg"); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}

// TestNew tests wiring the application from configuration.
//
// WHY: Feature flags on the version endpoint come from the wiring, and a disabled
// baseline service must not be started or stopped.
func TestNew(t *testing.T) {
	t.Run("builds every service", func(t *testing.T) {
		// Setup
		cfg := testConfig(t)

		// Execute
		a, err := app.New(cfg, zerolog.Nop())

		// Assert
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		t.Cleanup(func() { a.Close() })

		if a.Acquisition == nil || a.Recommendation == nil || a.System == nil || a.Baselines == nil {
			t.Fatalf("services not built: %+v", a)
		}
		if a.Recommendation.AIEnabled() {
			t.Error("AI enabled without a key")
		}
		info, err := a.System.GetVersionInfo()
		if err != nil {
			t.Fatalf("GetVersionInfo() returned unexpected error: %v", err)
		}
		if info.Features["aiAnalysis"] || !info.Features["baselines"] {
			t.Errorf("unexpected features %v", info.Features)
		}
	})

	t.Run("baselines disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Baselines.Enabled = false

		a, err := app.New(cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}

		if a.Baselines != nil {
			t.Error("baseline service built while disabled")
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close() returned unexpected error: %v", err)
		}
	})

	t.Run("AI enabled with a key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM = testutil.TestLLMConfig()

		a, err := app.New(cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		t.Cleanup(func() { a.Close() })

		if !a.Recommendation.AIEnabled() {
			t.Error("AI not enabled with a well-formed key")
		}
	})

	t.Run("invalid category override", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Acquisition.Categories = map[string]string{"ARKK": "crypto"}

		if _, err := app.New(cfg, zerolog.Nop()); err == nil {
			t.Error("expected error for invalid category override")
		}
	})
}

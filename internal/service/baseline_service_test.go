package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/testutil"
)

func indexClient() *testutil.MockQuoteClient {
	return testutil.NewMockQuoteClient().
		WithQuote("^GSPC", 5000, 1.0).
		WithQuote("^DJI", 39000, 0.2).
		WithQuote("^IXIC", 16000, 1.5).
		WithQuote("^RUT", 2000, -0.3)
}

// TestComputeBaselines tests the index to category mapping.
//
// WHY: Category averages drive the excess returns shown to users, so each rule and
// its zero default must hold exactly.
func TestComputeBaselines(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("derives each category from the indices", func(t *testing.T) {
		b := service.ComputeBaselines(map[string]float64{"^GSPC": 1.0, "^DJI": 0.2}, now)

		want := map[model.Category]model.CategoryBaseline{
			model.CategoryEquity: {OneYearReturn: 45, ThreeYearReturn: 135},
			model.CategoryMixed:  {OneYearReturn: 30, ThreeYearReturn: 90},
			model.CategoryIndex:  {OneYearReturn: 40, ThreeYearReturn: 120},
			model.CategoryBond:   {OneYearReturn: 5, ThreeYearReturn: 15},
		}
		for c, w := range want {
			if got := b.Categories[c]; got != w {
				t.Errorf("%s = %+v, want %+v", c, got, w)
			}
		}
		if !b.ComputedAt.Equal(now) {
			t.Errorf("ComputedAt = %v, want %v", b.ComputedAt, now)
		}
	})

	t.Run("bond baseline uses the absolute move", func(t *testing.T) {
		b := service.ComputeBaselines(map[string]float64{"^GSPC": -1.0}, now)

		if got := b.Categories[model.CategoryBond].OneYearReturn; got != 5 {
			t.Errorf("bond one year = %v, want 5", got)
		}
		if got := b.Categories[model.CategoryEquity].OneYearReturn; got != -45 {
			t.Errorf("equity one year = %v, want -45", got)
		}
	})

	t.Run("flat indices use defaults", func(t *testing.T) {
		b := service.ComputeBaselines(map[string]float64{"^GSPC": 0}, now)

		want := map[model.Category]model.CategoryBaseline{
			model.CategoryEquity: {OneYearReturn: 22.5, ThreeYearReturn: 67.5},
			model.CategoryMixed:  {OneYearReturn: 12.5, ThreeYearReturn: 37.5},
			model.CategoryIndex:  {OneYearReturn: 20, ThreeYearReturn: 60},
			model.CategoryBond:   {OneYearReturn: 2.5, ThreeYearReturn: 7.5},
		}
		for c, w := range want {
			if got := b.Categories[c]; got != w {
				t.Errorf("%s = %+v, want default %+v", c, got, w)
			}
		}
	})

	t.Run("rounds index changes", func(t *testing.T) {
		b := service.ComputeBaselines(map[string]float64{"^GSPC": 0.12345}, now)

		if got := b.IndexChanges["^GSPC"]; got != 0.12 {
			t.Errorf("^GSPC change = %v, want 0.12", got)
		}
	})
}

// TestBaselineService_Current tests fetching and caching of baselines.
//
// WHY: Every analysis asks for baselines. They must be fetched once per TTL and a
// total provider outage must be reported instead of fabricated.
func TestBaselineService_Current(t *testing.T) {
	t.Run("fetches every index and caches the result", func(t *testing.T) {
		// Setup
		client := indexClient()
		svc := testutil.NewTestBaselineService(t, client)

		// Execute
		first, err := svc.Current(context.Background())
		if err != nil {
			t.Fatalf("Current() returned unexpected error: %v", err)
		}
		second, err := svc.Current(context.Background())
		if err != nil {
			t.Fatalf("Current() returned unexpected error: %v", err)
		}

		// Assert
		if first != second {
			t.Error("second call did not return the cached snapshot")
		}
		for _, idx := range service.BaselineIndices {
			if n := client.CallCount(idx); n != 1 {
				t.Errorf("%s queried %d times, want 1", idx, n)
			}
		}
		if got := first.Categories[model.CategoryMixed].OneYearReturn; got != 30 {
			t.Errorf("mixed one year = %v, want 30", got)
		}
		if svc.Cached() != first {
			t.Error("Cached() does not return the current snapshot")
		}
	})

	t.Run("refetches after the TTL", func(t *testing.T) {
		// Setup
		client := indexClient()
		cfg := testutil.TestBaselineConfig()
		cfg.TTL = time.Millisecond
		svc := service.NewBaselineService(client, cfg, zerolog.Nop())

		// Execute
		if _, err := svc.Current(context.Background()); err != nil {
			t.Fatalf("Current() returned unexpected error: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, err := svc.Current(context.Background()); err != nil {
			t.Fatalf("Current() returned unexpected error: %v", err)
		}

		// Assert
		if n := client.CallCount("^GSPC"); n != 2 {
			t.Errorf("^GSPC queried %d times, want 2", n)
		}
	})

	t.Run("missing indices count as flat", func(t *testing.T) {
		client := testutil.NewMockQuoteClient().
			WithQuote("^GSPC", 5000, 1.0).
			WithRawQuote(model.RawQuote{Symbol: "^DJI", Price: 39000})
		svc := testutil.NewTestBaselineService(t, client)

		b, err := svc.Current(context.Background())

		if err != nil {
			t.Fatalf("Current() returned unexpected error: %v", err)
		}
		if got := b.Categories[model.CategoryMixed].OneYearReturn; got != 25 {
			t.Errorf("mixed one year = %v, want 25", got)
		}
		if _, ok := b.IndexChanges["^IXIC"]; ok {
			t.Error("IndexChanges contains an index that failed to fetch")
		}
	})

	t.Run("fails when no index can be fetched", func(t *testing.T) {
		client := testutil.NewMockQuoteClient().WithDelayAll(time.Second)
		svc := testutil.NewTestBaselineService(t, client)

		_, err := svc.Current(context.Background())

		if !errors.Is(err, apperrors.ErrBaselinesUnavailable) {
			t.Errorf("expected ErrBaselinesUnavailable, got %v", err)
		}
		if svc.Cached() != nil {
			t.Error("failed refresh populated the cache")
		}
	})

	t.Run("concurrent refreshes share fetches", func(t *testing.T) {
		// Setup
		client := indexClient().WithDelayAll(30 * time.Millisecond)
		svc := testutil.NewTestBaselineService(t, client)

		// Execute
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Refresh(context.Background()); err != nil {
					t.Errorf("Refresh() returned unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		// Assert
		if n := client.CallCount("^GSPC"); n >= 5 {
			t.Errorf("^GSPC queried %d times for 5 concurrent refreshes", n)
		}
	})
}

func TestBaselineService_Schedule(t *testing.T) {
	t.Run("rejects an invalid schedule", func(t *testing.T) {
		cfg := testutil.TestBaselineConfig()
		cfg.RefreshSchedule = "every so often"
		svc := service.NewBaselineService(indexClient(), cfg, zerolog.Nop())

		if err := svc.Start(context.Background()); err == nil {
			t.Fatal("expected error for invalid schedule")
		}
		svc.Stop()
	})

	t.Run("starts and stops", func(t *testing.T) {
		svc := testutil.NewTestBaselineService(t, indexClient())

		if err := svc.Start(context.Background()); err != nil {
			t.Fatalf("Start() returned unexpected error: %v", err)
		}
		svc.Stop()
	})
}

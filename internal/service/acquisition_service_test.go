package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/repository"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/testutil"
)

// batchTimeoutConfig makes the aggregate deadline fire well before any per-symbol deadline.
func batchTimeoutConfig() config.AcquisitionConfig {
	cfg := testutil.TestAcquisitionConfig()
	cfg.SymbolTimeout = 300 * time.Millisecond
	cfg.BatchTimeout = 50 * time.Millisecond
	cfg.SerialTimeout = 20 * time.Millisecond
	return cfg
}

func codes(records []model.FundRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Code
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestAcquisitionService_Acquire tests the parallel acquisition phase.
//
// WHY: One slow or broken symbol must never fail the batch. Records come back in
// request order with the codes derived from the requested symbols.
func TestAcquisitionService_Acquire(t *testing.T) {
	t.Run("returns all records in request order", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().
			WithQuote("AAPL", 190.5, 1.2).
			WithQuote("MSFT", 410.25, -0.4).
			WithQuote("SPY", 500, 0.1)
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), []string{"aapl", " MSFT ", "SPY"})

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		want := []string{"aapl00", "msft00", "spy000"}
		if got := codes(records); !sameStrings(got, want) {
			t.Errorf("codes = %v, want %v", got, want)
		}
		if records[0].Symbol != "AAPL" {
			t.Errorf("Symbol = %q, want AAPL", records[0].Symbol)
		}
		if records[2].Category != model.CategoryIndex {
			t.Errorf("SPY category = %s, want index", records[2].Category)
		}
		if records[0].Source != "Test" {
			t.Errorf("Source = %q, want Test", records[0].Source)
		}
	})

	t.Run("skips a symbol that exceeds its own deadline", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().
			WithQuote("A", 10, 1).
			WithQuote("B", 20, 1).
			WithQuote("C", 30, 1).
			WithDelay("B", time.Second)
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		start := time.Now()
		records, err := svc.Acquire(context.Background(), []string{"A", "B", "C"})
		elapsed := time.Since(start)

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		want := []string{"a00000", "c00000"}
		if got := codes(records); !sameStrings(got, want) {
			t.Errorf("codes = %v, want %v", got, want)
		}
		if elapsed > 500*time.Millisecond {
			t.Errorf("Acquire() took %v, slow symbol was not abandoned", elapsed)
		}
		if client.CallCount("B") != 1 {
			t.Errorf("B queried %d times, want 1 (no serial pass)", client.CallCount("B"))
		}
	})

	t.Run("skips failing and invalid quotes", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().
			WithQuote("GOOD", 10, 0.5).
			WithQuote("ZERO", 0, 0.5).
			WithError("FAIL", errors.New("upstream 500"))
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), []string{"FAIL", "ZERO", "GOOD", "MISSING"})

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		if got := codes(records); !sameStrings(got, []string{"good00"}) {
			t.Errorf("codes = %v, want [good00]", got)
		}
	})

	t.Run("names a fund after its symbol when the provider has no name", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().WithRawQuote(model.RawQuote{Symbol: "NDX", Price: 440})
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), []string{"NDX"})

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		if records[0].Name != "NDX" || records[0].Code != "ndx000" {
			t.Errorf("got name %q code %q, want NDX ndx000", records[0].Name, records[0].Code)
		}
		if records[0].RiskLevel != model.RiskMedium {
			t.Errorf("RiskLevel = %s, want medium without a change", records[0].RiskLevel)
		}
	})

	t.Run("keeps the first symbol on a code collision", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().
			WithQuote("BRK.B", 400, 0.3).
			WithQuote("BRKB", 401, 0.3)
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), []string{"BRK.B", "BRKB"})

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if records[0].Symbol != "BRK.B" {
			t.Errorf("kept %q, want BRK.B", records[0].Symbol)
		}
	})

	t.Run("caps and de-duplicates the symbol list", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient()
		symbols := []string{"AAPL", "aapl"}
		for i := 0; i < 15; i++ {
			s := fmt.Sprintf("S%02d", i)
			client.WithQuote(s, 10, 0.1)
			symbols = append(symbols, s)
		}
		client.WithQuote("AAPL", 190, 0.1)
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), symbols)

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		if len(records) != 12 {
			t.Errorf("expected 12 records, got %d", len(records))
		}
		if client.CallCount("AAPL") != 1 {
			t.Errorf("AAPL queried %d times, want 1", client.CallCount("AAPL"))
		}
		if client.CallCount("S11") != 0 {
			t.Errorf("S11 beyond the cap was queried")
		}
	})

	t.Run("uses the configured universe for an empty request", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().
			WithQuote("AAPL", 190, 0.1).
			WithQuote("MSFT", 410, 0.1).
			WithQuote("SPY", 500, 0.1)
		svc := testutil.NewTestAcquisitionService(t, client)

		// Execute
		records, err := svc.Acquire(context.Background(), nil)

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Errorf("expected 3 records, got %d", len(records))
		}
	})

	t.Run("rejects a blank symbol list", func(t *testing.T) {
		svc := testutil.NewTestAcquisitionService(t, testutil.NewMockQuoteClient())

		_, err := svc.Acquire(context.Background(), []string{" ", ""})

		if !errors.Is(err, apperrors.ErrNoSymbols) {
			t.Errorf("expected ErrNoSymbols, got %v", err)
		}
	})

	t.Run("returns data unavailable when every symbol fails", func(t *testing.T) {
		client := testutil.NewMockQuoteClient().WithError("A", errors.New("boom"))
		svc := testutil.NewTestAcquisitionService(t, client)

		records, err := svc.Acquire(context.Background(), []string{"A", "B"})

		if !errors.Is(err, apperrors.ErrDataUnavailable) {
			t.Errorf("expected ErrDataUnavailable, got %v", err)
		}
		if records != nil {
			t.Errorf("expected nil records, got %v", records)
		}
	})
}

// TestAcquisitionService_SerialFallback tests the degradation path after the batch deadline.
//
// WHY: When the aggregate deadline fires, parallel results are discarded and only the
// first five symbols are retried one by one. A batch with nothing usable after both
// phases is the only acquisition failure.
func TestAcquisitionService_SerialFallback(t *testing.T) {
	t.Run("retries only the first five symbols", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().WithDelayAll(time.Second)
		symbols := []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7"}
		for _, s := range symbols {
			client.WithQuote(s, 10, 0.1)
		}
		svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, batchTimeoutConfig(), nil)

		// Execute
		_, err := svc.Acquire(context.Background(), symbols)

		// Assert
		if !errors.Is(err, apperrors.ErrDataUnavailable) {
			t.Fatalf("expected ErrDataUnavailable, got %v", err)
		}
		for _, s := range symbols[:5] {
			if n := client.CallCount(s); n != 2 {
				t.Errorf("%s queried %d times, want 2 (parallel and serial)", s, n)
			}
		}
		for _, s := range symbols[5:] {
			if n := client.CallCount(s); n != 1 {
				t.Errorf("%s queried %d times, want 1 (parallel only)", s, n)
			}
		}
	})

	t.Run("serial pass recovers fast symbols", func(t *testing.T) {
		// Setup: one slot and a slow head symbol force the batch deadline.
		cfg := batchTimeoutConfig()
		cfg.MaxConcurrency = 1
		cfg.SerialTimeout = 100 * time.Millisecond
		client := testutil.NewMockQuoteClient().WithDelay("SLOW", time.Second)
		symbols := []string{"SLOW", "A", "B", "C", "D", "E"}
		for _, s := range symbols {
			client.WithQuote(s, 10, 0.1)
		}
		svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, cfg, nil)

		// Execute
		records, err := svc.Acquire(context.Background(), symbols)

		// Assert
		if err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}
		want := []string{"a00000", "b00000", "c00000", "d00000"}
		if got := codes(records); !sameStrings(got, want) {
			t.Errorf("codes = %v, want %v", got, want)
		}
	})

	t.Run("aggregate deadline always reaches the serial pass", func(t *testing.T) {
		// Cancelling the shared batch context settles every fetch at the moment the
		// deadline fires. Repeat so a lost race between the two shows up.
		for i := range 20 {
			// Setup
			client := testutil.NewMockQuoteClient().WithDelay("A", time.Second).WithQuote("A", 10, 0.1)
			svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, batchTimeoutConfig(), nil)

			// Execute
			_, err := svc.Acquire(context.Background(), []string{"A"})

			// Assert
			if !errors.Is(err, apperrors.ErrDataUnavailable) {
				t.Fatalf("run %d: expected ErrDataUnavailable, got %v", i, err)
			}
			if n := client.CallCount("A"); n != 2 {
				t.Fatalf("run %d: A queried %d times, want 2 (parallel and serial)", i, n)
			}
		}
	})

	t.Run("caller cancellation is returned as is", func(t *testing.T) {
		// Setup
		client := testutil.NewMockQuoteClient().WithDelayAll(time.Second).WithQuote("A", 10, 0.1)
		cfg := batchTimeoutConfig()
		cfg.BatchTimeout = 500 * time.Millisecond
		svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, cfg, nil)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		// Execute
		_, err := svc.Acquire(ctx, []string{"A"})

		// Assert
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestAcquisitionService_Journal tests that every acquisition writes one run entry.
//
// WHY: The run log is the operational record of which path a batch took. It must
// capture both successes and failures without storing any fund data.
func TestAcquisitionService_Journal(t *testing.T) {
	t.Run("records a successful parallel batch", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewRunRepository(db)
		client := testutil.NewMockQuoteClient().WithQuote("A", 10, 0.1)
		svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, testutil.TestAcquisitionConfig(), repo)

		// Execute
		if _, err := svc.Acquire(context.Background(), []string{"A", "B"}); err != nil {
			t.Fatalf("Acquire() returned unexpected error: %v", err)
		}

		// Assert
		runs, err := repo.GetRuns(context.Background(), model.RunFilters{Limit: 10})
		if err != nil {
			t.Fatalf("GetRuns() returned unexpected error: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		r := runs[0]
		if r.Kind != model.RunKindAcquire || r.Requested != 2 || r.Succeeded != 1 {
			t.Errorf("unexpected run %+v", r)
		}
		if r.Path != model.PhaseParallel || r.Outcome != model.RunOutcomeOK {
			t.Errorf("path/outcome = %s/%s, want parallel/ok", r.Path, r.Outcome)
		}
	})

	t.Run("records a serial batch with no data", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewRunRepository(db)
		client := testutil.NewMockQuoteClient().WithDelayAll(time.Second)
		svc := testutil.NewTestAcquisitionServiceWithConfig(t, client, batchTimeoutConfig(), repo)

		// Execute
		_, _ = svc.Acquire(context.Background(), []string{"A"})

		// Assert
		runs, err := repo.GetRuns(context.Background(), model.RunFilters{Limit: 10})
		if err != nil {
			t.Fatalf("GetRuns() returned unexpected error: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].Path != model.PhaseSerial || runs[0].Outcome != model.RunOutcomeDataUnavailable {
			t.Errorf("path/outcome = %s/%s, want serial/data_unavailable", runs[0].Path, runs[0].Outcome)
		}
	})
}

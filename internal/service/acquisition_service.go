package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

// errBatchTimeout marks an aggregate deadline hit during the parallel phase.
var errBatchTimeout = errors.New("parallel batch timed out")

// AcquisitionService fetches quotes for a bounded symbol list and normalizes them
// into fund records.
//
// The parallel phase fans out one fetch per symbol under a per-symbol deadline, all
// under one aggregate deadline. If the aggregate deadline fires first, every parallel
// result is dropped and a short serial pass retries a prefix of the list. Individual
// symbol failures are logged and skipped; only an empty outcome is an error.
type AcquisitionService struct {
	client     yahoo.Client
	classifier *Classifier
	cfg        config.AcquisitionConfig
	source     string
	journal    journal
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAcquisitionService creates an AcquisitionService.
// source is stamped on every record; recorder may be nil.
func NewAcquisitionService(
	client yahoo.Client,
	classifier *Classifier,
	cfg config.AcquisitionConfig,
	source string,
	recorder RunRecorder,
	logger zerolog.Logger,
) *AcquisitionService {
	return &AcquisitionService{
		client:     client,
		classifier: classifier,
		cfg:        cfg,
		source:     source,
		journal:    journal{rec: recorder, logger: logger},
		logger:     logger,
		now:        time.Now,
	}
}

// Acquire returns normalized fund records for symbols. An empty list uses the configured universe.
//
// Returns:
//   - apperrors.ErrNoSymbols when no symbol is left after cleaning
//   - apperrors.ErrDataUnavailable when no symbol produced a usable quote
//   - ctx.Err() when the caller cancels
func (s *AcquisitionService) Acquire(ctx context.Context, symbols []string) ([]model.FundRecord, error) {
	if len(symbols) == 0 {
		symbols = s.cfg.Symbols
	}
	symbols = cleanSymbols(symbols, s.cfg.MaxSymbols)
	if len(symbols) == 0 {
		return nil, apperrors.ErrNoSymbols
	}

	started := s.now()
	run := model.Run{Kind: model.RunKindAcquire, Requested: len(symbols), Path: model.PhaseParallel}

	records, err := s.fetchParallel(ctx, symbols)
	if errors.Is(err, errBatchTimeout) {
		prefix := symbols[:min(s.cfg.SerialFallbackSize, len(symbols))]
		s.logger.Warn().
			Int("symbols", len(symbols)).
			Int("serial", len(prefix)).
			Dur("batch_timeout", s.cfg.BatchTimeout).
			Msg("parallel quote batch timed out, falling back to serial fetch")
		run.Path = model.PhaseSerial
		records, err = s.fetchSerial(ctx, prefix)
	}
	if err == nil && len(records) == 0 && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		run.Outcome = model.RunOutcomeError
		run.Detail = err.Error()
		s.journal.record(ctx, run, started)
		return nil, err
	}

	records = s.dedupe(records)
	run.Succeeded = len(records)

	if len(records) == 0 {
		s.logger.Error().Int("symbols", len(symbols)).Str("phase", run.Path).Msg("no usable quotes in batch")
		run.Outcome = model.RunOutcomeDataUnavailable
		s.journal.record(ctx, run, started)
		return nil, apperrors.ErrDataUnavailable
	}

	s.logger.Info().
		Int("requested", len(symbols)).
		Int("succeeded", len(records)).
		Str("phase", run.Path).
		Msg("quote batch acquired")
	run.Outcome = model.RunOutcomeOK
	s.journal.record(ctx, run, started)
	return records, nil
}

// fetchParallel runs one fetch per symbol and returns the successful records in input order.
// It returns errBatchTimeout when the aggregate deadline fires before every fetch settled.
func (s *AcquisitionService) fetchParallel(ctx context.Context, symbols []string) ([]model.FundRecord, error) {
	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	slots := make([]*model.FundRecord, len(symbols))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var g errgroup.Group
		if s.cfg.MaxConcurrency > 0 {
			g.SetLimit(s.cfg.MaxConcurrency)
		}
		for i, symbol := range symbols {
			g.Go(func() error {
				record, err := s.fetchRecord(batchCtx, symbol, s.cfg.SymbolTimeout)
				if err != nil {
					s.logSymbolFailure(symbol, err)
					return nil
				}
				slots[i] = &record
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-batchCtx.Done():
		select {
		case <-done:
		default:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, errBatchTimeout
		}
	}

	// Fetches share batchCtx, so the aggregate deadline settles the group at the
	// same moment it fires. Only a fully filled batch survives the deadline.
	if ctx.Err() == nil && errors.Is(batchCtx.Err(), context.DeadlineExceeded) && !allFilled(slots) {
		return nil, errBatchTimeout
	}
	return collectSlots(slots), nil
}

// fetchSerial fetches symbols one at a time under the serial deadline.
func (s *AcquisitionService) fetchSerial(ctx context.Context, symbols []string) ([]model.FundRecord, error) {
	records := make([]model.FundRecord, 0, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := s.fetchRecord(ctx, symbol, s.cfg.SerialTimeout)
		if err != nil {
			s.logSymbolFailure(symbol, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// fetchRecord fetches and normalizes a single symbol.
func (s *AcquisitionService) fetchRecord(ctx context.Context, symbol string, timeout time.Duration) (model.FundRecord, error) {
	q, err := fetchQuote(ctx, s.client, symbol, timeout)
	if err != nil {
		return model.FundRecord{}, err
	}
	q.Symbol = symbol
	return NormalizeQuote(q, s.classifier, s.source, s.now())
}

// dedupe keeps the first record for each fund code.
func (s *AcquisitionService) dedupe(records []model.FundRecord) []model.FundRecord {
	seen := make(map[string]string, len(records))
	out := records[:0]
	for _, r := range records {
		if first, dup := seen[r.Code]; dup {
			s.logger.Warn().
				Str("code", r.Code).
				Str("symbol", r.Symbol).
				Str("kept", first).
				Msg("fund code collision, dropping later symbol")
			continue
		}
		seen[r.Code] = r.Symbol
		out = append(out, r)
	}
	return out
}

func (s *AcquisitionService) logSymbolFailure(symbol string, err error) {
	s.logger.Warn().Str("symbol", symbol).Err(err).Msg("quote fetch failed")
}

// fetchQuote calls the provider under a per-symbol deadline. A deadline hit on
// the symbol's own timer is reported as apperrors.ErrProviderTimeout.
func fetchQuote(ctx context.Context, client yahoo.Client, symbol string, timeout time.Duration) (model.RawQuote, error) {
	symCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q, err := withDeadline(symCtx, func(c context.Context) (model.RawQuote, error) {
		return client.QueryQuote(c, symbol)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return model.RawQuote{}, fmt.Errorf("%s after %s: %w", symbol, timeout, apperrors.ErrProviderTimeout)
		}
		return model.RawQuote{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return q, nil
}

func allFilled(slots []*model.FundRecord) bool {
	for _, r := range slots {
		if r == nil {
			return false
		}
	}
	return true
}

func collectSlots(slots []*model.FundRecord) []model.FundRecord {
	records := make([]model.FundRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records
}

package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/yahoo"
)

// Market indices the category baselines are derived from.
const (
	indexSP500   = "^GSPC"
	indexDow     = "^DJI"
	indexNasdaq  = "^IXIC"
	indexRussell = "^RUT"
)

// BaselineIndices lists the index symbols fetched for every refresh.
var BaselineIndices = []string{indexSP500, indexDow, indexNasdaq, indexRussell}

// baselineRule maps the index changes to a category's one and three year averages.
// A computed value of exactly zero is replaced by the default.
type baselineRule struct {
	category         model.Category
	signal           func(changes map[string]float64) float64
	oneYear, threeYr float64 // multipliers
	defOne, defThree float64
}

var baselineRules = []baselineRule{
	{model.CategoryEquity, func(c map[string]float64) float64 { return c[indexSP500] }, 45, 135, 22.5, 67.5},
	{model.CategoryMixed, func(c map[string]float64) float64 { return c[indexSP500] + c[indexDow] }, 25, 75, 12.5, 37.5},
	{model.CategoryIndex, func(c map[string]float64) float64 { return c[indexSP500] }, 40, 120, 20, 60},
	{model.CategoryBond, func(c map[string]float64) float64 { return math.Abs(c[indexSP500]) }, 5, 15, 2.5, 7.5},
}

// ComputeBaselines derives category baselines from index percent changes.
// Indices missing from changes count as zero.
func ComputeBaselines(changes map[string]float64, now time.Time) *model.Baselines {
	categories := make(map[model.Category]model.CategoryBaseline, len(baselineRules))
	for _, r := range baselineRules {
		sig := r.signal(changes)
		categories[r.category] = model.CategoryBaseline{
			OneYearReturn:   orDefault(round2(sig*r.oneYear), r.defOne),
			ThreeYearReturn: orDefault(round2(sig*r.threeYr), r.defThree),
		}
	}

	indexChanges := make(map[string]float64, len(changes))
	for k, v := range changes {
		indexChanges[k] = round2(v)
	}

	return &model.Baselines{
		Categories:   categories,
		IndexChanges: indexChanges,
		ComputedAt:   now.UTC(),
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// BaselineService caches category baselines and refreshes them on a schedule.
// Concurrent refreshes share one set of index fetches.
type BaselineService struct {
	client yahoo.Client
	cfg    config.BaselineConfig
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	cached *model.Baselines

	group singleflight.Group
	cron  *cron.Cron
}

// NewBaselineService creates a BaselineService. Call Start to enable scheduled refreshes.
func NewBaselineService(client yahoo.Client, cfg config.BaselineConfig, logger zerolog.Logger) *BaselineService {
	return &BaselineService{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Current returns cached baselines while they are younger than the TTL, refreshing otherwise.
func (s *BaselineService) Current(ctx context.Context) (*model.Baselines, error) {
	s.mu.RLock()
	b := s.cached
	s.mu.RUnlock()

	if b != nil && s.now().Sub(b.ComputedAt) < s.cfg.TTL {
		return b, nil
	}
	return s.Refresh(ctx)
}

// Cached returns the last computed baselines without fetching, or nil.
func (s *BaselineService) Cached() *model.Baselines {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// Refresh fetches the index quotes and replaces the cache.
// It returns apperrors.ErrBaselinesUnavailable when no index could be fetched,
// leaving any previous cache untouched.
func (s *BaselineService) Refresh(ctx context.Context) (*model.Baselines, error) {
	v, err, _ := s.group.Do("baselines", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Baselines), nil
}

func (s *BaselineService) refresh(ctx context.Context) (*model.Baselines, error) {
	var (
		mu      sync.Mutex
		changes = make(map[string]float64, len(BaselineIndices))
		g       errgroup.Group
	)

	for _, symbol := range BaselineIndices {
		g.Go(func() error {
			q, err := fetchQuote(ctx, s.client, symbol, s.cfg.SymbolTimeout)
			if err != nil {
				s.logger.Warn().Str("index", symbol).Err(err).Msg("index quote fetch failed")
				return nil
			}
			change := 0.0
			if q.ChangePercent != nil && !math.IsNaN(*q.ChangePercent) && !math.IsInf(*q.ChangePercent, 0) {
				change = *q.ChangePercent
			}
			mu.Lock()
			changes[symbol] = change
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no index quote could be fetched", apperrors.ErrBaselinesUnavailable)
	}

	b := ComputeBaselines(changes, s.now())

	s.mu.Lock()
	s.cached = b
	s.mu.Unlock()

	s.logger.Debug().Int("indices", len(changes)).Msg("category baselines refreshed")
	return b, nil
}

// Start schedules background refreshes using the configured cron spec.
func (s *BaselineService) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshSchedule, func() {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("scheduled baseline refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("register baseline refresh: %w", err)
	}
	s.cron = c
	c.Start()
	s.logger.Info().Str("schedule", s.cfg.RefreshSchedule).Msg("baseline refresh scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *BaselineService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("baseline refresh scheduler stopped")
}

package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/config"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/llm"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

const minCandidates = 2

// BaselineProvider supplies current category baselines.
// It returns apperrors.ErrBaselinesUnavailable when none can be computed.
type BaselineProvider interface {
	Current(ctx context.Context) (*model.Baselines, error)
}

// RecommendationService ranks a caller-selected set of funds.
//
// When a well-formed LLM credential is configured the model is asked first. Its answer
// is used only if it validates; any failure discards it and the report is rebuilt from
// the local scorer. The two are never mixed.
type RecommendationService struct {
	llm       llm.Client
	cfg       config.LLMConfig
	baselines BaselineProvider
	journal   journal
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRecommendationService creates a RecommendationService.
// client and baselines may be nil; a nil client or a malformed key disables the AI path.
func NewRecommendationService(
	client llm.Client,
	cfg config.LLMConfig,
	baselines BaselineProvider,
	recorder RunRecorder,
	logger zerolog.Logger,
) *RecommendationService {
	return &RecommendationService{
		llm:       client,
		cfg:       cfg,
		baselines: baselines,
		journal:   journal{rec: recorder, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

// AIEnabled reports whether Recommend will attempt the AI path.
func (s *RecommendationService) AIEnabled() bool {
	return s.llm != nil && s.cfg.Enabled()
}

// Recommend returns a report with up to three ranked funds.
// It fails only with apperrors.ErrInsufficientCandidates when fewer than two funds are given.
func (s *RecommendationService) Recommend(ctx context.Context, funds []model.FundRecord) (model.RecommendationReport, error) {
	started := s.now()
	run := model.Run{Kind: model.RunKindAnalyze, Requested: len(funds)}

	if len(funds) < minCandidates {
		run.Outcome = model.RunOutcomeInsufficientCandidate
		s.journal.record(ctx, run, started)
		return model.RecommendationReport{}, apperrors.ErrInsufficientCandidates
	}

	baselines := s.loadBaselines(ctx)
	scored := ScoreFunds(funds, baselines)

	var report model.RecommendationReport
	var fallbackReason string

	if s.AIEnabled() {
		aiReport, err := s.recommendWithAI(ctx, scored, baselines)
		if err == nil {
			report = aiReport
		} else {
			fallbackReason = err.Error()
			s.logger.Warn().Err(err).Int("funds", len(funds)).Msg("ai analysis discarded, using local scoring")
		}
	}

	if report.Provenance == "" {
		report = s.buildLocalReport(scored, baselines)
		report.FallbackReason = fallbackReason
	}

	report.ID = uuid.NewString()
	report.AnalyzedAt = s.now().UTC()
	report.CandidateCount = len(funds)

	run.Succeeded = len(report.Items)
	run.Path = string(report.Provenance)
	run.Outcome = model.RunOutcomeOK
	run.Detail = fallbackReason
	s.journal.record(ctx, run, started)

	s.logger.Info().
		Str("provenance", string(report.Provenance)).
		Strs("recommendations", report.Recommendations).
		Int("funds", len(funds)).
		Msg("analysis complete")

	return report, nil
}

func (s *RecommendationService) loadBaselines(ctx context.Context) *model.Baselines {
	if s.baselines == nil {
		return nil
	}
	b, err := s.baselines.Current(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("category baselines unavailable, scoring without them")
		return nil
	}
	return b
}

// recommendWithAI asks the model and converts a validated answer into a report.
// Every error wraps apperrors.ErrAIDelegationFailed or apperrors.ErrAIResponseInvalid.
func (s *RecommendationService) recommendWithAI(ctx context.Context, scored []model.ScoredFund, baselines *model.Baselines) (model.RecommendationReport, error) {
	candidates := scored[:min(len(scored), maxPromptCandidates)]

	prompt, err := buildPrompt(candidates, baselines)
	if err != nil {
		return model.RecommendationReport{}, fmt.Errorf("%w: %v", apperrors.ErrAIDelegationFailed, err)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := withDeadline(aiCtx, func(c context.Context) (string, error) {
		return s.llm.Complete(c, prompt)
	})
	if err != nil {
		return model.RecommendationReport{}, fmt.Errorf("%w: %v", apperrors.ErrAIDelegationFailed, err)
	}

	codes := make([]string, len(candidates))
	byCode := make(map[string]model.ScoredFund, len(candidates))
	for i, c := range candidates {
		codes[i] = c.Code
		if _, dup := byCode[c.Code]; !dup {
			byCode[c.Code] = c
		}
	}

	switch r := ParseAIResponse(text, codes).(type) {
	case *InvalidAIResult:
		return model.RecommendationReport{}, r.Reason
	case *ValidAIResult:
		items := make([]model.ReportItem, len(r.Recommendations))
		for i, code := range r.Recommendations {
			f := byCode[code]
			entry := r.Entries[code]
			reasons := []string(entry.Reasons)
			if reasons == nil {
				reasons = []string{}
			}
			items[i] = model.ReportItem{
				Code:            f.Code,
				Name:            f.Name,
				Score:           round2(float64(entry.Score)),
				OneYearReturn:   f.OneYearReturn,
				ThreeYearReturn: f.ThreeYearReturn,
				ExcessReturn:    f.ExcessReturn,
				RiskLevel:       f.RiskLevel,
				Reasons:         reasons,
				Narrative:       strings.TrimSpace(entry.Analysis),
			}
		}
		return model.RecommendationReport{
			Recommendations: r.Recommendations,
			Items:           items,
			MarketAnalysis:  r.MarketAnalysis,
			Provenance:      model.ProvenanceAI,
		}, nil
	default:
		return model.RecommendationReport{}, fmt.Errorf("%w: unexpected result %T", apperrors.ErrAIResponseInvalid, r)
	}
}

// buildLocalReport ranks every scored fund and explains the top picks.
func (s *RecommendationService) buildLocalReport(scored []model.ScoredFund, baselines *model.Baselines) model.RecommendationReport {
	ranked := RankFunds(scored)

	codes := make([]string, len(ranked))
	items := make([]model.ReportItem, len(ranked))
	for i, f := range ranked {
		codes[i] = f.Code
		items[i] = model.ReportItem{
			Code:            f.Code,
			Name:            f.Name,
			Score:           round2(f.Score),
			OneYearReturn:   f.OneYearReturn,
			ThreeYearReturn: f.ThreeYearReturn,
			ExcessReturn:    f.ExcessReturn,
			RiskLevel:       f.RiskLevel,
			Reasons:         localReasons(f),
			Narrative:       localNarrative(f),
		}
	}

	return model.RecommendationReport{
		Recommendations: codes,
		Items:           items,
		MarketAnalysis:  localMarketAnalysis(len(scored), len(ranked), baselines),
		Provenance:      model.ProvenanceLocalFallback,
	}
}

func localReasons(f model.ScoredFund) []string {
	performance := "positive"
	if f.OneYearReturn < 0 {
		performance = "negative"
	}
	if f.ExcessReturn != nil {
		performance = "above its category average"
		if *f.ExcessReturn < 0 {
			performance = "below its category average"
		}
	}

	investor := "growth-oriented"
	if f.RiskLevel == model.RiskLow || f.RiskLevel == model.RiskLowMedium {
		investor = "conservative"
	}

	return []string{
		fmt.Sprintf("1-year return of %.2f%%, %s", f.OneYearReturn, performance),
		fmt.Sprintf("Risk level %s, suited to %s investors", f.RiskLevel, investor),
		fmt.Sprintf("%s fund with a clear investment focus", titleCategory(f.Category)),
	}
}

func localNarrative(f model.ScoredFund) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) returned %.2f%% over the past year", f.Name, f.Code, f.OneYearReturn)
	if f.ExcessReturn != nil {
		direction := "above"
		if *f.ExcessReturn < 0 {
			direction = "below"
		}
		fmt.Fprintf(&sb, ", %.2f%% %s its category average", math.Abs(*f.ExcessReturn), direction)
	}
	fmt.Fprintf(&sb, ". Risk level is %s and the composite score is %.2f.", f.RiskLevel, f.Score)
	return sb.String()
}

func localMarketAnalysis(candidates, picked int, baselines *model.Baselines) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on current market data, %d of %d funds were recommended by composite score.", picked, candidates)
	if baselines.Available() {
		if sp, ok := baselines.IndexChanges[indexSP500]; ok {
			fmt.Fprintf(&sb, " The S&P 500 moved %+.2f%% in the latest session", sp)
			if nq, ok := baselines.IndexChanges[indexNasdaq]; ok {
				fmt.Fprintf(&sb, " and the Nasdaq %+.2f%%", nq)
			}
			sb.WriteString(", and returns are compared against category averages derived from those moves.")
		}
	}
	sb.WriteString(" A diversified allocation balances return and risk. Returns are derived from daily moves and are indicative only.")
	return sb.String()
}

func titleCategory(c model.Category) string {
	s := string(c)
	if s == "" {
		return "Unclassified"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package service_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/repository"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/service"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/testutil"
)

// aiAnswer ranks the 5%, 10% and 20% funds from testutil.MakeFunds(10, 5, 20) in that order.
const aiAnswer = "```json\n" + `{
  "recommendations": ["f10000", "f00000", "f20000"],
  "analysisReport": [
    {"code": "f10000", "name": "ignored", "score": 92.456, "reasons": ["undervalued"], "analysis": "Cheap relative to peers."},
    {"code": "f00000", "name": "ignored", "score": 80, "reasons": ["steady"], "analysis": "Steady performer."},
    {"code": "f20000", "name": "ignored", "score": 71, "reasons": ["momentum"], "analysis": "Stretched after a strong year."}
  ],
  "marketAnalysis": "Rotation into value continues."
}` + "\n```"

// TestRecommendationService_Recommend_Local tests the deterministic local path.
//
// WHY: Without AI the service must still return a complete, reproducible report
// ranked by the composite score.
func TestRecommendationService_Recommend_Local(t *testing.T) {
	t.Run("rejects fewer than two funds", func(t *testing.T) {
		svc := testutil.NewTestRecommendationService(t, nil, testutil.TestLLMConfig(), nil)

		for _, funds := range [][]model.FundRecord{nil, testutil.MakeFunds(10)} {
			_, err := svc.Recommend(context.Background(), funds)
			if !errors.Is(err, apperrors.ErrInsufficientCandidates) {
				t.Errorf("%d funds: expected ErrInsufficientCandidates, got %v", len(funds), err)
			}
		}
	})

	t.Run("ranks locally when no client is configured", func(t *testing.T) {
		// Setup
		svc := testutil.NewTestRecommendationService(t, nil, testutil.TestLLMConfig(), nil)
		funds := testutil.MakeFunds(10, 5, 20, 1)

		// Execute
		report, err := svc.Recommend(context.Background(), funds)

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if report.Provenance != model.ProvenanceLocalFallback {
			t.Errorf("Provenance = %s, want local-fallback", report.Provenance)
		}
		if report.FallbackReason != "" {
			t.Errorf("FallbackReason = %q, want empty when AI is not configured", report.FallbackReason)
		}
		want := []string{"f20000", "f00000", "f10000"}
		if !reflect.DeepEqual(report.Recommendations, want) {
			t.Errorf("Recommendations = %v, want %v", report.Recommendations, want)
		}
		if len(report.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(report.Items))
		}
		first := report.Items[0]
		if first.Score != 15 || first.OneYearReturn != 20 || first.ThreeYearReturn != 50 {
			t.Errorf("unexpected first item %+v", first)
		}
		if len(first.Reasons) != 3 || first.Narrative == "" {
			t.Errorf("first item lacks rationale: %+v", first)
		}
		if report.MarketAnalysis == "" {
			t.Error("MarketAnalysis is empty")
		}
		if report.ID == "" || report.AnalyzedAt.IsZero() || report.CandidateCount != 4 {
			t.Errorf("missing report metadata: id=%q at=%v count=%d", report.ID, report.AnalyzedAt, report.CandidateCount)
		}
	})

	t.Run("a malformed key disables the AI path", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient(aiAnswer)
		cfg := testutil.TestLLMConfig()
		cfg.APIKey = "sk test"
		svc := testutil.NewTestRecommendationService(t, client, cfg, nil)

		// Execute
		report, err := svc.Recommend(context.Background(), testutil.MakeFunds(10, 5, 20))

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if svc.AIEnabled() {
			t.Error("AIEnabled() = true for a key containing whitespace")
		}
		if client.CallCount() != 0 {
			t.Errorf("LLM called %d times, want 0", client.CallCount())
		}
		if report.Provenance != model.ProvenanceLocalFallback {
			t.Errorf("Provenance = %s, want local-fallback", report.Provenance)
		}
	})

	t.Run("same input gives the same ranking", func(t *testing.T) {
		svc := testutil.NewTestRecommendationService(t, nil, testutil.TestLLMConfig(), nil)
		funds := testutil.MakeFunds(3, 3, 7, 1, 3)

		a, _ := svc.Recommend(context.Background(), funds)
		b, _ := svc.Recommend(context.Background(), funds)

		if !reflect.DeepEqual(a.Items, b.Items) || !reflect.DeepEqual(a.Recommendations, b.Recommendations) {
			t.Error("two local reports for the same input differ")
		}
	})
}

// TestRecommendationService_Recommend_AI tests the AI-first path and its fallback.
//
// WHY: A validated AI answer is used as is, with figures taken from our own records.
// Any failure must produce exactly the report the local path would have produced.
func TestRecommendationService_Recommend_AI(t *testing.T) {
	t.Run("uses a valid AI answer", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient(aiAnswer)
		svc := testutil.NewTestRecommendationService(t, client, testutil.TestLLMConfig(), nil)
		funds := testutil.MakeFunds(10, 5, 20)

		// Execute
		report, err := svc.Recommend(context.Background(), funds)

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if !report.AIPowered() {
			t.Fatalf("Provenance = %s (reason %q), want ai", report.Provenance, report.FallbackReason)
		}
		if !reflect.DeepEqual(report.Recommendations, []string{"f10000", "f00000", "f20000"}) {
			t.Errorf("Recommendations = %v", report.Recommendations)
		}
		item := report.Items[0]
		if item.Name != funds[1].Name {
			t.Errorf("Name = %q, want record name %q", item.Name, funds[1].Name)
		}
		if item.Score != 92.46 {
			t.Errorf("Score = %v, want 92.46", item.Score)
		}
		if item.OneYearReturn != 5 || item.ThreeYearReturn != 12.5 || item.RiskLevel != model.RiskMedium {
			t.Errorf("figures not taken from records: %+v", item)
		}
		if item.Narrative != "Cheap relative to peers." || !reflect.DeepEqual(item.Reasons, []string{"undervalued"}) {
			t.Errorf("rationale not taken from AI: %+v", item)
		}
		if report.MarketAnalysis != "Rotation into value continues." {
			t.Errorf("MarketAnalysis = %q", report.MarketAnalysis)
		}
		if report.FallbackReason != "" {
			t.Errorf("FallbackReason = %q, want empty", report.FallbackReason)
		}
	})

	t.Run("falls back when the LLM call fails", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient("").WithError(errors.New("status 401"))
		svc := testutil.NewTestRecommendationService(t, client, testutil.TestLLMConfig(), nil)

		// Execute
		report, err := svc.Recommend(context.Background(), testutil.MakeFunds(10, 5, 20))

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if report.Provenance != model.ProvenanceLocalFallback {
			t.Errorf("Provenance = %s, want local-fallback", report.Provenance)
		}
		if !strings.Contains(report.FallbackReason, apperrors.ErrAIDelegationFailed.Error()) {
			t.Errorf("FallbackReason = %q, want delegation failure", report.FallbackReason)
		}
	})

	t.Run("falls back when the LLM exceeds its deadline", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient(aiAnswer).WithDelay(5 * time.Second)
		svc := testutil.NewTestRecommendationService(t, client, testutil.TestLLMConfig(), nil)

		// Execute
		start := time.Now()
		report, err := svc.Recommend(context.Background(), testutil.MakeFunds(10, 5, 20))
		elapsed := time.Since(start)

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if report.Provenance != model.ProvenanceLocalFallback {
			t.Errorf("Provenance = %s, want local-fallback", report.Provenance)
		}
		if elapsed > 2*time.Second {
			t.Errorf("Recommend() took %v, LLM deadline not enforced", elapsed)
		}
	})

	t.Run("invalid AI answers match the AI-disabled report", func(t *testing.T) {
		funds := testutil.MakeFunds(10, 5, 20, 15, 2)
		disabled := testutil.NewTestRecommendationService(t, nil, testutil.TestLLMConfig(), nil)
		want, err := disabled.Recommend(context.Background(), funds)
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}

		answers := map[string]string{
			"prose only":     "I think f00000 looks good.",
			"unknown code":   strings.ReplaceAll(aiAnswer, "f10000", "zz0000"),
			"no market text": strings.ReplaceAll(aiAnswer, "Rotation into value continues.", ""),
			"two picks":      strings.ReplaceAll(aiAnswer, `, "f20000"]`, `]`),
		}
		for name, answer := range answers {
			t.Run(name, func(t *testing.T) {
				svc := testutil.NewTestRecommendationService(t, testutil.NewMockLLMClient(answer), testutil.TestLLMConfig(), nil)

				got, err := svc.Recommend(context.Background(), funds)

				if err != nil {
					t.Fatalf("Recommend() returned unexpected error: %v", err)
				}
				if got.Provenance != want.Provenance {
					t.Errorf("Provenance = %s, want %s", got.Provenance, want.Provenance)
				}
				if !reflect.DeepEqual(got.Recommendations, want.Recommendations) {
					t.Errorf("Recommendations = %v, want %v", got.Recommendations, want.Recommendations)
				}
				if !reflect.DeepEqual(got.Items, want.Items) {
					t.Errorf("Items differ from the AI-disabled report")
				}
				if got.MarketAnalysis != want.MarketAnalysis {
					t.Errorf("MarketAnalysis differs from the AI-disabled report")
				}
				if !strings.Contains(got.FallbackReason, apperrors.ErrAIResponseInvalid.Error()) {
					t.Errorf("FallbackReason = %q, want invalid response", got.FallbackReason)
				}
			})
		}
	})

	t.Run("prompt carries at most ten candidates", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient("no json")
		svc := testutil.NewTestRecommendationService(t, client, testutil.TestLLMConfig(), nil)
		funds := testutil.MakeFunds(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

		// Execute
		report, err := svc.Recommend(context.Background(), funds)

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		prompts := client.Prompts()
		if len(prompts) != 1 {
			t.Fatalf("expected 1 prompt, got %d", len(prompts))
		}
		if !strings.Contains(prompts[0], testutil.MakeCode(9)) {
			t.Errorf("prompt is missing the tenth candidate %s", testutil.MakeCode(9))
		}
		for _, i := range []int{10, 11} {
			if strings.Contains(prompts[0], testutil.MakeCode(i)) {
				t.Errorf("prompt contains candidate %s beyond the cap", testutil.MakeCode(i))
			}
		}
		// The local fallback still ranks every fund.
		if report.Recommendations[0] != testutil.MakeCode(11) {
			t.Errorf("top local pick = %s, want %s", report.Recommendations[0], testutil.MakeCode(11))
		}
	})

	t.Run("AI may not pick a fund outside the prompt", func(t *testing.T) {
		funds := testutil.MakeFunds(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
		outside := testutil.MakeCode(10)
		entry := func(code string) string {
			return `{"code": "` + code + `", "score": 99, "reasons": ["r"], "analysis": "a"}`
		}
		answer := `{"recommendations": ["` + outside + `", "f00000", "f10000"], "analysisReport": [` +
			entry(outside) + "," + entry("f00000") + "," + entry("f10000") + `], "marketAnalysis": "m"}`
		svc := testutil.NewTestRecommendationService(t, testutil.NewMockLLMClient(answer), testutil.TestLLMConfig(), nil)

		report, err := svc.Recommend(context.Background(), funds)

		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if report.Provenance != model.ProvenanceLocalFallback {
			t.Errorf("Provenance = %s, want local-fallback", report.Provenance)
		}
	})
}

// TestRecommendationService_Recommend_Baselines tests baseline-aware analysis.
//
// WHY: With category baselines available, reports show how each fund compares with
// its category. Without them analysis must still succeed.
func TestRecommendationService_Recommend_Baselines(t *testing.T) {
	t.Run("reports excess returns and sends averages to the model", func(t *testing.T) {
		// Setup
		client := testutil.NewMockLLMClient("not json")
		provider := testutil.StaticBaselineProvider{Baselines: testutil.MakeBaselines(5)}
		svc := testutil.NewTestRecommendationService(t, client, testutil.TestLLMConfig(), provider)

		// Execute
		report, err := svc.Recommend(context.Background(), testutil.MakeFunds(10, 2, 20))

		// Assert
		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		top := report.Items[0]
		if top.ExcessReturn == nil || *top.ExcessReturn != 15 {
			t.Errorf("ExcessReturn = %v, want 15", top.ExcessReturn)
		}
		if !strings.Contains(top.Reasons[0], "above its category average") {
			t.Errorf("reason = %q, want category comparison", top.Reasons[0])
		}
		if !strings.Contains(report.MarketAnalysis, "S&P 500") {
			t.Errorf("MarketAnalysis = %q, want index commentary", report.MarketAnalysis)
		}
		if !strings.Contains(client.Prompts()[0], "Category average returns") {
			t.Error("prompt does not include category averages")
		}
	})

	t.Run("scores without baselines when they are unavailable", func(t *testing.T) {
		provider := testutil.StaticBaselineProvider{Err: apperrors.ErrBaselinesUnavailable}
		svc := testutil.NewTestRecommendationService(t, nil, testutil.TestLLMConfig(), provider)

		report, err := svc.Recommend(context.Background(), testutil.MakeFunds(10, 2, 20))

		if err != nil {
			t.Fatalf("Recommend() returned unexpected error: %v", err)
		}
		if report.Items[0].ExcessReturn != nil {
			t.Errorf("ExcessReturn = %v, want none", *report.Items[0].ExcessReturn)
		}
		if report.Items[0].Score != 15 {
			t.Errorf("Score = %v, want baseline-free 15", report.Items[0].Score)
		}
	})
}

// TestRecommendationService_Journal tests that analysis runs are journaled.
//
// WHY: The run log records which path produced each report and why AI was discarded.
func TestRecommendationService_Journal(t *testing.T) {
	// Setup
	db := testutil.SetupTestDB(t)
	repo := repository.NewRunRepository(db)
	client := testutil.NewMockLLMClient("").WithError(errors.New("connection refused"))
	svc := service.NewRecommendationService(client, testutil.TestLLMConfig(), nil, repo, zerolog.Nop())

	// Execute
	if _, err := svc.Recommend(context.Background(), testutil.MakeFunds(1, 2)); err != nil {
		t.Fatalf("Recommend() returned unexpected error: %v", err)
	}
	_, _ = svc.Recommend(context.Background(), nil)

	// Assert
	runs, err := repo.GetRuns(context.Background(), model.RunFilters{Limit: 10})
	if err != nil {
		t.Fatalf("GetRuns() returned unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	outcomes := map[string]model.Run{}
	for _, r := range runs {
		outcomes[r.Outcome] = r
	}
	ok, found := outcomes[model.RunOutcomeOK]
	if !found {
		t.Fatal("no successful analysis run recorded")
	}
	if ok.Kind != model.RunKindAnalyze || ok.Path != string(model.ProvenanceLocalFallback) || ok.Succeeded != 2 {
		t.Errorf("unexpected run %+v", ok)
	}
	if !strings.Contains(ok.Detail, "connection refused") {
		t.Errorf("Detail = %q, want the fallback reason", ok.Detail)
	}
	if _, found := outcomes[model.RunOutcomeInsufficientCandidate]; !found {
		t.Error("insufficient candidates run not recorded")
	}
}

package model

import "time"

// Provenance marks which path produced a recommendation report.
type Provenance string

const (
	ProvenanceAI            Provenance = "ai"
	ProvenanceLocalFallback Provenance = "local-fallback"
)

// ReportItem is one ranked recommendation with its rationale.
type ReportItem struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Score           float64   `json:"score"`
	OneYearReturn   float64   `json:"oneYearReturn"`
	ThreeYearReturn float64   `json:"threeYearReturn"`
	ExcessReturn    *float64  `json:"excessReturn,omitempty"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Reasons         []string  `json:"reasons"`
	Narrative       string    `json:"analysis"`
}

// RecommendationReport is the result of one analysis call. It is built once by the
// recommendation service and handed out by value.
//
// FallbackReason is set when the AI path was attempted and discarded. It is empty
// for AI reports and for local reports produced while AI is not configured.
type RecommendationReport struct {
	ID              string       `json:"id"`
	Recommendations []string     `json:"recommendations"`
	Items           []ReportItem `json:"analysisReport"`
	MarketAnalysis  string       `json:"marketAnalysis"`
	Provenance      Provenance   `json:"provenance"`
	AnalyzedAt      time.Time    `json:"analysisDate"`
	CandidateCount  int          `json:"candidateCount"`
	FallbackReason  string       `json:"fallbackReason,omitempty"`
}

// AIPowered reports whether the report came from the AI path.
func (r RecommendationReport) AIPowered() bool {
	return r.Provenance == ProvenanceAI
}

package model

import "time"

// RunKind identifies which pipeline a journal entry belongs to.
type RunKind string

const (
	RunKindAcquire RunKind = "acquire"
	RunKindAnalyze RunKind = "analyze"
)

// Run outcomes stored in the journal.
const (
	RunOutcomeOK                    = "ok"
	RunOutcomeDataUnavailable       = "data_unavailable"
	RunOutcomeInsufficientCandidate = "insufficient_candidates"
	RunOutcomeError                 = "error"
)

// Acquisition phases stored in the journal's Path column.
const (
	PhaseParallel = "parallel"
	PhaseSerial   = "serial"
)

// Run is one operational journal entry for an acquisition or analysis call.
// It records counts and the path taken, never fund data or report content.
type Run struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
	Requested  int       `json:"requested"`
	Succeeded  int       `json:"succeeded"`
	Path       string    `json:"path"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}

// RunFilters narrows a journal listing. Zero values mean no filter.
type RunFilters struct {
	Kind    RunKind
	Outcome string
	Limit   int
}

package apperrors

import "errors"

// Pipeline errors surfaced to callers. Only these two kinds propagate out of the
// acquisition and recommendation services as failures.
var (
	// ErrDataUnavailable indicates that an acquisition batch produced zero usable quotes,
	// after both the parallel phase and the serial fallback phase.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrInsufficientCandidates indicates that fewer than two funds were supplied for analysis.
	ErrInsufficientCandidates = errors.New("at least 2 funds are required for analysis")
)

// Recovered errors. These are handled inside the services and only show up in logs,
// the run journal and the report's fallback reason.
var (
	// ErrProviderTimeout indicates that a single symbol fetch exceeded its deadline.
	ErrProviderTimeout = errors.New("quote provider timed out")

	// ErrInvalidQuote indicates that the provider answered without a usable current price.
	ErrInvalidQuote = errors.New("quote has no usable price")

	// ErrAIDelegationFailed indicates a network error, timeout or non-success response from the LLM.
	ErrAIDelegationFailed = errors.New("ai delegation failed")

	// ErrAIResponseInvalid indicates that the LLM answered with structurally unusable output.
	ErrAIResponseInvalid = errors.New("ai response invalid")

	// ErrAINotConfigured indicates that no well-formed LLM credential is configured.
	ErrAINotConfigured = errors.New("ai analysis not configured")

	// ErrBaselinesUnavailable indicates that none of the index quotes needed for
	// category baselines could be fetched.
	ErrBaselinesUnavailable = errors.New("category baselines unavailable")
)

// Validation and lookup errors.
var (
	// ErrNoSymbols indicates that the symbol list was empty after cleaning.
	ErrNoSymbols = errors.New("no symbols requested")

	// ErrRunNotFound indicates that a run journal entry with the given ID does not exist.
	ErrRunNotFound = errors.New("run not found")
)

// Operation failure errors used as user-facing messages by the HTTP layer.
var (
	ErrFailedToRetrieveFunds     = errors.New("failed to retrieve funds")
	ErrFailedToAnalyzeFunds      = errors.New("failed to analyze funds")
	ErrFailedToRetrieveBaselines = errors.New("failed to retrieve category baselines")
	ErrFailedToRetrieveRuns      = errors.New("failed to retrieve runs")
	ErrFailedToGetVersionInfo    = errors.New("failed to get version information")
)

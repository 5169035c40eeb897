package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

var validRunOutcomes = map[string]bool{
	model.RunOutcomeOK:                    true,
	model.RunOutcomeDataUnavailable:       true,
	model.RunOutcomeInsufficientCandidate: true,
	model.RunOutcomeError:                 true,
}

// ParseRunFilters extracts and validates run journal filters from query parameters.
// All parameters are optional.
//
// Validation rules:
//   - kind: acquire or analyze
//   - outcome: ok, data_unavailable, insufficient_candidates or error
//   - limit: between 1 and 200 (defaults to 20)
func ParseRunFilters(kindParam, outcomeParam, limitParam string) (model.RunFilters, error) {
	filters := model.RunFilters{Limit: defaultRunLimit}

	if kindParam != "" {
		kind := model.RunKind(strings.ToLower(strings.TrimSpace(kindParam)))
		if kind != model.RunKindAcquire && kind != model.RunKindAnalyze {
			return model.RunFilters{}, fmt.Errorf("invalid kind: %s", kindParam)
		}
		filters.Kind = kind
	}

	if outcomeParam != "" {
		outcome := strings.ToLower(strings.TrimSpace(outcomeParam))
		if !validRunOutcomes[outcome] {
			return model.RunFilters{}, fmt.Errorf("invalid outcome: %s", outcomeParam)
		}
		filters.Outcome = outcome
	}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return model.RunFilters{}, fmt.Errorf("invalid limit: must be a number")
		}
		if limit < 1 || limit > maxRunLimit {
			return model.RunFilters{}, fmt.Errorf("invalid limit: must be between 1 and %d", maxRunLimit)
		}
		filters.Limit = limit
	}

	return filters, nil
}

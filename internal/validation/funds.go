package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/api/request"
)

const (
	maxRequestedSymbols = 50
	maxAnalyzeFunds     = 100
)

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.^=\-]{1,15}$`)

// ValidateSymbols checks a requested symbol list. An empty list is valid and
// selects the configured universe.
func ValidateSymbols(symbols []string) error {
	errors := make(map[string]string)

	if len(symbols) > maxRequestedSymbols {
		errors["symbols"] = fmt.Sprintf("at most %d symbols may be requested", maxRequestedSymbols)
	}
	var invalid []string
	for _, s := range symbols {
		if !symbolPattern.MatchString(strings.TrimSpace(s)) {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		errors["symbols"] = fmt.Sprintf("invalid symbol: %s", strings.Join(invalid, ", "))
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateAnalyzeRequest checks the funds submitted for analysis. Every fund needs a
// unique code; risk level and category are optional but must be known values.
func ValidateAnalyzeRequest(req request.AnalyzeRequest) error {
	errors := make(map[string]string)

	switch {
	case len(req.Funds) < 2:
		errors["funds"] = "at least 2 funds are required"
	case len(req.Funds) > maxAnalyzeFunds:
		errors["funds"] = fmt.Sprintf("at most %d funds may be analyzed", maxAnalyzeFunds)
	}

	seen := make(map[string]int, len(req.Funds))
	for i, f := range req.Funds {
		code := strings.TrimSpace(f.Code)
		if code == "" {
			errors[fmt.Sprintf("funds[%d].code", i)] = "code is required"
		} else if first, dup := seen[code]; dup {
			errors[fmt.Sprintf("funds[%d].code", i)] = fmt.Sprintf("duplicate code %s, first used by funds[%d]", code, first)
		} else {
			seen[code] = i
		}

		if f.RiskLevel != "" && !f.RiskLevel.Valid() {
			errors[fmt.Sprintf("funds[%d].riskLevel", i)] = fmt.Sprintf("invalid risk level: %s", f.RiskLevel)
		}
		if f.Category != "" && !f.Category.Valid() {
			errors[fmt.Sprintf("funds[%d].category", i)] = fmt.Sprintf("invalid category: %s", f.Category)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

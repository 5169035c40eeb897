package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
)

// AIResult is the outcome of validating a model response: either *ValidAIResult or *InvalidAIResult.
type AIResult interface {
	isAIResult()
}

// ValidAIResult is a response that passed every structural check.
// Recommendations are candidate codes in ranked order and each one has an entry.
type ValidAIResult struct {
	Recommendations []string
	Entries         map[string]AIReportEntry
	MarketAnalysis  string
}

// InvalidAIResult carries the reason a response was rejected. Reason wraps apperrors.ErrAIResponseInvalid.
type InvalidAIResult struct {
	Reason error
}

func (*ValidAIResult) isAIResult()   {}
func (*InvalidAIResult) isAIResult() {}

// AIReportEntry is the model's view of one recommended fund.
// Figures such as returns and risk are taken from our own records, not from here.
type AIReportEntry struct {
	Code     string      `json:"code"`
	Score    flexFloat   `json:"score"`
	Reasons  flexStrings `json:"reasons"`
	Analysis string      `json:"analysis"`
}

// flexFloat accepts a JSON number, a numeric string, or a string with a trailing %.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		s = strings.TrimPrefix(strings.TrimSpace(s), "+")
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexStrings accepts either a list of strings or a single string.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = flexStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\{.*?\\})\\s*```")

// extractJSON finds the JSON object in a model response. It tries, in order, the whole
// text, a fenced code block, and the first brace-balanced object.
func extractJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, true
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil && json.Valid([]byte(m[1])) {
		return m[1], true
	}
	if obj := firstBalancedObject(text); obj != "" {
		return obj, true
	}
	return "", false
}

// firstBalancedObject returns the first {...} span whose braces balance outside string literals.
func firstBalancedObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func invalidAI(format string, args ...any) *InvalidAIResult {
	return &InvalidAIResult{Reason: fmt.Errorf("%w: %s", apperrors.ErrAIResponseInvalid, fmt.Sprintf(format, args...))}
}

// ParseAIResponse validates a model response against the candidate codes it was shown.
//
// The object must carry recommendations, analysisReport and marketAnalysis.
// recommendations must hold min(3, candidates) distinct candidate codes, each
// with an analysisReport entry. Anything else yields *InvalidAIResult.
func ParseAIResponse(text string, candidates []string) AIResult {
	raw, ok := extractJSON(text)
	if !ok {
		return invalidAI("no JSON object in response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return invalidAI("decode response: %v", err)
	}
	for _, key := range []string{"recommendations", "analysisReport", "marketAnalysis"} {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return invalidAI("missing field %s", key)
		}
	}

	var recs []string
	if err := json.Unmarshal(fields["recommendations"], &recs); err != nil {
		return invalidAI("recommendations: %v", err)
	}
	var entries []AIReportEntry
	if err := json.Unmarshal(fields["analysisReport"], &entries); err != nil {
		return invalidAI("analysisReport: %v", err)
	}
	var market string
	if err := json.Unmarshal(fields["marketAnalysis"], &market); err != nil {
		return invalidAI("marketAnalysis: %v", err)
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c] = struct{}{}
	}

	if len(recs) == 0 {
		return invalidAI("recommendations is empty")
	}
	if want := min(topN, len(allowed)); len(recs) != want {
		return invalidAI("recommendations has %d entries, exactly %d required", len(recs), want)
	}
	if strings.TrimSpace(market) == "" {
		return invalidAI("marketAnalysis is empty")
	}
	byCode := make(map[string]AIReportEntry, len(entries))
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		if _, dup := byCode[code]; !dup {
			byCode[code] = e
		}
	}

	picked := make(map[string]AIReportEntry, len(recs))
	for i, code := range recs {
		code = strings.TrimSpace(code)
		recs[i] = code
		if _, ok := allowed[code]; !ok {
			return invalidAI("recommended code %q is not a candidate", code)
		}
		if _, dup := picked[code]; dup {
			return invalidAI("recommended code %q appears twice", code)
		}
		entry, ok := byCode[code]
		if !ok {
			return invalidAI("no analysisReport entry for %q", code)
		}
		picked[code] = entry
	}

	return &ValidAIResult{
		Recommendations: recs,
		Entries:         picked,
		MarketAnalysis:  strings.TrimSpace(market),
	}
}


package service

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

const (
	fundCodeWidth = 6

	// Proxy multipliers used in place of trailing returns, which the quote feed does not carry.
	oneYearFromDayChange   = 50
	threeYearFromOneYear   = 2.5
	maxUnixMillis          = 8.64e15
	secondsTimestampDigits = 10
)

// FundCode derives the stable fund code for a symbol: lower-cased, non-alphanumerics
// removed, truncated to six characters and right-padded with '0'.
//
//	FundCode("AAPL")   // "aapl00"
//	FundCode("BRK.B")  // "brkb00"
//	FundCode("^GSPC")  // "gspc00"
func FundCode(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(symbol) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == fundCodeWidth {
				break
			}
		}
	}
	code := b.String()
	return code + strings.Repeat("0", fundCodeWidth-len(code))
}

// RiskLevelFromChange maps the absolute daily change percent to a risk level.
// A nil change has no volatility signal and maps to medium.
func RiskLevelFromChange(changePercent *float64) model.RiskLevel {
	if changePercent == nil || math.IsNaN(*changePercent) {
		return model.RiskMedium
	}
	abs := math.Abs(*changePercent)
	switch {
	case abs > 5:
		return model.RiskHigh
	case abs > 3:
		return model.RiskMediumHigh
	case abs < 1:
		return model.RiskLow
	default:
		return model.RiskMedium
	}
}

// NormalizeTimestamp converts a provider market time into UTC.
//
// Providers report either Unix seconds or Unix milliseconds. A value with at most
// ten decimal digits is read as seconds, anything longer as milliseconds. Zero,
// negative and out-of-range values return fallback.
func NormalizeTimestamp(raw int64, fallback time.Time) time.Time {
	if raw <= 0 {
		return fallback.UTC()
	}
	ms := raw
	if len(strconv.FormatInt(raw, 10)) <= secondsTimestampDigits {
		ms = raw * 1000
	}
	if float64(ms) > maxUnixMillis {
		return fallback.UTC()
	}
	return time.UnixMilli(ms).UTC()
}

var (
	bondSymbols  = []string{"BND", "TLT", "AGG"}
	indexSymbols = []string{"SPY", "QQQ", "IWM", "VTI", "VEA", "VWO", "GLD", "GDX", "DIA"}
)

var equitySymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX",
	"BABA", "JD", "PDD", "BIDU", "NIO", "XPEV", "LI",
}

// Classifier assigns a fund category to a symbol.
//
// Lookup order is the override table, the static table, the XL sector ETF prefix,
// then a hash bucket of the symbol: buckets 7 to 9 of 10 are mixed, the rest equity.
// The hash keeps unclassified symbols stable across runs.
type Classifier struct {
	table map[string]model.Category
}

// NewClassifier builds a classifier with optional symbol to category overrides.
func NewClassifier(overrides map[string]string) (*Classifier, error) {
	table := make(map[string]model.Category, len(bondSymbols)+len(indexSymbols)+len(equitySymbols)+len(overrides))
	for _, s := range bondSymbols {
		table[s] = model.CategoryBond
	}
	for _, s := range indexSymbols {
		table[s] = model.CategoryIndex
	}
	for _, s := range equitySymbols {
		table[s] = model.CategoryEquity
	}
	for symbol, category := range overrides {
		c := model.Category(strings.ToLower(strings.TrimSpace(category)))
		if !c.Valid() {
			return nil, fmt.Errorf("invalid category %q for symbol %s", category, symbol)
		}
		table[strings.ToUpper(strings.TrimSpace(symbol))] = c
	}
	return &Classifier{table: table}, nil
}

// Classify returns the category for symbol.
func (c *Classifier) Classify(symbol string) model.Category {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if cat, ok := c.table[s]; ok {
		return cat
	}
	if strings.HasPrefix(s, "XL") {
		return model.CategoryIndex
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	if h.Sum32()%10 >= 7 {
		return model.CategoryMixed
	}
	return model.CategoryEquity
}

// NormalizeQuote turns a provider quote into a FundRecord.
// It returns apperrors.ErrInvalidQuote when the quote has no usable price.
func NormalizeQuote(q model.RawQuote, classifier *Classifier, source string, now time.Time) (model.FundRecord, error) {
	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0 {
		return model.FundRecord{}, fmt.Errorf("%s: %w", q.Symbol, apperrors.ErrInvalidQuote)
	}

	name := strings.TrimSpace(q.DisplayName)
	if name == "" {
		name = q.Symbol
	}

	record := model.FundRecord{
		Code:       FundCode(q.Symbol),
		Name:       name,
		Symbol:     q.Symbol,
		Category:   classifier.Classify(q.Symbol),
		RiskLevel:  RiskLevelFromChange(q.ChangePercent),
		NetValue:   round4(q.Price),
		ObservedAt: NormalizeTimestamp(q.Timestamp, now),
		Source:     source,
	}

	if q.ChangePercent != nil && !math.IsNaN(*q.ChangePercent) && !math.IsInf(*q.ChangePercent, 0) {
		change := *q.ChangePercent
		record.DayChangePercent = round2(change)
		record.OneYearReturn = round2(change * oneYearFromDayChange)
		record.ThreeYearReturn = record.OneYearReturn * threeYearFromOneYear
	}

	return record, nil
}

// cleanSymbols trims, upper-cases and de-duplicates symbols, keeping the first
// occurrence order, and caps the result at limit.
func cleanSymbols(symbols []string, limit int) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimFunc(s, unicode.IsSpace))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

package testutil

import (
	"strings"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// FundBuilder provides a fluent interface for creating test fund records.
//
// Example usage:
//
//	// Simple creation with defaults
//	fund := testutil.NewFund("aapl00").Build()
//
//	// Customized fund
//	fund := testutil.NewFund("spy000").
//	    WithCategory(model.CategoryIndex).
//	    WithOneYearReturn(12.5).
//	    WithRiskLevel(model.RiskLow).
//	    Build()
type FundBuilder struct {
	record model.FundRecord
}

// NewFund creates a FundBuilder with sensible defaults: equity, medium risk,
// a 10% one year return and the matching 2.5x three year return.
func NewFund(code string) *FundBuilder {
	return &FundBuilder{record: model.FundRecord{
		Code:             code,
		Name:             strings.ToUpper(strings.TrimRight(code, "0")) + " Test Fund",
		Symbol:           strings.ToUpper(strings.TrimRight(code, "0")),
		Category:         model.CategoryEquity,
		RiskLevel:        model.RiskMedium,
		OneYearReturn:    10,
		ThreeYearReturn:  25,
		NetValue:         100,
		DayChangePercent: 0.2,
		ObservedAt:       time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC),
		Source:           "Test",
	}}
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.record.Name = name
	return b
}

// WithCategory sets the fund category.
func (b *FundBuilder) WithCategory(c model.Category) *FundBuilder {
	b.record.Category = c
	return b
}

// WithRiskLevel sets the risk level.
func (b *FundBuilder) WithRiskLevel(r model.RiskLevel) *FundBuilder {
	b.record.RiskLevel = r
	return b
}

// WithOneYearReturn sets the one year return and derives the three year return as 2.5x.
func (b *FundBuilder) WithOneYearReturn(y1 float64) *FundBuilder {
	b.record.OneYearReturn = y1
	b.record.ThreeYearReturn = y1 * 2.5
	return b
}

// WithReturns sets both returns independently.
func (b *FundBuilder) WithReturns(y1, y3 float64) *FundBuilder {
	b.record.OneYearReturn = y1
	b.record.ThreeYearReturn = y3
	return b
}

// Build returns the fund record.
func (b *FundBuilder) Build() model.FundRecord {
	return b.record
}

// MakeFunds creates medium risk equity funds with the given one year returns.
// Codes are f00000, f10000, ... in input order.
func MakeFunds(oneYearReturns ...float64) []model.FundRecord {
	funds := make([]model.FundRecord, len(oneYearReturns))
	for i, y1 := range oneYearReturns {
		funds[i] = NewFund(MakeCode(i)).WithOneYearReturn(y1).Build()
	}
	return funds
}

// MakeCode returns a distinct six character fund code for index i.
func MakeCode(i int) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	code := []byte("f00000")
	code[1] = digits[i%len(digits)]
	code[2] = digits[(i/len(digits))%len(digits)]
	return string(code)
}

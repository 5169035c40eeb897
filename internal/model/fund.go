package model

import "time"

// Category is the fund category a record is classified into.
type Category string

const (
	CategoryEquity Category = "equity"
	CategoryBond   Category = "bond"
	CategoryIndex  Category = "index"
	CategoryMixed  Category = "mixed"
)

// Categories lists every valid category.
var Categories = []Category{CategoryEquity, CategoryBond, CategoryIndex, CategoryMixed}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// RiskLevel is an ordered risk classification, low to high.
type RiskLevel string

const (
	RiskLow        RiskLevel = "low"
	RiskLowMedium  RiskLevel = "low-medium"
	RiskMedium     RiskLevel = "medium"
	RiskMediumHigh RiskLevel = "medium-high"
	RiskHigh       RiskLevel = "high"
)

// RiskLevels lists every valid risk level in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskLowMedium, RiskMedium, RiskMediumHigh, RiskHigh}

// Valid reports whether r is one of the five defined risk levels.
func (r RiskLevel) Valid() bool {
	for _, v := range RiskLevels {
		if r == v {
			return true
		}
	}
	return false
}

// FundRecord is the normalized, provider-agnostic fund entity derived from a quote.
//
// OneYearReturn and ThreeYearReturn are percentages. For records produced by the
// acquisition pipeline they are proxies derived from the daily change, and
// ThreeYearReturn is always OneYearReturn * 2.5.
type FundRecord struct {
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol,omitempty"`
	Category         Category  `json:"category"`
	RiskLevel        RiskLevel `json:"riskLevel"`
	OneYearReturn    float64   `json:"oneYearReturn"`
	ThreeYearReturn  float64   `json:"threeYearReturn"`
	NetValue         float64   `json:"netValue"`
	DayChangePercent float64   `json:"dayChangePercent"`
	ObservedAt       time.Time `json:"observedAt"`
	Source           string    `json:"source,omitempty"`
}

// ScoredFund is a FundRecord enriched with a composite score and, when category
// baselines were available, its category average and excess returns.
type ScoredFund struct {
	FundRecord
	Score                 float64           `json:"score"`
	CategoryAverage       *CategoryBaseline `json:"categoryAverage,omitempty"`
	ExcessReturn          *float64          `json:"excessReturn,omitempty"`
	ExcessThreeYearReturn *float64          `json:"excessThreeYearReturn,omitempty"`
}

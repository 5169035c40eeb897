package service

import (
	"sort"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

const topN = 3

// riskFactor weights the risk-adjusted term of the score. Unknown levels are neutral.
func riskFactor(level model.RiskLevel) float64 {
	switch level {
	case model.RiskLow:
		return 1.2
	case model.RiskLowMedium:
		return 1.1
	case model.RiskMedium:
		return 1.0
	case model.RiskMediumHigh:
		return 0.9
	case model.RiskHigh:
		return 0.8
	default:
		return 1.0
	}
}

// scoreBaselineFree is the composite score without category baselines:
//
//	y1*0.4 + y3*0.3/3 + (y1/3)*rf*0.3
func scoreBaselineFree(f model.FundRecord) float64 {
	y1, y3 := f.OneYearReturn, f.ThreeYearReturn
	return y1*0.4 + y3*0.3/3 + (y1/3)*riskFactor(f.RiskLevel)*0.3
}

// scoreBaselineAware blends absolute and excess returns:
//
//	y1*0.25 + y3*0.30/3 + (y1/3)*rf*0.25 + (ex1*0.10 + ex3*0.10/3)
func scoreBaselineAware(f model.FundRecord, ex1, ex3 float64) float64 {
	y1, y3 := f.OneYearReturn, f.ThreeYearReturn
	return y1*0.25 + y3*0.30/3 + (y1/3)*riskFactor(f.RiskLevel)*0.25 + (ex1*0.10 + ex3*0.10/3)
}

// ScoreFunds computes the composite score of every fund, in input order.
//
// When baselines are available the baseline-aware formula is used for all funds.
// A fund whose category has no baseline is compared against a zero average.
// Without baselines the baseline-free formula is used and no excess is reported.
func ScoreFunds(funds []model.FundRecord, baselines *model.Baselines) []model.ScoredFund {
	scored := make([]model.ScoredFund, len(funds))
	aware := baselines.Available()

	for i, f := range funds {
		sf := model.ScoredFund{FundRecord: f}
		if !aware {
			sf.Score = scoreBaselineFree(f)
			scored[i] = sf
			continue
		}

		avg, _ := baselines.For(f.Category)
		ex1 := f.OneYearReturn - avg.OneYearReturn
		ex3 := f.ThreeYearReturn - avg.ThreeYearReturn
		sf.CategoryAverage = &avg
		sf.ExcessReturn = floatPtr(round2(ex1))
		sf.ExcessThreeYearReturn = floatPtr(round2(ex3))
		sf.Score = scoreBaselineAware(f, ex1, ex3)
		scored[i] = sf
	}
	return scored
}

// RankFunds returns up to three funds ordered by score, highest first.
// Equal scores keep their input order.
func RankFunds(scored []model.ScoredFund) []model.ScoredFund {
	ranked := make([]model.ScoredFund, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

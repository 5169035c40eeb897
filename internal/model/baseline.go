package model

import "time"

// CategoryBaseline is the expected return for a fund category, derived from market index moves.
type CategoryBaseline struct {
	OneYearReturn   float64 `json:"oneYearReturn"`
	ThreeYearReturn float64 `json:"threeYearReturn"`
}

// Baselines is a snapshot of category baselines together with the index changes they were computed from.
type Baselines struct {
	Categories   map[Category]CategoryBaseline `json:"categories"`
	IndexChanges map[string]float64            `json:"indexChanges"`
	ComputedAt   time.Time                     `json:"computedAt"`
}

// For returns the baseline for a category. A nil receiver has no baselines.
func (b *Baselines) For(c Category) (CategoryBaseline, bool) {
	if b == nil {
		return CategoryBaseline{}, false
	}
	v, ok := b.Categories[c]
	return v, ok
}

// Available reports whether the snapshot holds any category baseline.
func (b *Baselines) Available() bool {
	return b != nil && len(b.Categories) > 0
}

package testutil

import (
	"context"
	"time"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// StaticBaselineProvider returns fixed baselines or a fixed error.
type StaticBaselineProvider struct {
	Baselines *model.Baselines
	Err       error
}

// Current implements service.BaselineProvider.
func (p StaticBaselineProvider) Current(_ context.Context) (*model.Baselines, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Baselines, nil
}

// MakeBaselines returns baselines with the given one year average for every
// category and a three year average of 2.5x.
func MakeBaselines(oneYear float64) *model.Baselines {
	categories := make(map[model.Category]model.CategoryBaseline, len(model.Categories))
	for _, c := range model.Categories {
		categories[c] = model.CategoryBaseline{OneYearReturn: oneYear, ThreeYearReturn: oneYear * 2.5}
	}
	return &model.Baselines{
		Categories:   categories,
		IndexChanges: map[string]float64{"^GSPC": 0.5, "^IXIC": 0.8},
		ComputedAt:   time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC),
	}
}

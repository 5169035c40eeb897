package request

import (
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Funds []model.FundRecord `json:"funds"`
}

// Normalized returns the funds with defaults applied: surrounding blanks are
// trimmed from codes and a missing risk level becomes medium.
func (r AnalyzeRequest) Normalized() []model.FundRecord {
	out := make([]model.FundRecord, len(r.Funds))
	for i, f := range r.Funds {
		f.Code = strings.TrimSpace(f.Code)
		if f.RiskLevel == "" {
			f.RiskLevel = model.RiskMedium
		}
		if f.Name == "" {
			f.Name = f.Code
		}
		out[i] = f
	}
	return out
}

package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ndewijer/Fund-Advisor-Backend/internal/model"
)

// maxPromptCandidates bounds how many funds are sent to the model.
const maxPromptCandidates = 10

type promptFund struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	RiskLevel        string   `json:"riskLevel"`
	OneYearReturn    float64  `json:"oneYearReturn"`
	ThreeYearReturn  float64  `json:"threeYearReturn"`
	DayChangePercent float64  `json:"dayChangePercent"`
	ExcessReturn     *float64 `json:"excessReturn,omitempty"`
}

const responseSchema = `{
  "recommendations": ["code1", "code2", "code3"],
  "analysisReport": [
    {
      "code": "fund code",
      "name": "fund name",
      "score": 0,
      "reasons": ["reason 1", "reason 2", "reason 3"],
      "analysis": "detailed analysis of why the fund is worth buying (100-200 words)"
    }
  ],
  "marketAnalysis": "overall market analysis and investment advice (150-250 words)"
}`

// buildPrompt renders the analysis request for the given candidates, which must
// already be capped at maxPromptCandidates.
func buildPrompt(candidates []model.ScoredFund, baselines *model.Baselines) (string, error) {
	view := make([]promptFund, len(candidates))
	for i, c := range candidates {
		view[i] = promptFund{
			Code:             c.Code,
			Name:             c.Name,
			Category:         string(c.Category),
			RiskLevel:        string(c.RiskLevel),
			OneYearReturn:    c.OneYearReturn,
			ThreeYearReturn:  c.ThreeYearReturn,
			DayChangePercent: c.DayChangePercent,
			ExcessReturn:     c.ExcessReturn,
		}
	}
	funds, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "As a professional fund analyst, analyze the following %d funds and recommend the %d that are most worth buying.\n\n", len(candidates), min(topN, len(candidates)))
	sb.WriteString("Fund data:\n")
	sb.Write(funds)
	sb.WriteString("\n\n")

	if baselines.Available() {
		averages, err := json.MarshalIndent(baselines.Categories, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode baselines: %w", err)
		}
		sb.WriteString("Category average returns derived from market indices (percent):\n")
		sb.Write(averages)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Evaluate each fund on:\n")
	sb.WriteString("- historical performance (1-year and 3-year return)\n")
	sb.WriteString("- risk-adjusted return given its risk level\n")
	sb.WriteString("- performance relative to its category average\n")
	sb.WriteString("- fund category and fit with current market conditions\n\n")
	sb.WriteString("Only recommend codes from the fund data above. Respond with a single JSON object in exactly this format:\n")
	sb.WriteString(responseSchema)
	sb.WriteString("\n\nKeep the analysis objective and include concrete risk warnings.\n")

	return sb.String(), nil
}

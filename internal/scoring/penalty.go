package scoring

import (
	"strings"

	"github.com/bnema/refine-cli/internal/domain"
)

// PenaltyRule lowers Metric by Amount when any of Phrases appears in the
// critique (case-insensitive). Rules only touch metrics that were parsed.
type PenaltyRule struct {
	Phrases []string
	Metric  string
	Amount  float64
}

func (r PenaltyRule) matches(lowerText string) bool {
	for _, phrase := range r.Phrases {
		if phrase != "" && strings.Contains(lowerText, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// DefaultPenalties is the tunable rule set applied by NewParser.
func DefaultPenalties() []PenaltyRule {
	return []PenaltyRule{
		{
			Phrases: []string{"duplicate view", "repeated angle", "same angle"},
			Metric:  domain.MetricCoverageDiversity,
			Amount:  1.5,
		},
		{
			Phrases: []string{"misaligned grid", "uneven grid", "inconsistent proportions"},
			Metric:  domain.MetricStructuralConsistency,
			Amount:  1.5,
		},
		{
			Phrases: []string{"different object", "identity drift", "changes shape"},
			Metric:  domain.MetricObjectIdentity,
			Amount:  2.0,
		},
		{
			Phrases: []string{"cluttered background", "extra objects", "watermark"},
			Metric:  domain.MetricBackgroundCleanliness,
			Amount:  1.0,
		},
		{
			Phrases: []string{"cut off", "cropped", "missing view"},
			Metric:  domain.MetricCompleteness,
			Amount:  1.0,
		},
	}
}

func applyPenalties(scores map[string]float64, text string, rules []PenaltyRule) {
	if len(rules) == 0 {
		return
	}
	lower := strings.ToLower(text)
	for _, rule := range rules {
		current, ok := scores[rule.Metric]
		if !ok || rule.Amount <= 0 || !rule.matches(lower) {
			continue
		}
		scores[rule.Metric] = current - rule.Amount
	}
}

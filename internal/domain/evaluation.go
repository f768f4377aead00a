package domain

import "math"

const (
	MinScore = 1.0
	MaxScore = 10.0

	MetricOverall               = "overall"
	MetricImageQuality          = "image_quality"
	MetricStructuralConsistency = "structural_consistency"
	MetricCoverageDiversity     = "coverage_diversity"
	MetricLightingConsistency   = "lighting_consistency"
	MetricBackgroundCleanliness = "background_cleanliness"
	MetricObjectIdentity        = "object_identity"
	MetricCompleteness          = "completeness"
)

// TrackedMetrics lists the metrics the evaluator is asked to score, in prompt order.
var TrackedMetrics = []string{
	MetricImageQuality,
	MetricStructuralConsistency,
	MetricCoverageDiversity,
	MetricLightingConsistency,
	MetricBackgroundCleanliness,
	MetricObjectIdentity,
	MetricCompleteness,
}

type EvaluationResult struct {
	Scores      map[string]float64
	Issues      []string
	Suggestions []string
	// Fallback is set when the scores were synthesized because nothing could be
	// parsed from the critique (or the evaluator never answered).
	Fallback bool
	RawText  string
}

func (e EvaluationResult) Overall() float64 {
	return e.Scores[MetricOverall]
}

func (e EvaluationResult) Clone() EvaluationResult {
	out := e
	if e.Scores != nil {
		out.Scores = make(map[string]float64, len(e.Scores))
		for k, v := range e.Scores {
			out.Scores[k] = v
		}
	}
	out.Issues = append([]string(nil), e.Issues...)
	out.Suggestions = append([]string(nil), e.Suggestions...)
	return out
}

// ClampScore bounds v to [MinScore, MaxScore]. NaN maps to MinScore.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

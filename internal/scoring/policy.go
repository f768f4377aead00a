package scoring

import (
	"math"

	"github.com/bnema/refine-cli/internal/domain"
)

// Thresholds are the acceptance bounds used by Policy.
type Thresholds struct {
	Overall         float64
	Critical        float64
	Floor           float64
	CriticalMetrics []string
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Overall:  8.0,
		Critical: 8.0,
		Floor:    7.0,
		CriticalMetrics: []string{
			domain.MetricStructuralConsistency,
			domain.MetricCoverageDiversity,
		},
	}
}

// WithDefaults replaces non-positive bounds and an empty critical set with
// DefaultThresholds values. A bound can be tightened or loosened but never
// removed.
func (t Thresholds) WithDefaults() Thresholds {
	def := DefaultThresholds()
	if !(t.Overall > 0) {
		t.Overall = def.Overall
	}
	if !(t.Critical > 0) {
		t.Critical = def.Critical
	}
	if !(t.Floor > 0) {
		t.Floor = def.Floor
	}
	if len(t.CriticalMetrics) == 0 {
		t.CriticalMetrics = def.CriticalMetrics
	} else {
		normalized := make([]string, 0, len(t.CriticalMetrics))
		for _, name := range t.CriticalMetrics {
			if key := MetricKey(name); key != "" {
				normalized = append(normalized, key)
			}
		}
		if len(normalized) == 0 {
			normalized = def.CriticalMetrics
		}
		t.CriticalMetrics = normalized
	}
	return t
}

type Policy struct {
	thresholds Thresholds
}

func NewPolicy(t Thresholds) Policy {
	return Policy{thresholds: t.WithDefaults()}
}

func (p Policy) Thresholds() Thresholds {
	return p.thresholds
}

// IsSatisfied fails closed: a missing overall or critical metric, or any
// non-finite value, rejects the map.
func (p Policy) IsSatisfied(scores map[string]float64) bool {
	t := p.thresholds
	if len(t.CriticalMetrics) == 0 {
		t = t.WithDefaults()
	}

	overall, ok := scores[domain.MetricOverall]
	if !ok || !passes(overall, t.Overall) {
		return false
	}

	critical := make(map[string]struct{}, len(t.CriticalMetrics))
	for _, name := range t.CriticalMetrics {
		critical[name] = struct{}{}
		value, ok := scores[name]
		if !ok || !passes(value, t.Critical) {
			return false
		}
	}

	for name, value := range scores {
		if name == domain.MetricOverall {
			continue
		}
		if _, isCritical := critical[name]; isCritical {
			continue
		}
		if !passes(value, t.Floor) {
			return false
		}
	}
	return true
}

func passes(value, threshold float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value >= threshold
}

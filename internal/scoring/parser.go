// Package scoring turns free-text evaluator critiques into structured scores
// and decides whether those scores are good enough to stop refining.
package scoring

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/bnema/refine-cli/internal/domain"
)

const (
	// FallbackScore is assigned to every tracked metric when a critique yields
	// no parsable score.
	FallbackScore = 5.0

	FallbackIssue = "Evaluation could not be parsed; scores are neutral placeholders."

	issuesHeader      = "issues found"
	suggestionsHeader = "suggestions for improvement"
	scoreSuffix       = "/10"
)

type section int

const (
	sectionNone section = iota
	sectionIssues
	sectionSuggestions
)

// Parser extracts an EvaluationResult from evaluator text. The zero value is
// usable and applies no penalties.
type Parser struct {
	Penalties []PenaltyRule
}

func NewParser() Parser {
	return Parser{Penalties: DefaultPenalties()}
}

// Parse never fails: malformed lines are skipped and a critique with no
// scores at all yields Fallback().
func (p Parser) Parse(text string) domain.EvaluationResult {
	scores := map[string]float64{}
	var issues, suggestions []string
	current := sectionNone

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if name, value, ok := parseScoreLine(line); ok {
			scores[name] = value
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, issuesHeader):
			current = sectionIssues
			continue
		case strings.Contains(lower, suggestionsHeader):
			current = sectionSuggestions
			continue
		}

		item := stripBullet(line)
		if item == "" {
			continue
		}
		switch current {
		case sectionIssues:
			issues = append(issues, item)
		case sectionSuggestions:
			suggestions = append(suggestions, item)
		}
	}

	if len(scores) == 0 {
		result := Fallback()
		result.RawText = text
		return result
	}

	applyPenalties(scores, text, p.Penalties)

	if _, ok := scores[domain.MetricOverall]; !ok {
		scores[domain.MetricOverall] = mean(scores)
	}
	for name, value := range scores {
		scores[name] = domain.ClampScore(value)
	}

	return domain.EvaluationResult{
		Scores:      scores,
		Issues:      issues,
		Suggestions: suggestions,
		RawText:     text,
	}
}

// Fallback is the neutral result used when a critique is unusable or the
// evaluator never answered.
func Fallback() domain.EvaluationResult {
	scores := make(map[string]float64, len(domain.TrackedMetrics)+1)
	for _, metric := range domain.TrackedMetrics {
		scores[metric] = FallbackScore
	}
	scores[domain.MetricOverall] = FallbackScore

	return domain.EvaluationResult{
		Scores:   scores,
		Issues:   []string{FallbackIssue},
		Fallback: true,
	}
}

func parseScoreLine(line string) (string, float64, bool) {
	if !strings.Contains(line, ":") || !strings.Contains(line, scoreSuffix) {
		return "", 0, false
	}

	label, rest, _ := strings.Cut(line, ":")
	name := MetricKey(label)
	if name == "" {
		return "", 0, false
	}

	numeric, _, _ := strings.Cut(rest, scoreSuffix)
	numeric = strings.Trim(strings.TrimSpace(numeric), "*_")
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return "", 0, false
	}

	return name, value, true
}

// MetricKey normalizes a critique label like "**Structural Consistency**" to
// "structural_consistency".
func MetricKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "_")
}

func stripBullet(line string) string {
	for _, bullet := range []string{"-", "•", "*"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(strings.TrimPrefix(line, bullet))
		}
	}
	return line
}

func mean(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

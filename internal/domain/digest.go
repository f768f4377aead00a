package domain

import (
	"fmt"
	"strings"
)

type IssueCategory string

const (
	CategoryLighting      IssueCategory = "lighting"
	CategoryAngleCoverage IssueCategory = "angle coverage"
	CategoryGridLayout    IssueCategory = "grid/layout"
	CategoryBackground    IssueCategory = "background/extra elements"
	CategoryIdentityDrift IssueCategory = "object identity drift"
	CategoryCompleteness  IssueCategory = "completeness"
)

type CategoryCount struct {
	Category IssueCategory
	Count    int
}

// FeedbackDigest summarizes prior iterations to bias the next generation.
type FeedbackDigest struct {
	ScoreTrend       []float64
	Improving        bool
	Recurring        []IssueCategory
	TopCategories    []CategoryCount
	RecommendedFocus []IssueCategory
}

func (d FeedbackDigest) Empty() bool {
	return len(d.ScoreTrend) == 0 && len(d.TopCategories) == 0
}

func (d FeedbackDigest) IsRecurring(c IssueCategory) bool {
	for _, r := range d.Recurring {
		if r == c {
			return true
		}
	}
	return false
}

// Instructions renders the digest as text for a generation prompt.
func (d FeedbackDigest) Instructions() string {
	if d.Empty() {
		return ""
	}

	var b strings.Builder
	if len(d.ScoreTrend) > 0 {
		trend := make([]string, 0, len(d.ScoreTrend))
		for _, s := range d.ScoreTrend {
			trend = append(trend, fmt.Sprintf("%.1f", s))
		}
		direction := "not improving"
		if d.Improving {
			direction = "improving"
		}
		fmt.Fprintf(&b, "Score trend: %s (%s).\n", strings.Join(trend, " -> "), direction)
	}
	if len(d.Recurring) > 0 {
		names := make([]string, 0, len(d.Recurring))
		for _, c := range d.Recurring {
			names = append(names, string(c))
		}
		fmt.Fprintf(&b, "Recurring problems: %s.\n", strings.Join(names, ", "))
	}
	if len(d.RecommendedFocus) > 0 {
		names := make([]string, 0, len(d.RecommendedFocus))
		for _, c := range d.RecommendedFocus {
			names = append(names, string(c))
		}
		fmt.Fprintf(&b, "Focus this attempt on: %s.\n", strings.Join(names, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

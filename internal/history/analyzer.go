// Package history folds prior iterations into a digest that steers the next
// generation attempt.
package history

import (
	"sort"
	"strings"

	"github.com/bnema/refine-cli/internal/domain"
)

const (
	DefaultTopN               = 3
	DefaultFocusN             = 2
	DefaultRecurringThreshold = 2
	// MinRecords is the number of evaluated iterations needed before a digest
	// carries useful history.
	MinRecords = 2
)

// Category pairs an issue category with the keywords that identify it.
type Category struct {
	Name     domain.IssueCategory
	Keywords []string
}

func DefaultVocabulary() []Category {
	return []Category{
		{Name: domain.CategoryLighting, Keywords: []string{"lighting", "shadow", "exposure", "brightness", "highlight"}},
		{Name: domain.CategoryAngleCoverage, Keywords: []string{"angle", "viewpoint", "perspective", "rotation", "coverage"}},
		{Name: domain.CategoryGridLayout, Keywords: []string{"grid", "layout", "panel", "alignment", "spacing"}},
		{Name: domain.CategoryBackground, Keywords: []string{"background", "clutter", "extra element", "extra object", "watermark"}},
		{Name: domain.CategoryIdentityDrift, Keywords: []string{"identity", "drift", "different object", "inconsistent object", "changes shape"}},
		{Name: domain.CategoryCompleteness, Keywords: []string{"complete", "missing", "cut off", "cropped", "partial"}},
	}
}

type Options struct {
	TopN               int
	FocusN             int
	RecurringThreshold int
	Vocabulary         []Category
}

type Analyzer struct {
	opts Options
}

func NewAnalyzer(opts Options) Analyzer {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.FocusN <= 0 {
		opts.FocusN = DefaultFocusN
	}
	if opts.FocusN > opts.TopN {
		opts.FocusN = opts.TopN
	}
	if opts.RecurringThreshold <= 0 {
		opts.RecurringThreshold = DefaultRecurringThreshold
	}
	if len(opts.Vocabulary) == 0 {
		opts.Vocabulary = DefaultVocabulary()
	}
	return Analyzer{opts: opts}
}

// Summarize scans records in order. Records without an evaluation contribute
// neither to the trend nor to category counts.
func (a Analyzer) Summarize(records []domain.IterationRecord) domain.FeedbackDigest {
	if len(a.opts.Vocabulary) == 0 {
		a = NewAnalyzer(a.opts)
	}

	counts := make([]int, len(a.opts.Vocabulary))
	var digest domain.FeedbackDigest

	for _, record := range records {
		if record.Evaluation == nil {
			continue
		}
		digest.ScoreTrend = append(digest.ScoreTrend, record.Evaluation.Overall())

		text := strings.ToLower(strings.Join(append(append([]string(nil), record.Evaluation.Issues...), record.Evaluation.Suggestions...), "\n"))
		for i, category := range a.opts.Vocabulary {
			if containsAny(text, category.Keywords) {
				counts[i]++
			}
		}
	}

	if n := len(digest.ScoreTrend); n >= 2 {
		digest.Improving = digest.ScoreTrend[n-1] > digest.ScoreTrend[n-2]
	}

	ranked := make([]domain.CategoryCount, 0, len(counts))
	for i, category := range a.opts.Vocabulary {
		if counts[i] == 0 {
			continue
		}
		ranked = append(ranked, domain.CategoryCount{Category: category.Name, Count: counts[i]})
		if counts[i] >= a.opts.RecurringThreshold {
			digest.Recurring = append(digest.Recurring, category.Name)
		}
	}
	// Stable keeps vocabulary order among equal counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > a.opts.TopN {
		ranked = ranked[:a.opts.TopN]
	}
	if len(ranked) > 0 {
		digest.TopCategories = ranked
	}
	for i := 0; i < len(ranked) && i < a.opts.FocusN; i++ {
		digest.RecommendedFocus = append(digest.RecommendedFocus, ranked[i].Category)
	}

	return digest
}

// ShouldSummarize reports whether enough evaluated history exists to build a
// digest before the next iteration.
func ShouldSummarize(records []domain.IterationRecord) bool {
	evaluated := 0
	for _, record := range records {
		if record.Evaluation != nil {
			evaluated++
		}
	}
	return evaluated >= MinRecords
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

package application

import (
	"sort"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
)

type SessionSummary struct {
	ID                domain.SessionID
	TargetDescription string
	Mode              domain.Mode
	Status            domain.SessionStatus
	CurrentIteration  int
	MaxIterations     int
	LatestOverall     *float64
	UpdatedAt         time.Time
}

func summarize(session domain.Session) SessionSummary {
	summary := SessionSummary{
		ID:                session.ID,
		TargetDescription: session.TargetDescription,
		Mode:              session.Mode,
		Status:            session.Status,
		CurrentIteration:  session.CurrentIteration,
		MaxIterations:     session.MaxIterations,
		UpdatedAt:         session.UpdatedAt,
	}
	if latest, ok := session.Latest(); ok && latest.Evaluation != nil {
		overall := latest.Evaluation.Overall()
		summary.LatestOverall = &overall
	}
	return summary
}

func sortSummaries(summaries []SessionSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}

package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

type RenderOptions struct {
	// Now enables relative timestamps. Zero renders absolute times.
	Now time.Time
}

func RenderSessions(summaries []application.SessionSummary, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return sessionsView(summaries, opts, s) })
}

func RenderSession(session domain.Session, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return sessionView(session, opts, s) })
}

func RenderJob(record domain.JobRecord, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return jobView(record, opts, s) })
}

func sessionsView(summaries []application.SessionSummary, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Refinement Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(summaries))),
	}
	if len(summaries) == 0 {
		lines = append(lines, s.empty.Render("No sessions running."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, summary := range summaries {
		overall := "n/a"
		if summary.LatestOverall != nil {
			overall = fmt.Sprintf("%.1f", *summary.LatestOverall)
		}
		parts := []string{
			s.session.Render(fmt.Sprintf("%s (%s)", strings.TrimSpace(summary.TargetDescription), summary.ID)),
			s.detail.Render(fmt.Sprintf("%s  %s  iteration %d/%d  overall %s  %s",
				statusLabel(string(summary.Status), summary.Status.Terminal(), summary.Status == domain.SessionCompleted, s),
				summary.Mode,
				summary.CurrentIteration,
				summary.MaxIterations,
				overall,
				formatUpdated(summary.UpdatedAt, opts.Now),
			)),
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionView(session domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Session %s", session.ID)),
		s.session.Render(strings.TrimSpace(session.TargetDescription)),
		s.detail.Render(fmt.Sprintf("status: %s  mode: %s  iteration %d/%d  %s",
			statusLabel(string(session.Status), session.Status.Terminal(), session.Status == domain.SessionCompleted, s),
			session.Mode,
			session.CurrentIteration,
			session.MaxIterations,
			formatUpdated(session.UpdatedAt, opts.Now),
		)),
	}
	if session.ErrorMessage != "" {
		lines = append(lines, s.warning.Render("error: "+session.ErrorMessage))
	}
	if session.PendingUserFeedback != nil {
		feedback := strings.TrimSpace(*session.PendingUserFeedback)
		if feedback == "" {
			feedback = "(continue)"
		}
		lines = append(lines, s.detail.Render("pending feedback: "+feedback))
	}

	if len(session.Iterations) == 0 {
		lines = append(lines, s.empty.Render("No iterations yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, record := range session.Iterations {
		lines = append(lines, s.section.Render(iterationBlock(record, s)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func iterationBlock(record domain.IterationRecord, s styles) string {
	parts := []string{
		s.session.Render(fmt.Sprintf("Iteration %d", record.Iteration)),
		s.detail.Render("artifact: " + record.ArtifactReference),
	}
	if record.Evaluation == nil {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("not evaluated"))...)
	}

	eval := record.Evaluation
	overall := scoreLine("overall", eval.Overall(), s)
	if eval.Fallback {
		overall += " " + s.warning.Render("[fallback]")
	}
	parts = append(parts, overall)
	for _, metric := range domain.TrackedMetrics {
		if value, ok := eval.Scores[metric]; ok {
			parts = append(parts, scoreLine(metric, value, s))
		}
	}
	parts = append(parts, listLines("issues", eval.Issues, s)...)
	parts = append(parts, listLines("suggestions", eval.Suggestions, s)...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func jobView(record domain.JobRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Job %s", record.ID)),
		s.detail.Render(fmt.Sprintf("status: %s  %s",
			statusLabel(string(record.Status), record.Status.Terminal(), record.Status == domain.JobCompleted, s),
			formatUpdated(record.UpdatedAt, opts.Now),
		)),
		s.detail.Render(fmt.Sprintf("input: session %s iteration %d", record.Input.SessionID, record.Input.Iteration)),
	}
	if record.ExternalTaskID != "" {
		lines = append(lines, s.detail.Render("task: "+record.ExternalTaskID))
	}
	lines = append(lines, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.metricKey.Render("progress:"),
		" ",
		renderProgressBar(float64(record.Progress), barWidth, s),
		" ",
		s.detail.Render(fmt.Sprintf("%3d%%", record.Progress)),
	))
	if record.ResultReference != "" {
		lines = append(lines, s.success.Render("result: "+record.ResultReference))
	}
	if record.ErrorMessage != "" {
		lines = append(lines, s.warning.Render(record.ErrorMessage))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func scoreLine(metric string, value float64, s styles) string {
	percent := (value - domain.MinScore) / (domain.MaxScore - domain.MinScore) * 100
	scoreStyle := lipgloss.NewStyle().Foreground(interpolateColor(value, domain.MinScore, domain.MaxScore))
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.metricKey.Render(fmt.Sprintf("%-23s", metric+":")),
		" ",
		renderProgressBar(percent, barWidth, s),
		" ",
		scoreStyle.Render(fmt.Sprintf("%4.1f", value)),
	)
}

func listLines(label string, items []string, s styles) []string {
	if len(items) == 0 {
		return nil
	}
	lines := []string{s.metricKey.Render(label + ":")}
	for _, item := range items {
		lines = append(lines, s.listItem.Render("  - "+item))
	}
	return lines
}

func statusLabel(status string, terminal, succeeded bool, s styles) string {
	switch {
	case succeeded:
		return s.success.Render(status)
	case terminal:
		return s.warning.Render(status)
	default:
		return s.detail.Render(status)
	}
}

func renderProgressBar(filledPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(filledPercent) / 100.0))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatUpdated(updatedAt, now time.Time) string {
	if updatedAt.IsZero() {
		return ""
	}
	if now.IsZero() {
		return "updated " + updatedAt.Format(time.RFC3339)
	}

	elapsed := now.Sub(updatedAt)
	switch {
	case elapsed < time.Minute:
		return "updated just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("updated %dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("updated %dh ago", int(elapsed.Hours()))
	default:
		return "updated " + updatedAt.Format("15:04 on 02 Jan")
	}
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	baseColor := 240.0
	targetColor := 255.0
	return lipgloss.Color(fmt.Sprintf("%d", int(baseColor+(targetColor-baseColor)*normalized)))
}

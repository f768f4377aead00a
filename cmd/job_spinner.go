package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type jobTrackDoneMsg struct {
	record domain.JobRecord
	err    error
}

type jobSpinnerModel struct {
	spinner spinner.Model
	label   string
	status  func() string
	track   tea.Cmd
	record  domain.JobRecord
	err     error
	done    bool
}

// newJobSpinnerModel refreshes the status suffix on every spinner tick.
func newJobSpinnerModel(label string, status func() string, track tea.Cmd) jobSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return jobSpinnerModel{
		spinner: s,
		label:   label,
		status:  status,
		track:   track,
	}
}

func (m jobSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.track)
}

func (m jobSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobTrackDoneMsg:
		m.done = true
		m.record = msg.record
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m jobSpinnerModel) View() string {
	if m.done {
		return ""
	}

	label := m.label
	if m.status != nil {
		if suffix := m.status(); suffix != "" {
			label += " " + suffix
		}
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), label)
}

func runJobSpinner(ctx context.Context, output io.Writer, label string, status func() string, track func(context.Context) (domain.JobRecord, error)) (domain.JobRecord, error) {
	trackCmd := func() tea.Msg {
		record, err := track(ctx)
		return jobTrackDoneMsg{record: record, err: err}
	}

	p := tea.NewProgram(
		newJobSpinnerModel(label, status, trackCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return domain.JobRecord{}, err
	}

	result, ok := finalModel.(jobSpinnerModel)
	if !ok {
		return domain.JobRecord{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.record, result.err
}

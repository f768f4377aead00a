package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	statusadapter "github.com/bnema/refine-cli/internal/adapters/render/status"
	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/spf13/cobra"
)

const jobStatusRefresh = 500 * time.Millisecond

func newJobCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Submit and track 3D reconstruction jobs",
	}
	cmd.AddCommand(newJobSubmitCmd(state), newJobResumeCmd(state), newJobStatusCmd(state))
	return cmd
}

func newJobSubmitCmd(state *cliState) *cobra.Command {
	var (
		sessionID string
		iteration int
		detach    bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a session iteration for reconstruction and wait for the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := state.app
			if err := a.require(keyReconstruction); err != nil {
				return err
			}
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}

			record, err := a.service.CreateJob(cmd.Context(), application.SubmitJobCommand{
				SessionID: domain.SessionID(sessionID),
				Iteration: iteration,
			})
			if err != nil {
				return err
			}
			if detach {
				if asJSON {
					return writeJobJSON(cmd.OutOrStdout(), record)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "job: %s (run `rfn job resume %s` to track it)\n", record.ID, record.ID)
				return err
			}
			return trackJob(cmd, a, record.ID, asJSON)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id whose artifact to reconstruct")
	cmd.Flags().IntVar(&iteration, "iteration", 0, "Iteration to reconstruct (default: latest)")
	cmd.Flags().BoolVar(&detach, "detach", false, "Record the job without submitting or tracking it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")

	return cmd
}

func newJobResumeCmd(state *cliState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "resume <job-id>",
		Aliases: []string{"track"},
		Short:   "Track a stored job until it finishes, without resubmitting accepted work",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := state.app
			if err := a.require(keyReconstruction); err != nil {
				return err
			}
			return trackJob(cmd, a, domain.JobID(args[0]), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")

	return cmd
}

func newJobStatusCmd(state *cliState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a stored job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := state.app.service.GetJobStatus(cmd.Context(), domain.JobID(args[0]))
			if err != nil {
				return err
			}
			return writeJob(cmd, record, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")

	return cmd
}

func trackJob(cmd *cobra.Command, a *app, id domain.JobID, asJSON bool) error {
	track := func(ctx context.Context) (domain.JobRecord, error) {
		return a.service.TrackJob(ctx, id)
	}

	var (
		record domain.JobRecord
		err    error
	)
	if asJSON {
		record, err = track(cmd.Context())
	} else {
		label := fmt.Sprintf("Tracking job %s...", id)
		record, err = runJobSpinner(cmd.Context(), cmd.ErrOrStderr(), label, jobProgress(cmd.Context(), a, id), track)
	}
	if err != nil {
		return err
	}
	return writeJob(cmd, record, asJSON)
}

// jobProgress reads the stored record at most once per jobStatusRefresh.
func jobProgress(ctx context.Context, a *app, id domain.JobID) func() string {
	var (
		mu      sync.Mutex
		last    time.Time
		current string
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if time.Since(last) < jobStatusRefresh {
			return current
		}
		last = time.Now()
		if record, err := a.records.GetJob(ctx, id); err == nil {
			current = fmt.Sprintf("%s %d%%", record.Status, record.Progress)
		}
		return current
	}
}

func writeJob(cmd *cobra.Command, record domain.JobRecord, asJSON bool) error {
	if asJSON {
		return writeJobJSON(cmd.OutOrStdout(), record)
	}
	output, err := statusadapter.RenderJob(record, statusadapter.RenderOptions{Now: time.Now()})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}

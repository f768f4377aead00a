package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	statusadapter "github.com/bnema/refine-cli/internal/adapters/render/status"
	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/spf13/cobra"
	"goa.design/clue/log"
)

const (
	stopCommand         = "/stop"
	refinePollInterval  = 50 * time.Millisecond
	feedbackPromptLabel = "feedback (enter to continue, /stop to finish)> "
)

func newRefineCmd(state *cliState) *cobra.Command {
	var (
		modeRaw    string
		noFeedback bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "refine <target description>",
		Short: "Run a refinement session in the foreground",
		Long:  "Generates, evaluates and refines an image for the target description. Between iterations rfn waits for a line of feedback on stdin: an empty line continues, /stop ends the session.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := state.app
			if err := a.require(keyOpenAI, keyAnthropic); err != nil {
				return err
			}
			mode, err := domain.ParseMode(modeRaw)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(strings.Join(args, " "))
			if target == "" {
				return errors.New("target description is required")
			}

			ctx := cmd.Context()
			session, err := a.service.StartSession(ctx, application.StartSessionCommand{
				TargetDescription: target,
				Mode:              mode,
				AwaitFeedback:     a.cfg.Refine.AwaitFeedback && !noFeedback,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", session.ID)

			final, err := followSession(ctx, a.service, session.ID, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if asJSON {
				return writeSessionJSON(cmd.OutOrStdout(), final)
			}
			output, err := statusadapter.RenderSession(final, statusadapter.RenderOptions{})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
	cmd.Flags().StringVar(&modeRaw, "mode", string(domain.ModeQuick), "Refinement mode: quick or deep")
	cmd.Flags().BoolVar(&noFeedback, "no-feedback", false, "Run every iteration without pausing for feedback")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final session as JSON")

	return cmd
}

// sessionDriver is the part of the service followSession needs.
type sessionDriver interface {
	GetSessionStatus(ctx context.Context, id domain.SessionID) (domain.Session, error)
	SubmitFeedback(ctx context.Context, id domain.SessionID, text string) (domain.Session, error)
	StopSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
}

// followSession prints iterations as they land and answers feedback waits
// from in until the session is terminal. Once in is exhausted every wait is
// answered with an empty "continue". Cancelling ctx stops the session.
func followSession(ctx context.Context, svc sessionDriver, id domain.SessionID, in io.Reader, out io.Writer) (domain.Session, error) {
	lines := bufio.NewScanner(in)
	inputDone := false
	printed := 0
	prompted := 0

	ticker := time.NewTicker(refinePollInterval)
	defer ticker.Stop()

	for {
		session, err := svc.GetSessionStatus(ctx, id)
		if err != nil && ctx.Err() == nil {
			return domain.Session{}, err
		}
		if ctx.Err() != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "interrupted, stopping session"}, log.KV{K: "session", V: string(id)})
			return svc.StopSession(context.WithoutCancel(ctx), id)
		}

		// an iteration is printed once its evaluation is attached
		for ; printed < len(session.Iterations); printed++ {
			record := session.Iterations[printed]
			if record.Evaluation == nil && !session.Status.Terminal() {
				break
			}
			_, _ = fmt.Fprintln(out, iterationLine(session, record))
		}
		if session.Status.Terminal() {
			return session, nil
		}

		if session.Status == domain.SessionWaitingForFeedback && session.PendingUserFeedback == nil && session.CurrentIteration > prompted {
			prompted = session.CurrentIteration
			text := ""
			if !inputDone {
				_, _ = fmt.Fprint(out, feedbackPromptLabel)
				if lines.Scan() {
					text = strings.TrimSpace(lines.Text())
				} else {
					inputDone = true
					_, _ = fmt.Fprintln(out)
				}
			}
			if text == stopCommand {
				if _, err := svc.StopSession(ctx, id); err != nil {
					return domain.Session{}, err
				}
				continue
			}
			if _, err := svc.SubmitFeedback(ctx, id, text); err != nil && !errors.Is(err, domain.ErrSessionTerminal) {
				return domain.Session{}, err
			}
			continue
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func iterationLine(session domain.Session, record domain.IterationRecord) string {
	overall := "n/a"
	var marker string
	if record.Evaluation != nil {
		overall = fmt.Sprintf("%.1f", record.Evaluation.Overall())
		if record.Evaluation.Fallback {
			marker = " [fallback]"
		}
	}
	return fmt.Sprintf("iteration %d/%d  overall %s%s  %s", record.Iteration, session.MaxIterations, overall, marker, record.ArtifactReference)
}

// Package lognotify publishes feedback prompts as structured log entries.
package lognotify

import (
	"context"
	"strings"

	"github.com/bnema/refine-cli/internal/ports"
	"goa.design/clue/log"
)

type Notifier struct{}

var _ ports.FeedbackNotifier = Notifier{}

func New() Notifier {
	return Notifier{}
}

func (Notifier) Notify(ctx context.Context, prompt ports.FeedbackPrompt) error {
	fields := []log.Fielder{
		log.KV{K: "msg", V: "awaiting feedback"},
		log.KV{K: "session_id", V: string(prompt.SessionID)},
		log.KV{K: "iteration", V: prompt.Iteration},
		log.KV{K: "max_iterations", V: prompt.MaxIterations},
		log.KV{K: "artifact", V: prompt.ArtifactReference},
		log.KV{K: "overall", V: prompt.Evaluation.Overall()},
	}
	if prompt.Evaluation.Fallback {
		fields = append(fields, log.KV{K: "fallback", V: true})
	}
	if len(prompt.Evaluation.Issues) > 0 {
		fields = append(fields, log.KV{K: "issues", V: strings.Join(prompt.Evaluation.Issues, "; ")})
	}
	log.Info(ctx, fields...)
	return nil
}

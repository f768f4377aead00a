// Package redisnotify publishes feedback prompts on a Redis pub/sub channel so
// a separate process (UI, bot, another CLI) can answer them.
package redisnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/refine-cli/internal/ports"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "rfn:feedback"

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type Notifier struct {
	rdb     publisher
	channel string
}

var _ ports.FeedbackNotifier = (*Notifier)(nil)

// Message is the JSON payload published for each prompt.
type Message struct {
	SessionID     string             `json:"session_id"`
	Iteration     int                `json:"iteration"`
	MaxIterations int                `json:"max_iterations"`
	Artifact      string             `json:"artifact"`
	Scores        map[string]float64 `json:"scores"`
	Issues        []string           `json:"issues,omitempty"`
	Suggestions   []string           `json:"suggestions,omitempty"`
	Fallback      bool               `json:"fallback,omitempty"`
}

func New(rdb *redis.Client, channel string) (*Notifier, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	return newNotifier(rdb, channel), nil
}

func newNotifier(rdb publisher, channel string) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{rdb: rdb, channel: channel}
}

func (n *Notifier) Notify(ctx context.Context, prompt ports.FeedbackPrompt) error {
	payload, err := json.Marshal(Message{
		SessionID:     string(prompt.SessionID),
		Iteration:     prompt.Iteration,
		MaxIterations: prompt.MaxIterations,
		Artifact:      prompt.ArtifactReference,
		Scores:        prompt.Evaluation.Scores,
		Issues:        prompt.Evaluation.Issues,
		Suggestions:   prompt.Evaluation.Suggestions,
		Fallback:      prompt.Evaluation.Fallback,
	})
	if err != nil {
		return fmt.Errorf("encode feedback prompt: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish feedback prompt to %s: %w", n.channel, err)
	}
	return nil
}

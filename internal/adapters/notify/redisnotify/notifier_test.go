package redisnotify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	cmd := redis.NewIntCmd(context.Background())
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.sent = append(f.sent, published{channel: channel, payload: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

func TestNotifyPublishesPrompt(t *testing.T) {
	fake := &fakePublisher{}
	notifier := newNotifier(fake, "")

	err := notifier.Notify(context.Background(), ports.FeedbackPrompt{
		SessionID:         "s-1",
		Iteration:         1,
		MaxIterations:     6,
		ArtifactReference: "img-1",
		Evaluation: domain.EvaluationResult{
			Scores:      map[string]float64{domain.MetricOverall: 7.25},
			Suggestions: []string{"tighten framing"},
		},
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, DefaultChannel, fake.sent[0].channel)

	var msg Message
	require.NoError(t, json.Unmarshal(fake.sent[0].payload, &msg))
	assert.Equal(t, "s-1", msg.SessionID)
	assert.Equal(t, 6, msg.MaxIterations)
	assert.Equal(t, 7.25, msg.Scores[domain.MetricOverall])
	assert.Equal(t, []string{"tighten framing"}, msg.Suggestions)
	assert.False(t, msg.Fallback)
}

func TestNotifyWrapsPublishError(t *testing.T) {
	notifier := newNotifier(&fakePublisher{err: errors.New("broken pipe")}, "custom")

	err := notifier.Notify(context.Background(), ports.FeedbackPrompt{SessionID: "s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom")
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, "")
	require.Error(t, err)
}

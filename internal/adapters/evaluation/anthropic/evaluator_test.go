package anthropic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	calls      int
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.calls++
	s.lastParams = body
	return s.resp, s.err
}

func TestEvaluateReturnsCritiqueText(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Image Quality: 8/10\nOverall: 7.5/10"},
			{Type: "text", Text: "Issues Found:\n- slight blur"},
		},
	}}
	eval, err := New(stub, Options{})
	require.NoError(t, err)

	text, err := eval.Evaluate(context.Background(), "https://cdn.example/img-1.png", "ceramic vase")
	require.NoError(t, err)
	assert.Equal(t, "Image Quality: 8/10\nOverall: 7.5/10\nIssues Found:\n- slight blur", text)

	assert.Equal(t, sdk.Model(DefaultModel), stub.lastParams.Model)
	assert.Equal(t, int64(DefaultMaxTokens), stub.lastParams.MaxTokens)
	require.Len(t, stub.lastParams.Messages, 1)
	require.Len(t, stub.lastParams.Messages[0].Content, 2)
	require.Len(t, stub.lastParams.System, 1)
	assert.Contains(t, stub.lastParams.System[0].Text, "Structural Consistency: N/10")

	result := scoring.NewParser().Parse(text)
	assert.False(t, result.Fallback)
	assert.Equal(t, 7.5, result.Overall())
}

func TestEvaluateInlinesLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nrest"), 0o600))

	stub := &stubMessagesClient{resp: &sdk.Message{}}
	eval, err := New(stub, Options{Model: "claude-test", MaxTokens: 64})
	require.NoError(t, err)

	text, err := eval.Evaluate(context.Background(), path, "vase")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, sdk.Model("claude-test"), stub.lastParams.Model)
	assert.Equal(t, int64(64), stub.lastParams.MaxTokens)
}

func TestEvaluateErrors(t *testing.T) {
	stub := &stubMessagesClient{err: errors.New("overloaded")}
	eval, err := New(stub, Options{})
	require.NoError(t, err)

	_, err = eval.Evaluate(context.Background(), "https://cdn.example/img.png", "vase")
	require.ErrorContains(t, err, "overloaded")

	_, err = eval.Evaluate(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "vase")
	require.Error(t, err)
	assert.Equal(t, 1, stub.calls)

	_, err = New(nil, Options{})
	require.Error(t, err)
	_, err = NewFromAPIKey("", Options{})
	require.Error(t, err)
}

func TestSystemPromptListsTrackedMetrics(t *testing.T) {
	prompt := systemPrompt()
	for _, metric := range domain.TrackedMetrics {
		assert.Equal(t, metric, scoring.MetricKey(labelFor(metric)))
		assert.Contains(t, prompt, labelFor(metric)+": N/10")
	}
}

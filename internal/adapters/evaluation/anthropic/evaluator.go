// Package anthropic asks a Claude vision model to critique a generated image
// against the target description.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
)

// MessagesClient is satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type Options struct {
	Model     string
	MaxTokens int64
}

type Evaluator struct {
	msg       MessagesClient
	model     string
	maxTokens int64
}

var _ ports.Evaluator = (*Evaluator)(nil)

func New(msg MessagesClient, opts Options) (*Evaluator, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Evaluator{msg: msg, model: opts.Model, maxTokens: opts.MaxTokens}, nil
}

func NewFromAPIKey(apiKey string, opts Options) (*Evaluator, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Messages, opts)
}

// Evaluate returns the model's critique text unparsed.
func (e *Evaluator) Evaluate(ctx context.Context, artifactReference string, targetDescription string) (string, error) {
	image, err := imageBlock(artifactReference)
	if err != nil {
		return "", err
	}

	msg, err := e.msg.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: e.maxTokens,
		System:    []sdk.TextBlockParam{{Text: systemPrompt()}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(image, sdk.NewTextBlock("Target: "+targetDescription)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}
	if msg == nil {
		return "", errors.New("anthropic: response message is nil")
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// imageBlock sends remote references by URL and local files inline.
func imageBlock(reference string) (sdk.ContentBlockParamUnion, error) {
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return sdk.NewImageBlock(sdk.URLImageSourceParam{URL: reference}), nil
	}

	data, err := os.ReadFile(reference)
	if err != nil {
		return sdk.ContentBlockParamUnion{}, fmt.Errorf("read artifact %q: %w", reference, err)
	}
	return sdk.NewImageBlockBase64(http.DetectContentType(data), base64.StdEncoding.EncodeToString(data)), nil
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You review generated reference images for 3D reconstruction. ")
	b.WriteString("Score each metric from 1 to 10, one per line, formatted as `Metric Name: N/10`:\n")
	for _, metric := range domain.TrackedMetrics {
		fmt.Fprintf(&b, "%s: N/10\n", labelFor(metric))
	}
	b.WriteString("Overall: N/10\n\n")
	b.WriteString("Then write an \"Issues Found\" section and a \"Suggestions for Improvement\" section, one bullet per line.")
	return b.String()
}

// labelFor turns "object_identity" into "Object Identity".
func labelFor(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

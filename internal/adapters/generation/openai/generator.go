// Package openai generates candidate images with the OpenAI Images API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/refine-cli/internal/ports"
	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const (
	DefaultModel             = "gpt-image-1"
	DefaultSize              = "1024x1024"
	DefaultRequestsPerMinute = 5
)

// ImagesClient is the subset of the SDK used here. *sdk.ImageService
// satisfies it.
type ImagesClient interface {
	Generate(ctx context.Context, body sdk.ImageGenerateParams, opts ...option.RequestOption) (*sdk.ImagesResponse, error)
}

type Options struct {
	Model string
	Size  string
	// OutputDir receives decoded images when the API answers with base64
	// payloads instead of URLs.
	OutputDir         string
	RequestsPerMinute int
}

type Generator struct {
	images    ImagesClient
	model     string
	size      string
	outputDir string
	limiter   *rate.Limiter
}

var _ ports.Generator = (*Generator)(nil)

func New(images ImagesClient, opts Options) (*Generator, error) {
	if images == nil {
		return nil, errors.New("openai images client is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Size == "" {
		opts.Size = DefaultSize
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}

	return &Generator{
		images:    images,
		model:     opts.Model,
		size:      opts.Size,
		outputDir: opts.OutputDir,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}, nil
}

// NewFromAPIKey builds a generator on the default SDK HTTP client.
func NewFromAPIKey(apiKey string, opts Options) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&client.Images, opts)
}

// Generate returns either the hosted image URL or the path of the decoded
// image written under the output directory.
func (g *Generator) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for generation slot: %w", err)
	}

	resp, err := g.images.Generate(ctx, sdk.ImageGenerateParams{
		Prompt: req.Prompt(),
		Model:  sdk.ImageModel(g.model),
		Size:   sdk.ImageGenerateParamsSize(g.size),
		N:      sdk.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("openai images.generate: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return "", nil
	}

	image := resp.Data[0]
	if image.URL != "" {
		return image.URL, nil
	}
	if image.B64JSON == "" {
		return "", nil
	}
	return g.save(req.Iteration, image.B64JSON)
}

func (g *Generator) save(iteration int, payload string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode generated image: %w", err)
	}
	if err := os.MkdirAll(g.outputDir, 0o700); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(g.outputDir, fmt.Sprintf("iter-%02d-%s.png", iteration, uuid.NewString()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write generated image: %w", err)
	}
	return path, nil
}

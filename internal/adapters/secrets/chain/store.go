// Package chain resolves secret references against pass first and a private
// directory second.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	filestore "github.com/bnema/refine-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/refine-cli/internal/adapters/secrets/pass"
	"github.com/bnema/refine-cli/internal/ports"
)

// RefPrefix marks a config value as a secret key rather than the secret
// itself, e.g. "secret:rfn/openai".
const RefPrefix = "secret:"

type Store struct {
	primary  ports.SecretReader
	fallback ports.SecretReader
}

var _ ports.SecretReader = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretReader, fallback ports.SecretReader) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Resolve returns raw unchanged unless it carries RefPrefix, in which case
// the referenced secret is looked up.
func (s *Store) Resolve(ctx context.Context, raw string) (string, error) {
	key, ok := strings.CutPrefix(strings.TrimSpace(raw), RefPrefix)
	if !ok {
		return raw, nil
	}
	if key == "" {
		return "", errors.New("secret reference has an empty key")
	}
	return s.Get(ctx, key)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

package ports

import "context"

// SecretReader resolves a secret by key. Implementations never log values.
type SecretReader interface {
	Get(ctx context.Context, key string) (string, error)
}

package ports

import "context"

type Evaluator interface {
	Evaluate(ctx context.Context, artifactReference string, targetDescription string) (string, error)
}

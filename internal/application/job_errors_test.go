package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifySubmitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "credits sentinel", err: fmt.Errorf("submit: %w", domain.ErrInsufficientCredits), want: domain.JobFailureInsufficientCredits},
		{name: "credits text", err: errors.New("API error: Insufficient Credits remaining"), want: domain.JobFailureInsufficientCredits},
		{name: "payment required", err: errors.New("status 402: payment required"), want: domain.JobFailureInsufficientCredits},
		{name: "unavailable sentinel", err: fmt.Errorf("submit: %w", domain.ErrServiceUnavailable), want: domain.JobFailureServiceUnavailable},
		{name: "deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), want: domain.JobFailureServiceUnavailable},
		{name: "gateway", err: errors.New("502 Bad Gateway"), want: domain.JobFailureServiceUnavailable},
		{name: "refused", err: errors.New("dial tcp 10.0.0.1:443: connection refused"), want: domain.JobFailureServiceUnavailable},
		{name: "other", err: errors.New("invalid image format"), want: domain.JobFailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySubmitError(tt.err)
			assert.Equal(t, tt.want, got)
			if tt.err != nil {
				assert.NotContains(t, got, tt.err.Error())
			}
		})
	}
}

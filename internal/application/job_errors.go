package application

import (
	"context"
	"errors"
	"strings"

	"github.com/bnema/refine-cli/internal/domain"
)

var (
	creditSignals = []string{
		"insufficient credit",
		"insufficient_credit",
		"not enough credit",
		"credits exhausted",
		"quota exceeded",
		"payment required",
	}
	unavailableSignals = []string{
		"service unavailable",
		"temporarily unavailable",
		"bad gateway",
		"gateway timeout",
		"connection refused",
		"timed out",
		"timeout",
	}
)

// ClassifySubmitError maps a submission failure to one of three stable
// user-facing messages. Transport detail never leaks into the result.
func ClassifySubmitError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		return domain.JobFailureInsufficientCredits
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, context.DeadlineExceeded):
		return domain.JobFailureServiceUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAnySignal(msg, creditSignals):
		return domain.JobFailureInsufficientCredits
	case containsAnySignal(msg, unavailableSignals):
		return domain.JobFailureServiceUnavailable
	default:
		return domain.JobFailureGeneric
	}
}

func containsAnySignal(msg string, signals []string) bool {
	for _, signal := range signals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

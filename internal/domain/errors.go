package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTerminal   = errors.New("session already in a terminal state")
	ErrIterationNotFound = errors.New("iteration not found")
	ErrNoArtifact        = errors.New("generation returned no artifact")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobTerminal       = errors.New("job already in a terminal state")

	// ErrInsufficientCredits and ErrServiceUnavailable are returned (wrapped) by
	// job service adapters so submission failures can be classified without
	// inspecting transport details.
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrServiceUnavailable  = errors.New("service unavailable")
)

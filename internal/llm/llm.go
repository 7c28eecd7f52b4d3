// Package llm defines the model client used for documentation generation,
// its error taxonomy, and a middleware chain (retry, rate limiting, logging).
package llm

import (
	"context"
	"fmt"
	"strings"
)

// DetailLevel controls how verbose the generation instructions are. It does
// not change the size of the repository summary.
type DetailLevel string

const (
	DetailLow    DetailLevel = "low"
	DetailMedium DetailLevel = "medium"
	DetailHigh   DetailLevel = "high"
)

// ParseDetailLevel accepts low, medium or high in any case. Empty means medium.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch DetailLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "", DetailMedium:
		return DetailMedium, nil
	case DetailLow:
		return DetailLow, nil
	case DetailHigh:
		return DetailHigh, nil
	}
	return "", fmt.Errorf("llm: unknown detail level %q (want low, medium or high)", s)
}

// Request is one prompt-in, text-out generation.
type Request struct {
	// Artifact names the documentation artifact, for logs and fakes.
	Artifact string
	System   string
	Prompt   string
	Detail   DetailLevel
}

// Client is a text generation backend. Implementations return *APIError for
// provider failures and ErrEmptyResponse (wrapped) when no text came back.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

func (f ClientFunc) Name() string { return "func" }
func (f ClientFunc) Close() error { return nil }
func (f ClientFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

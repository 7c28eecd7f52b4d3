package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider selects the model backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderFake      Provider = "fake"
)

const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultTemperature    = 0.3
	DefaultMaxTokens      = 4000
	DefaultRetries        = 3
	DefaultRetryDelay     = 500 * time.Millisecond
	DefaultTimeout        = 2 * time.Minute
)

// ParseProvider accepts gemini, anthropic (or claude) and fake.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gemini", "google":
		return ProviderGemini, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "fake", "offline":
		return ProviderFake, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownProvider, s)
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderFake:
		return "fake"
	}
	return DefaultGeminiModel
}

// Options configures New.
type Options struct {
	Provider    Provider
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	// Retries is the total attempts per Generate inside the client.
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
	RPS        float64
	Burst      int
	Log        *zap.Logger
}

// New builds the provider client wrapped as
// logging -> retry -> rate limit -> timeout -> provider.
func New(ctx context.Context, o Options) (Client, error) {
	if o.Model == "" {
		o.Model = DefaultModel(o.Provider)
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}

	var base Client
	switch o.Provider {
	case ProviderGemini, "":
		g, err := NewGeminiClient(ctx, o.APIKey, o.Model, float32(o.Temperature), o.MaxTokens)
		if err != nil {
			return nil, err
		}
		base = g
	case ProviderAnthropic:
		a, err := NewAnthropicClient(o.APIKey, o.Model, o.MaxTokens, o.Temperature)
		if err != nil {
			return nil, err
		}
		base = a
	case ProviderFake:
		base = NewFakeClient()
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, o.Provider)
	}

	return Wrap(base,
		WithLogging(o.Log),
		Retry(o.Retries, o.RetryDelay),
		RateLimit(o.RPS, o.Burst),
		Timeout(o.Timeout),
	), nil
}

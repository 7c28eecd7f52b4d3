package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderGemini, ProviderAnthropic} {
		_, err := New(context.Background(), Options{Provider: p})
		assert.ErrorIs(t, err, ErrMissingAPIKey, string(p))
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "llama"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewFakeIsWrapped(t *testing.T) {
	cli, err := New(context.Background(), Options{Provider: ProviderFake})
	require.NoError(t, err)
	assert.Equal(t, "FakeLLM", cli.Name())

	out, err := cli.Generate(context.Background(), Request{Artifact: "usage", Detail: DetailLow, Prompt: "abc"})
	require.NoError(t, err)
	assert.Contains(t, out, "# Usage")
	assert.Contains(t, out, "low detail")
}

func TestFakeClientFailOn(t *testing.T) {
	boom := errors.New("boom")
	f := NewFakeClient().FailOn("api", boom)

	_, err := f.Generate(context.Background(), Request{Artifact: "api"})
	assert.ErrorIs(t, err, boom)
	_, err = f.Generate(context.Background(), Request{Artifact: "readme"})
	assert.NoError(t, err)
	assert.Len(t, f.Calls(), 2)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, DefaultGeminiModel, DefaultModel(ProviderGemini))
	assert.Equal(t, DefaultAnthropicModel, DefaultModel(ProviderAnthropic))
}

func TestGeminiConfigCarriesTokenLimit(t *testing.T) {
	g, err := NewGeminiClient(context.Background(), "test-key", DefaultGeminiModel, 0.3, 1500)
	require.NoError(t, err)

	cfg := g.contentConfig(Request{System: "be brief"})
	assert.Equal(t, int32(1500), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	assert.NotNil(t, cfg.SystemInstruction)

	cfg = g.contentConfig(Request{})
	assert.Nil(t, cfg.SystemInstruction)
}

func TestNewGeminiDefaultsTokenLimit(t *testing.T) {
	cli, err := New(context.Background(), Options{Provider: ProviderGemini, APIKey: "test-key"})
	require.NoError(t, err)
	r, ok := cli.(*retrying)
	require.True(t, ok)
	g, ok := r.next.(*GeminiClient)
	require.True(t, ok)
	assert.Equal(t, int32(DefaultMaxTokens), g.maxTokens)
}

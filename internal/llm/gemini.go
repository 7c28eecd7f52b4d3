package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// NewGeminiClient creates a client for the Gemini API. maxTokens <= 0 uses
// DefaultMaxTokens.
func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float32, maxTokens int) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingAPIKey)
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &GeminiClient{cli: cli, model: model, temperature: temperature, maxTokens: int32(maxTokens)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) contentConfig(req Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return config
}

// Generate sends the prompt with the system text as SystemInstruction and
// returns the concatenated text parts of the first non-empty candidate.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if g.cli == nil {
		return "", ErrClientNotStarted
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		g.contentConfig(req),
	)
	if err != nil {
		return "", Classify("gemini", 0, err)
	}

	var out strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part != nil && part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", Malformed("gemini", ErrEmptyResponse)
	}
	return out.String(), nil
}

// Package gemini provides the Gemini-like LLM provider, adapted from the
// original single-purpose Gemini client into the generate_text/
// generate_json/generate_embedding capability set.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ternarybob/blogqa/internal/common"
)

const (
	// DefaultModel is used when callers pass an empty model string.
	DefaultModel = "gemini-2.0-flash"
)

// Provider implements interfaces.LLMProvider against the Gemini API.
type Provider struct {
	client *genai.Client
	logger *common.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates a new Gemini provider.
func New(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	p := &Provider{client: client, logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name identifies this provider in logs and error messages.
func (p *Provider) Name() string { return "gemini" }

// SupportsGrounding reports that Gemini honors the grounding flag via its
// URL context tool.
func (p *Provider) SupportsGrounding() bool { return true }

func (p *Provider) model(requested string) string {
	if requested == "" {
		return DefaultModel
	}
	return requested
}

func buildPrompt(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}

func configFor(temperature float64, maxTokens int, grounding bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if grounding {
		cfg.Tools = []*genai.Tool{{URLContext: &genai.URLContext{}}}
	}
	return cfg
}

func textFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content generated")
	}
	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini: empty response text")
	}
	return text, nil
}

// Package openai provides the OpenAI-like LLM provider on top of
// github.com/tmc/langchaingo's llms/openai and embeddings packages.
package openai

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ternarybob/blogqa/internal/common"
)

// DefaultModel is used when callers pass an empty model string.
const DefaultModel = "gpt-4o-mini"

// Provider implements interfaces.LLMProvider against the OpenAI chat and
// embeddings APIs via langchaingo.
type Provider struct {
	llm      *openai.LLM
	embedder *embeddings.EmbedderImpl
	logger   *common.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates a new OpenAI provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	llm, err := openai.New(openai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("openai: create llm: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("openai: create embedder: %w", err)
	}

	p := &Provider{llm: llm, embedder: embedder, logger: common.NewSilentLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name identifies this provider in logs and error messages.
func (p *Provider) Name() string { return "openai" }

// SupportsGrounding reports that this provider has no built-in URL grounding.
func (p *Provider) SupportsGrounding() bool { return false }

func (p *Provider) model(requested string) string {
	if requested == "" {
		return DefaultModel
	}
	return requested
}

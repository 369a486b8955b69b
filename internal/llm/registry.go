// Package llm dispatches text, JSON, and embedding generation across the
// configured provider families by model-id prefix.
package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/blogqa/internal/interfaces"
)

// Registry implements interfaces.LLMRegistry, routing a model id to the
// provider that serves it.
type Registry struct {
	gemini    interfaces.LLMProvider
	anthropic interfaces.LLMProvider
	openai    interfaces.LLMProvider
}

// NewRegistry builds a registry from whichever providers were successfully
// constructed; a nil provider is simply unavailable for its prefixes.
func NewRegistry(gemini, anthropic, openai interfaces.LLMProvider) *Registry {
	return &Registry{gemini: gemini, anthropic: anthropic, openai: openai}
}

// ProviderFor dispatches by model-id prefix: "gemini-*" -> Gemini-like,
// "claude-*" -> Anthropic-like, everything else (including "gpt-*" and
// "text-embedding-*") -> OpenAI-like.
func (r *Registry) ProviderFor(model string) (interfaces.LLMProvider, error) {
	switch {
	case strings.HasPrefix(model, "gemini-"):
		if r.gemini == nil {
			return nil, fmt.Errorf("llm: no gemini provider configured for model %q", model)
		}
		return r.gemini, nil
	case strings.HasPrefix(model, "claude-"):
		if r.anthropic == nil {
			return nil, fmt.Errorf("llm: no anthropic provider configured for model %q", model)
		}
		return r.anthropic, nil
	default:
		if r.openai == nil {
			return nil, fmt.Errorf("llm: no openai provider configured for model %q", model)
		}
		return r.openai, nil
	}
}

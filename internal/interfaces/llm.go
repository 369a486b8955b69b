package interfaces

import "context"

// GenerateTextParams bundles the parameters common to text generation calls.
type GenerateTextParams struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	Grounding   bool // honored only if the provider advertises grounding support
}

// GenerateJSONParams is GenerateTextParams plus a schema hint appended to the
// prompt's format-template layer (§4.6 layer 3).
type GenerateJSONParams struct {
	GenerateTextParams
	SchemaHint string
}

// LLMProvider is the capability set the orchestrator sees: text generation,
// schema-constrained JSON generation, and embedding generation. A Provider
// corresponds to one of {OpenAILike, AnthropicLike, GeminiLike}.
type LLMProvider interface {
	Name() string
	// SupportsGrounding reports whether this provider honors Grounding.
	SupportsGrounding() bool
	GenerateText(ctx context.Context, p GenerateTextParams) (string, error)
	// GenerateJSON returns the raw (possibly repaired) JSON text; callers
	// unmarshal into their own schema struct.
	GenerateJSON(ctx context.Context, p GenerateJSONParams) (string, error)
	GenerateEmbedding(ctx context.Context, model, text string) ([]float32, error)
}

// LLMRegistry dispatches to a Provider by model-id prefix.
type LLMRegistry interface {
	ProviderFor(model string) (LLMProvider, error)
}

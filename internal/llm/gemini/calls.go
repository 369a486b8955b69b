package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ternarybob/blogqa/internal/interfaces"
)

// GenerateText implements interfaces.LLMProvider.
func (p *Provider) GenerateText(ctx context.Context, params interfaces.GenerateTextParams) (string, error) {
	model := p.model(params.Model)
	p.logger.Debug().Str("model", model).Msg("gemini generate_text")

	contents := genai.Text(buildPrompt(params.System, params.User))
	cfg := configFor(params.Temperature, params.MaxTokens, params.Grounding)

	result, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate_text: %w", err)
	}
	return textFromResponse(result)
}

// GenerateJSON implements interfaces.LLMProvider.
func (p *Provider) GenerateJSON(ctx context.Context, params interfaces.GenerateJSONParams) (string, error) {
	model := p.model(params.Model)
	p.logger.Debug().Str("model", model).Msg("gemini generate_json")

	prompt := buildPrompt(params.System, params.User)
	if params.SchemaHint != "" {
		prompt += "\n\n" + params.SchemaHint
	}
	cfg := configFor(params.Temperature, params.MaxTokens, params.Grounding)
	cfg.ResponseMIMEType = "application/json"

	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate_json: %w", err)
	}
	return textFromResponse(result)
}

// GenerateEmbedding implements interfaces.LLMProvider.
func (p *Provider) GenerateEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	if model == "" {
		model = "text-embedding-004"
	}
	p.logger.Debug().Str("model", model).Msg("gemini generate_embedding")

	result, err := p.client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate_embedding: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("gemini: embedding response was empty")
	}
	return result.Embeddings[0].Values, nil
}

package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/ternarybob/blogqa/internal/interfaces"
)

func (p *Provider) generate(ctx context.Context, model, system, user string, maxTokens int, temperature float64) (string, error) {
	p.logger.Debug().Str("model", model).Msg("openai generate")

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("openai: generate: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Content, nil
}

// GenerateText implements interfaces.LLMProvider.
func (p *Provider) GenerateText(ctx context.Context, params interfaces.GenerateTextParams) (string, error) {
	return p.generate(ctx, p.model(params.Model), params.System, params.User, params.MaxTokens, params.Temperature)
}

// GenerateJSON implements interfaces.LLMProvider. The schema hint folds into
// the user layer; langchaingo's JSON response format option keeps the
// provider honest about emitting an object.
func (p *Provider) GenerateJSON(ctx context.Context, params interfaces.GenerateJSONParams) (string, error) {
	user := params.User
	if params.SchemaHint != "" {
		user += "\n\n" + params.SchemaHint
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, params.System),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := p.llm.GenerateContent(ctx, messages,
		llms.WithModel(p.model(params.Model)),
		llms.WithMaxTokens(params.MaxTokens),
		llms.WithTemperature(params.Temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", fmt.Errorf("openai: generate_json: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Content, nil
}

// GenerateEmbedding implements interfaces.LLMProvider.
func (p *Provider) GenerateEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	p.logger.Debug().Str("model", model).Msg("openai generate_embedding")

	vectors, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("openai: generate_embedding: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai: embedding response was empty")
	}
	return vectors[0], nil
}

package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ternarybob/blogqa/internal/interfaces"
)

func (p *Provider) generate(ctx context.Context, model, system, user string, maxTokens int, temperature float64) (string, error) {
	p.logger.Debug().Str("model", model).Msg("anthropic generate")

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		System: anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		}),
		Temperature: anthropic.F(temperature),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		}),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: generate: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("anthropic: empty response text")
	}
	return text, nil
}

// GenerateText implements interfaces.LLMProvider.
func (p *Provider) GenerateText(ctx context.Context, params interfaces.GenerateTextParams) (string, error) {
	return p.generate(ctx, p.model(params.Model), params.System, params.User, params.MaxTokens, params.Temperature)
}

// GenerateJSON implements interfaces.LLMProvider. Anthropic has no dedicated
// JSON mode, so the schema hint is folded into the user layer and the
// caller's llm.ParseJSONWithRepair repair-once-then-fail parsing covers the rest.
func (p *Provider) GenerateJSON(ctx context.Context, params interfaces.GenerateJSONParams) (string, error) {
	user := params.User
	if params.SchemaHint != "" {
		user += "\n\n" + params.SchemaHint
	}
	return p.generate(ctx, p.model(params.Model), params.System, user, params.MaxTokens, params.Temperature)
}

// GenerateEmbedding implements interfaces.LLMProvider. Anthropic publishes
// no embedding endpoint, so this provider never serves embedding calls in
// practice — the registry only dispatches "claude-*" models here, and those
// are never selected as an embedding_model.
func (p *Provider) GenerateEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	return nil, fmt.Errorf("anthropic: embeddings are not supported by this provider")
}

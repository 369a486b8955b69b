package orchestrator

import (
	"context"
	"sync"

	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/llm"
	"github.com/ternarybob/blogqa/internal/models"
)

// maxEmbedInputChars bounds the text handed to an embedding call; provider
// token limits are generous but there is no reason to ship the full article.
const maxEmbedInputChars = 8000

// questionWithEmbedding pairs a generated question with its own embedding.
type questionWithEmbedding struct {
	item      llm.QuestionItem
	embedding []float32
}

// genResult is the product of the §4.5 step-4 fan-out.
type genResult struct {
	summary   llm.SummaryResponse
	questions []questionWithEmbedding
	embedding []float32
}

// generate runs summary generation, question generation, and content
// embedding concurrently, then embeds each question once the list is known.
// All three first-wave calls must succeed or the whole step fails as llm.
func (o *Orchestrator) generate(ctx context.Context, content *models.BlogContent, cfg models.PublisherConfig) (*genResult, error) {
	var (
		summaryResp  llm.SummaryResponse
		questions    []llm.QuestionItem
		embedding    []float32
		summaryErr   error
		questionsErr error
		embedErr     error
		wg           sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		summaryResp, summaryErr = o.generateSummary(ctx, content.ExtractedText, cfg)
	}()
	go func() {
		defer wg.Done()
		questions, questionsErr = o.generateQuestions(ctx, content.ExtractedText, cfg)
	}()
	go func() {
		defer wg.Done()
		embedding, embedErr = o.embedText(ctx, content.ExtractedText)
	}()
	wg.Wait()

	if summaryErr != nil {
		return nil, llmErrorf("summary generation: %v", summaryErr)
	}
	if questionsErr != nil {
		return nil, llmErrorf("question generation: %v", questionsErr)
	}
	if embedErr != nil {
		return nil, llmErrorf("summary embedding: %v", embedErr)
	}

	questions = llm.ClampQuestionCount(questions, cfg.QuestionsPerBlog)

	embedded, err := o.embedQuestions(ctx, questions)
	if err != nil {
		return nil, llmErrorf("question embedding: %v", err)
	}

	return &genResult{summary: summaryResp, questions: embedded, embedding: embedding}, nil
}

func (o *Orchestrator) generateSummary(ctx context.Context, blogText string, cfg models.PublisherConfig) (llm.SummaryResponse, error) {
	var resp llm.SummaryResponse

	provider, err := o.llm.ProviderFor(cfg.SummaryModel)
	if err != nil {
		return resp, err
	}

	system, user := llm.BuildSummaryPrompt(cfg.CustomSummaryPrompt, blogText)
	raw, err := provider.GenerateJSON(ctx, interfaces.GenerateJSONParams{
		GenerateTextParams: interfaces.GenerateTextParams{
			Model:       cfg.SummaryModel,
			System:      system,
			User:        user,
			MaxTokens:   cfg.SummaryMaxTokens,
			Temperature: cfg.SummaryTemperature,
			Grounding:   cfg.UseGrounding,
		},
	})
	if err != nil {
		return resp, err
	}

	if err := llm.ParseJSONWithRepair(raw, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

func (o *Orchestrator) generateQuestions(ctx context.Context, blogText string, cfg models.PublisherConfig) ([]llm.QuestionItem, error) {
	provider, err := o.llm.ProviderFor(cfg.QuestionsModel)
	if err != nil {
		return nil, err
	}

	system, user := llm.BuildQuestionPrompt(cfg.CustomQuestionPrompt, blogText)
	raw, err := provider.GenerateJSON(ctx, interfaces.GenerateJSONParams{
		GenerateTextParams: interfaces.GenerateTextParams{
			Model:       cfg.QuestionsModel,
			System:      system,
			User:        user,
			MaxTokens:   cfg.QuestionsMaxTokens,
			Temperature: cfg.QuestionsTemperature,
			Grounding:   cfg.UseGrounding,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp llm.QuestionsResponse
	if err := llm.ParseJSONWithRepair(raw, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (o *Orchestrator) embedText(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbedInputChars {
		text = text[:maxEmbedInputChars]
	}
	provider, err := o.llm.ProviderFor(o.embeddingModel)
	if err != nil {
		return nil, err
	}
	return provider.GenerateEmbedding(ctx, o.embeddingModel, text)
}

// embedQuestions computes one embedding per question concurrently. The
// provider interface takes one text at a time, so concurrency here plays
// the role the spec reserves for provider-side batching.
func (o *Orchestrator) embedQuestions(ctx context.Context, items []llm.QuestionItem) ([]questionWithEmbedding, error) {
	results := make([]questionWithEmbedding, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		i, item := i, item
		go func() {
			defer wg.Done()
			embedding, err := o.embedText(ctx, item.Question+"\n"+item.Answer)
			results[i] = questionWithEmbedding{item: item, embedding: embedding}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

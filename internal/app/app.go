// Package app wires together the document store, relational publisher
// store, crawler, LLM registry, orchestrator, and queue manager that make up
// the blog Q&A pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/crawler"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/llm"
	"github.com/ternarybob/blogqa/internal/llm/anthropic"
	"github.com/ternarybob/blogqa/internal/llm/gemini"
	"github.com/ternarybob/blogqa/internal/llm/openai"
	"github.com/ternarybob/blogqa/internal/services/orchestrator"
	"github.com/ternarybob/blogqa/internal/services/queue"
	"github.com/ternarybob/blogqa/internal/services/registry"
	"github.com/ternarybob/blogqa/internal/services/similarity"
	"github.com/ternarybob/blogqa/internal/storage/postgres"
	"github.com/ternarybob/blogqa/internal/storage/surrealdb"
)

// App holds every initialized service, store, and client shared by the API
// server and the worker.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Documents  interfaces.DocumentStore
	Publishers interfaces.PublisherStore
	Registry   interfaces.PublisherRegistry
	Similarity interfaces.SimilarityIndex
	LLM        interfaces.LLMRegistry
	Crawler    interfaces.Crawler

	Orchestrator interfaces.Orchestrator
	Queue        interfaces.QueueManager

	StartupTime time.Time
}

func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration, connects to both stores, builds the LLM
// registry from whichever provider keys are configured, and wires the
// orchestrator and queue manager on top. configPath may be empty, in which
// case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("BLOGQA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "blogqa-service.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/blogqa-service.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	documents, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	pgManager, err := postgres.NewManager(ctx, logger, config)
	if err != nil {
		documents.Close()
		return nil, fmt.Errorf("failed to initialize publisher store: %w", err)
	}
	publishers := pgManager.Publisher()

	publisherRegistry := registry.NewManager(publishers, logger)
	similarityIndex := similarity.NewIndex(documents.Summaries(), documents.Content())

	llmRegistry := newLLMRegistry(ctx, config, logger)

	crawlerClient := crawler.NewClient(config.Crawler.Timeout(),
		crawler.WithLogger(logger),
		crawler.WithMaxContentBytes(config.Crawler.MaxContentBytes),
	)

	orch := orchestrator.New(documents, publishers, crawlerClient, llmRegistry, config.LLM.EmbeddingModel, logger)
	queueManager := queue.NewManager(documents.Jobs(), publishers, orch, logger, config.Queue)

	a := &App{
		Config:       config,
		Logger:       logger,
		Documents:    documents,
		Publishers:   publishers,
		Registry:     publisherRegistry,
		Similarity:   similarityIndex,
		LLM:          llmRegistry,
		Crawler:      crawlerClient,
		Orchestrator: orch,
		Queue:        queueManager,
		StartupTime:  startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// newLLMRegistry constructs a provider for each configured API key; a
// missing key simply leaves that provider family unavailable.
func newLLMRegistry(ctx context.Context, config *common.Config, logger *common.Logger) *llm.Registry {
	var geminiProvider interfaces.LLMProvider
	if config.LLM.GeminiAPIKey != "" {
		p, err := gemini.New(ctx, config.LLM.GeminiAPIKey, gemini.WithLogger(logger))
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini provider")
		} else {
			geminiProvider = p
		}
	}

	var anthropicProvider interfaces.LLMProvider
	if config.LLM.AnthropicAPIKey != "" {
		anthropicProvider = anthropic.New(config.LLM.AnthropicAPIKey, anthropic.WithLogger(logger))
	}

	var openaiProvider interfaces.LLMProvider
	if config.LLM.OpenAIAPIKey != "" {
		p, err := openai.New(config.LLM.OpenAIAPIKey, openai.WithLogger(logger))
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize OpenAI provider")
		} else {
			openaiProvider = p
		}
	}

	return llm.NewRegistry(geminiProvider, anthropicProvider, openaiProvider)
}

// Close releases all held resources. Shutdown order: stop the queue manager
// first so no worker is mid-job against a closing store, then close both
// stores.
func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Stop(context.Background())
	}
	if a.Documents != nil {
		a.Documents.Close()
	}
	if a.Publishers != nil {
		a.Publishers.Close()
	}
}

// Package surrealdb implements the document-store side of the pipeline: the
// job queue and the three content-cache collections.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
)

// Manager implements interfaces.DocumentStore using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	jobs      *JobStore
	content   *ContentStore
	summaries *SummaryStore
	questions *QuestionStore
}

// NewManager connects to SurrealDB and ensures the pipeline's collections exist.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()
	cfg := config.Storage.SurrealDB

	db, err := surrealdb.New(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.User,
		"pass": cfg.Pass,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	tables := []string{"processing_jobs", "raw_blog_content", "blog_summaries", "processed_questions"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	// active_url mirrors blog_url while a job is queued or processing and is
	// cleared to NONE once it reaches a terminal state (see jobstore.go). A
	// unique index on it — rather than on blog_url itself — lets SurrealDB
	// reject a second non-terminal job for the same URL at write time, so
	// CreateJob never has to trust an application-level check-then-insert
	// against a concurrent submission for the same URL.
	if _, err := surrealdb.Query[any](ctx, db,
		"DEFINE INDEX IF NOT EXISTS processing_jobs_active_url ON processing_jobs FIELDS active_url UNIQUE", nil); err != nil {
		return nil, fmt.Errorf("failed to define active_url index: %w", err)
	}

	m := &Manager{db: db, logger: logger}
	m.jobs = NewJobStore(db, logger)
	m.content = NewContentStore(db, logger)
	m.summaries = NewSummaryStore(db, logger)
	m.questions = NewQuestionStore(db, logger)

	logger.Info().
		Str("url", cfg.URL).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB document store initialized")

	return m, nil
}

// Jobs implements interfaces.DocumentStore.
func (m *Manager) Jobs() interfaces.JobStore { return m.jobs }

// Content implements interfaces.DocumentStore.
func (m *Manager) Content() interfaces.ContentStore { return m.content }

// Summaries implements interfaces.DocumentStore.
func (m *Manager) Summaries() interfaces.SummaryStore { return m.summaries }

// Questions implements interfaces.DocumentStore.
func (m *Manager) Questions() interfaces.QuestionStore { return m.questions }

// Close closes the underlying SurrealDB connection.
func (m *Manager) Close() error {
	m.db.Close()
	return nil
}

var _ interfaces.DocumentStore = (*Manager)(nil)

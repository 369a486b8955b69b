package surrealdb

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
)

const questionSelectFields = "question_id as id, blog_url, blog_id, question, answer, icon, embedding, " +
	"click_count, created_at"

// QuestionStore implements interfaces.QuestionStore against table processed_questions.
type QuestionStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewQuestionStore creates a new QuestionStore.
func NewQuestionStore(db *surrealdb.DB, logger *common.Logger) *QuestionStore {
	return &QuestionStore{db: db, logger: logger}
}

// BatchInsert writes every question, assigning ids and timestamps where missing.
func (s *QuestionStore) BatchInsert(ctx context.Context, questions []*models.Question) error {
	now := time.Now()
	for _, q := range questions {
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}

		sql := `UPSERT $rid SET
			question_id = $question_id, blog_url = $blog_url, blog_id = $blog_id, question = $question,
			answer = $answer, icon = $icon, embedding = $embedding, click_count = $click_count,
			created_at = $created_at`
		vars := map[string]any{
			"rid":         surrealmodels.NewRecordID("processed_questions", q.ID),
			"question_id": q.ID,
			"blog_url":    q.BlogURL,
			"blog_id":     q.BlogID,
			"question":    q.Question,
			"answer":      q.Answer,
			"icon":        q.Icon,
			"embedding":   q.Embedding,
			"click_count": q.ClickCount,
			"created_at":  q.CreatedAt,
		}
		if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to insert question %s: %w", q.ID, err)
		}
	}
	return nil
}

// ListByURL returns every question for a blog URL, optionally shuffled for
// widget display variety.
func (s *QuestionStore) ListByURL(ctx context.Context, blogURL string, randomize bool) ([]*models.Question, error) {
	sql := "SELECT " + questionSelectFields + " FROM processed_questions WHERE blog_url = $blog_url"
	results, err := surrealdb.Query[[]models.Question](ctx, s.db, sql, map[string]any{"blog_url": blogURL})
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	var questions []*models.Question
	if results != nil && len(*results) > 0 {
		for i := range (*results)[0].Result {
			questions = append(questions, &(*results)[0].Result[i])
		}
	}
	if randomize {
		rand.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	}
	return questions, nil
}

// Get fetches a single question by id.
func (s *QuestionStore) Get(ctx context.Context, id string) (*models.Question, error) {
	sql := "SELECT " + questionSelectFields + " FROM $rid"
	results, err := surrealdb.Query[[]models.Question](ctx, s.db, sql, map[string]any{
		"rid": surrealmodels.NewRecordID("processed_questions", id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	question := (*results)[0].Result[0]
	return &question, nil
}

// IncrementClickCount atomically bumps click_count for a question.
func (s *QuestionStore) IncrementClickCount(ctx context.Context, id string) error {
	sql := "UPDATE $rid SET click_count += 1"
	vars := map[string]any{"rid": surrealmodels.NewRecordID("processed_questions", id)}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to increment click_count: %w", err)
	}
	return nil
}

// DeleteByURL removes every question for a blog URL, returning the count
// removed (best-effort — SurrealDB DELETE doesn't report affected rows, so
// this counts the rows found beforehand).
func (s *QuestionStore) DeleteByURL(ctx context.Context, blogURL string) (int, error) {
	existing, err := s.ListByURL(ctx, blogURL, false)
	if err != nil {
		return 0, err
	}
	sql := "DELETE FROM processed_questions WHERE blog_url = $blog_url"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"blog_url": blogURL}); err != nil {
		return 0, fmt.Errorf("failed to delete questions: %w", err)
	}
	return len(existing), nil
}

var _ interfaces.QuestionStore = (*QuestionStore)(nil)

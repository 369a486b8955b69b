package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/storage/testsupport"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	sc := testsupport.StartSurrealDB(t)

	return &common.Config{
		Environment: "test",
		Storage: common.StorageConfig{
			SurrealDB: common.SurrealDBConfig{
				URL:       sc.Address(),
				Namespace: "blogqa_test",
				Database:  fmt.Sprintf("mgr_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000),
				User:      "root",
				Pass:      "root",
			},
		},
	}
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)
	logger := common.NewSilentLogger()

	mgr, err := NewManager(logger, cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.NotNil(t, mgr.Jobs())
	assert.NotNil(t, mgr.Content())
	assert.NotNil(t, mgr.Summaries())
	assert.NotNil(t, mgr.Questions())
}

func TestManager_JobLifecycle(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()

	jobID, isNew, err := mgr.Jobs().CreateJob(ctx, "https://example.com/a", "pub-1", "{}")
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = mgr.Jobs().CreateJob(ctx, "https://example.com/a", "pub-1", "{}")
	require.NoError(t, err)
	assert.False(t, isNew, "resubmitting the same non-terminal URL should not create a second job")

	claimed, err := mgr.Jobs().ClaimNext(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, jobID, claimed.ID)

	require.NoError(t, mgr.Jobs().Heartbeat(ctx, jobID, "worker-1"))
	require.NoError(t, mgr.Jobs().Complete(ctx, jobID, "done"))

	got, err := mgr.Jobs().GetJob(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "done", got.Result)
}

func TestManager_CancelJob(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()

	jobID, _, err := mgr.Jobs().CreateJob(ctx, "https://example.com/cancel-me", "pub-1", "{}")
	require.NoError(t, err)

	require.NoError(t, mgr.Jobs().Cancel(ctx, jobID))

	got, err := mgr.Jobs().GetJob(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.JobStatusCancelled, got.Status)

	// Cancelling again, or a job that was never queued, isn't a silent
	// no-op — it must surface as an error.
	err = mgr.Jobs().Cancel(ctx, jobID)
	assert.ErrorIs(t, err, ErrJobNotCancellable)

	err = mgr.Jobs().Cancel(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrJobNotCancellable)

	// Cancelling a job frees its blog_url for a fresh submission.
	jobID2, isNew, err := mgr.Jobs().CreateJob(ctx, "https://example.com/cancel-me", "pub-1", "{}")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEqual(t, jobID, jobID2)
}

func TestManager_ContentCache(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()
	content := &models.BlogContent{
		URL:           "https://example.com/post",
		Title:         "A Post",
		ExtractedText: "enough words to be usable",
		WordCount:     60,
	}
	require.NoError(t, mgr.Content().Create(ctx, content))

	got, err := mgr.Content().Get(ctx, "https://example.com/post")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.TriggeredCount)

	n, err := mgr.Content().IncrementTriggered(ctx, "https://example.com/post")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManager_SummaryByDomain(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()
	require.NoError(t, mgr.Summaries().Upsert(ctx, &models.Summary{
		BlogURL: "https://example.com/post-1",
		Title:   "Post 1",
		Summary: "summary text",
	}))
	require.NoError(t, mgr.Summaries().Upsert(ctx, &models.Summary{
		BlogURL: "https://other.com/post-2",
		Title:   "Post 2",
		Summary: "other summary",
	}))

	matched, err := mgr.Summaries().ListByDomain(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "https://example.com/post-1", matched[0].BlogURL)
}

func TestManager_Questions(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	ctx := context.Background()
	require.NoError(t, mgr.Questions().BatchInsert(ctx, []*models.Question{
		{BlogURL: "https://example.com/p", Question: "Why?", Answer: "Because."},
		{BlogURL: "https://example.com/p", Question: "How?", Answer: "Like this."},
	}))

	questions, err := mgr.Questions().ListByURL(ctx, "https://example.com/p", false)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	require.NoError(t, mgr.Questions().IncrementClickCount(ctx, questions[0].ID))
	got, err := mgr.Questions().Get(ctx, questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ClickCount)

	n, err := mgr.Questions().DeleteByURL(ctx, "https://example.com/p")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClose(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)

	assert.NoError(t, mgr.Close())
}

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/storage/testsupport"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	pc := testsupport.StartPostgres(t)

	cfg := &common.Config{
		Storage: common.StorageConfig{
			Postgres: common.PostgresConfig{URL: pc.DSN()},
		},
	}

	mgr, err := NewManager(context.Background(), common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func maxBlogs(n int) *int { return &n }

func TestPublisherStore_CreateAndLookup(t *testing.T) {
	mgr := testManager(t)
	ctx := context.Background()

	p := &models.Publisher{
		Domain:           "example.com",
		Email:            "owner@example.com",
		Status:           models.PublisherStatusTrial,
		APIKeyHash:       "hash-abc",
		SubscriptionTier: "free",
		Config:           models.DefaultPublisherConfig(),
		WidgetConfig:     "{}",
	}
	require.NoError(t, mgr.Publisher().Create(ctx, p))
	require.NotEmpty(t, p.ID)

	byDomain, err := mgr.Publisher().GetByDomain(ctx, "example.com", false)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byDomain.ID)

	bySub, err := mgr.Publisher().GetByDomain(ctx, "blog.example.com", true)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySub.ID)

	byKey, err := mgr.Publisher().GetByAPIKeyHash(ctx, "hash-abc")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byKey.ID)

	byID, err := mgr.Publisher().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", byID.Domain)
}

func TestPublisherStore_ReserveAndReleaseBlogSlot(t *testing.T) {
	mgr := testManager(t)
	ctx := context.Background()

	cfg := models.DefaultPublisherConfig()
	cfg.MaxTotalBlogs = maxBlogs(1)

	p := &models.Publisher{
		Domain:           "reserve.example.com",
		Email:            "owner@reserve.example.com",
		Status:           models.PublisherStatusActive,
		APIKeyHash:       "hash-reserve",
		SubscriptionTier: "free",
		Config:           cfg,
		WidgetConfig:     "{}",
	}
	require.NoError(t, mgr.Publisher().Create(ctx, p))

	require.NoError(t, mgr.Publisher().ReserveBlogSlot(ctx, p.ID))

	err := mgr.Publisher().ReserveBlogSlot(ctx, p.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	require.NoError(t, mgr.Publisher().ReleaseBlogSlot(ctx, p.ID, true))

	got, err := mgr.Publisher().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BlogSlotsReserved)
	assert.Equal(t, 1, got.TotalBlogsProcessed)

	// The one processed blog now counts against max_total_blogs = 1.
	err = mgr.Publisher().ReserveBlogSlot(ctx, p.ID)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestPublisherStore_IncrementQuestionsGenerated(t *testing.T) {
	mgr := testManager(t)
	ctx := context.Background()

	p := &models.Publisher{
		Domain:           "counter.example.com",
		Email:            "owner@counter.example.com",
		Status:           models.PublisherStatusActive,
		APIKeyHash:       "hash-counter",
		SubscriptionTier: "free",
		Config:           models.DefaultPublisherConfig(),
		WidgetConfig:     "{}",
	}
	require.NoError(t, mgr.Publisher().Create(ctx, p))

	require.NoError(t, mgr.Publisher().IncrementQuestionsGenerated(ctx, p.ID, 5))

	got, err := mgr.Publisher().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalQuestionsGenerated)
}

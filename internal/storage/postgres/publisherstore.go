package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/urlnorm"
)

const publisherColumns = `id, domain, email, status, api_key_hash, admin_api_key_ref, ` +
	`subscription_tier, config, widget_config, total_blogs_processed, ` +
	`blog_slots_reserved, total_questions_generated, created_at, updated_at, last_active_at`

// PublisherStore implements interfaces.PublisherStore against the
// "publishers" table, with ReserveBlogSlot/ReleaseBlogSlot doing
// transactional row-level locking so concurrent workers never oversell a
// publisher's quota.
type PublisherStore struct {
	pool   *pgxpool.Pool
	logger *common.Logger
}

func NewPublisherStore(pool *pgxpool.Pool, logger *common.Logger) *PublisherStore {
	return &PublisherStore{pool: pool, logger: logger}
}

// GetByDomain resolves a publisher by registered domain. When allowSubdomain
// is true, a request host that is a subdomain of the registered domain also
// matches (the actual label-suffix comparison happens in Go via urlnorm,
// since it isn't expressible as a single indexable SQL equality).
func (s *PublisherStore) GetByDomain(ctx context.Context, domain string, allowSubdomain bool) (*models.Publisher, error) {
	if !allowSubdomain {
		row := s.pool.QueryRow(ctx, `SELECT `+publisherColumns+` FROM publishers WHERE domain = $1`, domain)
		return scanPublisher(row)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+publisherColumns+` FROM publishers`)
	if err != nil {
		return nil, fmt.Errorf("listing publishers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPublisherRows(rows)
		if err != nil {
			return nil, err
		}
		if urlnorm.MatchesDomain(domain, p.Domain, true) {
			return p, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, pgx.ErrNoRows
}

func (s *PublisherStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.Publisher, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+publisherColumns+` FROM publishers WHERE api_key_hash = $1`, apiKeyHash)
	return scanPublisher(row)
}

func (s *PublisherStore) GetByID(ctx context.Context, publisherID string) (*models.Publisher, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+publisherColumns+` FROM publishers WHERE id = $1`, publisherID)
	return scanPublisher(row)
}

func (s *PublisherStore) Create(ctx context.Context, p *models.Publisher) error {
	configJSON, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("marshaling publisher config: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO publishers (domain, email, status, api_key_hash, admin_api_key_ref,
			subscription_tier, config, widget_config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.Domain, p.Email, p.Status, p.APIKeyHash, p.AdminAPIKeyRef,
		p.SubscriptionTier, configJSON, p.WidgetConfig)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("inserting publisher: %w", err)
	}
	return nil
}

// ErrQuotaExceeded is returned by ReserveBlogSlot once blog_slots_reserved
// would exceed the publisher's configured max_total_blogs.
var ErrQuotaExceeded = errors.New("publisher blog slot quota exceeded")

func (s *PublisherStore) ReserveBlogSlot(ctx context.Context, publisherID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var configJSON []byte
	var reserved, processed int
	err = tx.QueryRow(ctx,
		`SELECT config, blog_slots_reserved, total_blogs_processed FROM publishers WHERE id = $1 FOR UPDATE`,
		publisherID).Scan(&configJSON, &reserved, &processed)
	if err != nil {
		return fmt.Errorf("locking publisher row: %w", err)
	}

	var cfg models.PublisherConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return fmt.Errorf("unmarshaling publisher config: %w", err)
	}

	if cfg.MaxTotalBlogs != nil && processed+reserved >= *cfg.MaxTotalBlogs {
		return ErrQuotaExceeded
	}

	if _, err := tx.Exec(ctx,
		`UPDATE publishers SET blog_slots_reserved = blog_slots_reserved + 1, updated_at = now() WHERE id = $1`,
		publisherID); err != nil {
		return fmt.Errorf("incrementing blog_slots_reserved: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PublisherStore) ReleaseBlogSlot(ctx context.Context, publisherID string, processed bool) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE publishers
		SET blog_slots_reserved = GREATEST(blog_slots_reserved - 1, 0),
			total_blogs_processed = total_blogs_processed + CASE WHEN $2 THEN 1 ELSE 0 END,
			last_active_at = now(),
			updated_at = now()
		WHERE id = $1`, publisherID, processed); err != nil {
		return fmt.Errorf("releasing blog slot: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PublisherStore) IncrementQuestionsGenerated(ctx context.Context, publisherID string, n int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE publishers SET total_questions_generated = total_questions_generated + $2, updated_at = now() WHERE id = $1`,
		publisherID, n)
	if err != nil {
		return fmt.Errorf("incrementing total_questions_generated: %w", err)
	}
	return nil
}

func (s *PublisherStore) Close() error {
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPublisher(row pgx.Row) (*models.Publisher, error) {
	return scanPublisherRows(row)
}

func scanPublisherRows(row scannable) (*models.Publisher, error) {
	var p models.Publisher
	var configJSON []byte
	var lastActiveAt *time.Time

	err := row.Scan(
		&p.ID, &p.Domain, &p.Email, &p.Status, &p.APIKeyHash, &p.AdminAPIKeyRef,
		&p.SubscriptionTier, &configJSON, &p.WidgetConfig,
		&p.TotalBlogsProcessed, &p.BlogSlotsReserved, &p.TotalQuestionsGenerated,
		&p.CreatedAt, &p.UpdatedAt, &lastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	if lastActiveAt != nil {
		p.LastActiveAt = *lastActiveAt
	}

	if err := json.Unmarshal(configJSON, &p.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling publisher config: %w", err)
	}
	return &p, nil
}

var _ interfaces.PublisherStore = (*PublisherStore)(nil)

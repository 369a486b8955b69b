// Package registry resolves publishers by domain or API key and enforces
// their blog-slot quota.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/ternarybob/blogqa/internal/common"
	"github.com/ternarybob/blogqa/internal/interfaces"
	"github.com/ternarybob/blogqa/internal/models"
	"github.com/ternarybob/blogqa/internal/urlnorm"
)

// ErrNotFound is returned when no publisher matches the given domain or key.
var ErrNotFound = errors.New("publisher not found")

// Manager implements interfaces.PublisherRegistry.
type Manager struct {
	publishers interfaces.PublisherStore
	logger     *common.Logger
}

// NewManager wires the registry against the relational publisher store.
func NewManager(publishers interfaces.PublisherStore, logger *common.Logger) *Manager {
	return &Manager{publishers: publishers, logger: logger}
}

// HashAPIKey derives the indexable digest stored in and looked up from
// publishers.api_key_hash. Publisher API keys are checked on every widget
// request, so they use a deterministic SHA-256 digest rather than bcrypt —
// bcrypt's per-call salt makes it unsuitable for an equality lookup and its
// deliberate slowness would cap request throughput.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ResolveByDomain finds the publisher registered for requestHost, allowing
// a registered apex domain to match a subdomain request.
func (m *Manager) ResolveByDomain(ctx context.Context, requestHost string) (*models.Publisher, error) {
	p, err := m.publishers.GetByDomain(ctx, requestHost, true)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// ResolveByAPIKey hashes apiKey and looks up the owning publisher.
func (m *Manager) ResolveByAPIKey(ctx context.Context, apiKey string) (*models.Publisher, error) {
	p, err := m.publishers.GetByAPIKeyHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Reserve checks max_total_blogs and, on success, returns a handle the
// caller must Release exactly once.
func (m *Manager) Reserve(ctx context.Context, publisherID string) (interfaces.SlotReservation, error) {
	if err := m.publishers.ReserveBlogSlot(ctx, publisherID); err != nil {
		return nil, err
	}
	return &slotReservation{store: m.publishers, publisherID: publisherID, logger: m.logger}, nil
}

// RecordQuestionsGenerated adds n to the publisher's lifetime question count.
func (m *Manager) RecordQuestionsGenerated(ctx context.Context, publisherID string, n int) error {
	return m.publishers.IncrementQuestionsGenerated(ctx, publisherID, n)
}

// CheckWhitelist allows blogURL when the publisher's whitelist is empty, or
// when blogURL (normalized) starts with any whitelisted prefix (also
// normalized).
func CheckWhitelist(blogURL string, publisher *models.Publisher) bool {
	if len(publisher.Config.WhitelistedBlogURLs) == 0 {
		return true
	}
	for _, prefix := range publisher.Config.WhitelistedBlogURLs {
		if urlnorm.HasPrefix(blogURL, prefix) {
			return true
		}
	}
	return false
}

// slotReservation is the SlotReservation handle returned by Reserve. Release
// must be called exactly once; repeated calls are a no-op.
type slotReservation struct {
	store       interfaces.PublisherStore
	publisherID string
	logger      *common.Logger
	once        sync.Once
	releaseErr  error
}

func (r *slotReservation) Release(ctx context.Context, processed bool) error {
	r.once.Do(func() {
		r.releaseErr = r.store.ReleaseBlogSlot(ctx, r.publisherID, processed)
		if r.releaseErr != nil {
			r.logger.Warn().Str("publisher_id", r.publisherID).Err(r.releaseErr).Msg("Failed to release blog slot")
		}
	})
	return r.releaseErr
}

var _ interfaces.PublisherRegistry = (*Manager)(nil)

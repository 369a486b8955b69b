package orchestrator

import (
	"context"

	"github.com/ternarybob/blogqa/internal/models"
)

// acquireContent implements §4.5 step 2: reuse cached content when usable,
// otherwise crawl and persist a fresh copy with triggered_count reset to 0.
func (o *Orchestrator) acquireContent(ctx context.Context, blogURL string) (*models.BlogContent, error) {
	existing, err := o.content.Get(ctx, blogURL)
	if err != nil {
		o.logger.Debug().Str("blog_url", blogURL).Err(err).Msg("Orchestrator: content cache lookup failed, crawling")
	}
	if existing.IsUsable() {
		return existing, nil
	}

	fetched, err := o.crawler.Fetch(ctx, blogURL)
	if err != nil {
		return nil, err
	}
	fetched.URL = blogURL
	fetched.TriggeredCount = 0

	if err := o.content.Create(ctx, fetched); err != nil {
		return nil, dbErrorf("persisting crawled content: %v", err)
	}
	return fetched, nil
}

package models

import "time"

// Publisher status values.
const (
	PublisherStatusActive     = "active"
	PublisherStatusInactive   = "inactive"
	PublisherStatusSuspended  = "suspended"
	PublisherStatusTrial      = "trial"
)

// PublisherConfig holds the per-publisher pipeline tuning knobs, embedded in Publisher.
type PublisherConfig struct {
	QuestionsPerBlog int `json:"questions_per_blog"`

	SummaryModel   string `json:"summary_model"`
	QuestionsModel string `json:"questions_model"`
	ChatModel      string `json:"chat_model"`

	SummaryMaxTokens    int     `json:"summary_max_tokens"`
	SummaryTemperature  float64 `json:"summary_temperature"`
	QuestionsMaxTokens  int     `json:"questions_max_tokens"`
	QuestionsTemperature float64 `json:"questions_temperature"`
	ChatMaxTokens       int     `json:"chat_max_tokens"`
	ChatTemperature     float64 `json:"chat_temperature"`

	UseGrounding bool `json:"use_grounding"`

	DailyBlogLimit *int `json:"daily_blog_limit,omitempty"` // nil = unlimited
	MaxTotalBlogs  *int `json:"max_total_blogs,omitempty"`  // nil = unlimited

	ThresholdBeforeProcessingBlog int `json:"threshold_before_processing_blog"`

	WhitelistedBlogURLs []string `json:"whitelisted_blog_urls"`

	CustomQuestionPrompt string `json:"custom_question_prompt"`
	CustomSummaryPrompt  string `json:"custom_summary_prompt"`
}

// DefaultPublisherConfig returns the hardcoded fallback used when a publisher
// cannot be resolved for a blog_url (orchestrator §4.5 step 1).
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		QuestionsPerBlog:     5,
		SummaryModel:         "gpt-4o-mini",
		QuestionsModel:       "gpt-4o-mini",
		ChatModel:            "gpt-4o-mini",
		SummaryMaxTokens:     1024,
		SummaryTemperature:   0.7,
		QuestionsMaxTokens:   1024,
		QuestionsTemperature: 0.7,
		ChatMaxTokens:        512,
		ChatTemperature:      0.7,
		ThresholdBeforeProcessingBlog: 0,
	}
}

// Publisher is a relational-store account record (table "publishers").
type Publisher struct {
	ID     string `json:"id"`
	Domain string `json:"domain"` // canonical, lower-cased, no leading "www."
	Email  string `json:"email"`
	Status string `json:"status"`

	APIKeyHash     string `json:"-"` // sha256 digest, never serialized
	AdminAPIKeyRef string `json:"admin_api_key_ref,omitempty"`

	SubscriptionTier string          `json:"subscription_tier"`
	Config           PublisherConfig `json:"config"`
	WidgetConfig     string          `json:"widget_config"` // opaque JSON, passed through verbatim

	TotalBlogsProcessed     int `json:"total_blogs_processed"`
	BlogSlotsReserved       int `json:"blog_slots_reserved"`
	TotalQuestionsGenerated int `json:"total_questions_generated"`

	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// IsActive reports whether the publisher may be served.
func (p *Publisher) IsActive() bool {
	return p.Status == PublisherStatusActive || p.Status == PublisherStatusTrial
}

// PublisherMetadata is the widget-safe projection returned by the
// unauthenticated GetPublisherMetadata endpoint.
type PublisherMetadata struct {
	Domain           string `json:"domain"`
	SubscriptionTier string `json:"subscription_tier"`
	WidgetConfig     string `json:"widget_config"`
}

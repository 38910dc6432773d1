package model

import "time"

// TrainingData is generated content kept for later model training. It is never read back.
type TrainingData struct {
	ID                string            `bson:"_id" json:"id"`
	UserID            string            `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Source            string            `bson:"source" json:"source"`
	URL               string            `bson:"url,omitempty" json:"url,omitempty"`
	TextContent       string            `bson:"text_content" json:"text_content"`
	MediaURL          string            `bson:"media_url,omitempty" json:"media_url,omitempty"`
	Hashtags          []string          `bson:"hashtags" json:"hashtags"`
	Hooks             []string          `bson:"hooks" json:"hooks"`
	EngagementMetrics EngagementMetrics `bson:"engagement_metrics" json:"engagement_metrics"`
	Category          string            `bson:"category" json:"category"`
	AILabels          []string          `bson:"ai_labels" json:"ai_labels"`
	UserGenerated     bool              `bson:"user_generated" json:"user_generated"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}

// EngagementMetrics are the engagement counters stored with training data.
type EngagementMetrics struct {
	Likes    int `bson:"likes" json:"likes"`
	Shares   int `bson:"shares" json:"shares"`
	Comments int `bson:"comments" json:"comments"`
	Views    int `bson:"views" json:"views"`
}

// Training data sources.
const (
	SourceSerpAPI           = "serpapi"
	SourceUserGenerated     = "user-generated"
	SourceContentSuggestion = "contentsuggestion"
)

// InteractionType classifies a UserInteraction.
type InteractionType string

const (
	InteractionAPICall         InteractionType = "api_call"
	InteractionSearch          InteractionType = "search"
	InteractionTemplateUsage   InteractionType = "template_usage"
	InteractionContentSuggests InteractionType = "contentsuggestion"
	InteractionPurchase        InteractionType = "purchase"
)

// UserInteraction is a raw interaction log entry. It is never read back.
type UserInteraction struct {
	ID         string              `bson:"_id" json:"id"`
	UserID     string              `bson:"user_id" json:"user_id"`
	ActionType InteractionType     `bson:"action_type" json:"action_type"`
	Query      string              `bson:"query,omitempty" json:"query,omitempty"`
	Details    map[string]string   `bson:"details" json:"details"`
	Metadata   InteractionMetadata `bson:"metadata" json:"metadata"`
	Timestamp  time.Time           `bson:"timestamp" json:"timestamp"`
}

// InteractionMetadata describes the client that made the request.
type InteractionMetadata struct {
	IPAddress  string `bson:"ip_address" json:"ip_address"`
	UserAgent  string `bson:"user_agent" json:"user_agent"`
	DeviceType string `bson:"device_type" json:"device_type"`
}

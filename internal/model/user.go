package model

import "time"

// DefaultCredits is the balance granted to a user created at first authentication.
const DefaultCredits = 10

// User represents a user in the system
type User struct {
	ID                string          `bson:"_id" json:"id"`
	Email             string          `bson:"email" json:"email"`
	PasswordHash      *string         `bson:"password_hash,omitempty" json:"-"`
	Credits           int             `bson:"credits" json:"credits"`
	Subscription      Plan            `bson:"subscription" json:"subscription"`
	SubscriptionStart time.Time       `bson:"subscription_start_date" json:"subscription_start_date"`
	SubscriptionEnd   *time.Time      `bson:"subscription_end_date,omitempty" json:"subscription_end_date,omitempty"`
	Thumbnails        []Thumbnail     `bson:"thumbnails" json:"thumbnails"`
	Hashtags          []Hashtag       `bson:"hashtags" json:"hashtags"`
	TemplateUsage     []TemplateUsage `bson:"template_usage" json:"template_usage"`
	ScrapeHistory     []ScrapeRecord  `bson:"scrape_history" json:"scrape_history"`
	TotalScrapes      int             `bson:"total_scrapes" json:"total_scrapes"`
	WebhookData       []WebhookRecord `bson:"webhook_data" json:"webhook_data"`
	CreatedAt         time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `bson:"updated_at" json:"updated_at"`
}

// NewUser returns a user with the defaults applied at first authentication.
func NewUser(id, email string, now time.Time) *User {
	return &User{
		ID:                id,
		Email:             NormalizeEmail(email),
		Credits:           DefaultCredits,
		Subscription:      PlanBasic,
		SubscriptionStart: now,
		Thumbnails:        []Thumbnail{},
		Hashtags:          []Hashtag{},
		TemplateUsage:     []TemplateUsage{},
		ScrapeHistory:     []ScrapeRecord{},
		WebhookData:       []WebhookRecord{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Account is the per-request view of the caller, resolved once by the account guard.
type Account struct {
	UserID  string
	Email   string
	Credits int
	Plan    Plan
}

// Account returns the request context view of the user.
func (u *User) Account() Account {
	return Account{UserID: u.ID, Email: u.Email, Credits: u.Credits, Plan: u.Subscription}
}

// Thumbnail is a generated image appended to the user's history.
type Thumbnail struct {
	ID        string    `bson:"_id" json:"id"`
	URL       string    `bson:"url" json:"url"`
	ObjectKey string    `bson:"object_key,omitempty" json:"object_key,omitempty"`
	Prompt    string    `bson:"prompt,omitempty" json:"prompt,omitempty"`
	ModelID   string    `bson:"model_id,omitempty" json:"model_id,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Hashtag is a generated tag appended to the user's history.
type Hashtag struct {
	ID        string    `bson:"_id" json:"id"`
	Tag       string    `bson:"tag" json:"tag"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// TemplateUsage records content produced from a template.
type TemplateUsage struct {
	ID         string    `bson:"_id" json:"id"`
	TemplateID string    `bson:"template_id" json:"template_id"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ScrapeRecord records a web search/analytics fetch.
type ScrapeRecord struct {
	ID        string    `bson:"_id" json:"id"`
	TaskType  string    `bson:"task_type" json:"task_type"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// WebhookRecord is a raw billing event kept on the user for audit.
type WebhookRecord struct {
	EventID          string    `bson:"event_id" json:"event_id"`
	PaymentReference string    `bson:"payment_reference" json:"payment_reference"`
	Status           string    `bson:"status" json:"status"`
	MediaReferences  []string  `bson:"media_references" json:"media_references"`
	ReceivedAt       time.Time `bson:"received_at" json:"received_at"`
}

// Usage is the batch of history records appended by one metered call.
type Usage struct {
	Thumbnails    []Thumbnail
	Hashtags      []Hashtag
	TemplateUsage []TemplateUsage
	ScrapeHistory []ScrapeRecord
}

// IsEmpty reports whether the batch appends nothing.
func (u Usage) IsEmpty() bool {
	return len(u.Thumbnails) == 0 && len(u.Hashtags) == 0 && len(u.TemplateUsage) == 0 && len(u.ScrapeHistory) == 0
}

package dto

import "time"

// CreditsResponseDTO is the caller's balance
type CreditsResponseDTO struct {
	Credits int `json:"credits"`
}

// ThumbnailHistoryDTO is a generated thumbnail in the profile history
type ThumbnailHistoryDTO struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HashtagHistoryDTO is a generated hashtag in the profile history
type HashtagHistoryDTO struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileResponseDTO is returned by GET /profile
type ProfileResponseDTO struct {
	Email               string                `json:"email"`
	Credits             int                   `json:"credits"`
	Thumbnails          []ThumbnailHistoryDTO `json:"thumbnails"`
	Hashtags            []HashtagHistoryDTO   `json:"hashtags"`
	Subscription        string                `json:"subscription"`
	SubscriptionEndDate *time.Time            `json:"subscriptionEndDate,omitempty"`
}

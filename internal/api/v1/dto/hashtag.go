package dto

// HashtagGenerateDTO is the body of POST /generate-hashtags
type HashtagGenerateDTO struct {
	Topic string `json:"topic" validate:"required,max=500"`
}

type TrendPointDTO struct {
	Day   int `json:"day"`
	Value int `json:"value"`
}

type HashtagDTO struct {
	Tag    string          `json:"tag"`
	Score  int             `json:"score"`
	Volume int             `json:"volume"`
	Trend  []TrendPointDTO `json:"trend"`
}

// HashtagResponseDTO is returned by the hashtag generation and trending routes
type HashtagResponseDTO struct {
	Hashtags []HashtagDTO `json:"hashtags"`
	Credits  int          `json:"credits"`
}

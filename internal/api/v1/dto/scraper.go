package dto

// ScrapeRequestDTO is the body of POST /serpwebscraper
type ScrapeRequestDTO struct {
	UserQuery    string `json:"userQuery" validate:"required,max=500"`
	SearchEngine string `json:"searchEngine" validate:"omitempty,oneof=google bing yahoo duckduckgo youtube baidu yandex"`
}

type SearchResultDTO struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Views   int    `json:"views"`
	Likes   int    `json:"likes"`
	Shares  int    `json:"shares"`
}

type ChartPointDTO struct {
	Content string `json:"content"`
	Views   int    `json:"views"`
	Likes   int    `json:"likes"`
	Shares  int    `json:"shares"`
}

// ScrapeResponseDTO is the analytics view returned by POST /serpwebscraper
type ScrapeResponseDTO struct {
	SearchResults       []SearchResultDTO `json:"searchResults"`
	ChartData           []ChartPointDTO   `json:"chartData"`
	SocialMediaMentions int               `json:"socialMediaMentions"`
	TopTrends           []string          `json:"topTrends"`
	PostCount           int               `json:"postCount"`
	Credits             int               `json:"credits"`
}

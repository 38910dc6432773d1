package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const serpAPIBaseURL = "https://serpapi.com"

// SerpAPI is a client for serpapi.com search.
type SerpAPI struct {
	client
}

// SearchResponse is the subset of a SerpAPI search result the service uses.
type SearchResponse struct {
	RelatedSearches []RelatedSearch `json:"related_searches"`
	OrganicResults  []OrganicResult `json:"organic_results"`
	Error           string          `json:"error,omitempty"`
}

// RelatedSearch is one "people also search for" entry.
type RelatedSearch struct {
	Query string `json:"query"`
	Link  string `json:"link"`
}

// OrganicResult is one organic search result.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// NewSerpAPI creates a SerpAPI client.
func NewSerpAPI(apiKey string, opts ...Option) *SerpAPI {
	return &SerpAPI{client: newClient("serpapi", serpAPIBaseURL, apiKey, 10*time.Second, opts)}
}

// Search runs one search query on the given engine (default google).
func (s *SerpAPI) Search(ctx context.Context, query, engine string) (*SearchResponse, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if engine == "" {
		engine = "google"
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("api_key", s.apiKey)
	q.Set("engine", engine)
	q.Set("hl", "en")
	q.Set("gl", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi: failed to create request: %w", err)
	}
	body, _, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var out SearchResponse
	if err := decode(s.name, body, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("serpapi: %s: %w", out.Error, ErrUpstream)
	}
	return &out, nil
}

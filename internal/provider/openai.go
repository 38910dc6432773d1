package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL        = "https://api.openai.com/v1"
	openAIChatEndpoint   = "/chat/completions"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	defaultOpenAITimeout = 30 * time.Second
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAI is a chat-completions client.
type OpenAI struct {
	client
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	return &OpenAI{client: newClient("openai", openAIBaseURL, apiKey, defaultOpenAITimeout, opts)}
}

// Chat sends one completion request and returns the first choice's content.
// A nil temperature leaves the provider default.
func (o *OpenAI) Chat(ctx context.Context, model string, messages []Message, temperature *float64) (string, error) {
	if err := o.configured(); err != nil {
		return "", err
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	requestBody := struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature *float64  `json:"temperature,omitempty"`
	}{Model: model, Messages: messages, Temperature: temperature}

	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+openAIChatEndpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	body, _, err := o.do(req)
	if err != nil {
		return "", err
	}
	var resp struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := decode(o.name, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai: empty completion: %w", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

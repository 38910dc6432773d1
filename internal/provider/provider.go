// Package provider holds thin HTTP clients for the external generation services.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var (
	// ErrUpstream wraps every failed provider call.
	ErrUpstream = errors.New("upstream_failure")
	// ErrNotConfigured is returned when the provider's API key is missing.
	ErrNotConfigured = errors.New("upstream_unavailable")
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// IsTransient reports whether a failed call is worth retrying: timeouts, 429 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Observer receives the outcome of every provider call.
type Observer interface {
	ObserveProvider(name string, took time.Duration, err error)
}

// Option configures a client.
type Option func(*client)

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) { c.http.Timeout = d }
}

// WithObserver reports call durations and errors.
func WithObserver(o Observer) Option {
	return func(c *client) { c.observer = o }
}

type client struct {
	name     string
	baseURL  string
	apiKey   string
	http     *http.Client
	observer Observer
}

func newClient(name, baseURL, apiKey string, timeout time.Duration, opts []Option) client {
	c := client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *client) configured() error {
	if c.apiKey == "" {
		return fmt.Errorf("%s: API key is not configured: %w", c.name, ErrNotConfigured)
	}
	return nil
}

// do sends req and returns the body of a 2xx response.
func (c *client) do(req *http.Request) (body []byte, contentType string, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveProvider(c.name, time.Since(start), err)
		}
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s: request failed: %w: %w", c.name, ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to read response: %w: %w", c.name, ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &StatusError{Provider: c.name, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// errorMessage extracts the message from the error bodies the providers return:
// {"error": "..."} or {"error": {"message": "..."}}.
func errorMessage(body []byte) string {
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil {
		return nested.Error.Message
	}
	return ""
}

func decode(name string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: invalid response: %w: %w", name, ErrUpstream, err)
	}
	return nil
}

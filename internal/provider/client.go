// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 4096

	apiVersion = "2023-06-01"
)

// =============================================================================
// SHARED HTTP CLIENTS
// =============================================================================

// PERFORMANCE: Shared clients reuse pooled connections across requests.
// The streaming client has no overall timeout; a stream lives as long as
// the generation runs, and cancellation comes from the request context.
var (
	sharedTransport = &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	sharedStreamingClient = &http.Client{
		Transport: sharedTransport,
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// Client calls the upstream messages API.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithModel overrides the model name.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithMaxTokens overrides the generation cap.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithHTTPClient overrides the HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a provider client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		client:    sharedStreamingClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// =============================================================================
// REQUEST / EVENT TYPES
// =============================================================================

// messagesRequest is the upstream request body.
type messagesRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
	Stream    bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Event is one upstream stream event.
type Event struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// TextDelta returns the text carried by a content_block_delta event.
func (e Event) TextDelta() string {
	if e.Type != "content_block_delta" || e.Delta.Type != "text_delta" {
		return ""
	}
	return e.Delta.Text
}

// EventCallback receives each upstream event in order.
type EventCallback func(Event)

// =============================================================================
// STREAMING
// =============================================================================

// Stream sends the conversation upstream and delivers events to the
// callback until the stream ends. Returns nil on a clean message_stop or
// EOF; a classified error otherwise.
func (c *Client) Stream(ctx context.Context, system string, messages []model.Message, callback EventCallback) error {
	if !c.IsConfigured() {
		return ErrNoAPIKey
	}

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Stream:    true,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, apiMessage{
			Role:    m.Role.String(),
			Content: m.Content,
		})
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return parseAPIError(resp.StatusCode, raw)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads SSE events until the stream ends. Malformed event
// payloads are skipped, not fatal.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback EventCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return classifyTransportError(err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		if ev.Type == "error" && ev.Error != nil {
			return parseAPIError(0, data)
		}

		callback(ev)

		if ev.Type == "message_stop" {
			return nil
		}
	}
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classifyTransportError maps network-level failures onto ErrConnection.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// parseAPIError decodes an upstream error body into an APIError.
func parseAPIError(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Type = parsed.Error.Type
		apiErr.Message = parsed.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

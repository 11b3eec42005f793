// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/wire"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAuthFailed indicates the gateway rejected the request as unauthorized.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrUnavailable indicates the gateway could not reach the upstream provider.
	ErrUnavailable = errors.New("service unavailable")

	// ErrBadRequest indicates the gateway rejected the request shape.
	ErrBadRequest = errors.New("bad request")
)

// GatewayError is a decoded error response from the gateway.
type GatewayError struct {
	Status  int
	Message string
	Details string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

// Is maps the status onto the matching sentinel.
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrAuthFailed:
		return e.Status == http.StatusUnauthorized
	case ErrUnavailable:
		return e.Status == http.StatusServiceUnavailable
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// StreamError wraps a mid-stream failure, preserving the text already
// delivered before the connection died.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Request is the chat payload sent to the gateway.
type Request struct {
	Messages     []model.Message     `json:"messages"`
	SystemPrompt *model.SystemPrompt `json:"systemPrompt,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// DefaultBaseURL points at a local gateway.
const DefaultBaseURL = "http://localhost:8787"

// PERFORMANCE: One pooled client shared by all Client values. No overall
// timeout; streams run as long as generation does and cancellation comes
// from the context.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client streams chat completions from the gateway.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the gateway at baseURL ("" means DefaultBaseURL).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  sharedStreamingClient,
	}
}

// FragmentCallback receives each decoded text fragment in order.
type FragmentCallback func(text string)

// Stream posts the request and delivers decoded text fragments until the
// stream ends. A clean end returns nil even when zero fragments arrived; a
// connection that dies mid-stream returns a StreamError carrying the
// partial text.
func (c *Client) Stream(ctx context.Context, req Request, callback FragmentCallback) error {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// decodeError turns a non-200 response into a GatewayError.
func (c *Client) decodeError(resp *http.Response) error {
	ge := &GatewayError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		ge.Message = body.Error
		ge.Details = body.Details
	} else {
		ge.Message = http.StatusText(resp.StatusCode)
	}
	return ge
}

// processStream feeds body chunks through the frame decoder, interpreting
// completed lines as they arrive.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback FragmentCallback) error {
	decoder := wire.NewDecoder()
	interpreter := wire.NewInterpreter()
	var delivered strings.Builder

	deliver := func(lines []string) {
		for _, text := range interpreter.InterpretAll(lines) {
			delivered.WriteString(text)
			callback(text)
		}
	}

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			deliver(decoder.Feed(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if tail := decoder.Flush(); tail != "" {
					log.Printf("STREAM_TAIL_DISCARDED | bytes=%d", len(tail))
				}
				return nil
			}
			return &StreamError{Partial: delivered.String(), Err: err}
		}
	}
}

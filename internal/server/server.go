// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/provider"
	"github.com/jeranaias/tanchat/internal/wire"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the gateway.
	DefaultPort = 8787

	// MaxRequestBodySize caps the request body to prevent DoS (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageCount is the maximum number of messages in a request.
	MaxMessageCount = 200

	// MaxMessageLength is the maximum length of a single message.
	MaxMessageLength = 100000

	// Version is the gateway version.
	Version = "0.1.0"
)

// errorMessagePrefix marks synthetic assistant messages committed after a
// failed round trip. They are stripped from history before going upstream
// so the model never sees its own failure notices.
const errorMessagePrefix = "Sorry, I encountered an error"

// DefaultSystemPrompt is always sent upstream. A custom prompt from the
// client is layered after it, not instead of it.
const DefaultSystemPrompt = "You are a helpful AI assistant. Format your responses using Markdown. " +
	"Use code blocks with language identifiers for code snippets, " +
	"**bold** and *italic* for emphasis, and lists where appropriate."

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// ChatRequest is the client's chat payload.
type ChatRequest struct {
	Messages     []model.Message     `json:"messages"`
	SystemPrompt *model.SystemPrompt `json:"systemPrompt,omitempty"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the chat gateway HTTP server.
type Server struct {
	port     int
	router   *http.ServeMux
	server   *http.Server
	provider *provider.Client
	limiter  *RateLimiter
}

// NewServer creates a gateway on the given port (0 means DefaultPort).
func NewServer(port int, p *provider.Client) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:     port,
		router:   http.NewServeMux(),
		provider: p,
		limiter:  NewRateLimiter(10, 20),
	}
	s.setupRoutes()
	return s
}

// WithRateLimiter replaces the default per-client limiter.
func (s *Server) WithRateLimiter(l *RateLimiter) *Server {
	s.limiter = l
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /v1/chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	chain := Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(),
		RateLimitMiddleware(s.limiter),
	)
	return chain(s.router)
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("SERVER_START | port=%d version=%s", s.port, Version)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Printf("SERVER_SHUTDOWN | port=%d", s.port)
	return s.server.Shutdown(ctx)
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /v1/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize), "")
			return
		}
		log.Printf("BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format", "")
		return
	}

	if len(req.Messages) > MaxMessageCount {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount), "")
		return
	}
	for i, msg := range req.Messages {
		if len(msg.Content) > MaxMessageLength {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Message %d exceeds maximum length of %d", i, MaxMessageLength), "")
			return
		}
		if msg.Role != "" && !msg.Role.Valid() {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid role %q at message %d", msg.Role, i), "")
			return
		}
	}

	// Drop messages that carry nothing the model should see.
	messages := filterMessages(req.Messages)
	if len(messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "No valid messages to send", "")
		return
	}

	system := buildSystemPrompt(req.SystemPrompt)
	s.streamChat(w, r, system, messages)
}

// filterMessages removes empty messages and prior synthetic error messages.
func filterMessages(messages []model.Message) []model.Message {
	out := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role == model.RoleAssistant && strings.HasPrefix(m.Content, errorMessagePrefix) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// buildSystemPrompt layers an enabled custom prompt over the default one.
func buildSystemPrompt(custom *model.SystemPrompt) string {
	if custom == nil || !custom.Enabled || strings.TrimSpace(custom.Value) == "" {
		return DefaultSystemPrompt
	}
	return DefaultSystemPrompt + "\n\n" + custom.Value
}

// streamChat forwards the conversation upstream and re-emits deltas as
// NDJSON frames.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, system string, messages []model.Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported", "")
		return
	}

	started := false
	start := time.Now()
	frames := 0

	err := s.provider.Stream(r.Context(), system, messages, func(ev provider.Event) {
		text := ev.TextDelta()
		if text == "" {
			return
		}
		if !started {
			// Headers commit on the first frame; errors after this point
			// can only surface as a dropped connection.
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		data, err := wire.NewTextFrame(text).Encode()
		if err != nil {
			return
		}
		if _, err := w.Write(data); err != nil {
			return
		}
		// Flush per frame: pacing happens client-side, never here.
		flusher.Flush()
		frames++
	})

	if err != nil {
		log.Printf("STREAM_ERROR | frames=%d error=%v", frames, err)
		if !started {
			s.writeProviderError(w, err)
			return
		}
		// Mid-stream failure: abort the connection so the client's decoder
		// sees a short read instead of a silent clean end.
		panic(http.ErrAbortHandler)
	}

	if !started {
		// Zero-frame stream: a valid, empty NDJSON response.
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
	}

	log.Printf("STREAM_COMPLETE | frames=%d latency=%dms", frames, time.Since(start).Milliseconds())
}

// writeProviderError maps a classified provider error onto the wire taxonomy.
func (s *Server) writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrAuthFailed), errors.Is(err, provider.ErrNoAPIKey):
		s.writeError(w, http.StatusUnauthorized,
			"Authentication failed. Please check your API key.", errName(err))
	case errors.Is(err, provider.ErrConnection):
		s.writeError(w, http.StatusServiceUnavailable,
			"Unable to connect to AI service. Please check your connection.", errName(err))
	case errors.Is(err, provider.ErrRateLimited):
		s.writeError(w, http.StatusInternalServerError,
			"Rate limit exceeded. Please try again in a moment.", errName(err))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing to write.
	default:
		s.writeError(w, http.StatusInternalServerError,
			"Failed to generate response", errName(err))
	}
}

// errName reports the error's classification for the details field.
func errName(err error) string {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && apiErr.Type != "" {
		return apiErr.Type
	}
	switch {
	case errors.Is(err, provider.ErrConnection):
		return "connection_error"
	case errors.Is(err, provider.ErrAuthFailed):
		return "authentication_error"
	case errors.Is(err, provider.ErrNoAPIKey):
		return "authentication_error"
	case errors.Is(err, provider.ErrRateLimited):
		return "rate_limit_error"
	}
	return ""
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse is the health check body.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	ProviderStatus string `json:"provider_status"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	if s.provider != nil && s.provider.IsConfigured() {
		health.ProviderStatus = "configured"
	} else {
		health.ProviderStatus = "not_configured"
	}
	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WRITE_ERROR | error=%v", err)
	}
}

// writeError writes a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, msg, details string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

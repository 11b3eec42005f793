// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/provider"
	"github.com/jeranaias/tanchat/internal/wire"
)

// fakeUpstream plays an SSE provider emitting the given deltas.
func fakeUpstream(t *testing.T, deltas []string, capture *[][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var buf bytes.Buffer
			buf.ReadFrom(r.Body)
			*capture = append(*capture, buf.Bytes())
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			frame, _ := json.Marshal(map[string]any{
				"type":  "content_block_delta",
				"delta": map[string]string{"type": "text_delta", "text": d},
			})
			w.Write([]byte("data: " + string(frame) + "\n\n"))
		}
		w.Write([]byte("data: {\"type\":\"message_stop\"}\n\n"))
	}))
}

func newTestServer(upstreamURL string) *Server {
	p := provider.New("test-key", provider.WithBaseURL(upstreamURL))
	return NewServer(0, p).WithRateLimiter(NewRateLimiter(1000, 1000))
}

func postChat(t *testing.T, handler http.Handler, req ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	rec := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
	handler.ServeHTTP(rec, httpReq)
	return rec
}

func TestChatStreamsFrames(t *testing.T) {
	upstream := fakeUpstream(t, []string{"Hel", "lo!"}, nil)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{model.NewUserMessage("hi")},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Expected application/x-ndjson, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 frames, got %d: %q", len(lines), rec.Body.String())
	}

	var got strings.Builder
	for _, line := range lines {
		f, err := wire.ParseFrame(line)
		if err != nil {
			t.Fatalf("Frame did not parse: %v", err)
		}
		got.WriteString(f.Text())
	}
	if got.String() != "Hello!" {
		t.Errorf("Expected 'Hello!', got %q", got.String())
	}
}

func TestChatZeroFrameStream(t *testing.T) {
	upstream := fakeUpstream(t, nil, nil)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{model.NewUserMessage("hi")},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "" {
		t.Errorf("Expected empty body for zero-frame stream, got %q", body)
	}
}

func TestChatNoValidMessages(t *testing.T) {
	s := newTestServer("http://unused.invalid")

	tests := []struct {
		name string
		req  ChatRequest
	}{
		{"empty list", ChatRequest{}},
		{"whitespace only", ChatRequest{Messages: []model.Message{
			{ID: "1", Role: model.RoleUser, Content: "   "},
		}}},
		{"only synthetic errors", ChatRequest{Messages: []model.Message{
			{ID: "1", Role: model.RoleAssistant, Content: "Sorry, I encountered an error generating a response."},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, s.Handler(), tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			var er ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
				t.Fatalf("Error body did not parse: %v", err)
			}
			if er.Error != "No valid messages to send" {
				t.Errorf("Unexpected error message: %q", er.Error)
			}
		})
	}
}

func TestChatFiltersHistoryBeforeUpstream(t *testing.T) {
	var captured [][]byte
	upstream := fakeUpstream(t, []string{"ok"}, &captured)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{
			{ID: "1", Role: model.RoleUser, Content: "real question"},
			{ID: "2", Role: model.RoleAssistant, Content: "Sorry, I encountered an error generating a response."},
			{ID: "3", Role: model.RoleUser, Content: ""},
			{ID: "4", Role: model.RoleUser, Content: "follow up"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	if len(captured) != 1 {
		t.Fatalf("Expected 1 upstream request, got %d", len(captured))
	}
	var sent struct {
		Messages []model.Message `json:"messages"`
		System   string          `json:"system"`
	}
	if err := json.Unmarshal(captured[0], &sent); err != nil {
		t.Fatalf("Upstream body did not parse: %v", err)
	}
	if len(sent.Messages) != 2 {
		t.Fatalf("Expected 2 filtered messages upstream, got %d", len(sent.Messages))
	}
	if sent.Messages[0].Content != "real question" || sent.Messages[1].Content != "follow up" {
		t.Errorf("Wrong messages sent upstream: %+v", sent.Messages)
	}
	if !strings.Contains(sent.System, "Markdown") {
		t.Errorf("Expected default system prompt upstream, got %q", sent.System)
	}
}

func TestChatCustomSystemPrompt(t *testing.T) {
	var captured [][]byte
	upstream := fakeUpstream(t, []string{"ok"}, &captured)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	postChat(t, s.Handler(), ChatRequest{
		Messages:     []model.Message{model.NewUserMessage("hi")},
		SystemPrompt: &model.SystemPrompt{Value: "Answer in French.", Enabled: true},
	})

	var sent struct {
		System string `json:"system"`
	}
	json.Unmarshal(captured[0], &sent)
	if !strings.Contains(sent.System, "Answer in French.") {
		t.Errorf("Expected custom prompt layered in, got %q", sent.System)
	}
	if !strings.Contains(sent.System, "Markdown") {
		t.Errorf("Expected default prompt retained, got %q", sent.System)
	}
}

func TestChatDisabledSystemPromptIgnored(t *testing.T) {
	var captured [][]byte
	upstream := fakeUpstream(t, []string{"ok"}, &captured)
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	postChat(t, s.Handler(), ChatRequest{
		Messages:     []model.Message{model.NewUserMessage("hi")},
		SystemPrompt: &model.SystemPrompt{Value: "Answer in French.", Enabled: false},
	})

	var sent struct {
		System string `json:"system"`
	}
	json.Unmarshal(captured[0], &sent)
	if strings.Contains(sent.System, "French") {
		t.Errorf("Disabled prompt leaked upstream: %q", sent.System)
	}
}

func TestChatAuthError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error","message":"bad key"}}`))
	}))
	defer upstream.Close()

	s := newTestServer(upstream.URL)
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{model.NewUserMessage("hi")},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	var er ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &er)
	if er.Details != "authentication_error" {
		t.Errorf("Expected authentication_error details, got %q", er.Details)
	}
}

func TestChatUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	s := newTestServer(upstream.URL)
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{model.NewUserMessage("hi")},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
}

func TestChatTooManyMessages(t *testing.T) {
	s := newTestServer("http://unused.invalid")
	msgs := make([]model.Message, MaxMessageCount+1)
	for i := range msgs {
		msgs[i] = model.Message{ID: "x", Role: model.RoleUser, Content: "hi"}
	}
	rec := postChat(t, s.Handler(), ChatRequest{Messages: msgs})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestChatInvalidRole(t *testing.T) {
	s := newTestServer("http://unused.invalid")
	rec := postChat(t, s.Handler(), ChatRequest{
		Messages: []model.Message{{ID: "1", Role: "wizard", Content: "hi"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	upstream := fakeUpstream(t, nil, nil)
	defer upstream.Close()

	p := provider.New("k", provider.WithBaseURL(upstream.URL))
	s := NewServer(0, p).WithRateLimiter(NewRateLimiter(1, 2))
	handler := s.Handler()

	limited := false
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("Expected rate limiter to trip after burst")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer("http://unused.invalid")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var h HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("Health body did not parse: %v", err)
	}
	if h.Status != "ok" || h.ProviderStatus != "configured" {
		t.Errorf("Unexpected health: %+v", h)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := Chain(RecoveryMiddleware())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", rec.Code)
	}
}

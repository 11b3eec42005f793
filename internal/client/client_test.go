// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/wire"
)

func ndjsonHandler(t *testing.T, fragments []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, f := range fragments {
			data, err := wire.NewTextFrame(f).Encode()
			if err != nil {
				t.Errorf("Encode failed: %v", err)
			}
			w.Write(data)
			flusher.Flush()
		}
	}
}

func TestStreamDeliversFragments(t *testing.T) {
	srv := httptest.NewServer(ndjsonHandler(t, []string{"Hel", "lo!"}))
	defer srv.Close()

	c := New(srv.URL)
	var got []string
	err := c.Stream(context.Background(), Request{
		Messages: []model.Message{model.NewUserMessage("hi")},
	}, func(text string) {
		got = append(got, text)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if strings.Join(got, "") != "Hello!" {
		t.Errorf("Expected 'Hello!', got %v", got)
	}
}

func TestStreamZeroFrames(t *testing.T) {
	srv := httptest.NewServer(ndjsonHandler(t, nil))
	defer srv.Close()

	c := New(srv.URL)
	calls := 0
	err := c.Stream(context.Background(), Request{}, func(string) { calls++ })
	if err != nil {
		t.Fatalf("Expected nil for zero-frame stream, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no callbacks, got %d", calls)
	}
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		good, _ := wire.NewTextFrame("ok").Encode()
		w.Write([]byte("{garbage\n"))
		w.Write(good)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var got strings.Builder
	err := c.Stream(context.Background(), Request{}, func(text string) {
		got.WriteString(text)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got.String() != "ok" {
		t.Errorf("Expected 'ok', got %q", got.String())
	}
}

func TestStreamDiscardsUnterminatedTail(t *testing.T) {
	// The final frame is missing its newline: the stream was cut mid-write,
	// so the tail must be discarded rather than delivered as content.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		good, _ := wire.NewTextFrame("Hel").Encode()
		w.Write(good)
		w.(http.Flusher).Flush()
		cut, _ := wire.NewTextFrame("lo!").Encode()
		w.Write([]byte(strings.TrimSuffix(string(cut), "\n")))
	}))
	defer srv.Close()

	c := New(srv.URL)
	var got strings.Builder
	err := c.Stream(context.Background(), Request{}, func(text string) {
		got.WriteString(text)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if got.String() != "Hel" {
		t.Errorf("Expected only the complete frame delivered, got %q", got.String())
	}
}

func TestStreamGatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"auth", http.StatusUnauthorized,
			`{"error":"Authentication failed. Please check your API key.","details":"authentication_error"}`,
			ErrAuthFailed},
		{"unavailable", http.StatusServiceUnavailable,
			`{"error":"Unable to connect to AI service. Please check your connection."}`,
			ErrUnavailable},
		{"bad request", http.StatusBadRequest,
			`{"error":"No valid messages to send"}`,
			ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			err := c.Stream(context.Background(), Request{}, func(string) {})
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Expected %v, got %v", tt.sentinel, err)
			}

			var ge *GatewayError
			if !errors.As(err, &ge) {
				t.Fatalf("Expected GatewayError, got %T", err)
			}
			if ge.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, ge.Status)
			}
		})
	}
}

func TestStreamConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	err := c.Stream(context.Background(), Request{}, func(string) {})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestStreamAbortedMidStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := wire.NewTextFrame("partial").Encode()
		w.Write(data)
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var got strings.Builder
	err := c.Stream(context.Background(), Request{}, func(text string) {
		got.WriteString(text)
	})

	var se *StreamError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StreamError, got %v", err)
	}
	if se.Partial != "partial" {
		t.Errorf("Expected partial content preserved, got %q", se.Partial)
	}
	if got.String() != "partial" {
		t.Errorf("Expected fragments before the abort delivered, got %q", got.String())
	}
}

func TestStreamContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(ndjsonHandler(t, []string{"x"}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Stream(ctx, Request{}, func(string) {})
	if err == nil {
		t.Error("Expected error from cancelled context")
	}
}

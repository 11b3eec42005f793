// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"sync"
	"testing"
	"time"
)

func TestInsideCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{"no fences", "plain prose", false},
		{"open fence", "text ```go\ncode", true},
		{"closed fence", "text ```go\ncode\n``` after", false},
		{"reopened fence", "``` a ``` b ``` c", true},
		{"empty", "", false},
		{"marker only", "```", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InsideCodeBlock(tt.content); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPaceFor(t *testing.T) {
	if PaceFor("```go\n") != PaceCode {
		t.Error("Expected code pace inside open fence")
	}
	if PaceFor("hello") != PaceProse {
		t.Error("Expected prose pace outside fences")
	}
	if PaceCode.RunesPerSlice <= PaceProse.RunesPerSlice {
		t.Error("Expected code slices larger than prose slices")
	}
	if PaceCode.Delay >= PaceProse.Delay {
		t.Error("Expected code delay shorter than prose delay")
	}
}

func TestSchedulerEmitsAllContent(t *testing.T) {
	var mu sync.Mutex
	var last string
	s := NewScheduler(func(content string) {
		mu.Lock()
		last = content
		mu.Unlock()
	})

	s.Enqueue("Hel")
	s.Enqueue("lo, ")
	s.Enqueue("world!")
	s.Wait()

	if got := s.Content(); got != "Hello, world!" {
		t.Errorf("Expected 'Hello, world!', got %q", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != "Hello, world!" {
		t.Errorf("Expected final notification with full content, got %q", last)
	}
}

func TestSchedulerNotificationsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var snapshots []string
	s := NewScheduler(func(content string) {
		mu.Lock()
		snapshots = append(snapshots, content)
		mu.Unlock()
	})

	s.Enqueue("abcdefghij")
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(snapshots) < 2 {
		t.Fatalf("Expected multiple paced notifications, got %d", len(snapshots))
	}
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		if len(cur) <= len(prev) || cur[:len(prev)] != prev {
			t.Errorf("Snapshot %d does not extend previous: %q -> %q", i, prev, cur)
		}
	}
}

func TestSchedulerSingleDrainLoop(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0
	s := NewScheduler(func(string) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	})

	// Concurrent enqueues must not spawn concurrent drain loops.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Enqueue("fragment text here")
		}()
	}
	wg.Wait()
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("Expected exactly 1 concurrent drain loop, got %d", maxActive)
	}
}

func TestSchedulerEnqueueDuringDrain(t *testing.T) {
	s := NewScheduler(nil)
	s.Enqueue("first fragment with some length")
	s.Enqueue("second")
	time.Sleep(2 * time.Millisecond)
	s.Enqueue(" third")
	s.Wait()

	if got := s.Content(); got != "first fragment with some lengthsecond third" {
		t.Errorf("Fragment lost or reordered: %q", got)
	}
}

func TestSchedulerUnicodeSlicing(t *testing.T) {
	s := NewScheduler(func(content string) {
		// Every snapshot must be valid UTF-8 cut on rune boundaries.
		for _, r := range content {
			if r == '�' {
				t.Errorf("Snapshot contains replacement character: %q", content)
			}
		}
	})
	s.Enqueue("日本語のテキストです")
	s.Wait()
	if got := s.Content(); got != "日本語のテキストです" {
		t.Errorf("Expected full unicode content, got %q", got)
	}
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(nil)
	for i := 0; i < 50; i++ {
		s.Enqueue("some fairly long fragment of prose text")
	}
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Stop")
	}

	if s.Enqueue("late"); s.Content() == "late" {
		t.Error("Enqueue after Stop should be discarded")
	}
}

func TestSchedulerWaitIdle(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait on idle scheduler did not return")
	}
	if !s.Idle() {
		t.Error("Expected scheduler to be idle")
	}
}

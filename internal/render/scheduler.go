// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// PACING
// =============================================================================

// Pace is the emission rate for one content class.
type Pace struct {
	RunesPerSlice int
	Delay         time.Duration
}

// Code drains faster than prose: readers scan code blocks, they read prose.
var (
	PaceCode  = Pace{RunesPerSlice: 5, Delay: 2 * time.Millisecond}
	PaceProse = Pace{RunesPerSlice: 2, Delay: 5 * time.Millisecond}
)

// PaceFor returns the pace for the current accumulated content.
func PaceFor(content string) Pace {
	if InsideCodeBlock(content) {
		return PaceCode
	}
	return PaceProse
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler drains queued text fragments into paced rune slices.
//
// Enqueue never blocks on the drain. At most one drain goroutine runs at a
// time: the first Enqueue after idle starts it, and it keeps running until
// the queue is observed empty under the lock. That exit check and Enqueue
// share the mutex, so a fragment enqueued during the final check is either
// seen by the running loop or starts a new one. Nothing is lost.
type Scheduler struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     []string
	rendering bool
	stopped   bool
	content   strings.Builder

	// notify is invoked synchronously from the drain goroutine after each
	// slice, with the full accumulated content. It runs outside the lock.
	notify func(content string)
}

// NewScheduler creates an idle scheduler. notify may be nil.
func NewScheduler(notify func(content string)) *Scheduler {
	s := &Scheduler{notify: notify}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue appends a fragment to the queue and starts the drain loop if it
// is not already running. Fragments enqueued after Stop are discarded.
func (s *Scheduler) Enqueue(fragment string) {
	if fragment == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.queue = append(s.queue, fragment)
	if !s.rendering {
		s.rendering = true
		go s.drain()
	}
}

// drain pops fragments until the queue is empty, emitting each as a series
// of paced rune slices.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if s.stopped || len(s.queue) == 0 {
			s.rendering = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		fragment := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		runes := []rune(fragment)
		for i := 0; i < len(runes); {
			s.mu.Lock()
			if s.stopped {
				s.rendering = false
				s.cond.Broadcast()
				s.mu.Unlock()
				return
			}
			pace := PaceFor(s.content.String())
			end := i + pace.RunesPerSlice
			if end > len(runes) {
				end = len(runes)
			}
			s.content.WriteString(string(runes[i:end]))
			snapshot := s.content.String()
			notify := s.notify
			s.mu.Unlock()

			// Callbacks run outside the lock so observers may call back in.
			if notify != nil {
				notify(snapshot)
			}

			i = end
			if i < len(runes) || s.queuedLen() > 0 {
				time.Sleep(pace.Delay)
			}
		}
	}
}

func (s *Scheduler) queuedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Wait blocks until every enqueued fragment has been fully emitted and the
// drain loop has gone idle, or until Stop is called.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.stopped && (len(s.queue) > 0 || s.rendering) {
		s.cond.Wait()
	}
}

// Stop abandons pacing: the queue is cleared, the drain loop exits at its
// next check, and all Wait callers unblock. Content already emitted stays.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.queue = nil
	s.cond.Broadcast()
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Content returns the accumulated emitted content.
func (s *Scheduler) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

// Idle reports whether the scheduler has no queued or draining work.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0 && !s.rendering
}

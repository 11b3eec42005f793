// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sync"

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// STATE TREE
// =============================================================================

// State is a snapshot of the client state tree.
type State struct {
	Prompts               []model.Prompt
	Conversations         []*model.Conversation
	CurrentConversationID string
	IsLoading             bool
	IsBannerVisible       bool
}

// clone returns a deep copy safe to hand to subscribers and readers.
func (s State) clone() State {
	out := s
	out.Prompts = make([]model.Prompt, len(s.Prompts))
	copy(out.Prompts, s.Prompts)
	out.Conversations = make([]*model.Conversation, len(s.Conversations))
	for i, c := range s.Conversations {
		out.Conversations[i] = c.Clone()
	}
	return out
}

// Subscriber receives a state snapshot after each mutation.
type Subscriber func(State)

// Store owns the state tree. All access is mutex-guarded; subscribers are
// invoked outside the lock so they may read back in.
type Store struct {
	mu    sync.Mutex
	state State
	subs  []Subscriber
}

// New creates a store with an empty tree and the banner visible.
func New() *Store {
	return &Store{
		state: State{
			IsBannerVisible: true,
		},
	}
}

// Subscribe registers a subscriber for all future mutations.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// notifyLocked snapshots state and subscriber list under the lock, then
// releases it and delivers. Callers must hold s.mu; it is unlocked on return.
func (s *Store) notifyAndUnlock() {
	snapshot := s.state.clone()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// =============================================================================
// PROMPT REDUCERS
// =============================================================================

// CreatePrompt appends a prompt. If it arrives active, every other prompt
// is deactivated so at most one stays active.
func (s *Store) CreatePrompt(p model.Prompt) {
	s.mu.Lock()
	if p.IsActive {
		for i := range s.state.Prompts {
			s.state.Prompts[i].IsActive = false
		}
	}
	s.state.Prompts = append(s.state.Prompts, p)
	s.notifyAndUnlock()
}

// DeletePrompt removes the prompt with the given ID. Unknown IDs are a no-op.
func (s *Store) DeletePrompt(id string) {
	s.mu.Lock()
	for i, p := range s.state.Prompts {
		if p.ID == id {
			s.state.Prompts = append(s.state.Prompts[:i], s.state.Prompts[i+1:]...)
			break
		}
	}
	s.notifyAndUnlock()
}

// SetPromptActive sets one prompt's active flag. Activating a prompt
// deactivates all others in the same mutation.
func (s *Store) SetPromptActive(id string, active bool) {
	s.mu.Lock()
	for i := range s.state.Prompts {
		switch {
		case s.state.Prompts[i].ID == id:
			s.state.Prompts[i].IsActive = active
		case active:
			s.state.Prompts[i].IsActive = false
		}
	}
	s.notifyAndUnlock()
}

// ActivePrompt returns the active prompt, if any.
func (s *Store) ActivePrompt() (model.Prompt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.state.Prompts {
		if p.IsActive {
			return p, true
		}
	}
	return model.Prompt{}, false
}

// =============================================================================
// CONVERSATION REDUCERS
// =============================================================================

// SetConversations replaces the whole conversation list. Used on hydration
// from the remote store.
func (s *Store) SetConversations(convs []*model.Conversation) {
	s.mu.Lock()
	s.state.Conversations = convs
	s.notifyAndUnlock()
}

// AddConversation prepends a conversation so the newest sits first.
func (s *Store) AddConversation(c *model.Conversation) {
	s.mu.Lock()
	s.state.Conversations = append([]*model.Conversation{c}, s.state.Conversations...)
	s.notifyAndUnlock()
}

// SetCurrentConversation moves the selection pointer.
func (s *Store) SetCurrentConversation(id string) {
	s.mu.Lock()
	s.state.CurrentConversationID = id
	s.notifyAndUnlock()
}

// UpdateConversationID rewrites a conversation's ID, and the selection
// pointer with it when it referenced the old ID. Both change in the same
// mutation: no observer ever sees the new ID with a stale selection.
func (s *Store) UpdateConversationID(oldID, newID string) {
	s.mu.Lock()
	for _, c := range s.state.Conversations {
		if c.ID == oldID {
			c.ID = newID
			break
		}
	}
	if s.state.CurrentConversationID == oldID {
		s.state.CurrentConversationID = newID
	}
	s.notifyAndUnlock()
}

// UpdateConversationTitle renames a conversation. Unknown IDs are a no-op.
func (s *Store) UpdateConversationTitle(id, title string) {
	s.mu.Lock()
	for _, c := range s.state.Conversations {
		if c.ID == id {
			c.Title = title
			break
		}
	}
	s.notifyAndUnlock()
}

// DeleteConversation removes a conversation. If it was selected, the
// selection clears in the same mutation.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	for i, c := range s.state.Conversations {
		if c.ID == id {
			s.state.Conversations = append(s.state.Conversations[:i], s.state.Conversations[i+1:]...)
			break
		}
	}
	if s.state.CurrentConversationID == id {
		s.state.CurrentConversationID = ""
	}
	s.notifyAndUnlock()
}

// AppendMessage appends a message to the conversation with the given ID.
// Returns false without mutating when the conversation is absent, so the
// caller can decide what a dropped append means.
func (s *Store) AppendMessage(conversationID string, msg model.Message) bool {
	s.mu.Lock()
	found := false
	for _, c := range s.state.Conversations {
		if c.ID == conversationID {
			c.AddMessage(msg)
			found = true
			break
		}
	}
	s.notifyAndUnlock()
	return found
}

// Conversation returns a copy of the conversation with the given ID.
func (s *Store) Conversation(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.state.Conversations {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return nil, false
}

// CurrentConversation returns a copy of the selected conversation, if any.
func (s *Store) CurrentConversation() (*model.Conversation, bool) {
	s.mu.Lock()
	id := s.state.CurrentConversationID
	s.mu.Unlock()
	if id == "" {
		return nil, false
	}
	return s.Conversation(id)
}

// =============================================================================
// FLAG REDUCERS
// =============================================================================

// SetLoading flips the in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.state.IsLoading = loading
	s.notifyAndUnlock()
}

// IsLoading reports whether a prompt round-trip is in flight.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoading
}

// SetBannerVisible flips the banner flag.
func (s *Store) SetBannerVisible(visible bool) {
	s.mu.Lock()
	s.state.IsBannerVisible = visible
	s.notifyAndUnlock()
}

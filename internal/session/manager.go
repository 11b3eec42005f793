// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/tanchat/internal/client"
	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/render"
	"github.com/jeranaias/tanchat/internal/storage"
	"github.com/jeranaias/tanchat/internal/store"
)

// =============================================================================
// ERRORS AND CONSTANTS
// =============================================================================

var (
	// ErrBusy indicates a prompt round trip is already in flight.
	ErrBusy = errors.New("a prompt is already in flight")

	// ErrEmptyInput indicates the input was blank.
	ErrEmptyInput = errors.New("empty input")
)

// ErrorResponseMessage is the synthetic assistant message committed when a
// round trip fails. The gateway recognizes its prefix and strips it from
// future history.
const ErrorResponseMessage = "Sorry, I encountered an error generating a response. " +
	"Please set the required API keys in your environment variables."

// mirrorTimeout bounds each best-effort persistence call.
const mirrorTimeout = 10 * time.Second

// =============================================================================
// MANAGER
// =============================================================================

// DraftHandler observes the pending assistant draft as it grows. Called
// synchronously from the scheduler's drain goroutine.
type DraftHandler func(conversationID, draft string)

// Manager coordinates one chat session.
type Manager struct {
	store  *store.Store
	remote storage.Store // nil means no persistence at all
	client *client.Client

	mu        sync.Mutex
	active    bool
	localOnly map[string]bool          // conversations whose remote create failed
	remoteID  map[string]string        // local ID -> store-assigned ID
	created   map[string]chan struct{} // closed once remote creation settles
	scheduler *render.Scheduler

	onDraft DraftHandler

	// wg tracks mirror goroutines so tests can wait for them.
	wg sync.WaitGroup
}

// NewManager creates a session manager. remote may be nil for a purely
// in-memory session.
func NewManager(st *store.Store, remote storage.Store, cl *client.Client) *Manager {
	return &Manager{
		store:     st,
		remote:    remote,
		client:    cl,
		localOnly: make(map[string]bool),
		remoteID:  make(map[string]string),
		created:   make(map[string]chan struct{}),
	}
}

// Store exposes the state tree for UI layers.
func (m *Manager) Store() *store.Store {
	return m.store
}

// SetDraftHandler installs the draft observer. Must be set before Submit.
func (m *Manager) SetDraftHandler(fn DraftHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDraft = fn
}

// =============================================================================
// HYDRATION
// =============================================================================

// Hydrate replaces the local conversation set with the stored one. A
// failed or empty List leaves local state untouched.
func (m *Manager) Hydrate(ctx context.Context) {
	if m.remote == nil {
		return
	}
	convs, err := m.remote.List(ctx)
	if err != nil {
		log.Printf("HYDRATE_FAILED | error=%v", err)
		return
	}
	if len(convs) == 0 {
		return
	}
	m.store.SetConversations(convs)
	log.Printf("HYDRATED | conversations=%d", len(convs))
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit runs one full prompt round trip: commit the user message, stream
// the response through the pacing scheduler, and commit the final
// assistant message. Blocks until the paced rendering has fully drained.
//
// Returns ErrBusy when a round trip is already in flight and ErrEmptyInput
// for blank input. Stream failures discard the partial draft, commit a
// synthetic error message, and return the underlying error.
func (m *Manager) Submit(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}

	// The single-flight check and the flag set are one critical section:
	// two concurrent Submits can never both pass.
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return ErrBusy
	}
	m.active = true
	m.mu.Unlock()

	m.store.SetLoading(true)
	defer func() {
		m.store.SetLoading(false)
		m.mu.Lock()
		m.active = false
		m.scheduler = nil
		m.mu.Unlock()
	}()

	convID, created := m.ensureConversation(input)

	userMsg := model.NewUserMessage(input)
	m.store.AppendMessage(convID, userMsg)
	if created {
		// A fresh conversation's remote create carries the first message,
		// so the document never exists without it.
		m.beginRemoteCreate(convID, model.TitleFromInput(input), []model.Message{userMsg})
	} else {
		m.mirror("add_message", convID, func(ctx context.Context, id string) error {
			return m.remote.AddMessage(ctx, id, userMsg)
		})
	}

	conv, ok := m.store.Conversation(convID)
	if !ok {
		return errors.New("conversation vanished during submit")
	}

	req := client.Request{Messages: conv.Messages}
	if prompt, ok := m.store.ActivePrompt(); ok {
		req.SystemPrompt = &model.SystemPrompt{Value: prompt.Content, Enabled: true}
	}

	onDraft := m.draftHandler()
	scheduler := render.NewScheduler(func(content string) {
		if onDraft != nil {
			onDraft(convID, content)
		}
	})
	m.mu.Lock()
	m.scheduler = scheduler
	m.mu.Unlock()

	streamErr := m.client.Stream(ctx, req, scheduler.Enqueue)

	if streamErr != nil {
		// Enqueues ceased when Stream returned; the fragments that already
		// arrived finish their paced drain before the synthetic error
		// message replaces the draft. The partial is not committed.
		scheduler.Wait()
		log.Printf("SUBMIT_FAILED | conversation=%s error=%v", convID, streamErr)

		errMsg := model.NewAssistantMessage(ErrorResponseMessage)
		m.store.AppendMessage(convID, errMsg)
		m.mirror("add_message", convID, func(ctx context.Context, id string) error {
			return m.remote.AddMessage(ctx, id, errMsg)
		})
		return streamErr
	}

	// Let the typing effect finish before committing.
	scheduler.Wait()

	if scheduler.Stopped() {
		// Abort abandoned this response; nothing is committed.
		log.Printf("SUBMIT_ABORTED | conversation=%s", convID)
		return nil
	}

	final := scheduler.Content()
	if strings.TrimSpace(final) == "" {
		// Zero-frame stream: nothing to commit.
		return nil
	}

	assistantMsg := model.NewAssistantMessage(final)
	m.store.AppendMessage(convID, assistantMsg)
	m.mirror("add_message", convID, func(ctx context.Context, id string) error {
		return m.remote.AddMessage(ctx, id, assistantMsg)
	})
	return nil
}

// IsBusy reports whether a round trip is in flight.
func (m *Manager) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Abort abandons the in-flight response: the paced drain stops, the
// partial draft is discarded, and Submit returns without committing an
// assistant message. The upstream stream still runs to completion; its
// remaining fragments are dropped. No-op when nothing is in flight.
func (m *Manager) Abort() {
	m.mu.Lock()
	s := m.scheduler
	m.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

func (m *Manager) draftHandler() DraftHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onDraft
}

// ensureConversation returns the selected conversation's ID, creating and
// selecting a new one when nothing is selected. Creation is local-first:
// the conversation exists and is usable immediately, and the remote ID
// arrives asynchronously once beginRemoteCreate runs.
func (m *Manager) ensureConversation(input string) (id string, created bool) {
	if conv, ok := m.store.CurrentConversation(); ok {
		return conv.ID, false
	}

	conv := model.NewConversation(model.TitleFromInput(input))
	m.store.AddConversation(conv)
	m.store.SetCurrentConversation(conv.ID)
	return conv.ID, true
}

// beginRemoteCreate starts the asynchronous remote creation of a fresh
// conversation, carrying its initial messages in the create call itself.
func (m *Manager) beginRemoteCreate(localID, title string, initial []model.Message) {
	if m.remote == nil {
		return
	}

	ch := make(chan struct{})
	m.mu.Lock()
	m.created[localID] = ch
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(ch)
		m.reconcileCreate(localID, title, initial)
	}()
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// reconcileCreate creates the conversation remotely and rewrites the local
// ID to the store-assigned one. The ID and the selection pointer move in
// one store mutation. On failure the conversation goes permanently
// local-only for this session; nothing ever retries.
func (m *Manager) reconcileCreate(localID, title string, initial []model.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	remoteID, err := m.remote.Create(ctx, title, initial)
	if err != nil {
		log.Printf("RECONCILE_FAILED | conversation=%s error=%v", localID, err)
		m.mu.Lock()
		m.localOnly[localID] = true
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.remoteID[localID] = remoteID
	m.mu.Unlock()

	m.store.UpdateConversationID(localID, remoteID)
	log.Printf("RECONCILED | local=%s remote=%s", localID, remoteID)
}

// isLocalOnly reports whether a conversation lives only in memory.
func (m *Manager) isLocalOnly(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localOnly[id]
}

// resolveID maps a conversation ID to the one the remote store knows,
// waiting for a pending creation to settle first. Returns false when the
// conversation is local-only.
func (m *Manager) resolveID(ctx context.Context, id string) (string, bool) {
	m.mu.Lock()
	ch := m.created[id]
	m.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return "", false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.localOnly[id] {
		return "", false
	}
	if rid, ok := m.remoteID[id]; ok {
		return rid, true
	}
	return id, true
}

// mirror runs one best-effort persistence call in the background. A call
// for a just-created conversation waits for the remote ID to settle, so
// mirrors never race the creation they depend on.
func (m *Manager) mirror(op, convID string, fn func(ctx context.Context, id string) error) {
	if m.remote == nil || m.isLocalOnly(convID) {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()

		id, ok := m.resolveID(ctx, convID)
		if !ok {
			return
		}
		if err := fn(ctx, id); err != nil {
			log.Printf("MIRROR_FAILED | op=%s conversation=%s error=%v", op, id, err)
		}
	}()
}

// Flush waits for in-flight mirror goroutines. Tests and shutdown use it;
// normal operation never blocks on persistence.
func (m *Manager) Flush() {
	m.wg.Wait()
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// SelectConversation moves the selection pointer.
func (m *Manager) SelectConversation(id string) {
	m.store.SetCurrentConversation(id)
}

// StartNewConversation clears the selection; the next Submit creates a
// fresh conversation.
func (m *Manager) StartNewConversation() {
	m.store.SetCurrentConversation("")
}

// RenameConversation renames locally and mirrors the rename.
func (m *Manager) RenameConversation(id, title string) {
	m.store.UpdateConversationTitle(id, title)
	m.mirror("update_title", id, func(ctx context.Context, rid string) error {
		return m.remote.UpdateTitle(ctx, rid, title)
	})
}

// DeleteConversation deletes locally and mirrors the delete.
func (m *Manager) DeleteConversation(id string) {
	m.store.DeleteConversation(id)
	m.mirror("remove", id, func(ctx context.Context, rid string) error {
		return m.remote.Remove(ctx, rid)
	})
}

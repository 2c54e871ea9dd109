// Package session owns the in-memory chat collection and its persistence.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nsharma/gptchat/internal/domain"
	"github.com/nsharma/gptchat/internal/store"
)

// Store manages every chat plus the current selection. All mutation goes
// through its methods; after each one the full state is flushed to the
// persister. The in-memory state is the source of truth — a failed flush
// is logged and never surfaced to the caller.
//
// Invariant: CurrentID is either empty or a key present in Chats.
type Store struct {
	mu      sync.RWMutex
	state   domain.State
	persist store.Persister
}

// New creates a Store hydrated from previously persisted state. A missing
// blob yields an empty store; a corrupt blob is an error so startup can
// decide what to do with it.
func New(ctx context.Context, persist store.Persister) (*Store, error) {
	s := &Store{
		state:   domain.State{Chats: make(map[string]*domain.Chat)},
		persist: persist,
	}

	data, err := persist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chat state: %w", err)
	}
	if data == nil {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("decode chat state: %w", err)
	}
	if s.state.Chats == nil {
		s.state.Chats = make(map[string]*domain.Chat)
	}

	// Repair a stale selection left behind by a partial write.
	if _, ok := s.state.Chats[s.state.CurrentID]; s.state.CurrentID != "" && !ok {
		slog.Warn("Dropping stale current chat selection", "chat_id", s.state.CurrentID)
		s.state.CurrentID = ""
	}

	return s, nil
}

// Create allocates a new chat with the placeholder title, selects it, and
// returns its id.
func (s *Store) Create(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.state.Chats[id] = &domain.Chat{
		Title:     domain.DefaultTitle,
		Messages:  []domain.Message{},
		CreatedAt: time.Now(),
	}
	s.state.CurrentID = id
	s.flush(ctx)

	return id
}

// Select makes the given chat current. It reports whether the chat exists;
// unknown ids leave the state untouched — the store never fabricates a chat
// on selection.
func (s *Store) Select(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Chats[id]; !ok {
		return false
	}
	if s.state.CurrentID == id {
		return true
	}
	s.state.CurrentID = id
	s.flush(ctx)
	return true
}

// Append adds a message to the chat's history. It reports whether the chat
// exists; unknown ids are a no-op.
func (s *Store) Append(ctx context.Context, id string, msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.state.Chats[id]
	if !ok {
		return false
	}
	chat.Messages = append(chat.Messages, msg)
	s.flush(ctx)
	return true
}

// SetTitle sets the chat's title. It reports whether the chat exists.
// Setting the title it already has skips the flush.
func (s *Store) SetTitle(ctx context.Context, id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.state.Chats[id]
	if !ok {
		return false
	}
	if chat.Title == title {
		return true
	}
	chat.Title = title
	s.flush(ctx)
	return true
}

// Delete removes the chat. When the deleted chat was current, the selection
// is cleared — a replacement is the caller's job, never auto-picked here.
// Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Chats[id]; !ok {
		return false
	}
	delete(s.state.Chats, id)
	if s.state.CurrentID == id {
		s.state.CurrentID = ""
	}
	s.flush(ctx)
	return true
}

// Get returns a copy of the chat, so callers cannot mutate history behind
// the store's back.
func (s *Store) Get(id string) (domain.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.state.Chats[id]
	if !ok {
		return domain.Chat{}, false
	}
	return copyChat(chat), true
}

// CurrentID returns the id of the selected chat, or "" when none is selected.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentID
}

// Snapshot returns a deep copy of the full store state.
func (s *Store) Snapshot() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.State{
		Chats:     make(map[string]*domain.Chat, len(s.state.Chats)),
		CurrentID: s.state.CurrentID,
	}
	for id, chat := range s.state.Chats {
		c := copyChat(chat)
		snap.Chats[id] = &c
	}
	return snap
}

// flush serializes the state and hands it to the persister. Callers must
// hold the write lock. Failures are logged and swallowed: losing a write
// must never block the in-memory conversation.
func (s *Store) flush(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		slog.Error("Failed to encode chat state", "error", err)
		return
	}
	if err := s.persist.Save(ctx, data); err != nil {
		slog.Warn("Failed to persist chat state", "error", err)
	}
}

func copyChat(chat *domain.Chat) domain.Chat {
	c := *chat
	c.Messages = make([]domain.Message, len(chat.Messages))
	copy(c.Messages, chat.Messages)
	return c
}

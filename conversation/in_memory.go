package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/promptmesh/core"
)

// InMemoryStore is a volatile ConversationStore implementation storing
// conversations in a process-local map. It is safe for concurrent access and
// best suited for tests or ephemeral demo setups. Each returned conversation
// is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*core.Conversation
}

// NewInMemoryStore constructs an empty in-memory conversation store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*core.Conversation)}
}

// Get returns a clone of the stored conversation, or ErrConversationNotFound.
func (s *InMemoryStore) Get(ctx context.Context, sessionID string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[sessionID]
	if !ok {
		return nil, core.ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// Create stores a new conversation; creating an existing id is an error so
// callers cannot silently clobber history.
func (s *InMemoryStore) Create(ctx context.Context, conv *core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("conversation %q already exists", conv.ID)
	}
	s.conversations[conv.ID] = conv.Clone()
	return nil
}

// Save overwrites the stored snapshot of an existing conversation.
func (s *InMemoryStore) Save(ctx context.Context, conv *core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; !exists {
		return core.ErrConversationNotFound
	}
	s.conversations[conv.ID] = conv.Clone()
	return nil
}

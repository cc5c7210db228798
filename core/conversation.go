package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Role values for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrConversationNotFound is returned by ConversationStore.Get when no
// conversation exists for the given session id.
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// Turn is one utterance in a conversation. Turns are immutable once appended.
type Turn struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// Conversation is the aggregate tracking an ordered, append-only list of
// turns for a session. It is safe for concurrent access.
//
// Contract:
//   - Turns are only ever appended, never reordered or removed
//   - GetTurns returns a defensive copy to avoid external mutation
//   - Clone performs deep copies of slices/maps for safe divergence.
type Conversation struct {
	ID       string            `json:"id"`
	Turns    []Turn            `json:"turns"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewConversation creates an empty conversation for the given session id.
func NewConversation(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{ID: id, Turns: []Turn{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// AppendTurn appends a turn with the given role and content, returning the
// generated turn id.
func (c *Conversation) AppendTurn(role, content string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Turn{ID: NewID(), Role: role, Content: content, Created: time.Now().UTC()}
	c.Turns = append(c.Turns, t)
	c.Updated = t.Created
	return t.ID
}

// GetTurns returns a defensive copy of the turn slice.
func (c *Conversation) GetTurns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	turns := make([]Turn, len(c.Turns))
	copy(turns, c.Turns)
	return turns
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Turns)
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{ID: c.ID, Turns: make([]Turn, len(c.Turns)), Created: c.Created, Updated: c.Updated, Metadata: make(map[string]string, len(c.Metadata))}
	copy(clone.Turns, c.Turns)
	for k, v := range c.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// ConversationStore persists conversations keyed by session id.
//
// Get returns ErrConversationNotFound when the session id is unknown; it does
// not create lazily. Create and Save are separated so callers can distinguish
// first-use from updates (the transaction boundary relies on this).
type ConversationStore interface {
	Get(ctx context.Context, sessionID string) (*Conversation, error)
	Create(ctx context.Context, conv *Conversation) error
	Save(ctx context.Context, conv *Conversation) error
}

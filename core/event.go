package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Domain event types published by the transaction boundary.
const (
	EventTurnsAppended       = "conversation.turns_appended"
	EventConversationCreated = "conversation.created"
)

// DomainEvent is an immutable record describing a completed mutation. Events
// are published after commit, never before, so consumers only ever observe
// state that is durably persisted.
type DomainEvent struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// NewDomainEvent creates a bare event of the given type bound to a conversation.
func NewDomainEvent(eventType, conversationID string) DomainEvent {
	return DomainEvent{
		ID:             NewID(),
		Type:           eventType,
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC(),
	}
}

// NewTurnsAppendedEvent records that a user/assistant turn pair was committed.
func NewTurnsAppendedEvent(conversationID string, turnIDs []string, turnCount int) DomainEvent {
	e := NewDomainEvent(EventTurnsAppended, conversationID)
	e.Payload = map[string]any{"turn_ids": turnIDs, "turn_count": turnCount}
	return e
}

// NewConversationCreatedEvent records the first persistence of a conversation.
func NewConversationCreatedEvent(conversationID string) DomainEvent {
	return NewDomainEvent(EventConversationCreated, conversationID)
}

// NewID generates a new unique identifier for events and turns.
func NewID() string { return uuid.NewString() }

// EventPublisher delivers domain events to interested consumers. Publication
// is fire-and-forget from the caller's perspective; delivery guarantees are
// the publisher's concern. A publish error is logged by callers, never used
// to roll back the committed mutation it describes.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing core model objects. These helpers are
// intentionally minimal and not intended for production usage.
package testutil

import (
	"github.com/hupe1980/promptmesh/core"
)

// ConversationBuilder helps construct conversations with fluent chaining
// for tests. Example:
//
//	conv := NewConversationBuilder("sess-1").User("hi").Assistant("hello").Build()
type ConversationBuilder struct {
	id    string
	turns []turn
}

type turn struct {
	role    string
	content string
}

// NewConversationBuilder creates a new builder for a conversation with the
// given session id. Use chainable methods (User, Assistant, Turn) then call
// Build.
func NewConversationBuilder(id string) *ConversationBuilder {
	return &ConversationBuilder{id: id}
}

// User appends a user turn (chainable).
func (b *ConversationBuilder) User(content string) *ConversationBuilder {
	b.turns = append(b.turns, turn{role: core.RoleUser, content: content})
	return b
}

// Assistant appends an assistant turn (chainable).
func (b *ConversationBuilder) Assistant(content string) *ConversationBuilder {
	b.turns = append(b.turns, turn{role: core.RoleAssistant, content: content})
	return b
}

// Turn appends a turn with an arbitrary role (chainable).
func (b *ConversationBuilder) Turn(role, content string) *ConversationBuilder {
	b.turns = append(b.turns, turn{role: role, content: content})
	return b
}

// ExchangePairs appends n user/assistant pairs with generated content
// (chainable). Useful when only the turn count matters.
func (b *ConversationBuilder) ExchangePairs(n int) *ConversationBuilder {
	for i := 0; i < n; i++ {
		b.User("question").Assistant("answer")
	}
	return b
}

// Build returns a *core.Conversation with the accumulated turns appended in
// order.
func (b *ConversationBuilder) Build() *core.Conversation {
	conv := core.NewConversation(b.id)
	for _, t := range b.turns {
		conv.AppendTurn(t.role, t.content)
	}
	return conv
}

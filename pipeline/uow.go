package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/promptmesh/core"
)

// UnitOfWork is the transaction boundary around one conversation. Load opens
// it (fetching or creating the aggregate in memory), Commit persists it
// exactly once, Rollback discards it. Commit and Rollback are idempotent
// no-ops when nothing was loaded, and each other's no-op afterwards, so
// callers can defer Rollback unconditionally.
//
// The LLM call happens between Load and Commit; neither holds a store
// transaction open across it. The store's own Create/Save are atomic.
type UnitOfWork struct {
	store     core.ConversationStore
	conv      *core.Conversation
	isNew     bool
	open      bool
	committed bool
}

// NewUnitOfWork creates a closed unit of work over the given store.
func NewUnitOfWork(store core.ConversationStore) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Load fetches the conversation for sessionID, or creates an empty one in
// memory (not yet persisted) when the session is unknown.
func (u *UnitOfWork) Load(ctx context.Context, sessionID string) (*core.Conversation, error) {
	if u.open {
		return nil, fmt.Errorf("unit of work already open for conversation %s", u.conv.ID)
	}

	conv, err := u.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, core.ErrConversationNotFound):
		conv = core.NewConversation(sessionID)
		u.isNew = true
	case err != nil:
		return nil, fmt.Errorf("load conversation %s: %w", sessionID, err)
	}

	u.conv = conv
	u.open = true
	return conv, nil
}

// IsNew reports whether Load created the conversation rather than finding it.
func (u *UnitOfWork) IsNew() bool { return u.isNew }

// Commit persists the loaded conversation (Create on first use, Save
// otherwise). A no-op when nothing was loaded, after a Rollback, or after a
// previous successful Commit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.open || u.committed {
		return nil
	}

	var err error
	if u.isNew {
		err = u.store.Create(ctx, u.conv)
	} else {
		err = u.store.Save(ctx, u.conv)
	}
	if err != nil {
		u.Rollback()
		return fmt.Errorf("commit conversation %s: %w", u.conv.ID, err)
	}

	u.committed = true
	return nil
}

// Rollback discards the in-memory aggregate. Idempotent; a no-op after Commit.
func (u *UnitOfWork) Rollback() {
	if !u.open || u.committed {
		return
	}
	u.open = false
	u.conv = nil
}

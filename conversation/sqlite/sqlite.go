// Package sqlite provides a durable ConversationStore backed by
// modernc.org/sqlite (pure Go, no cgo). Both turns of a pipeline run are
// written inside a single SQL transaction, so a conversation on disk never
// holds a partial turn pair.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/promptmesh/core"
)

// Store is a ConversationStore persisted in a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path, applies
// performance pragmas and runs migrations. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("conversation: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("conversation: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("conversation: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id      TEXT PRIMARY KEY,
			created TEXT NOT NULL,
			updated TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS turns (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			seq             INTEGER NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			created         TEXT NOT NULL,
			UNIQUE (conversation_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get loads a conversation and its turns in order, or ErrConversationNotFound.
func (s *Store) Get(ctx context.Context, sessionID string) (*core.Conversation, error) {
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT created, updated FROM conversations WHERE id = ?`, sessionID,
	).Scan(&created, &updated)
	if err == sql.ErrNoRows {
		return nil, core.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load %q: %w", sessionID, err)
	}

	conv := &core.Conversation{ID: sessionID, Metadata: map[string]string{}}
	conv.Created, _ = time.Parse(time.RFC3339Nano, created)
	conv.Updated, _ = time.Parse(time.RFC3339Nano, updated)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created FROM turns WHERE conversation_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("conversation: load turns for %q: %w", sessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t core.Turn
		var turnCreated string
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &turnCreated); err != nil {
			return nil, fmt.Errorf("conversation: scan turn: %w", err)
		}
		t.Created, _ = time.Parse(time.RFC3339Nano, turnCreated)
		conv.Turns = append(conv.Turns, t)
	}
	return conv, rows.Err()
}

// Create persists a new conversation and any initial turns atomically.
func (s *Store) Create(ctx context.Context, conv *core.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("conversation: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, created, updated) VALUES (?, ?, ?)`,
		conv.ID, conv.Created.Format(time.RFC3339Nano), conv.Updated.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("conversation: insert %q: %w", conv.ID, err)
	}
	if err := insertTurns(ctx, tx, conv, 0); err != nil {
		return err
	}
	return tx.Commit()
}

// Save writes all turns not yet persisted plus the updated timestamp in one
// transaction. Existing turns are never rewritten; the aggregate is
// append-only.
func (s *Store) Save(ctx context.Context, conv *core.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("conversation: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE conversation_id = ?`, conv.ID).Scan(&existing)
	if err != nil {
		return fmt.Errorf("conversation: count turns for %q: %w", conv.ID, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated = ? WHERE id = ?`,
		conv.Updated.Format(time.RFC3339Nano), conv.ID)
	if err != nil {
		return fmt.Errorf("conversation: update %q: %w", conv.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrConversationNotFound
	}

	if err := insertTurns(ctx, tx, conv, existing); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTurns(ctx context.Context, tx *sql.Tx, conv *core.Conversation, from int) error {
	turns := conv.GetTurns()
	for seq := from; seq < len(turns); seq++ {
		t := turns[seq]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO turns (id, conversation_id, seq, role, content, created) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, conv.ID, seq, t.Role, t.Content, t.Created.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("conversation: insert turn %d: %w", seq, err)
		}
	}
	return nil
}

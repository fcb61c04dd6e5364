// Package storetest provides SQLite-backed stores seeded with chat history
// rows for tests.
package storetest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/store"
)

const schema = `CREATE TABLE IF NOT EXISTS n8n_chat_histories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	message TEXT NOT NULL
);`

// New opens a store on a fresh SQLite file under t.TempDir, creates the chat
// history table and inserts records in order. Records with a zero ID get one
// assigned by the database.
func New(t *testing.T, records ...core.Record) *store.SQLStore {
	t.Helper()
	return Open(t, filepath.Join(t.TempDir(), "chat.db"), records...)
}

// Open is New with an explicit database path, for tests that hand the path
// to code opening its own connection.
func Open(t *testing.T, path string, records ...core.Record) *store.SQLStore {
	t.Helper()

	ctx := context.Background()
	s, err := store.Open(ctx, store.Config{Driver: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.DB().ExecContext(ctx, schema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	Insert(t, s, records...)
	return s
}

// Insert appends records to the chat history table.
func Insert(t *testing.T, s *store.SQLStore, records ...core.Record) {
	t.Helper()

	ctx := context.Background()
	for _, r := range records {
		raw, err := json.Marshal(r.Message)
		if err != nil {
			t.Fatalf("marshal message: %v", err)
		}
		if r.ID == 0 {
			_, err = s.DB().ExecContext(ctx,
				`INSERT INTO n8n_chat_histories (session_id, message) VALUES (?, ?)`,
				r.SessionID, string(raw))
		} else {
			_, err = s.DB().ExecContext(ctx,
				`INSERT INTO n8n_chat_histories (id, session_id, message) VALUES (?, ?, ?)`,
				r.ID, r.SessionID, string(raw))
		}
		if err != nil {
			t.Fatalf("insert record: %v", err)
		}
	}
}

// InsertRaw stores a message column value verbatim, for malformed-row tests.
func InsertRaw(t *testing.T, s *store.SQLStore, sessionID, message string) {
	t.Helper()

	if _, err := s.DB().ExecContext(context.Background(),
		`INSERT INTO n8n_chat_histories (session_id, message) VALUES (?, ?)`,
		sessionID, message); err != nil {
		t.Fatalf("insert raw record: %v", err)
	}
}

// Human builds a human record.
func Human(id int64, sessionID, content string) core.Record {
	return core.Record{ID: id, SessionID: sessionID, Message: core.Message{Type: core.TypeHuman, Content: content}}
}

// AI builds an assistant record.
func AI(id int64, sessionID, content string) core.Record {
	return core.Record{ID: id, SessionID: sessionID, Message: core.Message{Type: core.TypeAI, Content: content}}
}

// Package store reads chat history rows from a relational table and projects
// them into session summaries and ordered transcripts. The table is owned by
// an external writer; nothing here creates, updates or deletes rows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sonnes/chatview/core"
)

// DefaultTable is the chat history table written by n8n's Postgres memory node.
const DefaultTable = "n8n_chat_histories"

var (
	// ErrUnavailable is wrapped by every connection or query failure.
	ErrUnavailable = errors.New("store unavailable")
	// ErrMalformedRecord is wrapped when a row's message column cannot be decoded.
	ErrMalformedRecord = errors.New("malformed message record")
)

// Store is the read path over the chat history table.
type Store interface {
	// ListSessions returns one summary per session, most recently started first.
	ListSessions(ctx context.Context) ([]core.SessionSummary, error)

	// ListMessages returns the records of a session in ascending id order. An
	// unknown session yields an empty slice.
	ListMessages(ctx context.Context, sessionID string) ([]core.Record, error)

	// ListAllMessages returns every record in ascending id order.
	ListAllMessages(ctx context.Context) ([]core.Record, error)

	// Ping verifies that the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Config selects the driver, connection and pool limits.
type Config struct {
	Driver          string // "postgres" or "sqlite"
	DSN             string
	Table           string // defaults to DefaultTable
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

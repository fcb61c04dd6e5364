package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sonnes/chatview/core"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"
)

// identRE accepts a table name with an optional schema qualifier.
var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLStore implements Store on top of a pooled database/sql handle.
type SQLStore struct {
	db      *sql.DB
	driver  string
	table   string // quoted
	queries queries
}

type queries struct {
	sessions    string
	messages    string
	allMessages string
}

// Open creates the connection pool. It does not contact the server; call Ping
// to verify connectivity.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	table, err := QuoteTable(cfg.Table)
	if err != nil {
		return nil, err
	}

	var placeholder string
	switch cfg.Driver {
	case "postgres":
		placeholder = "$1"
	case "sqlite":
		placeholder = "?"
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Debug("opened store", "driver", cfg.Driver, "table", cfg.Table, "max_open_conns", cfg.MaxOpenConns)

	return &SQLStore{
		db:     db,
		driver: cfg.Driver,
		table:  table,
		queries: queries{
			sessions: `SELECT session_id, COUNT(*) AS message_count, MIN(id) AS first_message_id
				FROM ` + table + `
				GROUP BY session_id
				ORDER BY first_message_id DESC`,
			messages:    `SELECT id, session_id, message FROM ` + table + ` WHERE session_id = ` + placeholder + ` ORDER BY id ASC`,
			allMessages: `SELECT id, session_id, message FROM ` + table + ` ORDER BY id ASC`,
		},
	}, nil
}

// QuoteTable validates name as an optionally schema-qualified identifier and
// returns it quoted for use in SQL text.
func QuoteTable(name string) (string, error) {
	if !identRE.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name.
func (s *SQLStore) Driver() string {
	return s.driver
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.sessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	list := make([]core.SessionSummary, 0)
	for rows.Next() {
		var ss core.SessionSummary
		if err := rows.Scan(&ss.SessionID, &ss.MessageCount, &ss.FirstMessageID); err != nil {
			return nil, fmt.Errorf("scan session: %w: %w", ErrUnavailable, err)
		}
		list = append(list, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w: %w", ErrUnavailable, err)
	}
	return list, nil
}

func (s *SQLStore) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	return s.queryRecords(ctx, s.queries.messages, sessionID)
}

func (s *SQLStore) ListAllMessages(ctx context.Context) ([]core.Record, error) {
	return s.queryRecords(ctx, s.queries.allMessages)
}

func (s *SQLStore) queryRecords(ctx context.Context, query string, args ...any) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	list := make([]core.Record, 0)
	for rows.Next() {
		var (
			r   core.Record
			raw []byte
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &raw); err != nil {
			return nil, fmt.Errorf("scan message: %w: %w", ErrUnavailable, err)
		}
		if err := json.Unmarshal(raw, &r.Message); err != nil {
			return nil, fmt.Errorf("message %d: %w: %w", r.ID, ErrMalformedRecord, err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w: %w", ErrUnavailable, err)
	}
	return list, nil
}

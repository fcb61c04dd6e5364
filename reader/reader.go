// Package reader loads chat history dumps from disk so sessions can be
// browsed without a database. A dump is either a JSON array of records, the
// shape GET /api/messages returns, or JSONL with one record per line.
package reader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/sonnes/chatview/core"
)

// maxLineSize is the maximum JSONL line size (1 MB). Assistant replies with
// embedded tool output can exceed the default 64 KB bufio.Scanner buffer.
const maxLineSize = 1 << 20

// rawRecord mirrors a table row. The message column is accepted both as an
// object and as a JSON-encoded string, as text-typed columns are dumped.
type rawRecord struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// Archive is an in-memory set of records with the same read path as the
// database store.
type Archive struct {
	records   []core.Record
	bySession map[string][]core.Record
	sessions  []core.SessionSummary
}

// ReadFile parses the dump at path.
func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump file: %w", err)
	}
	defer f.Close()

	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return a, nil
}

// Read parses a dump. The format is detected from the first non-space byte.
func Read(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return New(nil), nil
	}
	if err != nil {
		return nil, err
	}

	var raws []rawRecord
	if first == '[' {
		if raws, err = decodeArray(br); err != nil {
			return nil, err
		}
	} else {
		if raws, err = scanLines(br); err != nil {
			return nil, err
		}
	}

	records := make([]core.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := toRecord(raw)
		if err != nil {
			log.Warn("skipping malformed record", "id", raw.ID, "session_id", raw.SessionID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return New(records), nil
}

// New builds an Archive from records in any order.
func New(records []core.Record) *Archive {
	sorted := append([]core.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	a := &Archive{records: sorted, bySession: make(map[string][]core.Record)}
	for _, rec := range sorted {
		a.bySession[rec.SessionID] = append(a.bySession[rec.SessionID], rec)
	}
	for id, recs := range a.bySession {
		a.sessions = append(a.sessions, core.SessionSummary{
			SessionID:      id,
			MessageCount:   len(recs),
			FirstMessageID: recs[0].ID,
		})
	}
	sort.Slice(a.sessions, func(i, j int) bool {
		return a.sessions[i].FirstMessageID > a.sessions[j].FirstMessageID
	})
	return a
}

// ListSessions returns one summary per session, most recently started first.
func (a *Archive) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	return append([]core.SessionSummary{}, a.sessions...), nil
}

// ListMessages returns a copy of the session's records in ascending id order.
func (a *Archive) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	return append([]core.Record{}, a.bySession[sessionID]...), nil
}

// ListAllMessages returns a copy of every record in ascending id order.
func (a *Archive) ListAllMessages(ctx context.Context) ([]core.Record, error) {
	return append([]core.Record{}, a.records...), nil
}

func (a *Archive) Close() error { return nil }

func scanLines(r io.Reader) ([]rawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)

	var raws []rawRecord
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var raw rawRecord
		if err := json.Unmarshal(b, &raw); err != nil {
			log.Warn("skipping unparseable line", "line", line, "error", err)
			continue
		}
		raws = append(raws, raw)
	}
	return raws, scanner.Err()
}

func decodeArray(r io.Reader) ([]rawRecord, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}

	raws := make([]rawRecord, 0, len(elems))
	for i, elem := range elems {
		var raw rawRecord
		if err := json.Unmarshal(elem, &raw); err != nil {
			log.Warn("skipping malformed record", "index", i, "error", err)
			continue
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func toRecord(raw rawRecord) (core.Record, error) {
	msg := bytes.TrimSpace(raw.Message)
	if len(msg) > 0 && msg[0] == '"' {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return core.Record{}, err
		}
		msg = []byte(s)
	}

	var m core.Message
	if err := json.Unmarshal(msg, &m); err != nil {
		return core.Record{}, fmt.Errorf("decode message: %w", err)
	}
	return core.Record{ID: raw.ID, SessionID: raw.SessionID, Message: m}, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}

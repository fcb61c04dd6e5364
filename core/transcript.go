// Package core defines the chat history records read from the store and the
// derived session summaries that every renderer and transport consumes.
package core

// Record is one row of the chat history table: a single human or assistant
// utterance within a session. Records are never created or modified here.
type Record struct {
	ID        int64   `json:"id"`
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// Message is the structured payload stored in the message column.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// MessageType enumerates who produced a message.
type MessageType string

const (
	TypeHuman MessageType = "human"
	TypeAI    MessageType = "ai"
)

// IsHuman reports whether the message was written by the human side of the
// conversation. Every other type is displayed as the assistant.
func (t MessageType) IsHuman() bool {
	return t == TypeHuman
}

// SessionSummary is derived per session_id: how many records share it and the
// smallest record id among them.
type SessionSummary struct {
	SessionID      string `json:"session_id"`
	MessageCount   int    `json:"message_count"`
	FirstMessageID int64  `json:"first_message_id"`
}

// Transcript is the ordered message list of one session, oldest first.
type Transcript struct {
	SessionID string   `json:"session_id"`
	Records   []Record `json:"records"`
}

// NewTranscript wraps records that were fetched for sessionID.
func NewTranscript(sessionID string, records []Record) *Transcript {
	return &Transcript{SessionID: sessionID, Records: records}
}

// Summary computes the session summary of t. FirstMessageID is zero for an
// empty transcript.
func (t *Transcript) Summary() SessionSummary {
	s := SessionSummary{SessionID: t.SessionID, MessageCount: len(t.Records)}
	for i, r := range t.Records {
		if i == 0 || r.ID < s.FirstMessageID {
			s.FirstMessageID = r.ID
		}
	}
	return s
}

// TotalMessages sums MessageCount over sessions.
func TotalMessages(sessions []SessionSummary) int {
	n := 0
	for _, s := range sessions {
		n += s.MessageCount
	}
	return n
}

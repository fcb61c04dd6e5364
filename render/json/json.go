// Package json renders transcripts as JSON: the ordered message records of
// the session, in the same shape the HTTP API returns them.
package json

import (
	"encoding/json"
	"io"

	"github.com/sonnes/chatview/core"
)

// Renderer renders a transcript to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// New creates a JSON Renderer with indentation enabled.
func New() *Renderer {
	return &Renderer{Indent: true}
}

// Render writes the records of t as a JSON array. An empty transcript is
// written as [] rather than null.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	records := t.Records
	if records == nil {
		records = []core.Record{}
	}
	return r.encode(w, records)
}

// RenderIndex writes the session summaries as a JSON array.
func (r *Renderer) RenderIndex(w io.Writer, sessions []core.SessionSummary) error {
	if sessions == nil {
		sessions = []core.SessionSummary{}
	}
	return r.encode(w, sessions)
}

func (r *Renderer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

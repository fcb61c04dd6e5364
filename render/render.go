// Package render defines the interfaces implemented by the output formats.
package render

import (
	"io"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/view"
)

// Renderer writes a transcript to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, t *core.Transcript) error
}

// DisplayRenderer writes a full browser display: session list, header and
// transcript or notice.
type DisplayRenderer interface {
	RenderDisplay(w io.Writer, d view.Display) error
}

// IndexRenderer writes the session index.
type IndexRenderer interface {
	RenderIndex(w io.Writer, sessions []core.SessionSummary) error
}

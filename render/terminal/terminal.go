// Package terminal renders session transcripts as ANSI-colored message cards
// and the session index as a table.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/view"
)

const defaultWidth = 100

// Renderer pretty-prints browser displays to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// Sidebar lists all sessions above the transcript.
	Sidebar bool
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes a single transcript as message cards to w.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	s := view.State{Phase: view.PhaseContent, Selected: t.SessionID, Records: t.Records}
	if len(t.Records) == 0 {
		s.Phase = view.PhaseEmpty
	}
	return r.RenderDisplay(w, view.Render(s))
}

// RenderDisplay writes the header, optional session list and either the
// message cards or the notice panel of d.
func (r *Renderer) RenderDisplay(w io.Writer, d view.Display) error {
	width := r.termWidth()

	writeHeader(w, d)

	if r.Sidebar && len(d.Sessions) > 0 {
		fmt.Fprintln(w)
		for _, s := range d.Sessions {
			marker := "  "
			label := styleSession.Render(s.Label)
			if s.Active {
				marker = styleActive.Render("▸ ")
				label = styleActive.Render(s.Label)
			}
			fmt.Fprintln(w, " "+marker+label+"  "+styleMeta.Render(s.Meta))
		}
	}

	if d.Notice != nil {
		writeSeparator(w, width)
		fmt.Fprintln(w)
		fmt.Fprintln(w, " "+d.Notice.Icon+" "+noticeStyle(d.Mode).Render(d.Notice.Heading))
		fmt.Fprintln(w, "   "+styleMeta.Render(d.Notice.Text))
		fmt.Fprintln(w)
		return nil
	}

	for _, m := range d.Messages {
		writeMessage(w, m, width)
	}

	fmt.Fprintln(w)
	return nil
}

// RenderIndex writes the session index as a table, most recent first.
func (r *Renderer) RenderIndex(w io.Writer, sessions []core.SessionSummary) error {
	if len(sessions) == 0 {
		fmt.Fprintln(w, styleMeta.Render("No sessions found."))
		return nil
	}

	idWidth := len("SESSION")
	for _, s := range sessions {
		idWidth = max(idWidth, ansi.StringWidth(s.SessionID))
	}
	idWidth = min(idWidth, r.termWidth()-24)

	header := fmt.Sprintf("%-*s  %8s  %8s", idWidth, "SESSION", "MESSAGES", "FIRST ID")
	fmt.Fprintln(w, styleStatLabel.Render(header))
	for _, s := range sessions {
		id := ansi.Truncate(s.SessionID, idWidth, "…")
		pad := strings.Repeat(" ", max(0, idWidth-ansi.StringWidth(id)))
		fmt.Fprintf(w, "%s%s  %8s  %8s\n",
			styleSession.Render(id), pad,
			formatNumber(s.MessageCount),
			styleMeta.Render(fmt.Sprintf("%d", s.FirstMessageID)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styleMeta.Render(fmt.Sprintf("%s sessions, %s messages",
		formatNumber(len(sessions)), formatNumber(core.TotalMessages(sessions)))))
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeHeader renders the title, subtitle and totals.
func writeHeader(w io.Writer, d view.Display) {
	fmt.Fprintln(w, styleTitle.Render(d.Title))

	var parts []string
	if d.Subtitle != "" {
		parts = append(parts, d.Subtitle)
	}
	if d.TotalSessions > 0 {
		parts = append(parts, fmt.Sprintf("%s sessions · %s messages total",
			formatNumber(d.TotalSessions), formatNumber(d.TotalMessages)))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
	}
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

// writeMessage renders a single message card: icon, label badge, id and the
// wrapped text with **pairs** in bold.
func writeMessage(w io.Writer, m view.MessageView, width int) {
	contentWidth := max(width-4, 40)

	writeSeparator(w, width)
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+m.Icon+" "+labelBadge(m)+"    "+styleMeta.Render(fmt.Sprintf("#%d", m.ID)))

	text := strings.TrimSpace(styledText(m.Content))
	if text == "" {
		return
	}
	wrapped := lipgloss.NewStyle().Width(contentWidth).Render(text)
	for _, line := range strings.Split(wrapped, "\n") {
		fmt.Fprintln(w, "  "+line)
	}
}

// styledText applies bold styling to **pairs**, dropping the delimiters.
func styledText(s string) string {
	var b strings.Builder
	for _, seg := range core.Segments(s) {
		if seg.Bold {
			b.WriteString(styleBold.Render(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

func labelBadge(m view.MessageView) string {
	label := strings.ToUpper(m.Label)
	if m.Type.IsHuman() {
		return styleUserBadge.Render(label)
	}
	return styleAssistantBadge.Render(label)
}

func noticeStyle(mode view.Mode) lipgloss.Style {
	if mode == view.ModeError {
		return styleError
	}
	return styleTitle
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

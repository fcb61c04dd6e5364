// Package html renders the session browser as standalone HTML pages styled
// with Tailwind CSS v4 (CDN). Message text is escaped before any formatting
// is applied.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/view"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

//go:embed templates/*.html
var content embed.FS

// Format selects how message text is turned into HTML.
type Format string

const (
	// FormatBasic escapes the text and styles **pairs** as bold.
	FormatBasic Format = "basic"
	// FormatMarkdown renders GitHub-flavored markdown with raw HTML omitted.
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. The empty string means FormatBasic.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatBasic:
		return FormatBasic, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown render format %q", s)
	}
}

// Renderer renders browser displays to HTML pages.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template

	// Format controls message text formatting. Zero means FormatBasic.
	Format Format

	// SessionHref, when non-nil, overrides the default /session/{id} link
	// pattern. Used by the export command to link static files instead of
	// server routes.
	SessionHref func(sessionID string) string

	// IndexHref is the link of the "all sessions" entry. Defaults to /sessions.
	IndexHref string
}

// New creates an HTML Renderer. goldmark is configured for GFM and syntax
// highlighting; it is only used in FormatMarkdown.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
	)

	tmpl := template.Must(
		template.New("page.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl, Format: FormatBasic}
}

// pageData is the top-level template data passed to page.html.
type pageData struct {
	Display   view.Display
	Sessions  []sessionData
	Messages  []messageData
	IndexHref string
}

// sessionData is one sidebar entry with its link.
type sessionData struct {
	view.SessionItem
	Href string
}

// messageData is the per-message template data passed to message.html.
type messageData struct {
	view.MessageView
	HTML        template.HTML
	BorderClass string
	BadgeClass  string
}

// RenderDisplay writes a complete browser page for d to w.
func (r *Renderer) RenderDisplay(w io.Writer, d view.Display) error {
	data := pageData{
		Display:   d,
		IndexHref: r.indexHref(),
	}
	for _, s := range d.Sessions {
		data.Sessions = append(data.Sessions, sessionData{SessionItem: s, Href: r.sessionHref(s.SessionID)})
	}
	for _, m := range d.Messages {
		h, err := r.RenderContent(m.Content)
		if err != nil {
			return fmt.Errorf("render message %d: %w", m.ID, err)
		}
		data.Messages = append(data.Messages, messageData{
			MessageView: m,
			HTML:        h,
			BorderClass: borderClass(m.Type),
			BadgeClass:  badgeClass(m.Type),
		})
	}
	return r.tmpl.ExecuteTemplate(w, "page.html", data)
}

// Render writes a single transcript as a page without a session list.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	s := view.State{Phase: view.PhaseContent, Selected: t.SessionID, Records: t.Records}
	if len(t.Records) == 0 {
		s.Phase = view.PhaseEmpty
	}
	return r.RenderDisplay(w, view.Render(s))
}

// RenderContent formats one message text.
func (r *Renderer) RenderContent(s string) (template.HTML, error) {
	if r.Format != FormatMarkdown {
		return template.HTML(core.FormatContent(s)), nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}

func (r *Renderer) sessionHref(id string) string {
	if r.SessionHref != nil {
		return r.SessionHref(id)
	}
	return "/session/" + url.PathEscape(id)
}

func (r *Renderer) indexHref() string {
	if r.IndexHref != "" {
		return r.IndexHref
	}
	return "/sessions"
}

func borderClass(t core.MessageType) string {
	if t.IsHuman() {
		return "border-l-4 border-l-blue-500"
	}
	return "border-l-4 border-l-emerald-500"
}

func badgeClass(t core.MessageType) string {
	if t.IsHuman() {
		return "text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	}
	return "text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
}

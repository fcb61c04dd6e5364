package core

import (
	"regexp"
	"strings"
)

// htmlEscaper replaces in a single pass, so an "&" produced by one
// replacement is never escaped again.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// boldRE matches **text** pairs, shortest first, within a single line.
var boldRE = regexp.MustCompile(`\*\*(.*?)\*\*`)

// EscapeHTML escapes &, < and > so s can be placed inside an element body.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatContent turns untrusted message text into HTML: the text is escaped
// first, then each **pair** becomes a <strong> span. Pairs are matched left
// to right and never nest.
func FormatContent(s string) string {
	if s == "" {
		return ""
	}
	return boldRE.ReplaceAllString(EscapeHTML(s), "<strong>$1</strong>")
}

// Segment is a run of message text that is either plain or bold.
type Segment struct {
	Text string
	Bold bool
}

// Segments splits s into plain and bold runs using the same pairing rules as
// FormatContent. Text is returned unescaped.
func Segments(s string) []Segment {
	var out []Segment
	pos := 0
	for _, loc := range boldRE.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > pos {
			out = append(out, Segment{Text: s[pos:loc[0]]})
		}
		out = append(out, Segment{Text: s[loc[2]:loc[3]], Bold: true})
		pos = loc[1]
	}
	if pos < len(s) {
		out = append(out, Segment{Text: s[pos:]})
	}
	return out
}

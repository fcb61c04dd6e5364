// Package compact provides a Transformer that shortens long messages to their
// first lines for compact transcript viewing.
package compact

import (
	"fmt"
	"strings"

	"github.com/sonnes/chatview/core"
)

// Config controls the compact transformer behavior.
type Config struct {
	// MaxLines is the number of lines kept per message. Zero disables line
	// trimming.
	MaxLines int
	// AssistantOnly leaves human messages intact.
	AssistantOnly bool
}

// Compactor trims messages and appends a summary of what was dropped.
type Compactor struct {
	maxLines      int
	assistantOnly bool
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{maxLines: cfg.MaxLines, assistantOnly: cfg.AssistantOnly}
}

// Transform implements core.Transformer.
func (c *Compactor) Transform(t *core.Transcript) error {
	if c.maxLines <= 0 {
		return nil
	}
	for i := range t.Records {
		m := &t.Records[i].Message
		if c.assistantOnly && m.Type.IsHuman() {
			continue
		}
		m.Content = c.trim(m.Content)
	}
	return nil
}

func (c *Compactor) trim(s string) string {
	n := countLines(s)
	if n <= c.maxLines {
		return s
	}
	lines := strings.SplitN(s, "\n", c.maxLines+1)
	kept := strings.Join(lines[:c.maxLines], "\n")
	return kept + "\n" + lineSummary(n-c.maxLines)
}

// lineSummary returns a summary like "[… 12 more lines]".
func lineSummary(n int) string {
	if n == 1 {
		return "[… 1 more line]"
	}
	return fmt.Sprintf("[… %d more lines]", n)
}

// countLines returns the number of lines in s.
// An empty string has 0 lines. A string with no newline has 1 line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}

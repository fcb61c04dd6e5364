package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/chatview/core"
	"github.com/sonnes/chatview/view"
)

func testState() view.State {
	return view.State{
		Phase: view.PhaseContent,
		Sessions: []core.SessionSummary{
			{SessionID: "abc-123", MessageCount: 2, FirstMessageID: 4},
			{SessionID: "older", MessageCount: 1, FirstMessageID: 1},
		},
		Selected: "abc-123",
		Records: []core.Record{
			{ID: 4, SessionID: "abc-123", Message: core.Message{Type: core.TypeHuman, Content: "Fix the **auth** bug"}},
			{ID: 5, SessionID: "abc-123", Message: core.Message{Type: core.TypeAI, Content: "Found the issue in the auth module."}},
		},
	}
}

func TestRenderDisplayHeader(t *testing.T) {
	r := &Renderer{Width: 100}
	var buf bytes.Buffer
	require.NoError(t, r.RenderDisplay(&buf, view.Render(testState())))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Session abc-123")
	assert.Contains(t, out, "2 messages in the conversation")
	assert.Contains(t, out, "2 sessions · 3 messages total")
}

func TestRenderDisplayMessages(t *testing.T) {
	r := &Renderer{Width: 80}
	var buf bytes.Buffer
	require.NoError(t, r.RenderDisplay(&buf, view.Render(testState())))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "AI ASSISTANT")
	assert.Contains(t, out, "Fix the auth bug")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "#4")
	assert.Less(t, strings.Index(out, "Fix the"), strings.Index(out, "Found the issue"))
}

func TestRenderDisplaySidebar(t *testing.T) {
	r := &Renderer{Width: 80, Sidebar: true}
	var buf bytes.Buffer
	require.NoError(t, r.RenderDisplay(&buf, view.Render(testState())))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "▸ Session abc-123")
	assert.Contains(t, out, "Session older  1 message")
}

func TestRenderDisplayWrapsLongText(t *testing.T) {
	s := testState()
	s.Records = []core.Record{{ID: 1, Message: core.Message{Type: core.TypeAI, Content: strings.Repeat("word ", 60)}}}

	r := &Renderer{Width: 60}
	var buf bytes.Buffer
	require.NoError(t, r.RenderDisplay(&buf, view.Render(s)))

	out := ansi.Strip(buf.String())
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 72, line)
	}
	assert.Equal(t, 60, strings.Count(out, "word"))
}

func TestRenderDisplayNotices(t *testing.T) {
	r := &Renderer{Width: 80}

	var buf bytes.Buffer
	require.NoError(t, r.RenderDisplay(&buf, view.Render(view.State{Phase: view.PhaseEmpty})))
	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Select a session")
	assert.Contains(t, out, "Choose a session from the list")

	buf.Reset()
	require.NoError(t, r.RenderDisplay(&buf, view.Render(view.State{Phase: view.PhaseError, Failed: view.StageIndex})))
	out = ansi.Strip(buf.String())
	assert.Contains(t, out, "Error")
	assert.Contains(t, out, "Failed to load sessions")
}

func TestRenderTranscript(t *testing.T) {
	r := &Renderer{Width: 80}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, core.NewTranscript("solo", []core.Record{
		{ID: 1, SessionID: "solo", Message: core.Message{Type: core.TypeHuman, Content: "hello"}},
	})))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "Session solo")
	assert.Contains(t, out, "hello")
}

func TestRenderIndex(t *testing.T) {
	r := &Renderer{Width: 80}
	var buf bytes.Buffer
	require.NoError(t, r.RenderIndex(&buf, testState().Sessions))

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "MESSAGES")
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "2 sessions, 3 messages")
	assert.Less(t, strings.Index(out, "abc-123"), strings.Index(out, "older"))

	buf.Reset()
	require.NoError(t, r.RenderIndex(&buf, nil))
	assert.Contains(t, ansi.Strip(buf.String()), "No sessions found.")
}

func TestStyledText(t *testing.T) {
	assert.Equal(t, "plain", ansi.Strip(styledText("plain")))
	assert.Equal(t, "a b c", ansi.Strip(styledText("a **b** c")))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "42", formatNumber(42))
	assert.Equal(t, "1,273", formatNumber(1273))
	assert.Equal(t, "1,228,873", formatNumber(1228873))
}

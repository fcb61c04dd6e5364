package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/chatview/core"
)

func TestRender(t *testing.T) {
	tr := core.NewTranscript("s", []core.Record{
		{ID: 1, SessionID: "s", Message: core.Message{Type: core.TypeHuman, Content: "<b>hi</b>"}},
	})

	var buf bytes.Buffer
	require.NoError(t, (&Renderer{}).Render(&buf, tr))
	assert.JSONEq(t, `[{"id":1,"session_id":"s","message":{"type":"human","content":"<b>hi</b>"}}]`, buf.String())
	assert.Contains(t, buf.String(), "<b>hi</b>")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, core.NewTranscript("none", nil)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderIndent(t *testing.T) {
	tr := core.NewTranscript("s", []core.Record{{ID: 1, SessionID: "s"}})

	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, tr))
	assert.Contains(t, buf.String(), "\n  {\n    \"id\": 1")
}

func TestRenderIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Renderer{}).RenderIndex(&buf, []core.SessionSummary{
		{SessionID: "b", MessageCount: 2, FirstMessageID: 7},
	}))
	assert.JSONEq(t, `[{"session_id":"b","message_count":2,"first_message_id":7}]`, buf.String())

	buf.Reset()
	require.NoError(t, New().RenderIndex(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

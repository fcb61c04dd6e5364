package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/chatview/core"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestListSessions(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"session_id":"b","message_count":3,"first_message_id":9},{"session_id":"a","message_count":1,"first_message_id":2}]`))
	})

	got, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.SessionSummary{
		{SessionID: "b", MessageCount: 3, FirstMessageID: 9},
		{SessionID: "a", MessageCount: 1, FirstMessageID: 2},
	}, got)
}

func TestListMessagesEscapesSessionID(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages/a%2Fb%20c", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[{"id":1,"session_id":"a/b c","message":{"type":"human","content":"hi"}}]`))
	})

	got, err := c.ListMessages(context.Background(), "a/b c")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.TypeHuman, got[0].Message.Type)
	assert.Equal(t, "hi", got[0].Message.Content)
}

func TestEmptyArrayIsNotNil(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	got, err := c.ListMessages(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStatusError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to fetch sessions"}`))
	})

	_, err := c.ListSessions(context.Background())
	require.Error(t, err)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Equal(t, "Failed to fetch sessions", serr.Message)
	assert.Contains(t, err.Error(), "server returned 500: Failed to fetch sessions")
}

func TestStatusErrorWithoutBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Ping(context.Background())
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Empty(t, serr.Message)
	assert.Equal(t, "server returned 502", serr.Error())
}

func TestListAllMessages(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"session_id":"a","message":{"type":"ai","content":"x"}}]`))
	})

	got, err := c.ListAllMessages(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMalformedBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.ListSessions(context.Background())
	assert.ErrorContains(t, err, "decode response")
}

func TestRateLimitHonorsContext(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	WithRateLimit(0.001)(c)

	_, err := c.ListSessions(context.Background())
	require.NoError(t, err)

	// The single token is spent; a cancelled context fails fast.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListSessions(ctx)
	assert.Error(t, err)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.ErrorContains(t, err, "scheme must be http or https")

	_, err = New("http://a b")
	assert.Error(t, err)
}

func TestTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	_, err = c.ListSessions(context.Background())
	require.NoError(t, err)
}

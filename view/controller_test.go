package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/chatview/core"
)

// fakeSource serves canned data and records which calls were made.
type fakeSource struct {
	mu          sync.Mutex
	sessions    []core.SessionSummary
	records     map[string][]core.Record
	sessionsErr error
	messagesErr error
	calls       []string

	// block, when set for a session id, delays ListMessages until closed.
	block map[string]chan struct{}
}

func (f *fakeSource) ListSessions(ctx context.Context) ([]core.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "sessions")
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	return f.sessions, nil
}

func (f *fakeSource) ListMessages(ctx context.Context, sessionID string) ([]core.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "messages:"+sessionID)
	ch := f.block[sessionID]
	f.mu.Unlock()

	if ch != nil {
		<-ch
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return f.records[sessionID], nil
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func human(id int64, sid, content string) core.Record {
	return core.Record{ID: id, SessionID: sid, Message: core.Message{Type: core.TypeHuman, Content: content}}
}

func ai(id int64, sid, content string) core.Record {
	return core.Record{ID: id, SessionID: sid, Message: core.Message{Type: core.TypeAI, Content: content}}
}

func twoSessions() *fakeSource {
	return &fakeSource{
		sessions: []core.SessionSummary{
			{SessionID: "new", MessageCount: 2, FirstMessageID: 9},
			{SessionID: "old", MessageCount: 1, FirstMessageID: 5},
		},
		records: map[string][]core.Record{
			"new": {human(9, "new", "hi"), ai(10, "new", "hello")},
			"old": {human(5, "old", "earlier")},
		},
	}
}

func TestNewControllerIsInitial(t *testing.T) {
	c := NewController(&fakeSource{})
	s := c.State()
	assert.Equal(t, PhaseInitial, s.Phase)
	assert.Equal(t, ModeLoading, s.Mode())
}

func TestLoadAutoSelectsMostRecent(t *testing.T) {
	src := twoSessions()
	c := NewController(src)

	require.NoError(t, c.Load(context.Background(), ""))

	s := c.State()
	assert.Equal(t, PhaseContent, s.Phase)
	assert.Equal(t, "new", s.Selected)
	assert.Len(t, s.Records, 2)
	assert.Equal(t, []string{"sessions", "messages:new"}, src.Calls())
}

func TestLoadPreferredSession(t *testing.T) {
	src := twoSessions()
	c := NewController(src)

	require.NoError(t, c.Load(context.Background(), "old"))

	s := c.State()
	assert.Equal(t, "old", s.Selected)
	assert.Equal(t, PhaseContent, s.Phase)
	assert.Equal(t, []string{"sessions", "messages:old"}, src.Calls())
}

func TestLoadEmptyIndexSkipsTranscriptFetch(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src)

	require.NoError(t, c.Load(context.Background(), ""))

	s := c.State()
	assert.Equal(t, PhaseEmpty, s.Phase)
	assert.Equal(t, ModeEmpty, s.Mode())
	assert.Empty(t, s.Selected)
	assert.Equal(t, []string{"sessions"}, src.Calls())
}

func TestLoadSessionsFailure(t *testing.T) {
	src := &fakeSource{sessionsErr: errors.New("connection refused")}
	c := NewController(src)

	err := c.Load(context.Background(), "")
	require.Error(t, err)

	s := c.State()
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, StageIndex, s.Failed)
	assert.EqualError(t, s.Err, "connection refused")
}

func TestSelectEmptySessionIsNotAnError(t *testing.T) {
	src := twoSessions()
	c := NewController(src)
	require.NoError(t, c.Load(context.Background(), ""))

	require.NoError(t, c.Select(context.Background(), "unknown"))

	s := c.State()
	assert.Equal(t, PhaseEmpty, s.Phase)
	assert.Equal(t, "unknown", s.Selected)
	assert.NoError(t, s.Err)
}

func TestSelectFailureThenRecovery(t *testing.T) {
	src := twoSessions()
	c := NewController(src)
	require.NoError(t, c.Load(context.Background(), ""))

	src.mu.Lock()
	src.messagesErr = errors.New("timeout")
	src.mu.Unlock()

	require.Error(t, c.Select(context.Background(), "old"))
	s := c.State()
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, StageTranscript, s.Failed)

	// Error is left by the next user-initiated selection.
	src.mu.Lock()
	src.messagesErr = nil
	src.mu.Unlock()

	require.NoError(t, c.Select(context.Background(), "old"))
	s = c.State()
	assert.Equal(t, PhaseContent, s.Phase)
	assert.NoError(t, s.Err)
	assert.Empty(t, s.Failed)
}

func TestSelectClear(t *testing.T) {
	c := NewController(twoSessions())
	require.NoError(t, c.Load(context.Background(), ""))

	require.NoError(t, c.Select(context.Background(), ""))
	s := c.State()
	assert.Equal(t, PhaseEmpty, s.Phase)
	assert.Empty(t, s.Selected)
	assert.Empty(t, s.Records)

	// Clearing twice stays empty.
	require.NoError(t, c.Select(context.Background(), ""))
	assert.Equal(t, PhaseEmpty, c.State().Phase)
}

func TestSelectBeforeLoad(t *testing.T) {
	c := NewController(twoSessions())

	require.NoError(t, c.Select(context.Background(), "old"))
	s := c.State()
	assert.Equal(t, PhaseContent, s.Phase)
	assert.Empty(t, s.Sessions)
}

func TestReload(t *testing.T) {
	src := twoSessions()
	c := NewController(src)
	require.NoError(t, c.Load(context.Background(), ""))
	require.NoError(t, c.Load(context.Background(), ""))

	assert.Equal(t, PhaseContent, c.State().Phase)
	assert.Equal(t, []string{"sessions", "messages:new", "sessions", "messages:new"}, src.Calls())
}

func TestStaleTranscriptIsDiscarded(t *testing.T) {
	src := twoSessions()
	release := make(chan struct{})
	src.block = map[string]chan struct{}{"old": release}
	c := NewController(src)
	require.NoError(t, c.Load(context.Background(), ""))

	done := make(chan error)
	go func() { done <- c.Select(context.Background(), "old") }()

	// Wait until the slow request is in flight.
	require.Eventually(t, func() bool {
		calls := src.Calls()
		return calls[len(calls)-1] == "messages:old"
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Select(context.Background(), "new"))
	close(release)
	require.NoError(t, <-done)

	s := c.State()
	assert.Equal(t, "new", s.Selected)
	assert.Equal(t, PhaseContent, s.Phase)
	require.Len(t, s.Records, 2)
	assert.Equal(t, "new", s.Records[0].SessionID)
}

func TestAutoSelectStartsWithIndex(t *testing.T) {
	src := twoSessions()
	release := make(chan struct{})
	src.block = map[string]chan struct{}{"new": release}
	c := NewController(src)

	done := make(chan error)
	go func() { done <- c.Load(context.Background(), "") }()

	// Once the index is visible, the automatic selection is already in place.
	require.Eventually(t, func() bool {
		return len(c.State().Sessions) > 0
	}, time.Second, time.Millisecond)
	s := c.State()
	assert.Equal(t, PhaseLoadingTranscript, s.Phase)
	assert.Equal(t, "new", s.Selected)

	require.NoError(t, c.Select(context.Background(), "old"))
	close(release)
	require.NoError(t, <-done)

	s = c.State()
	assert.Equal(t, "old", s.Selected)
	assert.Equal(t, PhaseContent, s.Phase)
	require.Len(t, s.Records, 1)
	assert.Equal(t, "earlier", s.Records[0].Message.Content)
}

func TestStateIsACopy(t *testing.T) {
	c := NewController(twoSessions())
	require.NoError(t, c.Load(context.Background(), ""))

	s := c.State()
	s.Records[0].Message.Content = "mutated"
	s.Sessions[0].SessionID = "mutated"

	again := c.State()
	assert.Equal(t, "hi", again.Records[0].Message.Content)
	assert.Equal(t, "new", again.Sessions[0].SessionID)
}

func TestLoadIndexLeavesSelectionCleared(t *testing.T) {
	src := twoSessions()
	c := NewController(src)

	require.NoError(t, c.LoadIndex(context.Background()))

	s := c.State()
	assert.Equal(t, PhaseEmpty, s.Phase)
	assert.Empty(t, s.Selected)
	assert.Len(t, s.Sessions, 2)
	assert.Equal(t, []string{"sessions"}, src.Calls())

	d := Render(s)
	assert.Equal(t, ModeEmpty, d.Mode)
	assert.Equal(t, 3, d.TotalMessages)
}

func TestLoadIndexFailure(t *testing.T) {
	c := NewController(&fakeSource{sessionsErr: errors.New("down")})

	require.Error(t, c.LoadIndex(context.Background()))
	assert.Equal(t, StageIndex, c.State().Failed)
}

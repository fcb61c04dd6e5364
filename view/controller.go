// Package view holds the session browser's client state and the pure mapping
// from that state to a display description. Renderers consume the Display;
// the Controller is the only writer of the State.
package view

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/qmuntal/stateless"

	"github.com/sonnes/chatview/core"
)

// Source provides the session index and transcripts. Both the store and the
// HTTP API client satisfy it.
type Source interface {
	ListSessions(ctx context.Context) ([]core.SessionSummary, error)
	ListMessages(ctx context.Context, sessionID string) ([]core.Record, error)
}

// Phase is a state of the controller's state machine.
type Phase string

const (
	PhaseInitial           Phase = "initial"
	PhaseLoadingIndex      Phase = "loading-index"
	PhaseLoadingTranscript Phase = "loading-transcript"
	PhaseContent           Phase = "content"
	PhaseEmpty             Phase = "empty"
	PhaseError             Phase = "error"
)

// Stage names the fetch that put the controller in PhaseError.
type Stage string

const (
	StageIndex      Stage = "index"
	StageTranscript Stage = "transcript"
)

type trigger string

const (
	triggerLoad            trigger = "load"
	triggerSelect          trigger = "select"
	triggerClear           trigger = "clear"
	triggerIndexEmpty      trigger = "index-empty"
	triggerTranscriptReady trigger = "transcript-ready"
	triggerTranscriptEmpty trigger = "transcript-empty"
	triggerFail            trigger = "fail"
)

// State is a snapshot of everything the browser displays.
type State struct {
	Phase    Phase
	Sessions []core.SessionSummary
	Selected string // empty when no session is selected
	Records  []core.Record
	Err      error
	Failed   Stage // set in PhaseError
}

// Controller owns the browser state and moves it through the state machine.
// Every Load and Select starts a new request generation; a response that
// arrives after a newer request started is discarded.
type Controller struct {
	src Source
	sm  *stateless.StateMachine

	mu    sync.Mutex
	gen   uint64
	state State
}

// NewController creates a controller in PhaseInitial.
func NewController(src Source) *Controller {
	c := &Controller{
		src:   src,
		state: State{Phase: PhaseInitial},
	}
	c.sm = newMachine()
	return c
}

func newMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(PhaseInitial)

	sm.Configure(PhaseInitial).
		Permit(triggerLoad, PhaseLoadingIndex).
		Permit(triggerSelect, PhaseLoadingTranscript).
		Permit(triggerClear, PhaseEmpty)

	sm.Configure(PhaseLoadingIndex).
		PermitReentry(triggerLoad).
		Permit(triggerSelect, PhaseLoadingTranscript).
		Permit(triggerClear, PhaseEmpty).
		Permit(triggerIndexEmpty, PhaseEmpty).
		Permit(triggerFail, PhaseError)

	sm.Configure(PhaseLoadingTranscript).
		Permit(triggerLoad, PhaseLoadingIndex).
		PermitReentry(triggerSelect).
		Permit(triggerClear, PhaseEmpty).
		Permit(triggerTranscriptReady, PhaseContent).
		Permit(triggerTranscriptEmpty, PhaseEmpty).
		Permit(triggerFail, PhaseError)

	// Settled phases are only left by a new user-initiated fetch.
	for _, p := range []Phase{PhaseContent, PhaseEmpty, PhaseError} {
		cfg := sm.Configure(p).
			Permit(triggerLoad, PhaseLoadingIndex).
			Permit(triggerSelect, PhaseLoadingTranscript)
		if p == PhaseEmpty {
			cfg.Ignore(triggerClear)
		} else {
			cfg.Permit(triggerClear, PhaseEmpty)
		}
	}

	sm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		log.Debug("view transition", "trigger", t.Trigger, "from", t.Source, "to", t.Destination)
	})
	return sm
}

// fire must be called with c.mu held.
func (c *Controller) fire(t trigger) {
	if err := c.sm.Fire(t); err != nil {
		log.Error("view transition rejected", "trigger", t, "phase", c.state.Phase, "error", err)
		return
	}
	c.state.Phase = c.sm.MustState().(Phase)
}

// Load fetches the session index. With at least one session it selects
// preferred, or the most recent session when preferred is empty, and loads
// its transcript. An empty index settles in PhaseEmpty without fetching a
// transcript.
func (c *Controller) Load(ctx context.Context, preferred string) error {
	return c.loadIndex(ctx, func(sessions []core.SessionSummary) string {
		if preferred != "" {
			return preferred
		}
		return sessions[0].SessionID
	})
}

// LoadIndex fetches the session index and leaves the selection cleared.
func (c *Controller) LoadIndex(ctx context.Context) error {
	return c.loadIndex(ctx, func([]core.SessionSummary) string { return "" })
}

// loadIndex fetches the index and, in the same critical section that accepts
// it, starts the selection returned by pick. A Select issued after the index
// lands always supersedes the automatic one.
func (c *Controller) loadIndex(ctx context.Context, pick func([]core.SessionSummary) string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state.Err = nil
	c.state.Failed = ""
	c.fire(triggerLoad)
	c.mu.Unlock()

	sessions, err := c.src.ListSessions(ctx)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		log.Debug("discarding stale session index", "generation", gen)
		return nil
	}
	if err != nil {
		c.state.Err = err
		c.state.Failed = StageIndex
		c.fire(triggerFail)
		c.mu.Unlock()
		return err
	}

	c.state.Sessions = sessions
	if len(sessions) == 0 {
		c.state.Selected = ""
		c.state.Records = nil
		c.fire(triggerIndexEmpty)
		c.mu.Unlock()
		return nil
	}

	id := pick(sessions)
	gen, fetch := c.beginSelect(id)
	c.mu.Unlock()
	if !fetch {
		return nil
	}
	return c.fetchTranscript(ctx, id, gen)
}

// Select loads the transcript of sessionID. An empty id clears the selection
// and settles in PhaseEmpty.
func (c *Controller) Select(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	gen, fetch := c.beginSelect(sessionID)
	c.mu.Unlock()
	if !fetch {
		return nil
	}
	return c.fetchTranscript(ctx, sessionID, gen)
}

// beginSelect must be called with c.mu held. It reports whether a transcript
// fetch is needed.
func (c *Controller) beginSelect(sessionID string) (uint64, bool) {
	c.gen++
	c.state.Selected = sessionID
	c.state.Records = nil
	c.state.Err = nil
	c.state.Failed = ""
	if sessionID == "" {
		c.fire(triggerClear)
		return c.gen, false
	}
	c.fire(triggerSelect)
	return c.gen, true
}

func (c *Controller) fetchTranscript(ctx context.Context, sessionID string, gen uint64) error {
	records, err := c.src.ListMessages(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		log.Debug("discarding stale transcript", "session_id", sessionID, "generation", gen)
		return nil
	}
	if err != nil {
		c.state.Err = err
		c.state.Failed = StageTranscript
		c.fire(triggerFail)
		return err
	}

	c.state.Records = records
	if len(records) == 0 {
		c.fire(triggerTranscriptEmpty)
	} else {
		c.fire(triggerTranscriptReady)
	}
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Sessions = append([]core.SessionSummary(nil), c.state.Sessions...)
	s.Records = append([]core.Record(nil), c.state.Records...)
	return s
}

// Display renders the current state.
func (c *Controller) Display() Display {
	return Render(c.State())
}

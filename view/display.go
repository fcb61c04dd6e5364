package view

import (
	"fmt"

	"github.com/sonnes/chatview/core"
)

// Mode is what the transcript area shows.
type Mode string

const (
	ModeLoading Mode = "loading"
	ModeContent Mode = "content"
	ModeEmpty   Mode = "empty"
	ModeError   Mode = "error"
)

// Mode maps the state machine phase to a display mode.
func (s State) Mode() Mode {
	switch s.Phase {
	case PhaseContent:
		return ModeContent
	case PhaseEmpty:
		return ModeEmpty
	case PhaseError:
		return ModeError
	default:
		return ModeLoading
	}
}

// Display describes everything a renderer draws for one state.
type Display struct {
	Mode          Mode
	Title         string
	Subtitle      string
	Notice        *Notice // set unless Mode is ModeContent
	Selected      string
	Sessions      []SessionItem
	Messages      []MessageView
	TotalSessions int
	TotalMessages int
}

// Notice is the placeholder panel shown for loading, empty and error modes.
type Notice struct {
	Icon    string
	Heading string
	Text    string
}

// SessionItem is one entry of the session sidebar and dropdown.
type SessionItem struct {
	SessionID string
	Label     string
	Meta      string
	Active    bool
}

// MessageView is one rendered message of the transcript. Content is the raw,
// unescaped message text; renderers are responsible for escaping it.
type MessageView struct {
	Index   int
	ID      int64
	Type    core.MessageType
	Label   string
	Icon    string
	Content string
}

var (
	noticeLoading = Notice{Icon: "⏳", Heading: "Loading", Text: "Loading messages..."}
	noticeSelect  = Notice{Icon: "🗂️", Heading: "Select a session", Text: "Choose a session from the list to view the conversation"}
	noticeNoMsgs  = Notice{Icon: "🗂️", Heading: "No messages", Text: "This session has no messages yet"}
)

// Render maps a state to its display description. It has no side effects.
func Render(s State) Display {
	d := Display{
		Mode:          s.Mode(),
		Title:         "Select a session",
		Selected:      s.Selected,
		TotalSessions: len(s.Sessions),
		TotalMessages: core.TotalMessages(s.Sessions),
	}
	if s.Selected != "" {
		d.Title = SessionLabel(s.Selected)
	}

	for _, ss := range s.Sessions {
		d.Sessions = append(d.Sessions, SessionItem{
			SessionID: ss.SessionID,
			Label:     SessionLabel(ss.SessionID),
			Meta:      countLabel(ss.MessageCount, "message", "messages"),
			Active:    ss.SessionID == s.Selected,
		})
	}

	switch d.Mode {
	case ModeLoading:
		n := noticeLoading
		d.Notice = &n
	case ModeError:
		n := Notice{Icon: "⚠️", Heading: "Error", Text: "Failed to load messages"}
		if s.Failed == StageIndex {
			n.Text = "Failed to load sessions"
		}
		d.Notice = &n
	case ModeEmpty:
		n := noticeSelect
		if s.Selected != "" {
			n = noticeNoMsgs
			d.Subtitle = conversationLabel(0)
		}
		d.Notice = &n
	case ModeContent:
		d.Subtitle = conversationLabel(len(s.Records))
		d.Messages = make([]MessageView, len(s.Records))
		for i, r := range s.Records {
			d.Messages[i] = NewMessageView(i, r)
		}
	}
	return d
}

// NewMessageView labels a record by its message type. Anything that is not
// human is shown as the assistant.
func NewMessageView(index int, r core.Record) MessageView {
	mv := MessageView{
		Index:   index,
		ID:      r.ID,
		Type:    r.Message.Type,
		Label:   "AI Assistant",
		Icon:    "🤖",
		Content: r.Message.Content,
	}
	if r.Message.Type.IsHuman() {
		mv.Label = "User"
		mv.Icon = "👤"
	}
	return mv
}

// SessionLabel is the display name of a session.
func SessionLabel(sessionID string) string {
	return "Session " + sessionID
}

func conversationLabel(n int) string {
	return countLabel(n, "message", "messages") + " in the conversation"
}

func countLabel(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

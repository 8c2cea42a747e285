package chat

// User-visible error texts.
const (
	MsgNoActiveLiveChat  = "No active live chat found for this video."
	msgResolveFailedPfx  = "Error fetching live chat ID: "
	msgFetchFailedPrefix = "Error fetching messages: "
)

// Status is the coarse session phase derived from State.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusResolving     Status = "resolving"
	StatusPolling       Status = "polling"
	StatusResolveFailed Status = "resolve_failed"
)

// State is the full session state. Values are replaced, never mutated, so a
// snapshot handed to a renderer stays valid while polling continues.
type State struct {
	VideoID  string
	APIKey   string
	ChatID   string
	Loading  bool
	Error    string
	Messages []Message
}

// Status derives the session phase.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusResolving
	case s.ChatID != "":
		return StatusPolling
	case s.Error != "":
		return StatusResolveFailed
	default:
		return StatusIdle
	}
}

// HasError reports whether the error banner should be shown.
func (s State) HasError() bool { return s.Error != "" }

// Action is an input to Reduce.
type Action interface{ isAction() }

// ResolveStarted records the submitted inputs and turns loading on.
type ResolveStarted struct{ VideoID, APIKey string }

// ResolveSucceeded stores the resolved chat id and clears any error.
type ResolveSucceeded struct{ ChatID string }

// ResolveFailed surfaces a resolution error; polling is not started.
type ResolveFailed struct{ Message string }

// MessagesFetched carries one poll tick's batch for ChatID.
type MessagesFetched struct {
	ChatID string
	Batch  []Message
}

// PollFailed surfaces a poll error for ChatID; the poll task keeps running.
type PollFailed struct{ ChatID, Message string }

// SessionReset returns the session to its initial state.
type SessionReset struct{}

func (ResolveStarted) isAction()   {}
func (ResolveSucceeded) isAction() {}
func (ResolveFailed) isAction()    {}
func (MessagesFetched) isAction()  {}
func (PollFailed) isAction()       {}
func (SessionReset) isAction()     {}

// Reduce applies a to s and returns the next state.
//
// Poll results for a chat id other than s.ChatID are dropped; they belong to
// a task that was replaced or stopped while its request was in flight.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case ResolveStarted:
		s.VideoID = a.VideoID
		s.APIKey = a.APIKey
		s.Loading = true
	case ResolveSucceeded:
		s.Loading = false
		s.Error = ""
		if a.ChatID != s.ChatID {
			s.ChatID = a.ChatID
			s.Messages = nil
		}
	case ResolveFailed:
		s.Loading = false
		s.Error = a.Message
	case MessagesFetched:
		if a.ChatID == "" || a.ChatID != s.ChatID {
			return s
		}
		s.Messages = Merge(s.Messages, a.Batch, MaxMessages)
	case PollFailed:
		if a.ChatID == "" || a.ChatID != s.ChatID {
			return s
		}
		s.Error = a.Message
	case SessionReset:
		return State{}
	}
	return s
}

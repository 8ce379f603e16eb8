// Package voice bridges a speech recognizer to the backend's voice query
// endpoint. One session runs at a time.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pynezz/threatdash/internal/status"
)

// State of the bridge.
type State string

const (
	Idle       State = "idle"
	Listening  State = "listening"
	Processing State = "processing"
	Errored    State = "error"
)

const (
	MsgUnsupported = "Speech recognition is not supported on this device."
	MsgListening   = "Listening… Speak now!"
	MsgProcessing  = "Processing your query…"
	MsgReady       = "Ready for next query."
	MsgCaptureErr  = "Error capturing voice."
	MsgPrompt      = "Click the microphone to speak again."
	MsgQueryErr    = "Error processing voice query: "
)

var (
	ErrUnsupported = errors.New("speech recognition unsupported")
	ErrBusy        = errors.New("voice session already running")
)

// Asker forwards a transcript and returns the backend's answer.
type Asker func(ctx context.Context, query string) (string, error)

// Session is what the voice panel shows.
type Session struct {
	State      State
	Transcript string
	Response   string
}

// Bridge runs voice sessions. A nil recognizer means the device has no
// speech capability.
type Bridge struct {
	mu      sync.Mutex
	state   State
	ask     Asker
	status  *status.Reporter
	changed func(Session)
}

// NewBridge wires a bridge to the backend and the voice status region.
// changed, when set, sees every transition.
func NewBridge(ask Asker, st *status.Reporter, changed func(Session)) *Bridge {
	if changed == nil {
		changed = func(Session) {}
	}
	return &Bridge{state: Idle, ask: ask, status: st, changed: changed}
}

// State returns the current state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Activate runs one session: listen, forward the transcript, show the answer.
func (b *Bridge) Activate(ctx context.Context, rec Recognizer) (Session, error) {
	if rec == nil {
		b.status.Fail(MsgUnsupported)
		return Session{State: b.State()}, ErrUnsupported
	}

	b.mu.Lock()
	if b.state != Idle {
		b.mu.Unlock()
		return Session{State: b.state}, ErrBusy
	}
	b.state = Listening
	b.mu.Unlock()
	defer b.transition(Idle)

	b.changed(Session{State: Listening})
	b.status.Progress(MsgListening)

	transcript, err := rec.Listen(ctx)
	if err != nil {
		b.transition(Errored)
		b.changed(Session{State: Errored})
		b.status.Fail(MsgCaptureErr)
		return Session{State: Errored}, fmt.Errorf("listen: %w", err)
	}

	b.transition(Processing)
	b.changed(Session{State: Processing, Transcript: transcript})
	b.status.Progress(MsgProcessing)

	response, err := b.ask(ctx, transcript)
	if err != nil {
		b.changed(Session{State: Idle, Transcript: transcript})
		b.status.Fail(MsgQueryErr + messageOf(err))
		return Session{State: Idle, Transcript: transcript}, err
	}

	s := Session{State: Idle, Transcript: transcript, Response: response}
	b.changed(s)
	b.status.Done(MsgReady)
	return s, nil
}

func (b *Bridge) transition(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// messageOf prefers a user facing Message() when the error has one.
func messageOf(err error) string {
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}

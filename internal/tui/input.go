package tui

import "unicode/utf8"

// Mode is what the keyboard currently drives.
type Mode int

const (
	Browse Mode = iota
	EditFeed
	EditCVE
	EditVoice
)

// Prompt is the caption of the input line.
func (m Mode) Prompt() string {
	switch m {
	case EditFeed:
		return "Feed URL"
	case EditCVE:
		return "CVE ID"
	case EditVoice:
		return "Ask"
	}
	return ""
}

// Action is the outcome of a key in an edit mode.
type Action int

const (
	ActionNone Action = iota
	ActionCancel
	ActionSubmit
)

// Input is a single line editor fed with termui key ids.
type Input struct {
	Mode Mode
	buf  []rune
}

// Start enters m with initial as the buffer.
func (in *Input) Start(m Mode, initial string) {
	in.Mode = m
	in.buf = []rune(initial)
}

// Text returns the buffer.
func (in *Input) Text() string { return string(in.buf) }

// Reset goes back to browsing.
func (in *Input) Reset() {
	in.Mode = Browse
	in.buf = in.buf[:0]
}

// Editing reports whether keys go to the buffer.
func (in *Input) Editing() bool { return in.Mode != Browse }

// Key applies one key. Submit and cancel leave the buffer for the caller,
// which is expected to Reset.
func (in *Input) Key(id string) Action {
	switch id {
	case "<Escape>":
		return ActionCancel
	case "<Enter>":
		return ActionSubmit
	case "<Backspace>", "<C-<Backspace>>":
		if len(in.buf) > 0 {
			in.buf = in.buf[:len(in.buf)-1]
		}
	case "<Space>":
		in.buf = append(in.buf, ' ')
	case "<C-u>":
		in.buf = in.buf[:0]
	default:
		if utf8.RuneCountInString(id) == 1 {
			r, _ := utf8.DecodeRuneInString(id)
			in.buf = append(in.buf, r)
		}
	}
	return ActionNone
}

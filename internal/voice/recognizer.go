package voice

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrNoSpeech is returned when a recognizer heard nothing.
var ErrNoSpeech = errors.New("no speech recognised")

// Recognizer captures one utterance and returns its transcript.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Transcript is an utterance already recognised elsewhere, e.g. by the
// browser's speech API or a command line flag.
type Transcript string

func (t Transcript) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(t))
	if s == "" {
		return "", ErrNoSpeech
	}
	return s, nil
}

// LineReader treats each line of r as an utterance.
type LineReader struct {
	mu      sync.Mutex
	r       *bufio.Reader
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Listen blocks until a line arrives or ctx is done. A line that arrives after
// a cancelled Listen is returned by the next call.
func (l *LineReader) Listen(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			line, err := l.r.ReadString('\n')
			ch <- lineResult{line, err}
		}()
	}
	ch := l.pending
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		l.mu.Lock()
		l.pending = nil
		l.mu.Unlock()

		line := strings.TrimSpace(res.line)
		if line != "" {
			return line, nil
		}
		if res.err != nil {
			return "", res.err
		}
		return "", ErrNoSpeech
	}
}

// Package status keeps the one-line status text of each dashboard region and
// fans every change out to whatever is displaying it.
package status

import (
	"sync"
	"time"

	"github.com/pynezz/threatdash/internal/util"
)

// Region names a status line. The values double as element ids in the web page.
type Region string

const (
	RegionOverview Region = "status"
	RegionCVE      Region = "cve-status"
	RegionVoice    Region = "voice-status"
)

// Regions lists every region in display order.
var Regions = []Region{RegionOverview, RegionCVE, RegionVoice}

// Phase is the lifecycle of the operation behind a status line.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in-progress"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Line is what a region currently shows.
type Line struct {
	Region  Region    `json:"region"`
	Message string    `json:"message"`
	IsError bool      `json:"is_error"`
	Phase   Phase     `json:"phase"`
	At      time.Time `json:"at"`
}

// Sink receives every status change. Sinks must not block for long.
type Sink interface {
	Publish(Line)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Line)

func (f SinkFunc) Publish(l Line) { f(l) }

// Board holds the latest line per region.
type Board struct {
	mu    sync.RWMutex
	lines map[Region]Line
	sinks []Sink
	now   func() time.Time
}

// NewBoard creates a board with every region idle.
func NewBoard(sinks ...Sink) *Board {
	b := &Board{
		lines: make(map[Region]Line, len(Regions)),
		sinks: sinks,
		now:   time.Now,
	}
	for _, r := range Regions {
		b.lines[r] = Line{Region: r, Phase: PhaseIdle}
	}
	return b
}

// AddSink registers another display.
func (b *Board) AddSink(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// For returns the reporter of one region.
func (b *Board) For(r Region) *Reporter {
	return &Reporter{board: b, region: r}
}

// Line returns the current line of a region.
func (b *Board) Line(r Region) Line {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lines[r]
}

// Lines returns every region's line in display order.
func (b *Board) Lines() []Line {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Line, 0, len(Regions))
	for _, r := range Regions {
		out = append(out, b.lines[r])
	}
	return out
}

func (b *Board) set(r Region, msg string, phase Phase) {
	line := Line{
		Region:  r,
		Message: msg,
		IsError: phase == PhaseError,
		Phase:   phase,
		At:      b.now(),
	}

	b.mu.Lock()
	b.lines[r] = line
	sinks := append([]Sink(nil), b.sinks...)
	b.mu.Unlock()

	for _, s := range sinks {
		s.Publish(line)
	}
}

// Reporter is the status sink of one region.
type Reporter struct {
	board  *Board
	region Region
}

// Report sets the visible text and its error/normal style.
func (r *Reporter) Report(message string, isError bool) {
	phase := PhaseSuccess
	if isError {
		phase = PhaseError
	}
	r.board.set(r.region, message, phase)
}

// Progress marks the region's operation as in progress.
func (r *Reporter) Progress(message string) {
	r.board.set(r.region, message, PhaseInProgress)
}

// Done marks the operation as successfully finished.
func (r *Reporter) Done(message string) {
	r.board.set(r.region, message, PhaseSuccess)
}

// Fail marks the operation as failed.
func (r *Reporter) Fail(message string) {
	r.board.set(r.region, message, PhaseError)
}

// Idle resets the region without signalling success or failure.
func (r *Reporter) Idle(message string) {
	r.board.set(r.region, message, PhaseIdle)
}

// Region returns the region this reporter writes to.
func (r *Reporter) Region() Region {
	return r.region
}

// Console prints every change with the util helpers.
type Console struct{}

func (Console) Publish(l Line) {
	switch l.Phase {
	case PhaseError:
		util.PrintError(l.Message)
	case PhaseSuccess:
		util.PrintSuccess(l.Message)
	case PhaseInProgress:
		util.PrintInfo(l.Message)
	default:
		if l.Message != "" {
			util.PrintColor(util.Gray, l.Message)
		}
	}
}

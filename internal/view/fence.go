package view

import (
	"context"
	"sync"
)

// Ticket identifies one started operation.
type Ticket struct {
	op  string
	seq uint64
}

// Op returns the operation kind the ticket belongs to.
func (t Ticket) Op() string { return t.op }

// Fence orders repeated operations of the same kind: starting one cancels the
// request still in flight for that kind, and only the latest ticket may write
// its result.
type Fence struct {
	mu     sync.Mutex
	seq    map[string]uint64
	cancel map[string]context.CancelFunc
}

func NewFence() *Fence {
	return &Fence{
		seq:    make(map[string]uint64),
		cancel: make(map[string]context.CancelFunc),
	}
}

// Begin supersedes any running op of the same kind and returns the context
// the new request must use.
func (f *Fence) Begin(ctx context.Context, op string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.cancel[op]; ok {
		prev()
	}
	f.seq[op]++
	f.cancel[op] = cancel
	return ctx, Ticket{op: op, seq: f.seq[op]}
}

// Current reports whether t is still the latest ticket of its kind.
func (f *Fence) Current(t Ticket) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq[t.op] == t.seq
}

// End releases the context of t if it is still current.
func (f *Fence) End(t Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq[t.op] != t.seq {
		return
	}
	if cancel, ok := f.cancel[t.op]; ok {
		cancel()
		delete(f.cancel, t.op)
	}
}

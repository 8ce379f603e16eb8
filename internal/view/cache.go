package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pynezz/threatdash/pkg/types"
)

// LoadState tags a detail cache entry.
type LoadState int

const (
	Unloaded LoadState = iota
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unloaded"
	}
}

// DetailEntry is the deep-dive panel of one report card.
type DetailEntry struct {
	ID     int64
	State  LoadState
	Detail *types.ReportDetail
	Err    string
	Open   bool
}

// ErrStale is returned when the cache was reset while a load was running.
// The result was dropped.
var ErrStale = errors.New("detail cache reset during load")

// FetchDetail loads one report's detail from the backend.
type FetchDetail func(ctx context.Context, id int64) (*types.ReportDetail, error)

// DetailCache holds the per-card deep-dive data. A detail is fetched at most
// once until Reset (a full list reload); concurrent loads of the same id
// share one request.
type DetailCache struct {
	mu      sync.RWMutex
	entries map[int64]*DetailEntry
	gen     uint64
	group   singleflight.Group
}

func NewDetailCache() *DetailCache {
	return &DetailCache{entries: make(map[int64]*DetailEntry)}
}

// Load returns the cached detail of id, fetching it when not loaded yet.
// fetched reports whether this call went to the backend.
func (c *DetailCache) Load(ctx context.Context, id int64, fetch FetchDetail) (detail *types.ReportDetail, fetched bool, err error) {
	detail, fetched, _, err = c.load(ctx, id, fetch)
	return detail, fetched, err
}

// Open loads the detail of id when needed and shows its panel. failed turns
// a fetch error into the message kept on the entry. On ErrStale the panel
// stays closed.
func (c *DetailCache) Open(ctx context.Context, id int64, fetch FetchDetail, failed func(error) string) (DetailEntry, error) {
	_, _, gen, err := c.load(ctx, id, fetch)
	if errors.Is(err, ErrStale) {
		return c.Entry(id), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		e, ok := c.entries[id]
		if !ok {
			return DetailEntry{ID: id}, ErrStale
		}
		return *e, ErrStale
	}

	e := c.entry(id)
	if err != nil && failed != nil {
		e.Err = failed(err)
	}
	e.Open = true
	return *e, err
}

// load fetches through the singleflight group and stores the result in the
// generation it started in.
func (c *DetailCache) load(ctx context.Context, id int64, fetch FetchDetail) (*types.ReportDetail, bool, uint64, error) {
	c.mu.RLock()
	gen := c.gen
	if e, ok := c.entries[id]; ok && e.State == Loaded {
		d := e.Detail
		c.mu.RUnlock()
		return d, false, gen, nil
	}
	c.mu.RUnlock()

	fetched := false
	v, err, _ := c.group.Do(fmt.Sprintf("%d/%d", gen, id), func() (interface{}, error) {
		fetched = true
		return fetch(ctx, id)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return nil, fetched, gen, ErrStale
	}

	e := c.entry(id)
	if err != nil {
		e.State = Failed
		e.Err = err.Error()
		e.Detail = nil
		return nil, fetched, gen, err
	}

	d := v.(*types.ReportDetail)
	e.State = Loaded
	e.Detail = d
	e.Err = ""
	return d, fetched, gen, nil
}

// SetOpen shows or hides the panel of id.
func (c *DetailCache) SetOpen(id int64, open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(id).Open = open
}

// IsOpen reports whether the panel of id is visible.
func (c *DetailCache) IsOpen(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return ok && e.Open
}

// Entry returns a copy of the entry of id.
func (c *DetailCache) Entry(id int64) DetailEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[id]; ok {
		return *e
	}
	return DetailEntry{ID: id}
}

// Entries returns copies of every entry.
func (c *DetailCache) Entries() map[int64]DetailEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]DetailEntry, len(c.entries))
	for id, e := range c.entries {
		out[id] = *e
	}
	return out
}

// Reset drops every entry. In-flight loads finish but are not stored, and
// loads started after Reset never share a request with them.
func (c *DetailCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]*DetailEntry)
	c.gen++
}

// entry must be called with mu held.
func (c *DetailCache) entry(id int64) *DetailEntry {
	e, ok := c.entries[id]
	if !ok {
		e = &DetailEntry{ID: id}
		c.entries[id] = e
	}
	return e
}

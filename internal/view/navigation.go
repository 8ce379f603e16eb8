package view

import (
	"errors"
	"fmt"
	"sync"
)

const (
	SectionOverview = "overview"
	SectionCVE      = "cve"
	SectionVoice    = "voice"
	SectionSettings = "settings"
)

// DefaultSections are the dashboard tabs in display order.
var DefaultSections = []string{SectionOverview, SectionCVE, SectionVoice, SectionSettings}

var ErrUnknownSection = errors.New("unknown section")

// Navigation tracks which one of a fixed set of sections is active.
type Navigation struct {
	mu       sync.RWMutex
	sections []string
	active   string
}

// NewNavigation starts on initial, or on the first section when initial is
// not one of sections. With no sections given, DefaultSections are used.
func NewNavigation(initial string, sections ...string) *Navigation {
	if len(sections) == 0 {
		sections = DefaultSections
	}
	n := &Navigation{
		sections: append([]string(nil), sections...),
		active:   sections[0],
	}
	if n.known(initial) {
		n.active = initial
	}
	return n
}

// Activate makes key the only active section. Unknown keys leave the state unchanged.
func (n *Navigation) Activate(key string) error {
	if !n.known(key) {
		return fmt.Errorf("%w: %q", ErrUnknownSection, key)
	}
	n.mu.Lock()
	n.active = key
	n.mu.Unlock()
	return nil
}

// Active returns the active section.
func (n *Navigation) Active() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// IsActive reports whether key is the active section.
func (n *Navigation) IsActive(key string) bool {
	return n.Active() == key
}

// Sections returns the fixed section list.
func (n *Navigation) Sections() []string {
	return append([]string(nil), n.sections...)
}

// Index returns the position of the active section.
func (n *Navigation) Index() int {
	active := n.Active()
	for i, s := range n.sections {
		if s == active {
			return i
		}
	}
	return 0
}

func (n *Navigation) known(key string) bool {
	for _, s := range n.sections {
		if s == key {
			return true
		}
	}
	return false
}

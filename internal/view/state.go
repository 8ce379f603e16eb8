// Package view holds the dashboard's display state. Every renderer (the web
// page, the TUI, the CLI) works from a Snapshot, never from the live state.
package view

import (
	"sync"

	"github.com/pynezz/threatdash/internal/fetcher"
	"github.com/pynezz/threatdash/pkg/types"
)

// NoSource is shown as the last source until something was ingested or loaded.
const NoSource = "–"

// Overview is the summary cards above the report list.
type Overview struct {
	LastSource     string
	LastMitreCount int
	TotalReports   int
}

// CVEPanel is the CVE analysis card.
type CVEPanel struct {
	Result *types.CVEResult
	// Explanation replaces Result.AIExplanation while a lookup is running or
	// after one failed.
	Explanation string
	Visible     bool
}

// VoicePanel shows the last transcript and backend answer.
type VoicePanel struct {
	Transcript string
	Response   string
	Phase      string
}

// Form keeps what the user last typed, so re-renders do not lose it.
type Form struct {
	FeedURL   string
	ItemCount int
	CVEID     string
}

// Snapshot is an immutable copy of the whole display state.
type Snapshot struct {
	Overview      Overview
	Reports       []types.Report
	ReportsLoaded bool
	Details       map[int64]DetailEntry
	CVE           CVEPanel
	Voice         VoicePanel
	Form          Form
	Section       string
	Sections      []string
}

// Detail returns the deep-dive entry of one card.
func (s Snapshot) Detail(id int64) DetailEntry {
	if e, ok := s.Details[id]; ok {
		return e
	}
	return DetailEntry{ID: id}
}

// State is the live, lock protected display state.
type State struct {
	mu sync.RWMutex

	overview      Overview
	reports       []types.Report
	reportsLoaded bool
	cve           CVEPanel
	voice         VoicePanel
	form          Form

	Details *DetailCache
	Nav     *Navigation
}

// New creates an empty state starting on section initial.
func New(initial string) *State {
	return &State{
		overview: Overview{LastSource: NoSource},
		form:     Form{ItemCount: 3},
		voice:    VoicePanel{Phase: "idle"},
		Details:  NewDetailCache(),
		Nav:      NewNavigation(initial),
	}
}

// SetIngestResult records what the last successful ingestion did.
func (s *State) SetIngestResult(source string, mitreCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overview.LastSource = source
	s.overview.LastMitreCount = mitreCount
}

// SetReports replaces the card list. Deep-dive panels of the old list are
// dropped. When nothing was ingested yet, the last source is derived from the
// first item's link.
func (s *State) SetReports(items []types.Report, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append([]types.Report(nil), items...)
	s.reportsLoaded = true
	s.overview.TotalReports = total

	if s.overview.LastSource == NoSource && len(items) > 0 {
		s.overview.LastSource = fetcher.SourceLabel(items[0].Link)
	}
	s.Details.Reset()
}

// Report returns the displayed card with id.
func (s *State) Report(id int64) (types.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return types.Report{}, false
}

// ShowCVE displays a lookup result.
func (s *State) ShowCVE(res *types.CVEResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cve = CVEPanel{Result: res, Visible: true}
}

// ClearCVE empties the CVE card fields and shows explanation in its place.
func (s *State) ClearCVE(explanation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cve = CVEPanel{Explanation: explanation, Visible: true}
}

// SetVoice updates the voice panel. Empty strings keep the current value.
func (s *State) SetVoice(phase, transcript, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phase != "" {
		s.voice.Phase = phase
	}
	if transcript != "" {
		s.voice.Transcript = transcript
	}
	if response != "" {
		s.voice.Response = response
	}
}

// SetFeedForm remembers the ingest form values.
func (s *State) SetFeedForm(feedURL string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.FeedURL = feedURL
	s.form.ItemCount = count
}

// SetCVEForm remembers the CVE input.
func (s *State) SetCVEForm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.CVEID = id
}

// Snapshot copies the state for rendering.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Overview:      s.overview,
		Reports:       append([]types.Report(nil), s.reports...),
		ReportsLoaded: s.reportsLoaded,
		CVE:           s.cve,
		Voice:         s.voice,
		Form:          s.form,
	}
	s.mu.RUnlock()

	snap.Details = s.Details.Entries()
	snap.Section = s.Nav.Active()
	snap.Sections = s.Nav.Sections()
	return snap
}

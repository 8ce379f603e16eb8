// Package dashboard implements the user operations of the threat-intel
// dashboard. Front ends call these and render view snapshots; they never
// talk to the backend themselves.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pynezz/threatdash/internal/fetcher"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/model"
	"github.com/pynezz/threatdash/pkg/types"
)

// Status messages.
const (
	MsgIngesting   = "Running pipeline: fetching, cleaning, summarising, extracting IOCs & mapping MITRE…"
	MsgIngested    = "Completed. Processed %d articles from feed."
	MsgIngestErr   = "Error during ingestion: "
	MsgLoading     = "Loading reports from local database…"
	MsgNoReports   = "No reports in database yet."
	MsgLoaded      = "Loaded %d reports from local database."
	MsgLoadErr     = "Error loading reports: "
	MsgAnalysisErr = "Failed to load analysis: "
	MsgFetchingCVE = "Fetching CVE details from NVD and generating AI explanation…"
	MsgCVELoaded   = "CVE details and AI explanation loaded."
	MsgCVEErr      = "Error analyzing CVE: "
)

// fence keys
const (
	opIngest  = fetcher.OpIngest
	opReports = fetcher.OpReports
	opCVE     = fetcher.OpCVE
)

var (
	// ErrSuperseded is returned when a newer request of the same kind
	// started before this one finished. Its result was discarded.
	ErrSuperseded  = errors.New("superseded by a newer request")
	ErrUnknownFeed = errors.New("unknown preset feed")
	ErrUnknownCard = errors.New("report is not displayed")
)

// Backend is the subset of the API client the dashboard uses.
type Backend interface {
	Ingest(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error)
	Reports(ctx context.Context) (*types.ReportList, error)
	Report(ctx context.Context, id int64) (*types.ReportDetail, error)
	CVE(ctx context.Context, id string) (*types.CVEResult, error)
	VoiceQuery(ctx context.Context, query string) (*types.VoiceResponse, error)
}

var _ Backend = (*fetcher.Client)(nil)

// Dashboard owns the view state and drives every operation.
type Dashboard struct {
	backend Backend
	state   *view.State
	board   *status.Board
	fence   *view.Fence
	voice   *voice.Bridge

	overview *status.Reporter
	cve      *status.Reporter

	itemCount int

	mu        sync.RWMutex
	feeds     []model.Feed
	listeners []func()
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithFeeds sets the preset feeds.
func WithFeeds(feeds []model.Feed) Option {
	return func(d *Dashboard) { d.feeds = append([]model.Feed(nil), feeds...) }
}

// WithSection sets the initially active section.
func WithSection(key string) Option {
	return func(d *Dashboard) {
		if err := d.state.Nav.Activate(key); err != nil && key != "" {
			util.PrintWarning(fmt.Sprintf("initial section: %v", err))
		}
	}
}

// WithItemCount sets the default item count of the ingest form.
func WithItemCount(n int) Option {
	return func(d *Dashboard) {
		if n > 0 {
			d.itemCount = n
			d.state.SetFeedForm("", n)
		}
	}
}

func New(backend Backend, board *status.Board, opts ...Option) *Dashboard {
	if board == nil {
		board = status.NewBoard()
	}
	d := &Dashboard{
		backend:   backend,
		state:     view.New(view.SectionOverview),
		board:     board,
		fence:     view.NewFence(),
		itemCount: fetcher.DefaultItemCount,
		overview:  board.For(status.RegionOverview),
		cve:       board.For(status.RegionCVE),
	}
	d.voice = voice.NewBridge(d.ask, board.For(status.RegionVoice), d.voiceChanged)
	for _, opt := range opts {
		opt(d)
	}
	board.For(status.RegionVoice).Idle(voice.MsgPrompt)
	return d
}

// OnChange registers fn to run after every view state change.
func (d *Dashboard) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Dashboard) notify() {
	d.mu.RLock()
	fns := append([]func(){}, d.listeners...)
	d.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Snapshot returns a copy of the view state.
func (d *Dashboard) Snapshot() view.Snapshot { return d.state.Snapshot() }

// Board returns the status board.
func (d *Dashboard) Board() *status.Board { return d.board }

// Ingest asks the backend to process feedURL, then reloads the report list.
// count is the raw form value; when it is not a positive integer the
// configured item count is used.
func (d *Dashboard) Ingest(ctx context.Context, feedURL, count string) error {
	feedURL = strings.TrimSpace(feedURL)
	n := fetcher.ParseItemCountOr(count, d.itemCount)
	d.state.SetFeedForm(feedURL, n)

	if feedURL == "" {
		d.overview.Fail(fetcher.MsgEmptyFeedURL)
		return &fetcher.Error{Kind: fetcher.KindValidation, Op: fetcher.OpIngest, Detail: fetcher.MsgEmptyFeedURL}
	}

	ctx, ticket := d.fence.Begin(ctx, opIngest)
	defer d.fence.End(ticket)

	d.overview.Progress(MsgIngesting)
	res, err := d.backend.Ingest(ctx, types.IngestRequest{RSSURL: feedURL, MaxItems: n, Save: true})
	if !d.fence.Current(ticket) {
		util.PrintDebug("ingest superseded: " + feedURL)
		return ErrSuperseded
	}
	if err != nil {
		d.overview.Fail(MsgIngestErr + fetcher.Message(err))
		return err
	}

	d.state.SetIngestResult(fetcher.SourceLabel(feedURL), res.TechniqueTotal())
	d.overview.Done(fmt.Sprintf(MsgIngested, res.Count))
	d.notify()

	return d.LoadReports(ctx)
}

// LoadReports replaces the report list with the backend's. On failure the
// displayed list is kept.
func (d *Dashboard) LoadReports(ctx context.Context) error {
	ctx, ticket := d.fence.Begin(ctx, opReports)
	defer d.fence.End(ticket)

	d.overview.Progress(MsgLoading)
	list, err := d.backend.Reports(ctx)
	if !d.fence.Current(ticket) {
		util.PrintDebug("report reload superseded")
		return ErrSuperseded
	}
	if err != nil {
		d.overview.Fail(MsgLoadErr + fetcher.Message(err))
		return err
	}

	d.state.SetReports(list.Items, list.Total())
	if len(list.Items) == 0 {
		d.overview.Done(MsgNoReports)
	} else {
		d.overview.Done(fmt.Sprintf(MsgLoaded, len(list.Items)))
	}
	d.notify()
	return nil
}

// ToggleDetails opens or closes the deep-dive panel of a card. The first
// successful open fetches the detail; later opens reuse it.
func (d *Dashboard) ToggleDetails(ctx context.Context, id int64) (view.DetailEntry, error) {
	if _, ok := d.state.Report(id); !ok {
		return view.DetailEntry{}, fmt.Errorf("%w: %d", ErrUnknownCard, id)
	}

	if d.state.Details.IsOpen(id) {
		d.state.Details.SetOpen(id, false)
		d.notify()
		return d.state.Details.Entry(id), nil
	}

	// a reload mid-fetch drops the result; fetch again while the card is shown
	for attempt := 0; attempt < 2; attempt++ {
		entry, err := d.state.Details.Open(ctx, id, d.backend.Report, analysisError)
		if errors.Is(err, view.ErrStale) {
			if _, ok := d.state.Report(id); !ok {
				return view.DetailEntry{}, fmt.Errorf("%w: %d", ErrUnknownCard, id)
			}
			continue
		}
		d.notify()
		return entry, err
	}
	d.notify()
	return d.state.Details.Entry(id), ErrSuperseded
}

func analysisError(err error) string {
	return MsgAnalysisErr + fetcher.Message(err)
}

// AnalyzeCVE looks up a CVE. Malformed ids are rejected without a request.
func (d *Dashboard) AnalyzeCVE(ctx context.Context, raw string) error {
	d.state.SetCVEForm(raw)
	id, err := fetcher.NormalizeCVEID(raw)
	if err != nil {
		d.cve.Fail(fetcher.MsgBadCVEID)
		return err
	}

	ctx, ticket := d.fence.Begin(ctx, opCVE)
	defer d.fence.End(ticket)

	d.cve.Progress(MsgFetchingCVE)
	res, err := d.backend.CVE(ctx, id)
	if !d.fence.Current(ticket) {
		util.PrintDebug("cve lookup superseded: " + id)
		return ErrSuperseded
	}
	if err != nil {
		d.state.ClearCVE(render.NoExplanation)
		d.cve.Fail(MsgCVEErr + fetcher.Message(err))
		d.notify()
		return err
	}

	d.state.ShowCVE(res)
	d.cve.Done(MsgCVELoaded)
	d.notify()
	return nil
}

// Voice runs one voice session with rec. A nil rec means no speech
// capability is available.
func (d *Dashboard) Voice(ctx context.Context, rec voice.Recognizer) (voice.Session, error) {
	return d.voice.Activate(ctx, rec)
}

// VoiceState returns the bridge state.
func (d *Dashboard) VoiceState() voice.State { return d.voice.State() }

func (d *Dashboard) ask(ctx context.Context, query string) (string, error) {
	res, err := d.backend.VoiceQuery(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Response, nil
}

func (d *Dashboard) voiceChanged(s voice.Session) {
	d.state.SetVoice(string(s.State), s.Transcript, s.Response)
	d.notify()
}

// Navigate activates a section.
func (d *Dashboard) Navigate(key string) error {
	if err := d.state.Nav.Activate(key); err != nil {
		return err
	}
	d.notify()
	return nil
}

// Feeds returns the preset feeds.
func (d *Dashboard) Feeds() []model.Feed {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Feed(nil), d.feeds...)
}

// SetFeeds replaces the preset feeds, e.g. after a config reload.
func (d *Dashboard) SetFeeds(feeds []model.Feed) {
	d.mu.Lock()
	d.feeds = append([]model.Feed(nil), feeds...)
	d.mu.Unlock()
	d.notify()
}

// ApplyPreset fills the feed url field with the named preset.
func (d *Dashboard) ApplyPreset(name string) (model.Feed, error) {
	for _, f := range d.Feeds() {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			d.state.SetFeedForm(f.URL, d.state.Snapshot().Form.ItemCount)
			d.notify()
			return f, nil
		}
	}
	return model.Feed{}, fmt.Errorf("%w: %q", ErrUnknownFeed, name)
}

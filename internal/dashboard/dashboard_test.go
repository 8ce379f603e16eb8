package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pynezz/threatdash/internal/fetcher"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/model"
	"github.com/pynezz/threatdash/pkg/types"
)

// fakeBackend counts calls and delegates to optional hooks.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	ingest  func(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error)
	reports func(ctx context.Context) (*types.ReportList, error)
	report  func(ctx context.Context, id int64) (*types.ReportDetail, error)
	cve     func(ctx context.Context, id string) (*types.CVEResult, error)
	voice   func(ctx context.Context, q string) (*types.VoiceResponse, error)
}

func (f *fakeBackend) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Ingest(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
	f.hit(fetcher.OpIngest)
	if f.ingest == nil {
		return &types.IngestResponse{}, nil
	}
	return f.ingest(ctx, req)
}

func (f *fakeBackend) Reports(ctx context.Context) (*types.ReportList, error) {
	f.hit(fetcher.OpReports)
	if f.reports == nil {
		return &types.ReportList{}, nil
	}
	return f.reports(ctx)
}

func (f *fakeBackend) Report(ctx context.Context, id int64) (*types.ReportDetail, error) {
	f.hit(fetcher.OpReport)
	if f.report == nil {
		return &types.ReportDetail{Report: types.Report{ID: id}}, nil
	}
	return f.report(ctx, id)
}

func (f *fakeBackend) CVE(ctx context.Context, id string) (*types.CVEResult, error) {
	f.hit(fetcher.OpCVE)
	if f.cve == nil {
		return &types.CVEResult{CVEID: id}, nil
	}
	return f.cve(ctx, id)
}

func (f *fakeBackend) VoiceQuery(ctx context.Context, q string) (*types.VoiceResponse, error) {
	f.hit(fetcher.OpVoiceQuery)
	if f.voice == nil {
		return &types.VoiceResponse{Response: "ok"}, nil
	}
	return f.voice(ctx, q)
}

func httpErr(op string, code int) error {
	return &fetcher.Error{Kind: fetcher.KindHTTP, Op: op, Status: code}
}

func twoReports() *types.ReportList {
	return &types.ReportList{Items: []types.Report{
		{ID: 1, Title: "one", Link: "https://thehackernews.com/a"},
		{ID: 2, Title: "two"},
	}}
}

func TestIngestEmptyURLNoCall(t *testing.T) {
	be := &fakeBackend{}
	d := New(be, nil)

	err := d.Ingest(context.Background(), "   ", "5")
	assert.True(t, fetcher.IsKind(err, fetcher.KindValidation))
	assert.Equal(t, 0, be.count(fetcher.OpIngest))

	line := d.Board().Line(status.RegionOverview)
	assert.Equal(t, fetcher.MsgEmptyFeedURL, line.Message)
	assert.True(t, line.IsError)
}

func TestIngestSuccessReloads(t *testing.T) {
	var got types.IngestRequest
	be := &fakeBackend{
		ingest: func(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
			got = req
			return &types.IngestResponse{Count: 2, Items: []types.Report{
				{Mitre: &types.MitreMapping{Techniques: []string{"T1059", "T1566"}}},
				{Mitre: &types.MitreMapping{Techniques: []string{"T1486"}}},
			}}, nil
		},
		reports: func(ctx context.Context) (*types.ReportList, error) { return twoReports(), nil },
	}
	board := status.NewBoard()
	var messages []string
	board.AddSink(status.SinkFunc(func(l status.Line) {
		if l.Region == status.RegionOverview {
			messages = append(messages, l.Message)
		}
	}))
	d := New(be, board)

	require.NoError(t, d.Ingest(context.Background(), " https://feeds.feedburner.com/TheHackersNews ", "abc"))

	assert.Equal(t, types.IngestRequest{RSSURL: "https://feeds.feedburner.com/TheHackersNews", MaxItems: 3, Save: true}, got)
	snap := d.Snapshot()
	assert.Equal(t, "feeds.feedburner.com", snap.Overview.LastSource)
	assert.Equal(t, 3, snap.Overview.LastMitreCount)
	assert.Equal(t, 2, snap.Overview.TotalReports)
	assert.Len(t, snap.Reports, 2)
	assert.Equal(t, []string{
		MsgIngesting,
		"Completed. Processed 2 articles from feed.",
		MsgLoading,
		"Loaded 2 reports from local database.",
	}, messages)
}

func TestIngestHostlessURLIsCustomFeed(t *testing.T) {
	d := New(&fakeBackend{}, nil)
	require.NoError(t, d.Ingest(context.Background(), "not a url", "2"))
	assert.Equal(t, fetcher.CustomFeedLabel, d.Snapshot().Overview.LastSource)
	assert.Equal(t, 2, d.Snapshot().Form.ItemCount)
}

func TestIngestUsesConfiguredCount(t *testing.T) {
	var got []int
	be := &fakeBackend{ingest: func(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
		got = append(got, req.MaxItems)
		return &types.IngestResponse{}, nil
	}}
	d := New(be, nil, WithItemCount(7))
	assert.Equal(t, 7, d.Snapshot().Form.ItemCount)

	require.NoError(t, d.Ingest(context.Background(), "https://feeds.example.com/rss", ""))
	require.NoError(t, d.Ingest(context.Background(), "https://feeds.example.com/rss", "0"))
	require.NoError(t, d.Ingest(context.Background(), "https://feeds.example.com/rss", "2"))
	require.NoError(t, d.Ingest(context.Background(), "https://feeds.example.com/rss", ""))
	assert.Equal(t, []int{7, 7, 2, 7}, got)

	d = New(be, nil)
	require.NoError(t, d.Ingest(context.Background(), "https://feeds.example.com/rss", ""))
	assert.Equal(t, fetcher.DefaultItemCount, got[len(got)-1])
}

func TestIngestFailure(t *testing.T) {
	be := &fakeBackend{
		ingest: func(ctx context.Context, req types.IngestRequest) (*types.IngestResponse, error) {
			return nil, &fetcher.Error{Kind: fetcher.KindHTTP, Op: fetcher.OpIngest, Status: 400, Detail: "Feed has no entries"}
		},
	}
	d := New(be, nil)

	require.Error(t, d.Ingest(context.Background(), "https://x.example/rss", ""))
	line := d.Board().Line(status.RegionOverview)
	assert.Equal(t, "Error during ingestion: Feed has no entries", line.Message)
	assert.True(t, line.IsError)
	assert.Equal(t, 0, be.count(fetcher.OpReports))
	assert.Equal(t, view.NoSource, d.Snapshot().Overview.LastSource)
}

func TestLoadReportsEmpty(t *testing.T) {
	d := New(&fakeBackend{}, nil)
	require.NoError(t, d.LoadReports(context.Background()))

	snap := d.Snapshot()
	assert.True(t, snap.ReportsLoaded)
	assert.Empty(t, snap.Reports)
	assert.Equal(t, MsgNoReports, d.Board().Line(status.RegionOverview).Message)
	assert.Equal(t, view.NoSource, snap.Overview.LastSource)
}

func TestLoadReportsCountFromBackend(t *testing.T) {
	total := 40
	be := &fakeBackend{reports: func(ctx context.Context) (*types.ReportList, error) {
		l := twoReports()
		l.Count = &total
		return l, nil
	}}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))
	assert.Equal(t, 40, d.Snapshot().Overview.TotalReports)
	assert.Equal(t, "thehackernews.com", d.Snapshot().Overview.LastSource)
}

func TestLoadReportsFailureKeepsCards(t *testing.T) {
	fail := false
	be := &fakeBackend{reports: func(ctx context.Context) (*types.ReportList, error) {
		if fail {
			return nil, httpErr(fetcher.OpReports, 503)
		}
		return twoReports(), nil
	}}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))
	before := d.Snapshot().Reports

	fail = true
	require.Error(t, d.LoadReports(context.Background()))

	assert.Equal(t, before, d.Snapshot().Reports)
	line := d.Board().Line(status.RegionOverview)
	assert.Equal(t, "Error loading reports: HTTP 503", line.Message)
	assert.True(t, line.IsError)
}

func TestStaleReportsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	var n int32
	be := &fakeBackend{reports: func(ctx context.Context) (*types.ReportList, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			close(slowStarted)
			<-releaseSlow
			// the first request ignores cancellation and answers late
			return &types.ReportList{Items: []types.Report{{ID: 99, Title: "stale"}}}, nil
		}
		return twoReports(), nil
	}}
	d := New(be, nil)

	done := make(chan error, 1)
	go func() { done <- d.LoadReports(context.Background()) }()
	<-slowStarted

	require.NoError(t, d.LoadReports(context.Background()))
	close(releaseSlow)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	snap := d.Snapshot()
	require.Len(t, snap.Reports, 2)
	assert.Equal(t, "one", snap.Reports[0].Title)
	assert.Equal(t, "Loaded 2 reports from local database.", d.Board().Line(status.RegionOverview).Message)
}

func TestSupersededRequestIsCancelled(t *testing.T) {
	started := make(chan struct{})
	var n int32
	be := &fakeBackend{cve: func(ctx context.Context, id string) (*types.CVEResult, error) {
		if atomic.AddInt32(&n, 1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &types.CVEResult{CVEID: id}, nil
	}}
	d := New(be, nil)

	done := make(chan error, 1)
	go func() { done <- d.AnalyzeCVE(context.Background(), "CVE-2020-0001") }()
	<-started

	require.NoError(t, d.AnalyzeCVE(context.Background(), "CVE-2024-3094"))
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, "CVE-2024-3094", d.Snapshot().CVE.Result.CVEID)
	assert.Equal(t, MsgCVELoaded, d.Board().Line(status.RegionCVE).Message)
}

func TestToggleDetailsFetchesOnce(t *testing.T) {
	be := &fakeBackend{
		reports: func(ctx context.Context) (*types.ReportList, error) { return twoReports(), nil },
		report: func(ctx context.Context, id int64) (*types.ReportDetail, error) {
			return &types.ReportDetail{Report: types.Report{ID: id}, IOCs: &types.IOCSet{IPs: []string{"1.2.3.4"}}}, nil
		},
	}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))

	e, err := d.ToggleDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, e.Open)
	assert.Equal(t, view.Loaded, e.State)

	e, err = d.ToggleDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, e.Open)

	e, err = d.ToggleDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, e.Open)
	assert.Equal(t, 1, be.count(fetcher.OpReport))

	card := render.NewCard(d.Snapshot().Reports[0], d.Snapshot().Detail(1))
	assert.Equal(t, render.ToggleOpenLabel, card.Toggle)
	require.Len(t, card.Details.IOCs, 1)

	// a reload drops the cache
	require.NoError(t, d.LoadReports(context.Background()))
	_, err = d.ToggleDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, be.count(fetcher.OpReport))
}

func TestToggleDetailsFailureRetries(t *testing.T) {
	fail := true
	be := &fakeBackend{
		reports: func(ctx context.Context) (*types.ReportList, error) { return twoReports(), nil },
		report: func(ctx context.Context, id int64) (*types.ReportDetail, error) {
			if fail {
				return nil, httpErr(fetcher.OpReport, 500)
			}
			return &types.ReportDetail{Report: types.Report{ID: id}}, nil
		},
	}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))

	e, err := d.ToggleDetails(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, e.Open)
	assert.Equal(t, view.Failed, e.State)
	assert.Equal(t, "Failed to load analysis: HTTP 500", e.Err)

	_, _ = d.ToggleDetails(context.Background(), 2) // close
	fail = false
	e, err = d.ToggleDetails(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, view.Loaded, e.State)
	assert.Equal(t, 2, be.count(fetcher.OpReport))
}

func TestToggleDetailsDuringReload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var n int32
	be := &fakeBackend{
		reports: func(ctx context.Context) (*types.ReportList, error) { return twoReports(), nil },
		report: func(ctx context.Context, id int64) (*types.ReportDetail, error) {
			if atomic.AddInt32(&n, 1) == 1 {
				close(started)
				<-release
			}
			return &types.ReportDetail{Report: types.Report{ID: id}}, nil
		},
	}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))

	type result struct {
		e   view.DetailEntry
		err error
	}
	done := make(chan result, 1)
	go func() {
		e, err := d.ToggleDetails(context.Background(), 1)
		done <- result{e, err}
	}()
	<-started
	require.NoError(t, d.LoadReports(context.Background()))
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.e.Open)
	assert.Equal(t, view.Loaded, res.e.State)
	assert.Equal(t, 2, be.count(fetcher.OpReport))
	assert.Equal(t, view.Loaded, d.Snapshot().Detail(1).State)

	e, err := d.ToggleDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, e.Open)
}

func TestToggleDetailsCardGoneAfterReload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var reloads int32
	be := &fakeBackend{
		reports: func(ctx context.Context) (*types.ReportList, error) {
			if atomic.AddInt32(&reloads, 1) == 1 {
				return twoReports(), nil
			}
			return &types.ReportList{Items: []types.Report{{ID: 2, Title: "two"}}}, nil
		},
		report: func(ctx context.Context, id int64) (*types.ReportDetail, error) {
			close(started)
			<-release
			return &types.ReportDetail{Report: types.Report{ID: id}}, nil
		},
	}
	d := New(be, nil)
	require.NoError(t, d.LoadReports(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := d.ToggleDetails(context.Background(), 1)
		done <- err
	}()
	<-started
	require.NoError(t, d.LoadReports(context.Background()))
	close(release)

	assert.ErrorIs(t, <-done, ErrUnknownCard)
	assert.Empty(t, d.Snapshot().Details)
}

func TestToggleUnknownCard(t *testing.T) {
	d := New(&fakeBackend{}, nil)
	_, err := d.ToggleDetails(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUnknownCard)
}

func TestAnalyzeCVEBadIDNoCall(t *testing.T) {
	for _, id := range []string{"", "   ", "2024-3094", "cv-2024-1"} {
		be := &fakeBackend{}
		d := New(be, nil)
		err := d.AnalyzeCVE(context.Background(), id)
		assert.True(t, fetcher.IsKind(err, fetcher.KindValidation), id)
		assert.Equal(t, 0, be.count(fetcher.OpCVE), id)
		assert.Equal(t, fetcher.MsgBadCVEID, d.Board().Line(status.RegionCVE).Message)
	}
}

func TestAnalyzeCVE(t *testing.T) {
	var asked string
	be := &fakeBackend{cve: func(ctx context.Context, id string) (*types.CVEResult, error) {
		asked = id
		return &types.CVEResult{CVEID: id, Details: types.CVEDetails{Severity: "HIGH"}}, nil
	}}
	d := New(be, nil)

	require.NoError(t, d.AnalyzeCVE(context.Background(), " cve-2024-3094 "))
	assert.Equal(t, "CVE-2024-3094", asked)
	card := render.NewCVECard(d.Snapshot().CVE)
	assert.Equal(t, "sev-high", card.Class)
	assert.Equal(t, render.EmptyExplanation, card.Explanation)
	assert.Equal(t, MsgCVELoaded, d.Board().Line(status.RegionCVE).Message)
}

func TestAnalyzeCVEFailureClearsPanel(t *testing.T) {
	fail := false
	be := &fakeBackend{cve: func(ctx context.Context, id string) (*types.CVEResult, error) {
		if fail {
			return nil, &fetcher.Error{Kind: fetcher.KindHTTP, Op: fetcher.OpCVE, Status: 404, Detail: "CVE not found"}
		}
		return &types.CVEResult{CVEID: id, AIExplanation: "x"}, nil
	}}
	d := New(be, nil)
	require.NoError(t, d.AnalyzeCVE(context.Background(), "CVE-2024-3094"))

	fail = true
	require.Error(t, d.AnalyzeCVE(context.Background(), "CVE-1999-0001"))
	panel := d.Snapshot().CVE
	assert.Nil(t, panel.Result)
	assert.Equal(t, render.NoExplanation, panel.Explanation)
	line := d.Board().Line(status.RegionCVE)
	assert.Equal(t, "Error analyzing CVE: CVE not found", line.Message)
	assert.True(t, line.IsError)
}

func TestVoice(t *testing.T) {
	var asked string
	be := &fakeBackend{voice: func(ctx context.Context, q string) (*types.VoiceResponse, error) {
		asked = q
		return &types.VoiceResponse{Response: "3 new reports"}, nil
	}}
	d := New(be, nil)
	assert.Equal(t, voice.MsgPrompt, d.Board().Line(status.RegionVoice).Message)

	s, err := d.Voice(context.Background(), voice.Transcript("what's new"))
	require.NoError(t, err)
	assert.Equal(t, "what's new", asked)
	assert.Equal(t, "3 new reports", s.Response)

	v := d.Snapshot().Voice
	assert.Equal(t, "what's new", v.Transcript)
	assert.Equal(t, "3 new reports", v.Response)
	assert.Equal(t, string(voice.Idle), v.Phase)
	assert.Equal(t, voice.MsgReady, d.Board().Line(status.RegionVoice).Message)

	_, err = d.Voice(context.Background(), nil)
	assert.ErrorIs(t, err, voice.ErrUnsupported)
	assert.Equal(t, voice.MsgUnsupported, d.Board().Line(status.RegionVoice).Message)
	assert.Equal(t, 1, be.count(fetcher.OpVoiceQuery))
}

func TestNavigate(t *testing.T) {
	d := New(&fakeBackend{}, nil, WithSection(view.SectionCVE))
	assert.Equal(t, view.SectionCVE, d.Snapshot().Section)

	require.NoError(t, d.Navigate(view.SectionVoice))
	assert.Equal(t, view.SectionVoice, d.Snapshot().Section)

	assert.ErrorIs(t, d.Navigate("admin"), view.ErrUnknownSection)
	assert.Equal(t, view.SectionVoice, d.Snapshot().Section)
}

func TestPresetsAndListeners(t *testing.T) {
	d := New(&fakeBackend{}, nil,
		WithFeeds([]model.Feed{{Name: "CISA Advisories", URL: "https://www.cisa.gov/cybersecurity-advisories/all.xml"}}),
		WithItemCount(5),
	)
	var changes int32
	d.OnChange(func() { atomic.AddInt32(&changes, 1) })

	f, err := d.ApplyPreset("cisa advisories")
	require.NoError(t, err)
	assert.Equal(t, f.URL, d.Snapshot().Form.FeedURL)
	assert.Equal(t, 5, d.Snapshot().Form.ItemCount)

	_, err = d.ApplyPreset("nope")
	assert.True(t, errors.Is(err, ErrUnknownFeed))

	d.SetFeeds(nil)
	assert.Empty(t, d.Feeds())
	assert.Equal(t, int32(2), atomic.LoadInt32(&changes))
}

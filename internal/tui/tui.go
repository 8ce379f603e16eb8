// Package tui is the terminal front end of the dashboard. It draws the same
// view state as the web page with termui and drives the dashboard from the
// keyboard.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/dashboard"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/version"
)

type HeaderStruct struct {
	Color   string
	Version string
	Content string
}

var Header = &HeaderStruct{
	Color:   util.Cyan,
	Version: version.Version(),
	Content: AsciiArt(),
}

func AsciiArt() string {
	return `
▀█▀ █ █ █▀█ █▀▀ ▄▀█ ▀█▀ █▀▄ ▄▀█ █▀ █ █
 █  █▀█ █▀▄ ██▄ █▀█  █  █▄▀ █▀█ ▄█ █▀█
%s`
}

// Should be used in conjunction with the util package for proper formatting
func (h *HeaderStruct) ColorHeader(color string) string {
	return util.ColorF(color, h.Content, h.Version)
}

func (h *HeaderStruct) PrintHeader() {
	if h.Color != "" {
		fmt.Println(h.ColorHeader(h.Color))
	} else {
		fmt.Printf(h.Content+"\n", h.Version)
	}
}

// Tui owns the termui widgets. All drawing happens on the goroutine that
// called Run; backend calls run in their own goroutines and request a redraw.
type Tui struct {
	dash *dashboard.Dashboard
	cfg  *config.Cfg
	ctx  context.Context

	tabs     *widgets.TabPane
	clock    *widgets.Paragraph
	stats    *widgets.Paragraph
	status   *widgets.Paragraph
	input    *widgets.Paragraph
	reports  *widgets.List
	details  *widgets.Paragraph
	cve      *widgets.Paragraph
	voice    *widgets.Paragraph
	settings *widgets.Paragraph
	help     *widgets.Paragraph

	in     Input
	count  int
	preset int
	redraw chan struct{}
}

func NewTui(cfg *config.Cfg, dash *dashboard.Dashboard) *Tui {
	snap := dash.Snapshot()
	labels := make([]string, 0, len(snap.Sections))
	for _, key := range snap.Sections {
		labels = append(labels, render.SectionLabels[key])
	}

	t := &Tui{
		dash:     dash,
		cfg:      cfg,
		ctx:      context.Background(),
		tabs:     widgets.NewTabPane(labels...),
		clock:    widgets.NewParagraph(),
		stats:    widgets.NewParagraph(),
		status:   widgets.NewParagraph(),
		input:    widgets.NewParagraph(),
		reports:  widgets.NewList(),
		details:  widgets.NewParagraph(),
		cve:      widgets.NewParagraph(),
		voice:    widgets.NewParagraph(),
		settings: widgets.NewParagraph(),
		help:     widgets.NewParagraph(),
		count:    snap.Form.ItemCount,
		redraw:   make(chan struct{}, 1),
	}

	t.tabs.ActiveTabStyle = ui.NewStyle(ui.ColorCyan, ui.ColorClear, ui.ModifierBold)
	t.tabs.BorderStyle.Fg = ui.ColorCyan
	t.clock.BorderStyle.Fg = ui.ColorCyan
	t.stats.Title = "Overview"
	t.status.Title = "Status"
	t.reports.Title = "Reports"
	t.reports.SelectedRowStyle = ui.NewStyle(ui.ColorBlack, ui.ColorCyan)
	t.reports.BorderStyle.Fg = ui.ColorGreen
	t.details.Title = "Analysis"
	t.cve.Title = "CVE Analyzer"
	t.voice.Title = "Voice Assistant"
	t.settings.Title = "Settings"
	t.help.Border = false
	t.help.TextStyle.Fg = ui.ColorWhite
	return t
}

// Run draws the dashboard until q or ctx ends.
func (t *Tui) Run(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("failed to initialize termui: %w", err)
	}
	defer ui.Close()

	// console helpers would scribble over the screen
	util.SetOutput(io.Discard)
	defer util.SetOutput(os.Stdout)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.ctx = ctx

	t.dash.OnChange(t.requestRedraw)
	t.dash.Board().AddSink(status.SinkFunc(func(status.Line) { t.requestRedraw() }))
	t.start(t.dash.LoadReports)
	t.draw()

	events := ui.PollEvents()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch e.Type {
			case ui.ResizeEvent:
				ui.Clear()
			case ui.KeyboardEvent:
				if t.handleKey(e.ID) {
					return nil
				}
			default:
				continue
			}
			t.draw()
		case <-t.redraw:
			t.draw()
		case now := <-tick.C:
			t.clock.Text = render.Clock(now)
			ui.Render(t.clock)
		}
	}
}

func (t *Tui) requestRedraw() {
	select {
	case t.redraw <- struct{}{}:
	default:
	}
}

// start runs a dashboard operation off the draw loop. Failures already
// show in the status lines.
func (t *Tui) start(op func(context.Context) error) {
	ctx := t.ctx
	go func() { _ = op(ctx) }()
}

// handleKey returns true when the user quits.
func (t *Tui) handleKey(id string) bool {
	if t.in.Editing() {
		t.editKey(id)
		return false
	}

	snap := t.dash.Snapshot()
	switch id {
	case "q", "<C-c>":
		return true
	case "<Tab>":
		next := (indexOf(snap.Sections, snap.Section) + 1) % len(snap.Sections)
		_ = t.dash.Navigate(snap.Sections[next])
		return false
	case "1", "2", "3", "4":
		if i, _ := strconv.Atoi(id); i <= len(snap.Sections) {
			_ = t.dash.Navigate(snap.Sections[i-1])
		}
		return false
	}

	switch snap.Section {
	case view.SectionOverview:
		t.overviewKey(id, snap)
	case view.SectionCVE:
		if id == "i" || id == "<Enter>" {
			t.in.Start(EditCVE, snap.Form.CVEID)
		}
	case view.SectionVoice:
		if id == "i" || id == "<Enter>" {
			t.in.Start(EditVoice, "")
		}
	}
	return false
}

func (t *Tui) overviewKey(id string, snap view.Snapshot) {
	switch id {
	case "r":
		t.start(t.dash.LoadReports)
	case "i":
		t.in.Start(EditFeed, snap.Form.FeedURL)
	case "p":
		feeds := t.dash.Feeds()
		if len(feeds) > 0 {
			_, _ = t.dash.ApplyPreset(feeds[t.preset%len(feeds)].Name)
			t.preset++
		}
	case "+":
		t.count++
	case "-":
		if t.count > 1 {
			t.count--
		}
	case "j", "<Down>":
		t.reports.ScrollDown()
	case "k", "<Up>":
		t.reports.ScrollUp()
	case "<Enter>", "<Space>":
		if sel := t.reports.SelectedRow; sel >= 0 && sel < len(snap.Reports) {
			id := snap.Reports[sel].ID
			t.start(func(ctx context.Context) error {
				_, err := t.dash.ToggleDetails(ctx, id)
				return err
			})
		}
	}
}

func (t *Tui) editKey(id string) {
	switch t.in.Key(id) {
	case ActionCancel:
		t.in.Reset()
	case ActionSubmit:
		mode, text := t.in.Mode, t.in.Text()
		t.in.Reset()
		switch mode {
		case EditFeed:
			count := strconv.Itoa(t.count)
			t.start(func(ctx context.Context) error { return t.dash.Ingest(ctx, text, count) })
		case EditCVE:
			t.start(func(ctx context.Context) error { return t.dash.AnalyzeCVE(ctx, text) })
		case EditVoice:
			t.start(func(ctx context.Context) error {
				_, err := t.dash.Voice(ctx, voice.Transcript(text))
				return err
			})
		}
	}
}

func (t *Tui) draw() {
	snap := t.dash.Snapshot()
	w, h := ui.TerminalDimensions()
	section := snap.Section

	t.tabs.ActiveTabIndex = indexOf(snap.Sections, section)
	t.tabs.SetRect(0, 0, w-30, 3)
	t.clock.Text = render.Clock(time.Now())
	t.clock.SetRect(w-30, 0, w, 3)
	t.help.Text = helpText(section, t.in.Editing())
	t.help.SetRect(0, h-1, w, h)

	board := t.dash.Board()
	items := []ui.Drawable{t.tabs, t.clock, t.help}

	switch section {
	case view.SectionOverview:
		cards := render.Cards(snap)
		t.stats.Text = statsText(snap.Overview)
		t.stats.SetRect(0, 3, w, 6)
		t.status.Text = statusText(board.Line(status.RegionOverview))
		t.status.SetRect(0, 6, w, 9)
		t.input.Title = "Ingest"
		t.input.Text = t.inputText(EditFeed, fmt.Sprintf("Feed URL: %s   Count: %d", snap.Form.FeedURL, t.count))
		t.input.SetRect(0, 9, w, 12)

		t.reports.SetRect(0, 12, w/2, h-1)
		t.reports.Rows = make([]string, 0, len(cards))
		for _, c := range cards {
			t.reports.Rows = append(t.reports.Rows, reportRow(c, w/2-4))
		}
		if len(cards) == 0 {
			t.reports.Rows = []string{render.NoReports}
		}
		if t.reports.SelectedRow >= len(t.reports.Rows) {
			t.reports.SelectedRow = len(t.reports.Rows) - 1
		}

		t.details.SetRect(w/2, 12, w, h-1)
		t.details.Text = ""
		if sel := t.reports.SelectedRow; sel >= 0 && sel < len(cards) {
			t.details.Text = detailText(cards[sel])
		}
		items = append(items, t.stats, t.status, t.input, t.reports, t.details)

	case view.SectionCVE:
		t.input.Title = "Lookup"
		t.input.Text = t.inputText(EditCVE, "CVE ID: "+snap.Form.CVEID)
		t.input.SetRect(0, 3, w, 6)
		t.status.Text = statusText(board.Line(status.RegionCVE))
		t.status.SetRect(0, 6, w, 9)
		t.cve.Text = cveText(render.NewCVECard(snap.CVE))
		t.cve.SetRect(0, 9, w, h-1)
		items = append(items, t.input, t.status, t.cve)

	case view.SectionVoice:
		t.input.Title = "Query"
		t.input.Text = t.inputText(EditVoice, "Press i to speak (type) a question")
		t.input.SetRect(0, 3, w, 6)
		t.status.Text = statusText(board.Line(status.RegionVoice))
		t.status.SetRect(0, 6, w, 9)
		t.voice.Text = voiceText(snap.Voice)
		t.voice.SetRect(0, 9, w, h-1)
		items = append(items, t.input, t.status, t.voice)

	case view.SectionSettings:
		t.settings.Text = settingsText(t.cfg.Backend.URL, t.cfg.Backend.Timeout, t.dash.Feeds())
		t.settings.SetRect(0, 3, w, h-1)
		items = append(items, t.settings)
	}

	ui.Clear()
	ui.Render(items...)
}

func (t *Tui) inputText(mode Mode, idle string) string {
	if t.in.Mode != mode {
		return escape(idle)
	}
	return fmt.Sprintf("%s: %s▏", mode.Prompt(), escape(t.in.Text()))
}

func helpText(section string, editing bool) string {
	if editing {
		return "Enter submit · Esc cancel · C-u clear"
	}
	common := "Tab/1-4 section · q quit"
	switch section {
	case view.SectionOverview:
		return "i feed url · p preset · +/- count · r refresh · j/k select · Enter analysis · " + common
	case view.SectionCVE:
		return "i enter CVE id · " + common
	case view.SectionVoice:
		return "i ask a question · " + common
	}
	return common
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return 0
}

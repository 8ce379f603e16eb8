// Package render turns view snapshots into HTML. Templates are embedded and
// run through html/template, so every interpolated value is escaped for its
// context and links are sanitized.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// SectionLabels are the navigation captions.
var SectionLabels = map[string]string{
	view.SectionOverview: "Overview",
	view.SectionCVE:      "CVE Analyzer",
	view.SectionVoice:    "Voice Assistant",
	view.SectionSettings: "Settings",
}

// NavItem is one navigation button.
type NavItem struct {
	Key    string
	Label  string
	Active bool
}

// Page is everything the full page template needs.
type Page struct {
	Version  string
	Clock    string
	Backend  string
	Timeout  string
	Section  string
	Nav      []NavItem
	Overview view.Overview
	Form     view.Form
	Feeds    []model.Feed
	Status   []status.Line
	Cards    []Card
	CVE      CVECard
	Voice    view.VoicePanel
	Mic      MicText
}

// MicText is the status text the browser shows while it captures speech
// itself, before anything reaches the server.
type MicText struct {
	Listening  string
	CaptureErr string
	Prompt     string
}

// IsActive reports whether key is the visible section.
func (p Page) IsActive(key string) bool { return p.Section == key }

// NewPage prepares a snapshot for the page template.
func NewPage(snap view.Snapshot, lines []status.Line, feeds []model.Feed, now time.Time) Page {
	nav := make([]NavItem, 0, len(snap.Sections))
	for _, key := range snap.Sections {
		label, ok := SectionLabels[key]
		if !ok {
			label = key
		}
		nav = append(nav, NavItem{Key: key, Label: label, Active: key == snap.Section})
	}
	return Page{
		Clock:    Clock(now),
		Section:  snap.Section,
		Nav:      nav,
		Overview: snap.Overview,
		Form:     snap.Form,
		Feeds:    feeds,
		Status:   lines,
		Cards:    Cards(snap),
		CVE:      NewCVECard(snap.CVE),
		Voice:    snap.Voice,
	}
}

// Clock formats the header clock.
func Clock(now time.Time) string {
	return ClockPrefix + now.Format(ClockLayout)
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"noReports":       func() string { return NoReports },
		"noTechniques":    func() string { return NoTechniques },
		"noIOCs":          func() string { return NoIOCs },
		"noEntities":      func() string { return NoEntities },
		"loadingAnalysis": func() string { return LoadingAnalysis },
		"status":          lineFor,
	}
	tmpl, err := template.New("threatdash").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New for package level initialisation.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

// Reports writes the report list fragment.
func (r *Renderer) Reports(w io.Writer, snap view.Snapshot) error {
	return r.tmpl.ExecuteTemplate(w, "reports", Cards(snap))
}

// Card writes a single card fragment.
func (r *Renderer) Card(w io.Writer, c Card) error {
	return r.tmpl.ExecuteTemplate(w, "card", c)
}

// Overview writes the summary cards.
func (r *Renderer) Overview(w io.Writer, o view.Overview) error {
	return r.tmpl.ExecuteTemplate(w, "overview", o)
}

// CVE writes the CVE panel.
func (r *Renderer) CVE(w io.Writer, p view.CVEPanel) error {
	return r.tmpl.ExecuteTemplate(w, "cve", NewCVECard(p))
}

// Voice writes the voice panel.
func (r *Renderer) Voice(w io.Writer, v view.VoicePanel) error {
	return r.tmpl.ExecuteTemplate(w, "voice", v)
}

// Status writes one status line.
func (r *Renderer) Status(w io.Writer, l status.Line) error {
	return r.tmpl.ExecuteTemplate(w, "status", l)
}

func lineFor(lines []status.Line, region string) status.Line {
	for _, l := range lines {
		if string(l.Region) == region {
			return l
		}
	}
	return status.Line{Region: status.Region(region), Phase: status.PhaseIdle}
}

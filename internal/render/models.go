package render

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/pkg/types"
)

// Display fallbacks and placeholders, shared by every front end.
const (
	NoReports         = "No reports found. Ingest a feed to see AI-generated summaries here."
	UntitledReport    = "(untitled threat report)"
	NoSummary         = "No summary available."
	NoPublished       = "Published: N/A"
	NoTechniques      = "No MITRE techniques detected for this item."
	NoIOCs            = "No IOCs detected in this summary."
	NoEntities        = "No named entities recognised (spaCy NER)."
	NoDescription     = "No description available."
	NoExplanation     = "No explanation available."
	EmptyExplanation  = "AI model did not return an explanation."
	LoadingAnalysis   = "Loading analysis…"
	ToggleClosedLabel = "▶ Deep-dive NLP analysis"
	ToggleOpenLabel   = "▼ Hide deep-dive analysis"
	ClockPrefix       = "Local time: "
	ClockLayout       = "2006-01-02 15:04:05"
)

// Chip is one labelled value in the deep-dive panel.
type Chip struct {
	Label string
	Value string
	Kind  string
}

// Details is the deep-dive panel of a card.
type Details struct {
	State    view.LoadState
	Err      string
	IOCs     []Chip
	Entities []Chip
}

func (d Details) Loaded() bool { return d.State == view.Loaded }
func (d Details) Failed() bool { return d.State == view.Failed }

// Card is a report prepared for display.
type Card struct {
	ID         int64
	Title      string
	Summary    string
	Published  string
	Saved      string
	Link       string
	RawLink    string
	MitreCount int
	Techniques []string
	Open       bool
	Toggle     string
	Details    Details
}

// NewCard applies the display fallbacks to r.
func NewCard(r types.Report, e view.DetailEntry) Card {
	c := Card{
		ID:         r.ID,
		Title:      orDefault(r.Title, UntitledReport),
		Summary:    orDefault(r.Summary, NoSummary),
		Published:  orDefault(r.Published, NoPublished),
		Saved:      r.CreatedAt,
		Link:       SafeLink(r.Link),
		RawLink:    RawLink(r.ID),
		MitreCount: r.TechniqueCount(),
		Techniques: r.Techniques(),
		Open:       e.Open,
		Toggle:     ToggleClosedLabel,
		Details:    NewDetails(e),
	}
	if e.Open {
		c.Toggle = ToggleOpenLabel
	}
	return c
}

// NewDetails flattens a cache entry into chips.
func NewDetails(e view.DetailEntry) Details {
	d := Details{State: e.State, Err: e.Err}
	if e.State != view.Loaded || e.Detail == nil {
		return d
	}
	for _, g := range e.Detail.IOCs.Groups() {
		for _, v := range g.Values {
			d.IOCs = append(d.IOCs, Chip{Label: g.Label, Value: v, Kind: g.Kind})
		}
	}
	labels := make([]string, 0, len(e.Detail.Entities))
	for label := range e.Detail.Entities {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		for _, v := range e.Detail.Entities[label] {
			d.Entities = append(d.Entities, Chip{Label: label, Value: v})
		}
	}
	return d
}

// Cards prepares every report of a snapshot.
func Cards(snap view.Snapshot) []Card {
	cards := make([]Card, 0, len(snap.Reports))
	for _, r := range snap.Reports {
		cards = append(cards, NewCard(r, snap.Detail(r.ID)))
	}
	return cards
}

// CVECard is the CVE panel prepared for display.
type CVECard struct {
	Visible     bool
	HasResult   bool
	ID          string
	Description string
	Severity    string
	Class       string
	Tier        types.Severity
	Score       string
	Vector      string
	Published   string
	Updated     string
	Explanation string
}

// NewCVECard applies the display fallbacks to the CVE panel.
func NewCVECard(p view.CVEPanel) CVECard {
	c := CVECard{Visible: p.Visible, Explanation: p.Explanation}
	if p.Result == nil {
		return c
	}
	d := p.Result.Details
	tier := d.Tier()
	c.HasResult = true
	c.ID = p.Result.DisplayID()
	c.Description = orDefault(d.Description, NoDescription)
	c.Severity = types.OrNA(d.Severity)
	c.Tier = tier
	c.Class = tier.Class()
	c.Score = d.Score.String()
	c.Vector = types.OrNA(d.Vector)
	c.Published = types.OrNA(d.Published)
	c.Updated = types.OrNA(d.Updated)
	c.Explanation = orDefault(p.Result.AIExplanation, EmptyExplanation)
	return c
}

// SafeLink passes http(s) links through and turns everything else into "#".
func SafeLink(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if raw == "" || err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return "#"
}

// RawLink is the backend path of a report's raw record.
func RawLink(id int64) string {
	return "/report/" + strconv.FormatInt(id, 10)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

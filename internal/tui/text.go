package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/pkg/model"
	"github.com/pynezz/threatdash/pkg/types"
)

// escape keeps backend text from being parsed as termui style markup,
// which has the form [text](fg:red).
func escape(s string) string {
	return strings.ReplaceAll(s, "](", "] (")
}

// styled wraps text in termui markup.
func styled(text, style string) string {
	return "[" + escape(text) + "](" + style + ")"
}

// truncate cuts s to width display cells, counting wide runes twice.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// oneLine collapses newlines and runs of spaces.
func oneLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func reportRow(c render.Card, width int) string {
	prefix := fmt.Sprintf("%s MITRE %-2d ", toggleMark(c.Open), c.MitreCount)
	return prefix + truncate(oneLine(c.Title), width-runewidth.StringWidth(prefix))
}

func toggleMark(open bool) string {
	if open {
		return "▼"
	}
	return "▶"
}

func statsText(o view.Overview) string {
	return fmt.Sprintf("Reports in database: %s   Last source: %s   MITRE techniques (last batch): %s",
		styled(fmt.Sprint(o.TotalReports), "fg:cyan,mod:bold"),
		styled(o.LastSource, "fg:cyan,mod:bold"),
		styled(fmt.Sprint(o.LastMitreCount), "fg:cyan,mod:bold"))
}

func statusText(l status.Line) string {
	if l.Message == "" {
		return ""
	}
	switch l.Phase {
	case status.PhaseError:
		return styled(l.Message, "fg:red")
	case status.PhaseSuccess:
		return styled(l.Message, "fg:green")
	case status.PhaseInProgress:
		return styled(l.Message, "fg:yellow")
	}
	return escape(l.Message)
}

// detailText is the right hand pane of the overview: the selected report and,
// once opened, its deep-dive analysis.
func detailText(c render.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styled(c.Title, "mod:bold"))
	fmt.Fprintf(&b, "%s   Saved: %s\n\n", escape(c.Published), escape(c.Saved))
	fmt.Fprintf(&b, "%s %s\n\n", styled("AI Summary:", "mod:bold"), escape(c.Summary))

	fmt.Fprintf(&b, "%s %d\n", styled("MITRE:", "mod:bold"), c.MitreCount)
	if len(c.Techniques) == 0 {
		fmt.Fprintf(&b, "  %s\n", render.NoTechniques)
	}
	for _, t := range c.Techniques {
		fmt.Fprintf(&b, "  %s\n", styled(t, "fg:magenta"))
	}
	fmt.Fprintf(&b, "\nOriginal: %s\nRaw JSON: %s\n\n", escape(c.Link), c.RawLink)

	fmt.Fprintf(&b, "%s\n", styled(c.Toggle, "fg:cyan"))
	if !c.Open {
		return b.String()
	}
	switch {
	case c.Details.Failed():
		b.WriteString(styled(c.Details.Err, "fg:red") + "\n")
	case !c.Details.Loaded():
		b.WriteString(render.LoadingAnalysis + "\n")
	default:
		b.WriteString(chipBlock("Indicators of Compromise (IOCs)", c.Details.IOCs, render.NoIOCs))
		b.WriteString(chipBlock("Named Entities (spaCy NER)", c.Details.Entities, render.NoEntities))
	}
	return b.String()
}

func chipBlock(title string, chips []render.Chip, empty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styled(title, "mod:underline"))
	if len(chips) == 0 {
		fmt.Fprintf(&b, "  %s\n", empty)
	}
	for _, c := range chips {
		fmt.Fprintf(&b, "  %s: %s\n", escape(c.Label), escape(c.Value))
	}
	return b.String()
}

func severityStyle(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "fg:red,mod:bold"
	case types.SeverityHigh:
		return "fg:red"
	case types.SeverityMedium:
		return "fg:yellow"
	default:
		return "fg:green"
	}
}

func cveText(c render.CVECard) string {
	if !c.Visible {
		return ""
	}
	var b strings.Builder
	if c.HasResult {
		fmt.Fprintf(&b, "%s\n%s\n\n", styled(c.ID, "mod:bold"), escape(c.Description))
		fmt.Fprintf(&b, "Severity: %s  CVSS: %s  Vector: %s\n",
			styled(c.Severity, severityStyle(c.Tier)), escape(c.Score), escape(c.Vector))
		fmt.Fprintf(&b, "Published: %s  Last Updated: %s\n\n", escape(c.Published), escape(c.Updated))
	}
	b.WriteString(escape(c.Explanation))
	return b.String()
}

func voiceText(v view.VoicePanel) string {
	return fmt.Sprintf("%s\n%s\n\n%s\n%s",
		styled("You said", "fg:cyan"), escape(v.Transcript),
		styled("Assistant", "fg:cyan"), escape(v.Response))
}

func settingsText(backend string, timeout int, feeds []model.Feed) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backend: %s\n", styled(backend, "fg:cyan"))
	if timeout > 0 {
		fmt.Fprintf(&b, "Request timeout: %ds\n", timeout)
	} else {
		b.WriteString("Request timeout: none\n")
	}
	b.WriteString("\nPreset feeds:\n")
	if len(feeds) == 0 {
		b.WriteString("  none configured\n")
	}
	for _, f := range feeds {
		fmt.Fprintf(&b, "  %s: %s\n", escape(f.Name), escape(f.URL))
	}
	return b.String()
}

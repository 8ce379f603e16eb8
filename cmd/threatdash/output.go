package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/types"
)

const tableWidth = 100

// reportTable lays the cards out one per line, padded by display width so
// wide titles keep the columns aligned.
func reportTable(cards []render.Card, width int) string {
	if len(cards) == 0 {
		return render.NoReports + "\n"
	}

	var b strings.Builder
	head := fmt.Sprintf("%-6s %-5s %-19s ", "ID", "MITRE", "SAVED")
	b.WriteString(head + "TITLE\n")
	titleWidth := width - runewidth.StringWidth(head)
	for _, c := range cards {
		fmt.Fprintf(&b, "%-6d %-5d %-19s %s\n", c.ID, c.MitreCount, runewidth.FillRight(c.Saved, 19),
			runewidth.Truncate(c.Title, titleWidth, "…"))
	}
	return b.String()
}

// reportMarkdown is the full deep-dive of one report.
func reportMarkdown(d *types.ReportDetail) string {
	card := render.NewCard(d.Report, detailEntry(d))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", card.Title)
	fmt.Fprintf(&b, "%s · Saved: %s · [original](%s)\n\n", card.Published, card.Saved, card.Link)
	fmt.Fprintf(&b, "**AI Summary:** %s\n\n", card.Summary)

	fmt.Fprintf(&b, "## MITRE ATT&CK (%d)\n\n", card.MitreCount)
	if len(card.Techniques) == 0 {
		fmt.Fprintf(&b, "%s\n", render.NoTechniques)
	}
	for _, t := range card.Techniques {
		fmt.Fprintf(&b, "- `%s`\n", t)
	}

	b.WriteString("\n## Indicators of Compromise (IOCs)\n\n")
	writeChips(&b, card.Details.IOCs, render.NoIOCs)
	b.WriteString("\n## Named Entities (spaCy NER)\n\n")
	writeChips(&b, card.Details.Entities, render.NoEntities)
	return b.String()
}

func writeChips(b *strings.Builder, chips []render.Chip, empty string) {
	if len(chips) == 0 {
		fmt.Fprintf(b, "%s\n", empty)
		return
	}
	for _, c := range chips {
		fmt.Fprintf(b, "- **%s:** `%s`\n", c.Label, c.Value)
	}
}

// cveMarkdown is the CVE card followed by the explanation.
func cveMarkdown(c render.CVECard) string {
	var b strings.Builder
	if c.HasResult {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", c.ID, c.Description)
		fmt.Fprintf(&b, "- **Severity:** %s\n- **CVSS:** %s\n- **Vector:** `%s`\n", c.Severity, c.Score, c.Vector)
		fmt.Fprintf(&b, "- **Published:** %s\n- **Last Updated:** %s\n\n", c.Published, c.Updated)
	}
	fmt.Fprintf(&b, "## AI explanation\n\n```\n%s\n```\n", strings.TrimRight(c.Explanation, "\n"))
	return b.String()
}

// markdown renders md for the terminal, or returns it as is when glamour
// cannot.
func markdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(tableWidth))
	if err != nil {
		util.PrintDebug("glamour: " + err.Error())
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		util.PrintDebug("glamour: " + err.Error())
		return md
	}
	return out
}

package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/pkg/model"
	"github.com/pynezz/threatdash/pkg/types"
)

func renderReports(t *testing.T, snap view.Snapshot) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, MustNew().Reports(&buf, snap))
	return buf.String()
}

func TestEmptyListRendersSinglePlaceholder(t *testing.T) {
	out := renderReports(t, view.Snapshot{})
	assert.Equal(t, 1, strings.Count(out, NoReports))
	assert.NotContains(t, out, "report-card")
}

func TestMissingMitreRendersZeroBadge(t *testing.T) {
	snap := view.Snapshot{Reports: []types.Report{
		{ID: 1, Title: "a"},
		{ID: 2, Title: "b", Mitre: &types.MitreMapping{}},
	}}
	out := renderReports(t, snap)
	assert.Equal(t, 2, strings.Count(out, "MITRE: <strong>0</strong>"))
	assert.Equal(t, 2, strings.Count(out, NoTechniques))
	assert.Equal(t, 2, strings.Count(out, `class="report-card"`))
}

func TestTextIsEscaped(t *testing.T) {
	snap := view.Snapshot{Reports: []types.Report{{
		ID:      1,
		Title:   `<script>alert('x')</script>`,
		Summary: `Tom & "Jerry"`,
		Link:    "javascript:alert(1)",
		Mitre:   &types.MitreMapping{Techniques: []string{"<b>T1059</b>"}},
	}}}
	out := renderReports(t, snap)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;")
	assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34;")
	assert.Contains(t, out, "&lt;b&gt;T1059&lt;/b&gt;")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `href="#"`)
}

func TestCardFallbacks(t *testing.T) {
	c := NewCard(types.Report{ID: 5, Link: "https://example.com/a"}, view.DetailEntry{})
	assert.Equal(t, UntitledReport, c.Title)
	assert.Equal(t, NoSummary, c.Summary)
	assert.Equal(t, NoPublished, c.Published)
	assert.Equal(t, "https://example.com/a", c.Link)
	assert.Equal(t, "/report/5", c.RawLink)
	assert.Equal(t, ToggleClosedLabel, c.Toggle)

	c = NewCard(types.Report{ID: 5}, view.DetailEntry{Open: true})
	assert.Equal(t, "#", c.Link)
	assert.Equal(t, ToggleOpenLabel, c.Toggle)
}

func TestDetailsChips(t *testing.T) {
	entry := view.DetailEntry{
		ID:    1,
		State: view.Loaded,
		Open:  true,
		Detail: &types.ReportDetail{
			IOCs: &types.IOCSet{IPs: []string{"10.0.0.1"}, SHA256: []string{"abc"}},
			Entities: map[string][]string{
				"ORG":    {"APT29"},
				"GPE":    {"Russia"},
				"PERSON": nil,
			},
		},
	}
	d := NewDetails(entry)
	require.Len(t, d.IOCs, 2)
	assert.Equal(t, Chip{Label: "IP", Value: "10.0.0.1", Kind: "danger"}, d.IOCs[0])
	assert.Equal(t, "SHA256", d.IOCs[1].Label)
	require.Len(t, d.Entities, 2)
	assert.Equal(t, "GPE", d.Entities[0].Label)

	snap := view.Snapshot{
		Reports: []types.Report{{ID: 1}},
		Details: map[int64]view.DetailEntry{1: entry},
	}
	out := renderReports(t, snap)
	assert.Contains(t, out, `<span class="chip danger">IP: 10.0.0.1</span>`)
	assert.Contains(t, out, "ORG: APT29")
	assert.NotContains(t, out, NoIOCs)
}

func TestDetailsPlaceholdersAndFailure(t *testing.T) {
	snap := view.Snapshot{
		Reports: []types.Report{{ID: 1}, {ID: 2}},
		Details: map[int64]view.DetailEntry{
			1: {ID: 1, State: view.Loaded, Open: true, Detail: &types.ReportDetail{}},
			2: {ID: 2, State: view.Failed, Open: true, Err: "Failed to load analysis: HTTP 500"},
		},
	}
	out := renderReports(t, snap)
	assert.Contains(t, out, NoIOCs)
	assert.Contains(t, out, NoEntities)
	assert.Contains(t, out, "Failed to load analysis: HTTP 500")
}

func TestClosedCardHasNoDetails(t *testing.T) {
	snap := view.Snapshot{
		Reports: []types.Report{{ID: 1}},
		Details: map[int64]view.DetailEntry{1: {ID: 1, State: view.Loaded, Detail: &types.ReportDetail{}}},
	}
	out := renderReports(t, snap)
	assert.NotContains(t, out, "details-1")
	assert.Contains(t, out, ToggleClosedLabel)
}

func TestCVECard(t *testing.T) {
	tests := []struct {
		severity string
		class    string
	}{
		{"CRITICAL", "sev-critical"},
		{"high", "sev-high"},
		{"Medium", "sev-medium"},
		{"weird", "sev-low"},
		{"", "sev-low"},
	}
	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			c := NewCVECard(view.CVEPanel{Visible: true, Result: &types.CVEResult{
				CVEID:   "CVE-2024-3094",
				Details: types.CVEDetails{Severity: tt.severity},
			}})
			assert.Equal(t, tt.class, c.Class)
		})
	}

	c := NewCVECard(view.CVEPanel{Visible: true, Result: &types.CVEResult{CVEID: "CVE-2024-3094"}})
	assert.Equal(t, "CVE-2024-3094", c.ID)
	assert.Equal(t, types.NotAvailable, c.Score)
	assert.Equal(t, types.NotAvailable, c.Vector)
	assert.Equal(t, types.NotAvailable, c.Severity)
	assert.Equal(t, NoDescription, c.Description)
	assert.Equal(t, EmptyExplanation, c.Explanation)

	c = NewCVECard(view.CVEPanel{Visible: true, Result: &types.CVEResult{
		Details: types.CVEDetails{ID: "CVE-2021-44228", Score: types.NewScore(10), Vector: "NETWORK"},
	}})
	assert.Equal(t, "CVE-2021-44228", c.ID)
	assert.Equal(t, "10", c.Score)
	assert.Equal(t, "NETWORK", c.Vector)
}

func TestCVEFragment(t *testing.T) {
	var buf bytes.Buffer
	r := MustNew()

	require.NoError(t, r.CVE(&buf, view.CVEPanel{Visible: true, Explanation: NoExplanation}))
	assert.Contains(t, buf.String(), NoExplanation)
	assert.NotContains(t, buf.String(), "cve-result-card")

	buf.Reset()
	require.NoError(t, r.CVE(&buf, view.CVEPanel{Visible: true, Result: &types.CVEResult{
		CVEID:         "CVE-2024-3094",
		Details:       types.CVEDetails{Severity: "CRITICAL", Score: types.TextScore("N/A")},
		AIExplanation: "xz backdoor",
	}}))
	out := buf.String()
	assert.Contains(t, out, `severity-pill sev-critical`)
	assert.Contains(t, out, "CVSS: <strong>N/A</strong>")
	assert.Contains(t, out, "xz backdoor")
}

func TestStatusFragment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MustNew().Status(&buf, status.Line{
		Region:  status.RegionOverview,
		Message: "Error loading reports: <boom>",
		IsError: true,
		Phase:   status.PhaseError,
	}))
	out := buf.String()
	assert.Contains(t, out, `id="status"`)
	assert.Contains(t, out, "status-text error")
	assert.Contains(t, out, "&lt;boom&gt;")
}

func TestPage(t *testing.T) {
	s := view.New(view.SectionCVE)
	s.SetReports([]types.Report{{ID: 1, Title: "xz", Link: "https://nvd.nist.gov/x"}}, 1)
	board := status.NewBoard()
	board.For(status.RegionCVE).Fail("Error analyzing CVE: HTTP 404")

	now := time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC)
	p := NewPage(s.Snapshot(), board.Lines(), []model.Feed{{Name: "CISA", URL: "https://cisa.gov/rss"}}, now)
	p.Version = "dev"

	var buf bytes.Buffer
	require.NoError(t, MustNew().Page(&buf, p))
	out := buf.String()

	assert.Contains(t, out, "Local time: 2024-03-29 12:00:00")
	assert.Contains(t, out, `id="section-cve" class="section active"`)
	assert.Contains(t, out, `id="section-overview" class="section"`)
	assert.Equal(t, 1, strings.Count(out, "nav-item active"))
	assert.Contains(t, out, "Error analyzing CVE: HTTP 404")
	assert.Contains(t, out, "nvd.nist.gov")
	assert.Contains(t, out, `<option value="CISA">CISA</option>`)
	assert.Equal(t, 1, strings.Count(out, `class="report-card"`))
}

func TestSafeLink(t *testing.T) {
	assert.Equal(t, "https://a.example/x?y=1", SafeLink(" https://a.example/x?y=1 "))
	assert.Equal(t, "#", SafeLink(""))
	assert.Equal(t, "#", SafeLink("data:text/html,hi"))
	assert.Equal(t, "#", SafeLink("JavaScript:alert(1)"))
}

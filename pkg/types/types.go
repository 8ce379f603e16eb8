package types

// Wire types for the threat-intel backend. The backend owns these records,
// the dashboard only displays them.

// MitreMapping is the MITRE ATT&CK block attached to a report.
type MitreMapping struct {
	Techniques      []string `json:"techniques,omitempty" yaml:"techniques,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty" yaml:"matched_keywords,omitempty"`
}

// Report is a single processed feed article as returned by /reports and /ingest.
type Report struct {
	ID        int64         `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	Link      string        `json:"link" yaml:"link"`
	Published string        `json:"published" yaml:"published"`
	Summary   string        `json:"summary" yaml:"summary"`
	RawText   string        `json:"raw_text,omitempty" yaml:"raw_text,omitempty"`
	CreatedAt string        `json:"created_at" yaml:"created_at"`
	Mitre     *MitreMapping `json:"mitre,omitempty" yaml:"mitre,omitempty"`
}

// TechniqueCount returns the number of mapped MITRE techniques, 0 when the
// mapping is missing.
func (r Report) TechniqueCount() int {
	if r.Mitre == nil {
		return 0
	}
	return len(r.Mitre.Techniques)
}

// Techniques returns the mapped techniques, never nil-dereferencing.
func (r Report) Techniques() []string {
	if r.Mitre == nil {
		return nil
	}
	return r.Mitre.Techniques
}

// IOCSet groups the indicators extracted from a report by kind.
type IOCSet struct {
	IPs     []string `json:"ips,omitempty" yaml:"ips,omitempty"`
	Domains []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	URLs    []string `json:"urls,omitempty" yaml:"urls,omitempty"`
	MD5     []string `json:"md5,omitempty" yaml:"md5,omitempty"`
	SHA1    []string `json:"sha1,omitempty" yaml:"sha1,omitempty"`
	SHA256  []string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

// IOCGroup is one labelled kind of indicator, e.g. "IP" or "SHA256".
type IOCGroup struct {
	Label  string
	Kind   string // chip style: danger, info or muted
	Values []string
}

// Groups returns the non-empty indicator groups in display order.
func (s *IOCSet) Groups() []IOCGroup {
	if s == nil {
		return nil
	}
	all := []IOCGroup{
		{Label: "IP", Kind: "danger", Values: s.IPs},
		{Label: "Domain", Kind: "info", Values: s.Domains},
		{Label: "URL", Kind: "info", Values: s.URLs},
		{Label: "MD5", Kind: "muted", Values: s.MD5},
		{Label: "SHA1", Kind: "muted", Values: s.SHA1},
		{Label: "SHA256", Kind: "muted", Values: s.SHA256},
	}

	groups := make([]IOCGroup, 0, len(all))
	for _, g := range all {
		if len(g.Values) == 0 {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

// ReportDetail is the full record served by /report/{id}.
type ReportDetail struct {
	Report
	IOCs     *IOCSet             `json:"iocs,omitempty" yaml:"iocs,omitempty"`
	Entities map[string][]string `json:"entities,omitempty" yaml:"entities,omitempty"`
}

// ReportList is the /reports response.
type ReportList struct {
	Count *int     `json:"count,omitempty"`
	Items []Report `json:"items"`
}

// Total returns count when the backend sent one, else the number of items.
func (l *ReportList) Total() int {
	if l == nil {
		return 0
	}
	if l.Count != nil {
		return *l.Count
	}
	return len(l.Items)
}

// IngestRequest is the /ingest body.
type IngestRequest struct {
	RSSURL   string `json:"rss_url"`
	MaxItems int    `json:"max_items"`
	Save     bool   `json:"save"`
}

// IngestResponse is the /ingest response.
type IngestResponse struct {
	Count int      `json:"count"`
	Items []Report `json:"items"`
}

// TechniqueTotal sums the MITRE techniques across the ingested batch.
func (r *IngestResponse) TechniqueTotal() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, item := range r.Items {
		total += item.TechniqueCount()
	}
	return total
}

// VoiceQuery is the /voice_query body.
type VoiceQuery struct {
	Query string `json:"query"`
}

// VoiceResponse is the /voice_query response.
type VoiceResponse struct {
	Response string `json:"response"`
}

// ErrorBody is the error payload the backend may attach to non-2xx responses.
type ErrorBody struct {
	Detail string `json:"detail"`
}

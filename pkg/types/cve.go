package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NotAvailable is shown for any missing CVE field.
const NotAvailable = "N/A"

// Score is a CVSS base score. The backend sends a number when NVD has one and
// the string "N/A" (or nothing) otherwise, so both shapes are accepted.
type Score struct {
	raw    string
	value  float64
	valid  bool
	number bool
}

// NewScore returns a numeric score.
func NewScore(v float64) Score {
	return Score{value: v, valid: true, number: true, raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// TextScore returns a score carrying a verbatim label such as "N/A".
func TextScore(s string) Score {
	return Score{raw: s}
}

// Value returns the numeric score and whether there is one.
func (s Score) Value() (float64, bool) {
	return s.value, s.valid
}

// String returns the score as the backend sent it, NotAvailable when absent.
func (s Score) String() string {
	if s.raw == "" {
		return NotAvailable
	}
	return s.raw
}

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Score{}
		return nil
	}

	if b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = TextScore(text)
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			s.value, s.valid = v, true
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Score{raw: string(b), value: v, valid: true, number: true}
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if s.number {
		return []byte(s.raw), nil
	}
	if s.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(s.raw)
}

// CVEDetails is the NVD-derived block of a CVE lookup.
type CVEDetails struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Score       Score  `json:"score"`
	Vector      string `json:"vector"`
	Published   string `json:"published"`
	Updated     string `json:"updated"`
}

// Tier maps the severity label to a display tier.
func (d CVEDetails) Tier() Severity {
	return ParseSeverity(d.Severity)
}

// CVEResult is the /cve/{id} response.
type CVEResult struct {
	CVEID         string     `json:"cve_id"`
	Details       CVEDetails `json:"details"`
	AIExplanation string     `json:"ai_explanation"`
}

// DisplayID prefers the id NVD reported, falling back to the requested one.
func (r *CVEResult) DisplayID() string {
	if r == nil {
		return ""
	}
	if r.Details.ID != "" {
		return r.Details.ID
	}
	return r.CVEID
}

// OrNA returns s, or NotAvailable when s is blank.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

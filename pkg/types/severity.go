package types

import "strings"

// Severity is the display tier of a CVE. It only drives styling, the label the
// backend sent is always shown verbatim.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	// SeverityLow is also the tier for missing or unrecognised labels.
	SeverityLow Severity = "low"
)

// ParseSeverity matches label case-insensitively against the known tiers.
func ParseSeverity(label string) Severity {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "CRITICAL":
		return SeverityCritical
	case "HIGH":
		return SeverityHigh
	case "MEDIUM":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Class returns the CSS class used by the severity pill.
func (s Severity) Class() string {
	return "sev-" + string(s)
}

func (s Severity) String() string {
	return string(s)
}

package fetcher

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// CVEPrefix is required (case-insensitive) on every CVE identifier.
	CVEPrefix = "CVE-"

	// DefaultItemCount is used when the item count cannot be parsed and no
	// other default is configured.
	DefaultItemCount = 3

	// CustomFeedLabel names a feed whose url has no recognisable host.
	CustomFeedLabel = "Custom Feed"

	MsgEmptyFeedURL = "Please provide a valid RSS URL."
	MsgBadCVEID     = "Please enter a valid CVE ID (e.g., CVE-2024-3094)."
)

// NormalizeCVEID trims and uppercases id and checks the CVE- prefix.
func NormalizeCVEID(id string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(id))
	if normalized == "" || !strings.HasPrefix(normalized, CVEPrefix) {
		return "", validation(OpCVE, MsgBadCVEID)
	}
	return normalized, nil
}

// ParseItemCountOr reads the "items" field of the ingestion form. Anything
// that is not a positive integer yields fallback, or DefaultItemCount when
// fallback is not positive either.
func ParseItemCountOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err == nil && n > 0 {
		return n
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultItemCount
}

// SourceLabel derives the human readable source of a feed from its host,
// falling back to CustomFeedLabel.
func SourceLabel(feedURL string) string {
	u, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || u.Hostname() == "" {
		return CustomFeedLabel
	}
	return u.Hostname()
}

// Package verify checks claimed references against accumulated tool-call
// evidence. It normalizes URLs, DOIs, and internal-link paths for equality
// comparison, detects self-referential citations, and assigns calibrated
// verification confidence.
package verify

import (
	"net/url"
	"regexp"
	"strings"
)

var doiPattern = regexp.MustCompile(`10\.\d{4,}/\S+`)

// NormalizeURL canonicalizes a URL for equality comparison: lower-cased
// scheme, host, and path with the trailing slash stripped, query preserved.
// Unparseable input falls back to a lower-cased trimmed string. Idempotent.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(trimmed)
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
	path := strings.TrimSuffix(strings.ToLower(parsed.Path), "/")
	normalized += path
	if parsed.RawQuery != "" {
		normalized += "?" + parsed.RawQuery
	}
	return normalized
}

// NormalizeDOI extracts and lower-cases the DOI substring, falling back to
// the trimmed lower-cased input when no DOI pattern is present. Idempotent.
func NormalizeDOI(raw string) string {
	if match := doiPattern.FindString(raw); match != "" {
		return strings.ToLower(match)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeWikiPath strips surrounding double-bracket markers from an
// internal link and lower-cases it. Idempotent.
func NormalizeWikiPath(raw string) string {
	path := strings.TrimSpace(raw)
	path = strings.TrimPrefix(path, "[[")
	path = strings.TrimSuffix(path, "]]")
	return strings.ToLower(strings.TrimSpace(path))
}

package verify

import (
	"regexp"
	"unicode/utf8"

	"github.com/draftops/refinery/pkg/domain"
)

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s"'<>\[\]()]+`)
	doiTextPattern  = regexp.MustCompile(`10\.\d{4,}/[^\s"'<>\[\]]+`)
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
)

// contextRadius is how many characters of surrounding text each extracted
// candidate carries.
const contextRadius = 50

// ExtractReferences scans free text for reference candidates: URLs, DOIs,
// and double-bracket internal links. Candidates are deduplicated by
// (type, reference string); the first occurrence wins.
func ExtractReferences(text string) []domain.ReferenceCandidate {
	var candidates []domain.ReferenceCandidate
	seen := make(map[string]struct{})

	add := func(refType domain.ReferenceType, reference string, start, end int) {
		key := string(refType) + "\x00" + reference
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, domain.ReferenceCandidate{
			Reference: reference,
			Type:      refType,
			Context:   surrounding(text, start, end),
		})
	}

	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		add(domain.ReferenceExternalURL, text[loc[0]:loc[1]], loc[0], loc[1])
	}
	for _, loc := range doiTextPattern.FindAllStringIndex(text, -1) {
		add(domain.ReferenceAcademicDOI, text[loc[0]:loc[1]], loc[0], loc[1])
	}
	for _, loc := range wikiLinkPattern.FindAllStringSubmatchIndex(text, -1) {
		add(domain.ReferenceVaultLink, text[loc[2]:loc[3]], loc[0], loc[1])
	}

	return candidates
}

// surrounding returns the text around a match, clipped to the input bounds.
// The clip points snap outward to rune boundaries so the context never splits
// a multi-byte rune.
func surrounding(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

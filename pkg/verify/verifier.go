package verify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/draftops/refinery/pkg/config"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/observability"
)

// Verifier accumulates tool-call evidence and verifies claimed references
// against it. Evidence is append-only within a session and cleared
// explicitly between documents. One instance serves one logical session at
// a time.
type Verifier struct {
	config  *config.Config
	metrics *observability.Metrics
	logger  *observability.StructuredLogger

	records []domain.ToolCallRecord

	// Index sets over normalized evidence values
	urlIndex  map[string]struct{}
	doiIndex  map[string]struct{}
	pathIndex map[string]struct{}

	// Optional active-document context, used only for self-reference detection
	docContext *domain.DocumentContext
}

// NewVerifier creates a reference verifier. Metrics are optional.
func NewVerifier(cfg *config.Config, metrics *observability.Metrics) *Verifier {
	if cfg == nil {
		cfg = config.Default()
	}
	v := &Verifier{
		config:  cfg,
		metrics: metrics,
		logger:  observability.NewStructuredLogger("verify"),
	}
	v.clear()
	return v
}

// RecordToolCall appends one evidence record and indexes its results. When
// the evidence cap is reached the oldest record is evicted.
func (v *Verifier) RecordToolCall(ctx context.Context, record domain.ToolCallRecord) {
	v.records = append(v.records, record)
	if max := v.config.Verifier.MaxEvidenceRecords; len(v.records) > max {
		v.records = v.records[len(v.records)-max:]
		v.rebuildIndexes()
	} else {
		v.indexRecord(record)
	}

	if v.metrics != nil {
		v.metrics.RecordToolCall(ctx, record.ToolName, len(record.Results))
	}

	v.logger.Debug(ctx, "Evidence recorded",
		map[string]interface{}{
			"tool":    record.ToolName,
			"results": len(record.Results),
		},
	)
}

// SetDocumentContext sets the active document used for self-reference
// detection
func (v *Verifier) SetDocumentContext(docCtx domain.DocumentContext) {
	v.docContext = &docCtx
}

// Reset clears all accumulated evidence and the document context
func (v *Verifier) Reset() {
	v.clear()
}

// EvidenceCount returns the number of accumulated tool-call records
func (v *Verifier) EvidenceCount() int {
	return len(v.records)
}

// VerifyReference checks a candidate against the accumulated evidence.
// Self-reference wins over any evidence match; an exact normalized evidence
// match wins over a pattern match.
func (v *Verifier) VerifyReference(ctx context.Context, candidate domain.ReferenceCandidate) domain.VerifiedReference {
	verified := domain.VerifiedReference{ReferenceCandidate: candidate}

	if detail, ok := v.checkSelfReference(candidate); ok {
		verified.Method = domain.MethodSelfReference
		verified.Details = detail
	} else if detail, ok := v.checkToolCallMatch(candidate); ok {
		verified.Verified = true
		verified.Method = domain.MethodToolCall
		verified.Confidence = 1.0
		verified.Details = detail
	} else if confidence, detail, ok := v.checkPatternMatch(candidate); ok {
		verified.Verified = true
		verified.Method = domain.MethodPatternMatch
		verified.Confidence = confidence
		verified.Details = detail
	} else {
		verified.Method = domain.MethodUnverified
		verified.Details = "no matching evidence recorded"
	}

	if v.metrics != nil {
		v.metrics.RecordReferenceVerified(ctx, string(verified.Method))
	}

	return verified
}

// VerifyAll verifies a batch of candidates in order
func (v *Verifier) VerifyAll(ctx context.Context, candidates []domain.ReferenceCandidate) []domain.VerifiedReference {
	results := make([]domain.VerifiedReference, 0, len(candidates))
	for _, candidate := range candidates {
		results = append(results, v.VerifyReference(ctx, candidate))
	}
	return results
}

// Summarize reports verification counts by method and the overall rate
func Summarize(references []domain.VerifiedReference) domain.VerificationSummary {
	summary := domain.VerificationSummary{
		Total:    len(references),
		ByMethod: make(map[domain.VerificationMethod]int),
	}
	for _, ref := range references {
		summary.ByMethod[ref.Method]++
		if ref.Verified {
			summary.Verified++
		}
	}
	if summary.Total > 0 {
		summary.VerificationRate = float64(summary.Verified) / float64(summary.Total)
	}
	return summary
}

// checkSelfReference reports whether the candidate points back at the active
// document. Only evaluated when a document context is set.
func (v *Verifier) checkSelfReference(candidate domain.ReferenceCandidate) (string, bool) {
	if v.docContext == nil {
		return "", false
	}

	switch candidate.Type {
	case domain.ReferenceVaultLink:
		candidatePath := NormalizeWikiPath(candidate.Reference)
		docPath := NormalizeWikiPath(v.docContext.Path)
		if candidatePath == docPath || strings.HasSuffix(candidatePath, docPath) {
			return "link resolves to the active document", true
		}

	case domain.ReferenceCitation:
		text := strings.ToLower(candidate.Reference)
		title := strings.ToLower(v.docContext.Title)
		if title != "" && (text == title || strings.Contains(text, title) || strings.Contains(title, text)) {
			return "citation matches the active document title", true
		}
		for _, phrase := range v.docContext.KeyPhrases {
			if len(phrase) > 15 && strings.Contains(text, strings.ToLower(phrase)) {
				return "citation contains an active-document key phrase", true
			}
		}
		if !strings.Contains(text, "http") && doiPattern.FindString(text) == "" {
			for _, phrase := range v.docContext.KeyPhrases {
				overlap, count := wordOverlapMin(text, strings.ToLower(phrase), 4)
				if overlap > 0.5 && count >= 3 {
					return "citation overlaps an active-document key phrase", true
				}
			}
		}
	}

	return "", false
}

// checkToolCallMatch reports whether the candidate exactly matches recorded
// evidence after normalization
func (v *Verifier) checkToolCallMatch(candidate domain.ReferenceCandidate) (string, bool) {
	switch candidate.Type {
	case domain.ReferenceExternalURL:
		if _, ok := v.urlIndex[NormalizeURL(candidate.Reference)]; ok {
			return "URL returned by a recorded tool call", true
		}
	case domain.ReferenceAcademicDOI:
		if _, ok := v.doiIndex[NormalizeDOI(candidate.Reference)]; ok {
			return "DOI returned by a recorded tool call", true
		}
	case domain.ReferenceVaultLink:
		if _, ok := v.pathIndex[NormalizeWikiPath(candidate.Reference)]; ok {
			return "internal path returned by a recorded tool call", true
		}
	case domain.ReferenceCitation:
		if title, ok := v.matchCitationEvidence(candidate.Reference); ok {
			return fmt.Sprintf("citation matches tool result %q", title), true
		}
	default:
		if _, ok := v.urlIndex[NormalizeURL(candidate.Reference)]; ok {
			return "URL returned by a recorded tool call", true
		}
		if _, ok := v.doiIndex[NormalizeDOI(candidate.Reference)]; ok {
			return "DOI returned by a recorded tool call", true
		}
	}
	return "", false
}

// matchCitationEvidence looks for a title or snippet substring match between
// the citation text and any recorded result
func (v *Verifier) matchCitationEvidence(reference string) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(reference))
	if text == "" {
		return "", false
	}
	for _, record := range v.records {
		for _, result := range record.Results {
			title := strings.ToLower(result.Title)
			if title != "" && (strings.Contains(title, text) || strings.Contains(text, title)) {
				return result.Title, true
			}
			if result.Snippet != "" && strings.Contains(strings.ToLower(result.Snippet), text) {
				return result.Title, true
			}
		}
	}
	return "", false
}

// checkPatternMatch looks for a weaker evidence match: a shared registrable
// domain for URLs, or a word-overlap match against any result title. The
// best qualifying match wins.
func (v *Verifier) checkPatternMatch(candidate domain.ReferenceCandidate) (float64, string, bool) {
	if candidate.Type == domain.ReferenceExternalURL {
		if domainName, ok := v.matchRegistrableDomain(candidate.Reference); ok {
			return 0.7, fmt.Sprintf("shares registrable domain %s with recorded evidence", domainName), true
		}
	}

	best := 0.0
	bestTitle := ""
	for _, record := range v.records {
		for _, result := range record.Results {
			if result.Title == "" {
				continue
			}
			overlap := wordOverlapMax(
				strings.ToLower(candidate.Reference),
				strings.ToLower(result.Title),
				3,
			)
			if overlap > 0.5 && overlap > best {
				best = overlap
				bestTitle = result.Title
			}
		}
	}
	if best > 0 {
		return best, fmt.Sprintf("word overlap with tool result %q", bestTitle), true
	}

	return 0, "", false
}

// matchRegistrableDomain reports whether any recorded result URL shares the
// candidate's registrable domain
func (v *Verifier) matchRegistrableDomain(rawURL string) (string, bool) {
	candidateDomain := registrableDomain(rawURL)
	if candidateDomain == "" {
		return "", false
	}
	for url := range v.urlIndex {
		if registrableDomain(url) == candidateDomain {
			return candidateDomain, true
		}
	}
	return "", false
}

// registrableDomain extracts the effective TLD+1 of a URL's host, empty when
// it cannot be determined
func registrableDomain(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	domainName, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domainName
}

// hostOf extracts the lower-cased host from a URL string, without port
func hostOf(rawURL string) string {
	normalized := NormalizeURL(rawURL)
	rest, found := strings.CutPrefix(normalized, "https://")
	if !found {
		rest, found = strings.CutPrefix(normalized, "http://")
	}
	if !found {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// wordOverlapMin computes overlap/min(sizes) over words longer than minLen
// characters, returning the ratio and the overlapping word count
func wordOverlapMin(a, b string, minLen int) (float64, int) {
	wordsA := wordSet(a, minLen)
	wordsB := wordSet(b, minLen)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0, 0
	}

	overlap := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			overlap++
		}
	}

	smaller := len(wordsA)
	if len(wordsB) < smaller {
		smaller = len(wordsB)
	}
	return float64(overlap) / float64(smaller), overlap
}

// wordOverlapMax computes overlap/max(sizes) over words longer than minLen
// characters
func wordOverlapMax(a, b string, minLen int) float64 {
	wordsA := wordSet(a, minLen)
	wordsB := wordSet(b, minLen)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	overlap := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			overlap++
		}
	}

	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(overlap) / float64(larger)
}

// wordSet splits text into a set of words longer than minLen characters
func wordSet(text string, minLen int) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	}) {
		if len(word) > minLen {
			words[strings.ToLower(word)] = struct{}{}
		}
	}
	return words
}

// indexRecord adds one record's results to the normalized evidence indexes
func (v *Verifier) indexRecord(record domain.ToolCallRecord) {
	for _, result := range record.Results {
		if result.URL != "" {
			v.urlIndex[NormalizeURL(result.URL)] = struct{}{}
		}
		if result.DOI != "" {
			v.doiIndex[NormalizeDOI(result.DOI)] = struct{}{}
		}
		if result.InternalPath != "" {
			v.pathIndex[NormalizeWikiPath(result.InternalPath)] = struct{}{}
		}
	}
}

// rebuildIndexes reconstructs the evidence indexes from the retained records
func (v *Verifier) rebuildIndexes() {
	v.urlIndex = make(map[string]struct{})
	v.doiIndex = make(map[string]struct{})
	v.pathIndex = make(map[string]struct{})
	for _, record := range v.records {
		v.indexRecord(record)
	}
}

// clear resets all evidence state
func (v *Verifier) clear() {
	v.records = nil
	v.urlIndex = make(map[string]struct{})
	v.doiIndex = make(map[string]struct{})
	v.pathIndex = make(map[string]struct{})
	v.docContext = nil
}

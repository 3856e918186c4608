// Package privacy implements the pre-storage filter that rejects sensitive
// content before it is ever persisted to the fact store.
package privacy

import "regexp"

// Pattern names reported in Result.Flagged.
const (
	PatternGovernmentID = "government-id"
	PatternPaymentCard  = "payment-card"
	PatternEmail        = "email"
	PatternPhone        = "phone"
	PatternCredential   = "credential"
)

// RedactPlaceholder is the replacement string for redacted sensitive values.
const RedactPlaceholder = "***REDACTED***"

// Result is the outcome of a privacy check. Flagged lists every detector
// that matched, not just the first, so callers can report all reasons in
// one pass.
type Result struct {
	Safe    bool
	Flagged []string
}

// detector pairs a pattern name with its compiled expression.
type detector struct {
	name string
	re   *regexp.Regexp
}

// Gate evaluates text against a fixed set of named sensitive-data detectors.
// It is pure, stateless, and deterministic; Check never fails, it only
// degrades to fewer detections on unusual input. Safe for concurrent use.
type Gate struct {
	detectors []detector
}

// NewGate creates a Gate loaded with the default detectors: government ID
// numbers, payment-card-like digit sequences, email addresses, phone
// numbers, and credential-assignment phrases.
func NewGate() *Gate {
	return &Gate{detectors: defaultDetectors()}
}

// Check evaluates text against every detector and returns Safe=false iff
// at least one matched.
func (g *Gate) Check(text string) Result {
	var flagged []string
	for _, d := range g.detectors {
		if d.re.MatchString(text) {
			flagged = append(flagged, d.name)
		}
	}
	return Result{Safe: len(flagged) == 0, Flagged: flagged}
}

// Redact replaces every span matched by a detector with RedactPlaceholder.
// Used by the logging handler so rejected content never reaches log output
// verbatim.
func (g *Gate) Redact(text string) string {
	if text == "" {
		return text
	}
	for _, d := range g.detectors {
		text = d.re.ReplaceAllString(text, RedactPlaceholder)
	}
	return text
}

func defaultDetectors() []detector {
	return []detector{
		// US SSN style: 123-45-6789.
		{PatternGovernmentID, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		// 13-16 digit sequences in groups of four, optionally separated.
		{PatternPaymentCard, regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{1,4}\b`)},
		{PatternEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
		// North American phone numbers with optional country code.
		{PatternPhone, regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]\d{4}\b`)},
		// password: hunter2, pwd=s3cret, passwd : x.
		{PatternCredential, regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\b\s*[:=]\s*\S+`)},
	}
}

package redact

import (
	"regexp"

	"github.com/ppiankov/trustlens/internal/model"
)

// Matcher finds one category of PII in text
type Matcher interface {
	// Category returns the PII category this matcher detects
	Category() model.PIICategory

	// Placeholder returns the token prefix used for masked values
	Placeholder() string

	// FindAll returns [start, end) byte ranges of every value to mask
	FindAll(text string) [][]int
}

// regexMatcher masks whole regex matches, or a single capture group when group > 0
type regexMatcher struct {
	category    model.PIICategory
	placeholder string
	re          *regexp.Regexp
	group       int
}

func (m *regexMatcher) Category() model.PIICategory { return m.category }
func (m *regexMatcher) Placeholder() string         { return m.placeholder }

func (m *regexMatcher) FindAll(text string) [][]int {
	matches := m.re.FindAllStringSubmatchIndex(text, -1)
	spans := make([][]int, 0, len(matches))
	for _, idx := range matches {
		start, end := idx[2*m.group], idx[2*m.group+1]
		if start < 0 || start == end {
			continue
		}
		spans = append(spans, []int{start, end})
	}
	return spans
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)+`)

	phonePattern = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{3}\)|\b\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`)

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	cardPattern = regexp.MustCompile(`\b(?:\d[ \-]?){12,15}\d\b`)

	addressPattern = regexp.MustCompile(`\b\d{1,5}(?:\s+[A-Z][a-z]+){1,4}\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl|Terrace|Parkway)\b`)

	// Two or more capitalized words introduced by a personal cue. The bare
	// "two capitalized words" rule would mask landmarks and place names.
	namePattern = regexp.MustCompile(`(?:\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+|\b(?:[Mm]y name is|I am|I'm|Sincerely,?|Regards,?|Signed,?)\s+)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+|[A-Z][a-z]{2,})`)
)

// DefaultMatchers returns the built-in matchers in redaction order:
// email, phone, ssn, credit_card, address_like, name
func DefaultMatchers() []Matcher {
	return []Matcher{
		&regexMatcher{category: model.PIIEmail, placeholder: "EMAIL", re: emailPattern},
		&regexMatcher{category: model.PIIPhone, placeholder: "PHONE", re: phonePattern},
		&regexMatcher{category: model.PIISSN, placeholder: "SSN", re: ssnPattern},
		&regexMatcher{category: model.PIICreditCard, placeholder: "CARD", re: cardPattern},
		&regexMatcher{category: model.PIIAddressLike, placeholder: "ADDRESS", re: addressPattern},
		&regexMatcher{category: model.PIIName, placeholder: "NAME", re: namePattern, group: 1},
	}
}

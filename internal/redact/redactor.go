package redact

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/trustlens/internal/model"
)

// maxPasses bounds the fixpoint loop; real text converges in one or two
const maxPasses = 8

// Redactor masks PII in text before it leaves the device
type Redactor struct {
	matchers []Matcher
}

// NewRedactor creates a redactor with the given matchers, or the defaults when none are given
func NewRedactor(matchers ...Matcher) *Redactor {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Redactor{matchers: matchers}
}

// Redact replaces every PII match with a numbered placeholder (EMAIL1, NAME2, ...).
// The same value maps to the same placeholder within one call. Passes repeat
// until no matcher finds anything, so the output is stable under re-redaction.
func (r *Redactor) Redact(text string) model.RedactionResult {
	if !utf8.ValidString(text) {
		return model.RedactionResult{}
	}

	state := newMaskState()
	masked := text
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, m := range r.matchers {
			next, n := state.apply(masked, m)
			if n > 0 {
				masked = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var detected []model.PIICategory
	for _, m := range r.matchers {
		if state.seen[m.Category()] {
			detected = append(detected, m.Category())
		}
	}

	return model.RedactionResult{
		MaskedText:    masked,
		DetectedTypes: detected,
	}
}

// maskState tracks placeholder numbering across passes of one Redact call
type maskState struct {
	tokens   map[string]string // category + value -> placeholder
	counters map[string]int    // placeholder prefix -> last number used
	seen     map[model.PIICategory]bool
}

func newMaskState() *maskState {
	return &maskState{
		tokens:   make(map[string]string),
		counters: make(map[string]int),
		seen:     make(map[model.PIICategory]bool),
	}
}

// apply masks every span found by m and returns the new text and the number of replacements
func (s *maskState) apply(text string, m Matcher) (string, int) {
	spans := m.FindAll(text)
	if len(spans) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	replaced := 0
	for _, span := range spans {
		start, end := span[0], span[1]
		if start < last {
			continue // overlapping span
		}
		b.WriteString(text[last:start])
		b.WriteString(s.token(m, text[start:end]))
		last = end
		replaced++
	}
	b.WriteString(text[last:])

	if replaced > 0 {
		s.seen[m.Category()] = true
	}
	return b.String(), replaced
}

func (s *maskState) token(m Matcher, value string) string {
	key := string(m.Category()) + "\x00" + strings.ToLower(value)
	if tok, ok := s.tokens[key]; ok {
		return tok
	}
	prefix := m.Placeholder()
	s.counters[prefix]++
	tok := prefix + strconv.Itoa(s.counters[prefix])
	s.tokens[key] = tok
	return tok
}

// IsPlaceholder reports whether word is a redaction token such as EMAIL1 or NAME12
func IsPlaceholder(word string) bool {
	for _, prefix := range placeholderPrefixes {
		rest, ok := strings.CutPrefix(word, prefix)
		if !ok || rest == "" {
			continue
		}
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	return false
}

// ContainsPlaceholder reports whether any word in text is a redaction token
func ContainsPlaceholder(text string) bool {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		if IsPlaceholder(word) {
			return true
		}
	}
	return false
}

var placeholderPrefixes = []string{"EMAIL", "PHONE", "SSN", "CARD", "ADDRESS", "NAME"}

package pipeline

import (
	"strings"
	"unicode"
)

// intent is the set of checks a prompt asks for
type intent struct {
	facts     bool
	synthetic bool
	safety    bool
}

var (
	factWords      = []string{"fact", "facts", "factual", "true", "truth", "real", "accurate", "correct", "trust", "believe", "fake news", "misleading"}
	syntheticWords = []string{"ai", "generated", "deepfake", "deepfakes", "fake", "synthetic", "computer", "real person", "photoshopped"}
	safetyWords    = []string{"safe", "safety", "harmful", "harm", "scam", "scammer", "predator", "privacy", "dangerous"}
)

// everything runs every check
var everything = intent{facts: true, synthetic: true, safety: true}

// parseIntent reads which checks prompt asks for. An empty prompt, or one
// that names none of the checks, asks for all of them.
func parseIntent(prompt string) intent {
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return everything
	}
	padded := " " + strings.Join(words, " ") + " "

	in := intent{
		facts:     mentions(padded, factWords),
		synthetic: mentions(padded, syntheticWords),
		safety:    mentions(padded, safetyWords),
	}
	if in == (intent{}) {
		return everything
	}
	return in
}

// mentions reports whether any whole word or phrase in terms occurs in padded
func mentions(padded string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(padded, " "+term+" ") {
			return true
		}
	}
	return false
}

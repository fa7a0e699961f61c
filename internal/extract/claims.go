package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/redact"
)

const (
	minClaimChars = 20
	maxClaimChars = 500
)

// ClaimExtractor picks checkable sentences out of masked text
type ClaimExtractor struct {
	keywords []string
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"according to", "is located", "is in", "was born", "founded",
			"invented", "discovered", "originated", "established", "built",
			"completed", "announced", "reported", "confirmed", "percent",
			"million", "billion", "first", "largest", "capital",
		},
	}
}

// Extract splits text into sentences and returns the ones worth fact-checking.
// Sentences that mention a redaction placeholder or end in a question mark are
// skipped. Keyword matches sort ahead of plain sentences; order is otherwise
// the order of appearance.
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	sentences := splitSentences(text)

	var claims []model.Claim
	for i, sentence := range sentences {
		if strings.HasSuffix(sentence, "?") || redact.ContainsPlaceholder(sentence) {
			continue
		}

		claim := model.Claim{
			Text:      sentence,
			Heuristic: "sentence",
			Sentence:  i,
		}
		lower := strings.ToLower(sentence)
		for _, keyword := range e.keywords {
			if strings.Contains(lower, keyword) {
				claim.Heuristic = "keyword:" + keyword
				break // Only match once per sentence
			}
		}
		claims = append(claims, claim)
	}

	claims = dedupeClaims(claims)
	sort.SliceStable(claims, func(i, j int) bool {
		return isKeyword(claims[i]) && !isKeyword(claims[j])
	})
	return claims
}

// ExtractClaims implements the fact service's Extractor interface
func (e *ClaimExtractor) ExtractClaims(_ context.Context, text string) ([]model.Claim, error) {
	return e.Extract(text), nil
}

func isKeyword(c model.Claim) bool {
	return strings.HasPrefix(c.Heuristic, "keyword:")
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= minClaimChars && len(sentence) <= maxClaimChars {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when followed by whitespace, to keep "3.5" and "a.m." intact
			if i+1 < len(text) && text[i+1] == ' ' {
				keep()
			}
		}
	}

	if current.Len() > 0 {
		keep()
	}

	return sentences
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}

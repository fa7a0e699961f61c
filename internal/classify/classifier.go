package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// Category names reported by the classifier
const (
	CategoryViolence = "violence"
	CategoryBullying = "bullying"
	CategoryAdult    = "adult"
	CategorySelfHarm = "self_harm"
)

// DefaultWordlists returns the built-in category wordlists
func DefaultWordlists() map[string][]string {
	return map[string][]string{
		CategoryViolence: {
			"kill", "killed", "murder", "shooting", "stabbing", "assault",
			"weapon", "gun", "bomb", "massacre", "attack", "beat up",
		},
		CategoryBullying: {
			"loser", "nobody likes you", "ugly", "stupid", "idiot",
			"go away", "worthless", "freak", "kill yourself", "shut up",
		},
		CategoryAdult: {
			"porn", "xxx", "nude", "nudes", "explicit", "sex", "escort",
			"onlyfans", "18+",
		},
		CategorySelfHarm: {
			"suicide", "self-harm", "self harm", "cutting myself",
			"end my life", "want to die", "overdose", "kill myself",
		},
	}
}

// Classifier counts wordlist hits per category. Only category names and
// counts are returned; matched phrases never leave the classifier.
type Classifier struct {
	patterns map[string]*regexp.Regexp
}

// NewClassifier compiles the given wordlists, or the defaults when nil
func NewClassifier(wordlists map[string][]string) *Classifier {
	if wordlists == nil {
		wordlists = DefaultWordlists()
	}

	patterns := make(map[string]*regexp.Regexp, len(wordlists))
	for category, words := range wordlists {
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
		}
		// Longest first so "kill yourself" wins over "kill"
		sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
		patterns[category] = regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN])`)
	}

	return &Classifier{patterns: patterns}
}

// Classify returns the matched categories (sorted) and per-category hit counts
func (c *Classifier) Classify(text string) model.ClassificationResult {
	result := model.ClassificationResult{
		Categories: []string{},
		Counts:     map[string]int{},
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	for category, re := range c.patterns {
		n := countMatches(re, text)
		if n > 0 {
			result.Counts[category] = n
			result.Categories = append(result.Categories, category)
		}
	}
	sort.Strings(result.Categories)

	return result
}

// countMatches counts word-bounded hits, letting one boundary character serve two adjacent hits
func countMatches(re *regexp.Regexp, text string) int {
	count := 0
	for start := 0; start < len(text); {
		loc := re.FindStringSubmatchIndex(text[start:])
		if loc == nil {
			break
		}
		count++
		start += loc[3]
	}
	return count
}

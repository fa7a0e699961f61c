package classify

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		categories []string
		counts     map[string]int
	}{
		{
			name:       "clean text",
			text:       "The Eiffel Tower was completed in 1889.",
			categories: []string{},
			counts:     map[string]int{},
		},
		{
			name:       "case insensitive",
			text:       "A SHOOTING was reported near the Gun shop.",
			categories: []string{"violence"},
			counts:     map[string]int{"violence": 2},
		},
		{
			name:       "word boundaries",
			text:       "The skill of a begun project, sextant and gunnery.",
			categories: []string{},
			counts:     map[string]int{},
		},
		{
			name:       "adjacent hits",
			text:       "gun gun gun",
			categories: []string{"violence"},
			counts:     map[string]int{"violence": 3},
		},
		{
			name:       "multiple categories sorted",
			text:       "You are a loser. I want to die. There was an attack.",
			categories: []string{"bullying", "self_harm", "violence"},
			counts:     map[string]int{"bullying": 1, "self_harm": 1, "violence": 1},
		},
		{
			name:       "phrase and word counted in their own categories",
			text:       "Nobody should say kill yourself.",
			categories: []string{"bullying", "violence"},
			counts:     map[string]int{"bullying": 1, "violence": 1},
		},
	}

	c := NewClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if !reflect.DeepEqual(got.Categories, tt.categories) {
				t.Errorf("Categories = %v, want %v", got.Categories, tt.categories)
			}
			if !reflect.DeepEqual(got.Counts, tt.counts) {
				t.Errorf("Counts = %v, want %v", got.Counts, tt.counts)
			}
		})
	}
}

func TestClassify_CustomWordlists(t *testing.T) {
	c := NewClassifier(map[string][]string{
		"gambling": {"casino", "jackpot"},
		"empty":    {},
	})

	got := c.Classify("Casino night! Win the JACKPOT at the casino.")
	if got.Counts["gambling"] != 3 {
		t.Errorf("gambling count = %d, want 3", got.Counts["gambling"])
	}
	if len(got.Categories) != 1 || got.Categories[0] != "gambling" {
		t.Errorf("Categories = %v", got.Categories)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(nil)
	text := "murder, porn, suicide, idiot"
	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

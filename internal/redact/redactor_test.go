package redact

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/trustlens/internal/model"
)

func TestRedact_Categories(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		detected []model.PIICategory
	}{
		{
			name:     "email",
			input:    "The Eiffel Tower is in Berlin. Contact me at a@b.com.",
			want:     "The Eiffel Tower is in Berlin. Contact me at EMAIL1.",
			detected: []model.PIICategory{model.PIIEmail},
		},
		{
			name:     "phone formats",
			input:    "Call (555) 123-4567 or +1 555.987.6543 today",
			want:     "Call PHONE1 or PHONE2 today",
			detected: []model.PIICategory{model.PIIPhone},
		},
		{
			name:     "ssn",
			input:    "SSN on file: 123-45-6789",
			want:     "SSN on file: SSN1",
			detected: []model.PIICategory{model.PIISSN},
		},
		{
			name:     "credit card",
			input:    "Card 4111 1111 1111 1111 expires soon",
			want:     "Card CARD1 expires soon",
			detected: []model.PIICategory{model.PIICreditCard},
		},
		{
			name:     "address",
			input:    "Ship it to 221 Baker Street please",
			want:     "Ship it to ADDRESS1 please",
			detected: []model.PIICategory{model.PIIAddressLike},
		},
		{
			name:     "name after cue",
			input:    "Hello, my name is Alice Walker and Dr. Bob Stone agrees.",
			want:     "Hello, my name is NAME1 and Dr. NAME2 agrees.",
			detected: []model.PIICategory{model.PIIName},
		},
		{
			name:     "repeated value keeps its placeholder",
			input:    "a@b.com, c@d.org, a@b.com",
			want:     "EMAIL1, EMAIL2, EMAIL1",
			detected: []model.PIICategory{model.PIIEmail},
		},
		{
			name:     "detected types follow rule order",
			input:    "Mr. John Smith, john@example.com, 555-123-4567",
			want:     "Mr. NAME1, EMAIL1, PHONE1",
			detected: []model.PIICategory{model.PIIEmail, model.PIIPhone, model.PIIName},
		},
	}

	r := NewRedactor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Redact(tt.input)
			if got.MaskedText != tt.want {
				t.Errorf("MaskedText = %q, want %q", got.MaskedText, tt.want)
			}
			if !reflect.DeepEqual(got.DetectedTypes, tt.detected) {
				t.Errorf("DetectedTypes = %v, want %v", got.DetectedTypes, tt.detected)
			}
		})
	}
}

func TestRedact_Idempotent(t *testing.T) {
	inputs := []string{
		"The Eiffel Tower is in Berlin. Contact me at a@b.com.",
		"Mr. John Smith lives at 12 Elm Street, phone (555) 123-4567, SSN 123-45-6789.",
		"Pay with 5500-0000-0000-0004 or email billing@shop.example.co.uk",
		"Sincerely, Mary Ann Jones",
		"EMAIL1 wrote to PHONE2 about NAME3",
		"",
	}

	r := NewRedactor()
	for _, in := range inputs {
		first := r.Redact(in)
		second := r.Redact(first.MaskedText)
		if len(second.DetectedTypes) != 0 {
			t.Errorf("re-redacting %q found %v in %q", in, second.DetectedTypes, first.MaskedText)
		}
		if second.MaskedText != first.MaskedText {
			t.Errorf("re-redacting changed text: %q -> %q", first.MaskedText, second.MaskedText)
		}
	}
}

func TestRedact_NoPIIIsIdentity(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog.",
		"The Eiffel Tower was completed in 1889 and stands in Paris.",
		"Prices rose 3.5% in 2023, according to the report.",
		"New York City has five boroughs.",
	}

	r := NewRedactor()
	for _, in := range inputs {
		got := r.Redact(in)
		if got.MaskedText != in {
			t.Errorf("Redact(%q) = %q, want unchanged", in, got.MaskedText)
		}
		if len(got.DetectedTypes) != 0 {
			t.Errorf("Redact(%q) detected %v", in, got.DetectedTypes)
		}
	}
}

func TestRedact_NonUTF8(t *testing.T) {
	got := NewRedactor().Redact("caf\xe9 a@b.com")
	if got.MaskedText != "" || len(got.DetectedTypes) != 0 {
		t.Errorf("expected empty result for invalid UTF-8, got %+v", got)
	}
}

type tokenMatcher struct{}

func (tokenMatcher) Category() model.PIICategory { return "api_token" }
func (tokenMatcher) Placeholder() string         { return "TOKEN" }
func (tokenMatcher) FindAll(text string) [][]int {
	idx := strings.Index(text, "sk-")
	if idx < 0 {
		return nil
	}
	return [][]int{{idx, idx + 10}}
}

func TestRedact_CustomMatcher(t *testing.T) {
	r := NewRedactor(tokenMatcher{})
	got := r.Redact("key=sk-1234567 done")
	if got.MaskedText != "key=TOKEN1 done" {
		t.Errorf("MaskedText = %q", got.MaskedText)
	}
	if !got.Has("api_token") {
		t.Errorf("expected api_token in %v", got.DetectedTypes)
	}
}

func TestContainsPlaceholder(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Contact me at EMAIL1.", true},
		{"NAME12 said hello", true},
		{"The EMAIL field is required", false},
		{"Model X1 launched", false},
		{"plain text", false},
	}

	for _, tt := range tests {
		if got := ContainsPlaceholder(tt.text); got != tt.want {
			t.Errorf("ContainsPlaceholder(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

package llm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/trustlens/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *ClaimsResponse
	err       error
	calls     int
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) ExtractClaims(ctx context.Context, req ClaimsRequest) (*ClaimsResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

type stubFallback struct {
	calls int
}

func (s *stubFallback) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	s.calls++
	return []model.Claim{{Text: "fallback claim", Heuristic: "sentence"}}, nil
}

func TestNewExtractor_DisabledProvider(t *testing.T) {
	fallback := &stubFallback{}
	extractor, err := NewExtractor(Config{Provider: ""}, fallback, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if extractor.IsEnabled() {
		t.Error("Expected extractor to be disabled")
	}
	if extractor.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	claims, err := extractor.ExtractClaims(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fallback.calls != 1 || len(claims) != 1 {
		t.Errorf("Expected fallback claims, got %v (calls=%d)", claims, fallback.calls)
	}
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	if _, err := NewExtractor(Config{Provider: "carrier-pigeon"}, &stubFallback{}, 8); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestExtractor_ProviderError_FallsBack(t *testing.T) {
	fallback := &stubFallback{}
	extractor := &Extractor{
		provider: &MockProvider{name: "mock", err: errors.New("rate limited")},
		fallback: fallback,
	}

	claims, err := extractor.ExtractClaims(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fallback.calls != 1 {
		t.Errorf("Expected fallback to be used once, got %d", fallback.calls)
	}
	if len(claims) != 1 || claims[0].Text != "fallback claim" {
		t.Errorf("Unexpected claims: %v", claims)
	}
}

func TestExtractor_Success(t *testing.T) {
	fallback := &stubFallback{}
	extractor := &Extractor{
		provider: &MockProvider{name: "mock", response: &ClaimsResponse{Claims: []string{
			"The Eiffel Tower is in Berlin.",
			"the eiffel tower is in berlin.",
			"Contact EMAIL1 for details.",
		}}},
		fallback: fallback,
	}

	claims, err := extractor.ExtractClaims(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []model.Claim{{Text: "The Eiffel Tower is in Berlin.", Heuristic: "llm", Sentence: -1}}
	if !reflect.DeepEqual(claims, want) {
		t.Errorf("claims = %+v, want %+v", claims, want)
	}
	if fallback.calls != 0 {
		t.Error("Fallback should not run when the model succeeds")
	}
	if extractor.ProviderName() != "mock" {
		t.Errorf("Unexpected provider name %q", extractor.ProviderName())
	}
}

func TestParseClaims(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{name: "plain array", content: `["A is B.", "C is D."]`, want: []string{"A is B.", "C is D."}},
		{name: "fenced", content: "```json\n[\"A is B.\"]\n```", want: []string{"A is B."}},
		{name: "prose around array", content: "Here you go: [\"A is B.\"] Hope it helps.", want: []string{"A is B."}},
		{name: "blank entries dropped", content: `["  ", "A is B."]`, want: []string{"A is B."}},
		{name: "empty array", content: `[]`, want: []string{}},
		{name: "no array", content: "none", wantErr: true},
		{name: "not strings", content: `[1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClaims(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("The Eiffel Tower is in Berlin.", 3)
	if !strings.Contains(prompt, "at most 3 factual claims") {
		t.Error("Expected claim limit in prompt")
	}
	if !strings.Contains(prompt, "The Eiffel Tower is in Berlin.") {
		t.Error("Expected text in prompt")
	}

	long := BuildPrompt(strings.Repeat("x", MaxTextLength+100), 0)
	if !strings.Contains(long, "[... truncated]") {
		t.Error("Expected long text to be truncated")
	}
	if !strings.Contains(long, "at most 8 factual claims") {
		t.Error("Expected default claim limit")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != "" {
		t.Error("Expected LLM to be disabled by default")
	}
	if cfg.Timeout != 60 {
		t.Errorf("Expected 60s timeout, got %d", cfg.Timeout)
	}
}

func TestConfigFromModel(t *testing.T) {
	mc := model.DefaultConfig().LLM
	mc.Provider = "openai"
	mc.APIKey = "sk-test"

	cfg := ConfigFromModel(mc)
	if cfg.Provider != "openai" || cfg.APIKey != "sk-test" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 60 {
		t.Errorf("Expected timeout in seconds, got %d", cfg.Timeout)
	}
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/redact"
)

// Fallback extracts claims without a model
type Fallback interface {
	ExtractClaims(ctx context.Context, text string) ([]model.Claim, error)
}

// Extractor extracts claims with an LLM, falling back to a heuristic extractor.
// A failing model never fails the fact check.
type Extractor struct {
	provider  Provider
	fallback  Fallback
	maxClaims int
	maxTokens int
}

// NewExtractor creates a new claim extractor. A disabled provider yields an
// extractor that always uses the fallback.
func NewExtractor(config Config, fallback Fallback, maxClaims int) (*Extractor, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return &Extractor{
		provider:  provider,
		fallback:  fallback,
		maxClaims: maxClaims,
		maxTokens: config.MaxTokens,
	}, nil
}

// IsEnabled reports whether a model is configured
func (e *Extractor) IsEnabled() bool {
	return e.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (e *Extractor) ProviderName() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

// ExtractClaims returns the model's claims, or the fallback's when the model
// is disabled or errors
func (e *Extractor) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	if e.provider == nil {
		return e.fallback.ExtractClaims(ctx, text)
	}

	resp, err := e.provider.ExtractClaims(ctx, ClaimsRequest{
		Text:      text,
		MaxClaims: e.maxClaims,
		MaxTokens: e.maxTokens,
	})
	if err != nil || resp == nil {
		return e.fallback.ExtractClaims(ctx, text)
	}

	claims := make([]model.Claim, 0, len(resp.Claims))
	seen := make(map[string]bool)
	for _, c := range resp.Claims {
		key := strings.ToLower(c)
		if seen[key] || redact.ContainsPlaceholder(c) {
			continue
		}
		seen[key] = true
		claims = append(claims, model.Claim{Text: c, Heuristic: "llm", Sentence: -1})
	}
	return claims, nil
}

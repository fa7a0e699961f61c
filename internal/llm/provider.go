package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxTextLength caps how much masked page text is sent to a model
const MaxTextLength = 30000

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims asks the model for the checkable factual claims in the text
	ExtractClaims(ctx context.Context, req ClaimsRequest) (*ClaimsResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ClaimsRequest contains the input for claim extraction
type ClaimsRequest struct {
	// Text is the already-redacted page text
	Text string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// MaxClaims limits how many claims the model is asked for
	MaxClaims int
}

// ClaimsResponse contains the model's claims
type ClaimsResponse struct {
	Claims     []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, Azure, vLLM)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   60,
		MaxTokens: 1024,
	}
}

const systemPrompt = "You extract checkable factual claims from web page text. Reply with a JSON array of strings and nothing else."

// BuildPrompt constructs the default claim extraction prompt
func BuildPrompt(text string, maxClaims int) string {
	if maxClaims <= 0 {
		maxClaims = 8
	}
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength] + "\n[... truncated]"
	}

	return fmt.Sprintf(`List at most %d factual claims from the text below that a fact-checker could verify.

RULES:
1. Copy each claim as a short, self-contained sentence.
2. Skip opinions, questions, and instructions.
3. Tokens such as EMAIL1, PHONE2 or NAME3 are redacted personal data. Never include a claim that mentions one.
4. Reply with a JSON array of strings, for example ["Claim one.", "Claim two."]. Reply [] if there are none.

Text:
%s`, maxClaims, text)
}

// ParseClaims decodes a model reply into claims. Code fences are tolerated.
func ParseClaims(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimPrefix(content, "json")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in model reply")
	}

	var raw []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	claims := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			claims = append(claims, c)
		}
	}
	return claims, nil
}

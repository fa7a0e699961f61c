package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
)

// MaxSafetyTextLength caps the text sent for content-safety scoring
const MaxSafetyTextLength = 12000

const safetySystemPrompt = `You are a content safety classifier for web pages.
Score the text for three risks, each a number between 0 and 1:
- "pil": privacy information leakage, the page exposes or solicits personal data
- "harmful": violence, self-harm, hate, or dangerous instructions
- "unwanted": grooming, stalking, or unwanted contact attempts
Reply with one JSON object such as {"pil": 0.1, "harmful": 0.0, "unwanted": 0.0} and nothing else.`

// SafetyClassifier scores page text for content-safety risks through any
// OpenAI-compatible chat endpoint, Ollama's /v1 included
type SafetyClassifier struct {
	client *openai.Client
	config Config
}

// NewSafetyClassifier creates a classifier. Either an API key or a base URL
// must be set.
func NewSafetyClassifier(config Config) (*SafetyClassifier, error) {
	if config.APIKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("content safety needs an API key or base URL")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPProxy != "" || config.HTTPSProxy != "" {
		clientConfig.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		}
	}

	return &SafetyClassifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// CheckSafety scores text. Empty text scores zero without a model call.
func (c *SafetyClassifier) CheckSafety(ctx context.Context, text string) (model.SafetyReport, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.SafetyReport{}, nil
	}
	if runes := []rune(text); len(runes) > MaxSafetyTextLength {
		text = string(runes[:MaxSafetyTextLength]) + "\n[... truncated]"
	}

	name := c.config.Model
	if name == "" {
		name = openai.GPT4oMini
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: safetySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   128,
		Temperature: 0,
	})
	if err != nil {
		return model.SafetyReport{}, fmt.Errorf("content safety: %w: %w", model.ErrServiceUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return model.SafetyReport{}, fmt.Errorf("content safety: empty reply: %w", model.ErrServiceUnavailable)
	}

	return ParseSafety(resp.Choices[0].Message.Content), nil
}

// ParseSafety decodes a model reply into clamped scores. A reply without a
// readable JSON object scores zero on every risk.
func ParseSafety(content string) model.SafetyReport {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return model.SafetyReport{}
	}

	var raw struct {
		PrivacyLeak json.Number `json:"pil"`
		Harmful     json.Number `json:"harmful"`
		Unwanted    json.Number `json:"unwanted"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return model.SafetyReport{}
	}

	return model.SafetyReport{
		PrivacyLeak: unitScore(raw.PrivacyLeak),
		Harmful:     unitScore(raw.Harmful),
		Unwanted:    unitScore(raw.Unwanted),
	}
}

func unitScore(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return min(max(f, 0), 1)
}

package upstream

import (
	"context"
	"fmt"

	"github.com/ppiankov/trustlens/internal/model"
)

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	OverallScore   float64 `json:"overall_score"`
	SentenceScores []struct {
		Sentence string  `json:"sentence"`
		Score    float64 `json:"score"`
	} `json:"sentence_scores"`
	Provider string `json:"provider"`
}

// TextClient calls the AI-text origin detector
type TextClient struct {
	*client
}

// NewTextClient creates a client for POST {base}/v1/ai-detect
func NewTextClient(opts Options) *TextClient {
	return &TextClient{client: newClient(model.ServiceTextOrigin, opts)}
}

// Detect scores how likely the text is machine-written
func (c *TextClient) Detect(ctx context.Context, text string) (model.TextOriginReport, error) {
	var resp textResponse
	if err := c.postJSON(ctx, "/v1/ai-detect", textRequest{Text: text}, &resp); err != nil {
		return model.TextOriginReport{}, fmt.Errorf("text origin: %w", err)
	}

	report := model.TextOriginReport{
		OverallScore: resp.OverallScore,
		Provider:     resp.Provider,
	}
	for _, s := range resp.SentenceScores {
		report.Sentences = append(report.Sentences, model.SentenceScore{Sentence: s.Sentence, Score: s.Score})
	}
	return report, nil
}

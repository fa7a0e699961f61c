package upstream

import (
	"context"
	"fmt"

	"github.com/ppiankov/trustlens/internal/model"
)

type factRequest struct {
	Fact string `json:"fact"`
}

type factResponse struct {
	TruthValue  *bool  `json:"truth_value"`
	Explanation string `json:"explanation"`
	Provider    string `json:"provider"`
}

// FactClient calls the fact verification service
type FactClient struct {
	*client
}

// NewFactClient creates a client for POST {base}/v1/fact/check
func NewFactClient(opts Options) *FactClient {
	return &FactClient{client: newClient(model.ServiceFactCheck, opts)}
}

// Check verifies a single claim
func (c *FactClient) Check(ctx context.Context, claim string) (model.CheckedClaim, error) {
	var resp factResponse
	if err := c.postJSON(ctx, "/v1/fact/check", factRequest{Fact: claim}, &resp); err != nil {
		return model.CheckedClaim{}, fmt.Errorf("fact check: %w", err)
	}
	if resp.TruthValue == nil {
		return model.CheckedClaim{}, fmt.Errorf("fact check: %w: reply has no truth_value", model.ErrServiceUnavailable)
	}

	explanation := resp.Explanation
	if explanation == "" {
		explanation = "No explanation provided."
	}

	return model.CheckedClaim{
		Quote:       claim,
		Truth:       *resp.TruthValue,
		Explanation: explanation,
		Provider:    resp.Provider,
	}, nil
}

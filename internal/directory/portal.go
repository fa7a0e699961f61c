package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// ValidateResponse is the body of GET /auth/validate
type ValidateResponse struct {
	Valid  bool          `json:"valid"`
	Mode   model.KeyMode `json:"mode,omitempty"`
	Prompt string        `json:"prompt,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BlacklistResponse is the body of GET /control/blacklist
type BlacklistResponse struct {
	Blacklist []string `json:"blacklist"`
}

// Portal asks a remote portal (or another trustlens backend) over HTTP
type Portal struct {
	baseURL    string
	httpClient *http.Client
}

// NewPortal creates a portal directory client
func NewPortal(baseURL string, httpClient *http.Client) *Portal {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Portal{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Lookup implements Directory
func (p *Portal) Lookup(ctx context.Context, key string) (model.KeyInfo, error) {
	var resp ValidateResponse
	status, err := p.get(ctx, "/auth/validate", key, &resp)
	if err != nil {
		return model.KeyInfo{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden || (status == http.StatusOK && !resp.Valid) {
		return model.KeyInfo{}, fmt.Errorf("portal: %s: %w", resp.Error, model.ErrInvalidKey)
	}
	if status != http.StatusOK {
		return model.KeyInfo{}, fmt.Errorf("portal validate: unexpected status %d", status)
	}
	return model.KeyInfo{Key: key, Mode: resp.Mode, Prompt: resp.Prompt}, nil
}

// Blacklist implements Directory
func (p *Portal) Blacklist(ctx context.Context, key string) ([]string, error) {
	var resp BlacklistResponse
	status, err := p.get(ctx, "/control/blacklist", key, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("portal blacklist: unexpected status %d", status)
	}
	return normalizeDomains(resp.Blacklist), nil
}

func (p *Portal) get(ctx context.Context, path, key string, out any) (int, error) {
	endpoint := p.baseURL + path + "?" + url.Values{"api_key": {key}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("portal request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Error replies may carry a JSON body too; decode whatever is there
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.StatusCode == http.StatusOK {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

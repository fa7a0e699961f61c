package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/redact"
)

// BuildInput is everything harvested for one user action
type BuildInput struct {
	CallerKey     string
	Prompt        string
	Snapshot      model.PageSnapshot
	Assets        []model.MediaAsset
	RunFactCheck  bool
	RunMediaCheck bool
}

// Builder assembles the outbound AnalysisRequest. All free text passes
// through the redactor here, so nothing unmasked leaves the client.
type Builder struct {
	redactor *redact.Redactor
}

// NewBuilder creates a builder around the given redactor
func NewBuilder(redactor *redact.Redactor) *Builder {
	if redactor == nil {
		redactor = redact.NewRedactor()
	}
	return &Builder{redactor: redactor}
}

// Build redacts the page text and prompt, splits assets by kind under the
// request caps and returns the request with the page text's redaction result
func (b *Builder) Build(in BuildInput) (model.AnalysisRequest, model.RedactionResult, error) {
	if strings.TrimSpace(in.CallerKey) == "" {
		return model.AnalysisRequest{}, model.RedactionResult{}, fmt.Errorf("no caller key configured: %w", model.ErrInvalidKey)
	}

	masked := b.redactor.Redact(in.Snapshot.Text)

	req := model.AnalysisRequest{
		CallerKey:     strings.TrimSpace(in.CallerKey),
		Prompt:        b.redactor.Redact(in.Prompt).MaskedText,
		MaskedText:    masked.MaskedText,
		SourceURL:     sanitizeURL(in.Snapshot.SourceURL),
		RunFactCheck:  in.RunFactCheck,
		RunMediaCheck: in.RunMediaCheck,
	}

	if in.RunMediaCheck {
		for _, a := range in.Assets {
			switch a.Kind {
			case model.MediaVideo:
				if len(req.VideoAssets) < model.MaxVideoAssets {
					req.VideoAssets = append(req.VideoAssets, a)
				}
			default:
				if len(req.ImageAssets) < model.MaxImageAssets {
					req.ImageAssets = append(req.ImageAssets, a)
				}
			}
		}
	}

	if !req.HasText() && len(req.ImageAssets) == 0 && len(req.VideoAssets) == 0 {
		return model.AnalysisRequest{}, masked, fmt.Errorf("page has no text or media: %w", model.ErrValidation)
	}
	return req, masked, nil
}

// sanitizeURL drops credentials, query and fragment, which commonly carry
// personal data
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

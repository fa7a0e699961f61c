package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// AnalysisClient sends analysis requests to the trustlens backend
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnalysisClient creates a client for {base}/analysis/run
func NewAnalysisClient(baseURL string, httpClient *http.Client) *AnalysisClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AnalysisClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Run posts the request as multipart form data and decodes the assessment.
// Auth and validation rejections come back as the matching model errors.
func (c *AnalysisClient) Run(ctx context.Context, req model.AnalysisRequest) (model.TrustAssessment, error) {
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return model.TrustAssessment{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analysis/run", body)
	if err != nil {
		return model.TrustAssessment{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.TrustAssessment{}, fmt.Errorf("analysis request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return model.TrustAssessment{}, statusError(resp.StatusCode, e.Error)
	}

	var assessment model.TrustAssessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return model.TrustAssessment{}, fmt.Errorf("decode assessment: %w", err)
	}
	return assessment, nil
}

// statusError maps backend status codes back onto model errors
func statusError(code int, msg string) error {
	if msg == "" {
		msg = http.StatusText(code)
	}
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("backend: %s: %w", msg, model.ErrInvalidKey)
	case http.StatusForbidden:
		return fmt.Errorf("backend: %s: %w", msg, model.ErrWrongMode)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("backend: %s: %w", msg, model.ErrValidation)
	case http.StatusBadGateway:
		return fmt.Errorf("backend: %s: %w", msg, model.ErrAllServicesFailed)
	default:
		return fmt.Errorf("backend: unexpected status %d: %s", code, msg)
	}
}

func encodeMultipart(req model.AnalysisRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"api_key", req.CallerKey},
		{"prompt", req.Prompt},
		{"website_content", req.MaskedText},
		{"website_url", req.SourceURL},
		{"send_fact_check", strconv.FormatBool(req.RunFactCheck)},
		{"send_media_check", strconv.FormatBool(req.RunMediaCheck)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	for _, a := range req.Assets() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file[]"; filename=%q`, a.Filename()))
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		h.Set("X-Media-Kind", string(a.Kind))
		h.Set("X-Source-Url", a.SourceURL)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(a.Bytes); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/ppiankov/trustlens/internal/model"
)

type mediaURLRequest struct {
	MediaURL string `json:"media_url"`
	TypeHint string `json:"type_hint,omitempty"`
}

type mediaResponse struct {
	MediaURL  string          `json:"media_url"`
	MediaType string          `json:"media_type"`
	Provider  string          `json:"provider"`
	Chunks    []model.Segment `json:"chunks"`
}

// MediaClient calls the AI/deepfake media detection service
type MediaClient struct {
	*client
}

// NewMediaClient creates a client for the media check endpoints
func NewMediaClient(opts Options) *MediaClient {
	return &MediaClient{client: newClient(model.ServiceMediaCheck, opts)}
}

// Check analyzes one asset. Assets with bytes are uploaded as multipart
// "file"; assets without bytes are checked by URL.
func (c *MediaClient) Check(ctx context.Context, asset model.MediaAsset) (model.MediaVerdict, error) {
	var resp mediaResponse
	var err error
	if len(asset.Bytes) > 0 {
		err = c.upload(ctx, asset, &resp)
	} else {
		err = c.postJSON(ctx, "/v1/media/check", mediaURLRequest{MediaURL: asset.SourceURL, TypeHint: string(asset.Kind)}, &resp)
	}
	if err != nil {
		return model.MediaVerdict{}, fmt.Errorf("media check %s: %w", asset.Filename(), err)
	}

	ref := asset.SourceURL
	if ref == "" {
		ref = resp.MediaURL
	}
	mediaType := resp.MediaType
	if mediaType == "" {
		mediaType = string(asset.Kind)
	}

	return model.MediaVerdict{
		MediaRef:  ref,
		MediaType: mediaType,
		Provider:  resp.Provider,
		Segments:  resp.Chunks,
	}, nil
}

func (c *MediaClient) upload(ctx context.Context, asset model.MediaAsset, out *mediaResponse) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, asset.Filename()))
	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(asset.Bytes); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := w.WriteField("type_hint", string(asset.Kind)); err != nil {
		return fmt.Errorf("write form field: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	body := buf.Bytes()
	return c.do(ctx, "/v1/media/check/upload", w.FormDataContentType(), func() io.Reader { return bytes.NewReader(body) }, out)
}

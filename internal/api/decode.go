package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk
const multipartMemory = 8 << 20

// jsonAnalysisRequest is the JSON form of POST /analysis/run. File data is base64.
type jsonAnalysisRequest struct {
	APIKey         string     `json:"api_key"`
	Prompt         string     `json:"prompt"`
	WebsiteContent string     `json:"website_content"`
	WebsiteURL     string     `json:"website_url"`
	SendFactCheck  *bool      `json:"send_fact_check"`
	SendMediaCheck *bool      `json:"send_media_check"`
	Files          []jsonFile `json:"files"`
}

type jsonFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Kind        string `json:"kind"`
	SourceURL   string `json:"source_url"`
	Data        []byte `json:"data"`
}

// decodeAnalysisRequest reads a multipart or JSON analysis request
func decodeAnalysisRequest(r *http.Request) (model.AnalysisRequest, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("invalid content type")
	}

	switch mediaType {
	case "multipart/form-data":
		return decodeMultipart(r)
	case "application/json":
		return decodeJSON(r.Body)
	default:
		return model.AnalysisRequest{}, fmt.Errorf("unsupported content type: %s", mediaType)
	}
}

func decodeMultipart(r *http.Request) (model.AnalysisRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("parse multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	factCheck, err := formBool(r.FormValue("send_fact_check"), true)
	if err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("send_fact_check: %w", err)
	}
	mediaCheck, err := formBool(r.FormValue("send_media_check"), true)
	if err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("send_media_check: %w", err)
	}

	req := model.AnalysisRequest{
		CallerKey:     strings.TrimSpace(r.FormValue("api_key")),
		Prompt:        r.FormValue("prompt"),
		MaskedText:    r.FormValue("website_content"),
		SourceURL:     r.FormValue("website_url"),
		RunFactCheck:  factCheck,
		RunMediaCheck: mediaCheck,
	}
	if req.CallerKey == "" {
		req.CallerKey = strings.TrimSpace(r.Header.Get("X-API-Key"))
	}

	for _, fh := range r.MultipartForm.File["file[]"] {
		asset, err := readPart(fh)
		if err != nil {
			return model.AnalysisRequest{}, err
		}
		appendAsset(&req, asset)
	}
	return req, nil
}

func readPart(fh *multipart.FileHeader) (model.MediaAsset, error) {
	f, err := fh.Open()
	if err != nil {
		return model.MediaAsset{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return model.MediaAsset{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	sourceURL := fh.Header.Get("X-Source-Url")
	if sourceURL == "" {
		sourceURL = fh.Filename
	}
	return model.MediaAsset{
		SourceURL:   sourceURL,
		Kind:        assetKind(fh.Header.Get("X-Media-Kind"), contentType),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Bytes:       data,
	}, nil
}

func decodeJSON(body io.Reader) (model.AnalysisRequest, error) {
	var in jsonAnalysisRequest
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		return model.AnalysisRequest{}, fmt.Errorf("invalid request body: %w", err)
	}

	req := model.AnalysisRequest{
		CallerKey:     strings.TrimSpace(in.APIKey),
		Prompt:        in.Prompt,
		MaskedText:    in.WebsiteContent,
		SourceURL:     in.WebsiteURL,
		RunFactCheck:  in.SendFactCheck == nil || *in.SendFactCheck,
		RunMediaCheck: in.SendMediaCheck == nil || *in.SendMediaCheck,
	}
	for _, f := range in.Files {
		sourceURL := f.SourceURL
		if sourceURL == "" {
			sourceURL = f.Filename
		}
		appendAsset(&req, model.MediaAsset{
			SourceURL:   sourceURL,
			Kind:        assetKind(f.Kind, f.ContentType),
			ContentType: f.ContentType,
			SizeBytes:   int64(len(f.Data)),
			Bytes:       f.Data,
		})
	}
	return req, nil
}

// appendAsset sorts an upload by kind. Caps are enforced by the orchestrator,
// which rejects requests over them.
func appendAsset(req *model.AnalysisRequest, a model.MediaAsset) {
	if a.Kind == model.MediaVideo {
		req.VideoAssets = append(req.VideoAssets, a)
		return
	}
	req.ImageAssets = append(req.ImageAssets, a)
}

func assetKind(declared, contentType string) model.MediaKind {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case string(model.MediaVideo):
		return model.MediaVideo
	case string(model.MediaImage):
		return model.MediaImage
	}
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return model.MediaVideo
	}
	return model.MediaImage
}

// formBool parses an optional form flag. Empty means the default.
func formBool(v string, def bool) (bool, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

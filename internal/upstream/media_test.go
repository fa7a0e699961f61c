package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/trustlens/internal/model"
)

func TestMediaClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/media/check/upload" {
			t.Errorf("Expected upload path, got %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("read form file: %v", err)
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		if string(data) != "JPEGDATA" {
			t.Errorf("Unexpected upload body %q", data)
		}
		if header.Filename != "cat.jpg" {
			t.Errorf("Unexpected filename %q", header.Filename)
		}
		if r.FormValue("type_hint") != "image" {
			t.Errorf("Unexpected type hint %q", r.FormValue("type_hint"))
		}

		_, _ = w.Write([]byte(`{"media_url": "cat.jpg", "media_type": "image", "provider": "hive",
			"chunks": [{"index": 0, "start_seconds": 0, "end_seconds": 0, "ai_generated_score": 0.91, "deepfake_score": null, "label": "ai_generated"}]}`))
	}))
	defer server.Close()

	c := NewMediaClient(Options{BaseURL: server.URL})
	verdict, err := c.Check(context.Background(), model.MediaAsset{
		SourceURL:   "https://example.com/img/cat.jpg",
		Kind:        model.MediaImage,
		ContentType: "image/jpeg",
		Bytes:       []byte("JPEGDATA"),
		SizeBytes:   8,
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if verdict.MediaRef != "https://example.com/img/cat.jpg" {
		t.Errorf("Expected source URL as media ref, got %q", verdict.MediaRef)
	}
	if len(verdict.Segments) != 1 || verdict.Segments[0].Deepfake != nil {
		t.Fatalf("Unexpected segments: %+v", verdict.Segments)
	}
	if verdict.MaxScore() != 0.91 {
		t.Errorf("MaxScore = %v, want 0.91", verdict.MaxScore())
	}
}

func TestMediaClient_ByURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/media/check" {
			t.Errorf("Expected URL check path, got %s", r.URL.Path)
		}
		var req mediaURLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MediaURL != "https://example.com/v.mp4" || req.TypeHint != "video" {
			t.Errorf("Unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"media_url": "https://example.com/v.mp4", "media_type": "video", "chunks": []}`))
	}))
	defer server.Close()

	verdict, err := NewMediaClient(Options{BaseURL: server.URL}).Check(context.Background(), model.MediaAsset{
		SourceURL: "https://example.com/v.mp4",
		Kind:      model.MediaVideo,
	})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if verdict.MediaType != "video" {
		t.Errorf("Unexpected media type %q", verdict.MediaType)
	}
}

func TestTextClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ai-detect" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"overall_score": 0.73, "sentence_scores": [{"sentence": "Hi.", "score": 0.7}], "provider": "sapling"}`))
	}))
	defer server.Close()

	report, err := NewTextClient(Options{BaseURL: server.URL}).Detect(context.Background(), "Hi.")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if report.OverallScore != 0.73 || len(report.Sentences) != 1 || report.Provider != "sapling" {
		t.Errorf("Unexpected report: %+v", report)
	}
}

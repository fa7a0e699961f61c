package model

import (
	"net/url"
	"path"
)

// PageSnapshot is the harvested view of one page, produced once per analysis request
type PageSnapshot struct {
	SourceURL string   `json:"source_url"`
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text"`       // Extracted page text, truncated to the harvest limit
	ImageURLs []string `json:"image_urls"` // Absolute http(s) URLs in document order, deduplicated
	VideoURLs []string `json:"video_urls"` // Absolute http(s) URLs in document order, deduplicated
}

// MediaKind classifies a media asset
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is a downloaded binary that passed its size cap
type MediaAsset struct {
	SourceURL   string    `json:"source_url"`
	Kind        MediaKind `json:"kind"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Bytes       []byte    `json:"-"`
}

// Filename returns a stable upload name for the asset
func (a MediaAsset) Filename() string {
	if u, err := url.Parse(a.SourceURL); err == nil {
		if name := path.Base(u.Path); name != "/" && name != "." {
			return name
		}
	}
	return string(a.Kind)
}

// HarvestMode selects the asset budget
type HarvestMode int

const (
	// ModeLightweight is the default budget used for on-demand checks
	ModeLightweight HarvestMode = iota
	// ModePanic allows a full-length video for the deeper check
	ModePanic
)

func (m HarvestMode) String() string {
	switch m {
	case ModePanic:
		return "panic"
	default:
		return "lightweight"
	}
}

package model

import "strings"

// Request limits for one analysis call
const (
	MaxImageAssets = 5
	MaxVideoAssets = 1
)

// AnalysisRequest is the redacted payload sent from the client to the orchestrator
type AnalysisRequest struct {
	CallerKey     string
	Prompt        string
	MaskedText    string
	SourceURL     string
	ImageAssets   []MediaAsset
	VideoAssets   []MediaAsset
	RunFactCheck  bool
	RunMediaCheck bool
}

// HasText reports whether there is any text to analyze
func (r AnalysisRequest) HasText() bool {
	return strings.TrimSpace(r.MaskedText) != ""
}

// Assets returns image assets followed by video assets
func (r AnalysisRequest) Assets() []MediaAsset {
	out := make([]MediaAsset, 0, len(r.ImageAssets)+len(r.VideoAssets))
	out = append(out, r.ImageAssets...)
	return append(out, r.VideoAssets...)
}

// KeyMode is the operating mode encoded in a caller key
type KeyMode string

const (
	ModeAgent   KeyMode = "agent"
	ModeControl KeyMode = "control"
)

// KeyInfo describes a caller key known to the directory
type KeyInfo struct {
	Key    string  `json:"-"`
	Mode   KeyMode `json:"mode"`
	Prompt string  `json:"prompt,omitempty"`
}

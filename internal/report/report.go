// Package report renders trust assessments for people (Markdown, terminal
// summary) and for tools (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/trustlens/internal/model"
)

// Report is one scanned page with its assessment. It holds no page text:
// only the categories of redacted personal data are kept.
type Report struct {
	URL            string                      `json:"url"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	Mode           string                      `json:"mode"`
	Assessment     model.TrustAssessment       `json:"assessment"`
	RedactedTypes  []model.PIICategory         `json:"redacted_types"`
	Classification *model.ClassificationResult `json:"classification,omitempty"`
}

// Verdict buckets a trust score for display
func Verdict(score int) string {
	switch {
	case score < 40:
		return "low trust"
	case score < 70:
		return "mixed"
	default:
		return "high trust"
	}
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteSummary prints a short human-readable summary
func WriteSummary(w io.Writer, r Report) {
	a := r.Assessment
	fmt.Fprintf(w, "Trust score: %d/100 (%s)\n", a.Score, Verdict(a.Score))
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	if a.Explanation != "" {
		fmt.Fprintf(w, "%s\n", a.Explanation)
	}
	fmt.Fprintf(w, "Disputed facts: %d, supported facts: %d\n", len(a.DisputedFacts), len(a.SupportedFacts))
	fmt.Fprintf(w, "Flagged media: %d of %d\n", len(a.FlaggedMedia), len(a.FlaggedMedia)+len(a.CleanMedia))
	if len(r.RedactedTypes) > 0 {
		fmt.Fprintf(w, "Redacted before sending: %v\n", r.RedactedTypes)
	}
}

// WriteFile renders the report to path with the given writer func
func WriteFile(path string, r Report, write func(io.Writer, Report) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

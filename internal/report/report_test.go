package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/trustlens/internal/model"
)

func sampleReport() Report {
	score := 0.93
	return Report{
		URL:         "https://news.test/story",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Assessment: model.TrustAssessment{
			Score:         12,
			Explanation:   "Fact check: 1 of 1 checked claims disputed.",
			DisputedFacts: []model.Fact{{Quote: "The Eiffel Tower is in Berlin.", Explanation: "It is in Paris | France."}},
			FlaggedMedia: []model.MediaFinding{{
				MediaRef:  "https://news.test/fake.png",
				MediaType: "image",
				Segments:  []model.Segment{{AIGenerated: &score, Label: "ai_generated"}},
			}},
			ContentSafety: &model.SafetyReport{Harmful: 0.71, Unwanted: 0.2},
			Services: []model.ServiceStatus{
				{Service: model.ServiceFactCheck, Status: model.StatusSuccess},
				{Service: model.ServiceTextOrigin, Status: model.StatusTimedOut, Error: "service timed out"},
			},
		},
		Mode:          "lightweight",
		RedactedTypes: []model.PIICategory{model.PIIEmail},
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Trust Assessment",
		"12",
		"low trust",
		"## Disputed Facts",
		"The Eiffel Tower is in Berlin.",
		"Paris",
		"## Media",
		"0.93",
		"0.71",
		"timed_out",
		"- email",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected markdown to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Supported Facts") {
		t.Error("Expected empty sections to be omitted")
	}
}

func TestWriteMarkdown_NoPII(t *testing.T) {
	r := sampleReport()
	r.RedactedTypes = nil
	r.Assessment.Score = 85

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, r); err != nil {
		t.Fatalf("WriteMarkdown failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No personal data was detected") {
		t.Error("Expected no-PII note")
	}
	if !strings.Contains(buf.String(), "No significant trust issues") {
		t.Error("Expected high trust tip")
	}
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := WriteFile(path, sampleReport(), WriteJSON); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	assessment, _ := got["assessment"].(map[string]any)
	if assessment["trust_score"] != float64(12) {
		t.Errorf("Expected trust_score 12, got %v", assessment["trust_score"])
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "low trust"},
		{39, "low trust"},
		{40, "mixed"},
		{69, "mixed"},
		{70, "high trust"},
		{100, "high trust"},
	}
	for _, tt := range tests {
		if got := Verdict(tt.score); got != tt.want {
			t.Errorf("Verdict(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/ppiankov/trustlens/internal/model"
)

// WriteMarkdown renders the report as GitHub-flavored Markdown
func WriteMarkdown(w io.Writer, r Report) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, r)
	writeFacts(md, "Disputed Facts", r.Assessment.DisputedFacts)
	writeFacts(md, "Supported Facts", r.Assessment.SupportedFacts)
	writeMedia(md, r.Assessment)
	writeServices(md, r.Assessment.Services)
	writePrivacy(md, r)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by trustlens at %s*", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))

	if err := md.Build(); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

func writeHeader(md *markdown.Markdown, r Report) {
	a := r.Assessment
	md.H1("Trust Assessment")
	md.PlainText("")

	aiText := "-"
	if a.AITextScore != nil {
		aiText = fmt.Sprintf("%.2f", *a.AITextScore)
	}
	safety := "-"
	if a.ContentSafety != nil {
		safety = fmt.Sprintf("%.2f", a.ContentSafety.Max())
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + r.URL + "`"},
			{"Trust Score", fmt.Sprintf("**%d**/100", a.Score)},
			{"Verdict", Verdict(a.Score)},
			{"AI Text Score", aiText},
			{"Content Risk", safety},
			{"Harvest Mode", r.Mode},
		},
	})
	md.PlainText("")

	switch {
	case a.Score < 40:
		md.Cautionf("Low trust. %d disputed fact(s), %d flagged media item(s).", len(a.DisputedFacts), len(a.FlaggedMedia))
	case a.Score < 70:
		md.Warningf("Mixed signals. Review the findings below before relying on this page.")
	default:
		md.Tip("No significant trust issues detected.")
	}
	md.PlainText("")

	if a.Explanation != "" {
		md.PlainText(a.Explanation)
		md.PlainText("")
	}
}

func writeFacts(md *markdown.Markdown, title string, facts []model.Fact) {
	if len(facts) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")

	rows := make([][]string, len(facts))
	for i, f := range facts {
		source := f.Source
		if source == "" {
			source = "-"
		}
		rows[i] = []string{cell(f.Quote), cell(f.Explanation), source}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Fact", "Explanation", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeMedia(md *markdown.Markdown, a model.TrustAssessment) {
	if len(a.FlaggedMedia) == 0 && len(a.CleanMedia) == 0 {
		return
	}
	md.H2("Media")
	md.PlainText("")

	var rows [][]string
	add := func(items []model.MediaFinding, status string) {
		for _, m := range items {
			maxScore, labels := 0.0, []string{}
			for _, s := range m.Segments {
				maxScore = max(maxScore, s.Max())
				if s.Label != "" {
					labels = append(labels, s.Label)
				}
			}
			rows = append(rows, []string{
				status,
				"`" + m.MediaRef + "`",
				m.MediaType,
				strconv.Itoa(len(m.Segments)),
				fmt.Sprintf("%.2f", maxScore),
				strings.Join(labels, ", "),
			})
		}
	}
	add(a.FlaggedMedia, "flagged")
	add(a.CleanMedia, "clean")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Media", "Type", "Segments", "Max Score", "Labels"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeServices(md *markdown.Markdown, services []model.ServiceStatus) {
	if len(services) == 0 {
		return
	}
	md.H2("Services")
	md.PlainText("")

	rows := make([][]string, len(services))
	for i, s := range services {
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{string(s.Service), string(s.Status), errText}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Service", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writePrivacy(md *markdown.Markdown, r Report) {
	md.H2("Privacy")
	md.PlainText("")
	if len(r.RedactedTypes) == 0 {
		md.PlainText("No personal data was detected in the page text.")
		md.PlainText("")
	} else {
		items := make([]string, len(r.RedactedTypes))
		for i, t := range r.RedactedTypes {
			items[i] = string(t)
		}
		md.PlainText("Masked before the page left this machine:")
		md.PlainText("")
		md.BulletList(items...)
		md.PlainText("")
	}

	if r.Classification != nil && len(r.Classification.Categories) > 0 {
		md.Note("Content categories: " + strings.Join(r.Classification.Categories, ", "))
		md.PlainText("")
	}
}

// cell keeps table cells on one line
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

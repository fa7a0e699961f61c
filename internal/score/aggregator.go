package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// Aggregator merges service outcomes into one TrustAssessment
type Aggregator struct {
	cfg model.AggregatorConfig
}

// NewAggregator creates a new aggregator; zero-valued thresholds take defaults
func NewAggregator(cfg model.AggregatorConfig) *Aggregator {
	def := model.DefaultConfig().Aggregator
	if cfg.FactTrueScore == 0 && cfg.FactFalseScore == 0 {
		cfg.FactTrueScore, cfg.FactFalseScore = def.FactTrueScore, def.FactFalseScore
	}
	if cfg.NeutralScore == 0 {
		cfg.NeutralScore = def.NeutralScore
	}
	if cfg.MediaWeight == 0 {
		cfg.MediaWeight = def.MediaWeight
	}
	if cfg.ExtremeHigh == 0 {
		cfg.ExtremeHigh = def.ExtremeHigh
	}
	if cfg.ExtremeLow == 0 {
		cfg.ExtremeLow = def.ExtremeLow
	}
	if cfg.FlagThreshold == 0 {
		cfg.FlagThreshold = def.FlagThreshold
	}
	if cfg.TextThreshold == 0 {
		cfg.TextThreshold = def.TextThreshold
	}
	if cfg.TextMaxPenalty == 0 {
		cfg.TextMaxPenalty = def.TextMaxPenalty
	}
	if cfg.SafetyThreshold == 0 {
		cfg.SafetyThreshold = def.SafetyThreshold
	}
	return &Aggregator{cfg: cfg}
}

// evidence is the outcome list regrouped by service
type evidence struct {
	fact      *model.FactReport
	media     *model.MediaReport
	text      *model.TextOriginReport
	safety    *model.SafetyReport
	factOut   *model.ServiceOutcome
	mediaOut  *model.ServiceOutcome
	textOut   *model.ServiceOutcome
	safetyOut *model.ServiceOutcome
	statuses  []model.ServiceStatus
}

// Aggregate merges the outcomes. It never fails and is independent of outcome order.
func (a *Aggregator) Aggregate(outcomes []model.ServiceOutcome) model.TrustAssessment {
	ev := collect(outcomes)

	assessment := model.TrustAssessment{
		DisputedFacts:  []model.Fact{},
		SupportedFacts: []model.Fact{},
		FlaggedMedia:   []model.MediaFinding{},
		CleanMedia:     []model.MediaFinding{},
		Services:       ev.statuses,
	}

	// 1. Fact-check base score
	base, factOK, factNote := a.calculateFactBase(ev)
	if ev.fact != nil {
		for _, c := range ev.fact.Claims {
			f := model.Fact{Quote: c.Quote, Explanation: c.Explanation, Source: c.Provider}
			if c.Truth {
				assessment.SupportedFacts = append(assessment.SupportedFacts, f)
			} else {
				assessment.DisputedFacts = append(assessment.DisputedFacts, f)
			}
		}
	}

	// 2. Media evidence
	score, mediaNote := a.applyMedia(base, factOK, ev)
	if ev.media != nil {
		for _, item := range ev.media.Items {
			finding := model.MediaFinding{MediaRef: item.MediaRef, MediaType: item.MediaType, Segments: item.Segments}
			if finding.Segments == nil {
				finding.Segments = []model.Segment{}
			}
			if a.isFlagged(item) {
				assessment.FlaggedMedia = append(assessment.FlaggedMedia, finding)
			} else {
				assessment.CleanMedia = append(assessment.CleanMedia, finding)
			}
		}
	}

	// 3. Text-origin penalty
	penalty, textNote := a.calculateTextPenalty(ev)
	score -= float64(penalty)
	if ev.text != nil {
		overall := ev.text.OverallScore
		assessment.AITextScore = &overall
	}

	// 4. Content safety is reported alongside the score, never folded into it
	safetyNote := a.safetyNote(ev)
	if ev.safety != nil {
		scores := *ev.safety
		assessment.ContentSafety = &scores
	}

	assessment.Score = clamp(int(math.Round(score)))
	assessment.Explanation = joinNotes(factNote, mediaNote, textNote, safetyNote)

	return assessment
}

// collect groups outcomes by service. Outcomes are sorted first so that
// duplicate or reordered lists produce the same result.
func collect(outcomes []model.ServiceOutcome) evidence {
	sorted := make([]model.ServiceOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Service != sorted[j].Service {
			return sorted[i].Service < sorted[j].Service
		}
		return statusRank(sorted[i].Status) < statusRank(sorted[j].Status)
	})

	var ev evidence
	for i := range sorted {
		o := &sorted[i]
		status := model.ServiceStatus{Service: o.Service, Status: o.Status, Error: o.ErrorKind()}

		switch o.Service {
		case model.ServiceFactCheck:
			if ev.factOut != nil {
				continue
			}
			ev.factOut = o
			if p, ok := o.Payload.(model.FactReport); ok && o.Status == model.StatusSuccess {
				ev.fact = &p
			}
		case model.ServiceMediaCheck:
			if ev.mediaOut != nil {
				continue
			}
			ev.mediaOut = o
			if p, ok := o.Payload.(model.MediaReport); ok && o.Status == model.StatusSuccess {
				ev.media = &p
			}
		case model.ServiceTextOrigin:
			if ev.textOut != nil {
				continue
			}
			ev.textOut = o
			if p, ok := o.Payload.(model.TextOriginReport); ok && o.Status == model.StatusSuccess {
				ev.text = &p
			}
		case model.ServiceContentSafety:
			if ev.safetyOut != nil {
				continue
			}
			ev.safetyOut = o
			if p, ok := o.Payload.(model.SafetyReport); ok && o.Status == model.StatusSuccess {
				ev.safety = &p
			}
		default:
			continue
		}
		ev.statuses = append(ev.statuses, status)
	}
	return ev
}

// statusRank prefers successful outcomes when a service appears twice
func statusRank(s model.OutcomeStatus) int {
	switch s {
	case model.StatusSuccess:
		return 0
	case model.StatusFailed:
		return 1
	case model.StatusTimedOut:
		return 2
	default:
		return 3
	}
}

// calculateFactBase maps the share of supported claims onto [FactFalseScore, FactTrueScore].
// No fact result, or no checked claims, yields the neutral midpoint.
func (a *Aggregator) calculateFactBase(ev evidence) (float64, bool, string) {
	neutral := float64(a.cfg.NeutralScore)

	if ev.factOut == nil || ev.factOut.Status == model.StatusSkipped {
		return neutral, false, ""
	}
	if ev.fact == nil {
		return neutral, false, "Fact check: " + unavailable("fact-checking", ev.factOut)
	}

	trueCount, falseCount := ev.fact.Counts()
	total := trueCount + falseCount
	if total == 0 {
		return neutral, false, "Fact check: no checkable claims were found in the content."
	}

	ratio := float64(trueCount) / float64(total)
	base := float64(a.cfg.FactFalseScore) + float64(a.cfg.FactTrueScore-a.cfg.FactFalseScore)*ratio

	var b strings.Builder
	b.WriteString("Fact check: ")
	if falseCount > 0 {
		b.WriteString("The content may not be accurate. ")
	} else {
		b.WriteString("The content appears to be accurate or supported. ")
	}
	fmt.Fprintf(&b, "%d of %d checked claims supported.", trueCount, total)
	if lead := leadExplanation(ev.fact.Claims); lead != "" {
		b.WriteString(" ")
		b.WriteString(lead)
	}

	return base, true, b.String()
}

// leadExplanation returns the rationale for the first disputed claim, else the first supported one
func leadExplanation(claims []model.CheckedClaim) string {
	for _, c := range claims {
		if !c.Truth && c.Explanation != "" {
			return fmt.Sprintf("%q: %s", c.Quote, c.Explanation)
		}
	}
	for _, c := range claims {
		if c.Explanation != "" {
			return fmt.Sprintf("%q: %s", c.Quote, c.Explanation)
		}
	}
	return ""
}

// applyMedia layers the strongest synthetic-media segment over the base score.
// When fact and media disagree, an extreme media score replaces the base,
// otherwise the two are averaged. When they agree the base is down-weighted,
// never below (1 - MediaWeight) of itself.
func (a *Aggregator) applyMedia(base float64, factOK bool, ev evidence) (float64, string) {
	if ev.mediaOut == nil || ev.mediaOut.Status == model.StatusSkipped {
		return base, ""
	}
	if ev.media == nil {
		return base, "Media check: " + unavailable("media-checking", ev.mediaOut)
	}

	items := 0
	flagged := 0
	maxSeg := 0.0
	hasScores := false
	for _, item := range ev.media.Items {
		items++
		if a.isFlagged(item) {
			flagged++
		}
		for _, s := range item.Segments {
			if s.AIGenerated != nil || s.Deepfake != nil {
				hasScores = true
			}
		}
		if m := item.MaxScore(); m > maxSeg {
			maxSeg = m
		}
	}

	if items == 0 {
		return base, "Media check: no media could be analyzed."
	}

	var note string
	if flagged > 0 {
		note = fmt.Sprintf("Media check: %d of %d media items are likely AI-generated or synthetic (strongest segment score %.2f).", flagged, items, maxSeg)
	} else {
		note = fmt.Sprintf("Media check: no AI-generated or synthetic media detected in %d items.", items)
	}
	if !hasScores {
		return base, note
	}

	neutral := float64(a.cfg.NeutralScore)
	mediaTrust := 100 * (1 - maxSeg)
	mediaFlagged := maxSeg >= a.cfg.FlagThreshold
	disagree := factOK && ((base > neutral && mediaFlagged) || (base < neutral && !mediaFlagged))

	if disagree {
		if maxSeg > a.cfg.ExtremeHigh || maxSeg < a.cfg.ExtremeLow {
			return mediaTrust, note
		}
		return (base + mediaTrust) / 2, note
	}

	return base * (1 - a.cfg.MediaWeight*maxSeg), note
}

// isFlagged reports whether a media item looks synthetic by score or label
func (a *Aggregator) isFlagged(item model.MediaVerdict) bool {
	if item.MaxScore() >= a.cfg.FlagThreshold {
		return true
	}
	for _, s := range item.Segments {
		switch strings.ToLower(s.Label) {
		case "ai_generated", "deepfake":
			return true
		}
	}
	return false
}

// calculateTextPenalty subtracts up to TextMaxPenalty points for likely AI-written text
func (a *Aggregator) calculateTextPenalty(ev evidence) (int, string) {
	if ev.textOut == nil || ev.textOut.Status == model.StatusSkipped {
		return 0, ""
	}
	if ev.text == nil {
		return 0, "Text origin: " + unavailable("text-origin", ev.textOut)
	}

	overall := ev.text.OverallScore
	if overall >= a.cfg.TextThreshold {
		penalty := int(math.Round(overall * float64(a.cfg.TextMaxPenalty)))
		return penalty, fmt.Sprintf("Text origin: the text is likely AI-generated (score %.2f).", overall)
	}
	return 0, fmt.Sprintf("Text origin: the text appears human-written (score %.2f).", overall)
}

// safetyNote names the risk categories at or above SafetyThreshold
func (a *Aggregator) safetyNote(ev evidence) string {
	if ev.safetyOut == nil || ev.safetyOut.Status == model.StatusSkipped {
		return ""
	}
	if ev.safety == nil {
		return "Content safety: " + unavailable("content-safety", ev.safetyOut)
	}

	var risks []string
	for _, r := range []struct {
		name  string
		score float64
	}{
		{"privacy leakage", ev.safety.PrivacyLeak},
		{"harmful content", ev.safety.Harmful},
		{"unwanted contact", ev.safety.Unwanted},
	} {
		if r.score >= a.cfg.SafetyThreshold {
			risks = append(risks, fmt.Sprintf("%s (%.2f)", r.name, r.score))
		}
	}
	if len(risks) == 0 {
		return "Content safety: no safety risks detected."
	}
	return "Content safety: elevated risk of " + strings.Join(risks, ", ") + "."
}

func unavailable(service string, o *model.ServiceOutcome) string {
	if o.Status == model.StatusTimedOut {
		return fmt.Sprintf("the %s service timed out.", service)
	}
	return fmt.Sprintf("the %s service is temporarily unavailable.", service)
}

func joinNotes(notes ...string) string {
	var parts []string
	for _, n := range notes {
		if n != "" {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return "No analysis results were available."
	}
	return strings.Join(parts, " ")
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

package model

// TrustAssessment is the aggregated answer returned to the caller.
// JSON names are the wire contract of POST /analysis/run.
type TrustAssessment struct {
	Score          int             `json:"trust_score"`
	Explanation    string          `json:"trust_score_explanation"`
	DisputedFacts  []Fact          `json:"fake_facts"`
	SupportedFacts []Fact          `json:"true_facts"`
	FlaggedMedia   []MediaFinding  `json:"fake_media"`
	CleanMedia     []MediaFinding  `json:"true_media"`
	AITextScore    *float64        `json:"ai_text_score"`
	ContentSafety  *SafetyReport   `json:"content_safety,omitempty"`
	Services       []ServiceStatus `json:"services,omitempty"`
}

// Fact is a checked claim quoted verbatim from the fact service
type Fact struct {
	Quote       string `json:"fact"`
	Explanation string `json:"explanation"`
	Source      string `json:"source,omitempty"`
}

// MediaFinding carries per-segment scores for one media reference
type MediaFinding struct {
	MediaRef  string    `json:"media_url"`
	MediaType string    `json:"media_type"`
	Segments  []Segment `json:"chunks"`
}

// ServiceStatus summarizes one service outcome for the caller
type ServiceStatus struct {
	Service ServiceName   `json:"service"`
	Status  OutcomeStatus `json:"status"`
	Error   string        `json:"error,omitempty"`
}

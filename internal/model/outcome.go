package model

import (
	"errors"
	"time"
)

// ServiceName identifies an analysis service
type ServiceName string

const (
	ServiceFactCheck     ServiceName = "fact_check"
	ServiceMediaCheck    ServiceName = "media_check"
	ServiceTextOrigin    ServiceName = "text_origin"
	ServiceContentSafety ServiceName = "content_safety"
)

// OutcomeStatus tags a ServiceOutcome
type OutcomeStatus string

const (
	StatusSuccess  OutcomeStatus = "success"
	StatusFailed   OutcomeStatus = "failed"
	StatusTimedOut OutcomeStatus = "timed_out"
	StatusSkipped  OutcomeStatus = "skipped"
)

// Payload is the structured result of a successful service call.
// The set of payloads is closed: FactReport, MediaReport, TextOriginReport
// and SafetyReport.
type Payload interface {
	payloadService() ServiceName
}

// ServiceOutcome records what happened to one service call
type ServiceOutcome struct {
	Service ServiceName
	Status  OutcomeStatus
	Payload Payload // Only set on success
	Err     error   // Set on failure or timeout
	Reason  string  // Why the call was skipped
	Elapsed time.Duration
}

// Succeeded builds a success outcome
func Succeeded(p Payload, elapsed time.Duration) ServiceOutcome {
	return ServiceOutcome{Service: p.payloadService(), Status: StatusSuccess, Payload: p, Elapsed: elapsed}
}

// Failed builds a failure outcome; deadline errors become TimedOut
func Failed(service ServiceName, err error, elapsed time.Duration) ServiceOutcome {
	if errors.Is(err, ErrServiceTimeout) {
		return TimedOut(service, elapsed)
	}
	return ServiceOutcome{Service: service, Status: StatusFailed, Err: err, Elapsed: elapsed}
}

// TimedOut builds a timeout outcome
func TimedOut(service ServiceName, elapsed time.Duration) ServiceOutcome {
	return ServiceOutcome{Service: service, Status: StatusTimedOut, Err: ErrServiceTimeout, Elapsed: elapsed}
}

// Skipped builds a skipped outcome
func Skipped(service ServiceName, reason string) ServiceOutcome {
	return ServiceOutcome{Service: service, Status: StatusSkipped, Reason: reason}
}

// Attempted reports whether the service was actually called
func (o ServiceOutcome) Attempted() bool {
	return o.Status != StatusSkipped
}

// ErrorKind returns a short label for failed outcomes
func (o ServiceOutcome) ErrorKind() string {
	switch {
	case o.Status == StatusTimedOut:
		return "timeout"
	case o.Status != StatusFailed:
		return ""
	case errors.Is(o.Err, ErrServiceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// CheckedClaim is one claim verified by the fact service
type CheckedClaim struct {
	Quote       string
	Truth       bool
	Explanation string
	Provider    string
}

// FactReport is the fact-check payload
type FactReport struct {
	Claims []CheckedClaim
	Failed int // Claim checks that errored and were dropped
}

func (FactReport) payloadService() ServiceName { return ServiceFactCheck }

// Counts returns the number of true and false claims
func (r FactReport) Counts() (trueCount, falseCount int) {
	for _, c := range r.Claims {
		if c.Truth {
			trueCount++
		} else {
			falseCount++
		}
	}
	return trueCount, falseCount
}

// Segment is a per-chunk score from the media service
type Segment struct {
	Index        int      `json:"index"`
	StartSeconds float64  `json:"start_seconds"`
	EndSeconds   float64  `json:"end_seconds"`
	AIGenerated  *float64 `json:"ai_generated_score"`
	Deepfake     *float64 `json:"deepfake_score"`
	Label        string   `json:"label"`
}

// Max returns the stronger of the two synthetic-media scores
func (s Segment) Max() float64 {
	m := 0.0
	if s.AIGenerated != nil && *s.AIGenerated > m {
		m = *s.AIGenerated
	}
	if s.Deepfake != nil && *s.Deepfake > m {
		m = *s.Deepfake
	}
	return m
}

// MediaVerdict is the media service result for one asset
type MediaVerdict struct {
	MediaRef  string
	MediaType string
	Provider  string
	Segments  []Segment
}

// MaxScore returns the strongest segment score of the asset
func (v MediaVerdict) MaxScore() float64 {
	m := 0.0
	for _, s := range v.Segments {
		if sm := s.Max(); sm > m {
			m = sm
		}
	}
	return m
}

// MediaReport is the media-check payload
type MediaReport struct {
	Items  []MediaVerdict
	Failed int
}

func (MediaReport) payloadService() ServiceName { return ServiceMediaCheck }

// SentenceScore is a per-sentence AI-text likelihood
type SentenceScore struct {
	Sentence string
	Score    float64
}

// TextOriginReport is the text-origin payload
type TextOriginReport struct {
	OverallScore float64
	Sentences    []SentenceScore
	Provider     string
}

func (TextOriginReport) payloadService() ServiceName { return ServiceTextOrigin }

// SafetyReport holds content-safety risk scores, each in [0, 1]
type SafetyReport struct {
	PrivacyLeak float64 `json:"pil"`
	Harmful     float64 `json:"harmful"`
	Unwanted    float64 `json:"unwanted"`
}

func (SafetyReport) payloadService() ServiceName { return ServiceContentSafety }

// Max returns the highest of the three risk scores
func (r SafetyReport) Max() float64 {
	return max(r.PrivacyLeak, r.Harmful, r.Unwanted)
}

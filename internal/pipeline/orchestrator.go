package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/logging"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/monitoring"
	"github.com/ppiankov/trustlens/internal/score"
)

// KeyValidator checks a caller key for a mode
type KeyValidator interface {
	Require(ctx context.Context, key string, mode model.KeyMode) (model.KeyInfo, error)
}

// FactChecker verifies the claims found in masked text
type FactChecker interface {
	CheckFacts(ctx context.Context, text string) (model.FactReport, error)
}

// MediaChecker scores media assets for AI generation and deepfakes
type MediaChecker interface {
	CheckMedia(ctx context.Context, assets []model.MediaAsset) (model.MediaReport, error)
}

// TextDetector estimates how likely text is machine-written
type TextDetector interface {
	Detect(ctx context.Context, text string) (model.TextOriginReport, error)
}

// SafetyChecker scores text for privacy, harm and unwanted-contact risks
type SafetyChecker interface {
	CheckSafety(ctx context.Context, text string) (model.SafetyReport, error)
}

// Services are the analysis backends. A nil service is disabled and always skipped.
type Services struct {
	Fact   FactChecker
	Media  MediaChecker
	Text   TextDetector
	Safety SafetyChecker
}

// Timeouts bound each service call and the fan-out as a whole
type Timeouts struct {
	Fact   time.Duration
	Media  time.Duration
	Text   time.Duration
	Safety time.Duration
	Margin time.Duration // Added to the longest service timeout for the overall deadline
}

// TimeoutsFromConfig reads the per-service budgets
func TimeoutsFromConfig(cfg model.ServicesConfig) Timeouts {
	return Timeouts{
		Fact:   cfg.FactCheckTimeout,
		Media:  cfg.MediaCheckTimeout,
		Text:   cfg.TextOriginTimeout,
		Safety: cfg.ContentSafetyTimeout,
		Margin: cfg.DeadlineMargin,
	}
}

// Orchestrator validates a request, fans it out to the analysis services and
// aggregates whatever comes back
type Orchestrator struct {
	validator  KeyValidator
	services   Services
	aggregator *score.Aggregator
	timeouts   Timeouts
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewOrchestrator creates a new orchestrator. Metrics and logger may be nil.
func NewOrchestrator(validator KeyValidator, services Services, aggregator *score.Aggregator, timeouts Timeouts, metrics *monitoring.Metrics, logger *zap.Logger) *Orchestrator {
	def := TimeoutsFromConfig(model.DefaultConfig().Services)
	if timeouts.Fact <= 0 {
		timeouts.Fact = def.Fact
	}
	if timeouts.Media <= 0 {
		timeouts.Media = def.Media
	}
	if timeouts.Text <= 0 {
		timeouts.Text = def.Text
	}
	if timeouts.Safety <= 0 {
		timeouts.Safety = def.Safety
	}
	if timeouts.Margin < 0 {
		timeouts.Margin = 0
	}
	if metrics == nil {
		metrics = monitoring.NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		validator:  validator,
		services:   services,
		aggregator: aggregator,
		timeouts:   timeouts,
		metrics:    metrics,
		logger:     logger,
	}
}

// Assess produces a trust assessment for one request.
//
// Key and request validation fail fast. After that, individual service
// failures only degrade the assessment; the call fails only when every
// attempted service failed. Service calls are detached from ctx cancellation
// so a disconnecting client does not abort work already in flight.
func (o *Orchestrator) Assess(ctx context.Context, req model.AnalysisRequest) (model.TrustAssessment, error) {
	// 1. Caller key
	info, err := o.validator.Require(ctx, req.CallerKey, model.ModeAgent)
	if err != nil {
		o.metrics.ObserveAssessment(resultLabel(err), 0)
		return model.TrustAssessment{}, fmt.Errorf("caller key: %w", err)
	}
	if info.Prompt != "" {
		req.Prompt = info.Prompt
	}

	// 2. Request shape
	if err := validateRequest(req); err != nil {
		o.metrics.ObserveAssessment(resultLabel(err), 0)
		return model.TrustAssessment{}, err
	}

	// 3. Fan-out, narrowed to what the prompt asks about
	outcomes := o.fanOut(ctx, req, parseIntent(req.Prompt))

	attempted, failed := 0, 0
	for _, out := range outcomes {
		o.metrics.ObserveService(string(out.Service), string(out.Status), out.Elapsed, out.Attempted())
		o.logger.Info("service outcome",
			logging.Key(req.CallerKey),
			zap.String("service", string(out.Service)),
			zap.String("status", string(out.Status)),
			zap.String("error_kind", out.ErrorKind()),
			zap.String("reason", out.Reason),
			zap.Duration("elapsed", out.Elapsed),
		)
		if out.Attempted() {
			attempted++
			if out.Status != model.StatusSuccess {
				failed++
			}
		}
	}

	// 4. Aggregate
	if attempted > 0 && failed == attempted {
		o.metrics.ObserveAssessment("all_failed", 0)
		return model.TrustAssessment{}, fmt.Errorf("%d of %d services failed: %w", failed, attempted, model.ErrAllServicesFailed)
	}

	assessment := o.aggregator.Aggregate(outcomes)
	o.metrics.ObserveAssessment("ok", assessment.Score)
	o.logger.Info("assessment complete",
		logging.Key(req.CallerKey),
		zap.Int("trust_score", assessment.Score),
		zap.Int("disputed_facts", len(assessment.DisputedFacts)),
		zap.Int("flagged_media", len(assessment.FlaggedMedia)),
		zap.Bool("prompt_set", req.Prompt != ""),
	)
	return assessment, nil
}

// validateRequest requires text or assets and enforces the asset caps
func validateRequest(req model.AnalysisRequest) error {
	if !req.HasText() && len(req.ImageAssets) == 0 && len(req.VideoAssets) == 0 {
		return fmt.Errorf("no text or media to analyze: %w", model.ErrValidation)
	}
	if len(req.ImageAssets) > model.MaxImageAssets {
		return fmt.Errorf("%d images exceeds limit of %d: %w", len(req.ImageAssets), model.MaxImageAssets, model.ErrValidation)
	}
	if len(req.VideoAssets) > model.MaxVideoAssets {
		return fmt.Errorf("%d videos exceeds limit of %d: %w", len(req.VideoAssets), model.MaxVideoAssets, model.ErrValidation)
	}
	return nil
}

// resultLabel maps a fail-fast error to its metric label
func resultLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, model.ErrWrongMode):
		return "wrong_mode"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}

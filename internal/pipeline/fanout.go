package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/trustlens/internal/model"
)

// call is one planned service invocation
type call struct {
	service model.ServiceName
	timeout time.Duration
	run     func(ctx context.Context) (model.Payload, error)
}

type settled struct {
	index   int
	outcome model.ServiceOutcome
}

const notAsked = "not asked for in prompt"

// plan decides which services run for req. Services without inputs, that
// are disabled, or that the prompt does not ask about come back as Skipped
// outcomes.
func (o *Orchestrator) plan(req model.AnalysisRequest, in intent) ([]call, []model.ServiceOutcome) {
	var calls []call
	var skipped []model.ServiceOutcome

	text := req.MaskedText
	assets := req.Assets()

	switch {
	case o.services.Fact == nil:
		skipped = append(skipped, model.Skipped(model.ServiceFactCheck, "disabled"))
	case !req.RunFactCheck:
		skipped = append(skipped, model.Skipped(model.ServiceFactCheck, "not requested"))
	case !req.HasText():
		skipped = append(skipped, model.Skipped(model.ServiceFactCheck, "no text"))
	case !in.facts:
		skipped = append(skipped, model.Skipped(model.ServiceFactCheck, notAsked))
	default:
		calls = append(calls, call{
			service: model.ServiceFactCheck,
			timeout: o.timeouts.Fact,
			run: func(ctx context.Context) (model.Payload, error) {
				report, err := o.services.Fact.CheckFacts(ctx, text)
				return report, err
			},
		})
	}

	switch {
	case o.services.Media == nil:
		skipped = append(skipped, model.Skipped(model.ServiceMediaCheck, "disabled"))
	case !req.RunMediaCheck:
		skipped = append(skipped, model.Skipped(model.ServiceMediaCheck, "not requested"))
	case len(assets) == 0:
		skipped = append(skipped, model.Skipped(model.ServiceMediaCheck, "no media"))
	case !in.synthetic:
		skipped = append(skipped, model.Skipped(model.ServiceMediaCheck, notAsked))
	default:
		calls = append(calls, call{
			service: model.ServiceMediaCheck,
			timeout: o.timeouts.Media,
			run: func(ctx context.Context) (model.Payload, error) {
				report, err := o.services.Media.CheckMedia(ctx, assets)
				return report, err
			},
		})
	}

	switch {
	case o.services.Text == nil:
		skipped = append(skipped, model.Skipped(model.ServiceTextOrigin, "disabled"))
	case !req.HasText():
		skipped = append(skipped, model.Skipped(model.ServiceTextOrigin, "no text"))
	case !in.synthetic:
		skipped = append(skipped, model.Skipped(model.ServiceTextOrigin, notAsked))
	default:
		calls = append(calls, call{
			service: model.ServiceTextOrigin,
			timeout: o.timeouts.Text,
			run: func(ctx context.Context) (model.Payload, error) {
				report, err := o.services.Text.Detect(ctx, text)
				return report, err
			},
		})
	}

	switch {
	case o.services.Safety == nil:
		skipped = append(skipped, model.Skipped(model.ServiceContentSafety, "disabled"))
	case !req.HasText():
		skipped = append(skipped, model.Skipped(model.ServiceContentSafety, "no text"))
	case !in.safety:
		skipped = append(skipped, model.Skipped(model.ServiceContentSafety, notAsked))
	default:
		calls = append(calls, call{
			service: model.ServiceContentSafety,
			timeout: o.timeouts.Safety,
			run: func(ctx context.Context) (model.Payload, error) {
				report, err := o.services.Safety.CheckSafety(ctx, text)
				return report, err
			},
		})
	}

	return calls, skipped
}

// fanOut runs the planned calls concurrently. Each call gets its own timeout;
// the whole fan-out is bounded by the longest timeout plus the margin. Calls
// still pending at that deadline are recorded as TimedOut. A failing call
// never cancels its siblings.
func (o *Orchestrator) fanOut(ctx context.Context, req model.AnalysisRequest, in intent) []model.ServiceOutcome {
	calls, outcomes := o.plan(req, in)
	if len(calls) == 0 {
		return outcomes
	}

	overall := o.timeouts.Margin
	for _, c := range calls {
		overall = max(overall, c.timeout+o.timeouts.Margin)
	}

	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), overall)
	defer cancel()

	start := time.Now()
	results := make(chan settled, len(calls))
	for i, c := range calls {
		go func() {
			results <- settled{index: i, outcome: runCall(deadlineCtx, c)}
		}()
	}

	done := make([]*model.ServiceOutcome, len(calls))
wait:
	for range calls {
		select {
		case r := <-results:
			done[r.index] = &r.outcome
		case <-deadlineCtx.Done():
			break wait
		}
	}

	for i, c := range calls {
		if done[i] == nil {
			outcomes = append(outcomes, model.TimedOut(c.service, time.Since(start)))
			continue
		}
		outcomes = append(outcomes, *done[i])
	}
	return outcomes
}

// runCall invokes one service under its own timeout. A result that arrives
// after the deadline counts as timed out, even when the service ignored ctx
// and reported success.
func runCall(parent context.Context, c call) model.ServiceOutcome {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	payload, err := c.run(ctx)
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.TimedOut(c.service, elapsed)
	}
	if err != nil {
		return model.Failed(c.service, err, elapsed)
	}
	return model.Succeeded(payload, elapsed)
}

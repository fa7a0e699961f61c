package upstream

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/trustlens/internal/model"
)

// ClaimExtractor turns masked text into checkable claims
type ClaimExtractor interface {
	ExtractClaims(ctx context.Context, text string) ([]model.Claim, error)
}

// FactService extracts claims from masked text and verifies each one
type FactService struct {
	client    *FactClient
	extractor ClaimExtractor
	maxClaims int
	workers   int
	logger    *zap.Logger
}

// NewFactService creates a fact service over the given client and extractor
func NewFactService(client *FactClient, extractor ClaimExtractor, maxClaims, workers int, logger *zap.Logger) *FactService {
	if maxClaims <= 0 {
		maxClaims = 8
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactService{client: client, extractor: extractor, maxClaims: maxClaims, workers: workers, logger: logger}
}

// CheckFacts verifies up to maxClaims claims concurrently. Individual claim
// failures are dropped and counted; the call fails only if every check failed.
func (s *FactService) CheckFacts(ctx context.Context, text string) (model.FactReport, error) {
	claims, err := s.extractor.ExtractClaims(ctx, text)
	if err != nil {
		return model.FactReport{}, fmt.Errorf("extract claims: %w", err)
	}
	if len(claims) > s.maxClaims {
		claims = claims[:s.maxClaims]
	}
	if len(claims) == 0 {
		return model.FactReport{}, nil
	}

	checked := make([]*model.CheckedClaim, len(claims))
	errs := newErrorTally()

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, c := range claims {
		g.Go(func() error {
			result, err := s.client.Check(ctx, c.Text)
			if err != nil {
				errs.add(err)
				s.logger.Debug("claim check failed", zap.Int("claim", i), zap.Error(err))
				return nil
			}
			checked[i] = &result
			return nil
		})
	}
	_ = g.Wait()

	report := model.FactReport{Failed: errs.count()}
	for _, c := range checked {
		if c != nil {
			report.Claims = append(report.Claims, *c)
		}
	}
	if len(report.Claims) == 0 {
		return report, fmt.Errorf("all %d claim checks failed: %w", len(claims), errs.first())
	}
	return report, nil
}

// MediaService checks every asset with bounded parallelism
type MediaService struct {
	client  *MediaClient
	workers int
	logger  *zap.Logger
}

// NewMediaService creates a media service over the given client
func NewMediaService(client *MediaClient, workers int, logger *zap.Logger) *MediaService {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{client: client, workers: workers, logger: logger}
}

// CheckMedia returns verdicts in asset order. The call fails only if every asset failed.
func (s *MediaService) CheckMedia(ctx context.Context, assets []model.MediaAsset) (model.MediaReport, error) {
	if len(assets) == 0 {
		return model.MediaReport{}, nil
	}

	verdicts := make([]*model.MediaVerdict, len(assets))
	errs := newErrorTally()

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, asset := range assets {
		g.Go(func() error {
			v, err := s.client.Check(ctx, asset)
			if err != nil {
				errs.add(err)
				s.logger.Debug("media check failed", zap.String("kind", string(asset.Kind)), zap.Error(err))
				return nil
			}
			verdicts[i] = &v
			return nil
		})
	}
	_ = g.Wait()

	report := model.MediaReport{Failed: errs.count()}
	for _, v := range verdicts {
		if v != nil {
			report.Items = append(report.Items, *v)
		}
	}
	if len(report.Items) == 0 {
		return report, fmt.Errorf("all %d media checks failed: %w", len(assets), errs.first())
	}
	return report, nil
}

// errorTally collects errors from concurrent calls
type errorTally struct {
	mu   sync.Mutex
	errs []error
}

func newErrorTally() *errorTally {
	return &errorTally{}
}

func (t *errorTally) add(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs = append(t.errs, err)
}

func (t *errorTally) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.errs)
}

func (t *errorTally) first() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.errs) == 0 {
		return model.ErrServiceUnavailable
	}
	return t.errs[0]
}

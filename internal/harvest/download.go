package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/worker"
)

// Budget caps how many assets of each kind are fetched and how large each may be
type Budget struct {
	MaxImages     int
	MaxImageBytes int64
	MaxVideos     int
	MaxVideoBytes int64
}

// BudgetFor returns the asset budget for a harvest mode
func BudgetFor(cfg model.HarvestConfig, mode model.HarvestMode) Budget {
	b := Budget{
		MaxImages:     min(cfg.MaxImages, model.MaxImageAssets),
		MaxImageBytes: cfg.MaxImageBytes,
		MaxVideos:     min(cfg.MaxVideos, model.MaxVideoAssets),
		MaxVideoBytes: cfg.MaxVideoBytes,
	}
	if mode == model.ModePanic {
		b.MaxVideoBytes = cfg.PanicVideoBytes
	}
	return b
}

// Downloader fetches media assets under a Budget. Oversize or failing assets
// are dropped; they never fail the download as a whole.
type Downloader struct {
	httpClient  *http.Client
	userAgent   string
	parallelism int
	limiter     *worker.Limiter
	robots      *util.RobotsChecker // nil unless robots.txt is respected
	cfg         model.HarvestConfig
	logger      *zap.Logger
}

// NewDownloader creates a downloader from the harvest config
func NewDownloader(cfg model.HarvestConfig, logger *zap.Logger) *Downloader {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
			},
		},
		userAgent:   cfg.UserAgent,
		parallelism: cfg.Parallelism,
		cfg:         cfg,
		logger:      logger,
	}
	if cfg.RequestsPerSecond > 0 {
		d.limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	}
	if cfg.RespectRobots {
		d.robots = util.NewRobotsChecker(util.NormalizeUserAgent(cfg.UserAgent), cfg.Timeout)
	}
	return d
}

// candidate is one URL selected for download
type candidate struct {
	url   string
	kind  model.MediaKind
	limit int64
}

// Download fetches the snapshot's media under the mode's budget and returns
// the accepted assets in snapshot order, images first
func (d *Downloader) Download(ctx context.Context, snap model.PageSnapshot, mode model.HarvestMode) ([]model.MediaAsset, error) {
	budget := BudgetFor(d.cfg, mode)

	var candidates []candidate
	for i, u := range snap.ImageURLs {
		if i >= budget.MaxImages {
			break
		}
		candidates = append(candidates, candidate{url: u, kind: model.MediaImage, limit: budget.MaxImageBytes})
	}
	for i, u := range snap.VideoURLs {
		if i >= budget.MaxVideos {
			break
		}
		candidates = append(candidates, candidate{url: u, kind: model.MediaVideo, limit: budget.MaxVideoBytes})
	}
	if len(candidates) == 0 {
		return []model.MediaAsset{}, nil
	}

	results := make([]*model.MediaAsset, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for i, c := range candidates {
		g.Go(func() error {
			asset, err := d.fetch(gctx, c)
			if err != nil {
				// Per-asset failures are non-fatal
				d.logger.Debug("asset dropped",
					zap.String("kind", string(c.kind)),
					zap.Bool("oversize", errors.Is(err, model.ErrOversizeAsset)),
					zap.Error(err),
				)
				return nil
			}
			results[i] = &asset
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	assets := make([]model.MediaAsset, 0, len(candidates))
	for _, a := range results {
		if a != nil {
			assets = append(assets, *a)
		}
	}
	return assets, nil
}

// fetch downloads one asset, refusing anything larger than its cap
func (d *Downloader) fetch(ctx context.Context, c candidate) (model.MediaAsset, error) {
	if d.robots != nil && !d.robots.IsAllowed(ctx, c.url) {
		return model.MediaAsset{}, fmt.Errorf("%s: %w", c.url, ErrDisallowed)
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, c.url); err != nil {
			return model.MediaAsset{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return model.MediaAsset{}, fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return model.MediaAsset{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.MediaAsset{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if resp.ContentLength > c.limit {
		return model.MediaAsset{}, fmt.Errorf("content-length %d: %w", resp.ContentLength, model.ErrOversizeAsset)
	}

	// Read one byte past the cap so an unannounced oversize body is detected
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.limit+1))
	if err != nil {
		return model.MediaAsset{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > c.limit {
		return model.MediaAsset{}, fmt.Errorf("body exceeds %d bytes: %w", c.limit, model.ErrOversizeAsset)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	d.logger.Debug("asset fetched",
		zap.String("kind", string(c.kind)),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return model.MediaAsset{
		SourceURL:   c.url,
		Kind:        c.kind,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Bytes:       data,
	}, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/api"
	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/directory"
	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/llm"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/monitoring"
	"github.com/ppiankov/trustlens/internal/pipeline"
	"github.com/ppiankov/trustlens/internal/score"
	"github.com/ppiankov/trustlens/internal/upstream"
	"github.com/ppiankov/trustlens/internal/validate"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis backend",
	Long: `Serve runs the TrustLens backend:
- POST /analysis/run       assess a redacted page (multipart or JSON)
- GET  /auth/validate      check a caller key
- GET  /control/blacklist  blacklist for a control key
- GET  /healthz, /metrics

An empty service URL disables that service; its outcome is reported as skipped.

Example:
  trustlens serve --addr :8080
  TRUSTLENS_SERVICES_FACT_CHECK_URL=http://facts:8000 trustlens serve`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"addr":      "server.addr",
			"directory": "directory.backend",
		})
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("directory", "static", "key directory backend (static, redis, portal)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	dir, err := directory.New(cfg.Directory)
	if err != nil {
		return fmt.Errorf("key directory: %w", err)
	}
	if c, ok := dir.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	validator := validate.NewValidator(dir, cache.NewMemoryCache(cfg.Auth.CacheTTL, 2*cfg.Auth.CacheTTL), cfg.Auth.CacheTTL)

	services, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	orchestrator := pipeline.NewOrchestrator(
		validator,
		services,
		score.NewAggregator(cfg.Aggregator),
		pipeline.TimeoutsFromConfig(cfg.Services),
		metrics,
		logger,
	)

	server := api.NewServer(cfg.Server, orchestrator, validator, dir, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildServices creates the upstream service wrappers. A service with no URL stays nil.
func buildServices(cfg *model.Config, logger *zap.Logger) (pipeline.Services, error) {
	sc := cfg.Services
	opts := func(baseURL string) upstream.Options {
		return upstream.Options{
			BaseURL:    baseURL,
			MaxRetries: sc.MaxRetries,
			HTTPProxy:  sc.HTTPProxy,
			HTTPSProxy: sc.HTTPSProxy,
			Logger:     logger,
		}
	}

	llmConfig := llm.Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    int(cfg.LLM.Timeout.Seconds()),
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  sc.HTTPProxy,
		HTTPSProxy: sc.HTTPSProxy,
	}

	var services pipeline.Services

	if sc.FactCheckURL != "" {
		extractor, err := llm.NewExtractor(llmConfig, extract.NewClaimExtractor(), sc.MaxClaims)
		if err != nil {
			return pipeline.Services{}, fmt.Errorf("claim extractor: %w", err)
		}
		if extractor.IsEnabled() {
			logger.Info("LLM claim extraction enabled", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))
		}
		services.Fact = upstream.NewFactService(upstream.NewFactClient(opts(sc.FactCheckURL)), extractor, sc.MaxClaims, sc.ClaimWorkers, logger)
	}
	if sc.MediaCheckURL != "" {
		services.Media = upstream.NewMediaService(upstream.NewMediaClient(opts(sc.MediaCheckURL)), sc.MediaWorkers, logger)
	}
	if sc.TextOriginURL != "" {
		services.Text = upstream.NewTextClient(opts(sc.TextOriginURL))
	}
	if sc.ContentSafety {
		safetyConfig := llmConfig
		if strings.EqualFold(safetyConfig.Provider, "ollama") && safetyConfig.BaseURL != "" {
			// Ollama serves the OpenAI-compatible API under /v1
			safetyConfig.BaseURL = strings.TrimSuffix(safetyConfig.BaseURL, "/") + "/v1"
		}
		classifier, err := llm.NewSafetyClassifier(safetyConfig)
		if err != nil {
			return pipeline.Services{}, fmt.Errorf("content safety: %w", err)
		}
		services.Safety = classifier
	}

	logger.Info("analysis services",
		zap.Bool("fact_check", services.Fact != nil),
		zap.Bool("media_check", services.Media != nil),
		zap.Bool("text_origin", services.Text != nil),
		zap.Bool("content_safety", services.Safety != nil),
	)
	return services, nil
}

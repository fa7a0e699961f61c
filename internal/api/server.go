package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/monitoring"
)

// Assessor produces a trust assessment for one analysis request
type Assessor interface {
	Assess(ctx context.Context, req model.AnalysisRequest) (model.TrustAssessment, error)
}

// KeyValidator checks caller keys
type KeyValidator interface {
	Validate(ctx context.Context, key string) (model.KeyInfo, error)
	Require(ctx context.Context, key string, mode model.KeyMode) (model.KeyInfo, error)
}

// BlacklistSource returns the blacklist configured for a control key
type BlacklistSource interface {
	Blacklist(ctx context.Context, key string) ([]string, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     model.ServerConfig
	router     http.Handler
	httpServer *http.Server
	assessor   Assessor
	validator  KeyValidator
	blacklists BlacklistSource
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewServer wires the handlers. Metrics and logger may be nil.
func NewServer(cfg model.ServerConfig, assessor Assessor, validator KeyValidator, blacklists BlacklistSource, m *monitoring.Metrics, l *zap.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = model.DefaultConfig().Server.MaxUploadBytes
	}
	if m == nil {
		m = monitoring.NewMetrics(nil)
	}
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		config:     cfg,
		assessor:   assessor,
		validator:  validator,
		blacklists: blacklists,
		metrics:    m,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	readTimeout := s.config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
	}
	s.logger.Info("listening", zap.String("addr", s.config.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

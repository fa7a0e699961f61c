package client

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/classify"
	"github.com/ppiankov/trustlens/internal/guard"
	"github.com/ppiankov/trustlens/internal/harvest"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/redact"
)

// Message is a request to the coordinator. The set is closed: only the
// types in this file implement it.
type Message interface {
	message()
}

// NavigationStarted asks for a decision on a top-level navigation
type NavigationStarted struct {
	URL string
}

// AnalyzePage harvests a page and asks the backend for a trust assessment.
// HTML may be supplied directly; otherwise the page is loaded from URL.
type AnalyzePage struct {
	URL           string
	HTML          string
	Prompt        string
	RunFactCheck  bool
	RunMediaCheck bool
	Mode          model.HarvestMode
}

// ClassifyPage tags text with content categories after redaction
type ClassifyPage struct {
	Text string
}

// SetCallerKey changes the caller key for later messages
type SetCallerKey struct {
	Key string
}

func (NavigationStarted) message() {}
func (AnalyzePage) message()       {}
func (ClassifyPage) message()      {}
func (SetCallerKey) message()      {}

// Reply carries the result of one message. Fields the message kind does not produce are nil.
type Reply struct {
	Decision       *model.NavigationDecision
	Assessment     *model.TrustAssessment
	Redaction      *model.RedactionResult
	Classification *model.ClassificationResult
}

// PageSource loads a page's HTML
type PageSource interface {
	Load(ctx context.Context, rawURL string) (*harvest.FetchResult, error)
}

// Deps are the coordinator's collaborators
type Deps struct {
	Guard      *guard.Guard
	Pages      PageSource
	Harvester  *harvest.Harvester
	Downloader *harvest.Downloader
	Builder    *Builder
	Analysis   *AnalysisClient
	Classifier *classify.Classifier
	Redactor   *redact.Redactor
	Logger     *zap.Logger
}

// Coordinator owns the client-side state (caller key, guard cache) and routes messages
type Coordinator struct {
	deps Deps

	mu  sync.RWMutex
	key string
}

// NewCoordinator creates a coordinator for the given key
func NewCoordinator(deps Deps, callerKey string) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Redactor == nil {
		deps.Redactor = redact.NewRedactor()
	}
	if deps.Builder == nil {
		deps.Builder = NewBuilder(deps.Redactor)
	}
	if deps.Classifier == nil {
		deps.Classifier = classify.NewClassifier(classify.DefaultWordlists())
	}
	if deps.Harvester == nil {
		deps.Harvester = harvest.NewHarvester(0, 0)
	}
	c := &Coordinator{deps: deps, key: callerKey}
	if deps.Guard != nil {
		deps.Guard.SetCallerKey(callerKey)
	}
	return c
}

// Dispatch handles one message
func (c *Coordinator) Dispatch(ctx context.Context, msg Message) (Reply, error) {
	switch m := msg.(type) {
	case NavigationStarted:
		return c.navigationStarted(ctx, m)
	case AnalyzePage:
		return c.analyzePage(ctx, m)
	case ClassifyPage:
		return c.classifyPage(m)
	case SetCallerKey:
		c.setCallerKey(m)
		return Reply{}, nil
	default:
		return Reply{}, fmt.Errorf("unknown message %T", msg)
	}
}

func (c *Coordinator) callerKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

func (c *Coordinator) setCallerKey(m SetCallerKey) {
	c.mu.Lock()
	c.key = m.Key
	c.mu.Unlock()
	if c.deps.Guard != nil {
		c.deps.Guard.SetCallerKey(m.Key)
	}
}

func (c *Coordinator) navigationStarted(ctx context.Context, m NavigationStarted) (Reply, error) {
	d := model.Allow()
	if c.deps.Guard != nil {
		d = c.deps.Guard.Decide(ctx, m.URL)
	}
	return Reply{Decision: &d}, nil
}

func (c *Coordinator) analyzePage(ctx context.Context, m AnalyzePage) (Reply, error) {
	if c.deps.Analysis == nil {
		return Reply{}, fmt.Errorf("no analysis backend configured")
	}

	html, pageURL := m.HTML, m.URL
	if html == "" {
		if c.deps.Pages == nil {
			return Reply{}, fmt.Errorf("no page source configured")
		}
		page, err := c.deps.Pages.Load(ctx, m.URL)
		if err != nil {
			return Reply{}, fmt.Errorf("load page: %w", err)
		}
		html, pageURL = page.HTML, page.FinalURL
	}

	snap, err := c.deps.Harvester.Snapshot(html, pageURL)
	if err != nil {
		return Reply{}, fmt.Errorf("harvest: %w", err)
	}

	var assets []model.MediaAsset
	if m.RunMediaCheck && c.deps.Downloader != nil {
		assets, err = c.deps.Downloader.Download(ctx, snap, m.Mode)
		if err != nil {
			return Reply{}, fmt.Errorf("download media: %w", err)
		}
	}

	req, redaction, err := c.deps.Builder.Build(BuildInput{
		CallerKey:     c.callerKey(),
		Prompt:        m.Prompt,
		Snapshot:      snap,
		Assets:        assets,
		RunFactCheck:  m.RunFactCheck,
		RunMediaCheck: m.RunMediaCheck,
	})
	if err != nil {
		return Reply{Redaction: &redaction}, err
	}

	c.deps.Logger.Debug("sending analysis request",
		zap.Int("text_chars", len(req.MaskedText)),
		zap.Int("images", len(req.ImageAssets)),
		zap.Int("videos", len(req.VideoAssets)),
		zap.Int("pii_types", len(redaction.DetectedTypes)),
		zap.Stringer("mode", m.Mode),
	)

	classification := c.deps.Classifier.Classify(redaction.MaskedText)

	assessment, err := c.deps.Analysis.Run(ctx, req)
	if err != nil {
		return Reply{Redaction: &redaction, Classification: &classification}, err
	}
	return Reply{Assessment: &assessment, Redaction: &redaction, Classification: &classification}, nil
}

func (c *Coordinator) classifyPage(m ClassifyPage) (Reply, error) {
	masked := c.deps.Redactor.Redact(m.Text)
	result := c.deps.Classifier.Classify(masked.MaskedText)
	return Reply{Classification: &result, Redaction: &masked}, nil
}

package guard

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/logging"
	"github.com/ppiankov/trustlens/internal/model"
)

// State is the guard's position in its navigation cycle
type State int

const (
	StateIdle State = iota
	StateFetchingBlacklist
	StateDecided
)

func (s State) String() string {
	switch s {
	case StateFetchingBlacklist:
		return "fetching_blacklist"
	case StateDecided:
		return "decided"
	default:
		return "idle"
	}
}

// BlacklistSource returns the blacklisted domains for a caller key
type BlacklistSource interface {
	Blacklist(ctx context.Context, key string) ([]string, error)
}

// BlacklistCache is the guard's view of one caller's blacklist
type BlacklistCache struct {
	Entries   []string      `json:"entries"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"-"`
}

// Fresh reports whether the cache is younger than its TTL
func (c BlacklistCache) Fresh(now time.Time) bool {
	return !c.FetchedAt.IsZero() && now.Sub(c.FetchedAt) < c.TTL
}

// Guard decides, before a navigation starts, whether it may proceed.
// It fails open: no key, a failed fetch or an unparseable URL all allow.
type Guard struct {
	mu        sync.Mutex
	source    BlacklistSource
	store     cache.Cache // optional persistence of the last blacklist
	key       string
	cache     BlacklistCache
	state     State
	exempt    []string
	blockPage string
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a guard. store and logger may be nil.
func New(source BlacklistSource, cfg model.GuardConfig, store cache.Cache, logger *zap.Logger) *Guard {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	exempt := make([]string, 0, len(cfg.ExemptDomains))
	for _, d := range cfg.ExemptDomains {
		if d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "."); d != "" {
			exempt = append(exempt, d)
		}
	}
	g := &Guard{
		source:    source,
		store:     store,
		cache:     BlacklistCache{TTL: cfg.TTL},
		exempt:    exempt,
		blockPage: cfg.BlockPage,
		timeout:   cfg.FetchTimeout,
		now:       time.Now,
		logger:    logger,
	}
	g.setKey(cfg.CallerKey)
	return g
}

// SetCallerKey switches the guard to a new key and drops the cached blacklist
func (g *Guard) SetCallerKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setKey(key)
}

func (g *Guard) setKey(key string) {
	g.key = strings.TrimSpace(key)
	g.cache = BlacklistCache{TTL: g.cache.TTL}
	g.state = StateIdle
	if g.key != "" {
		g.restore()
	}
}

// State returns the current state
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cache returns a copy of the current blacklist cache
func (g *Guard) Cache() BlacklistCache {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.cache
	c.Entries = append([]string(nil), g.cache.Entries...)
	return c
}

// Decide returns the decision for a top-level navigation to rawURL
func (g *Guard) Decide(ctx context.Context, rawURL string) model.NavigationDecision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.key == "" {
		g.state = StateIdle
		return model.Allow()
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		g.state = StateDecided
		return model.Allow()
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")

	if matchAny(host, g.exempt) != "" {
		g.state = StateDecided
		return model.Allow()
	}

	if !g.cache.Fresh(g.now()) {
		g.refresh(ctx)
	}

	g.state = StateDecided
	if entry := matchAny(host, g.cache.Entries); entry != "" {
		return model.Block("blacklisted: "+entry, g.blockURL(rawURL, entry))
	}
	return model.Allow()
}

// refresh fetches the blacklist. Callers hold g.mu, so at most one fetch runs.
// On failure the cache is emptied and its timestamp refreshed so the backend
// is not retried until the TTL passes again.
func (g *Guard) refresh(ctx context.Context) {
	g.state = StateFetchingBlacklist

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	entries, err := g.source.Blacklist(ctx, g.key)
	g.cache.FetchedAt = g.now()
	if err != nil {
		g.logger.Warn("blacklist fetch failed, allowing navigation", logging.Key(g.key), zap.Error(err))
		g.cache.Entries = nil
		return
	}

	g.cache.Entries = normalize(entries)
	g.persist()
}

func (g *Guard) blockURL(target, entry string) string {
	if g.blockPage == "" {
		return ""
	}
	q := url.Values{"url": {target}, "domain": {entry}}
	sep := "?"
	if strings.Contains(g.blockPage, "?") {
		sep = "&"
	}
	return g.blockPage + sep + q.Encode()
}

// persist saves the blacklist so a restarted process starts warm
func (g *Guard) persist() {
	if g.store == nil {
		return
	}
	data, err := json.Marshal(g.cache)
	if err != nil {
		return
	}
	if err := g.store.Set(cache.CacheKey("blacklist", g.key), data, g.cache.TTL); err != nil {
		g.logger.Debug("persist blacklist", zap.Error(err))
	}
}

// restore loads a persisted blacklist. Stale entries are ignored.
func (g *Guard) restore() {
	if g.store == nil {
		return
	}
	data, ok := g.store.Get(cache.CacheKey("blacklist", g.key))
	if !ok {
		return
	}
	var saved BlacklistCache
	if err := json.Unmarshal(data, &saved); err != nil {
		return
	}
	saved.TTL = g.cache.TTL
	if saved.Fresh(g.now()) {
		g.cache = saved
	}
}

// matchAny returns the first entry host equals or is a subdomain of
func matchAny(host string, entries []string) string {
	for _, e := range entries {
		if host == e || strings.HasSuffix(host, "."+e) {
			return e
		}
	}
	return ""
}

func normalize(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), "."); e != "" {
			out = append(out, e)
		}
	}
	return out
}

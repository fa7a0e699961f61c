package directory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/trustlens/internal/model"
)

// Directory resolves caller keys and the per-key navigation blacklist.
// Lookup returns an error wrapping model.ErrInvalidKey for unknown keys.
type Directory interface {
	Lookup(ctx context.Context, key string) (model.KeyInfo, error)
	Blacklist(ctx context.Context, key string) ([]string, error)
}

// New builds the directory selected by cfg.Backend
func New(cfg model.DirectoryConfig) (Directory, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "static":
		return NewStatic(cfg.Keys), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis directory requires redis_addr")
		}
		return NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})), nil
	case "portal":
		if cfg.PortalURL == "" {
			return nil, fmt.Errorf("portal directory requires portal_url")
		}
		return NewPortal(cfg.PortalURL, &http.Client{Timeout: 10 * time.Second}), nil
	default:
		return nil, fmt.Errorf("unsupported directory backend: %s (supported: static, redis, portal)", cfg.Backend)
	}
}

// normalizeDomains lowercases entries and drops blanks and leading dots
func normalizeDomains(entries []string) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

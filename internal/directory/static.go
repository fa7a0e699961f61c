package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// Static serves keys from configuration. With no keys configured it runs
// open: every well-formed key is accepted and has an empty blacklist.
type Static struct {
	keys map[string]model.StaticKeyConfig
}

// NewStatic creates a static directory
func NewStatic(keys []model.StaticKeyConfig) *Static {
	s := &Static{keys: make(map[string]model.StaticKeyConfig, len(keys))}
	for _, k := range keys {
		s.keys[strings.ToLower(k.Key)] = k
	}
	return s
}

// Lookup implements Directory
func (s *Static) Lookup(_ context.Context, key string) (model.KeyInfo, error) {
	if len(s.keys) == 0 {
		return model.KeyInfo{Key: key}, nil
	}
	k, ok := s.keys[strings.ToLower(key)]
	if !ok {
		return model.KeyInfo{}, fmt.Errorf("static directory: %w", model.ErrInvalidKey)
	}
	return model.KeyInfo{Key: key, Prompt: k.Prompt}, nil
}

// Blacklist implements Directory
func (s *Static) Blacklist(_ context.Context, key string) ([]string, error) {
	k, ok := s.keys[strings.ToLower(key)]
	if !ok {
		return []string{}, nil
	}
	return normalizeDomains(k.Blacklist), nil
}

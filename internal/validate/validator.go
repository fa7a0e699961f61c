package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/directory"
	"github.com/ppiankov/trustlens/internal/model"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// canonicalUUIDLen is the length of the dashed xxxxxxxx-xxxx-... form the
// portal issues. uuid.Parse also takes urn, braced and undashed forms.
const canonicalUUIDLen = 36

// modeSuffixes are the optional key suffixes, matched case-insensitively
var modeSuffixes = []struct {
	suffix string
	mode   model.KeyMode
}{
	{"-agent", model.ModeAgent},
	{"-control", model.ModeControl},
}

// ParseKey checks the key format and returns the mode its suffix names.
// A bare UUID is an agent key.
func ParseKey(key string) (model.KeyMode, error) {
	mode, _, err := parseKey(key)
	return mode, err
}

func parseKey(key string) (mode model.KeyMode, explicit bool, err error) {
	id := strings.TrimSpace(key)
	mode = model.ModeAgent
	for _, s := range modeSuffixes {
		if n := len(id) - len(s.suffix); n >= 0 && strings.EqualFold(id[n:], s.suffix) {
			id, mode, explicit = id[:n], s.mode, true
			break
		}
	}

	if len(id) != canonicalUUIDLen {
		return "", false, fmt.Errorf("malformed key: %w", model.ErrInvalidKey)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false, fmt.Errorf("malformed key: %w", model.ErrInvalidKey)
	}
	return mode, explicit, nil
}

// Validator checks caller keys against the directory, caching successful lookups
type Validator struct {
	dir   directory.Directory
	cache cache.Cache
	ttl   time.Duration
}

// NewValidator creates a new validator. A nil cache disables caching.
func NewValidator(dir directory.Directory, c cache.Cache, ttl time.Duration) *Validator {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Validator{dir: dir, cache: c, ttl: ttl}
}

// Validate returns the key's info. Malformed or unknown keys wrap model.ErrInvalidKey.
func (v *Validator) Validate(ctx context.Context, key string) (model.KeyInfo, error) {
	key = strings.TrimSpace(key)
	suffixMode, explicit, err := parseKey(key)
	if err != nil {
		return model.KeyInfo{}, err
	}

	if info, ok := v.cached(key); ok {
		return info, nil
	}

	info, err := v.lookupWithRetry(ctx, key)
	if err != nil {
		return model.KeyInfo{}, err
	}

	// An explicit suffix wins; otherwise the directory decides, defaulting to agent
	info.Key = key
	if explicit || info.Mode == "" {
		info.Mode = suffixMode
	}

	if v.cache != nil {
		if data, err := json.Marshal(cachedKey{Mode: info.Mode, Prompt: info.Prompt}); err == nil {
			_ = v.cache.Set(cache.CacheKey("key", key), data, v.ttl)
		}
	}
	return info, nil
}

// Require validates the key and checks that it is a key of the given mode
func (v *Validator) Require(ctx context.Context, key string, mode model.KeyMode) (model.KeyInfo, error) {
	info, err := v.Validate(ctx, key)
	if err != nil {
		return model.KeyInfo{}, err
	}
	if info.Mode != mode {
		return model.KeyInfo{}, fmt.Errorf("%s key used for %s: %w", info.Mode, mode, model.ErrWrongMode)
	}
	return info, nil
}

// cachedKey is the cache representation; KeyInfo does not serialize the key itself
type cachedKey struct {
	Mode   model.KeyMode `json:"mode"`
	Prompt string        `json:"prompt,omitempty"`
}

func (v *Validator) cached(key string) (model.KeyInfo, bool) {
	if v.cache == nil {
		return model.KeyInfo{}, false
	}
	data, ok := v.cache.Get(cache.CacheKey("key", key))
	if !ok {
		return model.KeyInfo{}, false
	}
	var c cachedKey
	if err := json.Unmarshal(data, &c); err != nil {
		return model.KeyInfo{}, false
	}
	return model.KeyInfo{Key: key, Mode: c.Mode, Prompt: c.Prompt}, true
}

// lookupWithRetry retries transient directory failures with exponential backoff.
// Unknown keys are not retried.
func (v *Validator) lookupWithRetry(ctx context.Context, key string) (model.KeyInfo, error) {
	var lastErr error
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		info, err := v.dir.Lookup(ctx, key)
		if err == nil {
			return info, nil
		}
		if errors.Is(err, model.ErrInvalidKey) || ctx.Err() != nil {
			return model.KeyInfo{}, err
		}
		lastErr = err
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
			validateSleepFunc(backoff)
		}
	}
	return model.KeyInfo{}, fmt.Errorf("directory lookup: %w", lastErr)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists guard lists and key lookups between CLI runs.
//
// Entries live at <dir>/<namespace>/<shard>/<digest>.json, where the digest
// is the hash part of a CacheKey and the shard is its first two characters.
// Keys not built by CacheKey are hashed into the "raw" namespace.
type DiskCache struct {
	dir        string
	defaultTTL time.Duration
}

// NewDiskCache creates a cache rooted at dir. Entries stored with a zero TTL
// use defaultTTL; a non-positive defaultTTL keeps them until deleted.
func NewDiskCache(dir string, defaultTTL time.Duration) *DiskCache {
	return &DiskCache{dir: dir, defaultTTL: defaultTTL}
}

// record is the on-disk form. A zero Expires never expires.
type record struct {
	Value   []byte    `json:"value"`
	Expires time.Time `json:"expires,omitzero"`
}

func (r record) expired(now time.Time) bool {
	return !r.Expires.IsZero() && now.After(r.Expires)
}

// Get returns a live entry. Expired or unreadable entries are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	rec, err := readRecord(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(path)
		}
		return nil, false
	}
	if rec.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}
	return rec.Value, true
}

// Set writes an entry atomically: a reader sees the old entry or the new
// one, never a partial file. A negative ttl stores an already expired entry.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	rec := record{Value: value}
	if ttl == 0 {
		ttl = max(c.defaultTTL, 0)
	}
	if ttl != 0 {
		rec.Expires = time.Now().Add(ttl)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	path := c.path(key)
	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", shard, err)
	}

	tmp, err := os.CreateTemp(shard, ".pending-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Delete removes an entry. Missing entries are not an error.
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes the whole cache directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Prune removes expired and unreadable entries along with abandoned staging
// files, and reports how many files it removed. A missing directory prunes
// nothing.
func (c *DiskCache) Prune() (int, error) {
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		stale := strings.HasPrefix(d.Name(), ".pending-")
		if !stale && filepath.Ext(path) == ".json" {
			rec, err := readRecord(path)
			stale = err != nil || rec.expired(now)
		}
		if stale && os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

func readRecord(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// path maps a key to its entry file
func (c *DiskCache) path(key string) string {
	namespace, digest := splitKey(key)
	return filepath.Join(c.dir, namespace, digest[:2], digest+".json")
}

// splitKey returns the namespace and hex digest of a CacheKey, hashing any
// other key so file names stay fixed-length and free of separators
func splitKey(key string) (namespace, digest string) {
	parts := strings.Split(key, ":")
	if len(parts) == 4 && parts[0] == "trustlens" && isDigest(parts[3]) && parts[2] != "" && !strings.ContainsAny(parts[2], `/\.`) {
		return parts[2], parts[3]
	}
	sum := sha256.Sum256([]byte(key))
	return "raw", hex.EncodeToString(sum[:])
}

func isDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("key", "secret-api-key")
	k2 := CacheKey("key", "secret-api-key")
	k3 := CacheKey("blacklist", "secret-api-key")

	if k1 != k2 {
		t.Error("Expected identical keys for identical input")
	}
	if k1 == k3 {
		t.Error("Expected namespace to change the key")
	}
	if strings.Contains(k1, "secret") {
		t.Errorf("Cache key leaks raw value: %s", k1)
	}
	if !strings.HasPrefix(k1, "trustlens:v1:key:") {
		t.Errorf("Unexpected key prefix: %s", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)

	value := []byte("payload")
	if err := c.Set("a", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("a")
	if !ok || string(got) != "payload" {
		t.Errorf("Expected stored copy, got %q (found=%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected entry to be deleted")
	}

	_ = c.Set("b", []byte("x"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("b"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("blacklist", "k")

	if _, ok := c.Get(key); ok {
		t.Fatal("Expected miss on empty cache")
	}
	if err := c.Set(key, []byte(`["bad.com"]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `["bad.com"]` {
		t.Errorf("Unexpected value %q (found=%v)", got, ok)
	}

	digest := strings.TrimPrefix(key, "trustlens:v1:blacklist:")
	want := filepath.Join(dir, "blacklist", digest[:2], digest+".json")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("Expected entry at %s: %v", want, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "blacklist", digest[:2], ".pending-*"))
	if len(leftovers) != 0 {
		t.Errorf("Staging files left behind: %v", leftovers)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestDiskCache_RawKeys(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	for _, key := range []string{"../../etc/passwd", "trustlens:v1:../x:" + strings.Repeat("a", 64), "a:b"} {
		if err := c.Set(key, []byte("v"), 0); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
		if rel, _ := filepath.Rel(filepath.Join(dir, "raw"), c.path(key)); strings.HasPrefix(rel, "..") {
			t.Errorf("Key %q escaped the raw namespace: %s", key, c.path(key))
		}
		if got, ok := c.Get(key); !ok || string(got) != "v" {
			t.Errorf("Get(%q) = %q, %v", key, got, ok)
		}
	}
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("Expected expired entry file to be removed")
	}
}

func TestDiskCache_NoDefaultTTL(t *testing.T) {
	c := NewDiskCache(t.TempDir(), 0)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected entry without expiry, got %q (found=%v)", got, ok)
	}
}

func TestDiskCache_Prune(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	live, gone := CacheKey("key", "live"), CacheKey("key", "gone")
	if err := c.Set(live, []byte("1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(gone, []byte("2"), -time.Minute); err != nil {
		t.Fatal(err)
	}

	corrupt := c.path(CacheKey("key", "corrupt"))
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	pending := filepath.Join(filepath.Dir(corrupt), ".pending-123")
	if err := os.WriteFile(pending, []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	n, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 files pruned, got %d", n)
	}
	if _, ok := c.Get(live); !ok {
		t.Error("Prune removed a live entry")
	}
	for _, path := range []string{c.path(gone), corrupt, pending} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed", path)
		}
	}

	missing := NewDiskCache(filepath.Join(dir, "nope"), time.Hour)
	if n, err := missing.Prune(); err != nil || n != 0 {
		t.Errorf("Prune on missing dir = %d, %v", n, err)
	}
}

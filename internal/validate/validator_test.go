package validate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/directory"
	"github.com/ppiankov/trustlens/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	validateSleepFunc = func(d time.Duration) {}
}

const baseKey = "6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f"

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    model.KeyMode
		wantErr bool
	}{
		{baseKey, model.ModeAgent, false},
		{baseKey + "-agent", model.ModeAgent, false},
		{baseKey + "-control", model.ModeControl, false},
		{"6F1C2D3E-4A5B-4C6D-8E9F-0A1B2C3D4E5F-CONTROL", model.ModeControl, false},
		{"  " + baseKey + "  ", model.ModeAgent, false},
		{"", "", true},
		{"not-a-key", "", true},
		{baseKey + "-admin", "", true},
		{baseKey[:35], "", true},
		{"{" + baseKey + "}", "", true},
		{"urn:uuid:" + baseKey, "", true},
		{"urn:uuid:" + baseKey + "-control", "", true},
		{"6f1c2d3e4a5b4c6d8e9f0a1b2c3d4e5f", "", true},
		{baseKey + "-Agent", model.ModeAgent, false},
		{"6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5g", "", true},
		{"6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f0", "", true},
		{"-control", "", true},
		{baseKey + "-control-agent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, model.ErrInvalidKey) {
				t.Errorf("Expected ErrInvalidKey, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// countingDirectory wraps a directory and counts lookups
type countingDirectory struct {
	directory.Directory
	lookups atomic.Int32
	fail    int32
}

func (d *countingDirectory) Lookup(ctx context.Context, key string) (model.KeyInfo, error) {
	n := d.lookups.Add(1)
	if n <= d.fail {
		return model.KeyInfo{}, errors.New("connection refused")
	}
	return d.Directory.Lookup(ctx, key)
}

func TestValidator_Validate(t *testing.T) {
	dir := &countingDirectory{Directory: directory.NewStatic([]model.StaticKeyConfig{
		{Key: baseKey, Prompt: "check facts"},
		{Key: baseKey + "-control"},
	})}
	v := NewValidator(dir, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	info, err := v.Validate(context.Background(), baseKey)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if info.Mode != model.ModeAgent || info.Prompt != "check facts" {
		t.Errorf("Unexpected info: %+v", info)
	}

	// Second call is served from the cache
	if _, err := v.Validate(context.Background(), baseKey); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if dir.lookups.Load() != 1 {
		t.Errorf("Expected 1 directory lookup, got %d", dir.lookups.Load())
	}

	info, err = v.Validate(context.Background(), baseKey+"-control")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if info.Mode != model.ModeControl {
		t.Errorf("Expected control mode from suffix, got %q", info.Mode)
	}
}

func TestValidator_UnknownKey(t *testing.T) {
	dir := &countingDirectory{Directory: directory.NewStatic([]model.StaticKeyConfig{{Key: baseKey}})}
	v := NewValidator(dir, nil, 0)

	_, err := v.Validate(context.Background(), "0f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f")
	if !errors.Is(err, model.ErrInvalidKey) {
		t.Fatalf("Expected ErrInvalidKey, got %v", err)
	}
	if dir.lookups.Load() != 1 {
		t.Errorf("Unknown keys must not be retried, got %d lookups", dir.lookups.Load())
	}
}

func TestValidator_MalformedKeySkipsDirectory(t *testing.T) {
	dir := &countingDirectory{Directory: directory.NewStatic(nil)}
	v := NewValidator(dir, nil, 0)

	if _, err := v.Validate(context.Background(), "hunter2"); !errors.Is(err, model.ErrInvalidKey) {
		t.Fatalf("Expected ErrInvalidKey, got %v", err)
	}
	if dir.lookups.Load() != 0 {
		t.Errorf("Malformed key reached the directory")
	}
}

func TestValidator_RetriesTransientFailure(t *testing.T) {
	dir := &countingDirectory{Directory: directory.NewStatic(nil), fail: 2}
	v := NewValidator(dir, nil, 0)

	if _, err := v.Validate(context.Background(), baseKey); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if dir.lookups.Load() != 3 {
		t.Errorf("Expected 3 lookups, got %d", dir.lookups.Load())
	}
}

func TestValidator_RetriesExhausted(t *testing.T) {
	dir := &countingDirectory{Directory: directory.NewStatic(nil), fail: 10}
	v := NewValidator(dir, nil, 0)

	_, err := v.Validate(context.Background(), baseKey)
	if err == nil || errors.Is(err, model.ErrInvalidKey) {
		t.Fatalf("Expected a directory error, got %v", err)
	}
	if dir.lookups.Load() != validateMaxRetries {
		t.Errorf("Expected %d lookups, got %d", validateMaxRetries, dir.lookups.Load())
	}
}

func TestValidator_Require(t *testing.T) {
	v := NewValidator(directory.NewStatic(nil), nil, 0)

	if _, err := v.Require(context.Background(), baseKey+"-control", model.ModeAgent); !errors.Is(err, model.ErrWrongMode) {
		t.Errorf("Expected ErrWrongMode, got %v", err)
	}
	if _, err := v.Require(context.Background(), baseKey+"-control", model.ModeControl); err != nil {
		t.Errorf("Expected control key accepted, got %v", err)
	}
	if _, err := v.Require(context.Background(), baseKey, model.ModeAgent); err != nil {
		t.Errorf("Expected agent key accepted, got %v", err)
	}
}

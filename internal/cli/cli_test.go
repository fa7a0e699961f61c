package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/model"
)

func TestRegisterDefaults_EnvOverride(t *testing.T) {
	v := viper.New()
	v.SetEnvPrefix("TRUSTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults failed: %v", err)
	}

	t.Setenv("TRUSTLENS_SERVICES_FACT_CHECK_URL", "http://facts.test")
	t.Setenv("TRUSTLENS_SERVICES_MEDIA_CHECK_TIMEOUT", "90s")

	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if cfg.Services.FactCheckURL != "http://facts.test" {
		t.Errorf("Expected env fact URL, got %q", cfg.Services.FactCheckURL)
	}
	if cfg.Services.MediaCheckTimeout != 90*time.Second {
		t.Errorf("Expected 90s media timeout, got %v", cfg.Services.MediaCheckTimeout)
	}
	if cfg.Services.FactCheckTimeout != 30*time.Second {
		t.Errorf("Expected default fact timeout to survive, got %v", cfg.Services.FactCheckTimeout)
	}
	if cfg.Guard.TTL != 5*time.Minute {
		t.Errorf("Expected default guard TTL, got %v", cfg.Guard.TTL)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fact_check_url:") {
		t.Errorf("Expected services section in config:\n%s", data)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when the file already exists")
	}
}

func TestReportSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://news.example.com/2024/story?id=1", "news.example.com_2024_story"},
		{"https://example.com/", "example.com"},
		{"::bad", "page"},
	}
	for _, tt := range tests {
		if got := reportSlug(tt.in); got != tt.want {
			t.Errorf("reportSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader("The Eiffel Tower is in Berlin. Contact me at a@b.com."))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"redact"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("redact failed: %v", err)
	}
	if out.String() != "The Eiffel Tower is in Berlin. Contact me at EMAIL1." {
		t.Errorf("Unexpected output: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "email") {
		t.Errorf("Expected detected types on stderr, got %q", errOut.String())
	}
}

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("They threatened to kill him with a gun."))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"classify"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if !strings.Contains(out.String(), `"violence": 2`) {
		t.Errorf("Expected two violence hits, got %s", out.String())
	}
}

func TestBuildServices_MediaWorkers(t *testing.T) {
	var active, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"media_type": "image"}`))
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	cfg.Services.MediaCheckURL = server.URL
	cfg.Services.MediaWorkers = 1
	cfg.Services.ClaimWorkers = 8

	services, err := buildServices(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	if services.Media == nil {
		t.Fatal("Expected media service")
	}

	assets := make([]model.MediaAsset, 4)
	for i := range assets {
		assets[i] = model.MediaAsset{SourceURL: fmt.Sprintf("https://x.test/%d.png", i), Kind: model.MediaImage, Bytes: []byte("png")}
	}
	report, err := services.Media.CheckMedia(context.Background(), assets)
	if err != nil {
		t.Fatalf("CheckMedia failed: %v", err)
	}
	if len(report.Items) != 4 {
		t.Errorf("Expected 4 verdicts, got %d", len(report.Items))
	}
	if peak.Load() != 1 {
		t.Errorf("Expected media calls bounded by media_workers, peak was %d", peak.Load())
	}
}

func TestBuildServices_ContentSafety(t *testing.T) {
	cfg := model.DefaultConfig()
	services, err := buildServices(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	if services.Safety != nil {
		t.Error("Content safety enabled by default")
	}

	cfg.Services.ContentSafety = true
	if _, err := buildServices(cfg, zap.NewNop()); err == nil {
		t.Error("Expected error when no model endpoint is configured")
	}

	cfg.LLM.Provider = "ollama"
	cfg.LLM.BaseURL = "http://localhost:11434"
	services, err = buildServices(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	if services.Safety == nil {
		t.Error("Expected content safety service")
	}
}

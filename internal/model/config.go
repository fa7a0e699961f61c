package model

import "time"

// Config is the complete TrustLens configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Services   ServicesConfig   `yaml:"services" mapstructure:"services"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Directory  DirectoryConfig  `yaml:"directory" mapstructure:"directory"`
	Aggregator AggregatorConfig `yaml:"aggregator" mapstructure:"aggregator"`
	Harvest    HarvestConfig    `yaml:"harvest" mapstructure:"harvest"`
	Guard      GuardConfig      `yaml:"guard" mapstructure:"guard"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the backend HTTP listener
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// ServicesConfig holds upstream analysis service endpoints and budgets
type ServicesConfig struct {
	FactCheckURL         string        `yaml:"fact_check_url" mapstructure:"fact_check_url"`
	MediaCheckURL        string        `yaml:"media_check_url" mapstructure:"media_check_url"`
	TextOriginURL        string        `yaml:"text_origin_url" mapstructure:"text_origin_url"`
	ContentSafety        bool          `yaml:"content_safety" mapstructure:"content_safety"` // Scored by the configured LLM
	FactCheckTimeout     time.Duration `yaml:"fact_check_timeout" mapstructure:"fact_check_timeout"`
	MediaCheckTimeout    time.Duration `yaml:"media_check_timeout" mapstructure:"media_check_timeout"`
	TextOriginTimeout    time.Duration `yaml:"text_origin_timeout" mapstructure:"text_origin_timeout"`
	ContentSafetyTimeout time.Duration `yaml:"content_safety_timeout" mapstructure:"content_safety_timeout"`
	DeadlineMargin       time.Duration `yaml:"deadline_margin" mapstructure:"deadline_margin"`
	MaxRetries           int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxClaims            int           `yaml:"max_claims" mapstructure:"max_claims"`
	ClaimWorkers         int           `yaml:"claim_workers" mapstructure:"claim_workers"`
	MediaWorkers         int           `yaml:"media_workers" mapstructure:"media_workers"`
	HTTPProxy            string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy           string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// AuthConfig configures caller-key validation
type AuthConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// DirectoryConfig selects where caller keys and blacklists live
type DirectoryConfig struct {
	Backend   string            `yaml:"backend" mapstructure:"backend"` // static, redis, portal
	RedisAddr string            `yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`
	PortalURL string            `yaml:"portal_url,omitempty" mapstructure:"portal_url"`
	Keys      []StaticKeyConfig `yaml:"keys,omitempty" mapstructure:"keys"`
}

// StaticKeyConfig is one key entry for the static directory
type StaticKeyConfig struct {
	Key       string   `yaml:"key" mapstructure:"key"`
	Prompt    string   `yaml:"prompt,omitempty" mapstructure:"prompt"`
	Blacklist []string `yaml:"blacklist,omitempty" mapstructure:"blacklist"`
}

// AggregatorConfig holds the tunable scoring thresholds
type AggregatorConfig struct {
	FactTrueScore   int     `yaml:"fact_true_score" mapstructure:"fact_true_score"`
	FactFalseScore  int     `yaml:"fact_false_score" mapstructure:"fact_false_score"`
	NeutralScore    int     `yaml:"neutral_score" mapstructure:"neutral_score"`
	MediaWeight     float64 `yaml:"media_weight" mapstructure:"media_weight"`
	ExtremeHigh     float64 `yaml:"extreme_high" mapstructure:"extreme_high"`
	ExtremeLow      float64 `yaml:"extreme_low" mapstructure:"extreme_low"`
	FlagThreshold   float64 `yaml:"flag_threshold" mapstructure:"flag_threshold"`
	TextThreshold   float64 `yaml:"text_threshold" mapstructure:"text_threshold"`
	TextMaxPenalty  int     `yaml:"text_max_penalty" mapstructure:"text_max_penalty"`
	SafetyThreshold float64 `yaml:"safety_threshold" mapstructure:"safety_threshold"`
}

// HarvestConfig holds client-side harvesting budgets
type HarvestConfig struct {
	MaxTextChars      int           `yaml:"max_text_chars" mapstructure:"max_text_chars"`
	MinContentChars   int           `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	MaxImages         int           `yaml:"max_images" mapstructure:"max_images"`
	MaxImageBytes     int64         `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
	MaxVideos         int           `yaml:"max_videos" mapstructure:"max_videos"`
	MaxVideoBytes     int64         `yaml:"max_video_bytes" mapstructure:"max_video_bytes"`
	PanicVideoBytes   int64         `yaml:"panic_video_bytes" mapstructure:"panic_video_bytes"`
	Parallelism       int           `yaml:"parallelism" mapstructure:"parallelism"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxPageBytes      int64         `yaml:"max_page_bytes" mapstructure:"max_page_bytes"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// GuardConfig configures the navigation guard and the client backend
type GuardConfig struct {
	BackendURL    string        `yaml:"backend_url" mapstructure:"backend_url"`
	CallerKey     string        `yaml:"caller_key,omitempty" mapstructure:"caller_key"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	ExemptDomains []string      `yaml:"exempt_domains" mapstructure:"exempt_domains"`
	BlockPage     string        `yaml:"block_page" mapstructure:"block_page"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
}

// LLMConfig configures optional LLM claim extraction
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // "openai" or "" (disabled)
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures on-disk persistence for client-side caches
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			MaxUploadBytes: 40 << 20,
		},
		Services: ServicesConfig{
			FactCheckURL:         "http://localhost:8001",
			MediaCheckURL:        "http://localhost:8002",
			TextOriginURL:        "http://localhost:8003",
			ContentSafety:        false,
			FactCheckTimeout:     30 * time.Second,
			MediaCheckTimeout:    60 * time.Second,
			TextOriginTimeout:    15 * time.Second,
			ContentSafetyTimeout: 30 * time.Second,
			DeadlineMargin:       5 * time.Second,
			MaxRetries:           3,
			MaxClaims:            8,
			ClaimWorkers:         4,
			MediaWorkers:         2,
		},
		Auth: AuthConfig{
			CacheTTL: time.Minute,
		},
		Directory: DirectoryConfig{
			Backend: "static",
		},
		Aggregator: AggregatorConfig{
			FactTrueScore:   90,
			FactFalseScore:  10,
			NeutralScore:    50,
			MediaWeight:     0.6,
			ExtremeHigh:     0.9,
			ExtremeLow:      0.1,
			FlagThreshold:   0.5,
			TextThreshold:   0.5,
			TextMaxPenalty:  10,
			SafetyThreshold: 0.5,
		},
		Harvest: HarvestConfig{
			MaxTextChars:      50_000,
			MinContentChars:   100,
			MaxImages:         MaxImageAssets,
			MaxImageBytes:     2 << 20,
			MaxVideos:         MaxVideoAssets,
			MaxVideoBytes:     5 << 20,
			PanicVideoBytes:   15 << 20,
			Parallelism:       4,
			Timeout:           20 * time.Second,
			MaxPageBytes:      2_000_000,
			UserAgent:         "TrustLens/0.1 (+https://github.com/ppiankov/trustlens)",
			RespectRobots:     false,
			RequestsPerSecond: 4,
			BurstSize:         4,
		},
		Guard: GuardConfig{
			BackendURL:    "http://localhost:8080",
			TTL:           5 * time.Minute,
			ExemptDomains: []string{"google.com"},
			BlockPage:     "trustlens://blocked",
			FetchTimeout:  10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60 * time.Second,
			MaxTokens: 1024,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

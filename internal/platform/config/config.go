package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Defaults come from Default(), an
// optional YAML file overlays them and environment variables win last.
type Config struct {
	Server    Server          `yaml:"server"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Views     ViewsConfig     `yaml:"views"`
	Redis     RedisConfig     `yaml:"redis"`
	Identity  IdentityConfig  `yaml:"identity"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string        `yaml:"addr"`
	SecureCookies bool          `yaml:"secure_cookies"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// UpstreamsConfig holds base URLs and keys for the external providers.
type UpstreamsConfig struct {
	CatalogBaseURL string        `yaml:"catalog_base_url"`
	CatalogTimeout time.Duration `yaml:"catalog_timeout"`
	CatalogTTL     time.Duration `yaml:"catalog_cache_ttl"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	UnsplashBaseURL   string `yaml:"unsplash_base_url"`
	UnsplashAccessKey string `yaml:"unsplash_access_key"`

	GNewsBaseURL string `yaml:"gnews_base_url"`
	GNewsAPIKey  string `yaml:"gnews_api_key"`
	NewsRSSURL   string `yaml:"news_rss_url"`

	EnrichmentTimeout time.Duration `yaml:"enrichment_timeout"`
}

// ViewsConfig tunes the server-side views.
type ViewsConfig struct {
	SuggestDelay time.Duration `yaml:"suggest_delay"`
	IdleTTL      time.Duration `yaml:"idle_ttl"`
	SweepEvery   time.Duration `yaml:"sweep_every"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
}

// RedisConfig configures the optional Redis connection. An empty URL
// disables Redis and every store falls back to memory.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// IdentityConfig selects the identity provider.
type IdentityConfig struct {
	Provider       string        `yaml:"provider"` // local | firebase
	JWTSigningKey  string        `yaml:"jwt_signing_key"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	FirebaseAPIKey string        `yaml:"firebase_api_key"`
	FirebaseURL    string        `yaml:"firebase_base_url"`
}

// RateLimitConfig bounds API calls per browser client.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // json | text
	Level  string `yaml:"level"`
}

const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"
)

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:         ":8080",
			WriteTimeout: 30 * time.Second,
		},
		Upstreams: UpstreamsConfig{
			CatalogBaseURL:    "https://restcountries.com/v3.1",
			CatalogTimeout:    10 * time.Second,
			CatalogTTL:        10 * time.Minute,
			GeminiModel:       "gemini-2.0-flash",
			UnsplashBaseURL:   "https://api.unsplash.com",
			GNewsBaseURL:      "https://gnews.io/api/v4",
			NewsRSSURL:        "https://news.google.com/rss/search",
			EnrichmentTimeout: 20 * time.Second,
		},
		Views: ViewsConfig{
			SuggestDelay: 300 * time.Millisecond,
			IdleTTL:      30 * time.Minute,
			SweepEvery:   time.Minute,
			WaitTimeout:  25 * time.Second,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Identity: IdentityConfig{
			Provider: ProviderLocal,
			// Development default; override in production.
			JWTSigningKey: "dev-secret-key-change-in-production",
			TokenTTL:      time.Hour,
			FirebaseURL:   "https://identitytoolkit.googleapis.com/v1",
		},
		RateLimit: RateLimitConfig{
			PerSecond: 20,
			Burst:     40,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// WORLDFOLIO_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("WORLDFOLIO_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.overlayEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.overlayYAML(data)
}

func (c *Config) overlayYAML(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) overlayEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"WORLDFOLIO_ADDR":     &c.Server.Addr,
		"RESTCOUNTRIES_URL":   &c.Upstreams.CatalogBaseURL,
		"GEMINI_API_KEY":      &c.Upstreams.GeminiAPIKey,
		"GEMINI_MODEL":        &c.Upstreams.GeminiModel,
		"UNSPLASH_URL":        &c.Upstreams.UnsplashBaseURL,
		"UNSPLASH_ACCESS_KEY": &c.Upstreams.UnsplashAccessKey,
		"GNEWS_URL":           &c.Upstreams.GNewsBaseURL,
		"GNEWS_API_KEY":       &c.Upstreams.GNewsAPIKey,
		"NEWS_RSS_URL":        &c.Upstreams.NewsRSSURL,
		"REDIS_URL":           &c.Redis.URL,
		"IDENTITY_PROVIDER":   &c.Identity.Provider,
		"JWT_SIGNING_KEY":     &c.Identity.JWTSigningKey,
		"FIREBASE_API_KEY":    &c.Identity.FirebaseAPIKey,
		"FIREBASE_URL":        &c.Identity.FirebaseURL,
		"LOG_FORMAT":          &c.Log.Format,
		"LOG_LEVEL":           &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"CATALOG_TIMEOUT":    &c.Upstreams.CatalogTimeout,
		"CATALOG_CACHE_TTL":  &c.Upstreams.CatalogTTL,
		"ENRICHMENT_TIMEOUT": &c.Upstreams.EnrichmentTimeout,
		"SUGGEST_DELAY":      &c.Views.SuggestDelay,
		"VIEW_IDLE_TTL":      &c.Views.IdleTTL,
		"VIEW_WAIT_TIMEOUT":  &c.Views.WaitTimeout,
		"TOKEN_TTL":          &c.Identity.TokenTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("SECURE_COOKIES"); ok {
		c.Server.SecureCookies = v == "true"
	}
	if v, ok := lookup("RATE_LIMIT_PER_SECOND"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %w", err)
		}
		c.RateLimit.PerSecond = f
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimit.Burst = n
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.Identity.Provider {
	case ProviderLocal:
		if c.Identity.JWTSigningKey == "" {
			return fmt.Errorf("identity: jwt signing key is required for the local provider")
		}
	case ProviderFirebase:
		if c.Identity.FirebaseAPIKey == "" {
			return fmt.Errorf("identity: firebase api key is required")
		}
	default:
		return fmt.Errorf("identity: unknown provider %q", c.Identity.Provider)
	}
	views := []struct {
		name  string
		value time.Duration
	}{
		{"suggest_delay", c.Views.SuggestDelay},
		{"idle_ttl", c.Views.IdleTTL},
		{"sweep_every", c.Views.SweepEvery},
		{"wait_timeout", c.Views.WaitTimeout},
	}
	for _, v := range views {
		if v.value <= 0 {
			return fmt.Errorf("views: %s must be positive", v.name)
		}
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit: per_second and burst must be positive")
	}
	return nil
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider modes.
const (
	ProviderHTTP    = "http"
	ProviderBrowser = "browser"
	ProviderAuto    = "auto"
)

// DefaultTargetURL is the listing page scraped when none is configured.
const DefaultTargetURL = "https://www.zomato.com/hyderabad/restaurants"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Target    TargetConfig
	Provider  string
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Extract   ExtractConfig
	Store     StoreConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Engine    EngineConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"
}

// TargetConfig names the listing page to scrape.
type TargetConfig struct {
	URL string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 2

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls one interactive session.
type ScraperConfig struct {
	// Timeout bounds a whole scrape, provider included.
	Timeout time.Duration // default: 60s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s

	// PopupWait bounds the search for a popup close button.
	PopupWait time.Duration // default: 5s

	// Scrolls is the number of viewport scrolls used to trigger lazy loading.
	Scrolls int // default: 3

	// ScrollPause is the delay after each scroll.
	ScrollPause time.Duration // default: 2s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks requests to known ad and tracking domains.
	BlockAds bool // default: true
}

// ExtractConfig overrides extraction profile knobs. Zero keeps the
// profile's own value.
type ExtractConfig struct {
	Threshold int
	MinLength int
}

// StoreConfig controls result persistence.
type StoreConfig struct {
	DataFile string // default: "restaurants.json"
}

// CacheConfig controls the recent-scrape cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 16
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting on /scrape.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per identity.
	Burst int // default: 2
}

// EngineConfig controls the auto provider's racing dispatcher.
type EngineConfig struct {
	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the static engine.
	HTTPTimeout time.Duration // default: 10s

	// MemoryTTL is how long the winning engine is remembered per domain.
	MemoryTTL time.Duration // default: 24h
}

// WebhookConfig controls scrape notifications.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("TABLESCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("TABLESCOUT_PORT", 5000),
			Mode: envOr("TABLESCOUT_MODE", "release"),
		},
		Target: TargetConfig{
			URL: envOr("TABLESCOUT_TARGET_URL", DefaultTargetURL),
		},
		Provider: normalizeProvider(envOr("TABLESCOUT_PROVIDER", ProviderAuto)),
		Browser: BrowserConfig{
			Headless:     envBoolOr("TABLESCOUT_HEADLESS", true),
			MaxPages:     envIntOr("TABLESCOUT_MAX_PAGES", 2),
			DefaultProxy: os.Getenv("TABLESCOUT_PROXY"),
			NoSandbox:    envBoolOr("TABLESCOUT_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("TABLESCOUT_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			Timeout:           envDurationOr("TABLESCOUT_TIMEOUT", 60*time.Second),
			NavigationTimeout: envDurationOr("TABLESCOUT_NAV_TIMEOUT", 30*time.Second),
			PopupWait:         envDurationOr("TABLESCOUT_POPUP_WAIT", 5*time.Second),
			Scrolls:           envIntOr("TABLESCOUT_SCROLLS", 3),
			ScrollPause:       envDurationOr("TABLESCOUT_SCROLL_PAUSE", 2*time.Second),
			BlockedResourceTypes: envSliceOr("TABLESCOUT_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("TABLESCOUT_BLOCK_ADS", true),
		},
		Extract: ExtractConfig{
			Threshold: envIntOr("TABLESCOUT_EXTRACT_THRESHOLD", 0),
			MinLength: envIntOr("TABLESCOUT_EXTRACT_MIN_LENGTH", 0),
		},
		Store: StoreConfig{
			DataFile: envOr("TABLESCOUT_DATA_FILE", "restaurants.json"),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TABLESCOUT_CACHE_MAX_ENTRIES", 16),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TABLESCOUT_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TABLESCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TABLESCOUT_RATE_RPS", 0.2),
			Burst:             envIntOr("TABLESCOUT_RATE_BURST", 2),
		},
		Engine: EngineConfig{
			EscalationDelays: envDurationSliceOr("TABLESCOUT_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:      envDurationOr("TABLESCOUT_HTTP_TIMEOUT", 10*time.Second),
			MemoryTTL:        envDurationOr("TABLESCOUT_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("TABLESCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("TABLESCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("TABLESCOUT_LOG_LEVEL", "info"),
			Format: envOr("TABLESCOUT_LOG_FORMAT", "json"),
		},
	}
}

// normalizeProvider maps unknown modes to auto.
func normalizeProvider(mode string) string {
	switch m := strings.ToLower(strings.TrimSpace(mode)); m {
	case ProviderHTTP, ProviderBrowser, ProviderAuto:
		return m
	default:
		return ProviderAuto
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

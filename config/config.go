package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/workana-scraper/models"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Workana   Credentials
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Listing   ListingConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host  string // default: "0.0.0.0"
	Port  int    // default: 8000
	Debug bool   // default: false
}

// Mode returns the gin mode matching Debug.
func (s ServerConfig) Mode() string {
	if s.Debug {
		return "debug"
	}
	return "release"
}

// Credentials is the marketplace account used to log in.
// It is read-only for the lifetime of the process.
type Credentials struct {
	Email    string
	Password string
}

// Validate reports missing credential values as a configuration error.
func (c Credentials) Validate() error {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "WORKANA_EMAIL")
	}
	if c.Password == "" {
		missing = append(missing, "WORKANA_PASSWORD")
	}
	if len(missing) > 0 {
		return models.NewScrapeError(
			models.ErrCodeConfiguration,
			"missing required environment variables: "+strings.Join(missing, ", "),
			nil,
		).AtStep(models.StepConfig)
	}
	return nil
}

// LogValue hides the secret when credentials end up in a log line.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", setOrMissing(c.Email)),
		slog.String("password", setOrMissing(c.Password)),
	)
}

// BrowserConfig controls the automated browser launched per scrape.
type BrowserConfig struct {
	// Driver selects the automation backend: "rod" or "playwright".
	Driver string // default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the upstream proxy URL for all browser traffic.
	Proxy string

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig holds the bounded waits and settle delays of one scrape.
type ScraperConfig struct {
	ScrapeTimeout   time.Duration // default: 3m
	PageLoadTimeout time.Duration // default: 30s
	ConsentTimeout  time.Duration // default: 5s
	ConsentSettle   time.Duration // default: 1s
	LoginTimeout    time.Duration // default: 20s
	ListingTimeout  time.Duration // default: 15s
	ExpandDelay     time.Duration // default: 300ms
	ExpandSettle    time.Duration // default: 2s
}

// ListingConfig parameterises the job listing URL.
type ListingConfig struct {
	Query     string   // default: "automação"
	Languages []string // default: ["en", "pt"]
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty disables authentication.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting of /scrape.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per identity.
	Burst int // default: 2
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info", "debug" when DEBUG is set
	Format string // "json" or "text"; default: "json"
}

// WebhookConfig controls delivery of scrape results downstream.
type WebhookConfig struct {
	URL    string
	Secret string
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults. It does not validate; call Validate before
// constructing anything that needs the credentials.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	debug := envBoolOr("DEBUG", false)
	defaultLevel := "info"
	if debug {
		defaultLevel = "debug"
	}

	return &Config{
		Server: ServerConfig{
			Host:  envOr("HOST", "0.0.0.0"),
			Port:  envIntOr("PORT", 8000),
			Debug: debug,
		},
		Workana: Credentials{
			Email:    os.Getenv("WORKANA_EMAIL"),
			Password: os.Getenv("WORKANA_PASSWORD"),
		},
		Browser: BrowserConfig{
			Driver:     envOr("WORKANA_BROWSER_DRIVER", "rod"),
			Headless:   envBoolOr("WORKANA_HEADLESS", true),
			NoSandbox:  envBoolOr("WORKANA_NO_SANDBOX", true),
			BrowserBin: os.Getenv("WORKANA_BROWSER_BIN"),
			Proxy:      os.Getenv("WORKANA_PROXY"),
			BlockedResourceTypes: envSliceOr("WORKANA_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			ScrapeTimeout:   envDurationOr("WORKANA_SCRAPE_TIMEOUT", 3*time.Minute),
			PageLoadTimeout: envDurationOr("WORKANA_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ConsentTimeout:  envDurationOr("WORKANA_CONSENT_TIMEOUT", 5*time.Second),
			ConsentSettle:   envDurationOr("WORKANA_CONSENT_SETTLE", 1*time.Second),
			LoginTimeout:    envDurationOr("WORKANA_LOGIN_TIMEOUT", 20*time.Second),
			ListingTimeout:  envDurationOr("WORKANA_LISTING_TIMEOUT", 15*time.Second),
			ExpandDelay:     envDurationOr("WORKANA_EXPAND_DELAY", 300*time.Millisecond),
			ExpandSettle:    envDurationOr("WORKANA_EXPAND_SETTLE", 2*time.Second),
		},
		Listing: ListingConfig{
			Query:     envOr("WORKANA_LISTING_QUERY", "automação"),
			Languages: envSliceOr("WORKANA_LISTING_LANGUAGES", []string{"en", "pt"}),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("WORKANA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("WORKANA_RATE_RPS", 0.2),
			Burst:             envIntOr("WORKANA_RATE_BURST", 2),
		},
		Log: LogConfig{
			Level:  envOr("WORKANA_LOG_LEVEL", defaultLevel),
			Format: envOr("WORKANA_LOG_FORMAT", "json"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("WORKANA_WEBHOOK_URL"),
			Secret: os.Getenv("WORKANA_WEBHOOK_SECRET"),
		},
	}
}

// Validate checks required values. Missing credentials fail here, before any
// browser session can be launched.
func (c *Config) Validate() error {
	if err := c.Workana.Validate(); err != nil {
		return err
	}
	switch c.Browser.Driver {
	case "rod", "playwright":
	default:
		return models.NewScrapeError(
			models.ErrCodeConfiguration,
			"WORKANA_BROWSER_DRIVER must be \"rod\" or \"playwright\", got "+strconv.Quote(c.Browser.Driver),
			nil,
		).AtStep(models.StepConfig)
	}
	return nil
}

// EnvStatus reports which required variables are present without exposing
// their values.
func (c *Config) EnvStatus() map[string]string {
	return map[string]string{
		"WORKANA_EMAIL":    setOrMissing(c.Workana.Email),
		"WORKANA_PASSWORD": setOrMissing(c.Workana.Password),
		"HOST":             c.Server.Host,
		"PORT":             strconv.Itoa(c.Server.Port),
		"DEBUG":            strconv.FormatBool(c.Server.Debug),
	}
}

func setOrMissing(v string) string {
	if v == "" {
		return "MISSING"
	}
	return "SET"
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

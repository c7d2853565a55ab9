package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/workana-scraper/models"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"HOST", "PORT", "DEBUG", "WORKANA_EMAIL", "WORKANA_PASSWORD",
		"WORKANA_BROWSER_DRIVER", "WORKANA_HEADLESS", "WORKANA_BLOCKED_RESOURCES",
		"WORKANA_SCRAPE_TIMEOUT", "WORKANA_LISTING_QUERY", "WORKANA_LISTING_LANGUAGES",
		"WORKANA_API_KEYS", "WORKANA_RATE_RPS", "WORKANA_LOG_LEVEL", "WORKANA_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "release", cfg.Server.Mode())

	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)

	assert.Equal(t, 3*time.Minute, cfg.Scraper.ScrapeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Scraper.ConsentTimeout)
	assert.Equal(t, 20*time.Second, cfg.Scraper.LoginTimeout)
	assert.Equal(t, 15*time.Second, cfg.Scraper.ListingTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Scraper.ExpandDelay)
	assert.Equal(t, 2*time.Second, cfg.Scraper.ExpandSettle)

	assert.Equal(t, "automação", cfg.Listing.Query)
	assert.Equal(t, []string{"en", "pt"}, cfg.Listing.Languages)

	assert.Empty(t, cfg.Auth.APIKeys)
	assert.Equal(t, 0.2, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9001")
	t.Setenv("DEBUG", "true")
	t.Setenv("WORKANA_EMAIL", "me@example.com")
	t.Setenv("WORKANA_PASSWORD", "pw")
	t.Setenv("WORKANA_BROWSER_DRIVER", "playwright")
	t.Setenv("WORKANA_LOGIN_TIMEOUT", "45s")
	t.Setenv("WORKANA_API_KEYS", " a, ,b ")
	t.Setenv("WORKANA_LOG_LEVEL", "")
	t.Setenv("WORKANA_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg := Load()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode())
	assert.Equal(t, "debug", cfg.Log.Level, "DEBUG raises the default log level")
	assert.Equal(t, "playwright", cfg.Browser.Driver)
	assert.Equal(t, 45*time.Second, cfg.Scraper.LoginTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Webhook.URL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("WORKANA_HEADLESS", "maybe")
	t.Setenv("WORKANA_EXPAND_DELAY", "soon")

	cfg := Load()
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 300*time.Millisecond, cfg.Scraper.ExpandDelay)
}

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		missing []string
	}{
		{"both present", Credentials{Email: "e", Password: "p"}, nil},
		{"email missing", Credentials{Password: "p"}, []string{"WORKANA_EMAIL"}},
		{"password missing", Credentials{Email: "e"}, []string{"WORKANA_PASSWORD"}},
		{"both missing", Credentials{}, []string{"WORKANA_EMAIL", "WORKANA_PASSWORD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, models.ErrCodeConfiguration, models.CodeOf(err))
			assert.Equal(t, models.StepConfig, models.StepOf(err))
			assert.Contains(t, err.Error(), strings.Join(tt.missing, ", "))
		})
	}
}

func TestConfig_ValidateDriver(t *testing.T) {
	cfg := &Config{
		Workana: Credentials{Email: "e", Password: "p"},
		Browser: BrowserConfig{Driver: "selenium"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeConfiguration, models.CodeOf(err))
	assert.Contains(t, err.Error(), `"selenium"`)
}

func TestCredentials_LogValueHidesSecrets(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewTextHandler(&buf, nil))
	log.Info("configured", "credentials", Credentials{Email: "me@example.com", Password: "hunter2"})

	out := buf.String()
	assert.NotContains(t, out, "me@example.com")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "credentials.email=SET")
	assert.Contains(t, out, "credentials.password=SET")
}

func TestEnvStatus(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8000},
		Workana: Credentials{Email: "e"},
	}
	status := cfg.EnvStatus()
	assert.Equal(t, "SET", status["WORKANA_EMAIL"])
	assert.Equal(t, "MISSING", status["WORKANA_PASSWORD"])
	assert.Equal(t, "8000", status["PORT"])
	assert.Equal(t, "false", status["DEBUG"])
}

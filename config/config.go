// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with no setup at all.
// Use ValidateAutoSubmit before submitting VIDEO_ID/YT_API_KEY at startup.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// UI modes.
const (
	UIModeServer = "server"
	UIModeTUI    = "tui"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultTimeLayout     = "3:04:05 PM"
)

type Config struct {
	// Startup submission (optional)
	VideoID string
	APIKey  string

	// Polling
	PollInterval time.Duration

	// YouTube Data API
	YouTubeEndpoint string
	RequestTimeout  time.Duration

	// Presentation
	UIMode     string
	TimeLayout string
	Location   *time.Location

	// HTTP
	HTTPAddr string

	// Archive (disabled when empty)
	DBDsn string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads environment variables and applies defaults. Missing optional
// variables disable features (startup submission, the archive).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.VideoID = strings.TrimSpace(os.Getenv("VIDEO_ID"))
	cfg.APIKey = strings.TrimSpace(os.Getenv("YT_API_KEY"))

	var err error
	if cfg.PollInterval, err = durationEnv("CHAT_POLL_INTERVAL", defaultPollInterval); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationEnv("YT_REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	cfg.YouTubeEndpoint = os.Getenv("YT_API_ENDPOINT")

	cfg.UIMode = strings.ToLower(os.Getenv("UI_MODE"))
	switch cfg.UIMode {
	case "":
		cfg.UIMode = UIModeServer
	case UIModeServer, UIModeTUI:
	default:
		return nil, fmt.Errorf("invalid UI_MODE %q: want %q or %q", cfg.UIMode, UIModeServer, UIModeTUI)
	}

	cfg.TimeLayout = os.Getenv("TIME_LAYOUT")
	if cfg.TimeLayout == "" {
		cfg.TimeLayout = defaultTimeLayout
	}
	cfg.Location = time.Local
	if tz := os.Getenv("TZ_NAME"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ_NAME: %w", err)
		}
		cfg.Location = loc
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.LogFormat = os.Getenv("LOG_FORMAT")
	cfg.LogFile = os.Getenv("LOG_FILE")
	if cfg.LogFile == "" && cfg.UIMode == UIModeTUI {
		// the terminal belongs to the widget
		cfg.LogFile = "livechat.log"
	}

	return cfg, nil
}

// ArchiveEnabled reports whether a Postgres archive is configured.
func (c *Config) ArchiveEnabled() bool { return c.DBDsn != "" }

// ValidateAutoSubmit checks that both startup inputs are present.
func (c *Config) ValidateAutoSubmit() error {
	if c.VideoID == "" || c.APIKey == "" {
		return fmt.Errorf("missing startup inputs: require VIDEO_ID and YT_API_KEY")
	}
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration): %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all environment backed configuration for the gateway.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// Request signing
	GatewaySecret string        `env:"GATEWAY_SECRET,notEmpty"`
	AuthMaxSkew   time.Duration `env:"AUTH_MAX_SKEW" envDefault:"120s"`

	// Chat completions upstream
	ChatUpstreamURL    string `env:"CHAT_UPSTREAM_URL"`
	ChatUpstreamAPIKey string `env:"CHAT_UPSTREAM_API_KEY"`
	ChatAPIVersion     string `env:"CHAT_API_VERSION" envDefault:"2024-02-01"`

	// Text-to-speech upstream
	TTSUpstreamURL    string `env:"TTS_UPSTREAM_URL"`
	TTSUpstreamAPIKey string `env:"TTS_UPSTREAM_API_KEY"`

	// Rate limiting
	RateLimitPerMinute float64 `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	// Logging
	ServiceName string `env:"SERVICE_NAME" envDefault:"glot-gateway"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses environment variables into Config and performs minimal
// validation. Upstream URLs are deliberately not required here: a missing
// upstream is reported per request as a 500, not at startup.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ChatUpstreamURL != "" {
		if _, err := url.ParseRequestURI(cfg.ChatUpstreamURL); err != nil {
			return nil, fmt.Errorf("invalid CHAT_UPSTREAM_URL: %w", err)
		}
	}
	if cfg.TTSUpstreamURL != "" {
		if _, err := url.ParseRequestURI(cfg.TTSUpstreamURL); err != nil {
			return nil, fmt.Errorf("invalid TTS_UPSTREAM_URL: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

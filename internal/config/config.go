// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Addr              string   `yaml:"addr"`
	LogLevel          string   `yaml:"log_level"`
	LogFormat         string   `yaml:"log_format"`
	RateLimitRPS      float64  `yaml:"rate_limit_rps"`
	RateLimitBurst    int      `yaml:"rate_limit_burst"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	SentryDSN         string   `yaml:"sentry_dsn"`
	SentryEnvironment string   `yaml:"sentry_environment"`
	MetricsEnabled    bool     `yaml:"metrics_enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "json",
		RateLimitRPS:      100,
		RateLimitBurst:    200,
		SentryEnvironment: "production",
		MetricsEnabled:    true,
	}
}

// Load loads configuration from a YAML file and environment variables.
// Environment variables override YAML values; an empty path skips the
// file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("IPMENTOR_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" { // Heroku-style
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("IPMENTOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("IPMENTOR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = parsed
		}
	}
	if v := os.Getenv("IPMENTOR_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitAndTrim(v)
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		cfg.SentryDSN = v
	}
	if v := os.Getenv("SENTRY_ENVIRONMENT"); v != "" {
		cfg.SentryEnvironment = v
	}
	if v := os.Getenv("IPMENTOR_METRICS_ENABLED"); v != "" {
		cfg.MetricsEnabled = strings.EqualFold(v, "true") || v == "1"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q: use debug, info, warn, or error", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("log_format %q: use json or text", c.LogFormat)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate_limit_rps must not be negative")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("rate_limit_burst must not be negative")
	}
	for _, p := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err != nil {
			return fmt.Errorf("invalid trusted proxy CIDR %q: %w", p, err)
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

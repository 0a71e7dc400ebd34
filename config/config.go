// Package config reads the assistant's settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file. Config is a plain value built once at startup and passed
// explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/fwojciec/ckassist"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvExchangeAPIKey  = "TEMPLATE_EXCHANGE_API_KEY"
	EnvExchangeBaseURL = "TEMPLATE_EXCHANGE_API_BASE_URL"
	EnvGeminiModel     = "GEMINI_MODEL"
	EnvMaxToolRounds   = "CKA_MAX_TOOL_ROUNDS"
	EnvLogLevel        = "CKA_LOG_LEVEL"
)

// DefaultEnvFile is loaded when no env file is named explicitly.
const DefaultEnvFile = ".env"

// Config holds the assistant's settings.
type Config struct {
	GeminiAPIKey    string
	ExchangeAPIKey  string
	ExchangeBaseURL string
	Model           string // empty = provider default
	MaxToolRounds   int    // 0 = orchestrator default
	LogLevel        slog.Level
}

// FromEnvironment loads envFiles (or DefaultEnvFile when none are given) into
// the process environment without overriding variables already set, then
// calls Load with os.LookupEnv. A missing DefaultEnvFile is not an error; a
// missing file named explicitly is.
func FromEnvironment(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w: %w", DefaultEnvFile, ckassist.ErrConfiguration, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w: %w", strings.Join(envFiles, ", "), ckassist.ErrConfiguration, err)
	}
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup. Every missing required variable is named
// in the returned error, which wraps ckassist.ErrConfiguration.
func Load(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		GeminiAPIKey:    get(EnvGeminiAPIKey),
		ExchangeAPIKey:  get(EnvExchangeAPIKey),
		ExchangeBaseURL: get(EnvExchangeBaseURL),
		Model:           get(EnvGeminiModel),
		LogLevel:        slog.LevelInfo,
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{EnvGeminiAPIKey, cfg.GeminiAPIKey},
		{EnvExchangeAPIKey, cfg.ExchangeAPIKey},
		{EnvExchangeBaseURL, cfg.ExchangeBaseURL},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required environment variables: %s: %w",
			strings.Join(missing, ", "), ckassist.ErrConfiguration)
	}

	if err := validateBaseURL(cfg.ExchangeBaseURL); err != nil {
		return Config{}, err
	}

	if v := get(EnvMaxToolRounds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("config: %s must be a positive integer, got %q: %w", EnvMaxToolRounds, v, ckassist.ErrConfiguration)
		}
		cfg.MaxToolRounds = n
	}

	if v := get(EnvLogLevel); v != "" {
		lvl, err := ParseLogLevel(v)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = lvl
	}

	return cfg, nil
}

// ParseLogLevel parses debug, info, warn or error (any case).
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q: %w", s, ckassist.ErrConfiguration)
	}
	return lvl, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: %s must be an absolute http(s) URL, got %q: %w", EnvExchangeBaseURL, raw, ckassist.ErrConfiguration)
	}
	return nil
}

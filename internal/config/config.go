package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix = "POSTBOARD_"

	DefaultSourceURL = "https://jsonplaceholder.typicode.com/posts"
	DefaultLimit     = 10
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// HTTP server
	ListenAddr string `koanf:"listen-addr"` // e.g. ":8080"

	// Upstream source
	SourceURL   string        `koanf:"source-url"`   // e.g. https://jsonplaceholder.typicode.com/posts
	HTTPTimeout time.Duration `koanf:"http-timeout"` // 0 disables the client timeout
	Limit       int           `koanf:"limit"`        // number of posts kept per mount

	// Logging
	LogLevel   string `koanf:"log-level"`   // debug, info, warn, error
	LogHandler string `koanf:"log-handler"` // dev, text, json

	// Page middleware
	RateLimit   int    `koanf:"rate-limit"` // requests per minute per client, 0 disables
	RateBurst   int    `koanf:"rate-burst"`
	SecretToken string `koanf:"secret-token"` // bearer token for the page, empty disables

	// Optional Postgres journal for fetch failures
	JournalDSN string `koanf:"journal-dsn"`
}

func defaults() map[string]any {
	listen := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		listen = ":" + port
	}
	return map[string]any{
		"listen-addr":  listen,
		"source-url":   DefaultSourceURL,
		"http-timeout": "0s",
		"limit":        DefaultLimit,
		"log-level":    "info",
		"log-handler":  "dev",
		"rate-limit":   0,
		"rate-burst":   0,
		"secret-token": os.Getenv("SECRET_TOKEN"),
		"journal-dsn":  "",
	}
}

// Load resolves configuration from, in increasing priority: defaults, the
// optional config file at path (JSON or YAML), POSTBOARD_ environment
// variables, then overrides (normally CLI flags the user actually set).
func Load(path string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")

	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// POSTBOARD_SOURCE_URL -> source-url
	err := k.Load(env.ProviderWithValue(EnvPrefix, "", func(key, value string) (string, interface{}) {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "-")), value
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("error loading environment variables: %w", err)
	}

	for key, v := range overrides {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return c, c.Validate()
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch filepath.Ext(path) {
	case ".json":
		parser = json.Parser()
	default:
		parser = yaml.Parser()
	}
	return k.Load(file.Provider(path), parser)
}

func (c Config) Validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: source-url %q must be an absolute http(s) URL", ErrInvalidConfig, c.SourceURL)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, c.Limit)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http-timeout must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("%w: rate-limit and rate-burst must not be negative", ErrInvalidConfig)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen-addr is empty", ErrInvalidConfig)
	}
	return nil
}

// Package config loads parley's settings from defaults, a YAML file, PARLEY_* environment
// variables and command-line overrides, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/secrets"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "parley.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PARLEY_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// StoreConfig selects where sessions are kept.
type StoreConfig struct {
	Kind     string `mapstructure:"kind"`
	RedisURL string `mapstructure:"redis_url"`
	Prefix   string `mapstructure:"prefix"`
	// Dir is the directory of the file store.
	Dir string `mapstructure:"dir"`
}

// Config is the merged application configuration.
// It never holds the API key itself, only where to find it.
type Config struct {
	Addr         string        `mapstructure:"addr"`
	SecretsFile  string        `mapstructure:"secrets_file"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	BaseURL      string        `mapstructure:"base_url"`
	EnvFallback  bool          `mapstructure:"env_fallback"`
	EnvKeyName   string        `mapstructure:"env_key_name"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	Store        StoreConfig   `mapstructure:"store"`

	// EncryptionKey seals stored sessions when set: 32 bytes, hex or base64 encoded.
	EncryptionKey string `mapstructure:"encryption_key"`
	RedactKeys    bool   `mapstructure:"redact_keys"`
	Metrics       bool   `mapstructure:"metrics"`
	SecureCookie  bool   `mapstructure:"secure_cookie"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`
}

// Defaults returns the built-in configuration as a map, the lowest layer.
func Defaults() map[string]any {
	return map[string]any{
		"addr":          ":8080",
		"secrets_file":  secrets.DefaultPath,
		"system_prompt": domain.DefaultSystemPrompt,
		"model":         domain.DefaultModel,
		"temperature":   domain.DefaultTemperature,
		"base_url":      "",
		"env_fallback":  true,
		"env_key_name":  domain.DefaultCredentialKey,
		"session_ttl":   "24h",
		"store": map[string]any{
			"kind":      StoreMemory,
			"redis_url": "",
			"prefix":    "",
			"dir":       "",
		},
		"encryption_key": "",
		"redact_keys":    true,
		"metrics":        true,
		"secure_cookie":  false,
		"log_level":      "info",
		"log_format":     "text",
		"debug":          false,
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is the YAML file to read. Empty means DefaultFile.
	File string
	// Required makes a missing file an error.
	Required bool
	// Environ replaces os.Environ, for tests.
	Environ []string
	// Overrides are applied last, keyed like the YAML file ("store.kind" for nested keys).
	Overrides map[string]any
}

// Load merges every layer and decodes the result.
func Load(opts LoadOptions) (*Config, error) {
	merged := Defaults()

	path := opts.File
	if path == "" {
		path = DefaultFile
	}
	fileLayer, err := readFile(path, opts.Required)
	if err != nil {
		return nil, err
	}
	merge(merged, fileLayer)

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	merge(merged, envLayer(environ))

	for key, v := range opts.Overrides {
		set(merged, key, v)
	}

	var cfg Config
	if err := decode(merged, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, required bool) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}

// envLayer maps PARLEY_STORE_REDIS_URL to store.redis_url, PARLEY_ADDR to addr, and so on.
// Unknown variables are ignored.
func envLayer(environ []string) map[string]any {
	known := make(map[string]bool)
	for key, v := range Defaults() {
		if nested, ok := v.(map[string]any); ok {
			for sub := range nested {
				known[key+"."+sub] = true
			}
			continue
		}
		known[key] = true
	}

	out := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if strings.HasPrefix(key, "store_") {
			key = "store." + strings.TrimPrefix(key, "store_")
		}
		if known[key] {
			set(out, key, value)
		}
	}
	return out
}

func decode(input map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// set assigns v at a dotted key, creating nested maps as needed.
func set(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, ok := m[p].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[p] = sub
		}
		m = sub
	}
	m[parts[len(parts)-1]] = v
}

// Validate checks the merged values.
func (c *Config) Validate() error {
	settings := domain.Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: domain.MaxTokens}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("invalid configuration: store.redis_url is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid configuration: unknown store kind %q", c.Store.Kind)
	}
	if c.EncryptionKey != "" {
		if _, err := c.EncryptionKeyBytes(); err != nil {
			return err
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Settings returns the initial model settings of new sessions.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: domain.MaxTokens}
}

// EncryptionKeyBytes decodes EncryptionKey. It returns nil when encryption is off.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		key, err = base64.StdEncoding.DecodeString(c.EncryptionKey)
	}
	if err != nil || len(key) != 32 {
		return nil, errors.New("invalid configuration: encryption_key must be 32 bytes, hex or base64 encoded")
	}
	return key, nil
}

// Level parses LogLevel. Debug forces slog.LevelDebug.
func (c *Config) Level() (slog.Level, error) {
	if c.Debug {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid configuration: log_level: %w", err)
	}
	return level, nil
}

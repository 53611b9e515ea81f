// Package config loads stagehand settings from YAML with STAGEHAND_*
// environment overrides.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// STAGEHAND_SESSION_BACKEND overrides session.backend.
const EnvPrefix = "STAGEHAND_"

// Config is the full service configuration.
type Config struct {
	Listen          string           `mapstructure:"listen"`
	LogLevel        string           `mapstructure:"log_level"`
	LogJSON         bool             `mapstructure:"log_json"`
	WebhookSecret   string           `mapstructure:"webhook_secret"`
	DeleteUnhandled bool             `mapstructure:"delete_unhandled"`
	Session         SessionConfig    `mapstructure:"session"`
	Metadata        MetadataConfig   `mapstructure:"metadata"`
	Redis           RedisConfig      `mapstructure:"redis"`
	Encryption      EncryptionConfig `mapstructure:"encryption"`
	Throttle        ThrottleConfig   `mapstructure:"throttle"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Dir     string        `mapstructure:"dir"`
}

// MetadataConfig selects the metadata store. Path is the SQLite database,
// shared with session.backend sqlite.
type MetadataConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Path    string        `mapstructure:"path"`
}

// RedisConfig is shared by the redis session and metadata stores.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// EncryptionConfig enables metadata encryption when Key is set.
// Keys are hex encoded 32-byte values.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
	Namespace    string   `mapstructure:"namespace"`
}

// ThrottleConfig enables outbound rate limiting.
type ThrottleConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	RPS         float64 `mapstructure:"rps"`
	Burst       int     `mapstructure:"burst"`
	GlobalRPS   float64 `mapstructure:"global_rps"`
	GlobalBurst int     `mapstructure:"global_burst"`
}

// Backends accepted by the store selectors.
var (
	SessionBackends  = []string{"memory", "redis", "file", "sqlite"}
	MetadataBackends = []string{"memory", "redis", "sqlite", "none"}
)

func defaults() map[string]any {
	return map[string]any{
		"listen":           ":8080",
		"log_level":        "info",
		"log_json":         false,
		"webhook_secret":   "",
		"delete_unhandled": false,
		"session": map[string]any{
			"backend": "memory",
			"ttl":     "0s",
			"dir":     ".stagehand/sessions",
		},
		"metadata": map[string]any{
			"backend": "memory",
			"ttl":     "72h",
			"path":    "stagehand.db",
		},
		"redis": map[string]any{
			"addr":     "localhost:6379",
			"password": "",
			"db":       0,
			"prefix":   "stagehand:",
		},
		"encryption": map[string]any{
			"key":           "",
			"fallback_keys": []string{},
			"namespace":     "stagehand",
		},
		"throttle": map[string]any{
			"enabled":      false,
			"rps":          1.0,
			"burst":        3,
			"global_rps":   30.0,
			"global_burst": 30,
		},
	}
}

// Load reads path (optional), applies environment overrides from environ
// (os.Environ() when nil) and validates the result.
func Load(path string, environ []string) (*Config, error) {
	raw := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		merge(raw, file)
	}

	if environ == nil {
		environ = os.Environ()
	}
	applyEnv(raw, environ)

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and encryption keys.
func (c *Config) Validate() error {
	if !slices.Contains(SessionBackends, c.Session.Backend) {
		return fmt.Errorf("invalid config: session.backend %q (want one of %s)", c.Session.Backend, strings.Join(SessionBackends, ", "))
	}
	if !slices.Contains(MetadataBackends, c.Metadata.Backend) {
		return fmt.Errorf("invalid config: metadata.backend %q (want one of %s)", c.Metadata.Backend, strings.Join(MetadataBackends, ", "))
	}
	if c.Metadata.TTL < 0 || c.Session.TTL < 0 {
		return fmt.Errorf("invalid config: negative ttl")
	}
	if _, _, err := c.Encryption.Keys(); err != nil {
		return err
	}
	if c.Throttle.Enabled && (c.Throttle.RPS <= 0 || c.Throttle.Burst <= 0) {
		return fmt.Errorf("invalid config: throttle needs positive rps and burst")
	}
	return nil
}

// Keys decodes the active and fallback keys. active is nil when encryption
// is disabled.
func (e EncryptionConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if e.Key == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(e.Key); err != nil {
		return nil, nil, fmt.Errorf("invalid config: encryption.key: %w", err)
	}
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid config: encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if existing, isMap := dst[k].(map[string]any); ok && isMap {
			merge(existing, sub)
			continue
		}
		dst[k] = v
	}
}

// applyEnv overrides known keys. The env name is the dotted key upper-cased
// with dots turned into underscores.
func applyEnv(raw map[string]any, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if len(env) == 0 {
		return
	}
	walk(raw, "", func(parent map[string]any, key, path string) {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
		if v, ok := env[name]; ok {
			parent[key] = v
		}
	})
}

func walk(m map[string]any, prefix string, fn func(parent map[string]any, key, path string)) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			walk(sub, path, fn)
			continue
		}
		fn(m, k, path)
	}
}

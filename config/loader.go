package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENTCACHE"

// Load builds a Config: defaults, overlaid by the YAML file at path
// (skipped when path is empty, error when the file is unreadable or
// unparsable), overlaid by environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the cache depends on.
func (c *Config) Validate() error {
	if c.Cache.Namespace == "" {
		return fmt.Errorf("cache.namespace must not be empty")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.L1TTL <= 0 || c.Cache.L2TTL <= 0 || c.Cache.L3TTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Cache.Namespace, "CACHE_NAMESPACE")
	setString(&cfg.Cache.Dir, "CACHE_DIR")
	setInt(&cfg.Cache.MaxEntries, "CACHE_MAX_ENTRIES")
	setDuration(&cfg.Cache.L1TTL, "CACHE_L1_TTL")
	setDuration(&cfg.Cache.L2TTL, "CACHE_L2_TTL")
	setDuration(&cfg.Cache.L3TTL, "CACHE_L3_TTL")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + "_" + key)
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Package config provides configuration loading for agentcache:
// defaults, then a YAML file, then AGENTCACHE_* environment overrides.
package config

import "time"

// Config is the full agentcache configuration.
type Config struct {
	// Cache holds the tiered cache settings.
	Cache CacheConfig `yaml:"cache"`

	// Redis configures the optional remote tier backend.
	Redis RedisConfig `yaml:"redis"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// CacheConfig holds the per-namespace cache settings.
type CacheConfig struct {
	// Namespace partitions the keyspace and names the L2 file.
	Namespace string `yaml:"namespace"`

	// Dir is the directory holding the L2 files.
	Dir string `yaml:"dir"`

	// MaxEntries bounds the in-memory tier.
	MaxEntries int `yaml:"max_entries"`

	// L1TTL expires entries in the memory tier.
	L1TTL time.Duration `yaml:"l1_ttl"`

	// L2TTL expires entries in the disk tier.
	L2TTL time.Duration `yaml:"l2_ttl"`

	// L3TTL expires entries in the remote tier.
	L3TTL time.Duration `yaml:"l3_ttl"`
}

// RedisConfig configures the Redis-backed remote tier. When Enabled
// is false the cache runs with the always-absent stub.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or console.
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Cache: DefaultCacheConfig(),
		Redis: DefaultRedisConfig(),
		Log:   DefaultLogConfig(),
	}
}

// DefaultCacheConfig returns the default cache settings.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Namespace:  "default",
		Dir:        ".agentcache",
		MaxEntries: 1000,
		L1TTL:      5 * time.Minute,
		L2TTL:      1 * time.Hour,
		L3TTL:      24 * time.Hour,
	}
}

// DefaultRedisConfig returns the default remote tier settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled: false,
		Addr:    "localhost:6379",
		DB:      0,
	}
}

// DefaultLogConfig returns the default log settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}

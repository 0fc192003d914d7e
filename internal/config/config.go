package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	cache "github.com/krisalay/operation-cache"
	"github.com/krisalay/operation-cache/eviction"
	"github.com/krisalay/operation-cache/expiration"
)

// EnvPath names the config file when --config is not given.
const EnvPath = "OPCACHE_CONFIG"

// Config is the hosting application's configuration file.
type Config struct {
	Cache CacheConfig `yaml:"cache"`
	Admin AdminConfig `yaml:"admin"`
	Log   LogConfig   `yaml:"log"`

	// Source is the file the configuration was read from, empty when the
	// defaults are in use.
	Source string `yaml:"-"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" validate:"gt=0"`
	KeyPrefix     string        `yaml:"key_prefix"`
	Shards        int           `yaml:"shards" validate:"gt=0"`
	MaxEntries    int           `yaml:"max_entries" validate:"gte=0"`
	Eviction      string        `yaml:"eviction" validate:"omitempty,oneof=LRU LFU FIFO"`
	Expiration    string        `yaml:"expiration" validate:"omitempty,oneof=fixed access sliding"`
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gte=0"`
	SingleFlight  bool          `yaml:"single_flight"`
}

type AdminConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error fatal"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			TTL:           cache.DefaultTTL,
			KeyPrefix:     cache.DefaultKeyPrefix,
			Shards:        cache.DefaultShards,
			Eviction:      string(eviction.LRU),
			Expiration:    "fixed",
			SweepInterval: cache.DefaultSweepInterval,
		},
		Admin: AdminConfig{Addr: ":8080"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path, or $OPCACHE_CONFIG when path is empty, over the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", path).Debug("config file not found, using defaults")
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log.WithField("path", path).Debug("using config file")
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// CacheOptions maps the cache section to constructor options.
func (c CacheConfig) CacheOptions() ([]cache.Option, error) {
	strategy, ok := expiration.Parse(c.Expiration)
	if !ok {
		return nil, fmt.Errorf("unknown expiration strategy %q", c.Expiration)
	}

	return []cache.Option{
		cache.WithTTL(c.TTL),
		cache.WithKeyPrefix(c.KeyPrefix),
		cache.WithShards(c.Shards),
		cache.WithMaxEntries(c.MaxEntries, eviction.PolicyType(c.Eviction)),
		cache.WithExpiration(strategy),
		cache.WithSweepInterval(c.SweepInterval),
		cache.WithSingleFlight(c.SingleFlight),
	}, nil
}

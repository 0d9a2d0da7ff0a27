package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mwantia/contentfs/log"
	"github.com/spf13/viper"
)

// Config is the complete contentfs configuration.
//
// Sources in order of precedence:
//  1. Environment variables (CONTENTFS_*)
//  2. Configuration file (YAML, TOML or JSON)
//  3. Default values
type Config struct {
	Logging log.LoggerConfig `mapstructure:"logging"`
	Manager ManagerConfig    `mapstructure:"manager"`
	Mounts  []MountConfig    `mapstructure:"mounts" validate:"dive"`
}

// ManagerConfig tunes the contents manager.
type ManagerConfig struct {
	// OperationTimeout bounds operations whose caller set no deadline, 0 disables it
	OperationTimeout time.Duration `mapstructure:"operation_timeout" validate:"gte=0"`
	// CopyConcurrency limits parallel file copies of recursive transfers
	CopyConcurrency int `mapstructure:"copy_concurrency" validate:"gte=1,lte=256"`
	// MaxCheckpoints keeps the newest checkpoints per document, 0 keeps all
	MaxCheckpoints int `mapstructure:"max_checkpoints" validate:"gte=0"`
}

// MountConfig attaches one storage resource to the namespace.
type MountConfig struct {
	// Prefix is the virtual path of the mount, "" for the root mount
	Prefix string `mapstructure:"prefix"`
	// Address is the connection URI, e.g. s3://bucket/root?region=eu-west-1
	Address  string `mapstructure:"address" validate:"required"`
	ReadOnly bool   `mapstructure:"readonly"`
	// Retries for idempotent reads on transient failures
	Retries         uint64 `mapstructure:"retries" validate:"lte=100"`
	ShowCheckpoints bool   `mapstructure:"show_checkpoints"`
}

// LoadOption adjusts the configuration before it is validated.
type LoadOption func(*Config)

// WithMounts appends mounts given outside of the configuration file.
func WithMounts(mounts ...MountConfig) LoadOption {
	return func(cfg *Config) {
		cfg.Mounts = append(cfg.Mounts, mounts...)
	}
}

// WithLogLevel overrides the configured log level.
func WithLogLevel(level string) LoadOption {
	return func(cfg *Config) {
		if level != "" {
			cfg.Logging.Level = level
		}
	}
}

// Load loads configuration from the file at configPath, the environment
// and defaults. An empty configPath skips the file.
func Load(configPath string, opts ...LoadOption) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v, opts...)
}

// LoadReader loads configuration of the given format ("yaml", "toml", "json") from r.
func LoadReader(r io.Reader, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// Example: CONTENTFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("CONTENTFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper, opts ...LoadOption) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

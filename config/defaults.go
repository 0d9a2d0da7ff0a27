package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultOperationTimeout = 30 * time.Second
	DefaultCopyConcurrency  = 8
)

// setDefaults registers every scalar key, which also makes it reachable
// through environment variables.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.no_terminal", false)

	v.SetDefault("manager.operation_timeout", DefaultOperationTimeout)
	v.SetDefault("manager.copy_concurrency", DefaultCopyConcurrency)
	v.SetDefault("manager.max_checkpoints", 0)
}

// ApplyDefaults normalizes values after unmarshalling.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}

	for i := range cfg.Mounts {
		cfg.Mounts[i].Prefix = strings.Trim(strings.TrimSpace(cfg.Mounts[i].Prefix), "/")
		cfg.Mounts[i].Address = strings.TrimSpace(cfg.Mounts[i].Address)
	}
}

package config

import (
	"strings"
	"time"

	"unifiedfs/internal/provider"
)

const (
	DefaultListen          = "127.0.0.1:8750"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTitle           = "Unified Content Provider"
)

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "console",
			Output: "stderr",
		},
		Provider: ProviderConfig{
			Authority:   provider.DefaultAuthority,
			Title:       DefaultTitle,
			Description: DefaultTitle,
			BaseDir:     provider.DefaultBaseDir,
			DataDir:     getDataDir(),
			TopDirs:     []string{},
		},
		Platform: PlatformConfig{
			FeatureLevel: provider.DefaultFeatureLevel,
		},
		Server: ServerConfig{
			Listen:          DefaultListen,
			ShutdownTimeout: DefaultShutdownTimeout,
			Metrics:         true,
		},
	}
}

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced, explicit values are preserved. Booleans cannot be
// told apart from an explicit false and are left alone.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyProviderDefaults(&cfg.Provider)
	applyPlatformDefaults(&cfg.Platform)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "console"
	}
	cfg.Format = strings.ToLower(cfg.Format)

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Authority == "" {
		cfg.Authority = provider.DefaultAuthority
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Description == "" {
		cfg.Description = cfg.Title
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = provider.DefaultBaseDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = getDataDir()
	}
}

func applyPlatformDefaults(cfg *PlatformConfig) {
	if cfg.FeatureLevel == 0 {
		cfg.FeatureLevel = provider.DefaultFeatureLevel
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

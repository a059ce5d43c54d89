// Package config loads the unifiedfs configuration from a YAML file and
// UNIFIEDFS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. UNIFIEDFS_SERVER_LISTEN.
const EnvPrefix = "UNIFIEDFS"

// Config is the complete configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Platform PlatformConfig `mapstructure:"platform" yaml:"platform"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Mount    MountConfig    `mapstructure:"mount" yaml:"mount"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of ERROR, WARN, INFO, DEBUG, TRACE (case-insensitive)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=ERROR WARN INFO DEBUG TRACE"`

	// Format is console or json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=console json"`

	// Output is stdout, stderr or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ProviderConfig describes the exported namespace.
type ProviderConfig struct {
	Authority   string `mapstructure:"authority" yaml:"authority" validate:"required,excludesall=/"`
	Title       string `mapstructure:"title" yaml:"title"`
	Description string `mapstructure:"description" yaml:"description"`
	Icon        int    `mapstructure:"icon" yaml:"icon" validate:"gte=0"`

	// BaseDir is FILES_DIR, DATA_DIR or an absolute path
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir" validate:"required"`

	// DataDir anchors the FILES_DIR and DATA_DIR codes
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// TopDirs holds "path;displayName[;options]" records relative to BaseDir
	TopDirs []string `mapstructure:"top_dirs" yaml:"top_dirs"`

	// MimeTypes maps file extensions to MIME types ahead of the system table
	MimeTypes map[string]string `mapstructure:"mime_types" yaml:"mime_types,omitempty"`
}

// PlatformConfig selects the capability table.
type PlatformConfig struct {
	FeatureLevel int `mapstructure:"feature_level" yaml:"feature_level" validate:"gte=1"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

// MountConfig configures the FUSE view.
type MountConfig struct {
	Point      string `mapstructure:"point" yaml:"point"`
	AllowOther bool   `mapstructure:"allow_other" yaml:"allow_other"`
}

// Load reads configuration from configPath (or the default location when
// empty), applies environment overrides and defaults, and validates the
// result. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registered keys can be overridden from the environment even when the
	// file does not mention them.
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("provider.authority", d.Provider.Authority)
	v.SetDefault("provider.title", d.Provider.Title)
	v.SetDefault("provider.description", d.Provider.Description)
	v.SetDefault("provider.icon", d.Provider.Icon)
	v.SetDefault("provider.base_dir", d.Provider.BaseDir)
	v.SetDefault("provider.data_dir", d.Provider.DataDir)
	v.SetDefault("provider.top_dirs", d.Provider.TopDirs)
	v.SetDefault("platform.feature_level", d.Platform.FeatureLevel)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("mount.point", d.Mount.Point)
	v.SetDefault("mount.allow_other", d.Mount.AllowOther)

	// Maps have no useful default, so the key is bound for the environment
	// only.
	_ = v.BindEnv("provider.mime_types")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// decodeHook extends viper's default hooks so list and map keys can come
// from a single environment variable: top directory records are separated
// by commas, MIME overrides are written ext=type,ext=type.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToMapHook,
	)
}

func stringToMapHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Map {
		return data, nil
	}

	out := make(map[string]string)
	for _, pair := range strings.Split(data.(string), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

func readConfigFile(v *viper.Viper, configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "unifiedfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "unifiedfs")
}

func getDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "unifiedfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".local", "share", "unifiedfs")
}

// GetDefaultConfigPath returns the path Load reads when given no path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ProviderSettings converts the configuration to provider settings, resolving
// the base directory code.
func (c *Config) ProviderSettings() provider.Config {
	return provider.Config{
		Authority:    c.Provider.Authority,
		Title:        c.Provider.Title,
		Description:  c.Provider.Description,
		Icon:         c.Provider.Icon,
		BaseDir:      provider.ResolveBaseDir(c.Provider.BaseDir, c.Provider.DataDir),
		TopDirs:      c.Provider.TopDirs,
		MimeTypes:    c.Provider.MimeTypes,
		FeatureLevel: c.Platform.FeatureLevel,
	}
}

// LoggerConfig converts the logging section for logging.Init.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

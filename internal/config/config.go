package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantmind-br/tytm/internal/paths"
	"github.com/spf13/viper"
)

const (
	defaultRegistryURL    = "https://github.com/Chen1Plus/tytm"
	defaultRegistrySubdir = "manifest"
	defaultTimeoutSeconds = 600
)

// Config represents the application configuration
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Registry RegistryConfig `mapstructure:"registry"`
	Network  NetworkConfig  `mapstructure:"network"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	ThemeDir     string `mapstructure:"theme_dir"`
	InstalledDir string `mapstructure:"installed_dir"`
	DataDir      string `mapstructure:"data_dir"`
	ManifestDir  string `mapstructure:"manifest_dir"`
	DBFile       string `mapstructure:"db_file"`
	LogFile      string `mapstructure:"log_file"`
}

// RegistryConfig points at the remote repository manifests are refreshed from
type RegistryConfig struct {
	URL    string `mapstructure:"url"`
	Subdir string `mapstructure:"subdir"`
}

// NetworkConfig contains fetch settings
type NetworkConfig struct {
	Timeout int `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// TimeoutDuration returns the fetch timeout
func (n NetworkConfig) TimeoutDuration() time.Duration {
	if n.Timeout <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(n.Timeout) * time.Second
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	return load(paths.NewResolver())
}

func load(resolver *paths.Resolver) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(resolver.ConfigDir())
	v.AddConfigPath(".")

	setDefaults(v, resolver)

	// TYTM_PATHS_THEME_DIR overrides paths.theme_dir
	v.SetEnvPrefix("TYTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Resolve(resolver); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers defaults for keys that do not depend on other keys.
// Derived paths are filled in by Resolve so that overriding theme_dir or
// data_dir moves everything below them.
func setDefaults(v *viper.Viper, resolver *paths.Resolver) {
	v.SetDefault("paths.theme_dir", resolver.ThemeDir())
	v.SetDefault("paths.installed_dir", "")
	v.SetDefault("paths.data_dir", resolver.DataDir())
	v.SetDefault("paths.manifest_dir", "")
	v.SetDefault("paths.db_file", "")
	v.SetDefault("paths.log_file", "")

	v.SetDefault("registry.url", defaultRegistryURL)
	v.SetDefault("registry.subdir", defaultRegistrySubdir)

	v.SetDefault("network.timeout", defaultTimeoutSeconds)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")
}

// Resolve expands every path, fills derived defaults and makes paths absolute.
func (c *Config) Resolve(resolver *paths.Resolver) error {
	if c.Paths.ThemeDir == "" {
		c.Paths.ThemeDir = resolver.ThemeDir()
	}
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = resolver.DataDir()
	}
	c.Paths.ThemeDir = expandPath(c.Paths.ThemeDir)
	c.Paths.DataDir = expandPath(c.Paths.DataDir)

	if c.Paths.InstalledDir == "" {
		c.Paths.InstalledDir = resolver.InstalledDir(c.Paths.ThemeDir)
	}
	if c.Paths.ManifestDir == "" {
		c.Paths.ManifestDir = filepath.Join(c.Paths.DataDir, "manifest")
	}
	if c.Paths.DBFile == "" {
		c.Paths.DBFile = filepath.Join(c.Paths.DataDir, "history.db")
	}
	if c.Paths.LogFile == "" {
		c.Paths.LogFile = filepath.Join(c.Paths.DataDir, "tytm.log")
	}

	for _, p := range []*string{
		&c.Paths.ThemeDir, &c.Paths.InstalledDir, &c.Paths.DataDir,
		&c.Paths.ManifestDir, &c.Paths.DBFile, &c.Paths.LogFile,
	} {
		abs, err := filepath.Abs(expandPath(*p))
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", *p, err)
		}
		*p = abs
	}

	if c.Registry.URL == "" {
		c.Registry.URL = defaultRegistryURL
	}
	if c.Registry.Subdir == "" {
		c.Registry.Subdir = defaultRegistrySubdir
	}
	if c.Network.Timeout <= 0 {
		c.Network.Timeout = defaultTimeoutSeconds
	}
	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-workspace directory holding config.yaml and the index.
const Dir = ".dfsense"

// Loader loads configuration for a workspace root.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir   string
	configDir string
}

// NewLoader creates a loader reading <rootDir>/.dfsense/config.yaml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir, configDir: filepath.Join(rootDir, Dir)}
}

// NewLoaderWithDir creates a loader reading config.yaml from configDir.
func NewLoaderWithDir(rootDir, configDir string) Loader {
	return &loader{rootDir: rootDir, configDir: configDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(l.configDir)

	v.SetEnvPrefix("DFSENSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("language_id", defaults.LanguageID)

	v.SetDefault("library.paths", defaults.Library.Paths)
	v.SetDefault("library.config_ws", defaults.Library.ConfigWS)
	v.SetDefault("library.ignore", defaults.Library.Ignore)

	v.SetDefault("extensions.source", defaults.Extensions.Source)
	v.SetDefault("extensions.class", defaults.Extensions.Class)

	v.SetDefault("index.db_path", defaults.Index.DBPath)
	v.SetDefault("index.parallel", defaults.Index.Parallel)

	v.SetDefault("cache.max_files", defaults.Cache.MaxFiles)
}

// LoadConfigFromDir loads configuration for a specific workspace root.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// DBPath returns the index database path, resolved against rootDir when
// relative.
func DBPath(cfg *Config, rootDir string) string {
	if filepath.IsAbs(cfg.Index.DBPath) {
		return cfg.Index.DBPath
	}
	return filepath.Join(rootDir, cfg.Index.DBPath)
}

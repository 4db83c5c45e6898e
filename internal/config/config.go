// Package config loads dfsense configuration from defaults, an optional
// .dfsense/config.yaml and DFSENSE_* environment variables.
package config

// Config is the complete dfsense configuration.
type Config struct {
	LanguageID string           `yaml:"language_id" json:"language_id" mapstructure:"language_id"`
	Library    LibraryConfig    `yaml:"library" json:"library" mapstructure:"library"`
	Extensions ExtensionsConfig `yaml:"extensions" json:"extensions" mapstructure:"extensions"`
	Index      IndexConfig      `yaml:"index" json:"index" mapstructure:"index"`
	Cache      CacheConfig      `yaml:"cache" json:"cache" mapstructure:"cache"`
}

// LibraryConfig locates the external library directories searched for
// definitions and indexed by `dfsense index`.
type LibraryConfig struct {
	Paths    []string `yaml:"paths" json:"paths" mapstructure:"paths"`             // searched in order
	ConfigWS string   `yaml:"config_ws" json:"config_ws" mapstructure:"config_ws"` // workspace file with path= entries, relative to the root
	Ignore   []string `yaml:"ignore" json:"ignore" mapstructure:"ignore"`          // glob patterns on file base names
}

// ExtensionsConfig maps declaration kinds to file extensions.
type ExtensionsConfig struct {
	Source []string `yaml:"source" json:"source" mapstructure:"source"` // general reference search
	Class  []string `yaml:"class" json:"class" mapstructure:"class"`    // superclass search
}

// IndexConfig configures the library index database.
type IndexConfig struct {
	DBPath   string `yaml:"db_path" json:"db_path" mapstructure:"db_path"` // relative to the root unless absolute
	Parallel bool   `yaml:"parallel" json:"parallel" mapstructure:"parallel"`
}

// CacheConfig bounds in-memory caches.
type CacheConfig struct {
	MaxFiles int `yaml:"max_files" json:"max_files" mapstructure:"max_files"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		LanguageID: "vdf",
		Library: LibraryConfig{
			Paths:    []string{},
			ConfigWS: "Programs/config.ws",
			Ignore:   []string{},
		},
		Extensions: ExtensionsConfig{
			Source: []string{".df"},
			Class:  []string{".dd", ".pkg", ".vw", ".bp"},
		},
		Index: IndexConfig{
			DBPath:   ".dfsense/index.db",
			Parallel: true,
		},
		Cache: CacheConfig{
			MaxFiles: 512,
		},
	}
}

// IndexExtensions is the union of source and class extensions, in that order.
func (c *Config) IndexExtensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, e := range append(append([]string{}, c.Extensions.Source...), c.Extensions.Class...) {
		if !seen[e] {
			seen[e] = true
			exts = append(exts, e)
		}
	}
	return exts
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyLanguageID indicates a missing language id.
	ErrEmptyLanguageID = errors.New("empty language id")

	// ErrInvalidExtension indicates an empty extension set or a malformed entry.
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrInvalidIgnore indicates an ignore pattern that does not compile.
	ErrInvalidIgnore = errors.New("invalid ignore pattern")

	// ErrInvalidCacheSettings indicates invalid cache configuration.
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrEmptyDBPath indicates a missing index database path.
	ErrEmptyDBPath = errors.New("empty index db path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.LanguageID) == "" {
		errs = append(errs, ErrEmptyLanguageID)
	}
	errs = append(errs, validateExtensions("source", cfg.Extensions.Source)...)
	errs = append(errs, validateExtensions("class", cfg.Extensions.Class)...)

	for _, pattern := range cfg.Library.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidIgnore, pattern, err))
		}
	}
	if cfg.Index.DBPath == "" {
		errs = append(errs, ErrEmptyDBPath)
	}
	if cfg.Cache.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_files must be positive, got %d", ErrInvalidCacheSettings, cfg.Cache.MaxFiles))
	}

	return errors.Join(errs...)
}

func validateExtensions(name string, exts []string) []error {
	if len(exts) == 0 {
		return []error{fmt.Errorf("%w: %s extension set is empty", ErrInvalidExtension, name)}
	}
	var errs []error
	for _, ext := range exts {
		if len(ext) < 2 || ext[0] != '.' || strings.ContainsAny(ext, `/\ `) {
			errs = append(errs, fmt.Errorf("%w: %s extension %q must look like \".df\"", ErrInvalidExtension, name, ext))
		}
	}
	return errs
}

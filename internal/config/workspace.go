package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ParseConfigWS extracts library directories from the contents of a
// workspace config.ws file. Every line mentioning "path" contributes the
// ';'-separated entries after its first '=', each resolved against rootDir.
func ParseConfigWS(content, rootDir string) []string {
	var paths []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(strings.ToLower(line), "path") {
			continue
		}
		_, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		for _, p := range strings.Split(value, ";") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !filepath.IsAbs(p) {
				p = filepath.Join(rootDir, p)
			}
			paths = append(paths, filepath.Clean(p))
		}
	}
	return paths
}

// ExternalPaths returns the configured library paths followed by those listed
// in the workspace config.ws, without duplicates and in first-seen order. A
// missing config.ws is logged and otherwise ignored.
func ExternalPaths(cfg *Config, rootDir string, logger *log.Logger) []string {
	var all []string
	for _, p := range cfg.Library.Paths {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(rootDir, p)
		}
		all = append(all, filepath.Clean(p))
	}

	if cfg.Library.ConfigWS != "" && rootDir != "" {
		wsPath := cfg.Library.ConfigWS
		if !filepath.IsAbs(wsPath) {
			wsPath = filepath.Join(rootDir, wsPath)
		}
		data, err := os.ReadFile(wsPath)
		switch {
		case err == nil:
			all = append(all, ParseConfigWS(string(data), rootDir)...)
		case errors.Is(err, fs.ErrNotExist):
			if logger != nil {
				logger.Printf("no config.ws at %s; using configured library paths only", wsPath)
			}
		default:
			if logger != nil {
				logger.Printf("warning: read %s: %v", wsPath, err)
			}
		}
	}

	return dedupe(all)
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

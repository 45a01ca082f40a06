package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var supportedFormats = map[string]bool{
	"markdown": true,
	"json":     true,
	"yaml":     true,
}

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validatePaths(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateOutput(cfg); err != nil {
		return err
	}
	if err := validateDatabase(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	for i, root := range cfg.Paths.SourceRoots {
		if filepath.IsAbs(root) {
			return fmt.Errorf("paths.source_roots[%d] must be relative to the project root, got %q", i, root)
		}
		if strings.HasPrefix(filepath.Clean(root), "..") {
			return fmt.Errorf("paths.source_roots[%d] must stay inside the project root, got %q", i, root)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude.dirs pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude.files pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !supportedFormats[cfg.Output.Format] {
		return fmt.Errorf("output.format must be one of: json, markdown, yaml; got %q", cfg.Output.Format)
	}
	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled=true")
	}
	if cfg.DB.ProjectKey == "" {
		return fmt.Errorf("db.project_key must not be empty")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRebuildsPerSecond > 100 {
		return fmt.Errorf("watch.max_rebuilds_per_second must be <= 100, got %v", cfg.Watch.MaxRebuildsPerSecond)
	}
	return nil
}

package config

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/stepdown/internal/rules"
)

// Validate checks a configuration for consistency: rule IDs must be
// registered, ignore patterns must compile, fix bounds must be positive.
func Validate(cfg *Config) error {
	registry := rules.DefaultRegistry()
	if _, err := registry.Enabled(cfg.Rules.Enabled); err != nil {
		return err
	}

	for _, pattern := range cfg.Files.Include {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid include pattern %q: %w", pattern, err)
		}
	}
	for _, pattern := range cfg.Files.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}

	if cfg.Fix.MaxPasses <= 0 {
		return fmt.Errorf("fix.max_passes must be positive, got %d", cfg.Fix.MaxPasses)
	}

	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set when the cache is enabled")
	}
	return nil
}

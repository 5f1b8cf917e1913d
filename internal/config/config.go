// Package config loads and validates stepdown configuration.
package config

// Config is the full stepdown configuration.
type Config struct {
	Rules RulesConfig `mapstructure:"rules"`
	Files FilesConfig `mapstructure:"files"`
	Fix   FixConfig   `mapstructure:"fix"`
	Cache CacheConfig `mapstructure:"cache"`
}

// RulesConfig selects which rules run.
type RulesConfig struct {
	// Enabled lists rule IDs to run; empty enables every registered rule.
	Enabled []string `mapstructure:"enabled"`
}

// FilesConfig controls file discovery.
type FilesConfig struct {
	// Include holds glob patterns discovery is limited to; empty means
	// every source file.
	Include []string `mapstructure:"include"`

	// Ignore holds glob patterns excluded from discovery.
	Ignore []string `mapstructure:"ignore"`
}

// FixConfig controls the fix command.
type FixConfig struct {
	// MaxPasses bounds analyze-fix iterations per file.
	MaxPasses int `mapstructure:"max_passes"`
}

// CacheConfig controls the persistent result cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Rules: RulesConfig{},
		Files: FilesConfig{
			Ignore: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/.git/**",
				"**/*.min.js",
			},
		},
		Fix: FixConfig{
			MaxPasses: 5,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".stepdown/cache.db",
		},
	}
}

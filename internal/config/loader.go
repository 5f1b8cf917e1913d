package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading.
type Loader interface {
	// Load loads configuration with the priority: defaults, then the
	// config file, then STEPDOWN_* environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader for the given root directory.
// Configuration is searched in {rootDir}/.stepdown/config.yml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".stepdown")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("STEPDOWN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("rules.enabled")
	v.BindEnv("fix.max_passes")
	v.BindEnv("cache.enabled")
	v.BindEnv("cache.path")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine, defaults plus env apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
	v.SetDefault("rules.enabled", defaults.Rules.Enabled)
	v.SetDefault("files.include", defaults.Files.Include)
	v.SetDefault("files.ignore", defaults.Files.Ignore)
	v.SetDefault("fix.max_passes", defaults.Fix.MaxPasses)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.path", defaults.Cache.Path)
}

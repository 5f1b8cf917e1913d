// Package cli implements the stepdown command-line interface.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/stepdown/internal/cache"
	"github.com/mvp-joe/stepdown/internal/config"
)

var (
	cfgDir  string
	verbose bool
	noCache bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stepdown",
	Short: "Stepdown - keep callers above their callees",
	Long: `Stepdown analyzes and rewrites JavaScript/TypeScript files so they follow
the stepdown convention: a function appears above every function it calls,
and ordinary logic inside a function body precedes any nested function
declarations. It reports call cycles separately, since no reordering can
resolve them.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "directory holding .stepdown/config.yml (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
}

// loadConfig loads configuration from the --config directory, falling back
// to the current directory.
func loadConfig() (*config.Config, error) {
	root := cfgDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = cwd
	}
	return config.NewLoader(root).Load()
}

// openCache opens the result cache when enabled; a cache failure degrades
// to running without one.
func openCache(cfg *config.Config) *cache.Cache {
	if noCache || !cfg.Cache.Enabled {
		return nil
	}
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		log.Printf("Warning: result cache unavailable: %v", err)
		return nil
	}
	return c
}

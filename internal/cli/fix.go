package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/pipeline"
	"github.com/mvp-joe/stepdown/internal/report"
	"github.com/mvp-joe/stepdown/internal/rules"
	"github.com/mvp-joe/stepdown/internal/watcher"
)

var (
	fixDryRun bool
	fixDiff   bool
	fixQuiet  bool
	fixWatch  bool
	fixFormat string
	fixRules  []string
)

// fixCmd represents the fix command
var fixCmd = &cobra.Command{
	Use:   "fix [patterns...]",
	Short: "Rewrite files to follow the stepdown convention",
	Long: `Fix analyzes the matched files and reorders their function statements so
callers appear before callees and nested functions follow the ordinary
logic of their parent bodies. Imports, exports and unrelated text keep
their original formatting; only statement order changes. Files inside
unresolvable call cycles are reported, never rewritten.

Examples:
  # Fix the current directory in place
  stepdown fix

  # Preview as a unified diff without writing
  stepdown fix --diff src/

  # Report what would change without writing
  stepdown fix --dry-run

  # Keep running and fix files as they change
  stepdown fix --watch
`,
	RunE: runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report changes without writing files")
	fixCmd.Flags().BoolVar(&fixDiff, "diff", false, "Print a unified diff instead of writing")
	fixCmd.Flags().BoolVarP(&fixQuiet, "quiet", "q", false, "Disable progress output")
	fixCmd.Flags().BoolVarP(&fixWatch, "watch", "w", false, "Watch for changes and keep fixing")
	fixCmd.Flags().StringVar(&fixFormat, "format", "text", "Output format: text or json")
	fixCmd.Flags().StringSliceVar(&fixRules, "rules", nil, "Rule IDs to run (default: all)")
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled := fixRules
	if enabled == nil {
		enabled = cfg.Rules.Enabled
	}

	fs, err := pipeline.NewFileService(cfg.Files.Include, cfg.Files.Ignore)
	if err != nil {
		return err
	}
	p, err := pipeline.New(rules.DefaultRegistry(), enabled, fs)
	if err != nil {
		return err
	}
	defer p.Close()

	opts := []pipeline.RunnerOption{}
	if fixFormat == "text" && !fixQuiet && !fixDiff {
		opts = append(opts, pipeline.WithProgress(newProgressReporter(false)))
	}
	if c := openCache(cfg); c != nil {
		defer c.Close()
		opts = append(opts, pipeline.WithResultCache(c))
	}
	runner := pipeline.NewRunner(p, opts...)

	fixOpts := pipeline.FixOptions{
		Write:     !fixDryRun && !fixDiff,
		MaxPasses: cfg.Fix.MaxPasses,
	}

	results, err := runner.FixFiles(cmd.Context(), args, fixOpts)
	if err != nil {
		return err
	}
	if err := printFixResults(results); err != nil {
		return err
	}

	if fixWatch {
		return watchAndFix(cmd.Context(), runner, fixOpts, args)
	}
	return nil
}

func printFixResults(results []*analysis.FixResult) error {
	if fixFormat == "json" {
		out, err := report.JSON(report.NewFixReport(results))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fixed := 0
	for _, r := range results {
		for _, e := range r.Errors {
			fmt.Printf("%s: error: %s\n", r.FilePath, e)
		}
		if !r.Fixed {
			continue
		}
		fixed++

		if fixDiff {
			diff := difflib.UnifiedDiff{
				A:        difflib.SplitLines(r.OriginalText),
				B:        difflib.SplitLines(r.FixedText),
				FromFile: r.FilePath,
				ToFile:   r.FilePath + " (fixed)",
				Context:  3,
			}
			text, err := difflib.GetUnifiedDiffString(diff)
			if err != nil {
				return err
			}
			fmt.Print(text)
			continue
		}
		if !fixQuiet {
			fmt.Printf("%s: fixed (%d function(s) moved)\n", r.FilePath, r.MovedCount)
		}
	}
	if !fixQuiet && !fixDiff {
		fmt.Printf("%d file(s) fixed\n", fixed)
	}
	return nil
}

// watchAndFix keeps fixing files as they change until interrupted.
func watchAndFix(ctx context.Context, runner *pipeline.Runner, opts pipeline.FixOptions, patterns []string) error {
	dirs := watchRoots(patterns)
	w, err := watcher.New(dirs)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.Start(ctx, func(files []string) {
		results, err := runner.FixFiles(ctx, files, opts)
		if err != nil {
			log.Printf("Watch fix failed: %v", err)
			return
		}
		for _, r := range results {
			if r.Fixed {
				w.MarkWritten(r.FilePath, []byte(r.FixedText))
				fmt.Printf("%s: fixed\n", r.FilePath)
			}
		}
	})

	log.Printf("Watching for changes (Ctrl+C to stop)...")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watchRoots derives directories to watch from the fix patterns: existing
// directories are watched as-is, anything else falls back to the current
// directory.
func watchRoots(patterns []string) []string {
	if len(patterns) == 0 {
		return []string{"."}
	}
	var dirs []string
	fallback := false
	for _, p := range patterns {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
			continue
		}
		fallback = true
	}
	if fallback || len(dirs) == 0 {
		dirs = append(dirs, ".")
	}
	return dirs
}

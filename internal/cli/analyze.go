package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/pipeline"
	"github.com/mvp-joe/stepdown/internal/report"
	"github.com/mvp-joe/stepdown/internal/rules"
)

var (
	analyzeFormat string
	analyzeQuiet  bool
	analyzeRules  []string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [patterns...]",
	Short: "Report stepdown violations without changing files",
	Long: `Analyze parses the matched files, builds each file's call graph, and
reports stepdown violations, nested-declaration violations, and call
cycles. Violations involving a cycle are listed with the cycle instead:
no reordering can fix them.

Examples:
  # Analyze the current directory
  stepdown analyze

  # Analyze specific files or globs
  stepdown analyze src/**/*.ts lib/util.js

  # Machine-readable output
  stepdown analyze --format json
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format: text or json")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Disable progress output")
	analyzeCmd.Flags().StringSliceVar(&analyzeRules, "rules", nil, "Rule IDs to run (default: all)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled := analyzeRules
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
	if analyzeFormat == "text" && !analyzeQuiet {
		opts = append(opts, pipeline.WithProgress(newProgressReporter(false)))
	}
	if c := openCache(cfg); c != nil {
		defer c.Close()
		opts = append(opts, pipeline.WithResultCache(c))
	}

	results, err := pipeline.NewRunner(p, opts...).AnalyzeFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	if analyzeFormat == "json" {
		out, err := report.JSON(report.NewAnalyzeReport(results))
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		printAnalysisText(results)
	}

	total := 0
	for _, r := range results {
		total += r.ViolationCount()
	}
	if total > 0 {
		return fmt.Errorf("found %d violation(s)", total)
	}
	return nil
}

func printAnalysisText(results []*analysis.AnalysisResult) {
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("%s: error: %s\n", r.FilePath, r.Error)
			continue
		}
		if r.ViolationCount() == 0 && len(r.Cycles) == 0 {
			if verbose {
				if r.Cached {
					fmt.Printf("%s: ok (cached)\n", r.FilePath)
				} else {
					fmt.Printf("%s: ok (%d functions)\n", r.FilePath, r.TotalFunctions)
				}
			}
			continue
		}
		for _, v := range r.StepdownViolations {
			fmt.Printf("%s:%s\n", r.FilePath, v)
		}
		for _, v := range r.NestedViolations {
			fmt.Printf("%s:%s\n", r.FilePath, v)
		}
		for _, c := range r.Cycles {
			fmt.Printf("%s: call cycle (not fixable by reordering): %v\n", r.FilePath, []string(c))
		}
	}
}

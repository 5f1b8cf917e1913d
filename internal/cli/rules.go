package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/stepdown/internal/rules"
)

// rulesCmd lists the registered rules.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules",
	Long:  `Rules prints every registered rule ID with a short description.`,
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled := map[string]bool{}
	for _, id := range cfg.Rules.Enabled {
		enabled[id] = true
	}

	for _, rule := range rules.DefaultRegistry().Rules() {
		status := "enabled"
		if len(enabled) > 0 && !enabled[rule.ID()] {
			status = "disabled"
		}
		fmt.Printf("%-10s %-9s %s\n", rule.ID(), status, rule.Description())
	}
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/stepdown/internal/mcpserver"
	"github.com/mvp-joe/stepdown/internal/rules"
)

var mcpRules []string

// mcpCmd serves analyze and fix over MCP stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Mcp starts a Model Context Protocol server on stdio exposing the
stepdown_analyze and stepdown_fix tools, so editor agents can check and
fix source organization without shelling out.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSliceVar(&mcpRules, "rules", nil, "Rule IDs to serve (default: all)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled := mcpRules
	if enabled == nil {
		enabled = cfg.Rules.Enabled
	}

	srv, err := mcpserver.New(rules.DefaultRegistry(), enabled, cfg.Fix.MaxPasses)
	if err != nil {
		return err
	}
	return srv.Serve(cmd.Context())
}

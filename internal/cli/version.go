package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set via -ldflags at release time
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stepdown version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stepdown %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Build variables - can be set during build with ldflags.
var (
	buildDate = "unknown"
	gitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pyrite %s (built %s, commit %s)\n", version, buildDate, gitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

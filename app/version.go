package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/upmail/upmail/app.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "upmail %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

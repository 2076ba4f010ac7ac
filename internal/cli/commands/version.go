package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display efscan version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "efscan v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Generated Model Scanner")
			if gitCommit != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", gitCommit)
			}
			if buildDate != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built:  %s\n", buildDate)
			}
		},
	}
}

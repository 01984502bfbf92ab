package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/config"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dvote",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dvote version %s (commit %s, built %s)\n", config.Version, config.Commit, config.Date)
		},
	}
}

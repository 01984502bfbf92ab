package cli

import (
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/cli/render"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		Long: `Show the configuration dvote runs with: dvote.toml merged over the
defaults, plus the flags and DVOTE_* environment of this invocation.

When run without subcommands, displays the current config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})

	return cmd
}

func showConfig(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	if app.Config.JSON {
		return render.JSON(cmd.OutOrStdout(), app.Config)
	}
	return render.NewConfigRenderer(cmd.OutOrStdout()).Render(app.Config)
}

package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/adapters/progress"
	"github.com/trebuchet-org/dvote/internal/app"
	"github.com/trebuchet-org/dvote/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// cleanupKey holds the teardown of the app instance
	cleanupKey contextKey = "cleanup"
)

// commands that run without an app instance
var noAppCommands = map[string]bool{
	"version":                 true,
	"help":                    true,
	"completion":              true,
	"init":                    true,
	cobra.ShellCompRequestCmd: true,
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dvote",
		Short: "Verified-membership governance engine",
		Long: `dvote runs a DAO governance ledger: token-weighted proposals and votes,
identity verification for participants, and a timelocked treasury that
executes what the vote decides.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noAppCommands[cmd.Name()] {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}
			v := config.SetupViper(projectRoot, cmd)

			nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
			sink := progress.NewSpinnerProgress(cmd.ErrOrStderr(), !nonInteractive && !color.NoColor)

			appInstance, cleanup, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				inner := cleanup
				cleanup = func() {
					cancel()
					inner()
				}
			}
			ctx = context.WithValue(ctx, cleanupKey, cleanup)
			cmd.SetContext(ctx)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("from", "", "Caller address for the operation (env DVOTE_FROM)")
	flags.String("at", "", "Pin the ledger clock to a time (RFC 3339 or unix seconds)")
	flags.Bool("json", false, "Output in JSON format")
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("non-interactive", false, "Disable interactive prompts")
	flags.String("data-dir", "", "Ledger directory (defaults to .dvote in the project root)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	flags.String("redis-url", "", "Also publish events to this Redis stream")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "governance",
		Title: "Governance Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{
		NewProposalCmd(),
		NewIdentityCmd(),
		NewTokenCmd(),
		NewTreasuryCmd(),
	} {
		cmd.GroupID = "governance"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{
		NewLedgerCmd(),
		NewConfigCmd(),
		NewInitCmd(),
	} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the command tree and tears down the app afterwards, also when
// the command failed.
func Execute(rootCmd *cobra.Command) error {
	cmd, err := rootCmd.ExecuteC()
	if cmd != nil && cmd.Context() != nil {
		if cleanup, ok := cmd.Context().Value(cleanupKey).(func()); ok {
			cleanup()
		}
	}
	return err
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

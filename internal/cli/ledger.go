package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// NewLedgerCmd creates the ledger command group
func NewLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the shared governance state",
	}
	cmd.AddCommand(
		newLedgerStatusCmd(),
		newLedgerExportCmd(),
		newLedgerEventsCmd(),
	)
	return cmd
}

func newLedgerStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the committed version and record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			st, err := app.InspectLedger.Status(cmd.Context())
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), st)
			}
			return render.NewLedgerRenderer(cmd.OutOrStdout()).RenderStatus(st)
		},
	}
}

func newLedgerExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the complete committed state",
		Example: `  dvote ledger export > state.json
  dvote ledger export --format yaml --output state.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			state, err := app.InspectLedger.Export(cmd.Context())
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				return render.JSON(out, state)
			case "yaml", "yml":
				// round-trip through JSON so amounts and enums keep their text form
				data, err := json.Marshal(state)
				if err != nil {
					return fmt.Errorf("failed to marshal state: %w", err)
				}
				var doc any
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("failed to marshal state: %w", err)
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("failed to write yaml: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("%w: unknown format %q (json or yaml)", domain.ErrInvalidParameter, format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newLedgerEventsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the most recent events from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			entries, err := app.InspectLedger.Events(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 && !app.Config.Events.Journal {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("The event journal is disabled ([events] journal = false)"))
				return nil
			}
			return render.NewLedgerRenderer(cmd.OutOrStdout()).RenderEvents(entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of events to show (0 for all)")
	return cmd
}

package cli

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/config"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var (
		admin string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create dvote.toml in the current directory",
		Long: `Create a dvote.toml with every setting at its default. The admin (and
first verifier) is taken from --admin, falling back to --from.`,
		Example: `  dvote init --admin 0xAD...`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}

			if admin == "" {
				admin, _ = cmd.Flags().GetString("from")
			}
			var adminAddr common.Address
			if admin != "" {
				if adminAddr, err = domain.ParseAddress(admin); err != nil {
					return err
				}
			}

			path, err := config.WriteProjectFile(root, config.DefaultProjectFile(adminAddr), force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("Created %s", render.RelativePath(path))))
			if adminAddr == (common.Address{}) {
				fmt.Fprintln(out, render.FormatWarning("No admin set; edit [roles] admin before running admin commands"))
			}
			fmt.Fprintf(out, "\nLedger data will be kept in %s/\n", config.DataDirName)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", "", "Admin address")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing dvote.toml")
	return cmd
}

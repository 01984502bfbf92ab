package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// NewTokenCmd creates the token command group
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint, move and delegate voting tokens",
	}
	cmd.AddCommand(
		newTokenMintCmd(),
		newTokenBurnCmd(),
		newTokenTransferCmd(),
		newTokenDelegateCmd(),
		newTokenVotesCmd(),
		newTokenSupplyCmd(),
		newTokenPauseCmd(true),
		newTokenPauseCmd(false),
		newTokenAutoDelegationCmd(),
	)
	return cmd
}

func newTokenMintCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mint <to> <amount>",
		Short:   "Mint tokens (minter)",
		Example: `  dvote token mint 0xA11CE... 100 --from 0xAD...`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			minter, err := requireCaller(app)
			if err != nil {
				return err
			}
			to, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			if err := app.Token.Mint(cmd.Context(), minter, to, amount); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Minted %s %s to %s", render.Amount(amount), app.Config.Token.Symbol, to.Hex()), nil)
		},
	}
}

func newTokenBurnCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "burn <amount>",
		Short: "Burn tokens from the caller, or from --account as the admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			caller, err := requireCaller(app)
			if err != nil {
				return err
			}
			holder := caller
			if from != "" {
				if holder, err = domain.ParseAddress(from); err != nil {
					return err
				}
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			if err := app.Token.Burn(cmd.Context(), caller, holder, amount); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Burned %s %s from %s", render.Amount(amount), app.Config.Token.Symbol, holder.Hex()), nil)
		},
	}
	cmd.Flags().StringVar(&from, "account", "", "Holder to burn from")
	return cmd
}

func newTokenTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer tokens from the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := requireCaller(app)
			if err != nil {
				return err
			}
			to, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			if err := app.Token.Transfer(cmd.Context(), from, to, amount); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Transferred %s %s to %s", render.Amount(amount), app.Config.Token.Symbol, to.Hex()), nil)
		},
	}
}

func newTokenDelegateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delegate <delegatee>",
		Short: "Delegate the caller's voting power",
		Long: `Delegate the caller's voting power. Delegating to yourself makes your
balance count as votes; the change applies to proposals created afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			holder, err := requireCaller(app)
			if err != nil {
				return err
			}
			delegatee, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			if err := app.Token.Delegate(cmd.Context(), holder, delegatee); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Delegated voting power to %s", delegatee.Hex()), nil)
		},
	}
}

func newTokenVotesCmd() *cobra.Command {
	var atVersion uint64

	cmd := &cobra.Command{
		Use:   "votes [account]",
		Short: "Show balance, delegate and voting power of an account (default: --from)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			var account common.Address
			if len(args) > 0 {
				account, err = domain.ParseAddress(args[0])
			} else {
				account, err = requireCaller(app)
			}
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("at-version") {
				weight, err := app.Token.WeightAt(cmd.Context(), account, atVersion)
				if err != nil {
					return err
				}
				if app.Config.JSON {
					return render.JSON(cmd.OutOrStdout(), map[string]any{"account": account, "version": atVersion, "votes": weight})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s at ledger version %d\n", render.Amount(weight), app.Config.Token.Symbol, atVersion)
				return nil
			}

			info, err := app.Token.Account(cmd.Context(), account)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), info)
			}
			return render.NewTokenRenderer(cmd.OutOrStdout(), app.Config.Token.Symbol).RenderAccount(info)
		},
	}
	cmd.Flags().Uint64Var(&atVersion, "at-version", 0, "Voting power at a past ledger version")
	return cmd
}

func newTokenSupplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show total supply, cap and mint schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			info, err := app.Token.Info(cmd.Context())
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), info)
			}
			return render.NewTokenRenderer(cmd.OutOrStdout(), app.Config.Token.Symbol).RenderInfo(info)
		},
	}
}

func newTokenPauseCmd(paused bool) *cobra.Command {
	use, short, done := "pause", "Pause token transfers and mints (admin)", "Paused the token"
	if !paused {
		use, short, done = "unpause", "Resume token transfers and mints (admin)", "Unpaused the token"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			if err := app.Token.SetPaused(cmd.Context(), admin, paused); err != nil {
				return err
			}
			return finish(cmd, app, done, nil)
		},
	}
}

func newTokenAutoDelegationCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "auto-delegation <on|off>",
		Short:     "Toggle self-delegation of first-time recipients (admin)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			var enabled bool
			switch args[0] {
			case "on", "true":
				enabled = true
			case "off", "false":
			default:
				return fmt.Errorf("%w: expected on or off, got %q", domain.ErrInvalidParameter, args[0])
			}
			if err := app.Token.SetAutoDelegation(cmd.Context(), admin, enabled); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Auto-delegation %s", args[0]), nil)
		},
	}
}

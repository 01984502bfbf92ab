package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// NewTreasuryCmd creates the treasury command group
func NewTreasuryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treasury",
		Short: "Fund the treasury and manage its timelock",
	}
	cmd.AddCommand(
		newTreasuryDepositCmd(),
		newTreasuryAllowCmd(),
		newTreasuryDelayCmd(),
		newTreasuryPauseCmd(true),
		newTreasuryPauseCmd(false),
		newTreasuryWithdrawalsCmd(),
		newTreasuryCancelCmd(),
		newTreasuryEmergencyWithdrawCmd(),
		newTreasuryBalanceCmd(),
	)
	return cmd
}

func newTreasuryDepositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit funds into the treasury",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			from, err := requireCaller(app)
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}

			if err := app.Treasury.Deposit(cmd.Context(), from, amount); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Deposited %s", render.Amount(amount)), nil)
		},
	}
}

func newTreasuryEmergencyWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emergency-withdraw <to> <amount>",
		Short: "Move funds out immediately, bypassing the timelock (admin)",
		Long: `Move funds from the treasury to an account right away. None of the
withdrawal controls apply, including the pause.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
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

			if err := app.Treasury.EmergencyWithdraw(cmd.Context(), admin, to, amount); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Withdrew %s to %s", render.Amount(amount), to.Hex()), nil)
		},
	}
}

func newTreasuryAllowCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "allow <target>",
		Short: "Add a target to the withdrawal allow-list (admin)",
		Long: `Add a target to the withdrawal allow-list, or remove it with --remove.
Withdrawals to targets missing from the list are rejected when queued and
again when executed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			target, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			if err := app.Treasury.SetAllowedTarget(cmd.Context(), admin, target, !remove); err != nil {
				return err
			}
			action := "Allowed"
			if remove {
				action = "Disallowed"
			}
			return finish(cmd, app, fmt.Sprintf("%s %s", action, target.Hex()), nil)
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the target instead")
	return cmd
}

func newTreasuryDelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delay <duration>",
		Short:   "Set the withdrawal timelock (admin)",
		Example: `  dvote treasury delay 48h --from 0xAD...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			delay, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
			}

			if err := app.Treasury.SetWithdrawalDelay(cmd.Context(), admin, delay); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Withdrawal delay set to %s", render.Duration(delay)), nil)
		},
	}
}

func newTreasuryPauseCmd(paused bool) *cobra.Command {
	use, short, done := "pause", "Stop queueing and executing withdrawals (admin)", "Paused the treasury"
	if !paused {
		use, short, done = "unpause", "Resume withdrawals (admin)", "Unpaused the treasury"
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
			if err := app.Treasury.SetPaused(cmd.Context(), admin, paused); err != nil {
				return err
			}
			return finish(cmd, app, done, nil)
		},
	}
}

func newTreasuryWithdrawalsCmd() *cobra.Command {
	var (
		ready    bool
		target   string
		executed bool
	)

	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "List pending withdrawals, or executed ones with --executed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			renderer := render.NewTreasuryRenderer(cmd.OutOrStdout())

			if executed {
				receipts, err := app.Treasury.Receipts(cmd.Context())
				if err != nil {
					return err
				}
				if app.Config.JSON {
					return render.JSON(cmd.OutOrStdout(), receipts)
				}
				return renderer.RenderReceipts(receipts)
			}

			filter := domain.WithdrawalFilter{ReadyOnly: ready}
			if target != "" {
				if filter.Target, err = domain.ParseAddress(target); err != nil {
					return err
				}
			}
			reqs, err := app.Treasury.Withdrawals(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), reqs)
			}
			status, err := app.InspectLedger.Status(cmd.Context())
			if err != nil {
				return err
			}
			return renderer.RenderWithdrawals(reqs, status.Now)
		},
	}
	cmd.Flags().BoolVar(&ready, "ready", false, "Only withdrawals whose timelock elapsed")
	cmd.Flags().StringVar(&target, "target", "", "Filter by target")
	cmd.Flags().BoolVar(&executed, "executed", false, "Show execution receipts instead")
	return cmd
}

func newTreasuryCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <withdrawal-id>",
		Short: "Cancel a queued withdrawal (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "withdrawal")
			if err != nil {
				return err
			}

			if err := app.Treasury.Cancel(cmd.Context(), admin, id); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Canceled withdrawal #%d", id), nil)
		},
	}
}

func newTreasuryBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show the treasury summary, or the funds an account received",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				account, err := domain.ParseAddress(args[0])
				if err != nil {
					return err
				}
				balance, err := app.Treasury.BalanceOf(cmd.Context(), account)
				if err != nil {
					return err
				}
				if app.Config.JSON {
					return render.JSON(cmd.OutOrStdout(), map[string]any{"account": account, "balance": balance})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", account.Hex(), render.Amount(balance))
				return nil
			}

			info, err := app.Treasury.Info(cmd.Context())
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), info)
			}
			return render.NewTreasuryRenderer(cmd.OutOrStdout()).RenderInfo(info)
		},
	}
}

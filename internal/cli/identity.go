package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// NewIdentityCmd creates the identity command group
func NewIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identity",
		Aliases: []string{"id"},
		Short:   "Verify accounts before they take part in governance",
		Long: `Accounts become eligible to propose and vote in three steps: the account
submits an identity commitment, then a proof hash, and a verifier attests the
account, which issues a membership badge.`,
	}
	cmd.AddCommand(
		newIdentityCommitCmd(),
		newIdentityProveCmd(),
		newIdentityVerifyCmd(),
		newIdentityVerifyBatchCmd(),
		newIdentityRevokeCmd(),
		newIdentityStatusCmd(),
		newIdentityListCmd(),
		newIdentityVerifierCmd(),
	)
	return cmd
}

// hashArg takes a 32-byte hex value, or hashes the input with keccak256 when
// preimage is set.
func hashArg(arg string, preimage bool) (common.Hash, error) {
	if preimage {
		return crypto.Keccak256Hash([]byte(arg)), nil
	}
	return domain.ParseHash(arg)
}

func newIdentityCommitCmd() *cobra.Command {
	var preimage bool

	cmd := &cobra.Command{
		Use:   "commit <commitment>",
		Short: "Submit the caller's identity commitment",
		Example: `  dvote identity commit 0x9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658 --from 0xA11CE...
  dvote identity commit --preimage "alice:salt" --from 0xA11CE...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			account, err := requireCaller(app)
			if err != nil {
				return err
			}
			commitment, err := hashArg(args[0], preimage)
			if err != nil {
				return err
			}

			if err := app.Identity.SubmitCommitment(cmd.Context(), account, commitment); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Commitment %s submitted", commitment.Hex()), map[string]string{"commitment": commitment.Hex()})
		},
	}
	cmd.Flags().BoolVar(&preimage, "preimage", false, "Treat the argument as a preimage and submit its keccak256")
	return cmd
}

func newIdentityProveCmd() *cobra.Command {
	var preimage bool

	cmd := &cobra.Command{
		Use:   "prove <proof-hash>",
		Short: "Submit the caller's proof hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			account, err := requireCaller(app)
			if err != nil {
				return err
			}
			proof, err := hashArg(args[0], preimage)
			if err != nil {
				return err
			}

			if err := app.Identity.SubmitProofHash(cmd.Context(), account, proof); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Proof hash %s submitted; waiting for a verifier", proof.Hex()), map[string]string{"proofHash": proof.Hex()})
		},
	}
	cmd.Flags().BoolVar(&preimage, "preimage", false, "Treat the argument as a preimage and submit its keccak256")
	return cmd
}

func newIdentityVerifyCmd() *cobra.Command {
	var badgeType string

	cmd := &cobra.Command{
		Use:   "verify <account>",
		Short: "Attest an account that submitted commitment and proof (verifier)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			verifier, err := requireCaller(app)
			if err != nil {
				return err
			}
			account, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			badge, err := app.Identity.VerifyAccount(cmd.Context(), verifier, account, badgeType)
			if err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Verified %s with %s badge #%d", account.Hex(), badge.Type, badge.ID), badge)
		},
	}
	cmd.Flags().StringVar(&badgeType, "badge", models.DefaultBadgeType, "Badge type to issue")
	return cmd
}

func newIdentityVerifyBatchCmd() *cobra.Command {
	var (
		badgeType string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "verify-batch [account...]",
		Short: "Attest several accounts (verifier)",
		Long: `Attest several accounts, each in its own ledger transaction; a failure
for one account does not affect the others. Without arguments, the accounts
waiting for attestation are offered for selection, or all of them with --all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			verifier, err := requireCaller(app)
			if err != nil {
				return err
			}

			accounts := make([]common.Address, 0, len(args))
			for _, arg := range args {
				a, err := domain.ParseAddress(arg)
				if err != nil {
					return err
				}
				accounts = append(accounts, a)
			}
			if len(accounts) == 0 {
				pending, err := app.Identity.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts waiting for attestation")
					return nil
				}
				if !all {
					if app.Config.NonInteractive {
						return fmt.Errorf("%w: pass accounts or --all in non-interactive mode", domain.ErrInvalidParameter)
					}
					if pending, err = app.IdentitySelector.SelectIdentities(cmd.Context(), pending, "Select accounts to verify"); err != nil {
						return err
					}
				}
				for _, id := range pending {
					accounts = append(accounts, id.Account)
				}
			}
			if len(accounts) == 0 {
				return nil
			}

			results := app.Identity.VerifyAccounts(cmd.Context(), verifier, accounts, badgeType, app.Progress)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}

			if app.Config.JSON {
				type row struct {
					Account string        `json:"account"`
					Badge   *models.Badge `json:"badge,omitempty"`
					Error   string        `json:"error,omitempty"`
				}
				rows := make([]row, len(results))
				for i, r := range results {
					rows[i] = row{Account: r.Account.Hex(), Badge: r.Badge}
					if r.Err != nil {
						rows[i].Error = r.Err.Error()
					}
				}
				if err := render.JSON(cmd.OutOrStdout(), rows); err != nil {
					return err
				}
			} else {
				if err := render.NewIdentityRenderer(cmd.OutOrStdout()).RenderBatch(results); err != nil {
					return err
				}
				render.RenderEvents(cmd.OutOrStdout(), app.Emitted.Drain())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d accounts could not be verified", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&badgeType, "badge", models.DefaultBadgeType, "Badge type to issue")
	cmd.Flags().BoolVar(&all, "all", false, "Verify every account waiting for attestation")
	return cmd
}

func newIdentityRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <account>",
		Short: "Revoke an account's verification (admin)",
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
			account, err := domain.ParseAddress(args[0])
			if err != nil {
				return err
			}

			if err := app.Identity.RevokeVerification(cmd.Context(), admin, account); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Revoked verification of %s", account.Hex()), nil)
		},
	}
}

func newIdentityStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [account]",
		Short: "Show the verification progress of an account (default: --from)",
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

			st, err := app.Identity.Status(cmd.Context(), account)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), st)
			}
			return render.NewIdentityRenderer(cmd.OutOrStdout()).RenderStatus(st)
		},
	}
}

func newIdentityListCmd() *cobra.Command {
	var (
		stages  []string
		pending bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registry records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var filter domain.IdentityFilter
			for _, s := range stages {
				filter.Stages = append(filter.Stages, models.IdentityStage(s))
			}
			if pending {
				filter.Stages = append(filter.Stages, models.IdentityStageProofSubmitted)
			}

			ids, err := app.Identity.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), ids)
			}
			return render.NewIdentityRenderer(cmd.OutOrStdout()).RenderList(ids)
		},
	}
	cmd.Flags().StringSliceVar(&stages, "stage", nil, "Filter by stage (commitment-submitted, proof-submitted, verified, revoked)")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only accounts waiting for attestation")
	return cmd
}

func newIdentityVerifierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verifier",
		Short: "Manage the accounts allowed to verify identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			verifiers, err := app.Identity.Verifiers(cmd.Context())
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), verifiers)
			}
			return render.NewIdentityRenderer(cmd.OutOrStdout()).RenderVerifiers(verifiers)
		},
	}

	set := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <account>",
			Short: short,
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
				verifier, err := domain.ParseAddress(args[0])
				if err != nil {
					return err
				}

				if err := app.Identity.SetVerifier(cmd.Context(), admin, verifier, enabled); err != nil {
					return err
				}
				action := "Added"
				if !enabled {
					action = "Removed"
				}
				return finish(cmd, app, fmt.Sprintf("%s verifier %s", action, verifier.Hex()), nil)
			},
		}
	}
	cmd.AddCommand(
		set("add", "Grant the verifier role (admin)", true),
		set("remove", "Revoke the verifier role (admin)", false),
	)
	return cmd
}

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/app"
	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// NewProposalCmd creates the proposal command group
func NewProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"p"},
		Short:   "Create, vote on and execute proposals",
	}
	cmd.AddCommand(
		newProposalCreateCmd(),
		newProposalVoteCmd(),
		newProposalQueueCmd(),
		newProposalExecuteCmd(),
		newProposalCancelCmd(),
		newProposalShowCmd(),
		newProposalListCmd(),
		newProposalStateCmd(),
		newProposalParamsCmd(),
	)
	return cmd
}

func newProposalCreateCmd() *cobra.Command {
	var (
		title           string
		description     string
		descriptionFile string
		target          string
		value           string
		payload         string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a proposal",
		Long: `Create a proposal that, once passed, has the treasury send value and
payload to the target. The proposer must be verified and hold at least the
proposal threshold of voting power at the last committed ledger version.`,
		Example: `  # Propose sending 10 tokens to a grant recipient
  dvote proposal create --from 0xA11CE... --title "Grant" \
    --target 0xB0B... --value 10 --description-file grant.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			proposer, err := requireCaller(app)
			if err != nil {
				return err
			}

			if descriptionFile != "" {
				b, err := os.ReadFile(descriptionFile)
				if err != nil {
					return fmt.Errorf("failed to read description: %w", err)
				}
				description = string(b)
			}
			params := usecase.CreateProposalParams{
				Title:       title,
				Description: description,
			}
			if params.Target, err = domain.ParseAddress(target); err != nil {
				return err
			}
			if params.Value, err = parseAmount(value); err != nil {
				return err
			}
			if params.Payload, err = parsePayload(payload); err != nil {
				return err
			}

			id, err := app.Governor.CreateProposal(cmd.Context(), proposer, params)
			if err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Created proposal #%d", id), map[string]uint64{"id": id})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.Flags().StringVar(&descriptionFile, "description-file", "", "Read the description from a file")
	cmd.Flags().StringVar(&target, "target", "", "Address the treasury pays on execution")
	cmd.Flags().StringVar(&value, "value", "0", "Amount the treasury sends, in whole tokens")
	cmd.Flags().StringVar(&payload, "payload", "", "Hex call data passed to the target")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("target")
	cmd.MarkFlagsMutuallyExclusive("description", "description-file")

	return cmd
}

func newProposalVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote [proposal-id] <for|against|abstain>",
		Short: "Cast a vote",
		Long: `Cast a vote with the voting power the caller had when the proposal was
created. Without a proposal id, an active proposal is picked interactively.`,
		Example: `  dvote proposal vote 3 for --from 0xA11CE...
  dvote proposal vote against --from 0xA11CE...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			voter, err := requireCaller(app)
			if err != nil {
				return err
			}

			choice, err := models.ParseVoteChoice(args[len(args)-1])
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
			}
			id, err := proposalArg(cmd, app, args[:len(args)-1], "Select a proposal to vote on", models.ProposalStateActive)
			if err != nil {
				return err
			}

			rec, err := app.Governor.CastVote(cmd.Context(), voter, id, choice)
			if err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Voted %s on proposal #%d with weight %s", rec.Choice, id, render.Amount(&rec.Weight)), rec)
		},
	}
}

func newProposalQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue [proposal-id]",
		Short: "Queue a succeeded proposal in the treasury timelock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			caller, err := requireCaller(app)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd, app, args, "Select a proposal to queue", models.ProposalStateSucceeded)
			if err != nil {
				return err
			}

			req, err := app.Governor.Queue(cmd.Context(), caller, id)
			if err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Queued proposal #%d as withdrawal #%d, executable at %s", id, req.ID, render.Time(req.ExecutableAt)), req)
		},
	}
}

func newProposalExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [proposal-id]",
		Short: "Execute a queued proposal once its timelock elapsed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			caller, err := requireCaller(app)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd, app, args, "Select a proposal to execute", models.ProposalStateQueued)
			if err != nil {
				return err
			}

			receipt, err := app.Governor.Execute(cmd.Context(), caller, id)
			if err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Executed proposal #%d: sent %s to %s", id, render.Amount(&receipt.Value), receipt.Target.Hex()), receipt)
		},
	}
}

func newProposalCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <proposal-id>",
		Short: "Cancel a proposal (admin)",
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
			id, err := parseID(args[0], "proposal")
			if err != nil {
				return err
			}

			if err := app.Governor.Cancel(cmd.Context(), admin, id); err != nil {
				return err
			}
			return finish(cmd, app, fmt.Sprintf("Canceled proposal #%d", id), nil)
		},
	}
}

func newProposalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [proposal-id]",
		Short: "Show a proposal with its tally and votes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := proposalArg(cmd, app, args, "Select a proposal")
			if err != nil {
				return err
			}

			pv, err := app.Governor.Proposal(cmd.Context(), id)
			if err != nil {
				return err
			}
			votes, err := app.Governor.Votes(cmd.Context(), id)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), map[string]any{
					"proposal": pv.Proposal,
					"state":    pv.State,
					"votes":    votes,
				})
			}
			return render.NewProposalRenderer(cmd.OutOrStdout()).RenderProposal(pv, votes)
		},
	}
}

func newProposalListCmd() *cobra.Command {
	var (
		states   []string
		proposer string
		voter    string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proposals",
		Example: `  # Proposals still open for voting
  dvote proposal list --state active

  # Proposals an account voted on
  dvote proposal list --voter 0xA11CE...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var filter domain.ProposalFilter
			for _, s := range states {
				state, err := models.ParseProposalState(s)
				if err != nil {
					return fmt.Errorf("%w: %v", domain.ErrInvalidParameter, err)
				}
				filter.States = append(filter.States, state)
			}
			if proposer != "" {
				if filter.Proposer, err = domain.ParseAddress(proposer); err != nil {
					return err
				}
			}
			if voter != "" {
				if filter.Voter, err = domain.ParseAddress(voter); err != nil {
					return err
				}
			}

			proposals, err := app.Governor.Proposals(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				type row struct {
					*models.Proposal
					State models.ProposalState `json:"state"`
				}
				rows := make([]row, len(proposals))
				for i, pv := range proposals {
					rows[i] = row{Proposal: pv.Proposal, State: pv.State}
				}
				return render.JSON(cmd.OutOrStdout(), rows)
			}
			return render.NewProposalRenderer(cmd.OutOrStdout()).RenderList(proposals)
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (pending, active, succeeded, ...)")
	cmd.Flags().StringVar(&proposer, "proposer", "", "Filter by proposer")
	cmd.Flags().StringVar(&voter, "voter", "", "Only proposals this account voted on")

	return cmd
}

func newProposalStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <proposal-id>",
		Short: "Print the lifecycle state of a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0], "proposal")
			if err != nil {
				return err
			}

			state, err := app.Governor.State(cmd.Context(), id)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), map[string]any{"id": id, "state": state})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.StateColor(state).Sprint(state))
			return nil
		},
	}
}

func newProposalParamsCmd() *cobra.Command {
	var (
		votingDelay  time.Duration
		votingPeriod time.Duration
		quorum       uint64
		threshold    string
		grace        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show or update governance parameters",
		Long: `Show the governance parameters. With any flag set, the caller (admin)
updates them; proposals already created keep the values they started with.`,
		Example: `  dvote proposal params
  dvote proposal params --from 0xAD... --quorum 20 --voting-period 120h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			params, err := app.Governor.Parameters(cmd.Context())
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			changed := false
			if flags.Changed("voting-delay") {
				params.VotingDelay, changed = votingDelay, true
			}
			if flags.Changed("voting-period") {
				params.VotingPeriod, changed = votingPeriod, true
			}
			if flags.Changed("quorum") {
				params.QuorumPercent, changed = quorum, true
			}
			if flags.Changed("threshold") {
				v, err := parseAmount(threshold)
				if err != nil {
					return err
				}
				params.ProposalThreshold, changed = *v, true
			}
			if flags.Changed("grace-period") {
				params.GracePeriod, changed = grace, true
			}

			if !changed {
				if app.Config.JSON {
					return render.JSON(cmd.OutOrStdout(), params)
				}
				return render.NewProposalRenderer(cmd.OutOrStdout()).RenderParameters(params)
			}

			admin, err := requireCaller(app)
			if err != nil {
				return err
			}
			if err := app.Governor.UpdateParameters(cmd.Context(), admin, params); err != nil {
				return err
			}
			return finish(cmd, app, "Updated governance parameters", params)
		},
	}

	cmd.Flags().DurationVar(&votingDelay, "voting-delay", 0, "Delay between creation and the start of voting")
	cmd.Flags().DurationVar(&votingPeriod, "voting-period", 0, "Length of the voting window")
	cmd.Flags().Uint64Var(&quorum, "quorum", 0, "Quorum as a percentage of the snapshot supply")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Voting power needed to create a proposal, in whole tokens")
	cmd.Flags().DurationVar(&grace, "grace-period", 0, "Time a queued proposal stays executable")

	return cmd
}

// proposalArg parses the proposal id argument, or lets the user pick one of
// the proposals in the given states when it is missing.
func proposalArg(cmd *cobra.Command, a *app.App, args []string, prompt string, states ...models.ProposalState) (uint64, error) {
	if len(args) > 0 {
		return parseID(args[0], "proposal")
	}
	if a.Config.NonInteractive {
		return 0, fmt.Errorf("%w: proposal id required in non-interactive mode", domain.ErrInvalidParameter)
	}

	proposals, err := a.Governor.Proposals(cmd.Context(), domain.ProposalFilter{States: states})
	if err != nil {
		return 0, err
	}
	if len(proposals) == 0 {
		return 0, fmt.Errorf("no matching proposals: %w", domain.ErrNotFound)
	}
	selected, err := a.ProposalSelector.SelectProposal(cmd.Context(), proposals, prompt)
	if err != nil {
		return 0, err
	}
	return selected.Proposal.ID, nil
}

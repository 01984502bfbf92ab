package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// ProposalRenderer renders proposals and their tallies
type ProposalRenderer struct {
	out io.Writer
}

// NewProposalRenderer creates a new proposal renderer
func NewProposalRenderer(out io.Writer) *ProposalRenderer {
	return &ProposalRenderer{out: out}
}

// RenderList renders proposals as a table
func (r *ProposalRenderer) RenderList(proposals []*usecase.ProposalView) error {
	if len(proposals) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"ID", "Title", "State", "For", "Against", "Abstain", "Ends"})
	for _, pv := range proposals {
		p := pv.Proposal
		t.AppendRow(table.Row{
			p.ID,
			truncate(p.Title, 40),
			StateColor(pv.State).Sprint(pv.State),
			Amount(&p.ForVotes),
			Amount(&p.AgainstVotes),
			Amount(&p.AbstainVotes),
			timestampStyle.Sprint(Relative(p.EndTime, pv.Now)),
		})
	}
	t.Render()
	return nil
}

// RenderProposal renders one proposal with its outcome figures
func (r *ProposalRenderer) RenderProposal(pv *usecase.ProposalView, votes []*models.VoteRecord) error {
	p := pv.Proposal
	headerStyle.Fprintf(r.out, "Proposal #%d: %s\n", p.ID, p.Title)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))

	field(r.out, "State", StateColor(pv.State).Sprint(Title(pv.State.String())))
	field(r.out, "Proposer", addressStyle.Sprint(p.Proposer.Hex()))
	field(r.out, "Content hash", p.ContentHash.Hex())
	field(r.out, "Created", Time(p.CreatedAt))
	field(r.out, "Voting starts", fmt.Sprintf("%s (%s)", Time(p.StartTime), Relative(p.StartTime, pv.Now)))
	field(r.out, "Voting ends", fmt.Sprintf("%s (%s)", Time(p.EndTime), Relative(p.EndTime, pv.Now)))
	field(r.out, "Snapshot", fmt.Sprintf("ledger version %d", p.Snapshot))

	fmt.Fprintln(r.out, "\nAction:")
	field(r.out, "Target", addressStyle.Sprint(p.Target.Hex()))
	field(r.out, "Value", amountStyle.Sprint(Amount(&p.Value)))
	if len(p.Payload) > 0 {
		field(r.out, "Payload", hexutil.Encode(p.Payload))
	}

	fmt.Fprintln(r.out, "\nTally:")
	field(r.out, "For", Amount(&p.ForVotes))
	field(r.out, "Against", Amount(&p.AgainstVotes))
	field(r.out, "Abstain", Amount(&p.AbstainVotes))
	field(r.out, "Quorum", fmt.Sprintf("%s of %s (%s)", Amount(p.TotalVotes()), Amount(&p.QuorumVotes), quorumMark(p)))
	field(r.out, "Supply", Amount(&p.SnapshotSupply))

	if p.Queued() {
		fmt.Fprintln(r.out, "\nTimelock:")
		field(r.out, "Withdrawal", p.WithdrawalID)
		if p.ExecutableAt != nil {
			field(r.out, "Executable at", fmt.Sprintf("%s (%s)", Time(*p.ExecutableAt), Relative(*p.ExecutableAt, pv.Now)))
		}
		if p.ExpiresAt != nil {
			field(r.out, "Expires at", Time(*p.ExpiresAt))
		}
	}
	if p.ExecutedAt != nil {
		field(r.out, "Executed at", Time(*p.ExecutedAt))
	}

	if p.Description != "" {
		fmt.Fprintln(r.out, "\nDescription:")
		for _, line := range strings.Split(p.Description, "\n") {
			fmt.Fprintf(r.out, "  %s\n", line)
		}
	}

	if len(votes) > 0 {
		fmt.Fprintf(r.out, "\nVotes (%d):\n", len(votes))
		t := newTable(r.out)
		t.AppendHeader(table.Row{"Voter", "Choice", "Weight", "Cast"})
		for _, v := range votes {
			t.AppendRow(table.Row{v.Voter.Hex(), choiceColor(v.Choice), Amount(&v.Weight), Time(v.Timestamp)})
		}
		t.Render()
	}
	return nil
}

// RenderParameters renders the governance parameters
func (r *ProposalRenderer) RenderParameters(p models.GovernanceParams) error {
	headerStyle.Fprintln(r.out, "Governance parameters:")
	field(r.out, "Voting delay", Duration(p.VotingDelay))
	field(r.out, "Voting period", Duration(p.VotingPeriod))
	field(r.out, "Quorum", fmt.Sprintf("%d%%", p.QuorumPercent))
	field(r.out, "Threshold", Amount(&p.ProposalThreshold))
	field(r.out, "Grace period", Duration(p.GracePeriod))
	return nil
}

func quorumMark(p *models.Proposal) string {
	if p.TotalVotes().Cmp(&p.QuorumVotes) >= 0 {
		return goodStyle.Sprint("reached")
	}
	missing := new(uint256.Int).Sub(&p.QuorumVotes, p.TotalVotes())
	return pendingStyle.Sprintf("%s missing", Amount(missing))
}

func choiceColor(c models.VoteChoice) string {
	switch c {
	case models.VoteFor:
		return goodStyle.Sprint(c)
	case models.VoteAgainst:
		return badStyle.Sprint(c)
	}
	return labelStyle.Sprint(c)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

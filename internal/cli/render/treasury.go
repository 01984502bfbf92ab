package render

import (
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// TreasuryRenderer renders treasury holdings and the withdrawal queue
type TreasuryRenderer struct {
	out io.Writer
}

// NewTreasuryRenderer creates a new treasury renderer
func NewTreasuryRenderer(out io.Writer) *TreasuryRenderer {
	return &TreasuryRenderer{out: out}
}

// RenderInfo renders the treasury summary
func (r *TreasuryRenderer) RenderInfo(info *usecase.TreasuryInfo) error {
	headerStyle.Fprintln(r.out, "Treasury")
	field(r.out, "Balance", amountStyle.Sprint(Amount(info.Balance)))
	field(r.out, "Withdrawal delay", Duration(info.WithdrawalDelay))
	field(r.out, "Status", pausedLabel(info.Paused))
	field(r.out, "Pending", info.Pending)
	field(r.out, "Executed", info.Executed)

	if len(info.Allowlist) == 0 {
		fmt.Fprintln(r.out, FormatWarning("No allowed targets; every withdrawal will be rejected"))
		return nil
	}
	fmt.Fprintln(r.out, "\nAllowed targets:")
	for _, a := range info.Allowlist {
		fmt.Fprintf(r.out, "  %s\n", addressStyle.Sprint(a.Hex()))
	}
	return nil
}

// RenderWithdrawals renders the pending requests
func (r *TreasuryRenderer) RenderWithdrawals(reqs []*models.WithdrawalRequest, now time.Time) error {
	if len(reqs) == 0 {
		fmt.Fprintln(r.out, "No pending withdrawals")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"ID", "Proposal", "Target", "Value", "Executable", "Status"})
	for _, w := range reqs {
		proposal := "-"
		if w.ProposalID != 0 {
			proposal = fmt.Sprintf("#%d", w.ProposalID)
		}
		status := pendingStyle.Sprint("timelocked")
		switch {
		case w.ExpiredAt(now):
			status = badStyle.Sprint("expired")
		case w.ReadyAt(now):
			status = goodStyle.Sprint("ready")
		}
		t.AppendRow(table.Row{
			w.ID,
			proposal,
			w.Target.Hex(),
			Amount(&w.Value),
			timestampStyle.Sprint(Relative(w.ExecutableAt, now)),
			status,
		})
	}
	t.Render()
	return nil
}

// RenderReceipts renders executed withdrawals
func (r *TreasuryRenderer) RenderReceipts(receipts []models.ExecutionReceipt) error {
	if len(receipts) == 0 {
		fmt.Fprintln(r.out, "No executed withdrawals")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"Withdrawal", "Proposal", "Target", "Value", "Executed By", "Executed At", "Result"})
	for _, rc := range receipts {
		proposal := "-"
		if rc.ProposalID != 0 {
			proposal = fmt.Sprintf("#%d", rc.ProposalID)
		}
		result := "-"
		if len(rc.Result) > 0 {
			result = hexutil.Encode(rc.Result)
		}
		t.AppendRow(table.Row{rc.WithdrawalID, proposal, rc.Target.Hex(), Amount(&rc.Value), rc.ExecutedBy.Hex(), Time(rc.ExecutedAt), truncate(result, 20)})
	}
	t.Render()
	return nil
}

// RenderReceipt renders a single execution
func (r *TreasuryRenderer) RenderReceipt(rc *models.ExecutionReceipt) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Executed withdrawal #%d", rc.WithdrawalID)))
	field(r.out, "Target", addressStyle.Sprint(rc.Target.Hex()))
	field(r.out, "Value", amountStyle.Sprint(Amount(&rc.Value)))
	field(r.out, "Payload hash", rc.PayloadHash.Hex())
	if len(rc.Result) > 0 {
		field(r.out, "Result", hexutil.Encode(rc.Result))
	}
	field(r.out, "Executed at", Time(rc.ExecutedAt))
	return nil
}

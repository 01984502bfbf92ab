package render

import (
	"fmt"
	"io"

	"github.com/holiman/uint256"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/dvote/internal/usecase"
)

// TokenRenderer renders voting token state
type TokenRenderer struct {
	out    io.Writer
	symbol string
}

// NewTokenRenderer creates a new token renderer
func NewTokenRenderer(out io.Writer, symbol string) *TokenRenderer {
	return &TokenRenderer{out: out, symbol: symbol}
}

// RenderInfo renders supply figures
func (r *TokenRenderer) RenderInfo(info *usecase.TokenInfo) error {
	headerStyle.Fprintf(r.out, "%s voting token\n", r.symbol)
	field(r.out, "Total supply", r.amount(info.TotalSupply))
	field(r.out, "Cap", r.amount(info.Cap))
	field(r.out, "Mintable", r.amount(info.Remaining))
	field(r.out, "Mint cooldown", Duration(info.MintCooldown))
	if info.LastMint != nil {
		field(r.out, "Last mint", Time(*info.LastMint))
		field(r.out, "Next mint", Time(info.NextMint))
	}
	field(r.out, "Auto-delegation", YesNo(info.AutoDelegation))
	field(r.out, "Paused", pausedLabel(info.Paused))
	field(r.out, "Holders", info.Holders)
	field(r.out, "Ledger version", info.Version)
	return nil
}

// RenderAccount renders one holder's balance, delegate and vote history
func (r *TokenRenderer) RenderAccount(acc *usecase.AccountInfo) error {
	headerStyle.Fprintf(r.out, "Account %s\n", acc.Account.Hex())
	field(r.out, "Balance", r.amount(acc.Balance))
	field(r.out, "Delegate", addressStyle.Sprint(Address(acc.Delegate)))
	field(r.out, "Votes", r.amount(acc.Votes))

	if len(acc.Checkpoints) == 0 {
		return nil
	}
	fmt.Fprintln(r.out, "\nCheckpoints:")
	t := newTable(r.out)
	t.AppendHeader(table.Row{"Version", "Votes"})
	for _, cp := range acc.Checkpoints {
		t.AppendRow(table.Row{cp.Version, Amount(&cp.Value)})
	}
	t.Render()
	return nil
}

func (r *TokenRenderer) amount(v *uint256.Int) string {
	return amountStyle.Sprintf("%s %s", Amount(v), r.symbol)
}

func pausedLabel(paused bool) string {
	if paused {
		return badStyle.Sprint("paused")
	}
	return goodStyle.Sprint("active")
}

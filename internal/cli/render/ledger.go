package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/dvote/internal/usecase"
)

// LedgerRenderer renders ledger status and the event journal
type LedgerRenderer struct {
	out io.Writer
}

// NewLedgerRenderer creates a new ledger renderer
func NewLedgerRenderer(out io.Writer) *LedgerRenderer {
	return &LedgerRenderer{out: out}
}

// RenderStatus renders ledger counters
func (r *LedgerRenderer) RenderStatus(st *usecase.LedgerStatus) error {
	headerStyle.Fprintln(r.out, "Ledger")
	field(r.out, "Data dir", RelativePath(st.DataDir))
	field(r.out, "Version", st.Version)
	field(r.out, "Committed", Time(st.Time))
	field(r.out, "Now", Time(st.Now))
	fmt.Fprintln(r.out)
	field(r.out, "Proposals", st.Proposals)
	field(r.out, "Votes", st.Votes)
	field(r.out, "Identities", fmt.Sprintf("%d (%d verified)", st.Identities, st.Verified))
	field(r.out, "Token holders", st.Holders)
	field(r.out, "Withdrawals", st.Withdrawals)
	field(r.out, "Receipts", st.Receipts)
	return nil
}

// RenderEvents renders journal entries, oldest first
func (r *LedgerRenderer) RenderEvents(entries []usecase.JournalEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No events recorded")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"Recorded", "Event", "Summary"})
	for _, e := range entries {
		t.AppendRow(table.Row{timestampStyle.Sprint(Time(e.RecordedAt)), headerStyle.Sprint(e.Name), e.Summary})
	}
	t.Render()
	return nil
}

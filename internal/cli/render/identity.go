package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// IdentityRenderer renders registry records
type IdentityRenderer struct {
	out io.Writer
}

// NewIdentityRenderer creates a new identity renderer
func NewIdentityRenderer(out io.Writer) *IdentityRenderer {
	return &IdentityRenderer{out: out}
}

// RenderStatus renders the verification progress of one account
func (r *IdentityRenderer) RenderStatus(st models.VerificationStatus) error {
	headerStyle.Fprintf(r.out, "Identity %s\n", st.Account.Hex())
	field(r.out, "Stage", stageColor(st.Stage))
	field(r.out, "Commitment", doneOrMissing(!st.NeedsCommitment))
	field(r.out, "Proof", doneOrMissing(st.ProofSubmitted))
	field(r.out, "Verified", YesNo(st.Verified))
	if st.BadgeID != 0 {
		badge := fmt.Sprintf("#%d %s", st.BadgeID, st.BadgeType)
		if !st.BadgeActive {
			badge += badStyle.Sprint(" (inactive)")
		}
		field(r.out, "Badge", badge)
	}

	switch {
	case st.AwaitingVerifier:
		fmt.Fprintln(r.out, FormatWarning("Waiting for a verifier to attest this account"))
	case st.NeedsCommitment && !st.Verified:
		fmt.Fprintln(r.out, labelStyle.Sprint("\nNext: dvote identity commit <hash>"))
	case st.NeedsProof && !st.Verified:
		fmt.Fprintln(r.out, labelStyle.Sprint("\nNext: dvote identity prove <hash>"))
	}
	return nil
}

// RenderList renders registry records as a table
func (r *IdentityRenderer) RenderList(ids []*models.Identity) error {
	if len(ids) == 0 {
		fmt.Fprintln(r.out, "No identities found")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"Account", "Stage", "Badge", "Verified At", "Verified By"})
	for _, id := range ids {
		badge, at, by := "-", "-", "-"
		if id.Badge != nil {
			badge = fmt.Sprintf("#%d %s", id.Badge.ID, id.Badge.Type)
		}
		if id.VerifiedAt != nil {
			at = Time(*id.VerifiedAt)
		}
		if id.VerifiedBy != nil {
			by = id.VerifiedBy.Hex()
		}
		t.AppendRow(table.Row{addressStyle.Sprint(id.Account.Hex()), stageColor(id.Stage()), badge, at, by})
	}
	t.Render()
	return nil
}

// RenderVerifiers renders the verifier set
func (r *IdentityRenderer) RenderVerifiers(verifiers []common.Address) error {
	if len(verifiers) == 0 {
		fmt.Fprintln(r.out, "No verifiers registered; only the admin can verify accounts")
		return nil
	}
	headerStyle.Fprintf(r.out, "Verifiers (%d):\n", len(verifiers))
	for _, v := range verifiers {
		fmt.Fprintf(r.out, "  %s\n", addressStyle.Sprint(v.Hex()))
	}
	return nil
}

// RenderBatch renders the outcome of a batch verification
func (r *IdentityRenderer) RenderBatch(results []usecase.VerifyResult) error {
	var ok, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(r.out, "  %s %s: %v\n", badStyle.Sprint("✗"), res.Account.Hex(), res.Err)
			continue
		}
		ok++
		fmt.Fprintf(r.out, "  %s %s badge #%d\n", goodStyle.Sprint("✓"), res.Account.Hex(), res.Badge.ID)
	}
	fmt.Fprintln(r.out)
	if failed > 0 {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Verified %d of %d accounts", ok, len(results))))
		return nil
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Verified %d accounts", ok)))
	return nil
}

func stageColor(s models.IdentityStage) string {
	label := Title(string(s))
	switch s {
	case models.IdentityStageVerified:
		return goodStyle.Sprint(label)
	case models.IdentityStageRevoked:
		return badStyle.Sprint(label)
	case models.IdentityStageUnregistered:
		return labelStyle.Sprint(label)
	}
	return pendingStyle.Sprint(label)
}

func doneOrMissing(done bool) string {
	if done {
		return goodStyle.Sprint("submitted")
	}
	return labelStyle.Sprint("missing")
}

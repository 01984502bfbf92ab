package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/config"
	"github.com/trebuchet-org/dvote/internal/domain"
)

var (
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	grantee = common.HexToAddress("0x0000000000000000000000000000000000006a47")
	t0      = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	pf := config.DefaultProjectFile(admin)
	pf.Treasury.Allowlist = []string{grantee.Hex()}
	_, err := config.WriteProjectFile(dir, pf, false)
	require.NoError(t, err)

	t.Setenv("DVOTE_PROJECT_ROOT", dir)
	return &harness{t: t, dir: dir}
}

// run executes one dvote invocation as from at the given ledger time and
// returns its JSON output.
func (h *harness) run(at time.Time, from common.Address, args ...string) (map[string]any, error) {
	h.t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args,
		"--json",
		"--non-interactive",
		"--at", strconv.FormatInt(at.Unix(), 10),
		"--from", from.Hex(),
	))
	if err := Execute(root); err != nil {
		return nil, err
	}

	var result map[string]any
	if out.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(out.Bytes(), &result), out.String())
	}
	return result, nil
}

func (h *harness) mustRun(at time.Time, from common.Address, args ...string) map[string]any {
	h.t.Helper()
	result, err := h.run(at, from, args...)
	require.NoError(h.t, err, args)
	return result
}

func TestProposalLifecycleThroughCLI(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t0, alice, "identity", "commit", "--preimage", "alice:commitment")
	h.mustRun(t0, alice, "identity", "prove", "--preimage", "alice:proof")
	verified := h.mustRun(t0, admin, "identity", "verify", alice.Hex())
	assert.Contains(t, verified["events"], "AccountVerified")

	h.mustRun(t0, admin, "token", "mint", alice.Hex(), "100")
	h.mustRun(t0, admin, "treasury", "deposit", "50")

	created := h.mustRun(t0.Add(time.Minute), alice, "proposal", "create",
		"--title", "Grant",
		"--description", "Fund the grantee",
		"--target", grantee.Hex(),
		"--value", "10",
	)
	id := strconv.FormatFloat(created["result"].(map[string]any)["id"].(float64), 'f', 0, 64)
	assert.Equal(t, "1", id)

	vote := h.mustRun(t0.Add(2*time.Minute), alice, "proposal", "vote", id, "for")
	assert.Equal(t, "for", vote["result"].(map[string]any)["choice"])

	_, err := h.run(t0.Add(3*time.Minute), alice, "proposal", "vote", id, "against")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	afterVoting := t0.Add(73 * time.Hour)
	state := h.mustRun(afterVoting, alice, "proposal", "state", id)
	assert.Equal(t, "succeeded", state["state"])

	h.mustRun(afterVoting, alice, "proposal", "queue", id)

	_, err = h.run(afterVoting.Add(time.Hour), alice, "proposal", "execute", id)
	assert.ErrorIs(t, err, domain.ErrTimelockNotElapsed)

	executed := h.mustRun(afterVoting.Add(25*time.Hour), alice, "proposal", "execute", id)
	assert.Contains(t, executed["events"], "WithdrawalExecuted")
	assert.Contains(t, executed["events"], "ProposalExecuted")

	balance := h.mustRun(afterVoting.Add(25*time.Hour), alice, "treasury", "balance", grantee.Hex())
	assert.Equal(t, "10000000000000000000", balance["balance"])

	status := h.mustRun(afterVoting.Add(25*time.Hour), alice, "ledger", "status")
	assert.EqualValues(t, 1, status["Proposals"])
	assert.EqualValues(t, 1, status["Verified"])
	assert.FileExists(t, filepath.Join(h.dir, config.DataDirName, "ledger.json"))
}

func TestUnverifiedProposerIsRejected(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t0, admin, "token", "mint", alice.Hex(), "5")

	_, err := h.run(t0, alice, "proposal", "create", "--title", "x", "--target", grantee.Hex())
	assert.ErrorIs(t, err, domain.ErrVerificationRequired)
}

func TestMissingCaller(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t0, common.Address{}, "treasury", "deposit", "1")
	assert.ErrorIs(t, err, domain.ErrZeroAddress)
}

func TestVersionSkipsApp(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, Execute(root))
	assert.Contains(t, out.String(), "dvote version")
}

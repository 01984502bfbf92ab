package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/adapters/calls"
	"github.com/trebuchet-org/dvote/internal/adapters/clock"
	"github.com/trebuchet-org/dvote/internal/adapters/content"
	"github.com/trebuchet-org/dvote/internal/adapters/events"
	"github.com/trebuchet-org/dvote/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

var (
	admin      = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	controller = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	verifier   = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob        = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol      = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	grantee    = common.HexToAddress("0x0000000000000000000000000000000000006a47")

	genesisTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
)

const (
	votingPeriod    = 72 * time.Hour
	withdrawalDelay = 24 * time.Hour
	gracePeriod     = 14 * 24 * time.Hour
)

// env is a complete engine over an in-memory ledger
type env struct {
	t        *testing.T
	ctx      context.Context
	cfg      *config.RuntimeConfig
	clock    *clock.Manual
	events   *events.Recorder
	calls    *calls.Recorder
	ledger   *ledger.Ledger
	identity *usecase.IdentityRegistry
	token    *usecase.VotingPower
	treasury *usecase.Treasury
	governor *usecase.Governor
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Governance: models.GovernanceParams{
			VotingPeriod:      votingPeriod,
			QuorumPercent:     10,
			ProposalThreshold: *uint256.NewInt(1),
			GracePeriod:       gracePeriod,
		},
		Treasury: config.TreasuryConfig{
			WithdrawalDelay: withdrawalDelay,
			Allowlist:       []common.Address{grantee},
		},
		Token: config.TokenConfig{
			Symbol:         "DVOTE",
			Cap:            *uint256.NewInt(1_000_000),
			AutoDelegation: true,
		},
		Roles: config.Roles{
			Admin:      admin,
			Controller: controller,
			Verifiers:  []common.Address{verifier},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T) *env {
	return newEnvWith(t, testConfig())
}

func newEnvWith(t *testing.T, cfg *config.RuntimeConfig) *env {
	t.Helper()
	log := discardLogger()
	e := &env{
		t:      t,
		ctx:    context.Background(),
		cfg:    cfg,
		clock:  clock.NewManual(genesisTime),
		events: events.NewRecorder(),
		calls:  calls.NewRecorder(),
	}

	l, err := ledger.New(ledger.NewMemoryStore(), cfg.Genesis(), e.clock, e.events, usecase.NopTxObserver{}, log)
	require.NoError(t, err)
	e.ledger = l
	e.identity = usecase.NewIdentityRegistry(cfg, l, log)
	e.token = usecase.NewVotingPower(cfg, l, log)
	e.treasury = usecase.NewTreasury(cfg, l, e.calls, log)
	e.governor = usecase.NewGovernor(cfg, l, e.identity, e.token, e.treasury, content.NewMemoryStore(), e.events, log)
	return e
}

// verify takes account through commitment, proof and attestation.
func (e *env) verify(account common.Address) {
	e.t.Helper()
	require.NoError(e.t, e.identity.SubmitCommitment(e.ctx, account, crypto.Keccak256Hash(account.Bytes(), []byte("commitment"))))
	require.NoError(e.t, e.identity.SubmitProofHash(e.ctx, account, crypto.Keccak256Hash(account.Bytes(), []byte("proof"))))
	_, err := e.identity.VerifyAccount(e.ctx, verifier, account, "")
	require.NoError(e.t, err)
}

func (e *env) mint(to common.Address, amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.token.Mint(e.ctx, admin, to, uint256.NewInt(amount)))
}

func (e *env) deposit(amount uint64) {
	e.t.Helper()
	require.NoError(e.t, e.treasury.Deposit(e.ctx, admin, uint256.NewInt(amount)))
}

func (e *env) propose(proposer common.Address, value uint64) uint64 {
	e.t.Helper()
	id, err := e.governor.CreateProposal(e.ctx, proposer, usecase.CreateProposalParams{
		Title:       "Fund grantee",
		Description: "Send funds to the grantee",
		Target:      grantee,
		Value:       uint256.NewInt(value),
	})
	require.NoError(e.t, err)
	return id
}

func (e *env) vote(voter common.Address, id uint64, choice models.VoteChoice) {
	e.t.Helper()
	_, err := e.governor.CastVote(e.ctx, voter, id, choice)
	require.NoError(e.t, err)
}

func (e *env) state(id uint64) models.ProposalState {
	e.t.Helper()
	s, err := e.governor.State(e.ctx, id)
	require.NoError(e.t, err)
	return s
}

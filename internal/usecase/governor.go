package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// Proposal text limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
)

// CreateProposalParams contains parameters for creating a proposal
type CreateProposalParams struct {
	Title       string
	Description string
	Target      common.Address
	Value       *uint256.Int
	Payload     []byte
}

// ProposalView is a proposal together with its derived state
type ProposalView struct {
	Proposal *models.Proposal
	State    models.ProposalState
	Now      time.Time
}

// Governor owns the proposal state machine: creation, voting, tallying,
// queueing and execution through the treasury.
type Governor struct {
	ledger   Ledger
	gate     IdentityGate
	power    VotingPowerSource
	target   ExecutionTarget
	content  ContentStore
	events   EventSink
	roles    config.Roles
	sanitize *bluemonday.Policy
	log      *slog.Logger
}

// NewGovernor creates a new Governor
func NewGovernor(
	cfg *config.RuntimeConfig,
	ledger Ledger,
	gate IdentityGate,
	power VotingPowerSource,
	target ExecutionTarget,
	content ContentStore,
	events EventSink,
	log *slog.Logger,
) *Governor {
	return &Governor{
		ledger:   ledger,
		gate:     gate,
		power:    power,
		target:   target,
		content:  content,
		events:   events,
		roles:    cfg.Roles,
		sanitize: bluemonday.StrictPolicy(),
		log:      log.With("component", "governor"),
	}
}

// CreateProposal records a new proposal. Voting power is measured at the last
// committed ledger version, and the quorum is fixed from the supply at that
// version. The description is stored in the content store after the commit,
// keyed by its keccak256 hash.
func (g *Governor) CreateProposal(ctx context.Context, proposer common.Address, params CreateProposalParams) (uint64, error) {
	title, description, err := g.cleanText(params.Title, params.Description)
	if err != nil {
		return 0, err
	}

	var id uint64
	err = g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := g.requireVerified(ctx, proposer); err != nil {
			return err
		}
		if params.Target == (common.Address{}) {
			return domain.ErrZeroAddress
		}

		gov := &tx.State().Governance
		snapshot := tx.Version()
		weight, err := g.power.WeightAt(ctx, proposer, snapshot)
		if err != nil {
			return err
		}
		if weight.Lt(&gov.Params.ProposalThreshold) {
			return fmt.Errorf("%w: weight %s, threshold %s", domain.ErrBelowProposalThreshold, weight.Dec(), gov.Params.ProposalThreshold.Dec())
		}
		supply, err := g.power.TotalWeightAt(ctx, snapshot)
		if err != nil {
			return err
		}
		quorum, err := QuorumVotes(supply, gov.Params.QuorumPercent)
		if err != nil {
			return err
		}
		contentHash := crypto.Keccak256Hash([]byte(description))

		value := new(uint256.Int)
		if params.Value != nil {
			value.Set(params.Value)
		}
		now := tx.Now()
		start := now.Add(gov.Params.VotingDelay)
		p := &models.Proposal{
			ID:             gov.NextID,
			Proposer:       proposer,
			Title:          title,
			Description:    description,
			ContentHash:    contentHash,
			Target:         params.Target,
			Value:          *value,
			Payload:        common.CopyBytes(params.Payload),
			StartTime:      start,
			EndTime:        start.Add(gov.Params.VotingPeriod),
			Snapshot:       snapshot,
			SnapshotSupply: *supply,
			QuorumVotes:    *quorum,
			CreatedAt:      now,
		}
		gov.Proposals[p.ID] = p
		gov.NextID++
		id = p.ID

		tx.Emit(domain.ProposalCreated{
			ProposalID:  p.ID,
			Proposer:    proposer,
			Title:       title,
			ContentHash: contentHash,
			Target:      p.Target,
			Value:       p.Value,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			Snapshot:    snapshot,
		})
		return nil
	})
	if err != nil {
		g.hintVerification(ctx, err, proposer, "create proposal")
		return 0, err
	}
	g.log.Debug("proposal created", "id", id, "proposer", proposer.Hex())

	// the body is stored only once the proposal committed; the proposal
	// stands even when the store fails, so the id is returned with the error
	if _, err := g.content.Put(ctx, []byte(description)); err != nil {
		g.log.Warn("failed to store proposal description", "id", id, "error", err)
		return id, fmt.Errorf("proposal %d created but its description was not stored: %w", id, err)
	}
	return id, nil
}

// CastVote adds the voter's snapshot weight to the chosen bucket. Each
// account votes at most once per proposal.
func (g *Governor) CastVote(ctx context.Context, voter common.Address, proposalID uint64, choice models.VoteChoice) (*models.VoteRecord, error) {
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: vote choice %d", domain.ErrInvalidParameter, choice)
	}

	var record *models.VoteRecord
	err := g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := g.requireVerified(ctx, voter); err != nil {
			return err
		}
		gov := &tx.State().Governance
		p, err := lookupProposal(gov, proposalID)
		if err != nil {
			return err
		}
		if err := requireState(p, tx.Now(), "vote on", models.ProposalStateActive); err != nil {
			return err
		}
		if _, voted := gov.Votes[proposalID][voter]; voted {
			return fmt.Errorf("%w: %s on proposal %d", domain.ErrAlreadyVoted, voter.Hex(), proposalID)
		}
		weight, err := g.power.WeightAt(ctx, voter, p.Snapshot)
		if err != nil {
			return err
		}
		if weight.IsZero() {
			return fmt.Errorf("%w: %s had no weight at version %d", domain.ErrInsufficientVotingPower, voter.Hex(), p.Snapshot)
		}

		switch choice {
		case models.VoteFor:
			p.ForVotes.Add(&p.ForVotes, weight)
		case models.VoteAgainst:
			p.AgainstVotes.Add(&p.AgainstVotes, weight)
		case models.VoteAbstain:
			p.AbstainVotes.Add(&p.AbstainVotes, weight)
		}
		record = &models.VoteRecord{
			ProposalID: proposalID,
			Voter:      voter,
			Choice:     choice,
			Weight:     *weight,
			Timestamp:  tx.Now(),
		}
		if gov.Votes[proposalID] == nil {
			gov.Votes[proposalID] = make(map[common.Address]*models.VoteRecord)
		}
		gov.Votes[proposalID][voter] = record

		tx.Emit(domain.VoteCast{ProposalID: proposalID, Voter: voter, Choice: choice.String(), Weight: *weight})
		return nil
	})
	if err != nil {
		g.hintVerification(ctx, err, voter, "vote")
		return nil, err
	}
	r := *record
	return &r, nil
}

// Queue hands a succeeded proposal to the treasury. The proposal expires if it
// is not executed within the grace period after its executable time.
func (g *Governor) Queue(ctx context.Context, caller common.Address, proposalID uint64) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		gov := &tx.State().Governance
		p, err := lookupProposal(gov, proposalID)
		if err != nil {
			return err
		}
		if err := requireState(p, tx.Now(), "queue", models.ProposalStateSucceeded); err != nil {
			return err
		}
		w, err := g.target.Queue(ctx, g.roles.Controller, WithdrawalParams{
			Target:      p.Target,
			Value:       &p.Value,
			Payload:     p.Payload,
			ProposalID:  p.ID,
			GracePeriod: gov.Params.GracePeriod,
		})
		if err != nil {
			return err
		}

		queuedAt := tx.Now()
		executableAt := w.ExecutableAt
		expiresAt := executableAt.Add(gov.Params.GracePeriod)
		if w.ExpiresAt != nil {
			expiresAt = *w.ExpiresAt
		}
		p.WithdrawalID = w.ID
		p.QueuedAt = &queuedAt
		p.ExecutableAt = &executableAt
		p.ExpiresAt = &expiresAt

		tx.Emit(domain.ProposalQueued{
			ProposalID:   p.ID,
			WithdrawalID: w.ID,
			ExecutableAt: executableAt,
			ExpiresAt:    expiresAt,
		})
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.log.Debug("proposal queued", "id", proposalID, "caller", caller.Hex(), "withdrawal", out.ID)
	return out, nil
}

// Execute performs a queued proposal's action through the treasury, which
// enforces the timelock and the allow-list.
func (g *Governor) Execute(ctx context.Context, executor common.Address, proposalID uint64) (*models.ExecutionReceipt, error) {
	var receipt *models.ExecutionReceipt
	err := g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := g.requireVerified(ctx, executor); err != nil {
			return err
		}
		p, err := lookupProposal(&tx.State().Governance, proposalID)
		if err != nil {
			return err
		}
		if err := requireState(p, tx.Now(), "execute", models.ProposalStateQueued); err != nil {
			return err
		}
		receipt, err = g.target.Execute(ctx, g.roles.Controller, p.WithdrawalID)
		if err != nil {
			return err
		}
		now := tx.Now()
		p.Executed = true
		p.ExecutedAt = &now
		tx.Emit(domain.ProposalExecuted{ProposalID: p.ID, Executor: executor})
		return nil
	})
	if err != nil {
		g.hintVerification(ctx, err, executor, "execute proposal")
		return nil, err
	}
	return receipt, nil
}

// Cancel stops a proposal that has not finished voting.
func (g *Governor) Cancel(ctx context.Context, admin common.Address, proposalID uint64) error {
	return g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !g.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		p, err := lookupProposal(&tx.State().Governance, proposalID)
		if err != nil {
			return err
		}
		if err := requireState(p, tx.Now(), "cancel", models.ProposalStatePending, models.ProposalStateActive); err != nil {
			return err
		}
		p.Canceled = true
		tx.Emit(domain.ProposalCanceled{ProposalID: p.ID, CanceledBy: admin})
		return nil
	})
}

// UpdateParameters replaces the governance parameters. Existing proposals
// keep the values they were created with.
func (g *Governor) UpdateParameters(ctx context.Context, admin common.Address, params models.GovernanceParams) error {
	if err := ValidateParams(params); err != nil {
		return err
	}
	return g.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !g.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		tx.State().Governance.Params = params
		tx.Emit(domain.ParametersUpdated{
			VotingDelay:       params.VotingDelay,
			VotingPeriod:      params.VotingPeriod,
			QuorumPercent:     params.QuorumPercent,
			ProposalThreshold: params.ProposalThreshold,
			GracePeriod:       params.GracePeriod,
		})
		return nil
	})
}

// Reads

// State derives the current lifecycle state of a proposal.
func (g *Governor) State(ctx context.Context, proposalID uint64) (models.ProposalState, error) {
	var state models.ProposalState
	err := g.ledger.View(ctx, func(v View) error {
		p, err := lookupProposal(&v.State().Governance, proposalID)
		if err != nil {
			return err
		}
		state = p.StateAt(v.Now())
		return nil
	})
	return state, err
}

// Proposal returns a proposal with its derived state.
func (g *Governor) Proposal(ctx context.Context, proposalID uint64) (*ProposalView, error) {
	var out *ProposalView
	err := g.ledger.View(ctx, func(v View) error {
		p, err := lookupProposal(&v.State().Governance, proposalID)
		if err != nil {
			return err
		}
		now := v.Now()
		out = &ProposalView{Proposal: p.Clone(), State: p.StateAt(now), Now: now}
		return nil
	})
	return out, err
}

// Proposals lists proposals matching filter, ordered by id.
func (g *Governor) Proposals(ctx context.Context, filter domain.ProposalFilter) ([]*ProposalView, error) {
	var out []*ProposalView
	err := g.ledger.View(ctx, func(v View) error {
		gov := &v.State().Governance
		now := v.Now()
		for _, p := range gov.Proposals {
			state := p.StateAt(now)
			if len(filter.States) > 0 && !lo.Contains(filter.States, state) {
				continue
			}
			if filter.Proposer != (common.Address{}) && p.Proposer != filter.Proposer {
				continue
			}
			if filter.Voter != (common.Address{}) {
				if _, ok := gov.Votes[p.ID][filter.Voter]; !ok {
					continue
				}
			}
			out = append(out, &ProposalView{Proposal: p.Clone(), State: state, Now: now})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Proposal.ID < out[j].Proposal.ID })
	return out, err
}

// Vote returns the vote record of voter on a proposal.
func (g *Governor) Vote(ctx context.Context, proposalID uint64, voter common.Address) (*models.VoteRecord, error) {
	var out *models.VoteRecord
	err := g.ledger.View(ctx, func(v View) error {
		gov := &v.State().Governance
		if _, err := lookupProposal(gov, proposalID); err != nil {
			return err
		}
		rec, ok := gov.Votes[proposalID][voter]
		if !ok {
			return fmt.Errorf("vote of %s on proposal %d: %w", voter.Hex(), proposalID, domain.ErrNotFound)
		}
		r := *rec
		out = &r
		return nil
	})
	return out, err
}

// Votes returns all vote records of a proposal ordered by time then voter.
func (g *Governor) Votes(ctx context.Context, proposalID uint64) ([]*models.VoteRecord, error) {
	var out []*models.VoteRecord
	err := g.ledger.View(ctx, func(v View) error {
		gov := &v.State().Governance
		if _, err := lookupProposal(gov, proposalID); err != nil {
			return err
		}
		for _, rec := range gov.Votes[proposalID] {
			r := *rec
			out = append(out, &r)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Voter.Cmp(out[j].Voter) < 0
	})
	return out, err
}

// Parameters returns the current governance parameters.
func (g *Governor) Parameters(ctx context.Context) (models.GovernanceParams, error) {
	var params models.GovernanceParams
	err := g.ledger.View(ctx, func(v View) error {
		params = v.State().Governance.Params
		return nil
	})
	return params, err
}

// Description loads a proposal body from the content store.
func (g *Governor) Description(ctx context.Context, hash common.Hash) (string, error) {
	b, err := g.content.Get(ctx, hash)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// QuorumVotes is floor(supply * percent / 100).
func QuorumVotes(supply *uint256.Int, percent uint64) (*uint256.Int, error) {
	if percent > 100 {
		return nil, fmt.Errorf("%w: quorum %d%% above 100%%", domain.ErrInvalidParameter, percent)
	}
	q, overflow := new(uint256.Int).MulDivOverflow(supply, uint256.NewInt(percent), uint256.NewInt(100))
	if overflow {
		return nil, fmt.Errorf("%w: quorum overflow", domain.ErrInvalidParameter)
	}
	return q, nil
}

// ValidateParams checks governance parameter bounds.
func ValidateParams(p models.GovernanceParams) error {
	switch {
	case p.QuorumPercent > 100:
		return fmt.Errorf("%w: quorum %d%% above 100%%", domain.ErrInvalidParameter, p.QuorumPercent)
	case p.VotingPeriod <= 0:
		return fmt.Errorf("%w: voting period must be positive", domain.ErrInvalidParameter)
	case p.VotingDelay < 0:
		return fmt.Errorf("%w: voting delay must not be negative", domain.ErrInvalidParameter)
	case p.GracePeriod <= 0:
		return fmt.Errorf("%w: grace period must be positive", domain.ErrInvalidParameter)
	}
	return nil
}

func (g *Governor) requireVerified(ctx context.Context, account common.Address) error {
	if account == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	ok, err := g.gate.IsVerified(ctx, account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrVerificationRequired, account.Hex())
	}
	return nil
}

// hintVerification publishes the soft VerificationRequired event outside the
// reverted transaction.
func (g *Governor) hintVerification(ctx context.Context, err error, account common.Address, operation string) {
	if !errors.Is(err, domain.ErrVerificationRequired) {
		return
	}
	if perr := g.events.Publish(ctx, domain.VerificationRequired{Account: account, Operation: operation}); perr != nil {
		g.log.Warn("failed to publish verification hint", "account", account.Hex(), "error", perr)
	}
}

func (g *Governor) cleanText(title, description string) (string, string, error) {
	// markup is stripped; entities the policy escaped are turned back into text
	title = strings.TrimSpace(html.UnescapeString(g.sanitize.Sanitize(title)))
	description = strings.TrimSpace(html.UnescapeString(g.sanitize.Sanitize(description)))
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", domain.ErrInvalidParameter)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", "", fmt.Errorf("%w: title longer than %d characters", domain.ErrInvalidParameter, MaxTitleLength)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", "", fmt.Errorf("%w: description longer than %d characters", domain.ErrInvalidParameter, MaxDescriptionLength)
	}
	return title, description, nil
}

func lookupProposal(gov *models.GovernanceState, id uint64) (*models.Proposal, error) {
	p, ok := gov.Proposals[id]
	if !ok {
		return nil, fmt.Errorf("proposal %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func requireState(p *models.Proposal, now time.Time, operation string, want ...models.ProposalState) error {
	state := p.StateAt(now)
	if lo.Contains(want, state) {
		return nil
	}
	return domain.ProposalStateErr{
		ProposalID: p.ID,
		Operation:  operation,
		State:      state.String(),
		Want:       lo.Map(want, func(s models.ProposalState, _ int) string { return s.String() }),
	}
}

package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ProposalState is the lifecycle state of a proposal. It is never stored; it is
// derived from the proposal record and the ledger time.
type ProposalState uint8

const (
	ProposalStatePending ProposalState = iota
	ProposalStateActive
	ProposalStateCanceled
	ProposalStateDefeated
	ProposalStateSucceeded
	ProposalStateQueued
	ProposalStateExpired
	ProposalStateExecuted
)

// AllProposalStates lists the states in lifecycle order.
var AllProposalStates = []ProposalState{
	ProposalStatePending,
	ProposalStateActive,
	ProposalStateCanceled,
	ProposalStateDefeated,
	ProposalStateSucceeded,
	ProposalStateQueued,
	ProposalStateExpired,
	ProposalStateExecuted,
}

func (s ProposalState) String() string {
	switch s {
	case ProposalStatePending:
		return "pending"
	case ProposalStateActive:
		return "active"
	case ProposalStateCanceled:
		return "canceled"
	case ProposalStateDefeated:
		return "defeated"
	case ProposalStateSucceeded:
		return "succeeded"
	case ProposalStateQueued:
		return "queued"
	case ProposalStateExpired:
		return "expired"
	case ProposalStateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Terminal reports whether no further transition can leave the state.
func (s ProposalState) Terminal() bool {
	switch s {
	case ProposalStateCanceled, ProposalStateDefeated, ProposalStateExpired, ProposalStateExecuted:
		return true
	default:
		return false
	}
}

// ParseProposalState maps a state name back to its value.
func ParseProposalState(name string) (ProposalState, error) {
	for _, s := range AllProposalStates {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal state %q", name)
}

func (s ProposalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Proposal is the persisted record of a governance proposal
type Proposal struct {
	// Identification
	ID          uint64         `json:"id"`
	Proposer    common.Address `json:"proposer"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ContentHash common.Hash    `json:"contentHash"`

	// Action executed through the treasury once the proposal passes
	Target  common.Address `json:"target"`
	Value   uint256.Int    `json:"value"`
	Payload []byte         `json:"payload,omitempty"`

	// Voting window
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// Tallies
	ForVotes     uint256.Int `json:"forVotes"`
	AgainstVotes uint256.Int `json:"againstVotes"`
	AbstainVotes uint256.Int `json:"abstainVotes"`

	// Snapshot is the ledger version at which voting power is measured.
	Snapshot       uint64      `json:"snapshot"`
	SnapshotSupply uint256.Int `json:"snapshotSupply"`
	QuorumVotes    uint256.Int `json:"quorumVotes"`

	// Flags
	Canceled bool `json:"canceled"`
	Executed bool `json:"executed"`

	// Queue / execution details
	WithdrawalID uint64     `json:"withdrawalId,omitempty"`
	QueuedAt     *time.Time `json:"queuedAt,omitempty"`
	ExecutableAt *time.Time `json:"executableAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	ExecutedAt   *time.Time `json:"executedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Queued reports whether the proposal was handed to the treasury.
func (p *Proposal) Queued() bool {
	return p.QueuedAt != nil
}

// TotalVotes returns for + against + abstain.
func (p *Proposal) TotalVotes() *uint256.Int {
	total := new(uint256.Int).Add(&p.ForVotes, &p.AgainstVotes)
	return total.Add(total, &p.AbstainVotes)
}

// StateAt derives the lifecycle state at the given time.
func (p *Proposal) StateAt(now time.Time) ProposalState {
	switch {
	case p.Canceled:
		return ProposalStateCanceled
	case p.Executed:
		return ProposalStateExecuted
	case p.Queued():
		if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
			return ProposalStateExpired
		}
		return ProposalStateQueued
	case now.Before(p.StartTime):
		return ProposalStatePending
	case now.Before(p.EndTime):
		return ProposalStateActive
	case p.ForVotes.Gt(&p.AgainstVotes) && !p.TotalVotes().Lt(&p.QuorumVotes):
		return ProposalStateSucceeded
	default:
		return ProposalStateDefeated
	}
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	c := *p
	c.Payload = common.CopyBytes(p.Payload)
	c.QueuedAt = cloneTime(p.QueuedAt)
	c.ExecutableAt = cloneTime(p.ExecutableAt)
	c.ExpiresAt = cloneTime(p.ExpiresAt)
	c.ExecutedAt = cloneTime(p.ExecutedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GovernanceParams are the mutable governance parameters. A proposal copies
// what it needs at creation, so updates only affect later proposals.
type GovernanceParams struct {
	VotingDelay       time.Duration `json:"votingDelay"`
	VotingPeriod      time.Duration `json:"votingPeriod"`
	QuorumPercent     uint64        `json:"quorumPercent"`
	ProposalThreshold uint256.Int   `json:"proposalThreshold"`
	GracePeriod       time.Duration `json:"gracePeriod"`
}

// GovernanceState is the proposal table of the ledger
type GovernanceState struct {
	Params    GovernanceParams                          `json:"params"`
	NextID    uint64                                    `json:"nextId"`
	Proposals map[uint64]*Proposal                      `json:"proposals"`
	Votes     map[uint64]map[common.Address]*VoteRecord `json:"votes"`
}

// Clone returns a deep copy of the table.
func (g *GovernanceState) Clone() GovernanceState {
	c := *g
	c.Proposals = make(map[uint64]*Proposal, len(g.Proposals))
	for k, v := range g.Proposals {
		c.Proposals[k] = v.Clone()
	}
	c.Votes = make(map[uint64]map[common.Address]*VoteRecord, len(g.Votes))
	for id, byVoter := range g.Votes {
		m := make(map[common.Address]*VoteRecord, len(byVoter))
		for voter, rec := range byVoter {
			r := *rec
			m[voter] = &r
		}
		c.Votes[id] = m
	}
	return c
}

// IdentityState is the registry table of the ledger
type IdentityState struct {
	Identities  map[common.Address]*Identity `json:"identities"`
	Verifiers   map[common.Address]bool      `json:"verifiers"`
	NextBadgeID uint64                       `json:"nextBadgeId"`
}

// Clone returns a deep copy of the table.
func (s *IdentityState) Clone() IdentityState {
	c := *s
	c.Identities = make(map[common.Address]*Identity, len(s.Identities))
	for k, v := range s.Identities {
		c.Identities[k] = v.Clone()
	}
	c.Verifiers = make(map[common.Address]bool, len(s.Verifiers))
	for k, v := range s.Verifiers {
		c.Verifiers[k] = v
	}
	return c
}

// State is the complete ledger content. Tables never reference each other by
// pointer; cross-table links are plain ids and addresses.
type State struct {
	Version    uint64          `json:"version"`
	Time       time.Time       `json:"time"`
	Governance GovernanceState `json:"governance"`
	Identity   IdentityState   `json:"identity"`
	Token      TokenState      `json:"token"`
	Treasury   TreasuryState   `json:"treasury"`
}

// Genesis holds the values a fresh ledger starts from
type Genesis struct {
	Governance      GovernanceParams
	WithdrawalDelay time.Duration
	TokenCap        uint256.Int
	MintCooldown    time.Duration
	AutoDelegation  bool
	Verifiers       []common.Address
	Allowlist       []common.Address
}

// NewState builds an empty ledger at version 0.
func NewState(g Genesis) *State {
	s := &State{
		Governance: GovernanceState{
			Params:    g.Governance,
			NextID:    1,
			Proposals: make(map[uint64]*Proposal),
			Votes:     make(map[uint64]map[common.Address]*VoteRecord),
		},
		Identity: IdentityState{
			Identities:  make(map[common.Address]*Identity),
			Verifiers:   make(map[common.Address]bool),
			NextBadgeID: 1,
		},
		Token: TokenState{
			Accounts:       make(map[common.Address]*TokenAccount),
			Cap:            g.TokenCap,
			MintCooldown:   g.MintCooldown,
			AutoDelegation: g.AutoDelegation,
		},
		Treasury: TreasuryState{
			Accounts:        make(map[common.Address]*NativeAccount),
			Allowlist:       make(map[common.Address]bool),
			WithdrawalDelay: g.WithdrawalDelay,
			NextRequestID:   1,
			Withdrawals:     make(map[uint64]*WithdrawalRequest),
		},
	}
	for _, v := range g.Verifiers {
		s.Identity.Verifiers[v] = true
	}
	for _, t := range g.Allowlist {
		s.Treasury.Allowlist[t] = true
	}
	return s
}

// Clone returns a deep copy of the whole ledger.
func (s *State) Clone() *State {
	return &State{
		Version:    s.Version,
		Time:       s.Time,
		Governance: s.Governance.Clone(),
		Identity:   s.Identity.Clone(),
		Token:      s.Token.Clone(),
		Treasury:   s.Treasury.Clone(),
	}
}

// Normalize replaces nil tables left by decoding an older or partial file.
func (s *State) Normalize() {
	if s.Governance.Proposals == nil {
		s.Governance.Proposals = make(map[uint64]*Proposal)
	}
	if s.Governance.Votes == nil {
		s.Governance.Votes = make(map[uint64]map[common.Address]*VoteRecord)
	}
	if s.Governance.NextID == 0 {
		s.Governance.NextID = 1
	}
	if s.Identity.Identities == nil {
		s.Identity.Identities = make(map[common.Address]*Identity)
	}
	if s.Identity.Verifiers == nil {
		s.Identity.Verifiers = make(map[common.Address]bool)
	}
	if s.Identity.NextBadgeID == 0 {
		s.Identity.NextBadgeID = 1
	}
	if s.Token.Accounts == nil {
		s.Token.Accounts = make(map[common.Address]*TokenAccount)
	}
	if s.Treasury.Accounts == nil {
		s.Treasury.Accounts = make(map[common.Address]*NativeAccount)
	}
	if s.Treasury.Allowlist == nil {
		s.Treasury.Allowlist = make(map[common.Address]bool)
	}
	if s.Treasury.Withdrawals == nil {
		s.Treasury.Withdrawals = make(map[uint64]*WithdrawalRequest)
	}
	if s.Treasury.NextRequestID == 0 {
		s.Treasury.NextRequestID = 1
	}
}

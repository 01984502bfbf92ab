package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// VoteChoice is the bucket a vote's weight is added to
type VoteChoice uint8

const (
	VoteAgainst VoteChoice = iota
	VoteFor
	VoteAbstain
)

func (c VoteChoice) String() string {
	switch c {
	case VoteAgainst:
		return "against"
	case VoteFor:
		return "for"
	case VoteAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the three known choices.
func (c VoteChoice) Valid() bool {
	return c <= VoteAbstain
}

// ParseVoteChoice accepts the choice names as well as yes/no shorthands.
func ParseVoteChoice(s string) (VoteChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for", "yes", "y", "1":
		return VoteFor, nil
	case "against", "no", "n", "0":
		return VoteAgainst, nil
	case "abstain", "2":
		return VoteAbstain, nil
	}
	return 0, fmt.Errorf("unknown vote choice %q (want for, against or abstain)", s)
}

func (c VoteChoice) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *VoteChoice) UnmarshalText(b []byte) error {
	v, err := ParseVoteChoice(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// VoteRecord is written once per (proposal, voter) and never overwritten
type VoteRecord struct {
	ProposalID uint64         `json:"proposalId"`
	Voter      common.Address `json:"voter"`
	Choice     VoteChoice     `json:"choice"`
	Weight     uint256.Int    `json:"weight"`
	Timestamp  time.Time      `json:"timestamp"`
}

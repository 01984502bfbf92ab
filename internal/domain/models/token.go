package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenAccount is the per-account row of the voting token
type TokenAccount struct {
	Balance  uint256.Int    `json:"balance"`
	Delegate common.Address `json:"delegate"`
	// Votes is the checkpointed weight delegated to this account.
	Votes CheckpointLog `json:"votes"`
}

// TokenState is the voting token table of the ledger
type TokenState struct {
	Accounts       map[common.Address]*TokenAccount `json:"accounts"`
	TotalSupply    uint256.Int                      `json:"totalSupply"`
	Supply         CheckpointLog                    `json:"supply"`
	Cap            uint256.Int                      `json:"cap"`
	MintCooldown   time.Duration                    `json:"mintCooldown"`
	LastMint       *time.Time                       `json:"lastMint,omitempty"`
	AutoDelegation bool                             `json:"autoDelegation"`
	Paused         bool                             `json:"paused"`
}

// Account returns the row for addr, creating it when absent.
func (t *TokenState) Account(addr common.Address) *TokenAccount {
	if t.Accounts == nil {
		t.Accounts = make(map[common.Address]*TokenAccount)
	}
	a, ok := t.Accounts[addr]
	if !ok {
		a = &TokenAccount{}
		t.Accounts[addr] = a
	}
	return a
}

// Lookup returns the row for addr without creating it.
func (t *TokenState) Lookup(addr common.Address) (*TokenAccount, bool) {
	a, ok := t.Accounts[addr]
	return a, ok
}

// Clone returns a deep copy of the table.
func (t *TokenState) Clone() TokenState {
	c := *t
	c.Accounts = make(map[common.Address]*TokenAccount, len(t.Accounts))
	for k, v := range t.Accounts {
		a := *v
		a.Votes = v.Votes.Clone()
		c.Accounts[k] = &a
	}
	c.Supply = t.Supply.Clone()
	c.LastMint = cloneTime(t.LastMint)
	return c
}

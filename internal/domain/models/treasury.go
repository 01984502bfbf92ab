package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WithdrawalRequest is a timelocked treasury transfer awaiting execution
type WithdrawalRequest struct {
	ID           uint64         `json:"id"`
	ProposalID   uint64         `json:"proposalId,omitempty"`
	Target       common.Address `json:"target"`
	Value        uint256.Int    `json:"value"`
	Payload      []byte         `json:"payload,omitempty"`
	QueuedBy     common.Address `json:"queuedBy"`
	QueuedAt     time.Time      `json:"queuedAt"`
	ExecutableAt time.Time      `json:"executableAt"`
	// ExpiresAt closes the execution window; nil keeps it open.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ExpiredAt reports whether the execution window closed at now.
func (w *WithdrawalRequest) ExpiredAt(now time.Time) bool {
	return w.ExpiresAt != nil && !now.Before(*w.ExpiresAt)
}

// ReadyAt reports whether the request can be executed at now: the timelock
// elapsed and the window is still open.
func (w *WithdrawalRequest) ReadyAt(now time.Time) bool {
	return !now.Before(w.ExecutableAt) && !w.ExpiredAt(now)
}

// Clone returns a deep copy of the request.
func (w *WithdrawalRequest) Clone() *WithdrawalRequest {
	c := *w
	c.Payload = common.CopyBytes(w.Payload)
	c.ExpiresAt = cloneTime(w.ExpiresAt)
	return &c
}

// ExecutionReceipt records an executed withdrawal
type ExecutionReceipt struct {
	WithdrawalID uint64         `json:"withdrawalId"`
	ProposalID   uint64         `json:"proposalId,omitempty"`
	Target       common.Address `json:"target"`
	Value        uint256.Int    `json:"value"`
	PayloadHash  common.Hash    `json:"payloadHash"`
	Result       []byte         `json:"result,omitempty"`
	ExecutedBy   common.Address `json:"executedBy"`
	ExecutedAt   time.Time      `json:"executedAt"`
}

// NativeAccount is a balance held outside the treasury
type NativeAccount struct {
	Balance uint256.Int `json:"balance"`
}

// TreasuryState is the treasury table of the ledger
type TreasuryState struct {
	Balance         uint256.Int                       `json:"balance"`
	Accounts        map[common.Address]*NativeAccount `json:"accounts"`
	Allowlist       map[common.Address]bool           `json:"allowlist"`
	WithdrawalDelay time.Duration                     `json:"withdrawalDelay"`
	Paused          bool                              `json:"paused"`
	NextRequestID   uint64                            `json:"nextRequestId"`
	Withdrawals     map[uint64]*WithdrawalRequest     `json:"withdrawals"`
	Receipts        []ExecutionReceipt                `json:"receipts"`
}

// Clone returns a deep copy of the table.
func (t *TreasuryState) Clone() TreasuryState {
	c := *t
	c.Accounts = make(map[common.Address]*NativeAccount, len(t.Accounts))
	for k, v := range t.Accounts {
		a := *v
		c.Accounts[k] = &a
	}
	c.Allowlist = make(map[common.Address]bool, len(t.Allowlist))
	for k, v := range t.Allowlist {
		c.Allowlist[k] = v
	}
	c.Withdrawals = make(map[uint64]*WithdrawalRequest, len(t.Withdrawals))
	for k, v := range t.Withdrawals {
		c.Withdrawals[k] = v.Clone()
	}
	c.Receipts = make([]ExecutionReceipt, len(t.Receipts))
	for i, r := range t.Receipts {
		r.Result = common.CopyBytes(r.Result)
		c.Receipts[i] = r
	}
	return c
}

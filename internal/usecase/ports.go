package usecase

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// Ledger ports

// View is a read handle on the ledger state
type View interface {
	// State returns the tables. Callers of View must not modify them.
	State() *models.State
	// Now is the ledger time; it never moves backwards.
	Now() time.Time
	// Version is the last committed version.
	Version() uint64
}

// Tx is a write handle on a working copy of the ledger state
type Tx interface {
	View
	// WriteVersion is the version this transaction commits as.
	WriteVersion() uint64
	// Emit buffers events that are published only if the transaction commits.
	Emit(events ...domain.Event)
}

// Ledger serializes atomic state transitions over the shared state
type Ledger interface {
	// RunInTx applies fn to a working copy and commits it if fn returns nil.
	// A call made with a context that already carries a transaction joins it.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against the committed state, or against the open
	// transaction carried by ctx.
	View(ctx context.Context, fn func(v View) error) error
}

// TxObserver is notified about ledger transaction outcomes
type TxObserver interface {
	TxCommitted(version uint64, events int, elapsed time.Duration)
	TxReverted(err error, elapsed time.Duration)
}

// EventSink receives committed events
type EventSink interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// Clock is the wall-clock source of the ledger
type Clock interface {
	Now() time.Time
}

// Component ports consumed by the Governor

// IdentityGate answers whether an account may take part in governance
type IdentityGate interface {
	IsVerified(ctx context.Context, account common.Address) (bool, error)
}

// VotingPowerSource is the read-only snapshot contract of the voting token
type VotingPowerSource interface {
	CurrentWeight(ctx context.Context, account common.Address) (*uint256.Int, error)
	WeightAt(ctx context.Context, account common.Address, version uint64) (*uint256.Int, error)
	TotalWeightAt(ctx context.Context, version uint64) (*uint256.Int, error)
}

// ExecutionTarget performs approved actions after a timelock
type ExecutionTarget interface {
	Queue(ctx context.Context, caller common.Address, req WithdrawalParams) (*models.WithdrawalRequest, error)
	Execute(ctx context.Context, caller common.Address, requestID uint64) (*models.ExecutionReceipt, error)
}

// External collaborators

// ContentStore keeps proposal bodies addressed by their keccak256 hash
type ContentStore interface {
	Put(ctx context.Context, content []byte) (common.Hash, error)
	Get(ctx context.Context, hash common.Hash) ([]byte, error)
}

// CallRequest is handed to the CallHandler when a withdrawal executes
type CallRequest struct {
	WithdrawalID uint64
	ProposalID   uint64
	Target       common.Address
	Value        *uint256.Int
	Payload      []byte
}

// CallHandler dispatches a withdrawal payload to its target. An error reverts
// the whole execution.
type CallHandler interface {
	Call(ctx context.Context, req CallRequest) ([]byte, error)
}

// ProposalSelector handles interactive selection of proposals
type ProposalSelector interface {
	SelectProposal(ctx context.Context, proposals []*ProposalView, prompt string) (*ProposalView, error)
}

// IdentitySelector handles interactive selection of several registry records
type IdentitySelector interface {
	SelectIdentities(ctx context.Context, identities []*models.Identity, prompt string) ([]*models.Identity, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// NopTxObserver ignores transaction outcomes
type NopTxObserver struct{}

func (NopTxObserver) TxCommitted(uint64, int, time.Duration) {}
func (NopTxObserver) TxReverted(error, time.Duration)        {}

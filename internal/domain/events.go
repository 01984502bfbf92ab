package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type EventType string

const (
	// Governance
	EventTypeProposalCreated   EventType = "ProposalCreated"
	EventTypeVoteCast          EventType = "VoteCast"
	EventTypeProposalQueued    EventType = "ProposalQueued"
	EventTypeProposalExecuted  EventType = "ProposalExecuted"
	EventTypeProposalCanceled  EventType = "ProposalCanceled"
	EventTypeParametersUpdated EventType = "ParametersUpdated"

	// Identity registry
	EventTypeCommitmentSubmitted  EventType = "CommitmentSubmitted"
	EventTypeProofSubmitted       EventType = "ProofSubmitted"
	EventTypeAccountVerified      EventType = "AccountVerified"
	EventTypeBadgeIssued          EventType = "BadgeIssued"
	EventTypeVerificationRevoked  EventType = "VerificationRevoked"
	EventTypeVerificationRequired EventType = "VerificationRequired"
	EventTypeVerifierUpdated      EventType = "VerifierUpdated"

	// Voting token
	EventTypeTokensMinted         EventType = "TokensMinted"
	EventTypeTokensBurned         EventType = "TokensBurned"
	EventTypeTransfer             EventType = "Transfer"
	EventTypeDelegateChanged      EventType = "DelegateChanged"
	EventTypeDelegateVotesChanged EventType = "DelegateVotesChanged"
	EventTypeTokenPaused          EventType = "TokenPaused"
	EventTypeAutoDelegation       EventType = "AutoDelegationToggled"

	// Treasury
	EventTypeDeposited              EventType = "Deposited"
	EventTypeWithdrawalQueued       EventType = "WithdrawalQueued"
	EventTypeWithdrawalExecuted     EventType = "WithdrawalExecuted"
	EventTypeWithdrawalCanceled     EventType = "WithdrawalCanceled"
	EventTypeEmergencyWithdrawn     EventType = "EmergencyWithdrawn"
	EventTypeAllowedTargetUpdated   EventType = "AllowedTargetUpdated"
	EventTypeWithdrawalDelayUpdated EventType = "WithdrawalDelayUpdated"
	EventTypePaused                 EventType = "Paused"
	EventTypeUnpaused               EventType = "Unpaused"
)

// Event is implemented by every notification the engine emits
type Event interface {
	EventName() string
	String() string
}

func short(a common.Address) string {
	return a.Hex()[:10] + "..."
}

// ProposalCreated is emitted when a proposal is recorded
type ProposalCreated struct {
	ProposalID  uint64
	Proposer    common.Address
	Title       string
	ContentHash common.Hash
	Target      common.Address
	Value       uint256.Int
	StartTime   time.Time
	EndTime     time.Time
	Snapshot    uint64
}

func (ProposalCreated) EventName() string { return string(EventTypeProposalCreated) }

func (e ProposalCreated) String() string {
	return fmt.Sprintf("%s: id=%d, proposer=%s, title=%q, ends=%s",
		e.EventName(), e.ProposalID, short(e.Proposer), e.Title, e.EndTime.UTC().Format(time.RFC3339))
}

// VoteCast is emitted for every accepted vote
type VoteCast struct {
	ProposalID uint64
	Voter      common.Address
	Choice     string
	Weight     uint256.Int
}

func (VoteCast) EventName() string { return string(EventTypeVoteCast) }

func (e VoteCast) String() string {
	return fmt.Sprintf("%s: id=%d, voter=%s, choice=%s, weight=%s",
		e.EventName(), e.ProposalID, short(e.Voter), e.Choice, e.Weight.Dec())
}

// ProposalQueued is emitted when a succeeded proposal enters the timelock
type ProposalQueued struct {
	ProposalID   uint64
	WithdrawalID uint64
	ExecutableAt time.Time
	ExpiresAt    time.Time
}

func (ProposalQueued) EventName() string { return string(EventTypeProposalQueued) }

func (e ProposalQueued) String() string {
	return fmt.Sprintf("%s: id=%d, withdrawal=%d, eta=%s",
		e.EventName(), e.ProposalID, e.WithdrawalID, e.ExecutableAt.UTC().Format(time.RFC3339))
}

// ProposalExecuted is emitted after the treasury performed the action
type ProposalExecuted struct {
	ProposalID uint64
	Executor   common.Address
}

func (ProposalExecuted) EventName() string { return string(EventTypeProposalExecuted) }

func (e ProposalExecuted) String() string {
	return fmt.Sprintf("%s: id=%d, executor=%s", e.EventName(), e.ProposalID, short(e.Executor))
}

// ProposalCanceled is emitted when an admin cancels a proposal
type ProposalCanceled struct {
	ProposalID uint64
	CanceledBy common.Address
}

func (ProposalCanceled) EventName() string { return string(EventTypeProposalCanceled) }

func (e ProposalCanceled) String() string {
	return fmt.Sprintf("%s: id=%d, by=%s", e.EventName(), e.ProposalID, short(e.CanceledBy))
}

// ParametersUpdated is emitted when governance parameters change
type ParametersUpdated struct {
	VotingDelay       time.Duration
	VotingPeriod      time.Duration
	QuorumPercent     uint64
	ProposalThreshold uint256.Int
	GracePeriod       time.Duration
}

func (ParametersUpdated) EventName() string { return string(EventTypeParametersUpdated) }

func (e ParametersUpdated) String() string {
	return fmt.Sprintf("%s: period=%s, quorum=%d%%, threshold=%s",
		e.EventName(), e.VotingPeriod, e.QuorumPercent, e.ProposalThreshold.Dec())
}

// CommitmentSubmitted is emitted when an account stores its identity commitment
type CommitmentSubmitted struct {
	Account    common.Address
	Commitment common.Hash
}

func (CommitmentSubmitted) EventName() string { return string(EventTypeCommitmentSubmitted) }

func (e CommitmentSubmitted) String() string {
	return fmt.Sprintf("%s: account=%s, commitment=%s", e.EventName(), short(e.Account), e.Commitment.TerminalString())
}

// ProofSubmitted is emitted when an account stores its proof hash
type ProofSubmitted struct {
	Account   common.Address
	ProofHash common.Hash
}

func (ProofSubmitted) EventName() string { return string(EventTypeProofSubmitted) }

func (e ProofSubmitted) String() string {
	return fmt.Sprintf("%s: account=%s, proof=%s", e.EventName(), short(e.Account), e.ProofHash.TerminalString())
}

// AccountVerified is emitted when a verifier attests an account
type AccountVerified struct {
	Account  common.Address
	Verifier common.Address
}

func (AccountVerified) EventName() string { return string(EventTypeAccountVerified) }

func (e AccountVerified) String() string {
	return fmt.Sprintf("%s: account=%s, verifier=%s", e.EventName(), short(e.Account), short(e.Verifier))
}

// BadgeIssued is emitted together with AccountVerified
type BadgeIssued struct {
	Account   common.Address
	BadgeID   uint64
	BadgeType string
}

func (BadgeIssued) EventName() string { return string(EventTypeBadgeIssued) }

func (e BadgeIssued) String() string {
	return fmt.Sprintf("%s: account=%s, badge=%d (%s)", e.EventName(), short(e.Account), e.BadgeID, e.BadgeType)
}

// VerificationRevoked is emitted when an admin downgrades a verified account
type VerificationRevoked struct {
	Account   common.Address
	RevokedBy common.Address
}

func (VerificationRevoked) EventName() string { return string(EventTypeVerificationRevoked) }

func (e VerificationRevoked) String() string {
	return fmt.Sprintf("%s: account=%s, by=%s", e.EventName(), short(e.Account), short(e.RevokedBy))
}

// VerificationRequired is a hint for an unverified account that attempted a
// gated operation. It is published even though the operation reverted.
type VerificationRequired struct {
	Account   common.Address
	Operation string
}

func (VerificationRequired) EventName() string { return string(EventTypeVerificationRequired) }

func (e VerificationRequired) String() string {
	return fmt.Sprintf("%s: account=%s, operation=%s", e.EventName(), short(e.Account), e.Operation)
}

// VerifierUpdated is emitted when the verifier set changes
type VerifierUpdated struct {
	Verifier common.Address
	Enabled  bool
}

func (VerifierUpdated) EventName() string { return string(EventTypeVerifierUpdated) }

func (e VerifierUpdated) String() string {
	return fmt.Sprintf("%s: verifier=%s, enabled=%t", e.EventName(), short(e.Verifier), e.Enabled)
}

// TokensMinted is emitted on mint
type TokensMinted struct {
	To     common.Address
	Amount uint256.Int
}

func (TokensMinted) EventName() string { return string(EventTypeTokensMinted) }

func (e TokensMinted) String() string {
	return fmt.Sprintf("%s: to=%s, amount=%s", e.EventName(), short(e.To), e.Amount.Dec())
}

// TokensBurned is emitted on burn
type TokensBurned struct {
	From   common.Address
	Amount uint256.Int
}

func (TokensBurned) EventName() string { return string(EventTypeTokensBurned) }

func (e TokensBurned) String() string {
	return fmt.Sprintf("%s: from=%s, amount=%s", e.EventName(), short(e.From), e.Amount.Dec())
}

// Transfer is emitted on every balance move; mints come from and burns go to
// the zero address.
type Transfer struct {
	From   common.Address
	To     common.Address
	Amount uint256.Int
}

func (Transfer) EventName() string { return string(EventTypeTransfer) }

func (e Transfer) String() string {
	return fmt.Sprintf("%s: from=%s, to=%s, amount=%s", e.EventName(), short(e.From), short(e.To), e.Amount.Dec())
}

// DelegateChanged is emitted when a holder changes delegate
type DelegateChanged struct {
	Delegator    common.Address
	FromDelegate common.Address
	ToDelegate   common.Address
}

func (DelegateChanged) EventName() string { return string(EventTypeDelegateChanged) }

func (e DelegateChanged) String() string {
	return fmt.Sprintf("%s: delegator=%s, from=%s, to=%s",
		e.EventName(), short(e.Delegator), short(e.FromDelegate), short(e.ToDelegate))
}

// DelegateVotesChanged is emitted when a delegate's weight changes
type DelegateVotesChanged struct {
	Delegate        common.Address
	PreviousBalance uint256.Int
	NewBalance      uint256.Int
}

func (DelegateVotesChanged) EventName() string { return string(EventTypeDelegateVotesChanged) }

func (e DelegateVotesChanged) String() string {
	return fmt.Sprintf("%s: delegate=%s, %s -> %s",
		e.EventName(), short(e.Delegate), e.PreviousBalance.Dec(), e.NewBalance.Dec())
}

// TokenPaused is emitted when token transfers are paused or resumed
type TokenPaused struct {
	Paused bool
	By     common.Address
}

func (TokenPaused) EventName() string { return string(EventTypeTokenPaused) }

func (e TokenPaused) String() string {
	return fmt.Sprintf("%s: paused=%t, by=%s", e.EventName(), e.Paused, short(e.By))
}

// AutoDelegationToggled is emitted when automatic self-delegation changes
type AutoDelegationToggled struct {
	Enabled bool
}

func (AutoDelegationToggled) EventName() string { return string(EventTypeAutoDelegation) }

func (e AutoDelegationToggled) String() string {
	return fmt.Sprintf("%s: enabled=%t", e.EventName(), e.Enabled)
}

// Deposited is emitted when value is added to the treasury
type Deposited struct {
	From   common.Address
	Amount uint256.Int
}

func (Deposited) EventName() string { return string(EventTypeDeposited) }

func (e Deposited) String() string {
	return fmt.Sprintf("%s: from=%s, amount=%s", e.EventName(), short(e.From), e.Amount.Dec())
}

// WithdrawalQueued is emitted when a withdrawal enters the timelock
type WithdrawalQueued struct {
	RequestID    uint64
	ProposalID   uint64
	Target       common.Address
	Value        uint256.Int
	ExecutableAt time.Time
}

func (WithdrawalQueued) EventName() string { return string(EventTypeWithdrawalQueued) }

func (e WithdrawalQueued) String() string {
	return fmt.Sprintf("%s: id=%d, target=%s, value=%s, eta=%s",
		e.EventName(), e.RequestID, short(e.Target), e.Value.Dec(), e.ExecutableAt.UTC().Format(time.RFC3339))
}

// WithdrawalExecuted is emitted after value left the treasury
type WithdrawalExecuted struct {
	RequestID   uint64
	Target      common.Address
	Value       uint256.Int
	PayloadHash common.Hash
}

func (WithdrawalExecuted) EventName() string { return string(EventTypeWithdrawalExecuted) }

func (e WithdrawalExecuted) String() string {
	return fmt.Sprintf("%s: id=%d, target=%s, value=%s", e.EventName(), e.RequestID, short(e.Target), e.Value.Dec())
}

// WithdrawalCanceled is emitted when an admin drops a queued withdrawal
type WithdrawalCanceled struct {
	RequestID uint64
}

func (WithdrawalCanceled) EventName() string { return string(EventTypeWithdrawalCanceled) }

func (e WithdrawalCanceled) String() string {
	return fmt.Sprintf("%s: id=%d", e.EventName(), e.RequestID)
}

// EmergencyWithdrawn is emitted when an admin moves value out around the timelock
type EmergencyWithdrawn struct {
	By     common.Address
	To     common.Address
	Amount uint256.Int
}

func (EmergencyWithdrawn) EventName() string { return string(EventTypeEmergencyWithdrawn) }

func (e EmergencyWithdrawn) String() string {
	return fmt.Sprintf("%s: to=%s, amount=%s", e.EventName(), short(e.To), e.Amount.Dec())
}

// AllowedTargetUpdated is emitted on allow-list changes
type AllowedTargetUpdated struct {
	Target  common.Address
	Allowed bool
}

func (AllowedTargetUpdated) EventName() string { return string(EventTypeAllowedTargetUpdated) }

func (e AllowedTargetUpdated) String() string {
	return fmt.Sprintf("%s: target=%s, allowed=%t", e.EventName(), short(e.Target), e.Allowed)
}

// WithdrawalDelayUpdated is emitted when the treasury delay changes
type WithdrawalDelayUpdated struct {
	OldDelay time.Duration
	NewDelay time.Duration
}

func (WithdrawalDelayUpdated) EventName() string { return string(EventTypeWithdrawalDelayUpdated) }

func (e WithdrawalDelayUpdated) String() string {
	return fmt.Sprintf("%s: %s -> %s", e.EventName(), e.OldDelay, e.NewDelay)
}

// Paused is emitted when the treasury is paused
type Paused struct {
	By common.Address
}

func (Paused) EventName() string { return string(EventTypePaused) }

func (e Paused) String() string {
	return fmt.Sprintf("%s: by=%s", e.EventName(), short(e.By))
}

// Unpaused is emitted when the treasury resumes
type Unpaused struct {
	By common.Address
}

func (Unpaused) EventName() string { return string(EventTypeUnpaused) }

func (e Unpaused) String() string {
	return fmt.Sprintf("%s: by=%s", e.EventName(), short(e.By))
}

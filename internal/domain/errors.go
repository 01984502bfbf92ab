package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for governance operations. Every rejection returned by the
// engine wraps exactly one of these so callers can match with errors.Is.
var (
	// ErrUnauthorized is returned when the caller lacks the required role
	ErrUnauthorized = errors.New("unauthorized")

	// ErrVerificationRequired is returned when an unverified account tries to participate
	ErrVerificationRequired = errors.New("verification required")

	// ErrInvalidCommitment is returned for an empty identity commitment
	ErrInvalidCommitment = errors.New("invalid commitment")

	// ErrInvalidProof is returned for an empty proof hash
	ErrInvalidProof = errors.New("invalid proof")

	// ErrAlreadyVerified is returned when a verified account re-enters the flow
	ErrAlreadyVerified = errors.New("already verified")

	// ErrInvalidState is returned when an operation is not allowed in the current lifecycle state
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyVoted is returned on a second vote for the same proposal
	ErrAlreadyVoted = errors.New("already voted")

	// ErrInsufficientVotingPower is returned when the voter had no weight at the snapshot
	ErrInsufficientVotingPower = errors.New("insufficient voting power")

	// ErrBelowProposalThreshold is returned when the proposer is under the proposal threshold
	ErrBelowProposalThreshold = errors.New("below proposal threshold")

	// ErrTimelockNotElapsed is returned when a withdrawal is executed before its delay
	ErrTimelockNotElapsed = errors.New("timelock not elapsed")

	// ErrTargetNotAllowed is returned when the target is missing from the treasury allow-list
	ErrTargetNotAllowed = errors.New("target not allowed")

	// ErrZeroAddress is returned when a required account is the zero address
	ErrZeroAddress = errors.New("zero address")

	// ErrZeroValue is returned when a required amount is zero
	ErrZeroValue = errors.New("zero value")

	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrPaused is returned for mutations against a paused component
	ErrPaused = errors.New("paused")

	// ErrInsufficientBalance is returned when a transfer exceeds the available balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidParameter is returned when a parameter is outside its allowed range
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrFutureLookup is returned for snapshot reads past the last committed version
	ErrFutureLookup = errors.New("future lookup")

	// ErrCapExceeded is returned when minting would exceed the supply cap
	ErrCapExceeded = errors.New("supply cap exceeded")

	// ErrMintCooldown is returned when minting again before the cooldown elapsed
	ErrMintCooldown = errors.New("mint cooldown active")
)

// ErrMissingCommitment is returned when a proof hash arrives before a commitment.
var ErrMissingCommitment = fmt.Errorf("%w: commitment not submitted", ErrInvalidState)

// ProposalStateErr reports a proposal that is not in one of the states an
// operation accepts.
type ProposalStateErr struct {
	ProposalID uint64
	Operation  string
	State      string
	Want       []string
}

func (e ProposalStateErr) Error() string {
	return fmt.Sprintf("cannot %s proposal %d: state is %s, want %v", e.Operation, e.ProposalID, e.State, e.Want)
}

func (e ProposalStateErr) Unwrap() error {
	return ErrInvalidState
}

// RoleErr reports a caller without the role an operation requires.
type RoleErr struct {
	Caller string
	Role   string
}

func (e RoleErr) Error() string {
	return fmt.Sprintf("%s does not hold the %s role", e.Caller, e.Role)
}

func (e RoleErr) Unwrap() error {
	return ErrUnauthorized
}

// Hint returns a one-line remedy for well-known rejection kinds, or an empty
// string when none applies.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrVerificationRequired):
		return "submit a commitment (dvote identity commit), then a proof hash (dvote identity prove), and ask a verifier to attest"
	case errors.Is(err, ErrMissingCommitment):
		return "submit a commitment first with dvote identity commit"
	case errors.Is(err, ErrTimelockNotElapsed):
		return "wait until the withdrawal's executable time and retry"
	case errors.Is(err, ErrTargetNotAllowed):
		return "an admin must allow the target with dvote treasury allow"
	case errors.Is(err, ErrInsufficientVotingPower), errors.Is(err, ErrBelowProposalThreshold):
		return "voting power is measured at the proposal snapshot; delegate or acquire tokens before the next proposal"
	case errors.Is(err, ErrUnauthorized):
		return "pass the address holding the required role with --from"
	}
	return ""
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrVerificationRequired, "verification_required"},
	{ErrInvalidCommitment, "invalid_commitment"},
	{ErrInvalidProof, "invalid_proof"},
	{ErrAlreadyVerified, "already_verified"},
	{ErrInvalidState, "invalid_state"},
	{ErrAlreadyVoted, "already_voted"},
	{ErrInsufficientVotingPower, "insufficient_voting_power"},
	{ErrBelowProposalThreshold, "below_proposal_threshold"},
	{ErrTimelockNotElapsed, "timelock_not_elapsed"},
	{ErrTargetNotAllowed, "target_not_allowed"},
	{ErrZeroAddress, "zero_address"},
	{ErrZeroValue, "zero_value"},
	{ErrNotFound, "not_found"},
	{ErrPaused, "paused"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInvalidParameter, "invalid_parameter"},
	{ErrFutureLookup, "future_lookup"},
	{ErrCapExceeded, "cap_exceeded"},
	{ErrMintCooldown, "mint_cooldown"},
}

// ErrorKind returns a stable label for the sentinel err wraps, or "internal".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

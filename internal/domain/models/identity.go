package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// IdentityStage is the position of an account in the verification flow
type IdentityStage string

const (
	IdentityStageUnregistered        IdentityStage = "unregistered"
	IdentityStageCommitmentSubmitted IdentityStage = "commitment-submitted"
	IdentityStageProofSubmitted      IdentityStage = "proof-submitted"
	IdentityStageVerified            IdentityStage = "verified"
	IdentityStageRevoked             IdentityStage = "revoked"
)

// DefaultBadgeType is issued when the verifier does not name one.
const DefaultBadgeType = "member"

// Badge is the membership credential issued on verification
type Badge struct {
	ID       uint64    `json:"id"`
	Type     string    `json:"type"`
	IssuedAt time.Time `json:"issuedAt"`
	Active   bool      `json:"active"`
}

// Identity is the registry record of one account
type Identity struct {
	Account    common.Address  `json:"account"`
	Commitment common.Hash     `json:"commitment"`
	ProofHash  common.Hash     `json:"proofHash"`
	Verified   bool            `json:"verified"`
	VerifiedAt *time.Time      `json:"verifiedAt,omitempty"`
	VerifiedBy *common.Address `json:"verifiedBy,omitempty"`
	Revoked    bool            `json:"revoked,omitempty"`
	Badge      *Badge          `json:"badge,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Stage derives the verification stage from the stored values.
func (i *Identity) Stage() IdentityStage {
	switch {
	case i == nil:
		return IdentityStageUnregistered
	case i.Verified:
		return IdentityStageVerified
	case i.ProofHash != (common.Hash{}):
		return IdentityStageProofSubmitted
	case i.Commitment != (common.Hash{}):
		return IdentityStageCommitmentSubmitted
	case i.Revoked:
		return IdentityStageRevoked
	default:
		return IdentityStageUnregistered
	}
}

// AwaitingAttestation reports whether both values are present and the
// account is not verified yet.
func (i *Identity) AwaitingAttestation() bool {
	return i != nil && !i.Verified && i.Commitment != (common.Hash{}) && i.ProofHash != (common.Hash{})
}

// Clone returns a deep copy of the identity.
func (i *Identity) Clone() *Identity {
	c := *i
	c.VerifiedAt = cloneTime(i.VerifiedAt)
	if i.VerifiedBy != nil {
		by := *i.VerifiedBy
		c.VerifiedBy = &by
	}
	if i.Badge != nil {
		b := *i.Badge
		c.Badge = &b
	}
	return &c
}

// VerificationStatus is the summary view of an account's progress
type VerificationStatus struct {
	Account          common.Address `json:"account"`
	Stage            IdentityStage  `json:"stage"`
	NeedsCommitment  bool           `json:"needsCommitment"`
	NeedsProof       bool           `json:"needsProof"`
	ProofSubmitted   bool           `json:"proofSubmitted"`
	Verified         bool           `json:"verified"`
	BadgeID          uint64         `json:"badgeId,omitempty"`
	BadgeType        string         `json:"badgeType,omitempty"`
	BadgeActive      bool           `json:"badgeActive"`
	AwaitingVerifier bool           `json:"awaitingVerifier"`
}

// StatusOf builds the status view for an account, nil identity included.
func StatusOf(account common.Address, i *Identity) VerificationStatus {
	st := VerificationStatus{
		Account:         account,
		Stage:           i.Stage(),
		NeedsCommitment: true,
		NeedsProof:      true,
	}
	if i == nil {
		return st
	}
	st.NeedsCommitment = !i.Verified && i.Commitment == (common.Hash{})
	st.NeedsProof = !i.Verified && i.ProofHash == (common.Hash{})
	st.ProofSubmitted = i.ProofHash != (common.Hash{})
	st.Verified = i.Verified
	st.AwaitingVerifier = i.AwaitingAttestation()
	if i.Badge != nil {
		st.BadgeID = i.Badge.ID
		st.BadgeType = i.Badge.Type
		st.BadgeActive = i.Badge.Active
	}
	return st
}

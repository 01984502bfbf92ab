package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// IdentityRegistry tracks per-account verification. The proof hash is an
// opaque value; the registry trusts the verifier's attestation and performs
// no cryptographic check of its own.
type IdentityRegistry struct {
	ledger Ledger
	roles  config.Roles
	log    *slog.Logger
}

// NewIdentityRegistry creates a new IdentityRegistry
func NewIdentityRegistry(cfg *config.RuntimeConfig, ledger Ledger, log *slog.Logger) *IdentityRegistry {
	return &IdentityRegistry{
		ledger: ledger,
		roles:  cfg.Roles,
		log:    log.With("component", "identity"),
	}
}

// SubmitCommitment stores the account's identity commitment. A new commitment
// replaces an earlier one and clears a proof hash derived from it.
func (r *IdentityRegistry) SubmitCommitment(ctx context.Context, account common.Address, commitment common.Hash) error {
	return r.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if account == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if commitment == (common.Hash{}) {
			return domain.ErrInvalidCommitment
		}
		ids := &tx.State().Identity
		id := ids.Identities[account]
		if id != nil && id.Verified {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyVerified, account.Hex())
		}
		if id == nil {
			id = &models.Identity{Account: account}
			ids.Identities[account] = id
		}
		if id.Commitment != commitment {
			id.ProofHash = common.Hash{}
		}
		id.Commitment = commitment
		id.UpdatedAt = tx.Now()

		tx.Emit(domain.CommitmentSubmitted{Account: account, Commitment: commitment})
		return nil
	})
}

// SubmitProofHash stores the hash of the off-chain proof for a committed account.
func (r *IdentityRegistry) SubmitProofHash(ctx context.Context, account common.Address, proofHash common.Hash) error {
	return r.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if account == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if proofHash == (common.Hash{}) {
			return domain.ErrInvalidProof
		}
		id := tx.State().Identity.Identities[account]
		if id != nil && id.Verified {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyVerified, account.Hex())
		}
		if id == nil || id.Commitment == (common.Hash{}) {
			return domain.ErrMissingCommitment
		}
		id.ProofHash = proofHash
		id.UpdatedAt = tx.Now()

		tx.Emit(domain.ProofSubmitted{Account: account, ProofHash: proofHash})
		return nil
	})
}

// VerifyAccount attests an account that submitted both values and issues its
// membership badge.
func (r *IdentityRegistry) VerifyAccount(ctx context.Context, verifier, account common.Address, badgeType string) (*models.Badge, error) {
	var badge *models.Badge
	err := r.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		ids := &tx.State().Identity
		if !r.canVerify(ids, verifier) {
			return domain.RoleErr{Caller: verifier.Hex(), Role: "verifier"}
		}
		if account == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		id := ids.Identities[account]
		if id != nil && id.Verified {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyVerified, account.Hex())
		}
		if id == nil || id.Commitment == (common.Hash{}) {
			return domain.ErrMissingCommitment
		}
		if id.ProofHash == (common.Hash{}) {
			return fmt.Errorf("%w: proof hash not submitted", domain.ErrInvalidState)
		}
		if badgeType == "" {
			badgeType = models.DefaultBadgeType
		}

		now := tx.Now()
		by := verifier
		id.Verified = true
		id.Revoked = false
		id.VerifiedAt = &now
		id.VerifiedBy = &by
		id.Badge = &models.Badge{
			ID:       ids.NextBadgeID,
			Type:     badgeType,
			IssuedAt: now,
			Active:   true,
		}
		id.UpdatedAt = now
		ids.NextBadgeID++

		b := *id.Badge
		badge = &b
		tx.Emit(
			domain.AccountVerified{Account: account, Verifier: verifier},
			domain.BadgeIssued{Account: account, BadgeID: b.ID, BadgeType: b.Type},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug("account verified", "account", account.Hex(), "badge", badge.ID)
	return badge, nil
}

// VerifyResult is the per-account outcome of a batch verification
type VerifyResult struct {
	Account common.Address
	Badge   *models.Badge
	Err     error
}

// VerifyAccounts verifies several accounts. Each account is its own atomic
// unit, so one rejection does not undo the others.
func (r *IdentityRegistry) VerifyAccounts(ctx context.Context, verifier common.Address, accounts []common.Address, badgeType string, sink ProgressSink) []VerifyResult {
	if sink == nil {
		sink = NopProgress{}
	}
	accounts = lo.Uniq(accounts)
	results := make([]VerifyResult, 0, len(accounts))
	for i, account := range accounts {
		sink.OnProgress(ctx, ProgressEvent{
			Stage:   "verifying",
			Current: i + 1,
			Total:   len(accounts),
			Message: fmt.Sprintf("Verifying %s", account.Hex()),
			Spinner: true,
		})
		badge, err := r.VerifyAccount(ctx, verifier, account, badgeType)
		results = append(results, VerifyResult{Account: account, Badge: badge, Err: err})
	}
	sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(results),
		Total:   len(results),
		Message: "Verification complete",
	})
	return results
}

// RevokeVerification downgrades a verified account. Its commitment and proof
// hash are cleared so the flow starts over; the badge stays on record as
// inactive.
func (r *IdentityRegistry) RevokeVerification(ctx context.Context, admin, account common.Address) error {
	return r.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !r.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		id := tx.State().Identity.Identities[account]
		if id == nil || !id.Verified {
			return fmt.Errorf("%w: %s is not verified", domain.ErrInvalidState, account.Hex())
		}
		id.Verified = false
		id.Revoked = true
		id.Commitment = common.Hash{}
		id.ProofHash = common.Hash{}
		id.UpdatedAt = tx.Now()
		if id.Badge != nil {
			id.Badge.Active = false
		}
		tx.Emit(domain.VerificationRevoked{Account: account, RevokedBy: admin})
		return nil
	})
}

// SetVerifier adds or removes an account from the verifier set.
func (r *IdentityRegistry) SetVerifier(ctx context.Context, admin, verifier common.Address, enabled bool) error {
	return r.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !r.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		if verifier == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		verifiers := tx.State().Identity.Verifiers
		if verifiers[verifier] == enabled {
			return nil
		}
		if enabled {
			verifiers[verifier] = true
		} else {
			delete(verifiers, verifier)
		}
		tx.Emit(domain.VerifierUpdated{Verifier: verifier, Enabled: enabled})
		return nil
	})
}

// IsVerified reports whether account may take part in governance.
func (r *IdentityRegistry) IsVerified(ctx context.Context, account common.Address) (bool, error) {
	var verified bool
	err := r.ledger.View(ctx, func(v View) error {
		id := v.State().Identity.Identities[account]
		verified = id != nil && id.Verified
		return nil
	})
	return verified, err
}

// Identity returns the registry record of account.
func (r *IdentityRegistry) Identity(ctx context.Context, account common.Address) (*models.Identity, error) {
	var out *models.Identity
	err := r.ledger.View(ctx, func(v View) error {
		id := v.State().Identity.Identities[account]
		if id == nil {
			return fmt.Errorf("identity %s: %w", account.Hex(), domain.ErrNotFound)
		}
		out = id.Clone()
		return nil
	})
	return out, err
}

// Status returns the verification progress of account, unregistered included.
func (r *IdentityRegistry) Status(ctx context.Context, account common.Address) (models.VerificationStatus, error) {
	var st models.VerificationStatus
	err := r.ledger.View(ctx, func(v View) error {
		st = models.StatusOf(account, v.State().Identity.Identities[account])
		return nil
	})
	return st, err
}

// List returns registry records matching filter, ordered by account.
func (r *IdentityRegistry) List(ctx context.Context, filter domain.IdentityFilter) ([]*models.Identity, error) {
	var out []*models.Identity
	err := r.ledger.View(ctx, func(v View) error {
		for _, id := range v.State().Identity.Identities {
			if len(filter.Stages) > 0 && !lo.Contains(filter.Stages, id.Stage()) {
				continue
			}
			out = append(out, id.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.Cmp(out[j].Account) < 0
	})
	return out, err
}

// Pending returns accounts that submitted both values and await attestation.
func (r *IdentityRegistry) Pending(ctx context.Context) ([]*models.Identity, error) {
	return r.List(ctx, domain.IdentityFilter{Stages: []models.IdentityStage{models.IdentityStageProofSubmitted}})
}

// Verifiers returns the current verifier set, ordered by address.
func (r *IdentityRegistry) Verifiers(ctx context.Context) ([]common.Address, error) {
	var out []common.Address
	err := r.ledger.View(ctx, func(v View) error {
		out = lo.Keys(lo.PickBy(v.State().Identity.Verifiers, func(_ common.Address, on bool) bool { return on }))
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out, err
}

func (r *IdentityRegistry) canVerify(ids *models.IdentityState, caller common.Address) bool {
	return r.roles.IsAdmin(caller) || (caller != (common.Address{}) && ids.Verifiers[caller])
}

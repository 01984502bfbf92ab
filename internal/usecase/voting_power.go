package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// VotingPower is the checkpointed voting token. Weight follows delegation:
// an account's voting weight is the balance of everyone delegating to it.
type VotingPower struct {
	ledger Ledger
	roles  config.Roles
	log    *slog.Logger
}

// NewVotingPower creates a new VotingPower
func NewVotingPower(cfg *config.RuntimeConfig, ledger Ledger, log *slog.Logger) *VotingPower {
	return &VotingPower{
		ledger: ledger,
		roles:  cfg.Roles,
		log:    log.With("component", "token"),
	}
}

// TokenInfo summarizes the token table
type TokenInfo struct {
	TotalSupply    *uint256.Int
	Cap            *uint256.Int
	Remaining      *uint256.Int
	MintCooldown   time.Duration
	LastMint       *time.Time
	NextMint       time.Time
	AutoDelegation bool
	Paused         bool
	Holders        int
	Version        uint64
}

// AccountInfo is the token view of one account
type AccountInfo struct {
	Account     common.Address
	Balance     *uint256.Int
	Delegate    common.Address
	Votes       *uint256.Int
	Checkpoints models.CheckpointLog
}

// Read contract

// CurrentWeight returns the weight delegated to account right now.
func (vp *VotingPower) CurrentWeight(ctx context.Context, account common.Address) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := vp.ledger.View(ctx, func(v View) error {
		if a, ok := v.State().Token.Lookup(account); ok {
			out = a.Votes.Latest()
		}
		return nil
	})
	return out, err
}

// WeightAt returns the weight delegated to account as of a committed ledger version.
func (vp *VotingPower) WeightAt(ctx context.Context, account common.Address, version uint64) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := vp.ledger.View(ctx, func(v View) error {
		if version > v.Version() {
			return fmt.Errorf("%w: version %d, last committed %d", domain.ErrFutureLookup, version, v.Version())
		}
		if a, ok := v.State().Token.Lookup(account); ok {
			out = a.Votes.At(version)
		}
		return nil
	})
	return out, err
}

// TotalWeight returns the current total supply.
func (vp *VotingPower) TotalWeight(ctx context.Context) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := vp.ledger.View(ctx, func(v View) error {
		out = v.State().Token.TotalSupply.Clone()
		return nil
	})
	return out, err
}

// TotalWeightAt returns the total supply as of a committed ledger version.
func (vp *VotingPower) TotalWeightAt(ctx context.Context, version uint64) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := vp.ledger.View(ctx, func(v View) error {
		if version > v.Version() {
			return fmt.Errorf("%w: version %d, last committed %d", domain.ErrFutureLookup, version, v.Version())
		}
		out = v.State().Token.Supply.At(version)
		return nil
	})
	return out, err
}

// DelegateOf returns the account's delegate, zero when it never delegated.
func (vp *VotingPower) DelegateOf(ctx context.Context, account common.Address) (common.Address, error) {
	var out common.Address
	err := vp.ledger.View(ctx, func(v View) error {
		if a, ok := v.State().Token.Lookup(account); ok {
			out = a.Delegate
		}
		return nil
	})
	return out, err
}

// Account returns balance, delegate and vote history of account.
func (vp *VotingPower) Account(ctx context.Context, account common.Address) (*AccountInfo, error) {
	info := &AccountInfo{Account: account, Balance: new(uint256.Int), Votes: new(uint256.Int)}
	err := vp.ledger.View(ctx, func(v View) error {
		a, ok := v.State().Token.Lookup(account)
		if !ok {
			return nil
		}
		info.Balance = a.Balance.Clone()
		info.Delegate = a.Delegate
		info.Votes = a.Votes.Latest()
		info.Checkpoints = a.Votes.Clone()
		return nil
	})
	return info, err
}

// Info returns supply figures and token settings.
func (vp *VotingPower) Info(ctx context.Context) (*TokenInfo, error) {
	var info *TokenInfo
	err := vp.ledger.View(ctx, func(v View) error {
		tok := &v.State().Token
		info = &TokenInfo{
			TotalSupply:    tok.TotalSupply.Clone(),
			Cap:            tok.Cap.Clone(),
			Remaining:      new(uint256.Int),
			MintCooldown:   tok.MintCooldown,
			AutoDelegation: tok.AutoDelegation,
			Paused:         tok.Paused,
			Holders:        len(tok.Accounts),
			Version:        v.Version(),
		}
		if tok.Cap.Gt(&tok.TotalSupply) {
			info.Remaining.Sub(&tok.Cap, &tok.TotalSupply)
		}
		if tok.LastMint != nil {
			last := *tok.LastMint
			info.LastMint = &last
			info.NextMint = last.Add(tok.MintCooldown)
		}
		return nil
	})
	return info, err
}

// Mutations

// Mint creates amount new tokens for to. Minting is role-gated, capped and
// rate-limited by a global cooldown. A recipient without a delegate is
// self-delegated when auto-delegation is on.
func (vp *VotingPower) Mint(ctx context.Context, caller, to common.Address, amount *uint256.Int) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !vp.roles.IsMinter(caller) {
			return domain.RoleErr{Caller: caller.Hex(), Role: "minter"}
		}
		tok := &tx.State().Token
		if tok.Paused {
			return fmt.Errorf("%w: token", domain.ErrPaused)
		}
		if to == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if amount == nil || amount.IsZero() {
			return domain.ErrZeroValue
		}
		supply, overflow := new(uint256.Int).AddOverflow(&tok.TotalSupply, amount)
		if overflow || (!tok.Cap.IsZero() && supply.Gt(&tok.Cap)) {
			return fmt.Errorf("%w: cap %s", domain.ErrCapExceeded, tok.Cap.Dec())
		}
		now := tx.Now()
		if tok.LastMint != nil && tok.MintCooldown > 0 {
			if next := tok.LastMint.Add(tok.MintCooldown); now.Before(next) {
				return fmt.Errorf("%w: next mint at %s", domain.ErrMintCooldown, next.UTC().Format(time.RFC3339))
			}
		}

		acct := tok.Account(to)
		acct.Balance.Add(&acct.Balance, amount)
		tok.TotalSupply = *supply
		tok.Supply = tok.Supply.Push(tx.WriteVersion(), supply)
		tok.LastMint = &now
		tx.Emit(
			domain.Transfer{To: to, Amount: *amount},
			domain.TokensMinted{To: to, Amount: *amount},
		)

		if err := moveVotingPower(tx, common.Address{}, acct.Delegate, amount); err != nil {
			return err
		}
		if tok.AutoDelegation && acct.Delegate == (common.Address{}) {
			return delegate(tx, to, to)
		}
		return nil
	})
}

// Burn destroys amount tokens held by from. Holders burn their own tokens;
// the admin may burn from any account.
func (vp *VotingPower) Burn(ctx context.Context, caller, from common.Address, amount *uint256.Int) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if caller != from && !vp.roles.IsAdmin(caller) {
			return domain.RoleErr{Caller: caller.Hex(), Role: "admin"}
		}
		tok := &tx.State().Token
		if tok.Paused {
			return fmt.Errorf("%w: token", domain.ErrPaused)
		}
		if amount == nil || amount.IsZero() {
			return domain.ErrZeroValue
		}
		acct, ok := tok.Lookup(from)
		if !ok || acct.Balance.Lt(amount) {
			return fmt.Errorf("%w: burn %s from %s", domain.ErrInsufficientBalance, amount.Dec(), from.Hex())
		}
		acct.Balance.Sub(&acct.Balance, amount)
		supply := new(uint256.Int).Sub(&tok.TotalSupply, amount)
		tok.TotalSupply = *supply
		tok.Supply = tok.Supply.Push(tx.WriteVersion(), supply)
		tx.Emit(
			domain.Transfer{From: from, Amount: *amount},
			domain.TokensBurned{From: from, Amount: *amount},
		)
		return moveVotingPower(tx, acct.Delegate, common.Address{}, amount)
	})
}

// Transfer moves amount from one holder to another. Voting weight follows
// the delegates of both sides.
func (vp *VotingPower) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		tok := &tx.State().Token
		if tok.Paused {
			return fmt.Errorf("%w: token", domain.ErrPaused)
		}
		if from == (common.Address{}) || to == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if amount == nil || amount.IsZero() {
			return domain.ErrZeroValue
		}
		src, ok := tok.Lookup(from)
		if !ok || src.Balance.Lt(amount) {
			return fmt.Errorf("%w: transfer %s from %s", domain.ErrInsufficientBalance, amount.Dec(), from.Hex())
		}
		dst := tok.Account(to)
		src.Balance.Sub(&src.Balance, amount)
		dst.Balance.Add(&dst.Balance, amount)
		tx.Emit(domain.Transfer{From: from, To: to, Amount: *amount})

		if err := moveVotingPower(tx, src.Delegate, dst.Delegate, amount); err != nil {
			return err
		}
		if tok.AutoDelegation && dst.Delegate == (common.Address{}) {
			return delegate(tx, to, to)
		}
		return nil
	})
}

// Delegate points holder's voting weight at delegatee.
func (vp *VotingPower) Delegate(ctx context.Context, holder, delegatee common.Address) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if holder == (common.Address{}) || delegatee == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		return delegate(tx, holder, delegatee)
	})
}

// SetAutoDelegation toggles automatic self-delegation of recipients.
func (vp *VotingPower) SetAutoDelegation(ctx context.Context, admin common.Address, enabled bool) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !vp.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		tx.State().Token.AutoDelegation = enabled
		tx.Emit(domain.AutoDelegationToggled{Enabled: enabled})
		return nil
	})
}

// SetPaused stops or resumes mints, burns and transfers.
func (vp *VotingPower) SetPaused(ctx context.Context, admin common.Address, paused bool) error {
	return vp.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !vp.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		tok := &tx.State().Token
		if tok.Paused == paused {
			return nil
		}
		tok.Paused = paused
		tx.Emit(domain.TokenPaused{Paused: paused, By: admin})
		return nil
	})
}

func delegate(tx Tx, holder, delegatee common.Address) error {
	tok := &tx.State().Token
	acct := tok.Account(holder)
	previous := acct.Delegate
	if previous == delegatee {
		return nil
	}
	acct.Delegate = delegatee
	tx.Emit(domain.DelegateChanged{Delegator: holder, FromDelegate: previous, ToDelegate: delegatee})
	return moveVotingPower(tx, previous, delegatee, &acct.Balance)
}

// moveVotingPower shifts amount of delegated weight between two delegates and
// checkpoints both at the transaction's version. A zero address on either side
// stands for weight that is not delegated (or minted / burned).
func moveVotingPower(tx Tx, from, to common.Address, amount *uint256.Int) error {
	if from == to || amount.IsZero() {
		return nil
	}
	tok := &tx.State().Token
	version := tx.WriteVersion()
	if from != (common.Address{}) {
		a := tok.Account(from)
		old := a.Votes.Latest()
		updated, underflow := new(uint256.Int).SubOverflow(old, amount)
		if underflow {
			return fmt.Errorf("voting power underflow for %s: %s < %s", from.Hex(), old.Dec(), amount.Dec())
		}
		a.Votes = a.Votes.Push(version, updated)
		tx.Emit(domain.DelegateVotesChanged{Delegate: from, PreviousBalance: *old, NewBalance: *updated})
	}
	if to != (common.Address{}) {
		a := tok.Account(to)
		old := a.Votes.Latest()
		updated := new(uint256.Int).Add(old, amount)
		a.Votes = a.Votes.Push(version, updated)
		tx.Emit(domain.DelegateVotesChanged{Delegate: to, PreviousBalance: *old, NewBalance: *updated})
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/samber/lo"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// Withdrawal delay bounds
const (
	MinWithdrawalDelay = time.Hour
	MaxWithdrawalDelay = 30 * 24 * time.Hour
)

// WithdrawalParams describes a transfer to queue
type WithdrawalParams struct {
	Target     common.Address
	Value      *uint256.Int
	Payload    []byte
	ProposalID uint64
	// GracePeriod bounds how long after the timelock the request stays
	// executable; zero means no expiry.
	GracePeriod time.Duration
}

// Treasury holds the organization's funds and applies approved withdrawals
// after a timelock, restricted to an allow-list of targets.
type Treasury struct {
	ledger Ledger
	roles  config.Roles
	calls  CallHandler
	log    *slog.Logger
}

// NewTreasury creates a new Treasury
func NewTreasury(cfg *config.RuntimeConfig, ledger Ledger, calls CallHandler, log *slog.Logger) *Treasury {
	return &Treasury{
		ledger: ledger,
		roles:  cfg.Roles,
		calls:  calls,
		log:    log.With("component", "treasury"),
	}
}

// Deposit adds value to the treasury balance.
func (t *Treasury) Deposit(ctx context.Context, from common.Address, value *uint256.Int) error {
	return t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if value == nil || value.IsZero() {
			return domain.ErrZeroValue
		}
		tr := &tx.State().Treasury
		balance, overflow := new(uint256.Int).AddOverflow(&tr.Balance, value)
		if overflow {
			return fmt.Errorf("%w: treasury balance overflow", domain.ErrInvalidParameter)
		}
		tr.Balance = *balance
		tx.Emit(domain.Deposited{From: from, Amount: *value})
		return nil
	})
}

// Queue records a withdrawal that becomes executable after the delay.
func (t *Treasury) Queue(ctx context.Context, caller common.Address, req WithdrawalParams) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsController(caller) {
			return domain.RoleErr{Caller: caller.Hex(), Role: "controller"}
		}
		tr := &tx.State().Treasury
		if tr.Paused {
			return fmt.Errorf("%w: treasury", domain.ErrPaused)
		}
		if req.Target == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if !tr.Allowlist[req.Target] {
			return fmt.Errorf("%w: %s", domain.ErrTargetNotAllowed, req.Target.Hex())
		}
		value := new(uint256.Int)
		if req.Value != nil {
			value.Set(req.Value)
		}

		now := tx.Now()
		w := &models.WithdrawalRequest{
			ID:           tr.NextRequestID,
			ProposalID:   req.ProposalID,
			Target:       req.Target,
			Value:        *value,
			Payload:      common.CopyBytes(req.Payload),
			QueuedBy:     caller,
			QueuedAt:     now,
			ExecutableAt: now.Add(tr.WithdrawalDelay),
		}
		if req.GracePeriod < 0 {
			return fmt.Errorf("%w: grace period must not be negative", domain.ErrInvalidParameter)
		}
		if req.GracePeriod > 0 {
			expiresAt := w.ExecutableAt.Add(req.GracePeriod)
			w.ExpiresAt = &expiresAt
		}
		tr.Withdrawals[w.ID] = w
		tr.NextRequestID++

		tx.Emit(domain.WithdrawalQueued{
			RequestID:    w.ID,
			ProposalID:   w.ProposalID,
			Target:       w.Target,
			Value:        w.Value,
			ExecutableAt: w.ExecutableAt,
		})
		out = w.Clone()
		return nil
	})
	return out, err
}

// Execute applies a queued withdrawal once its timelock elapsed. The target
// must still be allowed at execution time.
func (t *Treasury) Execute(ctx context.Context, caller common.Address, requestID uint64) (*models.ExecutionReceipt, error) {
	var out *models.ExecutionReceipt
	err := t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsController(caller) {
			return domain.RoleErr{Caller: caller.Hex(), Role: "controller"}
		}
		tr := &tx.State().Treasury
		if tr.Paused {
			return fmt.Errorf("%w: treasury", domain.ErrPaused)
		}
		w, ok := tr.Withdrawals[requestID]
		if !ok {
			return fmt.Errorf("withdrawal %d: %w", requestID, domain.ErrNotFound)
		}
		now := tx.Now()
		if w.ExpiredAt(now) {
			return fmt.Errorf("%w: withdrawal %d expired at %s", domain.ErrInvalidState, requestID, w.ExpiresAt.UTC().Format(time.RFC3339))
		}
		if !w.ReadyAt(now) {
			return fmt.Errorf("%w: withdrawal %d executable at %s", domain.ErrTimelockNotElapsed, requestID, w.ExecutableAt.UTC().Format(time.RFC3339))
		}
		if !tr.Allowlist[w.Target] {
			return fmt.Errorf("%w: %s", domain.ErrTargetNotAllowed, w.Target.Hex())
		}
		if tr.Balance.Lt(&w.Value) {
			return fmt.Errorf("%w: treasury holds %s, withdrawal needs %s", domain.ErrInsufficientBalance, tr.Balance.Dec(), w.Value.Dec())
		}

		tr.Balance.Sub(&tr.Balance, &w.Value)
		acct, ok := tr.Accounts[w.Target]
		if !ok {
			acct = &models.NativeAccount{}
			tr.Accounts[w.Target] = acct
		}
		acct.Balance.Add(&acct.Balance, &w.Value)

		result, err := t.calls.Call(ctx, CallRequest{
			WithdrawalID: w.ID,
			ProposalID:   w.ProposalID,
			Target:       w.Target,
			Value:        w.Value.Clone(),
			Payload:      common.CopyBytes(w.Payload),
		})
		if err != nil {
			return fmt.Errorf("call to %s failed: %w", w.Target.Hex(), err)
		}

		receipt := models.ExecutionReceipt{
			WithdrawalID: w.ID,
			ProposalID:   w.ProposalID,
			Target:       w.Target,
			Value:        w.Value,
			PayloadHash:  crypto.Keccak256Hash(w.Payload),
			Result:       result,
			ExecutedBy:   caller,
			ExecutedAt:   now,
		}
		tr.Receipts = append(tr.Receipts, receipt)
		delete(tr.Withdrawals, w.ID)

		tx.Emit(domain.WithdrawalExecuted{
			RequestID:   w.ID,
			Target:      w.Target,
			Value:       w.Value,
			PayloadHash: receipt.PayloadHash,
		})
		out = &receipt
		return nil
	})
	return out, err
}

// Cancel drops a queued withdrawal.
func (t *Treasury) Cancel(ctx context.Context, admin common.Address, requestID uint64) error {
	return t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		tr := &tx.State().Treasury
		if _, ok := tr.Withdrawals[requestID]; !ok {
			return fmt.Errorf("withdrawal %d: %w", requestID, domain.ErrNotFound)
		}
		delete(tr.Withdrawals, requestID)
		tx.Emit(domain.WithdrawalCanceled{RequestID: requestID})
		return nil
	})
}

// EmergencyWithdraw moves value straight to an account, skipping every
// withdrawal control. Admin only.
func (t *Treasury) EmergencyWithdraw(ctx context.Context, admin, to common.Address, value *uint256.Int) error {
	err := t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		if to == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		if value == nil || value.IsZero() {
			return domain.ErrZeroValue
		}
		tr := &tx.State().Treasury
		if tr.Balance.Lt(value) {
			return fmt.Errorf("%w: treasury holds %s, emergency withdrawal needs %s", domain.ErrInsufficientBalance, tr.Balance.Dec(), value.Dec())
		}
		tr.Balance.Sub(&tr.Balance, value)
		acct, ok := tr.Accounts[to]
		if !ok {
			acct = &models.NativeAccount{}
			tr.Accounts[to] = acct
		}
		acct.Balance.Add(&acct.Balance, value)
		tx.Emit(domain.EmergencyWithdrawn{By: admin, To: to, Amount: *value})
		return nil
	})
	if err != nil {
		return err
	}
	t.log.Warn("emergency withdrawal", "to", to.Hex(), "amount", value.Dec())
	return nil
}

// SetAllowedTarget adds or removes target from the allow-list.
func (t *Treasury) SetAllowedTarget(ctx context.Context, admin, target common.Address, allowed bool) error {
	return t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		if target == (common.Address{}) {
			return domain.ErrZeroAddress
		}
		list := tx.State().Treasury.Allowlist
		if allowed {
			list[target] = true
		} else {
			delete(list, target)
		}
		tx.Emit(domain.AllowedTargetUpdated{Target: target, Allowed: allowed})
		return nil
	})
}

// SetWithdrawalDelay changes the timelock applied to withdrawals queued from
// now on.
func (t *Treasury) SetWithdrawalDelay(ctx context.Context, admin common.Address, delay time.Duration) error {
	return t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		if delay < MinWithdrawalDelay || delay > MaxWithdrawalDelay {
			return fmt.Errorf("%w: withdrawal delay %s outside [%s, %s]", domain.ErrInvalidParameter, delay, MinWithdrawalDelay, MaxWithdrawalDelay)
		}
		tr := &tx.State().Treasury
		old := tr.WithdrawalDelay
		tr.WithdrawalDelay = delay
		tx.Emit(domain.WithdrawalDelayUpdated{OldDelay: old, NewDelay: delay})
		return nil
	})
}

// SetPaused stops or resumes queueing and execution.
func (t *Treasury) SetPaused(ctx context.Context, admin common.Address, paused bool) error {
	return t.ledger.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if !t.roles.IsAdmin(admin) {
			return domain.RoleErr{Caller: admin.Hex(), Role: "admin"}
		}
		tr := &tx.State().Treasury
		if tr.Paused == paused {
			return nil
		}
		tr.Paused = paused
		if paused {
			tx.Emit(domain.Paused{By: admin})
		} else {
			tx.Emit(domain.Unpaused{By: admin})
		}
		return nil
	})
}

// Reads stay available while paused.

// TreasuryInfo summarizes the treasury table
type TreasuryInfo struct {
	Balance         *uint256.Int
	WithdrawalDelay time.Duration
	Paused          bool
	Allowlist       []common.Address
	Pending         int
	Executed        int
}

// Info returns balance and settings.
func (t *Treasury) Info(ctx context.Context) (*TreasuryInfo, error) {
	var info *TreasuryInfo
	err := t.ledger.View(ctx, func(v View) error {
		tr := &v.State().Treasury
		allow := lo.Keys(lo.PickBy(tr.Allowlist, func(_ common.Address, ok bool) bool { return ok }))
		sort.Slice(allow, func(i, j int) bool { return allow[i].Cmp(allow[j]) < 0 })
		info = &TreasuryInfo{
			Balance:         tr.Balance.Clone(),
			WithdrawalDelay: tr.WithdrawalDelay,
			Paused:          tr.Paused,
			Allowlist:       allow,
			Pending:         len(tr.Withdrawals),
			Executed:        len(tr.Receipts),
		}
		return nil
	})
	return info, err
}

// Withdrawal returns a queued request.
func (t *Treasury) Withdrawal(ctx context.Context, requestID uint64) (*models.WithdrawalRequest, error) {
	var out *models.WithdrawalRequest
	err := t.ledger.View(ctx, func(v View) error {
		w, ok := v.State().Treasury.Withdrawals[requestID]
		if !ok {
			return fmt.Errorf("withdrawal %d: %w", requestID, domain.ErrNotFound)
		}
		out = w.Clone()
		return nil
	})
	return out, err
}

// Withdrawals lists queued requests ordered by id.
func (t *Treasury) Withdrawals(ctx context.Context, filter domain.WithdrawalFilter) ([]*models.WithdrawalRequest, error) {
	var out []*models.WithdrawalRequest
	err := t.ledger.View(ctx, func(v View) error {
		now := v.Now()
		for _, w := range v.State().Treasury.Withdrawals {
			if filter.Target != (common.Address{}) && w.Target != filter.Target {
				continue
			}
			if filter.ReadyOnly && !w.ReadyAt(now) {
				continue
			}
			out = append(out, w.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// IsReady reports whether a queued request can be executed now.
func (t *Treasury) IsReady(ctx context.Context, requestID uint64) (bool, error) {
	var ready bool
	err := t.ledger.View(ctx, func(v View) error {
		w, ok := v.State().Treasury.Withdrawals[requestID]
		if !ok {
			return fmt.Errorf("withdrawal %d: %w", requestID, domain.ErrNotFound)
		}
		ready = w.ReadyAt(v.Now())
		return nil
	})
	return ready, err
}

// Receipts returns executed withdrawals, most recent last.
func (t *Treasury) Receipts(ctx context.Context) ([]models.ExecutionReceipt, error) {
	var out []models.ExecutionReceipt
	err := t.ledger.View(ctx, func(v View) error {
		out = append(out, v.State().Treasury.Receipts...)
		return nil
	})
	return out, err
}

// BalanceOf returns the native balance credited to account by withdrawals.
func (t *Treasury) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	out := new(uint256.Int)
	err := t.ledger.View(ctx, func(v View) error {
		if a, ok := v.State().Treasury.Accounts[account]; ok {
			out = a.Balance.Clone()
		}
		return nil
	})
	return out, err
}

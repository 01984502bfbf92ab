package usecase_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

func queue(t *testing.T, e *env, value uint64) uint64 {
	t.Helper()
	w, err := e.treasury.Queue(e.ctx, controller, usecase.WithdrawalParams{Target: grantee, Value: uint256.NewInt(value)})
	require.NoError(t, err)
	return w.ID
}

func TestTreasuryWithdrawal(t *testing.T) {
	e := newEnv(t)
	e.deposit(100)

	_, err := e.treasury.Queue(e.ctx, alice, usecase.WithdrawalParams{Target: grantee, Value: uint256.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = e.treasury.Queue(e.ctx, controller, usecase.WithdrawalParams{Target: carol, Value: uint256.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrTargetNotAllowed)

	id := queue(t, e, 30)
	ready, err := e.treasury.IsReady(e.ctx, id)
	require.NoError(t, err)
	assert.False(t, ready)

	_, err = e.treasury.Execute(e.ctx, controller, id)
	assert.ErrorIs(t, err, domain.ErrTimelockNotElapsed)

	e.clock.Advance(withdrawalDelay)
	_, err = e.treasury.Execute(e.ctx, alice, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// the admin holds the controller role too
	receipt, err := e.treasury.Execute(e.ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), receipt.Value.Uint64())

	info, err := e.treasury.Info(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), info.Balance.Uint64())
	assert.Equal(t, 0, info.Pending)
	assert.Equal(t, 1, info.Executed)

	_, err = e.treasury.Execute(e.ctx, controller, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTreasuryInsufficientBalance(t *testing.T) {
	e := newEnv(t)
	e.deposit(5)
	id := queue(t, e, 6)
	e.clock.Advance(withdrawalDelay)

	_, err := e.treasury.Execute(e.ctx, controller, id)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestTreasuryPause(t *testing.T) {
	e := newEnv(t)
	e.deposit(10)
	id := queue(t, e, 1)
	e.clock.Advance(withdrawalDelay)

	require.NoError(t, e.treasury.SetPaused(e.ctx, admin, true))
	_, err := e.treasury.Queue(e.ctx, controller, usecase.WithdrawalParams{Target: grantee, Value: uint256.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrPaused)
	_, err = e.treasury.Execute(e.ctx, controller, id)
	assert.ErrorIs(t, err, domain.ErrPaused)

	// reads keep working
	w, err := e.treasury.Withdrawal(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, grantee, w.Target)
	ready, err := e.treasury.Withdrawals(e.ctx, domain.WithdrawalFilter{ReadyOnly: true})
	require.NoError(t, err)
	assert.Len(t, ready, 1)

	require.NoError(t, e.treasury.SetPaused(e.ctx, admin, false))
	_, err = e.treasury.Execute(e.ctx, controller, id)
	require.NoError(t, err)
}

func TestAllowlistCheckedAtExecution(t *testing.T) {
	e := newEnv(t)
	e.deposit(10)
	id := queue(t, e, 1)

	require.NoError(t, e.treasury.SetAllowedTarget(e.ctx, admin, grantee, false))
	e.clock.Advance(withdrawalDelay)
	_, err := e.treasury.Execute(e.ctx, controller, id)
	assert.ErrorIs(t, err, domain.ErrTargetNotAllowed)

	require.NoError(t, e.treasury.SetAllowedTarget(e.ctx, admin, grantee, true))
	_, err = e.treasury.Execute(e.ctx, controller, id)
	require.NoError(t, err)
}

func TestSetWithdrawalDelay(t *testing.T) {
	e := newEnv(t)

	assert.ErrorIs(t, e.treasury.SetWithdrawalDelay(e.ctx, admin, 59*time.Minute), domain.ErrInvalidParameter)
	assert.ErrorIs(t, e.treasury.SetWithdrawalDelay(e.ctx, admin, 31*24*time.Hour), domain.ErrInvalidParameter)
	assert.ErrorIs(t, e.treasury.SetWithdrawalDelay(e.ctx, controller, time.Hour), domain.ErrUnauthorized)

	e.deposit(10)
	before := queue(t, e, 1)
	require.NoError(t, e.treasury.SetWithdrawalDelay(e.ctx, admin, 2*time.Hour))
	after := queue(t, e, 1)

	w1, err := e.treasury.Withdrawal(e.ctx, before)
	require.NoError(t, err)
	w2, err := e.treasury.Withdrawal(e.ctx, after)
	require.NoError(t, err)
	assert.Equal(t, withdrawalDelay, w1.ExecutableAt.Sub(w1.QueuedAt))
	assert.Equal(t, 2*time.Hour, w2.ExecutableAt.Sub(w2.QueuedAt))
}

func TestTreasuryCancelAndDeposit(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.treasury.Deposit(e.ctx, alice, uint256.NewInt(0)), domain.ErrZeroValue)

	e.deposit(10)
	id := queue(t, e, 1)
	assert.ErrorIs(t, e.treasury.Cancel(e.ctx, controller, id), domain.ErrUnauthorized)
	require.NoError(t, e.treasury.Cancel(e.ctx, admin, id))
	assert.ErrorIs(t, e.treasury.Cancel(e.ctx, admin, id), domain.ErrNotFound)

	_, err := e.treasury.Withdrawal(e.ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithdrawalExecutionWindow(t *testing.T) {
	e := newEnv(t)
	e.deposit(10)

	_, err := e.treasury.Queue(e.ctx, controller, usecase.WithdrawalParams{Target: grantee, Value: uint256.NewInt(1), GracePeriod: -time.Hour})
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	open := queue(t, e, 1)
	w, err := e.treasury.Queue(e.ctx, controller, usecase.WithdrawalParams{Target: grantee, Value: uint256.NewInt(2), GracePeriod: time.Hour})
	require.NoError(t, err)
	require.NotNil(t, w.ExpiresAt)
	assert.Equal(t, w.ExecutableAt.Add(time.Hour), *w.ExpiresAt)

	e.clock.Advance(withdrawalDelay + time.Hour)
	_, err = e.treasury.Execute(e.ctx, controller, w.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	ready, err := e.treasury.Withdrawals(e.ctx, domain.WithdrawalFilter{ReadyOnly: true})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, open, ready[0].ID)

	// without a grace period the request never expires
	_, err = e.treasury.Execute(e.ctx, controller, open)
	require.NoError(t, err)

	// an expired request can still be dropped
	require.NoError(t, e.treasury.Cancel(e.ctx, admin, w.ID))
}

func TestEmergencyWithdraw(t *testing.T) {
	e := newEnv(t)
	e.deposit(50)
	require.NoError(t, e.treasury.SetPaused(e.ctx, admin, true))

	tests := []struct {
		name   string
		caller common.Address
		to     common.Address
		value  *uint256.Int
		want   error
	}{
		{"controller is not enough", controller, carol, uint256.NewInt(1), domain.ErrUnauthorized},
		{"zero recipient", admin, common.Address{}, uint256.NewInt(1), domain.ErrZeroAddress},
		{"zero amount", admin, carol, uint256.NewInt(0), domain.ErrZeroValue},
		{"more than the balance", admin, carol, uint256.NewInt(51), domain.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.treasury.EmergencyWithdraw(e.ctx, tt.caller, tt.to, tt.value)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// carol is not allow-listed and the treasury is paused
	e.events.Drain()
	require.NoError(t, e.treasury.EmergencyWithdraw(e.ctx, admin, carol, uint256.NewInt(20)))

	info, err := e.treasury.Info(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), info.Balance.Uint64())
	got, err := e.treasury.BalanceOf(e.ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), got.Uint64())
	assert.Equal(t, []string{"EmergencyWithdrawn"}, e.events.Names())
}

package usecase_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
)

func weight(t *testing.T, e *env, account common.Address) uint64 {
	t.Helper()
	w, err := e.token.CurrentWeight(e.ctx, account)
	require.NoError(t, err)
	return w.Uint64()
}

func TestMint(t *testing.T) {
	t.Run("self-delegates the recipient", func(t *testing.T) {
		e := newEnv(t)
		e.mint(alice, 10)

		assert.Equal(t, uint64(10), weight(t, e, alice))
		d, err := e.token.DelegateOf(e.ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, alice, d)
	})

	t.Run("without auto-delegation weight stays undelegated", func(t *testing.T) {
		cfg := testConfig()
		cfg.Token.AutoDelegation = false
		e := newEnvWith(t, cfg)
		e.mint(alice, 10)

		assert.Equal(t, uint64(0), weight(t, e, alice))
		supply, err := e.token.TotalWeight(e.ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), supply.Uint64())
	})

	t.Run("cap", func(t *testing.T) {
		e := newEnv(t)
		e.mint(alice, 999_999)
		e.mint(bob, 1)

		err := e.token.Mint(e.ctx, admin, bob, uint256.NewInt(1))
		assert.ErrorIs(t, err, domain.ErrCapExceeded)

		info, err := e.token.Info(e.ctx)
		require.NoError(t, err)
		assert.True(t, info.Remaining.IsZero())
	})

	t.Run("cooldown", func(t *testing.T) {
		cfg := testConfig()
		cfg.Token.MintCooldown = time.Hour
		e := newEnvWith(t, cfg)
		e.mint(alice, 1)

		err := e.token.Mint(e.ctx, admin, bob, uint256.NewInt(1))
		assert.ErrorIs(t, err, domain.ErrMintCooldown)

		e.clock.Advance(time.Hour)
		e.mint(bob, 1)
	})

	t.Run("rejections", func(t *testing.T) {
		e := newEnv(t)
		assert.ErrorIs(t, e.token.Mint(e.ctx, alice, alice, uint256.NewInt(1)), domain.ErrUnauthorized)
		assert.ErrorIs(t, e.token.Mint(e.ctx, admin, alice, uint256.NewInt(0)), domain.ErrZeroValue)
		assert.ErrorIs(t, e.token.Mint(e.ctx, admin, common.Address{}, uint256.NewInt(1)), domain.ErrZeroAddress)
	})
}

func TestDelegate(t *testing.T) {
	e := newEnv(t)
	e.mint(alice, 30)
	e.mint(bob, 5)
	before := e.ledger.Version()

	require.NoError(t, e.token.Delegate(e.ctx, alice, bob))
	assert.Equal(t, uint64(0), weight(t, e, alice))
	assert.Equal(t, uint64(35), weight(t, e, bob))

	// history stays readable at older versions
	old, err := e.token.WeightAt(e.ctx, alice, before)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), old.Uint64())
	now, err := e.token.WeightAt(e.ctx, bob, e.ledger.Version())
	require.NoError(t, err)
	assert.Equal(t, uint64(35), now.Uint64())

	_, err = e.token.WeightAt(e.ctx, bob, e.ledger.Version()+1)
	assert.ErrorIs(t, err, domain.ErrFutureLookup)
	_, err = e.token.TotalWeightAt(e.ctx, e.ledger.Version()+1)
	assert.ErrorIs(t, err, domain.ErrFutureLookup)

	acct, err := e.token.Account(e.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), acct.Balance.Uint64())
	assert.Len(t, acct.Checkpoints, 2)
}

func TestTransferFollowsDelegates(t *testing.T) {
	e := newEnv(t)
	e.mint(alice, 20)
	require.NoError(t, e.token.Delegate(e.ctx, alice, carol))

	require.NoError(t, e.token.Transfer(e.ctx, alice, bob, uint256.NewInt(8)))
	assert.Equal(t, uint64(12), weight(t, e, carol))
	assert.Equal(t, uint64(8), weight(t, e, bob))

	err := e.token.Transfer(e.ctx, bob, alice, uint256.NewInt(9))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestBurn(t *testing.T) {
	e := newEnv(t)
	e.mint(alice, 20)

	assert.ErrorIs(t, e.token.Burn(e.ctx, bob, alice, uint256.NewInt(1)), domain.ErrUnauthorized)
	require.NoError(t, e.token.Burn(e.ctx, alice, alice, uint256.NewInt(5)))
	require.NoError(t, e.token.Burn(e.ctx, admin, alice, uint256.NewInt(5)))
	assert.ErrorIs(t, e.token.Burn(e.ctx, alice, alice, uint256.NewInt(11)), domain.ErrInsufficientBalance)

	assert.Equal(t, uint64(10), weight(t, e, alice))
	supply, err := e.token.TotalWeight(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), supply.Uint64())
}

func TestTokenPause(t *testing.T) {
	e := newEnv(t)
	e.mint(alice, 20)

	assert.ErrorIs(t, e.token.SetPaused(e.ctx, alice, true), domain.ErrUnauthorized)
	require.NoError(t, e.token.SetPaused(e.ctx, admin, true))

	assert.ErrorIs(t, e.token.Transfer(e.ctx, alice, bob, uint256.NewInt(1)), domain.ErrPaused)
	assert.ErrorIs(t, e.token.Mint(e.ctx, admin, bob, uint256.NewInt(1)), domain.ErrPaused)
	assert.ErrorIs(t, e.token.Burn(e.ctx, alice, alice, uint256.NewInt(1)), domain.ErrPaused)
	assert.Equal(t, uint64(20), weight(t, e, alice))

	require.NoError(t, e.token.SetPaused(e.ctx, admin, false))
	require.NoError(t, e.token.Transfer(e.ctx, alice, bob, uint256.NewInt(1)))
}

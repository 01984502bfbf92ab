package ledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/adapters/clock"
	"github.com/trebuchet-org/dvote/internal/adapters/events"
	"github.com/trebuchet-org/dvote/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

type failingSink struct{}

func (failingSink) Publish(context.Context, ...domain.Event) error {
	return errors.New("broker down")
}

func newLedger(t *testing.T, store ledger.Store, sink usecase.EventSink, clk usecase.Clock) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(store, models.Genesis{WithdrawalDelay: time.Hour}, clk, sink, usecase.NopTxObserver{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return l
}

func deposit(amount uint64) func(ctx context.Context, tx usecase.Tx) error {
	return func(ctx context.Context, tx usecase.Tx) error {
		tr := &tx.State().Treasury
		tr.Balance.Add(&tr.Balance, uint256.NewInt(amount))
		tx.Emit(domain.Deposited{From: alice, Amount: *uint256.NewInt(amount)})
		return nil
	}
}

func balance(t *testing.T, l *ledger.Ledger) uint64 {
	t.Helper()
	var out uint64
	require.NoError(t, l.View(context.Background(), func(v usecase.View) error {
		out = v.State().Treasury.Balance.Uint64()
		return nil
	}))
	return out
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit bumps version and publishes events", func(t *testing.T) {
		rec := events.NewRecorder()
		l := newLedger(t, ledger.NewMemoryStore(), rec, clock.NewFixed(start))

		require.NoError(t, l.RunInTx(ctx, deposit(5)))

		assert.Equal(t, uint64(1), l.Version())
		assert.Equal(t, uint64(5), balance(t, l))
		assert.Equal(t, []string{"Deposited"}, rec.Names())
	})

	t.Run("error discards changes and events", func(t *testing.T) {
		rec := events.NewRecorder()
		l := newLedger(t, ledger.NewMemoryStore(), rec, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(5)))
		rec.Drain()

		err := l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
			require.NoError(t, deposit(7)(ctx, tx))
			return domain.ErrPaused
		})

		assert.ErrorIs(t, err, domain.ErrPaused)
		assert.Equal(t, uint64(1), l.Version())
		assert.Equal(t, uint64(5), balance(t, l))
		assert.Empty(t, rec.Events())
	})

	t.Run("versions inside a transaction", func(t *testing.T) {
		l := newLedger(t, ledger.NewMemoryStore(), events.NopSink{}, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(1)))

		require.NoError(t, l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
			assert.Equal(t, uint64(1), tx.Version())
			assert.Equal(t, uint64(2), tx.WriteVersion())
			return nil
		}))
	})

	t.Run("nested call joins the open transaction", func(t *testing.T) {
		rec := events.NewRecorder()
		l := newLedger(t, ledger.NewMemoryStore(), rec, clock.NewFixed(start))

		err := l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
			require.NoError(t, deposit(3)(ctx, tx))
			require.NoError(t, l.RunInTx(ctx, deposit(4)))

			// the inner deposit is visible to reads through the same context
			require.NoError(t, l.View(ctx, func(v usecase.View) error {
				assert.Equal(t, uint64(7), v.State().Treasury.Balance.Uint64())
				return nil
			}))
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, uint64(1), l.Version())
		assert.Equal(t, uint64(7), balance(t, l))
		assert.Len(t, rec.Events(), 2)
	})

	t.Run("nested failure reverts the outer transaction", func(t *testing.T) {
		l := newLedger(t, ledger.NewMemoryStore(), events.NopSink{}, clock.NewFixed(start))

		err := l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
			require.NoError(t, deposit(3)(ctx, tx))
			return l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
				return domain.ErrTargetNotAllowed
			})
		})

		assert.ErrorIs(t, err, domain.ErrTargetNotAllowed)
		assert.Equal(t, uint64(0), l.Version())
		assert.Equal(t, uint64(0), balance(t, l))
	})

	t.Run("publish failure does not revert", func(t *testing.T) {
		l := newLedger(t, ledger.NewMemoryStore(), failingSink{}, clock.NewFixed(start))

		require.NoError(t, l.RunInTx(ctx, deposit(2)))
		assert.Equal(t, uint64(2), balance(t, l))
	})

	t.Run("time never moves backwards", func(t *testing.T) {
		clk := clock.NewManual(start)
		l := newLedger(t, ledger.NewMemoryStore(), events.NopSink{}, clk)
		require.NoError(t, l.RunInTx(ctx, deposit(1)))

		clk.Set(start.Add(-time.Hour))
		require.NoError(t, l.View(ctx, func(v usecase.View) error {
			assert.Equal(t, start, v.Now())
			return nil
		}))

		clk.Set(start.Add(time.Hour))
		require.NoError(t, l.View(ctx, func(v usecase.View) error {
			assert.Equal(t, start.Add(time.Hour), v.Now())
			return nil
		}))
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("reload restores committed state", func(t *testing.T) {
		dir := t.TempDir()
		store, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l := newLedger(t, store, events.NopSink{}, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(9)))
		require.NoError(t, l.RunInTx(ctx, func(ctx context.Context, tx usecase.Tx) error {
			tx.State().Treasury.Allowlist[alice] = true
			return nil
		}))

		for _, name := range []string{"governance.v2.json", "identities.v2.json", "token.v2.json", "treasury.v2.json", "ledger.json"} {
			assert.FileExists(t, filepath.Join(dir, name))
		}
		// the previous generation is gone once the marker moved on
		assert.NoFileExists(t, filepath.Join(dir, "token.v1.json"))

		reopened, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l2 := newLedger(t, reopened, events.NopSink{}, clock.NewFixed(start))
		assert.Equal(t, uint64(2), l2.Version())
		assert.Equal(t, uint64(9), balance(t, l2))
		snap := l2.Snapshot()
		assert.True(t, snap.Treasury.Allowlist[alice])
		assert.Equal(t, time.Hour, snap.Treasury.WithdrawalDelay)
		assert.True(t, snap.Time.Equal(start))
	})

	t.Run("empty directory starts from genesis", func(t *testing.T) {
		store, err := ledger.NewFileStore(t.TempDir())
		require.NoError(t, err)

		state, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("table out of sync with commit marker", func(t *testing.T) {
		dir := t.TempDir()
		store, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l := newLedger(t, store, events.NopSink{}, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(1)))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "token.v1.json"), []byte(`{"version": 7, "data": {}}`), 0644))

		_, err = store.Load()
		assert.ErrorContains(t, err, "token.v1.json")
	})

	t.Run("interrupted save keeps the last commit", func(t *testing.T) {
		dir := t.TempDir()
		store, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l := newLedger(t, store, events.NopSink{}, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(9)))

		// the first table of the next commit lands, the second one fails
		renames := 0
		restore := ledger.SetRename(func(oldpath, newpath string) error {
			renames++
			if renames == 2 {
				return errors.New("disk full")
			}
			return os.Rename(oldpath, newpath)
		})
		err = l.RunInTx(ctx, deposit(5))
		restore()
		assert.ErrorContains(t, err, "disk full")
		assert.Equal(t, uint64(1), l.Version())
		assert.Equal(t, uint64(9), balance(t, l))

		reopened, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l2 := newLedger(t, reopened, events.NopSink{}, clock.NewFixed(start))
		assert.Equal(t, uint64(1), l2.Version())
		assert.Equal(t, uint64(9), balance(t, l2))

		require.NoError(t, l2.RunInTx(ctx, deposit(5)))
		again, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l3 := newLedger(t, again, events.NopSink{}, clock.NewFixed(start))
		assert.Equal(t, uint64(2), l3.Version())
		assert.Equal(t, uint64(14), balance(t, l3))
	})

	t.Run("no temporary files left behind", func(t *testing.T) {
		dir := t.TempDir()
		store, err := ledger.NewFileStore(dir)
		require.NoError(t, err)
		l := newLedger(t, store, events.NopSink{}, clock.NewFixed(start))
		require.NoError(t, l.RunInTx(ctx, deposit(1)))

		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

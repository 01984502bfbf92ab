package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
)

func TestRecorder(t *testing.T) {
	t.Run("counts commits and reverts by kind", func(t *testing.T) {
		r := NewRecorder("")
		r.TxCommitted(3, 2, time.Millisecond)
		r.TxReverted(domain.ErrAlreadyVoted, time.Millisecond)
		r.TxReverted(domain.RoleErr{Caller: "0x1", Role: "admin"}, time.Millisecond)

		assert.Equal(t, 1.0, testutil.ToFloat64(r.commits))
		assert.Equal(t, 3.0, testutil.ToFloat64(r.version))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.reverts.WithLabelValues("already_voted")))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.reverts.WithLabelValues("unauthorized")))
	})

	t.Run("counts events by name", func(t *testing.T) {
		r := NewRecorder("")
		require.NoError(t, r.Publish(context.Background(), domain.Paused{}, domain.Paused{}, domain.Unpaused{}))

		assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("Paused")))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("Unpaused")))
	})

	t.Run("flush writes textfile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dvote.prom")
		r := NewRecorder(path)
		r.TxCommitted(1, 0, time.Millisecond)
		require.NoError(t, r.Flush())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "dvote_ledger_commits_total 1")
	})

	t.Run("flush without path is a no-op", func(t *testing.T) {
		assert.NoError(t, NewRecorder("").Flush())
	})
}

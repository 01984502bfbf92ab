package events

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
)

var holder = common.HexToAddress("0x00000000000000000000000000000000000b0b00")

type fakeStream struct {
	added []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

type brokenSink struct{}

func (brokenSink) Publish(context.Context, ...domain.Event) error {
	return errors.New("unreachable")
}

func TestNewRecordEncodesAmountsAsDecimal(t *testing.T) {
	amount, err := domain.ParseAmount("1.5", domain.TokenDecimals)
	require.NoError(t, err)

	rec, err := NewRecord(domain.TokensMinted{To: holder, Amount: *amount}, time.Unix(0, 0))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "TokensMinted", rec.Name)

	var data map[string]any
	require.NoError(t, json.Unmarshal(rec.Data, &data))
	assert.Equal(t, "1500000000000000000", data["Amount"])
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	j := NewJournalSink(dir)
	assert.Equal(t, filepath.Join(dir, JournalFile), j.Path())

	require.NoError(t, j.Publish(ctx, domain.Paused{By: holder}, domain.Unpaused{By: holder}))
	require.NoError(t, j.Publish(ctx, domain.Deposited{From: holder, Amount: *uint256.NewInt(3)}))

	all, err := ReadJournal(j.Path(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Paused", all[0].Name)
	assert.Equal(t, "Deposited", all[2].Name)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	last, err := ReadJournal(j.Path(), 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "Unpaused", last[0].Name)

	missing, err := ReadJournal(filepath.Join(dir, "nope.jsonl"), 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRedisSink(t *testing.T) {
	ctx := context.Background()

	t.Run("adds one entry per event", func(t *testing.T) {
		stream := &fakeStream{}
		s := NewRedisSink(stream, "")
		require.NoError(t, s.Publish(ctx, domain.Paused{By: holder}, domain.WithdrawalCanceled{RequestID: 4}))

		require.Len(t, stream.added, 2)
		assert.Equal(t, DefaultStream, stream.added[0].Stream)
		values := stream.added[1].Values.(map[string]any)
		assert.Equal(t, "WithdrawalCanceled", values["name"])
		assert.Contains(t, values["data"], `"RequestID":4`)
	})

	t.Run("reports failures", func(t *testing.T) {
		s := NewRedisSink(&fakeStream{err: errors.New("connection refused")}, "gov")
		err := s.Publish(ctx, domain.Paused{By: holder})
		assert.ErrorContains(t, err, "stream gov")
	})
}

func TestMultiSink(t *testing.T) {
	ctx := context.Background()
	a, b := NewRecorder(), NewRecorder()

	m := NewMultiSink(a, brokenSink{})
	m.Add(b)
	err := m.Publish(ctx, domain.Paused{By: holder})

	assert.Error(t, err)
	assert.Equal(t, []string{"Paused"}, a.Names())
	assert.Equal(t, []string{"Paused"}, b.Names())

	assert.Len(t, a.Drain(), 1)
	assert.Empty(t, a.Events())
}

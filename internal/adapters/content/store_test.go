package content_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/adapters/content"
	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

func TestStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func(t *testing.T) usecase.ContentStore{
		"file":   func(t *testing.T) usecase.ContentStore { return content.NewFileStore(t.TempDir()) },
		"memory": func(t *testing.T) usecase.ContentStore { return content.NewMemoryStore() },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			body := []byte("Fund the audit\n\nPay the auditors 10 ETH.")

			hash, err := s.Put(ctx, body)
			require.NoError(t, err)
			assert.Equal(t, crypto.Keccak256Hash(body), hash)

			again, err := s.Put(ctx, body)
			require.NoError(t, err)
			assert.Equal(t, hash, again)

			got, err := s.Get(ctx, hash)
			require.NoError(t, err)
			assert.Equal(t, body, got)

			_, err = s.Get(ctx, crypto.Keccak256Hash([]byte("missing")))
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestFileStoreDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := content.NewFileStore(dir)

	hash, err := s.Put(ctx, []byte("original"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", hash.Hex()[2:]+".txt"), []byte("tampered"), 0644))

	_, err = s.Get(ctx, hash)
	assert.ErrorContains(t, err, "corrupted")
}

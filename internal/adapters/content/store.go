package content

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trebuchet-org/dvote/internal/domain"
)

// FileStore keeps proposal bodies as files named by their keccak256 hash
type FileStore struct {
	dir string
}

// NewFileStore creates a store under dataDir/content
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dir: filepath.Join(dataDir, "content")}
}

func (s *FileStore) Put(_ context.Context, content []byte) (common.Hash, error) {
	hash := crypto.Keccak256Hash(content)
	path := s.path(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return common.Hash{}, fmt.Errorf("failed to create content directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return common.Hash{}, fmt.Errorf("failed to write content: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return common.Hash{}, fmt.Errorf("failed to write content: %w", err)
	}
	return hash, nil
}

func (s *FileStore) Get(_ context.Context, hash common.Hash) ([]byte, error) {
	data, err := os.ReadFile(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("content %s: %w", hash.Hex(), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	if got := crypto.Keccak256Hash(data); got != hash {
		return nil, fmt.Errorf("content %s is corrupted: hash is %s", hash.Hex(), got.Hex())
	}
	return data, nil
}

func (s *FileStore) path(hash common.Hash) string {
	return filepath.Join(s.dir, hash.Hex()[2:]+".txt")
}

// MemoryStore keeps proposal bodies in memory
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[common.Hash][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[common.Hash][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, content []byte) (common.Hash, error) {
	hash := crypto.Keccak256Hash(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[hash] = bytes.Clone(content)
	return hash, nil
}

func (s *MemoryStore) Get(_ context.Context, hash common.Hash) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[hash]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", hash.Hex(), domain.ErrNotFound)
	}
	return bytes.Clone(data), nil
}

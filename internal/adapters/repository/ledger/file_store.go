package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/trebuchet-org/dvote/internal/domain/models"
)

const (
	governanceTable = "governance"
	identitiesTable = "identities"
	tokenTable      = "token"
	treasuryTable   = "treasury"
	headFile        = "ledger.json"
)

var rename = os.Rename

// tableFile names the generation of a table written at version.
func tableFile(table string, version uint64) string {
	return fmt.Sprintf("%s.v%d.json", table, version)
}

// head is the commit marker written after all tables. Load only reads the
// table generation it names.
type head struct {
	Version uint64    `json:"version"`
	Time    time.Time `json:"time"`
}

// table wraps a table with the version it was written at
type table[T any] struct {
	Version uint64 `json:"version"`
	Data    T      `json:"data"`
}

// FileStore keeps the ledger as one JSON file per table in the data directory
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dataDir, creating the directory.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dataDir}, nil
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads all tables. It returns nil when the ledger was never committed and
// an error when the tables disagree with the commit marker.
func (s *FileStore) Load() (*models.State, error) {
	var h head
	found, err := s.loadFile(headFile, &h)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	state := &models.State{Version: h.Version, Time: h.Time}
	var (
		gov table[models.GovernanceState]
		ids table[models.IdentityState]
		tok table[models.TokenState]
		trs table[models.TreasuryState]
	)
	for _, f := range []struct {
		table   string
		into    any
		version *uint64
	}{
		{governanceTable, &gov, &gov.Version},
		{identitiesTable, &ids, &ids.Version},
		{tokenTable, &tok, &tok.Version},
		{treasuryTable, &trs, &trs.Version},
	} {
		name := tableFile(f.table, h.Version)
		found, err := s.loadFile(name, f.into)
		if err != nil {
			return nil, err
		}
		if !found || *f.version != h.Version {
			return nil, fmt.Errorf("ledger table %s does not match committed version %d", name, h.Version)
		}
	}
	state.Governance = gov.Data
	state.Identity = ids.Data
	state.Token = tok.Data
	state.Treasury = trs.Data
	return state, nil
}

// Save writes a new generation of every table, then renames the commit
// marker into place. A save that stops early leaves the marker on the
// previous generation, which stays loadable; superseded generations are
// removed once the marker moved.
func (s *FileStore) Save(state *models.State) error {
	tables := []struct {
		table string
		data  any
	}{
		{governanceTable, table[*models.GovernanceState]{state.Version, &state.Governance}},
		{identitiesTable, table[*models.IdentityState]{state.Version, &state.Identity}},
		{tokenTable, table[*models.TokenState]{state.Version, &state.Token}},
		{treasuryTable, table[*models.TreasuryState]{state.Version, &state.Treasury}},
	}

	for _, t := range tables {
		if err := s.writeFile(tableFile(t.table, state.Version), t.data); err != nil {
			return err
		}
	}
	if err := s.writeFile(headFile, head{Version: state.Version, Time: state.Time}); err != nil {
		return err
	}

	for _, t := range tables {
		s.prune(t.table, state.Version)
	}
	return nil
}

// writeFile writes v to a temporary file and renames it to name.
func (s *FileStore) writeFile(name string, v any) error {
	tmp, err := s.writeTemp(name, v)
	if err != nil {
		return err
	}
	if err := rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// prune removes generations of table other than the committed one.
func (s *FileStore) prune(table string, committed uint64) {
	matches, err := filepath.Glob(filepath.Join(s.dir, table+".v*.json"))
	if err != nil {
		return
	}
	keep := tableFile(table, committed)
	for _, m := range matches {
		if filepath.Base(m) != keep {
			_ = os.Remove(m)
		}
	}
}

func (s *FileStore) loadFile(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

func (s *FileStore) writeTemp(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return tmp, nil
}

// MemoryStore keeps the committed state in memory only
type MemoryStore struct {
	state *models.State
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*models.State, error) {
	if s.state == nil {
		return nil, nil
	}
	return s.state.Clone(), nil
}

func (s *MemoryStore) Save(state *models.State) error {
	s.state = state.Clone()
	return nil
}

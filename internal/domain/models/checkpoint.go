package models

import (
	"sort"

	"github.com/holiman/uint256"
)

// Checkpoint records the value that became effective at a ledger version
type Checkpoint struct {
	Version uint64      `json:"version"`
	Value   uint256.Int `json:"value"`
}

// CheckpointLog is an append-only history ordered by version.
type CheckpointLog []Checkpoint

// Latest returns the most recent value, zero for an empty log.
func (l CheckpointLog) Latest() *uint256.Int {
	if len(l) == 0 {
		return new(uint256.Int)
	}
	v := l[len(l)-1].Value
	return &v
}

// At returns the value effective at version: the last checkpoint whose
// version is <= the requested one.
func (l CheckpointLog) At(version uint64) *uint256.Int {
	// first index with Version > version
	i := sort.Search(len(l), func(i int) bool { return l[i].Version > version })
	if i == 0 {
		return new(uint256.Int)
	}
	v := l[i-1].Value
	return &v
}

// Push records value at version. A checkpoint written again within the same
// version replaces the previous one so each version holds a single value.
// Versions must not decrease.
func (l CheckpointLog) Push(version uint64, value *uint256.Int) CheckpointLog {
	if n := len(l); n > 0 && l[n-1].Version == version {
		l[n-1].Value = *value
		return l
	}
	return append(l, Checkpoint{Version: version, Value: *value})
}

// Clone returns an independent copy of the log.
func (l CheckpointLog) Clone() CheckpointLog {
	if l == nil {
		return nil
	}
	c := make(CheckpointLog, len(l))
	copy(c, l)
	return c
}

package models

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestCheckpointLog(t *testing.T) {
	var log CheckpointLog
	assert.True(t, log.Latest().IsZero())
	assert.True(t, log.At(10).IsZero())

	log = log.Push(3, uint256.NewInt(5))
	log = log.Push(7, uint256.NewInt(9))
	log = log.Push(7, uint256.NewInt(4))
	log = log.Push(12, uint256.NewInt(1))
	assert.Len(t, log, 3)

	tests := []struct {
		version uint64
		want    uint64
	}{
		{0, 0},
		{2, 0},
		{3, 5},
		{6, 5},
		{7, 4},
		{11, 4},
		{12, 1},
		{100, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, log.At(tt.version).Uint64(), "version %d", tt.version)
	}
	assert.Equal(t, uint64(1), log.Latest().Uint64())

	c := log.Clone()
	c[0].Value = *uint256.NewInt(77)
	assert.Equal(t, uint64(5), log.At(3).Uint64())
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelsPerTile(t *testing.T) {
	for sRes, want := range map[string]int{"250": 4800, "500": 2400, "1000": 1200} {
		got, err := PixelsPerTile(sRes)
		require.NoError(t, err)
		assert.Equal(t, want, got, sRes)
	}
	_, err := PixelsPerTile("30")
	assert.Error(t, err)
}

func TestChunkPixel(t *testing.T) {
	tests := []struct {
		chunkID, size, offset int
		col, row              int
	}{
		{0, 10, 0, 0, 0},
		{0, 10, 9, 9, 0},
		{1, 10, 0, 10, 0},
		{119, 10, 9, 1199, 0},
		{120, 10, 0, 0, 1},
		{143999, 10, 9, 1199, 1199},
	}
	for _, tt := range tests {
		col, row, err := ChunkPixel(1200, tt.chunkID, tt.size, tt.offset)
		require.NoError(t, err)
		assert.Equal(t, [2]int{tt.col, tt.row}, [2]int{col, row}, "chunk %d offset %d", tt.chunkID, tt.offset)
	}
}

func TestChunkPixel_OutsideTile(t *testing.T) {
	_, _, err := ChunkPixel(1200, 144000, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, _, err = ChunkPixel(1200, -1, 10, 0)
	assert.Error(t, err)
}

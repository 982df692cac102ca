package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_OneDimension(t *testing.T) {
	pixels := []NDPixel[string]{
		{Coords: []int{0}, Value: "a"},
		{Coords: []int{4}, Value: "e"},
		{Coords: []int{1}, Value: "b"},
	}

	windows, err := Partition(pixels, []int{3}, ".")
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, []int{0}, windows[0].Index)
	assert.Equal(t, []string{"a", "b", "."}, windows[0].Cells)
	assert.Equal(t, []int{1}, windows[1].Index)
	assert.Equal(t, []string{".", "e", "."}, windows[1].Cells)
}

func TestPartition_TwoDimensionsRowMajor(t *testing.T) {
	// 4x4 grid split into 2x2 windows; values encode (row, col).
	var pixels []NDPixel[int]
	for r := range 4 {
		for c := range 4 {
			pixels = append(pixels, NDPixel[int]{Coords: []int{r, c}, Value: r*10 + c})
		}
	}

	windows, err := Partition(pixels, []int{2, 2}, -1)
	require.NoError(t, err)
	require.Len(t, windows, 4)

	assert.Equal(t, []int{0, 0}, windows[0].Index)
	assert.Equal(t, []int{0, 1, 10, 11}, windows[0].Cells)
	assert.Equal(t, []int{0, 1}, windows[1].Index)
	assert.Equal(t, []int{2, 3, 12, 13}, windows[1].Cells)
	assert.Equal(t, []int{1, 0}, windows[2].Index)
	assert.Equal(t, []int{20, 21, 30, 31}, windows[2].Cells)
	assert.Equal(t, []int{1, 1}, windows[3].Index)
	assert.Equal(t, []int{22, 23, 32, 33}, windows[3].Cells)
}

func TestPartition_EdgeWindowPadded(t *testing.T) {
	pixels := []NDPixel[int]{{Coords: []int{2, 2}, Value: 9}}

	windows, err := Partition(pixels, []int{2, 2}, 0)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, []int{1, 1}, windows[0].Index)
	assert.Equal(t, []int{9, 0, 0, 0}, windows[0].Cells)
}

func TestPartition_Errors(t *testing.T) {
	_, err := Partition([]NDPixel[int]{{Coords: []int{0}}}, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Partition([]NDPixel[int]{{Coords: []int{0}}}, []int{0}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Partition([]NDPixel[int]{{Coords: []int{0, 1}}}, []int{2}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Partition([]NDPixel[int]{{Coords: []int{-1}}}, []int{2}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPartitionTile_FlattenIsInverse(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const rows, cols = 13, 17
	dims := []int{4, 5}

	want := make(map[[2]int]int)
	var pixels []Pixel[int]
	for r := range rows {
		for c := range cols {
			if rng.IntN(3) == 0 {
				continue
			}
			v := rng.IntN(1000) + 1
			want[[2]int{c, r}] = v
			pixels = append(pixels, Pixel[int]{Col: c, Row: r, Value: v})
		}
	}

	windows, err := PartitionTile(28, 8, pixels, dims, 0)
	require.NoError(t, err)

	got := make(map[[2]int]int)
	for _, w := range windows {
		assert.Equal(t, 28, w.TileH)
		assert.Equal(t, 8, w.TileV)
		assert.Equal(t, 4, w.Rows())
		assert.Equal(t, 5, w.Cols())
		require.Len(t, w.Cells, 20)
		for idx, v := range w.Cells {
			if v == 0 {
				continue
			}
			col, row := ToGlobal(w.Cols(), w.Rows(), w.WinCol, w.WinRow, idx)
			got[[2]int{col, row}] = v
		}
	}
	assert.Equal(t, want, got)
}

func TestPartitionTile_BroadcastsSingleDim(t *testing.T) {
	windows, err := PartitionTile(1, 2, []Pixel[int]{{Col: 5, Row: 1, Value: 3}}, []int{3}, 0)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	w := windows[0]
	assert.Equal(t, [2]int{3, 3}, w.Dims)
	assert.Equal(t, 1, w.WinCol)
	assert.Equal(t, 0, w.WinRow)
	assert.Equal(t, 3, w.Cells[1*3+2])
}

func TestBroadcastDims(t *testing.T) {
	got, err := BroadcastDims(2, []int{7})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 7}, got)

	got, err = BroadcastDims(2, []int{3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, got)

	_, err = BroadcastDims(2, []int{1, 2, 3})
	assert.Error(t, err)
}

package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NDPixel is a value at an N-dimensional coordinate (one entry per dimension).
type NDPixel[V any] struct {
	Coords []int
	Value  V
}

// NDWindow is a dense, row-major block of cells. Index holds the window
// coordinate per dimension; Dims the block extent per dimension.
type NDWindow[V any] struct {
	Index []int
	Dims  []int
	Cells []V
}

// Pixel is a value at a tile pixel position.
type Pixel[V any] struct {
	Col   int
	Row   int
	Value V
}

// Window is a 2-D NDWindow located in a tile. Dims is [rows, cols].
type Window[V any] struct {
	TileH  int
	TileV  int
	WinCol int
	WinRow int
	Dims   [2]int
	Cells  []V
}

// Rows returns the number of cell rows.
func (w Window[V]) Rows() int { return w.Dims[0] }

// Cols returns the number of cell columns.
func (w Window[V]) Cols() int { return w.Dims[1] }

// BroadcastDims expands a single extent to k dimensions; k extents pass
// through unchanged.
func BroadcastDims(k int, dims []int) ([]int, error) {
	switch len(dims) {
	case k:
		return slices.Clone(dims), nil
	case 1:
		out := make([]int, k)
		for i := range out {
			out[i] = dims[0]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot broadcast %d window dims to %d dimensions", len(dims), k)
	}
}

// partitionStage is a pixel part-way through the dimension fold: the window
// indices of the dimensions folded so far and its row-major offset inside
// that partial window.
type partitionStage[V any] struct {
	window []int
	offset int
	value  V
}

// Partition splits pixels into windows of the given extents. Dimensions are
// folded left to right; each fold splits the coordinate into (window index,
// offset) and extends the in-window offset. Every window touched by at least
// one pixel is emitted at full size, with emptyFill where no pixel lands.
// Windows are returned in ascending window-index order.
func Partition[V any](pixels []NDPixel[V], dims []int, emptyFill V) ([]NDWindow[V], error) {
	if len(dims) == 0 {
		return nil, &KeyError{Kind: KindInvalidInput, Detail: "no window dimensions"}
	}
	size := 1
	for _, d := range dims {
		if d <= 0 {
			return nil, &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("window dimension %d", d)}
		}
		size *= d
	}

	stages := make([]partitionStage[V], len(pixels))
	for i, p := range pixels {
		if len(p.Coords) != len(dims) {
			return nil, &KeyError{
				Kind:   KindInvalidInput,
				Detail: fmt.Sprintf("pixel %d has %d coordinates for %d dimensions", i, len(p.Coords), len(dims)),
			}
		}
		stages[i] = partitionStage[V]{window: make([]int, 0, len(dims)), value: p.Value}
	}

	for d, dimLen := range dims {
		for i := range stages {
			c := pixels[i].Coords[d]
			if c < 0 {
				return nil, &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("negative coordinate %d", c)}
			}
			stages[i].window = append(stages[i].window, c/dimLen)
			stages[i].offset = stages[i].offset*dimLen + c%dimLen
		}
	}

	type group struct {
		index   []int
		entries []Entry[V]
	}
	groups := make(map[string]*group)
	for _, s := range stages {
		key := windowKey(s.window)
		g, ok := groups[key]
		if !ok {
			g = &group{index: s.window}
			groups[key] = g
		}
		g.entries = append(g.entries, Entry[V]{Index: s.offset, Value: s.value})
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	slices.SortFunc(ordered, func(a, b *group) int { return slices.Compare(a.index, b.index) })

	out := make([]NDWindow[V], len(ordered))
	for i, g := range ordered {
		out[i] = NDWindow[V]{
			Index: g.index,
			Dims:  slices.Clone(dims),
			Cells: Expand(emptyFill, g.entries, 0, size),
		}
	}
	return out, nil
}

// PartitionTile is the 2-D form of Partition for one tile. dims is [rows,
// cols] or a single extent used for both.
func PartitionTile[V any](tileH, tileV int, pixels []Pixel[V], dims []int, emptyFill V) ([]Window[V], error) {
	wd, err := BroadcastDims(2, dims)
	if err != nil {
		return nil, &KeyError{Kind: KindInvalidInput, Detail: err.Error()}
	}

	nd := make([]NDPixel[V], len(pixels))
	for i, p := range pixels {
		nd[i] = NDPixel[V]{Coords: []int{p.Row, p.Col}, Value: p.Value}
	}

	windows, err := Partition(nd, wd, emptyFill)
	if err != nil {
		return nil, err
	}

	out := make([]Window[V], len(windows))
	for i, w := range windows {
		out[i] = Window[V]{
			TileH:  tileH,
			TileV:  tileV,
			WinRow: w.Index[0],
			WinCol: w.Index[1],
			Dims:   [2]int{wd[0], wd[1]},
			Cells:  w.Cells,
		}
	}
	return out, nil
}

func windowKey(idx []int) string {
	var b strings.Builder
	for i, v := range idx {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

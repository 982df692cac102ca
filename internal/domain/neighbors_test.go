package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMissing = -9999.0

func fora(short, long, tstat float64, fire *FireTuple) ForaValue {
	return ForaValue{Fire: fire, ShortDrop: short, LongDrop: long, TStat: tstat}
}

func TestCombineNeighbors(t *testing.T) {
	got := CombineNeighbors([]ForaValue{
		fora(-2, -4, -1, &FireTuple{Temp330: 1, Count: 2}),
		fora(-6, 0, -3, nil),
		fora(-1, -2, 1, &FireTuple{Conf50: 3, BothPreds: 1, Count: 3}),
	})

	assert.Equal(t, NeighborStats{
		Fire:         FireTuple{Temp330: 1, Conf50: 3, BothPreds: 1, Count: 5},
		Count:        3,
		AvgShortDrop: -3,
		MinShortDrop: -6,
		AvgLongDrop:  -2,
		MinLongDrop:  -4,
		AvgTStat:     -1,
		MinTStat:     -3,
	}, got)
}

func TestCombineNeighbors_Empty(t *testing.T) {
	assert.Equal(t, NeighborStats{}, CombineNeighbors(nil))
}

func uniformWindow(rows, cols int, v ForaValue) Window[ForaValue] {
	cells := make([]ForaValue, rows*cols)
	for i := range cells {
		cells[i] = v
	}
	return Window[ForaValue]{Dims: [2]int{rows, cols}, Cells: cells}
}

func TestAggregateNeighbors_UniformWindow(t *testing.T) {
	fire := FireTuple{Temp330: 1, Conf50: 1, BothPreds: 1, Count: 1}
	w := uniformWindow(5, 5, fora(-2, -3, -4, &fire))

	results := AggregateNeighbors(w, 1, testMissing)
	require.Len(t, results, 25)

	// Interior cells see the full 3x3 neighborhood minus the centre.
	centre := results[2*5+2]
	assert.Equal(t, 12, centre.Index)
	assert.Equal(t, 8, centre.Stats.Count)
	assert.Equal(t, fire.Scale(8), centre.Stats.Fire)
	assert.Equal(t, -2.0, centre.Stats.AvgShortDrop)
	assert.Equal(t, -3.0, centre.Stats.MinLongDrop)

	// Corners and edges are clipped to the window.
	assert.Equal(t, 3, results[0].Stats.Count)
	assert.Equal(t, 5, results[2].Stats.Count)
	assert.Equal(t, 3, results[24].Stats.Count)
}

func TestAggregateNeighbors_SkipsMissing(t *testing.T) {
	missing := MissingFora(testMissing)
	w := Window[ForaValue]{
		Dims: [2]int{2, 2},
		Cells: []ForaValue{
			fora(-1, -1, -1, nil), missing,
			missing, fora(-3, -3, -3, nil),
		},
	}

	results := AggregateNeighbors(w, 1, testMissing)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, results[0].Stats.Count)
	assert.Equal(t, -3.0, results[0].Stats.AvgShortDrop)

	assert.Equal(t, 3, results[1].Index)
	assert.Equal(t, 1, results[1].Stats.Count)
	assert.Equal(t, -1.0, results[1].Stats.MinTStat)
}

func TestAggregateNeighbors_SingleMissingCell(t *testing.T) {
	w := uniformWindow(1, 1, MissingFora(testMissing))
	assert.Empty(t, AggregateNeighbors(w, 1, testMissing))
}

func TestAggregateNeighbors_IsolatedCell(t *testing.T) {
	w := uniformWindow(1, 1, fora(-1, -2, -3, nil))
	results := AggregateNeighbors(w, 2, testMissing)
	require.Len(t, results, 1)
	assert.Equal(t, NeighborStats{}, results[0].Stats)
}

func TestAggregateNeighbors_ZeroRadius(t *testing.T) {
	w := uniformWindow(3, 3, fora(-1, -1, -1, nil))
	for _, r := range AggregateNeighbors(w, 0, testMissing) {
		assert.Equal(t, 0, r.Stats.Count)
	}
}

func TestAggregateNeighbors_SkipsPartiallyMissing(t *testing.T) {
	w := Window[ForaValue]{
		Dims:  [2]int{1, 2},
		Cells: []ForaValue{fora(-1, -2, 1, nil), fora(-1, testMissing, testMissing, nil)},
	}

	results := AggregateNeighbors(w, 1, testMissing)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, NeighborStats{}, results[0].Stats)
}

package domain

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NeighborResult is the neighbor aggregate for one non-missing window cell.
type NeighborResult struct {
	Index int // row-major index inside the window
	Value ForaValue
	Stats NeighborStats
}

// CombineNeighbors sums neighbor fire tuples and takes the mean and minimum
// of each drop statistic. An empty neighbor set yields the zero NeighborStats.
func CombineNeighbors(neighbors []ForaValue) NeighborStats {
	if len(neighbors) == 0 {
		return NeighborStats{}
	}

	short := make([]float64, len(neighbors))
	long := make([]float64, len(neighbors))
	tstat := make([]float64, len(neighbors))
	fires := make([]FireTuple, len(neighbors))
	for i, n := range neighbors {
		fires[i] = n.FireOrZero()
		short[i] = n.ShortDrop
		long[i] = n.LongDrop
		tstat[i] = n.TStat
	}

	return NeighborStats{
		Fire:         SumFires(fires),
		Count:        len(neighbors),
		AvgShortDrop: stat.Mean(short, nil),
		MinShortDrop: floats.Min(short),
		AvgLongDrop:  stat.Mean(long, nil),
		MinLongDrop:  floats.Min(long),
		AvgTStat:     stat.Mean(tstat, nil),
		MinTStat:     floats.Min(tstat),
	}
}

// AggregateNeighbors scans a window and, for every non-missing cell, combines
// the non-missing cells within radius (a square of side 2r+1, centre
// excluded). Neighbors falling outside the window are not considered, so
// cells near the window edge see fewer neighbors. Results are in cell order.
func AggregateNeighbors(w Window[ForaValue], radius int, missing float64) []NeighborResult {
	rows, cols := w.Rows(), w.Cols()
	var out []NeighborResult
	neighbors := make([]ForaValue, 0, (2*radius+1)*(2*radius+1))

	for row := range rows {
		for col := range cols {
			idx := row*cols + col
			center := w.Cells[idx]
			if center.IsMissing(missing) {
				continue
			}

			neighbors = neighbors[:0]
			for i := max(0, row-radius); i <= min(rows-1, row+radius); i++ {
				for j := max(0, col-radius); j <= min(cols-1, col+radius); j++ {
					if i == row && j == col {
						continue
					}
					n := w.Cells[i*cols+j]
					if n.IsMissing(missing) {
						continue
					}
					neighbors = append(neighbors, n)
				}
			}

			out = append(out, NeighborResult{
				Index: idx,
				Value: center,
				Stats: CombineNeighbors(neighbors),
			})
		}
	}
	return out
}

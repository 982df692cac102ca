package trend

import (
	"math"
	"testing"

	"github.com/couchcryptid/forma-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missing = -9999.0

// wiggle is a non-constant, non-linear covariate so the design matrix is
// full rank.
func wiggle(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10 + 3*math.Sin(float64(i))
	}
	return out
}

func TestCompute_LinearDecline(t *testing.T) {
	const n = 40
	series := make([]float64, n)
	for i := range series {
		series[i] = 8000 - 25*float64(i)
	}
	d := New(missing)

	out, err := d.Compute(series, wiggle(n), domain.EstWindow{Start: 30, End: 39}, 20, 5)
	require.NoError(t, err)
	require.Len(t, out.ShortDrop, 10)

	for i := range 10 {
		assert.InDelta(t, -25.0, out.ShortDrop[i], 1e-6)
		assert.InDelta(t, -25.0, out.LongDrop[i], 1e-6)
	}
}

func TestCompute_ShortDropTracksWorstWindow(t *testing.T) {
	const n = 30
	series := make([]float64, n)
	for i := range series {
		series[i] = 5000
	}
	// A sharp dip well before the estimation window.
	series[10] = 4000
	series[11] = 3000

	d := New(missing)
	out, err := d.Compute(series, wiggle(n), domain.EstWindow{Start: 25, End: 29}, 10, 3)
	require.NoError(t, err)

	for i := range 5 {
		assert.Less(t, out.ShortDrop[i], -500.0, "running minimum must keep the earlier dip")
	}
}

func TestCompute_MissingValuesBecomeGaps(t *testing.T) {
	const n = 12
	series := make([]float64, n)
	for i := range series {
		series[i] = missing
	}
	d := New(missing)

	out, err := d.Compute(series, wiggle(n), domain.EstWindow{Start: 8, End: 11}, 6, 3)
	require.NoError(t, err)
	for i := range 4 {
		assert.Equal(t, missing, out.ShortDrop[i])
		assert.Equal(t, missing, out.LongDrop[i])
		assert.Equal(t, missing, out.TStat[i])
	}
}

func TestCompute_Errors(t *testing.T) {
	d := New(missing)

	_, err := d.Compute(make([]float64, 5), make([]float64, 4), domain.EstWindow{Start: 0, End: 1}, 4, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "covariate")

	_, err = d.Compute(make([]float64, 5), make([]float64, 5), domain.EstWindow{Start: 3, End: 7}, 4, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimation window")

	_, err = d.Compute(make([]float64, 5), make([]float64, 5), domain.EstWindow{Start: 0, End: 1}, 2, 2)
	require.Error(t, err)
}

func TestCompute_AcceptsSmallestValidBlocks(t *testing.T) {
	p := domain.Params{
		EstStart: "a", EstEnd: "b", TRes: "16", WindowDims: []int{1},
		LongBlock: domain.MinLongBlock, Window: domain.MinWindow, MissingValue: missing,
	}
	require.NoError(t, p.Validate())

	_, err := New(missing).Compute(make([]float64, 6), wiggle(6), domain.EstWindow{Start: 4, End: 5}, p.LongBlock, p.Window)
	assert.NoError(t, err)
}

type periodResolver map[string]int

func (r periodResolver) DateToPeriod(_, date string) (int, error) { return r[date], nil }

func (r periodResolver) PeriodToDate(string, int) (string, error) { return "", nil }

func TestProcessTile_PartialOutputsStayOutOfNeighborStats(t *testing.T) {
	const n = 20
	ndvi := make([]float64, n)
	gap := make([]float64, n)
	for i := range n {
		ndvi[i] = 8000 - 25*float64(i)
		gap[i] = missing
	}
	dyn := func(dataset string, col int, values []float64) *domain.DynamicSeries {
		return &domain.DynamicSeries{Dataset: dataset, Col: col, Series: domain.DoubleSeries(0, values)}
	}
	b := domain.TileBundle{
		TileH: 28, TileV: 8, SRes: "1000", TRes: "16",
		Records: []domain.Record{
			dyn(domain.DatasetNDVI, 0, ndvi),
			dyn(domain.DatasetPrecl, 0, wiggle(n)),
			// No usable covariate: short drops exist, long fits do not.
			dyn(domain.DatasetNDVI, 1, ndvi),
			dyn(domain.DatasetPrecl, 1, gap),
		},
	}
	p := domain.Params{
		EstStart: "start", EstEnd: "end", TRes: "16",
		Neighbors: 1, WindowDims: []int{4}, LongBlock: 10, Window: 5,
		MissingValue: missing,
	}

	res, err := domain.ProcessTile(b, p, periodResolver{"start": 15, "end": 19}, New(missing))
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, res.Pixels)

	require.Len(t, res.Records, 5)
	for _, r := range res.Records {
		assert.Equal(t, 0, r.Coord.Col)
		assert.InDelta(t, -25.0, r.Value.LongDrop, 1e-6)
		assert.Equal(t, domain.NeighborStats{}, r.Stats)
	}
}

// Package mockdata generates deterministic synthetic tile bundles for tests,
// local runs and the integration suite.
//
// A generated bundle covers a Cols × Rows block in the top-left corner of a
// tile. Vegetation arrives as integer raw chunks (one chunk per block row),
// precipitation as per-pixel double series, plus fire series for the
// cleared pixels and a VCF static chunk per block row.
package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/forma-etl/internal/domain"
)

// Options controls the generated bundle.
type Options struct {
	TileH       int
	TileV       int
	SRes        string
	TRes        string
	Cols        int // block width; must divide the tile edge
	Rows        int
	FirstPeriod int
	Periods     int
	// ClearingRate is the share of pixels that lose vegetation at
	// ClearingPeriod.
	ClearingRate   float64
	ClearingPeriod int
	MissingRate    float64 // share of vegetation values replaced by Missing
	Missing        float64
	Seed           uint64
}

// DefaultOptions returns a small 16-day bundle over tile 28/8 at 1000 m.
func DefaultOptions() Options {
	return Options{
		TileH:          28,
		TileV:          8,
		SRes:           "1000",
		TRes:           "16",
		Cols:           20,
		Rows:           10,
		FirstPeriod:    130,
		Periods:        40,
		ClearingRate:   0.2,
		ClearingPeriod: 160,
		MissingRate:    0.02,
		Missing:        domain.DefaultMissingValue,
		Seed:           1,
	}
}

// Generate builds a bundle from opts.
func Generate(opts Options) (domain.TileBundle, error) {
	edge, err := domain.PixelsPerTile(opts.SRes)
	if err != nil {
		return domain.TileBundle{}, err
	}
	if opts.Cols <= 0 || edge%opts.Cols != 0 {
		return domain.TileBundle{}, fmt.Errorf("block width %d must divide tile edge %d", opts.Cols, edge)
	}
	if opts.Rows <= 0 || opts.Rows > edge {
		return domain.TileBundle{}, fmt.Errorf("block height %d outside 1..%d", opts.Rows, edge)
	}
	if opts.Periods <= 0 {
		return domain.TileBundle{}, fmt.Errorf("periods must be positive, got %d", opts.Periods)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	chunksPerRow := edge / opts.Cols
	b := domain.TileBundle{TileH: opts.TileH, TileV: opts.TileV, SRes: opts.SRes, TRes: opts.TRes}

	cleared := make([][]bool, opts.Rows)
	for row := range cleared {
		cleared[row] = make([]bool, opts.Cols)
		for col := range cleared[row] {
			cleared[row][col] = rng.Float64() < opts.ClearingRate
		}
	}

	for row := range opts.Rows {
		chunkID := row * chunksPerRow
		for t := range opts.Periods {
			period := opts.FirstPeriod + t
			values := make([]int64, opts.Cols)
			for col := range values {
				if rng.Float64() < opts.MissingRate {
					values[col] = int64(opts.Missing)
					continue
				}
				v := 7500 + 600*math.Sin(2*math.Pi*float64(period)/23) + rng.NormFloat64()*150
				if cleared[row][col] && period >= opts.ClearingPeriod {
					v -= 3500 + 40*float64(period-opts.ClearingPeriod)
				}
				values[col] = int64(math.Round(v))
			}
			b.Records = append(b.Records, &domain.RawChunk{
				Dataset:   domain.DatasetNDVI,
				SRes:      opts.SRes,
				TRes:      opts.TRes,
				TileH:     opts.TileH,
				TileV:     opts.TileV,
				ChunkID:   chunkID,
				ChunkSize: opts.Cols,
				Period:    period,
				Values:    domain.Raster{Kind: domain.SeriesInt, Ints: values},
			})
		}

		vcf := make([]int64, opts.Cols)
		for col := range vcf {
			vcf[col] = int64(rng.IntN(100))
		}
		b.Records = append(b.Records, &domain.StaticChunk{
			Dataset:   domain.DatasetVCF,
			SRes:      opts.SRes,
			TileH:     opts.TileH,
			TileV:     opts.TileV,
			ChunkID:   chunkID,
			ChunkSize: opts.Cols,
			Values:    vcf,
		})

		for col := range opts.Cols {
			precl := make([]float64, opts.Periods)
			for t := range precl {
				precl[t] = math.Max(0, 120+80*math.Sin(2*math.Pi*float64(opts.FirstPeriod+t)/23+1)+rng.NormFloat64()*20)
			}
			b.Records = append(b.Records, &domain.DynamicSeries{
				Dataset: domain.DatasetPrecl,
				SRes:    opts.SRes,
				TRes:    opts.TRes,
				TileH:   opts.TileH,
				TileV:   opts.TileV,
				Col:     col,
				Row:     row,
				Series:  domain.DoubleSeries(opts.FirstPeriod, precl),
			})

			if !cleared[row][col] {
				continue
			}
			fires := make([]domain.FireTuple, opts.Periods)
			for t := range fires {
				period := opts.FirstPeriod + t
				if period < opts.ClearingPeriod-1 || period > opts.ClearingPeriod+2 {
					continue
				}
				n := 1 + rng.IntN(4)
				hot := rng.IntN(n + 1)
				conf := rng.IntN(n + 1)
				fires[t] = domain.FireTuple{Temp330: hot, Conf50: conf, BothPreds: min(hot, conf), Count: n}
			}
			b.Records = append(b.Records, &domain.FireSeries{
				SRes:   opts.SRes,
				TRes:   opts.TRes,
				TileH:  opts.TileH,
				TileV:  opts.TileV,
				Col:    col,
				Row:    row,
				Series: domain.NewTimeSeries(opts.FirstPeriod, fires),
			})
		}
	}

	// Shuffle so consumers cannot rely on arrival order.
	rng.Shuffle(len(b.Records), func(i, j int) { b.Records[i], b.Records[j] = b.Records[j], b.Records[i] })
	return b, nil
}

// Coverage reports the block's pixel coordinates in row-major order.
func (o Options) Coverage() []domain.PixelCoordinate {
	out := make([]domain.PixelCoordinate, 0, o.Cols*o.Rows)
	for row := range o.Rows {
		for col := range o.Cols {
			out = append(out, domain.PixelCoordinate{TileH: o.TileH, TileV: o.TileV, Col: col, Row: row})
		}
	}
	return out
}

package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/forma-etl/internal/engine"
)

// TileResult is the outcome of processing one tile bundle.
type TileResult struct {
	TileH       int
	TileV       int
	Records     []OutputRecord
	Failures    []error // per-key failures; the rest of the tile still completed
	Pixels      int     // pixels that reached the neighbor stage
	Filtered    int     // pixels skipped by the VCF limit
	Windows     int     // windows aggregated across all periods
	ProcessedAt time.Time
}

// FailuresByKind counts failures per error kind. Failures that are not
// *KeyError values are counted under "other".
func (r TileResult) FailuresByKind() map[ErrorKind]int {
	return engine.Reduce(r.Failures, map[ErrorKind]int{}, func(acc map[ErrorKind]int, err error) map[ErrorKind]int {
		k := KindOf(err)
		if k == "" {
			k = "other"
		}
		acc[k]++
		return acc
	})
}

type pixelKey struct{ col, row int }

type pixelInputs struct {
	ndvi  *TimeSeries[float64]
	precl *TimeSeries[float64]
	fire  *TimeSeries[FireTuple]
	vcf   *int64
}

type chunkGroupKey struct {
	dataset   string
	chunkID   int
	chunkSize int
}

// ProcessTile runs reconstruction, alignment, trend detection, windowing and
// neighbor aggregation for one tile and returns a record per pixel per
// estimation period. The returned error covers only bundle-wide problems
// (bad parameters, unknown resolution); per-key problems land in Failures.
func ProcessTile(b TileBundle, p Params, resolver TemporalResolver, detector TrendDetector) (TileResult, error) {
	res := TileResult{TileH: b.TileH, TileV: b.TileV}

	if err := p.Validate(); err != nil {
		return res, fmt.Errorf("process tile: %w", err)
	}
	estStart, estEnd, err := p.EstimationPeriods(resolver)
	if err != nil {
		return res, fmt.Errorf("process tile: %w", err)
	}
	edge, err := PixelsPerTile(b.SRes)
	if err != nil {
		return res, fmt.Errorf("process tile: %w", err)
	}

	pixels := make(map[pixelKey]*pixelInputs)
	at := func(col, row int) *pixelInputs {
		k := pixelKey{col, row}
		in, ok := pixels[k]
		if !ok {
			in = &pixelInputs{}
			pixels[k] = in
		}
		return in
	}
	fail := func(err error, key string) {
		res.Failures = append(res.Failures, withKey(err, key))
	}
	checkPixel := func(col, row int) error {
		if col < 0 || row < 0 || col >= edge || row >= edge {
			return &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("pixel lies outside a %d-pixel tile", edge)}
		}
		return nil
	}
	checkWidth := func(n, chunkSize int) error {
		if n > chunkSize {
			return &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("chunk holds %d values, more than its size %d", n, chunkSize)}
		}
		return nil
	}

	var chunks []*RawChunk
	for _, rec := range b.Records {
		switch r := rec.(type) {
		case *DynamicSeries:
			s, err := r.Series.Float64s()
			if err == nil {
				err = s.Validate()
			}
			if err == nil {
				err = checkPixel(r.Col, r.Row)
			}
			if err != nil {
				fail(err, fmt.Sprintf("%s %d,%d", r.Dataset, r.Col, r.Row))
				continue
			}
			assignSeries(at(r.Col, r.Row), r.Dataset, s)
		case *FireSeries:
			err := r.Series.Validate()
			if err == nil {
				err = checkPixel(r.Col, r.Row)
			}
			if err != nil {
				fail(err, fmt.Sprintf("fire %d,%d", r.Col, r.Row))
				continue
			}
			s := r.Series
			at(r.Col, r.Row).fire = &s
		case *RawChunk:
			chunks = append(chunks, r)
		case *StaticChunk:
			if r.Dataset != DatasetVCF {
				continue
			}
			if err := checkWidth(len(r.Values), r.ChunkSize); err != nil {
				fail(err, fmt.Sprintf("%s chunk %d", r.Dataset, r.ChunkID))
				continue
			}
			for off, v := range r.Values {
				col, row, err := ChunkPixel(edge, r.ChunkID, r.ChunkSize, off)
				if err != nil {
					fail(err, fmt.Sprintf("%s chunk %d", r.Dataset, r.ChunkID))
					break
				}
				at(col, row).vcf = &v
			}
		}
	}

	groups := engine.GroupBy(chunks,
		func(c *RawChunk) chunkGroupKey { return chunkGroupKey{c.Dataset, c.ChunkID, c.ChunkSize} },
		func(a, b chunkGroupKey) int {
			return cmp.Or(cmp.Compare(a.dataset, b.dataset), cmp.Compare(a.chunkID, b.chunkID), cmp.Compare(a.chunkSize, b.chunkSize))
		},
		func(a, b *RawChunk) int { return cmp.Compare(a.Period, b.Period) },
	)
	for _, g := range groups {
		key := fmt.Sprintf("%s chunk %d", g.Key.dataset, g.Key.chunkID)
		run := make([]Chunk[float64], len(g.Items))
		var err error
		for i, c := range g.Items {
			run[i] = Chunk[float64]{Key: c.Period, Values: c.Values.Float64s()}
			if err == nil {
				err = checkWidth(len(run[i].Values), g.Key.chunkSize)
			}
		}
		var series []PixelSeries[float64]
		if err == nil {
			series, err = Reconstruct(p.MissingValue, run)
		}
		if err != nil {
			fail(err, key)
			continue
		}
		for _, ps := range series {
			col, row, err := ChunkPixel(edge, g.Key.chunkID, g.Key.chunkSize, ps.Pixel)
			if err != nil {
				fail(err, key)
				break
			}
			assignSeries(at(col, row), g.Key.dataset, ps.Series)
		}
	}

	keys := make([]pixelKey, 0, len(pixels))
	for k := range pixels {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b pixelKey) int {
		return cmp.Or(cmp.Compare(a.row, b.row), cmp.Compare(a.col, b.col))
	})

	nPeriods := estEnd - estStart + 1
	byPeriod := make([][]Pixel[ForaValue], nPeriods)
	for _, k := range keys {
		in := pixels[k]
		if in.vcf != nil && float64(*in.vcf) < p.VCFLimit {
			res.Filtered++
			continue
		}
		if in.ndvi == nil || in.precl == nil {
			continue
		}
		values, err := estimatePixel(in, p, estStart, estEnd, detector)
		if err != nil {
			fail(err, fmt.Sprintf("pixel %d,%d", k.col, k.row))
			continue
		}
		for t, v := range values {
			byPeriod[t] = append(byPeriod[t], Pixel[ForaValue]{Col: k.col, Row: k.row, Value: v})
		}
		res.Pixels++
	}

	fill := MissingFora(p.MissingValue)
	for t, px := range byPeriod {
		if len(px) == 0 {
			continue
		}
		period := estStart + t
		windows, err := PartitionTile(b.TileH, b.TileV, px, p.WindowDims, fill)
		if err != nil {
			return res, fmt.Errorf("process tile: partition period %d: %w", period, err)
		}
		for _, w := range windows {
			res.Windows++
			for _, nr := range AggregateNeighbors(w, p.Neighbors, p.MissingValue) {
				col, row := ToGlobal(w.Cols(), w.Rows(), w.WinCol, w.WinRow, nr.Index)
				res.Records = append(res.Records, OutputRecord{
					Coord:  PixelCoordinate{TileH: b.TileH, TileV: b.TileV, Col: col, Row: row},
					Period: period,
					Value:  nr.Value,
					Stats:  nr.Stats,
				})
			}
		}
	}

	res.ProcessedAt = clock.Now()
	return res, nil
}

func assignSeries(in *pixelInputs, dataset string, s TimeSeries[float64]) {
	switch dataset {
	case DatasetNDVI:
		in.ndvi = &s
	case DatasetPrecl:
		in.precl = &s
	}
}

// estimatePixel aligns the pixel's vegetation and precipitation series, runs
// the trend detector over the estimation window and attaches fire counts.
func estimatePixel(in *pixelInputs, p Params, estStart, estEnd int, detector TrendDetector) ([]ForaValue, error) {
	newStart, aligned, err := Adjust(*in.ndvi, *in.precl)
	if err != nil {
		return nil, err
	}

	est := EstWindow{Start: estStart - newStart, End: estEnd - newStart}
	if est.Start < 0 || est.End >= aligned[0].Len() {
		return nil, noOverlap(fmt.Sprintf("aligned series %d..%d does not cover estimation window %d..%d",
			aligned[0].Start, aligned[0].End, estStart, estEnd))
	}

	out, err := detector.Compute(aligned[0].Values, aligned[1].Values, est, p.LongBlock, p.Window)
	if err != nil {
		return nil, fmt.Errorf("trend detector: %w", err)
	}
	n := est.Len()
	if len(out.ShortDrop) != n || len(out.LongDrop) != n || len(out.TStat) != n {
		return nil, &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("trend detector returned %d/%d/%d values for %d periods",
			len(out.ShortDrop), len(out.LongDrop), len(out.TStat), n)}
	}

	var fires []FireTuple
	if in.fire != nil {
		f, err := AdjustFires(*in.fire, estStart, estEnd)
		if err != nil {
			return nil, err
		}
		fires = f.Values
	}

	values := make([]ForaValue, n)
	for t := range n {
		v := ForaValue{ShortDrop: out.ShortDrop[t], LongDrop: out.LongDrop[t], TStat: out.TStat[t]}
		if fires != nil {
			f := fires[t]
			v.Fire = &f
		}
		values[t] = v
	}
	return values, nil
}

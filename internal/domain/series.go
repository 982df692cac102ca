package domain

import (
	"fmt"
	"slices"
)

// TimeSeries is a dense run of values for consecutive periods Start..End.
// Constructors copy their input; a TimeSeries is never modified afterwards.
type TimeSeries[V any] struct {
	Start  int
	End    int
	Values []V
}

// NewTimeSeries builds a series starting at start. End is derived from the
// number of values, so End-Start+1 == len(values) always holds.
func NewTimeSeries[V any](start int, values []V) TimeSeries[V] {
	return TimeSeries[V]{
		Start:  start,
		End:    start + len(values) - 1,
		Values: slices.Clone(values),
	}
}

// Len returns the number of periods covered.
func (s TimeSeries[V]) Len() int { return len(s.Values) }

// Validate checks the start/end/length invariant.
func (s TimeSeries[V]) Validate() error {
	if s.End-s.Start+1 != len(s.Values) {
		return &KeyError{
			Kind:   KindInvalidInput,
			Detail: fmt.Sprintf("series %d..%d holds %d values", s.Start, s.End, len(s.Values)),
		}
	}
	return nil
}

// SeriesKind tags the element type carried by a Series.
type SeriesKind uint8

const (
	SeriesInt    SeriesKind = 1
	SeriesDouble SeriesKind = 2
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesInt:
		return "int"
	case SeriesDouble:
		return "double"
	default:
		return fmt.Sprintf("SeriesKind(%d)", uint8(k))
	}
}

// Series is the closed int|double variant decoded at the system boundary.
// Exactly one of Ints or Doubles is populated, as selected by Kind.
type Series struct {
	Kind    SeriesKind
	Ints    TimeSeries[int64]
	Doubles TimeSeries[float64]
}

// IntSeries wraps an integer series.
func IntSeries(start int, values []int64) Series {
	return Series{Kind: SeriesInt, Ints: NewTimeSeries(start, values)}
}

// DoubleSeries wraps a floating-point series.
func DoubleSeries(start int, values []float64) Series {
	return Series{Kind: SeriesDouble, Doubles: NewTimeSeries(start, values)}
}

// Float64s resolves the variant to a float64 series. This is the single
// point where integer rasters are widened; everything downstream is float64.
func (s Series) Float64s() (TimeSeries[float64], error) {
	switch s.Kind {
	case SeriesDouble:
		return s.Doubles, nil
	case SeriesInt:
		out := make([]float64, len(s.Ints.Values))
		for i, v := range s.Ints.Values {
			out[i] = float64(v)
		}
		return TimeSeries[float64]{Start: s.Ints.Start, End: s.Ints.End, Values: out}, nil
	default:
		return TimeSeries[float64]{}, &KeyError{Kind: KindInvalidInput, Detail: "unknown series kind " + s.Kind.String()}
	}
}

// Chunk is one period's worth of values for a fixed run of pixels.
type Chunk[V any] struct {
	Key    int
	Values []V
}

// PixelSeries pairs a zero-based chunk offset with its reconstructed series.
type PixelSeries[V any] struct {
	Pixel  int
	Series TimeSeries[V]
}

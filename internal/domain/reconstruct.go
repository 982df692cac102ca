package domain

import "fmt"

// Reconstruct turns a period-ascending run of chunks for one pixel group into
// one dense series per chunk offset. Periods absent from the run are filled
// with missing. The first and last chunk keys bound every output series.
//
// Sorting is the caller's responsibility; equal keys are allowed (the later
// chunk wins) but a decreasing key is reported as ErrUnsortedInput. Chunks of
// differing width abort the group with ErrInconsistentChunkWidth.
func Reconstruct[V any](missing V, chunks []Chunk[V]) ([]PixelSeries[V], error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	width := len(chunks[0].Values)
	if width == 0 {
		return nil, &KeyError{Kind: KindInvalidInput, Detail: fmt.Sprintf("empty chunk at period %d", chunks[0].Key)}
	}

	entries := make([]Entry[[]V], 0, len(chunks))
	for i, c := range chunks {
		if len(c.Values) != width {
			return nil, &KeyError{
				Kind:   KindInconsistentChunkWidth,
				Detail: fmt.Sprintf("period %d has width %d, expected %d", c.Key, len(c.Values), width),
			}
		}
		if i > 0 && c.Key < chunks[i-1].Key {
			return nil, &KeyError{
				Kind:   KindUnsortedInput,
				Detail: fmt.Sprintf("period %d follows period %d", c.Key, chunks[i-1].Key),
			}
		}
		entries = append(entries, Entry[[]V]{Index: c.Key, Value: c.Values})
	}

	first, last := chunks[0].Key, chunks[len(chunks)-1].Key

	missingRow := make([]V, width)
	for i := range missingRow {
		missingRow[i] = missing
	}
	byPeriod := Expand(missingRow, entries, first, last-first+1)

	out := make([]PixelSeries[V], width)
	for pixel := range width {
		values := make([]V, len(byPeriod))
		for t, row := range byPeriod {
			values[t] = row[pixel]
		}
		out[pixel] = PixelSeries[V]{
			Pixel:  pixel,
			Series: TimeSeries[V]{Start: first, End: last, Values: values},
		}
	}
	return out, nil
}

package domain

// Entry is one sparse observation: Value at absolute position Index.
type Entry[V any] struct {
	Index int
	Value V
}

// Expand fills a dense array of the given length covering indices
// [start, start+length). Positions without an entry hold missing. Entries
// need not be sorted; when two share an index the later one wins. Entries
// outside the range are ignored.
func Expand[V any](missing V, entries []Entry[V], start, length int) []V {
	if length <= 0 {
		return []V{}
	}
	out := make([]V, length)
	for i := range out {
		out[i] = missing
	}
	for _, e := range entries {
		pos := e.Index - start
		if pos < 0 || pos >= length {
			continue
		}
		out[pos] = e.Value
	}
	return out
}

// ExpandAuto is Expand with length running up to the largest observed index.
// Callers that need padding past the last observation must use Expand.
func ExpandAuto[V any](missing V, entries []Entry[V], start int) []V {
	if len(entries) == 0 {
		return []V{}
	}
	maxIdx := entries[0].Index
	for _, e := range entries[1:] {
		maxIdx = max(maxIdx, e.Index)
	}
	return Expand(missing, entries, start, maxIdx-start+1)
}

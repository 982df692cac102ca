package domain

// FireTuple counts fire detections for one pixel and period. Tuples form a
// commutative monoid under Add with the zero value as identity.
type FireTuple struct {
	Temp330   int // detections with brightness temperature above 330K
	Conf50    int // detections with confidence above 50
	BothPreds int // detections satisfying both predicates
	Count     int // all detections
}

// Add returns the field-wise sum of f and o.
func (f FireTuple) Add(o FireTuple) FireTuple {
	return FireTuple{
		Temp330:   f.Temp330 + o.Temp330,
		Conf50:    f.Conf50 + o.Conf50,
		BothPreds: f.BothPreds + o.BothPreds,
		Count:     f.Count + o.Count,
	}
}

// Scale multiplies every field by n.
func (f FireTuple) Scale(n int) FireTuple {
	return FireTuple{
		Temp330:   f.Temp330 * n,
		Conf50:    f.Conf50 * n,
		BothPreds: f.BothPreds * n,
		Count:     f.Count * n,
	}
}

// SumFires folds tuples with Add.
func SumFires(fires []FireTuple) FireTuple {
	var total FireTuple
	for _, f := range fires {
		total = total.Add(f)
	}
	return total
}

// ForaValue is the per-pixel, per-period signal fed to the neighbor stage.
// Fire is nil when the pixel has no fire series.
type ForaValue struct {
	Fire      *FireTuple
	ShortDrop float64
	LongDrop  float64
	TStat     float64
}

// MissingFora returns the sentinel used to pad windows.
func MissingFora(missing float64) ForaValue {
	return ForaValue{ShortDrop: missing, LongDrop: missing, TStat: missing}
}

// IsMissing reports whether any drop statistic of v holds the missing value.
// A trend detector may fill only some fields, for example when the long fit
// is underdetermined; such a cell carries no usable signal.
func (v ForaValue) IsMissing(missing float64) bool {
	return v.ShortDrop == missing || v.LongDrop == missing || v.TStat == missing
}

// FireOrZero returns the fire tuple, treating an absent one as the identity.
func (v ForaValue) FireOrZero() FireTuple {
	if v.Fire == nil {
		return FireTuple{}
	}
	return *v.Fire
}

// NeighborStats aggregates a pixel's spatial neighbors. When Count is zero
// every field is zero.
type NeighborStats struct {
	Fire         FireTuple
	Count        int
	AvgShortDrop float64
	MinShortDrop float64
	AvgLongDrop  float64
	MinLongDrop  float64
	AvgTStat     float64
	MinTStat     float64
}

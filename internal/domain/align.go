package domain

import (
	"fmt"
	"slices"
)

// Drop is the number of values trimmed from each end of one series.
type Drop struct {
	Bottom int
	Top    int
}

// AlignmentPlan describes how to cut several series down to a common window.
type AlignmentPlan struct {
	NewStart int
	Length   int
	Drops    []Drop
}

// PlanAlignment computes the maximal common window of series given by their
// start periods and lengths. The common window starts at the latest start
// and ends at the earliest one-past-end.
func PlanAlignment(starts, lengths []int) (AlignmentPlan, error) {
	if len(starts) == 0 || len(starts) != len(lengths) {
		return AlignmentPlan{}, &KeyError{
			Kind:   KindInvalidInput,
			Detail: fmt.Sprintf("alignment needs matching starts and lengths, got %d and %d", len(starts), len(lengths)),
		}
	}

	newStart := slices.Max(starts)
	dists := make([]int, len(starts))
	for i := range starts {
		dists[i] = starts[i] + lengths[i]
	}
	minDist := slices.Min(dists)

	plan := AlignmentPlan{
		NewStart: newStart,
		Length:   minDist - newStart,
		Drops:    make([]Drop, len(starts)),
	}
	for i := range starts {
		d := Drop{Bottom: newStart - starts[i], Top: dists[i] - minDist}
		if d.Bottom < 0 || d.Top < 0 {
			return AlignmentPlan{}, noOverlap(fmt.Sprintf("series %d needs negative drop %d/%d", i, d.Bottom, d.Top))
		}
		plan.Drops[i] = d
	}
	if plan.Length <= 0 {
		return AlignmentPlan{}, noOverlap(fmt.Sprintf("common window %d..%d is empty", newStart, minDist-1))
	}
	return plan, nil
}

// Adjust truncates every series to the window they all cover and returns the
// shared start period with the trimmed copies, in input order.
func Adjust[V any](series ...TimeSeries[V]) (int, []TimeSeries[V], error) {
	starts := make([]int, len(series))
	lengths := make([]int, len(series))
	for i, s := range series {
		starts[i] = s.Start
		lengths[i] = s.Len()
	}

	plan, err := PlanAlignment(starts, lengths)
	if err != nil {
		return 0, nil, err
	}

	out := make([]TimeSeries[V], len(series))
	for i, s := range series {
		out[i] = trim(s, plan.Drops[i])
	}
	return plan.NewStart, out, nil
}

// AdjustFires cuts a fire series to the estimation window [estStart, estEnd]
// given as period indices. The fire series must cover the whole window.
func AdjustFires(fires TimeSeries[FireTuple], estStart, estEnd int) (TimeSeries[FireTuple], error) {
	if estEnd < estStart {
		return TimeSeries[FireTuple]{}, noOverlap(fmt.Sprintf("estimation window %d..%d is empty", estStart, estEnd))
	}
	d := Drop{
		Bottom: estStart - fires.Start,
		Top:    fires.End - estEnd,
	}
	if d.Bottom < 0 || d.Top < 0 {
		return TimeSeries[FireTuple]{}, noOverlap(fmt.Sprintf(
			"fire series %d..%d does not cover estimation window %d..%d",
			fires.Start, fires.End, estStart, estEnd))
	}
	return trim(fires, d), nil
}

func trim[V any](s TimeSeries[V], d Drop) TimeSeries[V] {
	return NewTimeSeries(s.Start+d.Bottom, s.Values[d.Bottom:len(s.Values)-d.Top])
}

func noOverlap(detail string) error {
	return &KeyError{Kind: KindNoOverlap, Detail: detail}
}

// Package engine provides the grouped and sorted dataflow primitives the
// domain operators are written against. This in-process implementation is
// deterministic: groups come back in key order and each group's items in
// secondary-sort order, which is what order-sensitive operators such as
// chunk reconstruction require.
package engine

import "slices"

// Group is every item sharing one key.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy buckets items by key, orders groups with compareKeys and sorts each
// group's items with compareItems. The sort is stable so items comparing
// equal keep their input order (later duplicates stay later).
func GroupBy[K comparable, T any](
	items []T,
	key func(T) K,
	compareKeys func(a, b K) int,
	compareItems func(a, b T) int,
) []Group[K, T] {
	index := make(map[K]int)
	var groups []Group[K, T]
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	slices.SortFunc(groups, func(a, b Group[K, T]) int { return compareKeys(a.Key, b.Key) })
	if compareItems != nil {
		for i := range groups {
			slices.SortStableFunc(groups[i].Items, compareItems)
		}
	}
	return groups
}

// Reduce folds items into an accumulator. f must be associative for the
// result to be independent of how a distributed engine would partition items.
func Reduce[T, A any](items []T, zero A, f func(A, T) A) A {
	acc := zero
	for _, it := range items {
		acc = f(acc, it)
	}
	return acc
}

package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry[int]
		start    int
		length   int
		expected []int
	}{
		{"contiguous", []Entry[int]{{10, 1}, {11, 2}, {12, 3}}, 10, 3, []int{1, 2, 3}},
		{"gaps filled", []Entry[int]{{10, 1}, {13, 4}}, 10, 4, []int{1, -1, -1, 4}},
		{"unsorted input", []Entry[int]{{12, 3}, {10, 1}}, 10, 3, []int{1, -1, 3}},
		{"padding past last index", []Entry[int]{{0, 7}}, 0, 3, []int{7, -1, -1}},
		{"out of range ignored", []Entry[int]{{9, 9}, {10, 1}, {15, 5}}, 10, 2, []int{1, -1}},
		{"last write wins", []Entry[int]{{10, 1}, {10, 2}}, 10, 1, []int{2}},
		{"no entries", nil, 5, 2, []int{-1, -1}},
		{"zero length", []Entry[int]{{0, 1}}, 0, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(-1, tt.entries, tt.start, tt.length))
		})
	}
}

func TestExpandAuto(t *testing.T) {
	assert.Equal(t, []int{1, -1, 3}, ExpandAuto(-1, []Entry[int]{{7, 3}, {5, 1}}, 5))
	assert.Equal(t, []int{}, ExpandAuto[int](-1, nil, 5))
}

func TestExpand_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		start := rng.IntN(100) - 50
		length := rng.IntN(40) + 1

		want := make(map[int]int)
		var entries []Entry[int]
		for i := start; i < start+length; i++ {
			if rng.IntN(2) == 0 {
				v := rng.IntN(1000)
				want[i] = v
				entries = append(entries, Entry[int]{Index: i, Value: v})
			}
		}
		rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

		got := Expand(-1, entries, start, length)
		assert.Len(t, got, length)
		for i := start; i < start+length; i++ {
			if v, ok := want[i]; ok {
				assert.Equal(t, v, got[i-start])
			} else {
				assert.Equal(t, -1, got[i-start])
			}
		}
	}
}

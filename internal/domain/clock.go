package domain

import "github.com/jonboulle/clockwork"

// clock stamps TileResult.ProcessedAt. Tests freeze it through SetClock so
// output headers are reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

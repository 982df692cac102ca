package domain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMissingValue is the nodata marker used by the FORMA rasters.
const DefaultMissingValue = -9999.0

// Smallest usable trend block lengths. The long fit has three coefficients.
const (
	MinLongBlock = 3
	MinWindow    = 2
)

// Params is the immutable job configuration threaded through every stage.
type Params struct {
	EstStart     string  // first estimation date, "2006-01-02"
	EstEnd       string  // last estimation date
	TRes         string  // temporal resolution: "8", "16" or "32"
	Neighbors    int     // neighbor radius
	WindowDims   []int   // window extent [rows, cols]; a single value is broadcast
	VCFLimit     float64 // pixels with VCF below this are skipped
	LongBlock    int     // long-trend block length in periods
	Window       int     // short-trend window length in periods
	MissingValue float64
}

// Validate checks parameter ranges. Date parsing is left to the resolver.
func (p Params) Validate() error {
	switch p.TRes {
	case "8", "16", "32":
	default:
		return fmt.Errorf("invalid temporal resolution %q", p.TRes)
	}
	if p.EstStart == "" || p.EstEnd == "" {
		return errors.New("estimation window requires start and end dates")
	}
	if p.Neighbors < 0 {
		return fmt.Errorf("invalid neighbor radius %d", p.Neighbors)
	}
	if len(p.WindowDims) == 0 || len(p.WindowDims) > 2 {
		return fmt.Errorf("window dims must have 1 or 2 values, got %d", len(p.WindowDims))
	}
	for _, d := range p.WindowDims {
		if d <= 0 {
			return fmt.Errorf("invalid window dimension %d", d)
		}
	}
	if p.LongBlock < MinLongBlock || p.Window < MinWindow {
		return fmt.Errorf("trend block lengths too short (long=%d, min %d; short=%d, min %d)",
			p.LongBlock, MinLongBlock, p.Window, MinWindow)
	}
	if math.IsNaN(p.MissingValue) {
		return errors.New("missing value must not be NaN")
	}
	return nil
}

// EstimationPeriods resolves the estimation window to period indices.
func (p Params) EstimationPeriods(resolver TemporalResolver) (int, int, error) {
	start, err := resolver.DateToPeriod(p.TRes, p.EstStart)
	if err != nil {
		return 0, 0, fmt.Errorf("estimation start: %w", err)
	}
	end, err := resolver.DateToPeriod(p.TRes, p.EstEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("estimation end: %w", err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("estimation window ends (%d) before it starts (%d)", end, start)
	}
	return start, end, nil
}

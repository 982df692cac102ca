package domain

// TemporalResolver converts between calendar dates ("2006-01-02") and period
// indices for a temporal resolution code ("8", "16" or "32").
type TemporalResolver interface {
	DateToPeriod(tRes, date string) (int, error)
	PeriodToDate(tRes string, period int) (string, error)
}

// EstWindow addresses the estimation window inside an aligned series by
// zero-based, inclusive positions.
type EstWindow struct {
	Start int
	End   int
}

// Len returns the number of periods in the window.
func (w EstWindow) Len() int { return w.End - w.Start + 1 }

// TrendOutputs holds one value per estimation period.
type TrendOutputs struct {
	ShortDrop []float64
	LongDrop  []float64
	TStat     []float64
}

// TrendDetector is the statistical model run over an aligned vegetation
// series and its covariate. Implementations must be pure.
type TrendDetector interface {
	Compute(series, covariate []float64, est EstWindow, longBlock, window int) (TrendOutputs, error)
}

// Package trend is the default statistical model behind domain.TrendDetector.
//
// For every estimation period t it reports:
//
//	ShortDrop  the most negative slope of vegetation over any run of `window`
//	           consecutive periods ending at or before t
//	LongDrop   the time coefficient of vegetation ~ 1 + time + precipitation
//	           fitted over the `longBlock` periods ending at t
//	TStat      that coefficient divided by its standard error
//
// Periods holding the missing value in either input are left out of the
// fits; when too few usable periods remain the output is the missing value.
package trend

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/forma-etl/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Detector implements domain.TrendDetector with ordinary least squares.
type Detector struct {
	missing float64
}

// New returns a detector that treats missing as a gap marker.
func New(missing float64) *Detector {
	return &Detector{missing: missing}
}

// Compute implements domain.TrendDetector.
func (d *Detector) Compute(series, covariate []float64, est domain.EstWindow, longBlock, window int) (domain.TrendOutputs, error) {
	if len(series) != len(covariate) {
		return domain.TrendOutputs{}, fmt.Errorf("series length %d differs from covariate length %d", len(series), len(covariate))
	}
	if est.Start < 0 || est.End >= len(series) || est.End < est.Start {
		return domain.TrendOutputs{}, fmt.Errorf("estimation window %d..%d outside series of %d", est.Start, est.End, len(series))
	}
	if longBlock < domain.MinLongBlock || window < domain.MinWindow {
		return domain.TrendOutputs{}, fmt.Errorf("block lengths too short (long=%d, short=%d)", longBlock, window)
	}

	slopes := d.windowSlopes(series, window, est.End)

	n := est.Len()
	out := domain.TrendOutputs{
		ShortDrop: make([]float64, n),
		LongDrop:  make([]float64, n),
		TStat:     make([]float64, n),
	}

	running := math.Inf(1)
	for s := 0; s < est.Start; s++ {
		running = math.Min(running, slopes[s])
	}
	for i := range n {
		t := est.Start + i
		running = math.Min(running, slopes[t])
		if math.IsInf(running, 1) {
			out.ShortDrop[i] = d.missing
		} else {
			out.ShortDrop[i] = running
		}

		coef, tstat, err := d.longTrend(series, covariate, max(0, t-longBlock+1), t)
		if err != nil {
			out.LongDrop[i] = d.missing
			out.TStat[i] = d.missing
			continue
		}
		out.LongDrop[i] = coef
		out.TStat[i] = tstat
	}
	return out, nil
}

// windowSlopes returns, for each end position s up to last, the OLS slope of
// the `window` values ending at s, or +Inf when it cannot be fitted.
func (d *Detector) windowSlopes(series []float64, window, last int) []float64 {
	slopes := make([]float64, last+1)
	xs := make([]float64, 0, window)
	ys := make([]float64, 0, window)
	for s := range slopes {
		slopes[s] = math.Inf(1)
		if s+1 < window {
			continue
		}
		xs, ys = xs[:0], ys[:0]
		for j := s - window + 1; j <= s; j++ {
			if series[j] == d.missing {
				continue
			}
			xs = append(xs, float64(j))
			ys = append(ys, series[j])
		}
		if len(xs) < 2 {
			continue
		}
		_, beta := stat.LinearRegression(xs, ys, nil, false)
		if !math.IsNaN(beta) {
			slopes[s] = beta
		}
	}
	return slopes
}

var errUnderdetermined = errors.New("not enough usable periods")

// longTrend fits series ~ 1 + time + covariate over [from, to] and returns the
// time coefficient with its t-statistic.
func (d *Detector) longTrend(series, covariate []float64, from, to int) (float64, float64, error) {
	var rows []int
	for j := from; j <= to; j++ {
		if series[j] == d.missing || covariate[j] == d.missing {
			continue
		}
		rows = append(rows, j)
	}
	const params = 3
	if len(rows) <= params {
		return 0, 0, errUnderdetermined
	}

	x := mat.NewDense(len(rows), params, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, j := range rows {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(j-from))
		x.Set(i, 2, covariate[j])
		y.SetVec(i, series[j])
	}

	var qr mat.QR
	qr.Factorize(x)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, y); err != nil {
		return 0, 0, err
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &coef)
	resid.SubVec(y, &fitted)
	rss := mat.Dot(&resid, &resid)
	sigma2 := rss / float64(len(rows)-params)

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return 0, 0, err
	}

	slope := coef.AtVec(1)
	se := math.Sqrt(sigma2 * inv.At(1, 1))
	if se == 0 || math.IsNaN(se) {
		return slope, 0, nil
	}
	return slope, slope / se, nil
}

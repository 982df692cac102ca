// Package temporal converts calendar dates to MODIS composite period indices.
//
// Periods count from 2000-01-01:
//
//	"8"  → 46 eight-day composites per year, restarting on 1 January
//	"16" → 23 sixteen-day composites per year, restarting on 1 January
//	"32" → calendar months
//
// A date maps to the composite that contains it; PeriodToDate returns the
// first day of a composite.
package temporal

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used throughout the job config.
const DateLayout = "2006-01-02"

const epochYear = 2000

// Calendar implements domain.TemporalResolver.
type Calendar struct{}

// New returns the MODIS calendar.
func New() Calendar { return Calendar{} }

// DateToPeriod returns the period containing date.
func (Calendar) DateToPeriod(tRes, date string) (int, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	if t.Year() < epochYear {
		return 0, fmt.Errorf("date %s precedes %d-01-01", date, epochYear)
	}

	years := t.Year() - epochYear
	switch tRes {
	case "32":
		return years*12 + int(t.Month()) - 1, nil
	case "16", "8":
		days, perYear, err := composite(tRes)
		if err != nil {
			return 0, err
		}
		return years*perYear + (t.YearDay()-1)/days, nil
	default:
		return 0, fmt.Errorf("unknown temporal resolution %q", tRes)
	}
}

// PeriodToDate returns the first day of a period.
func (Calendar) PeriodToDate(tRes string, period int) (string, error) {
	if period < 0 {
		return "", fmt.Errorf("negative period %d", period)
	}
	switch tRes {
	case "32":
		t := time.Date(epochYear+period/12, time.Month(period%12+1), 1, 0, 0, 0, 0, time.UTC)
		return t.Format(DateLayout), nil
	case "16", "8":
		days, perYear, err := composite(tRes)
		if err != nil {
			return "", err
		}
		jan1 := time.Date(epochYear+period/perYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		return jan1.AddDate(0, 0, (period%perYear)*days).Format(DateLayout), nil
	default:
		return "", fmt.Errorf("unknown temporal resolution %q", tRes)
	}
}

// composite returns the composite length in days and composites per year.
func composite(tRes string) (int, int, error) {
	switch tRes {
	case "8":
		return 8, 46, nil
	case "16":
		return 16, 23, nil
	default:
		return 0, 0, fmt.Errorf("unknown temporal resolution %q", tRes)
	}
}

package util

import (
	"fmt"
	"time"

	"github.com/banachtech/option-pricer/errs"
)

const Layout = "2006-01-02"

// NYSE full-day closures.
var NYSE = []string{
	"2023-01-02", "2023-01-16", "2023-02-20", "2023-04-07", "2023-05-29", "2023-06-19", "2023-07-04", "2023-09-04", "2023-11-23", "2023-12-25",
	"2024-01-01", "2024-01-15", "2024-02-19", "2024-03-29", "2024-05-27", "2024-06-19", "2024-07-04", "2024-09-02", "2024-11-28", "2024-12-25",
	"2025-01-01", "2025-01-09", "2025-01-20", "2025-02-17", "2025-04-18", "2025-05-26", "2025-06-19", "2025-07-04", "2025-09-01", "2025-11-27", "2025-12-25",
	"2026-01-01", "2026-01-19", "2026-02-16", "2026-04-03", "2026-05-25", "2026-06-19", "2026-07-03", "2026-09-07", "2026-11-26", "2026-12-25",
	"2027-01-01", "2027-01-18", "2027-02-15", "2027-03-26", "2027-05-31", "2027-06-18", "2027-07-05", "2027-09-06", "2027-11-25", "2027-12-24",
}

// Hols parses holidays given as YYYY-MM-DD.
func Hols(s []string) ([]time.Time, error) {
	h := make([]time.Time, len(s))
	for i, v := range s {
		d, err := time.Parse(Layout, v)
		if err != nil {
			return nil, fmt.Errorf("util: holiday %q: %v: %w", v, err, errs.ErrInvalidArgument)
		}
		h[i] = d
	}
	return h, nil
}

func IsHol(d time.Time, hols []time.Time) bool {
	for _, v := range hols {
		if d.Equal(v) {
			return true
		}
	}
	return false
}

func IsWeekday(d time.Time) bool {
	return d.Weekday() > time.Sunday && d.Weekday() < time.Saturday
}

func IsBusinessDay(d time.Time, hols []time.Time) bool {
	return IsWeekday(d) && !IsHol(d, hols)
}

// AdjustFollowing rolls d forward to the next business day.
func AdjustFollowing(d time.Time, hols []time.Time) time.Time {
	for !IsBusinessDay(d, hols) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AdjustModifiedFollowing rolls forward unless that crosses into the next
// month, in which case it rolls back instead.
func AdjustModifiedFollowing(d time.Time, hols []time.Time) time.Time {
	f := AdjustFollowing(d, hols)
	if f.Month() == d.Month() {
		return f
	}
	for !IsBusinessDay(d, hols) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// GenerateFixings returns the observation dates every freq months from start
// up to tenor months, each adjusted modified-following. tenor must be a
// multiple of freq.
func GenerateFixings(start time.Time, tenor, freq int, hols []time.Time) ([]time.Time, error) {
	if freq <= 0 || tenor <= 0 || tenor%freq != 0 {
		return nil, fmt.Errorf("util: tenor %d must be a positive multiple of frequency %d: %w", tenor, freq, errs.ErrInvalidArgument)
	}
	n := tenor / freq
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = AdjustModifiedFollowing(start.AddDate(0, (i+1)*freq, 0), hols)
	}
	return out, nil
}

// YearFractions converts dates to ACT/365 year fractions from start. Dates
// must not precede start and must be strictly increasing.
func YearFractions(start time.Time, dates []time.Time) ([]float64, error) {
	out := make([]float64, len(dates))
	prev := start
	for i, d := range dates {
		if d.Before(prev) || (i > 0 && !d.After(prev)) {
			return nil, fmt.Errorf("util: fixing %s out of order: %w", d.Format(Layout), errs.ErrInvalidArgument)
		}
		out[i] = d.Sub(start).Hours() / 24 / 365
		prev = d
	}
	return out, nil
}

// MonthlyFixings is GenerateFixings on the NYSE calendar, returned as year
// fractions from start.
func MonthlyFixings(start time.Time, tenor, freq int) ([]float64, error) {
	hols, err := Hols(NYSE)
	if err != nil {
		return nil, err
	}
	dates, err := GenerateFixings(start, tenor, freq, hols)
	if err != nil {
		return nil, err
	}
	return YearFractions(start, dates)
}

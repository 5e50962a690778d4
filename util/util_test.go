package util

import (
	"testing"
	"time"

	"github.com/banachtech/option-pricer/errs"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	d, err := time.Parse(Layout, s)
	require.NoError(t, err)
	return d
}

func TestAdjust(t *testing.T) {
	hols, err := Hols(NYSE)
	require.NoError(t, err)

	testCases := []struct {
		name      string
		in        string
		following string
		modified  string
	}{
		{"BUSINESS_DAY", "2026-03-10", "2026-03-10", "2026-03-10"},
		{"SATURDAY", "2026-03-14", "2026-03-16", "2026-03-16"},
		{"GOOD_FRIDAY", "2026-04-03", "2026-04-06", "2026-04-06"},
		{"MONTH_END_WEEKEND", "2026-05-30", "2026-06-01", "2026-05-29"},
		{"HOLIDAY_BEFORE_WEEKEND", "2026-07-03", "2026-07-06", "2026-07-06"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := date(t, tc.in)
			require.Equal(t, date(t, tc.following), AdjustFollowing(d, hols))
			require.Equal(t, date(t, tc.modified), AdjustModifiedFollowing(d, hols))
		})
	}

	_, err = Hols([]string{"2026-13-01"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestGenerateFixings(t *testing.T) {
	hols, err := Hols(NYSE)
	require.NoError(t, err)
	start := date(t, "2026-01-02")

	dates, err := GenerateFixings(start, 6, 2, hols)
	require.NoError(t, err)
	require.Equal(t, []time.Time{
		date(t, "2026-03-02"),
		date(t, "2026-05-04"),
		date(t, "2026-07-02"),
	}, dates)

	fx, err := YearFractions(start, dates)
	require.NoError(t, err)
	require.InDelta(t, 59.0/365, fx[0], 1e-12)
	require.InDelta(t, 181.0/365, fx[2], 1e-12)

	for _, bad := range [][2]int{{6, 0}, {0, 1}, {7, 2}, {-6, 2}} {
		_, err := GenerateFixings(start, bad[0], bad[1], hols)
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
	}

	_, err = YearFractions(start, []time.Time{date(t, "2025-12-31")})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = YearFractions(start, []time.Time{date(t, "2026-02-02"), date(t, "2026-02-02")})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	monthly, err := MonthlyFixings(start, 12, 1)
	require.NoError(t, err)
	require.Len(t, monthly, 12)
	require.Greater(t, monthly[11], 0.99)
}

func TestSeedStream(t *testing.T) {
	a := NewSeedStream(7).Next(5)
	b := NewSeedStream(7).Next(5)
	require.Equal(t, a, b)
	require.NotEqual(t, a, NewSeedStream(8).Next(5))

	s := NewSeedStream(7)
	first, second := s.Next(2), s.Next(3)
	require.Equal(t, a, append(first, second...))
}

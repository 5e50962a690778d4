package mc

import (
	"errors"
	"math"
	"testing"

	"github.com/banachtech/option-pricer/bs"
	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/option"
	"github.com/stretchr/testify/require"
)

const (
	spot = 100.0
	rate = 0.05
	vol  = 0.2
)

func closedForm(t *testing.T, opt option.Option) float64 {
	p, err := bs.New(opt, spot, rate, vol)
	require.NoError(t, err)
	return p.Price()
}

func TestControlVariate(t *testing.T) {
	call, err := option.NewCall(1.0, 100.0)
	require.NoError(t, err)
	put, err := option.NewPut(2.0, 110.0)
	require.NoError(t, err)

	for _, opt := range []*option.Contract{call, put} {
		p, err := New(opt, spot, rate, vol, WithSeed(1), WithWorkers(4))
		require.NoError(t, err)
		require.True(t, p.HasControlVariate())
		require.NoError(t, p.Generate(1000))

		got, err := p.Price()
		require.NoError(t, err)
		want := closedForm(t, opt)
		require.InDelta(t, want, got, 1e-12)

		lo, hi, err := p.ConfidenceInterval()
		require.NoError(t, err)
		require.Less(t, lo, got)
		require.Greater(t, hi, got)
	}
}

func TestConvergence(t *testing.T) {
	dcall, err := option.NewDigital(option.Call, 1.0, 100.0)
	require.NoError(t, err)
	dput, err := option.NewDigital(option.Put, 1.0, 95.0)
	require.NoError(t, err)
	// a single fixing at expiry averages to the terminal spot
	single, err := option.NewAsian(option.Call, []float64{1.0}, 100.0)
	require.NoError(t, err)
	call, err := option.NewCall(1.0, 100.0)
	require.NoError(t, err)

	testCases := []struct {
		name string
		opt  option.Option
		want float64
	}{
		{"DIGITAL_CALL", dcall, closedForm(t, dcall)},
		{"DIGITAL_PUT", dput, closedForm(t, dput)},
		{"ASIAN_SINGLE_FIXING", single, closedForm(t, call)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.opt, spot, rate, vol, WithSeed(7), WithWorkers(4))
			require.NoError(t, err)
			require.False(t, p.HasControlVariate())
			require.NoError(t, p.Generate(200000))
			require.Equal(t, int64(200000), p.NbPaths())

			got, err := p.Price()
			require.NoError(t, err)
			se := p.StdErr()
			require.Greater(t, se, 0.0)
			require.InDelta(t, tc.want, got, 5*se)

			lo, hi, err := p.ConfidenceInterval()
			require.NoError(t, err)
			require.InDelta(t, 2*Z*se, hi-lo, 1e-12)
		})
	}
}

func TestAsianBelowEuropean(t *testing.T) {
	asian, err := option.NewAsian(option.Call, []float64{0.25, 0.5, 0.75, 1.0}, 100.0)
	require.NoError(t, err)
	call, err := option.NewCall(1.0, 100.0)
	require.NoError(t, err)

	p, err := New(asian, spot, rate, vol, WithSeed(3))
	require.NoError(t, err)
	require.NoError(t, p.Generate(100000))
	got, err := p.Value()
	require.NoError(t, err)
	require.Greater(t, got, 0.0)
	require.Less(t, got, closedForm(t, call))
}

func TestPreconditions(t *testing.T) {
	dcall, err := option.NewDigital(option.Call, 1.0, 100.0)
	require.NoError(t, err)
	p, err := New(dcall, spot, rate, vol, WithSeed(11))
	require.NoError(t, err)

	_, err = p.Price()
	require.ErrorIs(t, err, errs.ErrPrecondition)
	_, _, err = p.ConfidenceInterval()
	require.ErrorIs(t, err, errs.ErrPrecondition)

	require.NoError(t, p.Generate(0))
	require.NoError(t, p.Generate(-3))
	require.Zero(t, p.NbPaths())

	require.NoError(t, p.Generate(1))
	_, err = p.Price()
	require.NoError(t, err)
	_, _, err = p.ConfidenceInterval()
	require.ErrorIs(t, err, errs.ErrPrecondition)

	require.NoError(t, p.Generate(1))
	require.Equal(t, int64(2), p.NbPaths())
	lo, hi, err := p.ConfidenceInterval()
	require.NoError(t, err)
	require.Less(t, lo, hi)
}

func TestPathCounts(t *testing.T) {
	asian, err := option.NewAsian(option.Put, []float64{0.5, 1.0}, 100.0)
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 8, 64} {
		p, err := New(asian, spot, rate, vol, WithWorkers(workers), WithSeed(5))
		require.NoError(t, err)
		total := int64(0)
		for _, n := range []int{1, 7, 100, 1001} {
			require.NoError(t, p.Generate(n))
			total += int64(n)
			require.Equal(t, total, p.NbPaths(), "workers %d", workers)
		}
	}
}

func TestReproducible(t *testing.T) {
	asian, err := option.NewAsian(option.Call, []float64{0.5, 1.0}, 100.0)
	require.NoError(t, err)

	run := func() float64 {
		p, err := New(asian, spot, rate, vol, WithWorkers(3), WithSeed(99))
		require.NoError(t, err)
		require.NoError(t, p.Generate(5000))
		require.NoError(t, p.Generate(333))
		v, err := p.Price()
		require.NoError(t, err)
		return v
	}
	require.Equal(t, run(), run())
}

// brokenOption overrides the contract's schedule and path payoff.
type brokenOption struct {
	*option.Contract
	times []float64
	err   error
}

func (b brokenOption) FixingTimes() []float64 { return b.times }

func (b brokenOption) PayoffPath(path []float64) (float64, error) {
	if b.err != nil {
		return math.NaN(), b.err
	}
	return b.Contract.PayoffPath(path)
}

func TestInvalid(t *testing.T) {
	_, err := New(nil, spot, rate, vol)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	asian, err := option.NewAsian(option.Call, []float64{0.5, 1.0}, 100.0)
	require.NoError(t, err)

	_, err = New(brokenOption{Contract: asian, times: []float64{0.5, 0.2}}, spot, rate, vol)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = New(brokenOption{Contract: asian, times: []float64{-0.1, 1.0}}, spot, rate, vol)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = New(brokenOption{Contract: asian, times: nil}, spot, rate, vol)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	// a repeated fixing time is allowed
	p, err := New(brokenOption{Contract: asian, times: []float64{0.5, 0.5, 1.0}}, spot, rate, vol, WithSeed(2))
	require.NoError(t, err)
	require.NoError(t, p.Generate(10))

	// a failing payoff leaves the estimate alone
	boom := errors.New("boom")
	p, err = New(brokenOption{Contract: asian, times: []float64{0.5, 1.0}}, spot, rate, vol, WithSeed(2))
	require.NoError(t, err)
	require.NoError(t, p.Generate(10))
	before, err := p.Price()
	require.NoError(t, err)

	p.opt = brokenOption{Contract: asian, times: []float64{0.5, 1.0}, err: boom}
	require.ErrorIs(t, p.Generate(10), boom)
	require.Equal(t, int64(10), p.NbPaths())
	after, err := p.Price()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestPathModel(t *testing.T) {
	m, err := newGBM(spot, rate, vol, []float64{0.0, 0.5, 0.5, 1.0})
	require.NoError(t, err)
	require.InDelta(t, 1.0, m.maturity, 1e-12)

	pos := make([]float64, m.steps())
	neg := make([]float64, m.steps())
	draws := 0
	m.Path(func() float64 { draws++; return 1.0 }, pos, neg)

	// zero-length steps consume no draws
	require.Equal(t, 2, draws)
	require.Equal(t, spot, pos[0])
	require.Equal(t, pos[1], pos[2])
	drift := (rate - 0.5*vol*vol) * 0.5
	step := vol * math.Sqrt(0.5)
	require.InDelta(t, spot*math.Exp(drift+step), pos[1], 1e-9)
	require.InDelta(t, spot*math.Exp(drift-step), neg[1], 1e-9)
	require.InDelta(t, spot*math.Exp(2*drift+2*step), pos[3], 1e-9)
}

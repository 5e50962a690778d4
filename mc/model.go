package mc

import (
	"fmt"
	"math"

	"github.com/banachtech/option-pricer/errs"
)

// gbm is a risk-neutral geometric Brownian motion observed at a fixed set of
// times. The per-step drift·dt and vol·√dt terms are computed once.
type gbm struct {
	spot      float64
	driftDt   []float64
	volSqrtDt []float64
	maturity  float64
}

func newGBM(spot, rate, vol float64, times []float64) (gbm, error) {
	if len(times) == 0 {
		return gbm{}, fmt.Errorf("mc: no fixing times: %w", errs.ErrInvalidArgument)
	}
	m := gbm{
		spot:      spot,
		driftDt:   make([]float64, len(times)),
		volSqrtDt: make([]float64, len(times)),
	}
	drift := rate - 0.5*vol*vol
	last := 0.0
	for i, t := range times {
		if t < last {
			return gbm{}, fmt.Errorf("mc: fixing times must be non-decreasing, %v after %v: %w", t, last, errs.ErrInvalidArgument)
		}
		dt := t - last
		m.driftDt[i] = drift * dt
		m.volSqrtDt[i] = vol * math.Sqrt(dt)
		last = t
	}
	m.maturity = last
	return m, nil
}

func (m gbm) steps() int {
	return len(m.driftDt)
}

// Path fills pos and neg with an antithetic pair: both legs share one normal
// draw per step, with opposite signs.
func (m gbm) Path(z func() float64, pos, neg []float64) {
	sPos, sNeg := m.spot, m.spot
	for i := range m.driftDt {
		mu, sigma := m.driftDt[i], m.volSqrtDt[i]
		// a repeated fixing time has dt == 0 and leaves the spot unchanged
		if mu != 0 || sigma != 0 {
			x := z()
			sPos *= math.Exp(mu + sigma*x)
			sNeg *= math.Exp(mu - sigma*x)
		}
		pos[i] = sPos
		neg[i] = sNeg
	}
}

package bs

import (
	"fmt"
	"math"

	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/option"
	"gonum.org/v1/gonum/stat/distuv"
)

// Guard keeps d1 and d2 finite when time, volatility, spot or strike is zero.
const Guard = 1e-12

// Pricer values European vanilla and digital options in closed form under
// Black-Scholes. It is immutable once built.
type Pricer struct {
	opt     option.Option
	strike  float64
	spot    float64
	rate    float64
	vol     float64
	digital bool
}

// New picks the vanilla or digital formula from the option.
func New(opt option.Option, spot, rate, vol float64) (*Pricer, error) {
	if opt != nil && opt.IsDigital() {
		return NewDigital(opt, spot, rate, vol)
	}
	return NewVanilla(opt, spot, rate, vol)
}

// NewVanilla prices a European call or put.
func NewVanilla(opt option.Option, spot, rate, vol float64) (*Pricer, error) {
	if opt == nil {
		return nil, fmt.Errorf("bs: option is nil: %w", errs.ErrInvalidArgument)
	}
	if opt.IsDigital() || opt.IsAsian() || opt.IsAmerican() {
		return nil, fmt.Errorf("bs: vanilla formula does not apply to %v: %w", opt, errs.ErrInvalidArgument)
	}
	return newPricer(opt, spot, rate, vol, false)
}

// NewDigital prices a European cash-or-nothing call or put.
func NewDigital(opt option.Option, spot, rate, vol float64) (*Pricer, error) {
	if opt == nil {
		return nil, fmt.Errorf("bs: option is nil: %w", errs.ErrInvalidArgument)
	}
	if !opt.IsDigital() {
		return nil, fmt.Errorf("bs: digital formula does not apply to %v: %w", opt, errs.ErrInvalidArgument)
	}
	return newPricer(opt, spot, rate, vol, true)
}

func newPricer(opt option.Option, spot, rate, vol float64, digital bool) (*Pricer, error) {
	if spot < 0 || vol < 0 {
		return nil, fmt.Errorf("bs: spot %v and volatility %v must be >= 0: %w", spot, vol, errs.ErrInvalidArgument)
	}
	return &Pricer{
		opt:     opt,
		strike:  opt.Strike(),
		spot:    spot,
		rate:    rate,
		vol:     vol,
		digital: digital,
	}, nil
}

func (p *Pricer) degenerate() bool {
	return p.opt.Expiry() <= 0 || p.vol < Guard
}

func (p *Pricer) d1d2() (float64, float64) {
	T := math.Max(p.opt.Expiry(), Guard)
	sigma := math.Max(p.vol, Guard)
	S := math.Max(p.spot, Guard)
	K := math.Max(p.strike, Guard)
	x := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (p.rate+0.5*sigma*sigma)*T) / x
	return d1, d1 - x
}

// D1 returns the Black-Scholes d1 term with guarded inputs.
func (p *Pricer) D1() float64 {
	d1, _ := p.d1d2()
	return d1
}

// D2 returns d1 - σ√T.
func (p *Pricer) D2() float64 {
	_, d2 := p.d1d2()
	return d2
}

// Price returns the option premium. An expired contract, or one with no
// volatility, is worth its payoff at the current spot.
func (p *Pricer) Price() float64 {
	if p.degenerate() {
		return p.opt.Payoff(p.spot)
	}
	T := p.opt.Expiry()
	d1, d2 := p.d1d2()
	N := distuv.UnitNormal
	disc := math.Exp(-p.rate * T)

	if p.digital {
		if p.opt.Type() == option.Call {
			return disc * N.CDF(d2)
		}
		return disc * N.CDF(-d2)
	}
	if p.opt.Type() == option.Call {
		return p.spot*N.CDF(d1) - p.strike*disc*N.CDF(d2)
	}
	return p.strike*disc*N.CDF(-d2) - p.spot*N.CDF(-d1)
}

// Delta returns dPrice/dSpot.
func (p *Pricer) Delta() float64 {
	call := p.opt.Type() == option.Call
	if p.degenerate() {
		switch {
		case p.digital:
			return 0.0
		case call && p.spot > p.strike:
			return 1.0
		case !call && p.spot < p.strike:
			return -1.0
		}
		return 0.0
	}

	d1, d2 := p.d1d2()
	N := distuv.UnitNormal
	if p.digital {
		T := p.opt.Expiry()
		x := p.vol * math.Sqrt(T)
		factor := math.Exp(-p.rate*T) * N.Prob(d2) / (math.Max(p.spot, Guard) * x)
		if call {
			return factor
		}
		return -factor
	}
	if call {
		return N.CDF(d1)
	}
	return N.CDF(d1) - 1.0
}

// Value is Price behind the error-returning signature shared by all pricers.
func (p *Pricer) Value() (float64, error) {
	return p.Price(), nil
}

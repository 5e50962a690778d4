package crr

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/lattice"
	"github.com/banachtech/option-pricer/option"
	log "github.com/sirupsen/logrus"
)

// Pricer is a Cox-Ross-Rubinstein binomial tree. U, D and R are one-period
// growth factors and must satisfy D < R < U.
type Pricer struct {
	opt   option.Option
	depth int
	s0    float64
	u     float64
	d     float64
	r     float64

	optionTree   *lattice.Lattice[float64]
	exerciseTree *lattice.Lattice[bool]
	computed     bool
}

// NewFromReturns takes per-period returns; each factor is 1 + return.
func NewFromReturns(opt option.Option, depth int, s0, up, down, rate float64) (*Pricer, error) {
	return NewFromFactors(opt, depth, s0, 1.0+up, 1.0+down, 1.0+rate)
}

// NewFromFactors takes per-period growth factors directly.
func NewFromFactors(opt option.Option, depth int, s0, u, d, r float64) (*Pricer, error) {
	if err := checkOption(opt); err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("crr: depth %d must be >= 0: %w", depth, errs.ErrInvalidArgument)
	}
	if u <= 0 || d <= 0 || r <= 0 {
		return nil, fmt.Errorf("crr: factors U=%v D=%v R=%v must be > 0: %w", u, d, r, errs.ErrInvalidArgument)
	}
	return newPricer(opt, depth, s0, u, d, r)
}

// NewFromMarket splits the expiry into depth steps of length dt and sets
// U = exp(σ√dt), D = 1/U, R = exp(r·dt).
func NewFromMarket(opt option.Option, depth int, s0, rate, vol float64) (*Pricer, error) {
	if err := checkOption(opt); err != nil {
		return nil, err
	}
	if depth <= 0 {
		return nil, fmt.Errorf("crr: depth %d must be > 0: %w", depth, errs.ErrInvalidArgument)
	}
	dt := opt.Expiry() / float64(depth)
	step := vol * math.Sqrt(dt)
	return newPricer(opt, depth, s0, math.Exp(step), math.Exp(-step), math.Exp(rate*dt))
}

func checkOption(opt option.Option) error {
	if opt == nil {
		return fmt.Errorf("crr: option is nil: %w", errs.ErrInvalidArgument)
	}
	if opt.IsAsian() {
		return fmt.Errorf("crr: path dependent %v cannot be priced on a lattice: %w", opt, errs.ErrInvalidArgument)
	}
	return nil
}

func newPricer(opt option.Option, depth int, s0, u, d, r float64) (*Pricer, error) {
	if !(d < r && r < u) {
		return nil, fmt.Errorf("crr: arbitrage, need D < R < U, got D=%v R=%v U=%v: %w", d, r, u, errs.ErrInvalidArgument)
	}
	optionTree, err := lattice.New[float64](depth)
	if err != nil {
		return nil, err
	}
	exerciseTree, err := lattice.New[bool](depth)
	if err != nil {
		return nil, err
	}
	return &Pricer{
		opt:          opt,
		depth:        depth,
		s0:           s0,
		u:            u,
		d:            d,
		r:            r,
		optionTree:   optionTree,
		exerciseTree: exerciseTree,
	}, nil
}

func (p *Pricer) Depth() int { return p.depth }

// Factors returns the growth factors U, D and R.
func (p *Pricer) Factors() (float64, float64, float64) {
	return p.u, p.d, p.r
}

// RiskNeutralProb returns q = (R-D)/(U-D).
func (p *Pricer) RiskNeutralProb() float64 {
	return (p.r - p.d) / (p.u - p.d)
}

func (p *Pricer) spot(n, i int) float64 {
	return p.s0 * math.Pow(p.u, float64(i)) * math.Pow(p.d, float64(n-i))
}

// Compute fills both trees by backward induction. American contracts are
// exercised at a node when the intrinsic value is at least the continuation
// value and strictly positive, so nodes worth nothing either way are never
// flagged. Terminal nodes are flagged when the payoff is positive.
func (p *Pricer) Compute() error {
	start := time.Now()
	q := p.RiskNeutralProb()
	american := p.opt.IsAmerican()

	for i := 0; i <= p.depth; i++ {
		payoff := p.opt.Payoff(p.spot(p.depth, i))
		if err := p.optionTree.SetNode(p.depth, i, payoff); err != nil {
			return err
		}
		if err := p.exerciseTree.SetNode(p.depth, i, american && payoff > 0); err != nil {
			return err
		}
	}

	for n := p.depth - 1; n >= 0; n-- {
		for i := 0; i <= n; i++ {
			up, err := p.optionTree.Node(n+1, i+1)
			if err != nil {
				return err
			}
			down, err := p.optionTree.Node(n+1, i)
			if err != nil {
				return err
			}
			value := (q*up + (1.0-q)*down) / p.r
			exercise := false
			if american {
				intrinsic := p.opt.Payoff(p.spot(n, i))
				if intrinsic > 0 && intrinsic >= value {
					value = intrinsic
					exercise = true
				}
			}
			if err := p.optionTree.SetNode(n, i, value); err != nil {
				return err
			}
			if err := p.exerciseTree.SetNode(n, i, exercise); err != nil {
				return err
			}
		}
	}
	p.computed = true

	log.WithFields(log.Fields{
		"depth":    p.depth,
		"american": american,
		"elapsed":  time.Since(start),
	}).Debug("crr: lattice computed")
	return nil
}

// Node returns the option value at level n, position i.
func (p *Pricer) Node(n, i int) (float64, error) {
	if !p.computed {
		return math.NaN(), fmt.Errorf("crr: Node needs Compute first: %w", errs.ErrPrecondition)
	}
	return p.optionTree.Node(n, i)
}

// Exercise reports whether early exercise is optimal at level n, position i.
func (p *Pricer) Exercise(n, i int) (bool, error) {
	if !p.computed {
		return false, fmt.Errorf("crr: Exercise needs Compute first: %w", errs.ErrPrecondition)
	}
	return p.exerciseTree.Node(n, i)
}

// ExerciseBoundary returns, for every level, the exercised position closest
// to the money: the lowest one for calls, the highest one for puts. Levels
// without exercise report -1.
func (p *Pricer) ExerciseBoundary() ([]int, error) {
	if !p.computed {
		return nil, fmt.Errorf("crr: ExerciseBoundary needs Compute first: %w", errs.ErrPrecondition)
	}
	out := make([]int, p.depth+1)
	for n := range out {
		level, err := p.exerciseTree.Level(n)
		if err != nil {
			return nil, err
		}
		out[n] = -1
		for i, ex := range level {
			if !ex {
				continue
			}
			out[n] = i
			if p.opt.Type() == option.Call {
				break
			}
		}
	}
	return out, nil
}

// Price returns the root of the computed tree, computing it on first use.
// With closedForm set it instead sums the discounted terminal payoffs over
// the binomial distribution, which only holds for European contracts.
func (p *Pricer) Price(closedForm bool) (float64, error) {
	if !closedForm {
		if !p.computed {
			if err := p.Compute(); err != nil {
				return math.NaN(), err
			}
		}
		return p.optionTree.Node(0, 0)
	}
	if p.opt.IsAmerican() {
		return math.NaN(), fmt.Errorf("crr: closed form only holds for European contracts: %w", errs.ErrPrecondition)
	}

	// weights C(N,i)·q^i·(1-q)^(N-i) are taken in log space: C(N,i) alone
	// overflows float64 past N≈1030
	q := p.RiskNeutralProb()
	lnQ, lnP := math.Log(q), math.Log1p(-q)
	price := 0.0
	for i := 0; i <= p.depth; i++ {
		payoff := p.opt.Payoff(p.spot(p.depth, i))
		if payoff == 0 {
			continue
		}
		lnW := lnBinomial(p.depth, i) + float64(i)*lnQ + float64(p.depth-i)*lnP - float64(p.depth)*math.Log(p.r)
		price += math.Exp(lnW) * payoff
	}
	return price, nil
}

// Value is Price(false).
func (p *Pricer) Value() (float64, error) {
	return p.Price(false)
}

// Display writes the option tree.
func (p *Pricer) Display(w io.Writer) error {
	if !p.computed {
		return fmt.Errorf("crr: Display needs Compute first: %w", errs.ErrPrecondition)
	}
	return p.optionTree.Display(w)
}

// OptionLevels and ExerciseLevels copy the trees out level by level.
func (p *Pricer) OptionLevels() ([][]float64, error) {
	return levels(p, p.optionTree)
}

func (p *Pricer) ExerciseLevels() ([][]bool, error) {
	return levels(p, p.exerciseTree)
}

func levels[T any](p *Pricer, l *lattice.Lattice[T]) ([][]T, error) {
	if !p.computed {
		return nil, fmt.Errorf("crr: tree needs Compute first: %w", errs.ErrPrecondition)
	}
	out := make([][]T, l.Depth()+1)
	for n := range out {
		level, err := l.Level(n)
		if err != nil {
			return nil, err
		}
		out[n] = level
	}
	return out, nil
}

// lnBinomial returns ln C(n,k), or -Inf when k is outside [0, n].
func lnBinomial(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

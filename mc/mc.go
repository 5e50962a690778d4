package mc

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/banachtech/option-pricer/bs"
	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/option"
	"github.com/banachtech/option-pricer/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// Z is the two-sided 95% normal quantile used by ConfidenceInterval.
const Z = 1.96

// Pricer estimates an option value by simulating antithetic geometric
// Brownian motion paths observed at the option's fixing times. Estimates
// accumulate across calls to Generate.
//
// A Pricer is not safe for concurrent use; Generate fans out internally.
type Pricer struct {
	opt      option.Option
	model    gbm
	discount float64

	control     bool
	controlMean float64

	workers int
	seeds   *util.SeedStream
	logger  *log.Entry

	stats Accumulator
}

type Option func(*Pricer)

// WithWorkers caps the number of goroutines used by Generate. Values below
// one keep the default of one per CPU.
func WithWorkers(n int) Option {
	return func(p *Pricer) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithSeed makes runs reproducible for a fixed worker count.
func WithSeed(seed uint64) Option {
	return func(p *Pricer) {
		p.seeds = util.NewSeedStream(seed)
	}
}

func WithLogger(l *log.Entry) Option {
	return func(p *Pricer) {
		if l != nil {
			p.logger = l
		}
	}
}

// New builds a pricer for opt. European vanilla calls and puts use the
// Black-Scholes price as a control variate.
func New(opt option.Option, s0, rate, vol float64, opts ...Option) (*Pricer, error) {
	if opt == nil {
		return nil, fmt.Errorf("mc: option is nil: %w", errs.ErrInvalidArgument)
	}
	model, err := newGBM(s0, rate, vol, opt.FixingTimes())
	if err != nil {
		return nil, err
	}
	p := &Pricer{
		opt:      opt,
		model:    model,
		discount: math.Exp(-rate * model.maturity),
		workers:  runtime.NumCPU(),
		logger:   log.WithField("component", "mc"),
	}
	for _, o := range opts {
		o(p)
	}
	if p.seeds == nil {
		p.seeds = util.NewSeedStream(util.TimeSeed())
	}

	if !opt.IsDigital() && !opt.IsAsian() && !opt.IsAmerican() {
		closed, err := bs.NewVanilla(opt, s0, rate, vol)
		if err != nil {
			return nil, err
		}
		p.control = true
		p.controlMean = closed.Price()
	}
	return p, nil
}

// Generate simulates nbPaths more samples, each antithetic leg counting as
// one. Non-positive counts do nothing. On error the running estimate is left
// as it was.
func (p *Pricer) Generate(nbPaths int) error {
	if nbPaths <= 0 {
		return nil
	}
	start := time.Now()
	workers := p.workers
	if nbPaths < workers {
		workers = nbPaths
	}
	seeds := p.seeds.Next(workers)
	base, rem := nbPaths/workers, nbPaths%workers

	partial := make([]Accumulator, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		paths := base
		if w < rem {
			paths++
		}
		g.Go(func() error {
			acc, err := p.simulate(paths, seeds[w])
			partial[w] = acc
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, acc := range partial {
		p.stats.Merge(acc)
	}

	p.logger.WithFields(log.Fields{
		"paths":    nbPaths,
		"workers":  workers,
		"total":    p.stats.N,
		"estimate": p.stats.Mean,
		"elapsed":  time.Since(start),
	}).Debug("mc: paths generated")
	return nil
}

func (p *Pricer) simulate(paths int, seed uint64) (Accumulator, error) {
	var acc Accumulator
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}
	pos := make([]float64, p.model.steps())
	neg := make([]float64, p.model.steps())

	for acc.N < int64(paths) {
		p.model.Path(norm.Rand, pos, neg)
		for _, path := range [2][]float64{pos, neg} {
			if acc.N == int64(paths) {
				break
			}
			payoff, err := p.opt.PayoffPath(path)
			if err != nil {
				return Accumulator{}, err
			}
			x := p.discount * payoff
			if p.control {
				x = p.controlMean
			}
			acc.Add(x)
		}
	}
	return acc, nil
}

// Price returns the running mean of the discounted samples.
func (p *Pricer) Price() (float64, error) {
	if p.stats.N == 0 {
		return math.NaN(), fmt.Errorf("mc: no paths generated: %w", errs.ErrPrecondition)
	}
	return p.stats.Mean, nil
}

func (p *Pricer) Value() (float64, error) {
	return p.Price()
}

// StdErr returns the standard error of the estimate, NaN below two paths.
func (p *Pricer) StdErr() float64 {
	return p.stats.StdErr()
}

// ConfidenceInterval returns the 95% interval around the estimate. A zero
// standard error is floored at epsilon·(1+|mean|).
func (p *Pricer) ConfidenceInterval() (float64, float64, error) {
	if p.stats.N < 2 {
		return math.NaN(), math.NaN(), fmt.Errorf("mc: confidence interval needs at least 2 paths, have %d: %w", p.stats.N, errs.ErrPrecondition)
	}
	se := p.stats.StdErr()
	if se == 0 || math.IsNaN(se) {
		se = epsilon * (1 + math.Abs(p.stats.Mean))
	}
	return p.stats.Mean - Z*se, p.stats.Mean + Z*se, nil
}

func (p *Pricer) NbPaths() int64 { return p.stats.N }

func (p *Pricer) HasControlVariate() bool { return p.control }

// epsilon is the spacing of float64 values around 1.
const epsilon = 2.220446049250313e-16

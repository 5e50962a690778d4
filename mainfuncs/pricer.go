package mainfuncs

import (
	"fmt"
	"math"
	"time"

	"github.com/banachtech/option-pricer/bs"
	"github.com/banachtech/option-pricer/config"
	"github.com/banachtech/option-pricer/crr"
	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/mc"
	"github.com/banachtech/option-pricer/option"
	log "github.com/sirupsen/logrus"
)

const (
	MethodBlackScholes = "black-scholes"
	MethodCRR          = "crr"
	MethodCRRClosed    = "crr-closed-form"
	MethodMonteCarlo   = "monte-carlo"
)

// MaxDepth bounds the CRR trees Compare builds.
const MaxDepth = 5000

// Valuer is the one operation every pricer shares.
type Valuer interface {
	Value() (float64, error)
}

type ValuerFunc func() (float64, error)

func (f ValuerFunc) Value() (float64, error) { return f() }

// Request describes a contract and the market it is priced in.
type Request struct {
	Style   string    `json:"style"`
	Type    string    `json:"type" binding:"required"`
	Strike  float64   `json:"strike" binding:"min=0"`
	Expiry  float64   `json:"expiry" binding:"min=0"`
	Fixings []float64 `json:"fixings"`
	Spot    float64   `json:"spot" binding:"required,gt=0"`
	Rate    float64   `json:"rate"`
	Vol     float64   `json:"vol" binding:"min=0"`
	Depth   int       `json:"depth" binding:"min=0"`
	Paths   int       `json:"paths" binding:"min=0"`
	Workers int       `json:"workers" binding:"min=0"`
	Seed    uint64    `json:"seed"`
}

// ApplyDefaults fills unset engine fields from e.
func (r *Request) ApplyDefaults(e config.EngineConfig) {
	if r.Style == "" {
		r.Style = option.European.String()
	}
	if r.Depth == 0 {
		r.Depth = e.Depth
	}
	if r.Paths == 0 {
		r.Paths = e.Paths
	}
	if r.Workers == 0 {
		r.Workers = e.Workers
	}
	if r.Seed == 0 {
		r.Seed = e.Seed
	}
}

// Contract builds the option the request names.
func (r Request) Contract() (*option.Contract, error) {
	style, err := option.ParseStyle(r.Style)
	if err != nil {
		return nil, err
	}
	typ, err := option.ParseType(r.Type)
	if err != nil {
		return nil, err
	}
	return option.New(style, typ, r.Expiry, r.Strike, r.Fixings)
}

func (r Request) validate() error {
	switch {
	case r.Spot < 0 || math.IsNaN(r.Spot):
		return fmt.Errorf("spot %v must be >= 0: %w", r.Spot, errs.ErrInvalidArgument)
	case r.Vol < 0 || math.IsNaN(r.Vol):
		return fmt.Errorf("vol %v must be >= 0: %w", r.Vol, errs.ErrInvalidArgument)
	case r.Depth <= 0 || r.Depth > MaxDepth:
		return fmt.Errorf("depth %d must be in [1, %d]: %w", r.Depth, MaxDepth, errs.ErrInvalidArgument)
	case r.Paths <= 0:
		return fmt.Errorf("paths %d must be > 0: %w", r.Paths, errs.ErrInvalidArgument)
	}
	return nil
}

// Result is one method's answer. Skipped methods carry the reason only.
type Result struct {
	Method  string        `json:"method"`
	Price   float64       `json:"price"`
	Delta   *float64      `json:"delta,omitempty"`
	Low     *float64      `json:"ci_low,omitempty"`
	High    *float64      `json:"ci_high,omitempty"`
	Paths   int64         `json:"paths,omitempty"`
	Skipped string        `json:"skipped,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

type Report struct {
	Contract string   `json:"contract"`
	Results  []Result `json:"results"`
}

// Find returns the result for method, if present.
func (r *Report) Find(method string) (Result, bool) {
	for _, res := range r.Results {
		if res.Method == method {
			return res, true
		}
	}
	return Result{}, false
}

func timed(method string, v Valuer) (Result, error) {
	start := time.Now()
	price, err := v.Value()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", method, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Result{}, fmt.Errorf("%s: non-finite price %v", method, price)
	}
	return Result{Method: method, Price: price, Elapsed: time.Since(start)}, nil
}

// Compare prices the request with every method that applies to the contract:
// Black-Scholes for European vanilla and digital options, the CRR lattice
// for anything but Asian options (plus its closed form for European ones)
// and Monte-Carlo for anything without early exercise.
func Compare(req Request) (*Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	opt, err := req.Contract()
	if err != nil {
		return nil, err
	}
	report := &Report{Contract: opt.String()}
	add := func(res Result) { report.Results = append(report.Results, res) }
	skip := func(method, reason string) { add(Result{Method: method, Skipped: reason}) }

	if opt.IsAsian() || opt.IsAmerican() {
		skip(MethodBlackScholes, "no closed form for "+opt.String())
	} else {
		p, err := bs.New(opt, req.Spot, req.Rate, req.Vol)
		if err != nil {
			return nil, err
		}
		res, err := timed(MethodBlackScholes, p)
		if err != nil {
			return nil, err
		}
		delta := p.Delta()
		res.Delta = &delta
		add(res)
	}

	if opt.IsAsian() {
		skip(MethodCRR, "path dependent payoff")
		skip(MethodCRRClosed, "path dependent payoff")
	} else {
		tree, err := crr.NewFromMarket(opt, req.Depth, req.Spot, req.Rate, req.Vol)
		if err != nil {
			return nil, err
		}
		res, err := timed(MethodCRR, tree)
		if err != nil {
			return nil, err
		}
		add(res)
		if opt.IsAmerican() {
			skip(MethodCRRClosed, "early exercise")
		} else {
			res, err := timed(MethodCRRClosed, ValuerFunc(func() (float64, error) { return tree.Price(true) }))
			if err != nil {
				return nil, err
			}
			add(res)
		}
	}

	if opt.IsAmerican() {
		skip(MethodMonteCarlo, "no early exercise in simulation")
	} else {
		opts := []mc.Option{mc.WithWorkers(req.Workers)}
		if req.Seed != 0 {
			opts = append(opts, mc.WithSeed(req.Seed))
		}
		sim, err := mc.New(opt, req.Spot, req.Rate, req.Vol, opts...)
		if err != nil {
			return nil, err
		}
		res, err := timed(MethodMonteCarlo, ValuerFunc(func() (float64, error) {
			if err := sim.Generate(req.Paths); err != nil {
				return math.NaN(), err
			}
			return sim.Value()
		}))
		if err != nil {
			return nil, err
		}
		res.Paths = sim.NbPaths()
		if lo, hi, err := sim.ConfidenceInterval(); err == nil {
			res.Low, res.High = &lo, &hi
		}
		add(res)
	}

	log.WithFields(log.Fields{
		"contract": report.Contract,
		"methods":  len(report.Results),
	}).Debug("mainfuncs: comparison done")
	return report, nil
}

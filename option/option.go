package option

import (
	"fmt"
	"math"

	"github.com/banachtech/option-pricer/errs"
)

type Type int

const (
	Call Type = iota
	Put
)

func (t Type) String() string {
	if t == Put {
		return "put"
	}
	return "call"
}

// ParseType accepts "call"/"c" and "put"/"p".
func ParseType(s string) (Type, error) {
	switch s {
	case "call", "c", "C", "Call":
		return Call, nil
	case "put", "p", "P", "Put":
		return Put, nil
	}
	return Call, fmt.Errorf("option: unknown type %q: %w", s, errs.ErrInvalidArgument)
}

type Style int

const (
	European Style = iota
	Digital
	American
	Asian
)

var styleNames = [...]string{"european", "digital", "american", "asian"}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styleNames[s]
}

// ParseStyle accepts the names returned by Style.String.
func ParseStyle(s string) (Style, error) {
	for _, st := range []Style{European, Digital, American, Asian} {
		if st.String() == s {
			return st, nil
		}
	}
	return European, fmt.Errorf("option: unknown style %q: %w", s, errs.ErrInvalidArgument)
}

// Option is what the pricers need to know about a contract.
type Option interface {
	Expiry() float64
	Strike() float64
	Type() Type
	Payoff(spot float64) float64
	// PayoffPath evaluates the payoff on a simulated path sampled at
	// FixingTimes. An empty path is an error.
	PayoffPath(path []float64) (float64, error)
	// FixingTimes returns the observation times in years. Contracts that
	// only look at the terminal spot return []float64{Expiry()}.
	FixingTimes() []float64
	IsAsian() bool
	IsAmerican() bool
	IsDigital() bool
}

// Contract is a single-underlying option. The style decides how the payoff is
// read off a path and whether early exercise is allowed.
type Contract struct {
	style   Style
	kind    Type
	expiry  float64
	strike  float64
	fixings []float64
}

func newContract(style Style, t Type, expiry, strike float64) (*Contract, error) {
	if expiry < 0 || math.IsNaN(expiry) {
		return nil, fmt.Errorf("option: expiry %v must be >= 0: %w", expiry, errs.ErrInvalidArgument)
	}
	if strike < 0 || math.IsNaN(strike) {
		return nil, fmt.Errorf("option: strike %v must be >= 0: %w", strike, errs.ErrInvalidArgument)
	}
	return &Contract{style: style, kind: t, expiry: expiry, strike: strike}, nil
}

// NewEuropean returns a plain vanilla European option.
func NewEuropean(t Type, expiry, strike float64) (*Contract, error) {
	return newContract(European, t, expiry, strike)
}

func NewCall(expiry, strike float64) (*Contract, error) {
	return NewEuropean(Call, expiry, strike)
}

func NewPut(expiry, strike float64) (*Contract, error) {
	return NewEuropean(Put, expiry, strike)
}

// NewDigital returns a cash-or-nothing option paying 1 in the money.
func NewDigital(t Type, expiry, strike float64) (*Contract, error) {
	return newContract(Digital, t, expiry, strike)
}

func NewAmerican(t Type, expiry, strike float64) (*Contract, error) {
	return newContract(American, t, expiry, strike)
}

// NewAsian returns an arithmetic-average option observed at fixings, which
// must be non-empty, start at or after 0 and be strictly increasing. The last
// fixing is the expiry.
func NewAsian(t Type, fixings []float64, strike float64) (*Contract, error) {
	if len(fixings) == 0 {
		return nil, fmt.Errorf("option: asian fixings cannot be empty: %w", errs.ErrInvalidArgument)
	}
	if fixings[0] < 0 {
		return nil, fmt.Errorf("option: first fixing %v must be >= 0: %w", fixings[0], errs.ErrInvalidArgument)
	}
	for i := 1; i < len(fixings); i++ {
		if fixings[i] <= fixings[i-1] {
			return nil, fmt.Errorf("option: fixings must be strictly increasing at %d: %w", i, errs.ErrInvalidArgument)
		}
	}
	c, err := newContract(Asian, t, fixings[len(fixings)-1], strike)
	if err != nil {
		return nil, err
	}
	c.fixings = append([]float64(nil), fixings...)
	return c, nil
}

// New builds a contract of any style. fixings is only read for Asian options.
func New(style Style, t Type, expiry, strike float64, fixings []float64) (*Contract, error) {
	switch style {
	case European:
		return NewEuropean(t, expiry, strike)
	case Digital:
		return NewDigital(t, expiry, strike)
	case American:
		return NewAmerican(t, expiry, strike)
	case Asian:
		return NewAsian(t, fixings, strike)
	}
	return nil, fmt.Errorf("option: unknown style %d: %w", style, errs.ErrInvalidArgument)
}

func (c *Contract) Style() Style { return c.style }
func (c *Contract) Type() Type { return c.kind }
func (c *Contract) Expiry() float64 { return c.expiry }
func (c *Contract) Strike() float64 { return c.strike }
func (c *Contract) IsAsian() bool { return c.style == Asian }
func (c *Contract) IsAmerican() bool { return c.style == American }
func (c *Contract) IsDigital() bool { return c.style == Digital }

func (c *Contract) FixingTimes() []float64 {
	if c.style == Asian {
		return append([]float64(nil), c.fixings...)
	}
	return []float64{c.expiry}
}

// Payoff returns the amount paid if the contract settles against spot.
func (c *Contract) Payoff(spot float64) float64 {
	if c.style == Digital {
		if (c.kind == Call && spot >= c.strike) || (c.kind == Put && spot <= c.strike) {
			return 1.0
		}
		return 0.0
	}
	if c.kind == Call {
		return math.Max(spot-c.strike, 0.0)
	}
	return math.Max(c.strike-spot, 0.0)
}

// PayoffPath settles on the last observation, or on the arithmetic mean of
// all observations for Asian contracts.
func (c *Contract) PayoffPath(path []float64) (float64, error) {
	if len(path) == 0 {
		return math.NaN(), fmt.Errorf("option: path cannot be empty: %w", errs.ErrInvalidArgument)
	}
	if c.style != Asian {
		return c.Payoff(path[len(path)-1]), nil
	}
	sum := 0.0
	for _, s := range path {
		sum += s
	}
	return c.Payoff(sum / float64(len(path))), nil
}

func (c *Contract) String() string {
	return fmt.Sprintf("%v %v K=%v T=%v", c.style, c.kind, c.strike, c.expiry)
}

// Package errs holds the error kinds shared by the pricers.
//
// Configuration problems (bad inputs at construction) and usage-order problems
// (asking for a result before it exists) are both reported as wrapped sentinel
// errors. Callers match them with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidArgument reports an invalid configuration: nil option,
	// negative depth, arbitrage, unsupported contract, bad fixing schedule.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange reports a lattice index outside the triangle.
	ErrOutOfRange = errors.New("index out of range")

	// ErrPrecondition reports a call made in the wrong order, such as reading
	// a lattice node before compute or a price before any path was generated.
	ErrPrecondition = errors.New("precondition violated")
)

// IsConfig reports whether err belongs to the invalid-configuration class.
func IsConfig(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrOutOfRange)
}

package gtr

import (
	"errors"
	"fmt"
)

// Error kinds. Errors returned by this package (and by sim) wrap one
// of these, use errors.Is to check the kind.
var (
	// ErrDomain is returned for parameters outside of the model
	// domain (π or ρ not on the simplex, non-positive π).
	ErrDomain = errors.New("gtr: parameter out of domain")
	// ErrInvalidArgument is returned for invalid call arguments
	// (negative branch length, non-stochastic matrix, negative size).
	ErrInvalidArgument = errors.New("gtr: invalid argument")
	// ErrSingularMatrix is returned when the eigenvector matrix
	// cannot be inverted.
	ErrSingularMatrix = errors.New("gtr: singular eigenvector matrix")
	// ErrStructural is returned for malformed trees.
	ErrStructural = errors.New("gtr: malformed tree")
	// ErrConvergence is returned when the optimizer stops before
	// convergence.
	ErrConvergence = errors.New("gtr: optimizer did not converge")
	// ErrNumericOverflow is returned when a decomposition or a
	// transition matrix fails numeric sanity checks.
	ErrNumericOverflow = errors.New("gtr: numeric failure")
)

// ConvergenceError reports the best point found by an optimizer which
// did not converge.
type ConvergenceError struct {
	Theta  Theta
	LnL    float64
	Status string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v (status: %s, lnL=%v)", ErrConvergence, e.Status, e.LnL)
}

// Unwrap returns ErrConvergence.
func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

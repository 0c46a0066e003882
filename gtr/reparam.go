package gtr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"bitbucket.org/Davydov/gtr/nt"
)

// NTheta is the number of free parameters: branch length, three free
// frequencies and five free exchangeabilities.
const NTheta = 1 + (nt.NBase - 1) + (nt.NPair - 1)

// Theta is the unconstrained (box) parameter vector: t followed by
// the stick-breaking coordinates of π and ρ. All coordinates but t
// are in [0, 1].
type Theta [NTheta]float64

// SimplexToBox maps a point of the open simplex of dimension n to the
// box [0,1]^(n-1) using stick-breaking:
//
//	z[i] = x[i] / (1 - Σ_{j<i} x[j])
//
// x is normalized first, coordinates are always in [0,1].
func SimplexToBox(x []float64) ([]float64, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("%w: simplex of dimension %d", ErrDomain, len(x))
	}
	for i, v := range x {
		if !(v > 0 && v < 1) {
			return nil, fmt.Errorf("%w: element %d is %v", ErrDomain, i, v)
		}
	}
	s := floats.Sum(x)
	if math.Abs(s-1) > nt.SimplexTolerance {
		return nil, fmt.Errorf("%w: simplex sums to %v", ErrDomain, s)
	}
	// the allowed slack is removed, so that the remainder stays
	// non-negative
	rest := s
	z := make([]float64, len(x)-1)
	for i := range z {
		if rest > 0 {
			z[i] = math.Max(0, math.Min(1, x[i]/rest))
		} else {
			z[i] = 1
		}
		rest -= x[i]
	}
	return z, nil
}

// BoxToSimplex is the inverse of SimplexToBox. Coordinates outside of
// [0,1] are clamped.
func BoxToSimplex(z []float64) []float64 {
	x := make([]float64, len(z)+1)
	rest := 1.0
	for i, v := range z {
		v = math.Max(0, math.Min(1, v))
		x[i] = rest * v
		rest *= 1 - v
	}
	x[len(z)] = rest
	return x
}

// NewTheta packs branch length, π and ρ into a box parameter vector.
func NewTheta(t float64, pi nt.Frequency, rho nt.Exchangeability) (th Theta, err error) {
	if math.IsNaN(t) || t < 0 {
		return th, fmt.Errorf("%w: branch length %v", ErrInvalidArgument, t)
	}
	zpi, err := SimplexToBox(pi[:])
	if err != nil {
		return th, fmt.Errorf("frequency: %w", err)
	}
	zrho, err := SimplexToBox(rho[:])
	if err != nil {
		return th, fmt.Errorf("exchangeability: %w", err)
	}
	th[0] = t
	copy(th[1:], zpi)
	copy(th[nt.NBase:], zrho)
	return
}

// Unpack converts the box parameter vector back to (t, π, ρ).
func (th Theta) Unpack() (t float64, pi nt.Frequency, rho nt.Exchangeability) {
	t = th[0]
	copy(pi[:], BoxToSimplex(th[1:nt.NBase]))
	copy(rho[:], BoxToSimplex(th[nt.NBase:]))
	return
}

func (th Theta) String() string {
	t, pi, rho := th.Unpack()
	return fmt.Sprintf("<Theta: t=%v, pi=%v, rho=%v>", t, pi, rho)
}

// Package gtr implements the general time-reversible nucleotide
// substitution model: rate matrix, its spectral decomposition,
// transition probabilities, the stick-breaking parameterization and
// the pairwise likelihood with its maximization.
package gtr

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gtr/nt"
)

var log = logging.MustGetLogger("gtr")

// RateMatrix is an instantaneous rate matrix Q. Rows sum to zero.
type RateMatrix [nt.NBase][nt.NBase]float64

// NewRateMatrix creates a GTR rate matrix with
//
//	Q[i][j] = ρ(i,j) / (2π[i]), i != j
//
// and the diagonal set to minus the row sum. The matrix satisfies
// detailed balance π[i]Q[i][j] = π[j]Q[j][i] = ρ(i,j)/2, so the
// expected number of substitutions per unit of time is Σρ = 1.
func NewRateMatrix(pi nt.Frequency, rho nt.Exchangeability) (q RateMatrix, err error) {
	if err = pi.Validate(); err != nil {
		return q, fmt.Errorf("%w: frequency: %w", ErrDomain, err)
	}
	if err = rho.Validate(); err != nil {
		return q, fmt.Errorf("%w: exchangeability: %w", ErrDomain, err)
	}
	for k, p := range nt.Pairs {
		i, j := p[0], p[1]
		q[i][j] = rho[k] / (2 * pi[i])
		q[j][i] = rho[k] / (2 * pi[j])
	}
	for i := range q {
		q[i][i] = 0
		for j := range q[i] {
			if i != j {
				q[i][i] -= q[i][j]
			}
		}
	}
	return
}

// Check verifies that the rows sum to zero and the off-diagonal
// elements are non-negative. If pi is not nil, detailed balance is
// checked as well.
func (q *RateMatrix) Check(pi *nt.Frequency, tol float64) error {
	for i := range q {
		s := 0.0
		for j := range q[i] {
			if i != j && q[i][j] < 0 {
				return fmt.Errorf("negative rate Q[%d][%d]=%v", i, j, q[i][j])
			}
			s += q[i][j]
		}
		if math.Abs(s) > tol {
			return fmt.Errorf("row %d sums to %v", i, s)
		}
	}
	if pi == nil {
		return nil
	}
	for i := range q {
		for j := i + 1; j < nt.NBase; j++ {
			if d := pi[i]*q[i][j] - pi[j]*q[j][i]; math.Abs(d) > tol {
				return fmt.Errorf("detailed balance violated for (%v, %v): %v", nt.Base(i), nt.Base(j), d)
			}
		}
	}
	return nil
}

// stationary solves πQ = 0 with Σπ = 1. The last equation of Qᵀπ = 0
// is redundant and replaced by the sum.
func (q *RateMatrix) stationary() (pi nt.Frequency, err error) {
	if !q.irreducible() {
		return pi, fmt.Errorf("%w: reducible rate matrix, stationary distribution is not unique", ErrSingularMatrix)
	}
	a := mat64.NewDense(nt.NBase, nt.NBase, nil)
	for i := 0; i < nt.NBase; i++ {
		for j := 0; j < nt.NBase; j++ {
			if i == nt.NBase-1 {
				a.Set(i, j, 1)
				continue
			}
			a.Set(i, j, q[j][i])
		}
	}
	b := mat64.NewDense(nt.NBase, 1, nil)
	b.Set(nt.NBase-1, 0, 1)
	var x mat64.Dense
	if err = x.Solve(a, b); err != nil {
		return pi, fmt.Errorf("%w: stationary distribution: %v", ErrSingularMatrix, err)
	}
	for i := range pi {
		pi[i] = x.At(i, 0)
	}
	return
}

// irreducible checks that every base can be reached from A.
func (q *RateMatrix) irreducible() bool {
	var seen [nt.NBase]bool
	seen[0] = true
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for j := range q[i] {
			if !seen[j] && q[i][j] > 0 {
				seen[j] = true
				stack = append(stack, j)
			}
		}
	}
	for _, s := range seen {
		if !s {
			return false
		}
	}
	return true
}

// Dense returns the matrix as mat64.Dense.
func (q *RateMatrix) Dense() *mat64.Dense {
	m := mat64.NewDense(nt.NBase, nt.NBase, nil)
	for i := range q {
		for j := range q[i] {
			m.Set(i, j, q[i][j])
		}
	}
	return m
}

// TransitionMatrix is a matrix of transition probabilities P(t),
// P[i][j] is the probability of base j after time t given base i.
type TransitionMatrix [nt.NBase][nt.NBase]float64

// Identity returns the identity transition matrix, i.e. P(0).
func Identity() (p TransitionMatrix) {
	for i := range p {
		p[i][i] = 1
	}
	return
}

// Stochastic checks that all elements are non-negative and every row
// sums to one within tol.
func (p *TransitionMatrix) Stochastic(tol float64) error {
	for i := range p {
		s := 0.0
		for j := range p[i] {
			if p[i][j] < 0 || math.IsNaN(p[i][j]) {
				return fmt.Errorf("P[%d][%d]=%v", i, j, p[i][j])
			}
			s += p[i][j]
		}
		if math.Abs(s-1) > tol {
			return fmt.Errorf("row %d sums to %v", i, s)
		}
	}
	return nil
}

// Row returns row i as a slice, e.g. to be used as categorical
// weights.
func (p *TransitionMatrix) Row(i nt.Base) []float64 {
	return p[i][:]
}

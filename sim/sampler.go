// Package sim simulates nucleotide sequences under the GTR model,
// either for a single parent-child pair or along a rooted tree.
package sim

import (
	"fmt"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
)

var log = logging.MustGetLogger("sim")

// stochasticTolerance is the allowed deviation of transition matrix
// row sums from one.
const stochasticTolerance = 1e-6

// Sampler draws nucleotides from a seedable random source. Sampler
// is not safe for concurrent use.
type Sampler struct {
	src rand.Source
}

// NewSampler creates a sampler with the given seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{src: rand.NewSource(seed)}
}

// Stationary draws n independent bases from π.
func (s *Sampler) Stationary(n int, pi nt.Frequency) ([]nt.Base, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: sequence length %d", gtr.ErrInvalidArgument, n)
	}
	if err := pi.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", gtr.ErrDomain, err)
	}
	cat := distuv.NewCategorical(pi[:], s.src)
	seq := make([]nt.Base, n)
	for i := range seq {
		seq[i] = nt.Base(cat.Rand())
	}
	return seq, nil
}

// categoricals creates a distribution for every parent base. Every
// distribution gets its own source derived from the sampler source,
// so the draws for a parent base do not depend on the other bases.
func (s *Sampler) categoricals(parent []nt.Base, p *gtr.TransitionMatrix) (cats [nt.NBase]distuv.Categorical, err error) {
	if err = p.Stochastic(stochasticTolerance); err != nil {
		return cats, fmt.Errorf("%w: transition matrix: %v", gtr.ErrInvalidArgument, err)
	}
	for i, b := range parent {
		if b >= nt.NBase {
			return cats, fmt.Errorf("%w: base %d at position %d", gtr.ErrInvalidArgument, b, i)
		}
	}
	for b := range cats {
		cats[b] = distuv.NewCategorical(p[b][:], rand.NewSource(s.src.Uint64()))
	}
	return
}

// Child draws a child sequence given the parent and P(t). Positions
// are grouped by the parent base and every group is sampled from the
// corresponding row of P.
func (s *Sampler) Child(parent []nt.Base, p *gtr.TransitionMatrix) ([]nt.Base, error) {
	cats, err := s.categoricals(parent, p)
	if err != nil {
		return nil, err
	}
	var groups [nt.NBase][]int
	for i, b := range parent {
		groups[b] = append(groups[b], i)
	}
	child := make([]nt.Base, len(parent))
	for b, positions := range groups {
		for _, i := range positions {
			child[i] = nt.Base(cats[b].Rand())
		}
	}
	return child, nil
}

// ChildPerSite draws a child sequence position by position. For the
// same sampler state it gives exactly the same result as Child.
func (s *Sampler) ChildPerSite(parent []nt.Base, p *gtr.TransitionMatrix) ([]nt.Base, error) {
	cats, err := s.categoricals(parent, p)
	if err != nil {
		return nil, err
	}
	child := make([]nt.Base, len(parent))
	for i, b := range parent {
		child[i] = nt.Base(cats[b].Rand())
	}
	return child, nil
}

// Pair simulates a sequence pair: the first sequence is drawn from
// the stationary distribution and the second one evolves from it for
// time t.
func (s *Sampler) Pair(m *gtr.RateModel, n int, t float64) (x, y []nt.Base, err error) {
	p, err := m.Exp(t)
	if err != nil {
		return nil, nil, err
	}
	if x, err = s.Stationary(n, m.Frequency()); err != nil {
		return nil, nil, err
	}
	if y, err = s.Child(x, &p); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

package sim

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/exp/rand"

	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
	"bitbucket.org/Davydov/gtr/tree"
)

// Simulator evolves sequences along a rooted tree.
type Simulator struct {
	model   *gtr.RateModel
	sampler *Sampler
}

// NewSimulator creates a simulator.
func NewSimulator(model *gtr.RateModel, sampler *Sampler) *Simulator {
	return &Simulator{
		model:   model,
		sampler: sampler,
	}
}

// Simulate draws the root sequence of length n from the stationary
// distribution and evolves it along every edge. Only the leaf
// sequences are returned, in the leaf order.
func (s *Simulator) Simulate(t *tree.Tree, n int) (nt.Sequences, error) {
	_, leaves, err := s.SimulateAll(t, n)
	return leaves, err
}

// SimulateAll is like Simulate but also returns the sequences of all
// the nodes indexed by node id.
func (s *Simulator) SimulateAll(t *tree.Tree, n int) (all [][]nt.Base, leaves nt.Sequences, err error) {
	if err = t.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", gtr.ErrStructural, err)
	}
	if n < 0 {
		return nil, nil, fmt.Errorf("%w: sequence length %d", gtr.ErrInvalidArgument, n)
	}

	all = make([][]nt.Base, t.NNodes())
	all[t.Id], err = s.sampler.Stationary(n, s.model.Frequency())
	if err != nil {
		return nil, nil, err
	}

	ps := make(map[float64]*gtr.TransitionMatrix)
	for _, e := range t.Edges() {
		p, ok := ps[e.Length]
		if !ok {
			pt, err := s.model.Exp(e.Length)
			if err != nil {
				return nil, nil, err
			}
			p = &pt
			ps[e.Length] = p
		}
		all[e.Child.Id], err = s.sampler.Child(all[e.Parent.Id], p)
		if err != nil {
			return nil, nil, err
		}
	}
	log.Debugf("simulated %d nodes, %d distinct branch lengths", len(all), len(ps))

	for _, leaf := range t.Leaves() {
		leaves = append(leaves, nt.Sequence{
			Name:     leaf.Name,
			Sequence: all[leaf.Id],
		})
	}
	return all, leaves, nil
}

// Replicates simulates nrep independent alignments on a pool of
// workers. Every replicate has its own sampler seeded from the
// master seed, so the result does not depend on scheduling.
func Replicates(model *gtr.RateModel, t *tree.Tree, n, nrep int, seed uint64) ([]nt.Sequences, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", gtr.ErrStructural, err)
	}
	if nrep < 0 {
		return nil, fmt.Errorf("%w: number of replicates %d", gtr.ErrInvalidArgument, nrep)
	}
	master := rand.NewSource(seed)
	seeds := make([]uint64, nrep)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}
	// node count and edges are cached on the first call
	t.Edges()

	res := make([]nt.Sequences, nrep)
	errs := make([]error, nrep)
	tasks := make(chan int, nrep)
	for i := range seeds {
		tasks <- i
	}
	close(tasks)

	var wg sync.WaitGroup
	for w := 0; w < runtime.GOMAXPROCS(0); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				s := NewSimulator(model, NewSampler(seeds[i]))
				res[i], errs[i] = s.Simulate(t, n)
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", i, err)
		}
	}
	return res, nil
}

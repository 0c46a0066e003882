package optimize

import (
	"errors"
	"math"

	opt "gonum.org/v1/gonum/optimize"
)

// penalty is the slope of the penalty added for points outside of the
// bounds.
const penalty = 1e4

// NelderMead is the downhill simplex optimizer. It uses the gonum
// implementation, points outside of the bounds are projected to the
// box and penalized.
type NelderMead struct {
	BaseOptimizer
	// SimplexSize is the size of the initial simplex.
	SimplexSize float64
	clamped     []float64
}

// NewNelderMead creates a new downhill simplex optimizer.
func NewNelderMead() *NelderMead {
	return &NelderMead{
		BaseOptimizer: newBaseOptimizer("NelderMead"),
		SimplexSize:   0.05,
	}
}

// Init is a part of the gonum optimize.Recorder interface.
func (n *NelderMead) Init() error {
	return nil
}

// Record is called by gonum optimize.
func (n *NelderMead) Record(l *opt.Location, op opt.Operation, s *opt.Stats) error {
	if op == opt.MajorIteration {
		n.iteration(s.MajorIterations, -l.F)
	}
	if n.signaled() {
		return errors.New("exiting by signal")
	}
	return nil
}

// Func returns negative log-likelihood.
func (n *NelderMead) Func(x []float64) float64 {
	if n.clamped == nil {
		n.clamped = make([]float64, len(x))
	}
	dist := 0.0
	for i, par := range n.parameters {
		v := math.Max(par.GetMin(), math.Min(par.GetMax(), x[i]))
		dist += math.Abs(v - x[i])
		n.clamped[i] = v
	}
	l := n.evaluate(n.clamped)
	if math.IsInf(l, -1) || math.IsNaN(l) {
		return math.Inf(+1)
	}
	return -l + penalty*dist
}

// Run runs the optimization for at most iterations major iterations.
func (n *NelderMead) Run(iterations int) {
	n.begin()
	settings := &opt.Settings{
		MajorIterations: iterations,
		Converger: &opt.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-12,
			Iterations: 10 * len(n.parameters),
		},
		Recorder: n,
	}
	method := &opt.NelderMead{SimplexSize: n.SimplexSize}

	res, err := opt.Minimize(opt.Problem{Func: n.Func}, n.parameters.Values(nil), settings, method)
	if err != nil {
		log.Error("Optimization error: ", err)
		n.finish(err.Error(), false)
		return
	}
	n.finish(res.Status.String(), !res.Status.Early())
}

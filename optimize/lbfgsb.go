package optimize

import (
	"fmt"
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is the limited-memory BFGS optimizer with box constraints.
// The gradient is computed numerically using central differences.
type LBFGSB struct {
	BaseOptimizer
	dH   float64
	grad []float64
}

// NewLBFGSB creates a new L-BFGS-B optimizer.
func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		BaseOptimizer: newBaseOptimizer("LBFGSB"),
		dH:            1e-6,
	}
}

// Logger is called by L-BFGS-B after every iteration.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.parameters.SetValues(info.X)
	l.iteration(info.Iteration, -info.F)
	if l.signaled() {
		log.Fatal("Exiting by signal")
	}
}

// EvaluateFunction returns negative log-likelihood.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	return -l.evaluate(x)
}

// EvaluateGradient computes the gradient of negative log-likelihood.
// Points outside of the bounds are clamped.
func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	for i := range x {
		par := l.parameters[i]
		v1 := math.Max(par.GetMin(), x[i]-l.dH)
		v2 := math.Min(par.GetMax(), x[i]+l.dH)

		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		par1[i].Set(v1)
		l1 := -no1.Likelihood()

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		par2[i].Set(v2)
		l2 := -no2.Likelihood()
		l.calls += 2

		grad[i] = (l2 - l1) / (v2 - v1)
	}
	return
}

// Run runs the optimization. L-BFGS-B stops on its own tolerances,
// iterations is not used.
func (l *LBFGSB) Run(iterations int) {
	l.begin()
	bounds := make([][2]float64, len(l.parameters))

	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin() + 1e-5
		bounds[i][1] = par.GetMax() - 1e-5
	}

	x0 := l.parameters.Values(nil)
	for i := range x0 {
		x0[i] = math.Max(bounds[i][0], math.Min(bounds[i][1], x0[i]))
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, x0)

	log.Debug("Exit status: ", exitStatus)

	converged := exitStatus.Code == lbfgsb.SUCCESS || exitStatus.Code == lbfgsb.APPROXIMATE
	l.finish(fmt.Sprint(exitStatus), converged)
}

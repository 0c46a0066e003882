package gtr

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"bitbucket.org/Davydov/gtr/checkpoint"
	"bitbucket.org/Davydov/gtr/nt"
	"bitbucket.org/Davydov/gtr/optimize"
)

// Optimization methods.
const (
	MethodLBFGSB  = "lbfgsb"
	MethodSimplex = "simplex"
	MethodNone    = "none"
)

// Methods lists all the optimization methods.
var Methods = []string{MethodLBFGSB, MethodSimplex, MethodNone}

// startFloor is the minimal starting frequency and exchangeability,
// the start has to be strictly inside the simplex.
const startFloor = 1e-6

// Settings controls the estimation.
type Settings struct {
	// Method is one of Methods.
	Method string
	// Iterations is the maximum number of iterations (not used by
	// L-BFGS-B).
	Iterations int
	// MaxBrLen is the upper bound of the branch length.
	MaxBrLen float64
	// General selects the general eigendecomposition of Q.
	General bool
	// ReportPeriod is the trajectory report period.
	ReportPeriod int
	// Output receives the optimization trajectory if not nil.
	Output io.Writer
	// Checkpoint enables checkpointing and resuming if not nil.
	Checkpoint *checkpoint.CheckpointIO
	// Signals makes the optimizer save a checkpoint and exit.
	Signals []os.Signal
}

// DefaultSettings returns the default estimation settings.
func DefaultSettings() *Settings {
	return &Settings{
		Method:       MethodLBFGSB,
		Iterations:   10000,
		MaxBrLen:     DefaultMaxBrLen,
		ReportPeriod: 10,
	}
}

func (s *Settings) options() []Option {
	if s.General {
		return []Option{General()}
	}
	return nil
}

// Result is the estimation result.
type Result struct {
	T        float64            `json:"t"`
	Pi       nt.Frequency       `json:"pi"`
	Rho      nt.Exchangeability `json:"rho"`
	Theta    Theta              `json:"theta"`
	LnL      float64            `json:"lnL"`
	Start    Theta              `json:"start"`
	StartLnL float64            `json:"startLnL"`
	// Resumed is set if the optimization started from a checkpoint.
	Resumed   bool             `json:"resumed"`
	Optimizer optimize.Summary `json:"optimizer"`
}

// MarshalJSON encodes the result, non-finite likelihoods are encoded
// as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	type result Result
	return json.Marshal(struct {
		result
		LnL      optimize.Float `json:"lnL"`
		StartLnL optimize.Float `json:"startLnL"`
	}{result(r), optimize.Float(r.LnL), optimize.Float(r.StartLnL)})
}

// NewOptimizer creates an optimizer by method name.
func NewOptimizer(method string) (optimize.Optimizer, error) {
	switch method {
	case MethodLBFGSB:
		return optimize.NewLBFGSB(), nil
	case MethodSimplex:
		return optimize.NewNelderMead(), nil
	case MethodNone:
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("%w: unknown optimization method %q", ErrInvalidArgument, method)
}

// JCDistance returns the Jukes-Cantor distance for the proportion of
// differing sites p, capped at max.
func JCDistance(p, max float64) float64 {
	if p >= 0.75 {
		return max
	}
	return math.Min(max, -0.75*math.Log(1-4*p/3))
}

// StartingPoint computes the starting parameters: empirical base
// frequencies, empirical exchangeabilities and the Jukes-Cantor
// branch length.
func StartingPoint(c *nt.Counts, maxBrLen float64) (Theta, error) {
	pi := nt.CountsFrequency(c).Floor(startFloor)
	rho := nt.EmpiricalExchangeability(c).Floor(startFloor)
	t0 := JCDistance(c.PDistance(), maxBrLen)
	log.Debugf("Starting point: t=%v, pi=%v, rho=%v", t0, pi, rho)
	return NewTheta(t0, pi, rho)
}

// resume sets the parameters from the checkpoint. Both unfinished and
// finished runs are resumed, the latter restart at the stored optimum.
func resume(m *PairModel, cio *checkpoint.CheckpointIO) bool {
	data, err := cio.GetParameters()
	if err != nil {
		log.Warning("Error reading checkpoint:", err)
		return false
	}
	if data == nil {
		return false
	}
	start := m.Theta()
	par := m.GetFloatParameters()
	if err := par.SetFromMap(data.Parameters); err != nil || !par.InRange() {
		log.Warning("Ignoring incompatible checkpoint:", err)
		m.SetTheta(start)
		return false
	}
	if data.Final {
		log.Notice("Restarting at the optimum of a finished run")
	} else {
		log.Notice("Resuming from checkpoint")
	}
	return true
}

// startLikelihood computes the likelihood at the current parameters.
// Unlike PairModel.Likelihood, decomposition failures are returned.
func startLikelihood(m *PairModel) (float64, error) {
	model, err := m.RateModel()
	if err != nil {
		return math.NaN(), err
	}
	return LogLikelihood(m.counts, model, m.theta[0])
}

// Estimate maximizes the likelihood of a sequence pair. If the
// optimizer does not converge, the best result found is returned
// along with a *ConvergenceError.
func Estimate(c *nt.Counts, s *Settings) (*Result, error) {
	if s == nil {
		s = DefaultSettings()
	}
	if c.Total() == 0 {
		return nil, fmt.Errorf("%w: no sites", ErrInvalidArgument)
	}
	if !(s.MaxBrLen > 0) {
		return nil, fmt.Errorf("%w: maximum branch length %v", ErrInvalidArgument, s.MaxBrLen)
	}
	o, err := NewOptimizer(s.Method)
	if err != nil {
		return nil, err
	}

	start, err := StartingPoint(c, s.MaxBrLen)
	if err != nil {
		return nil, err
	}
	m := NewPairModel(c, start, s.MaxBrLen, s.options()...)

	res := &Result{}
	if s.Checkpoint != nil {
		res.Resumed = resume(m, s.Checkpoint)
		o.SetCheckpointIO(s.Checkpoint)
	}

	res.Start = m.Theta()
	if res.StartLnL, err = startLikelihood(m); err != nil && res.Resumed {
		log.Warning("Ignoring checkpoint:", err)
		m.SetTheta(start)
		res.Start, res.Resumed = start, false
		res.StartLnL, err = startLikelihood(m)
	}
	if err != nil {
		return nil, err
	}
	log.Infof("Starting lnL=%v at %v", res.StartLnL, res.Start)

	o.SetOptimizable(m)
	o.SetReportPeriod(s.ReportPeriod)
	if s.Output != nil {
		o.SetOutput(s.Output)
	}
	if len(s.Signals) > 0 {
		o.WatchSignals(s.Signals...)
	}
	o.Run(s.Iterations)

	res.Optimizer = o.Summary()
	res.Theta = m.Theta()
	res.T, res.Pi, res.Rho = res.Theta.Unpack()
	res.LnL = o.GetMaxL()
	log.Infof("Final lnL=%v at %v", res.LnL, res.Theta)

	if !res.Optimizer.Converged {
		return res, &ConvergenceError{
			Theta:  res.Theta,
			LnL:    res.LnL,
			Status: res.Optimizer.Status,
		}
	}
	return res, nil
}

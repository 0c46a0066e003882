// Package optimize provides likelihood maximizers over bounded
// parameters.
package optimize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gtr/checkpoint"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is a model which likelihood can be maximized.
type Optimizable interface {
	// GetFloatParameters returns parameters bound to this instance.
	GetFloatParameters() FloatParameters
	// Copy creates an independent copy, e.g. for gradient
	// computations.
	Copy() Optimizable
	// Likelihood returns log-likelihood at the current parameter
	// values.
	Likelihood() float64
}

// Optimizer maximizes likelihood of an Optimizable.
type Optimizer interface {
	SetOptimizable(Optimizable)
	SetOutput(io.Writer)
	SetReportPeriod(period int)
	SetCheckpointIO(*checkpoint.CheckpointIO)
	WatchSignals(...os.Signal)
	Run(iterations int)
	GetMaxL() float64
	GetMaxLParameters() []float64
	Summary() Summary
}

// Summary is the optimizer summary for the JSON output.
type Summary struct {
	Optimizer      string             `json:"optimizer"`
	Status         string             `json:"status"`
	Converged      bool               `json:"converged"`
	Iterations     int                `json:"iterations"`
	Calls          int                `json:"likelihoodCalls"`
	MaxLnL         float64            `json:"maxLnL"`
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	Time           float64            `json:"time"`
}

// MarshalJSON encodes the summary, a non-finite likelihood is
// encoded as a string.
func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	return json.Marshal(struct {
		summary
		MaxLnL Float `json:"maxLnL"`
	}{summary(s), Float(s.MaxLnL)})
}

// BaseOptimizer contains the functionality shared by all optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters   FloatParameters
	name         string
	i            int
	calls        int
	l            float64
	maxL         float64
	maxLPar      []float64
	repPeriod    int
	output       io.Writer
	sig          chan os.Signal
	checkpointIO *checkpoint.CheckpointIO
	status       string
	converged    bool
	start        time.Time
	elapsed      time.Duration
}

func newBaseOptimizer(name string) BaseOptimizer {
	return BaseOptimizer{
		name:      name,
		repPeriod: 10,
		maxL:      math.Inf(-1),
	}
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// SetOutput sets the trajectory output. No trajectory is written by
// default.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.output = w
}

// SetReportPeriod sets how often trajectory lines are written.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetCheckpointIO enables checkpointing.
func (o *BaseOptimizer) SetCheckpointIO(cio *checkpoint.CheckpointIO) {
	o.checkpointIO = cio
}

// WatchSignals makes the optimizer save a checkpoint and exit when
// any of the signals is received.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

func (o *BaseOptimizer) begin() {
	o.start = time.Now()
	o.maxL = math.Inf(-1)
	o.maxLPar = o.parameters.Values(o.maxLPar)
	o.PrintHeader()
}

// evaluate computes likelihood at x, keeping track of the maximum.
func (o *BaseOptimizer) evaluate(x []float64) float64 {
	o.parameters.SetValues(x)
	o.l = o.Likelihood()
	o.calls++
	if o.l > o.maxL {
		o.maxL = o.l
		o.maxLPar = o.parameters.Values(o.maxLPar)
	}
	return o.l
}

// iteration is called by optimizers after every major iteration.
func (o *BaseOptimizer) iteration(i int, l float64) {
	o.i = i
	o.l = l
	if o.repPeriod > 0 && o.i%o.repPeriod == 0 {
		o.PrintLine()
	}
	if o.checkpointIO != nil && o.checkpointIO.Old() {
		o.saveCheckpoint(false)
	}
}

// signaled checks if a watched signal was received.
func (o *BaseOptimizer) signaled() bool {
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v", s)
		o.saveCheckpoint(false)
		return true
	default:
	}
	return false
}

// finish restores the best parameters and reports the results.
func (o *BaseOptimizer) finish(status string, converged bool) {
	o.elapsed = time.Since(o.start)
	o.status = status
	o.converged = converged
	if o.maxLPar != nil {
		o.parameters.SetValues(o.maxLPar)
	}
	o.saveCheckpoint(true)

	log.Infof("Finished %s (%s)", o.name, status)
	log.Infof("Maximum likelihood: %v", o.maxL)
	log.Infof("Likelihood function calls: %v", o.calls)
	log.Infof("Parameter  names: %v", o.parameters.NamesString())
	log.Infof("Parameter values: %v", o.parameters.ValuesString())
	if !converged {
		log.Warningf("%s did not converge: %s", o.name, status)
	}
}

func (o *BaseOptimizer) saveCheckpoint(final bool) {
	if o.checkpointIO == nil || o.maxLPar == nil || math.IsInf(o.maxL, -1) {
		return
	}
	o.checkpointIO.Save(&checkpoint.CheckpointData{
		Parameters: o.parameters.Map(o.maxLPar),
		Likelihood: o.maxL,
		Iter:       o.i,
		Final:      final,
	})
}

// PrintHeader writes the trajectory header.
func (o *BaseOptimizer) PrintHeader() {
	if o.output != nil {
		fmt.Fprintf(o.output, "iteration\tlikelihood\t%s\n", o.parameters.NamesString())
	}
}

// PrintLine writes the current state to the trajectory.
func (o *BaseOptimizer) PrintLine() {
	if o.output != nil {
		fmt.Fprintf(o.output, "%d\t%f\t%s\n", o.i, o.l, o.parameters.ValuesString())
	}
}

// GetMaxL returns the maximum log-likelihood found.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns the parameter values at the maximum.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the optimizer summary.
func (o *BaseOptimizer) Summary() Summary {
	s := Summary{
		Optimizer:  o.name,
		Status:     o.status,
		Converged:  o.converged,
		Iterations: o.i,
		Calls:      o.calls,
		MaxLnL:     o.maxL,
		Time:       o.elapsed.Seconds(),
	}
	if o.maxLPar != nil {
		s.MaxLParameters = o.parameters.Map(o.maxLPar)
	}
	return s
}

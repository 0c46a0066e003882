package gtr

import (
	"errors"
	"math"
	"strconv"

	"bitbucket.org/Davydov/gtr/nt"
	"bitbucket.org/Davydov/gtr/optimize"
)

// DefaultMaxBrLen is the default upper bound of the branch length.
const DefaultMaxBrLen = 5

// PairModel is the likelihood of a sequence pair as a function of the
// box parameters. It implements optimize.Optimizable.
type PairModel struct {
	counts     *nt.Counts
	theta      Theta
	maxBrLen   float64
	opts       []Option
	model      *RateModel
	parameters optimize.FloatParameters
}

// NewPairModel creates a pair model starting at th.
func NewPairModel(c *nt.Counts, th Theta, maxBrLen float64, opts ...Option) *PairModel {
	m := &PairModel{
		counts:   c,
		theta:    th,
		maxBrLen: maxBrLen,
		opts:     opts,
	}
	m.setupParameters()
	return m
}

func (m *PairModel) setupParameters() {
	m.parameters = nil
	t := optimize.NewBasicFloatParameter(&m.theta[0], "t")
	t.SetMin(0)
	t.SetMax(m.maxBrLen)
	m.parameters.Append(t)
	for i := 1; i < NTheta; i++ {
		var name string
		if i < nt.NBase {
			name = "pi" + strconv.Itoa(i)
		} else {
			name = "rho" + strconv.Itoa(i-nt.NBase+1)
		}
		par := optimize.NewBasicFloatParameter(&m.theta[i], name)
		par.SetMin(0)
		par.SetMax(1)
		// branch length changes keep the decomposition
		par.SetOnChange(func() {
			m.model = nil
		})
		m.parameters.Append(par)
	}
}

// GetFloatParameters returns the parameters.
func (m *PairModel) GetFloatParameters() optimize.FloatParameters {
	return m.parameters
}

// Copy creates a copy sharing the data and the current rate model.
func (m *PairModel) Copy() optimize.Optimizable {
	n := &PairModel{
		counts:   m.counts,
		theta:    m.theta,
		maxBrLen: m.maxBrLen,
		opts:     m.opts,
		model:    m.model,
	}
	n.setupParameters()
	return n
}

// Theta returns the current parameters.
func (m *PairModel) Theta() Theta {
	return m.theta
}

// SetTheta sets all the parameters.
func (m *PairModel) SetTheta(th Theta) {
	m.parameters.SetValues(th[:])
}

// RateModel returns the rate model for the current parameters.
func (m *PairModel) RateModel() (*RateModel, error) {
	if m.model == nil {
		_, pi, rho := m.theta.Unpack()
		model, err := NewRateModel(pi, rho, m.opts...)
		if err != nil {
			return nil, err
		}
		m.model = model
	}
	return m.model, nil
}

// Likelihood returns the log-likelihood at the current parameters.
// Failures give -Inf.
func (m *PairModel) Likelihood() float64 {
	model, err := m.RateModel()
	if err == nil {
		var l float64
		if l, err = LogLikelihood(m.counts, model, m.theta[0]); err == nil {
			return l
		}
	}
	// the simplex boundary is routinely visited by the optimizers
	if errors.Is(err, ErrDomain) {
		log.Debugf("%v at %v", err, m.theta)
	} else {
		log.Warningf("%v at %v", err, m.theta)
	}
	return math.Inf(-1)
}

package gtr

import (
	"fmt"
	"math"

	"bitbucket.org/Davydov/gtr/nt"
)

// LogLikelihood computes the log-likelihood of a sequence pair given
// its site pattern counts, the rate model and the branch length:
//
//	Σ_i n_i·log π_i + Σ_ij n_ij·log P_ij(t)
//
// where n_i is the number of sites with base i in the first sequence.
// Terms with zero counts are skipped. If an observed pattern has zero
// probability the result is -Inf.
func LogLikelihood(c *nt.Counts, m *RateModel, t float64) (float64, error) {
	p, err := m.Exp(t)
	if err != nil {
		return math.NaN(), err
	}
	return countsLogLikelihood(c, m.pi, &p), nil
}

func countsLogLikelihood(c *nt.Counts, pi nt.Frequency, p *TransitionMatrix) (l float64) {
	for i := 0; i < nt.NBase; i++ {
		if n := c.RowTotal(nt.Base(i)); n > 0 {
			l += float64(n) * math.Log(pi[i])
		}
		for j := 0; j < nt.NBase; j++ {
			if c[i][j] == 0 {
				continue
			}
			l += float64(c[i][j]) * math.Log(p[i][j])
		}
	}
	return
}

// LogLikelihoodTheta computes the log-likelihood at the box parameter
// vector. Rate models are taken from the cache if it is not nil.
func LogLikelihoodTheta(c *nt.Counts, th Theta, cache *Cache) (float64, error) {
	t, pi, rho := th.Unpack()
	var m *RateModel
	var err error
	if cache != nil {
		m, err = cache.Get(pi, rho)
	} else {
		m, err = NewRateModel(pi, rho)
	}
	if err != nil {
		return math.NaN(), err
	}
	return LogLikelihood(c, m, t)
}

// SiteLogLikelihood returns the log-likelihood of a single site with
// base x in the first sequence and y in the second.
func SiteLogLikelihood(pi nt.Frequency, p *TransitionMatrix, x, y nt.Base) float64 {
	return math.Log(pi[x]) + math.Log(p[x][y])
}

// PairLogLikelihood sums site log-likelihoods over two aligned
// sequences.
func PairLogLikelihood(x, y []nt.Base, m *RateModel, t float64) (l float64, err error) {
	if len(x) != len(y) {
		return math.NaN(), fmt.Errorf("%w: %w", ErrInvalidArgument, nt.ErrLengthMismatch)
	}
	p, err := m.Exp(t)
	if err != nil {
		return math.NaN(), err
	}
	for i := range x {
		l += SiteLogLikelihood(m.pi, &p, x[i], y[i])
	}
	return l, nil
}

// Profile computes the log-likelihood for every branch length in ts
// with π and ρ fixed by the model.
func Profile(c *nt.Counts, m *RateModel, ts []float64) ([]float64, error) {
	res := make([]float64, len(ts))
	for i, t := range ts {
		l, err := LogLikelihood(c, m, t)
		if err != nil {
			return nil, err
		}
		res[i] = l
	}
	return res, nil
}

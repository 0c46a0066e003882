package gtr

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/gtr/nt"
)

const (
	// zeroTolerance is the relative tolerance for the zero eigenvalue
	// and for imaginary parts of the eigenvalues.
	zeroTolerance = 1e-10
	// clampTolerance is the magnitude of negative transition
	// probabilities which are silently set to zero.
	clampTolerance = 1e-9
	// rowTolerance is the allowed deviation of transition matrix row
	// sums from one.
	rowTolerance = 1e-6
	// stationaryTolerance is the allowed difference between π and the
	// stationary distribution recovered from the decomposition.
	stationaryTolerance = 1e-6
	// reconstructTolerance is the relative error allowed when the
	// eigendecomposition is multiplied back.
	reconstructTolerance = 1e-9
)

// RateModel stores a rate matrix Q with its eigendecomposition
// Q = V·diag(λ)·V⁻¹ to quickly compute P(t) = e^{Qt}. RateModel is
// immutable after construction and can be shared between goroutines.
type RateModel struct {
	q          RateMatrix
	pi         nt.Frequency
	rho        nt.Exchangeability
	values     [nt.NBase]float64
	v          *mat64.Dense
	iv         *mat64.Dense
	zero       int
	stationary nt.Frequency
	symmetric  bool
	reducible  bool
	// scale is max(1, max|λ|)
	scale float64
}

type modelOptions struct {
	general bool
}

// Option modifies the way RateModel is constructed.
type Option func(*modelOptions)

// General makes the decomposition use the general real
// eigendecomposition of Q instead of the symmetric matrix
// D^{1/2}·Q·D^{-1/2}, D=diag(π). If the eigenvectors of Q are
// ill-conditioned (e.g. degenerate eigenvalues), the symmetric
// decomposition is used anyway.
func General() Option {
	return func(o *modelOptions) {
		o.general = true
	}
}

// NewRateModel builds the rate matrix for (π, ρ) and decomposes it.
func NewRateModel(pi nt.Frequency, rho nt.Exchangeability, opts ...Option) (*RateModel, error) {
	q, err := NewRateMatrix(pi, rho)
	if err != nil {
		return nil, err
	}
	return newRateModel(q, pi, rho, opts...)
}

// NewRateModelFromQ decomposes a given reversible rate matrix. π is
// obtained by solving πQ = 0, Σπ = 1 and ρ(i,j) = 2π[i]Q[i][j].
func NewRateModelFromQ(q RateMatrix, opts ...Option) (*RateModel, error) {
	if err := q.Check(nil, rowTolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDomain, err)
	}
	pi, err := q.stationary()
	if err != nil {
		return nil, err
	}
	if err := pi.Validate(); err != nil {
		return nil, fmt.Errorf("%w: frequency: %w", ErrDomain, err)
	}
	if err := q.Check(&pi, rowTolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDomain, err)
	}
	var rho nt.Exchangeability
	for k, p := range nt.Pairs {
		rho[k] = 2 * pi[p[0]] * q[p[0]][p[1]]
	}
	if err := rho.Validate(); err != nil {
		return nil, fmt.Errorf("%w: exchangeability: %w", ErrDomain, err)
	}
	return newRateModel(q, pi, rho, opts...)
}

func newRateModel(q RateMatrix, pi nt.Frequency, rho nt.Exchangeability, opts ...Option) (*RateModel, error) {
	var o modelOptions
	for _, opt := range opts {
		opt(&o)
	}
	m := &RateModel{q: q, pi: pi, rho: rho}
	var err error
	if o.general {
		err = m.eigen()
		if errors.Is(err, ErrSingularMatrix) {
			log.Warningf("%v, using symmetric decomposition for pi=%v, rho=%v", err, pi, rho)
			err = m.eigenSym()
		}
	} else {
		err = m.eigenSym()
	}
	if err != nil {
		return nil, err
	}
	if err = m.setStationary(); err != nil {
		return nil, err
	}
	for i := range pi {
		if math.Abs(m.stationary[i]-pi[i]) > stationaryTolerance {
			return nil, fmt.Errorf("%w: stationary distribution %v differs from %v",
				ErrNumericOverflow, m.stationary, pi)
		}
	}
	return m, nil
}

// eigen performs the general real eigendecomposition. Eigenvectors
// which do not reproduce Q are reported as ErrSingularMatrix.
func (m *RateModel) eigen() error {
	var e mat64.Eigen
	if ok := e.Factorize(m.q.Dense(), false, true); !ok {
		return fmt.Errorf("%w: eigendecomposition failed", ErrNumericOverflow)
	}
	values := e.Values(nil)
	scale := 1.0
	for _, v := range values {
		scale = math.Max(scale, cmplx.Abs(v))
	}
	for i, v := range values {
		if math.Abs(imag(v)) > zeroTolerance*scale {
			return fmt.Errorf("%w: complex eigenvalue %v", ErrNumericOverflow, v)
		}
		m.values[i] = real(v)
	}
	m.v = e.Vectors()
	m.iv = mat64.NewDense(nt.NBase, nt.NBase, nil)
	if err := m.iv.Inverse(m.v); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}
	if d := m.reconstructionError(); !(d <= reconstructTolerance*scale) {
		return fmt.Errorf("%w: eigenvectors reproduce Q with error %v", ErrSingularMatrix, d)
	}
	m.symmetric = false
	return m.findZero(scale)
}

// reconstructionError returns max |V·diag(λ)·V⁻¹ - Q|.
func (m *RateModel) reconstructionError() (d float64) {
	var vl, r mat64.Dense
	vl.Clone(m.v)
	for k, v := range m.values {
		for i := 0; i < nt.NBase; i++ {
			vl.Set(i, k, vl.At(i, k)*v)
		}
	}
	r.Mul(&vl, m.iv)
	for i := range m.q {
		for j := range m.q[i] {
			d = math.Max(d, math.Abs(r.At(i, j)-m.q[i][j]))
		}
	}
	return
}

// eigenSym decomposes S = D^{1/2}·Q·D^{-1/2} = U·diag(λ)·Uᵀ and sets
// V = D^{-1/2}·U, V⁻¹ = Uᵀ·D^{1/2}.
func (m *RateModel) eigenSym() error {
	var sq [nt.NBase]float64
	for i := range sq {
		sq[i] = math.Sqrt(m.pi[i])
	}
	data := make([]float64, nt.NBase*nt.NBase)
	for i := 0; i < nt.NBase; i++ {
		for j := 0; j < nt.NBase; j++ {
			if i == j {
				data[i*nt.NBase+j] = m.q[i][i]
				continue
			}
			// ρ(i,j)/(2·sqrt(π[i]π[j])), same for (j,i)
			data[i*nt.NBase+j] = m.rho.Get(nt.Base(i), nt.Base(j)) / (2 * sq[i] * sq[j])
		}
	}
	var es mat64.EigenSym
	if ok := es.Factorize(mat64.NewSymDense(nt.NBase, data), true); !ok {
		return fmt.Errorf("%w: symmetric eigendecomposition failed", ErrNumericOverflow)
	}
	values := es.Values(nil)
	scale := 1.0
	for i, v := range values {
		m.values[i] = v
		scale = math.Max(scale, math.Abs(v))
	}
	var u mat64.Dense
	u.EigenvectorsSym(&es)
	m.v = mat64.NewDense(nt.NBase, nt.NBase, nil)
	m.iv = mat64.NewDense(nt.NBase, nt.NBase, nil)
	for i := 0; i < nt.NBase; i++ {
		for k := 0; k < nt.NBase; k++ {
			m.v.Set(i, k, u.At(i, k)/sq[i])
			m.iv.Set(k, i, u.At(i, k)*sq[i])
		}
	}
	m.symmetric = true
	return m.findZero(scale)
}

// findZero locates the eigenvalue closest to zero. More than one
// zero eigenvalue means that Q is reducible, i.e. some bases never
// exchange with the others.
func (m *RateModel) findZero(scale float64) error {
	m.zero = 0
	nZero := 0
	for i, v := range m.values {
		if math.Abs(v) < math.Abs(m.values[m.zero]) {
			m.zero = i
		}
		if math.Abs(v) <= zeroTolerance*scale {
			nZero++
		}
	}
	if v := m.values[m.zero]; math.Abs(v) > zeroTolerance*scale {
		return fmt.Errorf("%w: no zero eigenvalue, closest is %v", ErrNumericOverflow, v)
	}
	m.reducible = nZero > 1
	m.scale = scale
	return nil
}

// setStationary normalizes the row of V⁻¹ corresponding to the zero
// eigenvalue, which is proportional to the stationary distribution.
// For a reducible Q the stationary distribution is not unique and π
// is used.
func (m *RateModel) setStationary() error {
	if m.reducible {
		log.Warningf("Reducible rate matrix for rho=%v", m.rho)
		m.stationary = m.pi
		return nil
	}
	s := 0.0
	for j := 0; j < nt.NBase; j++ {
		s += m.iv.At(m.zero, j)
	}
	if s == 0 || math.IsNaN(s) {
		return fmt.Errorf("%w: cannot normalize stationary distribution", ErrNumericOverflow)
	}
	for j := range m.stationary {
		m.stationary[j] = m.iv.At(m.zero, j) / s
	}
	return nil
}

// Exp computes the transition matrix P(t) = V·diag(e^{λt})·V⁻¹.
// P(0) is the identity and P(+Inf) has all rows equal to π (unless Q
// is reducible, then the limit is computed).
func (m *RateModel) Exp(t float64) (TransitionMatrix, error) {
	switch {
	case math.IsNaN(t) || t < 0:
		return TransitionMatrix{}, fmt.Errorf("%w: branch length %v", ErrInvalidArgument, t)
	case t == 0:
		return Identity(), nil
	case math.IsInf(t, 1) && !m.reducible:
		var p TransitionMatrix
		for i := range p {
			p[i] = m.pi
		}
		return p, nil
	}

	cD := mat64.NewDense(nt.NBase, nt.NBase, nil)
	for k, v := range m.values {
		switch {
		case k == m.zero:
			cD.Set(k, k, 1)
		case math.IsInf(t, 1):
			// only the zero eigenvalues survive
			if math.Abs(v) <= zeroTolerance*m.scale {
				cD.Set(k, k, 1)
			}
		default:
			cD.Set(k, k, math.Exp(v*t))
		}
	}
	tmp := mat64.NewDense(nt.NBase, nt.NBase, nil)
	tmp.Mul(m.v, cD)
	res := mat64.NewDense(nt.NBase, nt.NBase, nil)
	res.Mul(tmp, m.iv)

	var p TransitionMatrix
	for i := range p {
		for j := range p[i] {
			v, err := clamp(t, i, j, res.At(i, j))
			if err != nil {
				return p, err
			}
			p[i][j] = v
		}
	}
	if err := p.Stochastic(rowTolerance); err != nil {
		return p, fmt.Errorf("%w: P(%v): %v", ErrNumericOverflow, t, err)
	}
	return p, nil
}

// clamp sets negative transition probabilities caused by rounding to
// zero with a warning.
func clamp(t float64, i, j int, v float64) (float64, error) {
	switch {
	case math.IsNaN(v) || v < -clampTolerance:
		return v, fmt.Errorf("%w: P(%v)[%d][%d]=%v", ErrNumericOverflow, t, i, j, v)
	case v < 0:
		log.Warningf("Clamping P(%v)[%d][%d]=%v to zero", t, i, j, v)
		return 0, nil
	}
	return v, nil
}

// Q returns the rate matrix.
func (m *RateModel) Q() RateMatrix {
	return m.q
}

// Frequency returns π.
func (m *RateModel) Frequency() nt.Frequency {
	return m.pi
}

// Exchangeability returns ρ.
func (m *RateModel) Exchangeability() nt.Exchangeability {
	return m.rho
}

// Eigenvalues returns the eigenvalues in the decomposition order.
func (m *RateModel) Eigenvalues() [nt.NBase]float64 {
	return m.values
}

// Stationary returns the stationary distribution recovered from the
// decomposition.
func (m *RateModel) Stationary() nt.Frequency {
	return m.stationary
}

// Symmetric reports whether the symmetric decomposition was used.
func (m *RateModel) Symmetric() bool {
	return m.symmetric
}

// Reducible reports whether Q has more than one zero eigenvalue.
func (m *RateModel) Reducible() bool {
	return m.reducible
}

func (m *RateModel) String() string {
	return fmt.Sprintf("<RateModel: pi=%v, rho=%v, eigenvalues=%v>", m.pi, m.rho, m.values)
}

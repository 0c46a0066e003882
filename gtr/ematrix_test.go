package gtr

import (
	"errors"
	"math"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gtr/nt"
)

func TestEigenJC(tst *testing.T) {
	m, err := jcModel()
	if err != nil {
		tst.Fatal(err)
	}
	values := m.Eigenvalues()
	v := values[:]
	sort.Float64s(v)
	for i, exp := range []float64{-4.0 / 3, -4.0 / 3, -4.0 / 3, 0} {
		if math.Abs(v[i]-exp) > smallDiff {
			tst.Errorf("Eigenvalue %d is %v, expected %v", i, v[i], exp)
		}
	}
}

func TestExpJC(tst *testing.T) {
	m, err := jcModel()
	if err != nil {
		tst.Fatal(err)
	}
	t := 0.1
	p, err := m.Exp(t)
	if err != nil {
		tst.Fatal(err)
	}
	e := math.Exp(-4 * t / 3)
	for i := range p {
		for j := range p[i] {
			exp := 0.25 - 0.25*e
			if i == j {
				exp = 0.25 + 0.75*e
			}
			if math.Abs(p[i][j]-exp) > jcDiff {
				tst.Errorf("P[%d][%d]=%v, expected %v", i, j, p[i][j], exp)
			}
		}
	}
}

func testExpProperties(tst *testing.T, m *RateModel) {
	pi := m.Frequency()
	p0, err := m.Exp(0)
	if err != nil {
		tst.Fatal(err)
	}
	id := Identity()
	if matrixDiff(&p0, &id) != 0 {
		tst.Error("P(0) is not identity:", p0)
	}

	for _, t := range []float64{1e-6, 0.01, 0.3, 1, 5, 50} {
		p, err := m.Exp(t)
		if err != nil {
			tst.Fatalf("Error computing P(%v): %v", t, err)
		}
		if err := p.Stochastic(smallDiff); err != nil {
			tst.Errorf("P(%v) is not stochastic: %v", t, err)
		}
		for j := 0; j < nt.NBase; j++ {
			s := 0.0
			for i := 0; i < nt.NBase; i++ {
				s += pi[i] * p[i][j]
			}
			if math.Abs(s-pi[j]) > smallDiff {
				tst.Errorf("(πP(%v))[%d]=%v, expected %v", t, j, s, pi[j])
			}
		}
	}

	// P(s)P(t) = P(s+t)
	s, t := 0.2, 0.35
	ps, _ := m.Exp(s)
	pt, _ := m.Exp(t)
	pst, _ := m.Exp(s + t)
	var prod TransitionMatrix
	for i := range prod {
		for j := range prod[i] {
			for k := 0; k < nt.NBase; k++ {
				prod[i][j] += ps[i][k] * pt[k][j]
			}
		}
	}
	if d := matrixDiff(&prod, &pst); d > smallDiff {
		tst.Error("Semigroup property violated, difference", d)
	}

	pinf, err := m.Exp(math.Inf(1))
	if err != nil {
		tst.Fatal(err)
	}
	if m.Reducible() {
		// the limit depends on the starting base
		if err := pinf.Stochastic(smallDiff); err != nil {
			tst.Error("P(Inf) is not stochastic:", err)
		}
		return
	}
	for i := range pinf {
		if pinf[i] != pi {
			tst.Errorf("P(Inf) row %d is %v, expected %v", i, pinf[i], pi)
		}
	}
}

func TestExpProperties(tst *testing.T) {
	for _, c := range modelCases() {
		for _, d := range decompositions {
			m, err := NewRateModel(c.pi, c.rho, d.opts...)
			if err != nil {
				tst.Errorf("%s (%s): %v", c.name, d.name, err)
				continue
			}
			testExpProperties(tst, m)
		}
	}
}

// Equal base frequencies for A and T (and C and G) with uniform
// exchangeabilities give degenerate eigenvalues and a singular matrix
// of general eigenvectors.
func TestDegenerateEigenvalues(tst *testing.T) {
	pi := nt.Frequency{0.4, 0.1, 0.1, 0.4}
	for _, d := range decompositions {
		m, err := NewRateModel(pi, nt.UniformExchangeability(), d.opts...)
		if err != nil {
			tst.Fatalf("%s: %v", d.name, err)
		}
		testExpProperties(tst, m)
	}

	// identical sequences of this composition
	var c nt.Counts
	c[nt.A][nt.A] = 100
	c[nt.C][nt.C] = 50
	c[nt.G][nt.G] = 50
	c[nt.T][nt.T] = 100
	th, err := StartingPoint(&c, DefaultMaxBrLen)
	if err != nil {
		tst.Fatal(err)
	}
	l, err := LogLikelihoodTheta(&c, th, nil)
	if err != nil || math.IsNaN(l) || math.IsInf(l, 0) {
		tst.Error("Wrong likelihood at the starting point:", l, err)
	}
}

func TestExpInvalid(tst *testing.T) {
	m, err := jcModel()
	if err != nil {
		tst.Fatal(err)
	}
	for _, t := range []float64{-1, math.NaN(), math.Inf(-1)} {
		if _, err := m.Exp(t); !errors.Is(err, ErrInvalidArgument) {
			tst.Errorf("Expected ErrInvalidArgument for t=%v, got %v", t, err)
		}
	}
}

func TestClamp(tst *testing.T) {
	backend := logging.NewMemoryBackend(8)
	logging.SetBackend(backend)
	logging.SetLevel(logging.WARNING, "gtr")
	defer func() {
		logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))
		logging.SetLevel(logging.WARNING, "gtr")
		logging.SetLevel(logging.WARNING, "optimize")
		logging.SetLevel(logging.WARNING, "checkpoint")
	}()

	if v, err := clamp(0.1, 0, 1, 0.2); v != 0.2 || err != nil {
		tst.Error("Positive value changed:", v, err)
	}
	if backend.Head() != nil {
		tst.Error("Nothing should be logged for a positive value")
	}
	if v, err := clamp(0.1, 0, 1, -1e-12); v != 0 || err != nil {
		tst.Error("Tiny negative value should be clamped:", v, err)
	}
	if h := backend.Head(); h == nil || h.Record.Level != logging.WARNING {
		tst.Error("Clamping should be logged as a warning")
	}
	for _, v := range []float64{-1e-6, math.NaN()} {
		if _, err := clamp(0.1, 0, 1, v); !errors.Is(err, ErrNumericOverflow) {
			tst.Errorf("Expected ErrNumericOverflow for %v, got %v", v, err)
		}
	}
}

func TestDecompositionsAgree(tst *testing.T) {
	for _, c := range modelCases() {
		m1, err := NewRateModel(c.pi, c.rho)
		if err != nil {
			tst.Errorf("%s: %v", c.name, err)
			continue
		}
		if !m1.Symmetric() {
			tst.Errorf("%s: symmetric decomposition expected by default", c.name)
		}
		m2, err := NewRateModel(c.pi, c.rho, General())
		if err != nil {
			tst.Errorf("%s: %v", c.name, err)
			continue
		}
		for _, t := range []float64{0.05, 0.5, 2} {
			p1, _ := m1.Exp(t)
			p2, _ := m2.Exp(t)
			if d := matrixDiff(&p1, &p2); d > smallDiff {
				tst.Errorf("%s: decompositions differ at t=%v by %v", c.name, t, d)
			}
		}
	}
}

func TestStationary(tst *testing.T) {
	for _, c := range modelCases() {
		for _, d := range decompositions {
			m, err := NewRateModel(c.pi, c.rho, d.opts...)
			if err != nil {
				tst.Errorf("%s (%s): %v", c.name, d.name, err)
				continue
			}
			st := m.Stationary()
			for i := range st {
				if math.Abs(st[i]-c.pi[i]) > stationaryTolerance {
					tst.Errorf("%s (%s): stationary distribution %v, expected %v", c.name, d.name, st, c.pi)
					break
				}
			}
		}
	}
}

func TestRateModelFromQ(tst *testing.T) {
	for _, c := range modelCases() {
		q, err := NewRateMatrix(c.pi, c.rho)
		if err != nil {
			tst.Fatal(err)
		}
		m, err := NewRateModelFromQ(q)
		if c.name == "reducible" {
			if !errors.Is(err, ErrSingularMatrix) {
				tst.Error("Expected ErrSingularMatrix for a reducible matrix, got", err)
			}
			continue
		}
		if err != nil {
			tst.Errorf("%s: %v", c.name, err)
			continue
		}
		pi, rho := m.Frequency(), m.Exchangeability()
		for i := range pi {
			if math.Abs(pi[i]-c.pi[i]) > smallDiff {
				tst.Errorf("%s: wrong frequency %v", c.name, pi)
				break
			}
		}
		for k := range rho {
			if math.Abs(rho[k]-c.rho[k]) > smallDiff {
				tst.Errorf("%s: wrong exchangeability %v", c.name, rho)
				break
			}
		}
	}

	q, err := NewRateMatrix(testPi, testRho)
	if err != nil {
		tst.Fatal(err)
	}
	q[0][1] += 0.5
	if _, err := NewRateModelFromQ(q); !errors.Is(err, ErrDomain) {
		tst.Error("Expected ErrDomain for a matrix with non-zero row sum, got", err)
	}
}

func TestCache(tst *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	models := make([]*RateModel, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.Get(testPi, testRho)
			if err != nil {
				tst.Error(err)
			}
			models[i] = m
		}(i)
	}
	wg.Wait()
	for _, m := range models {
		if m != models[0] {
			tst.Error("Cache returned different models for the same key")
		}
	}
	if c.Len() != 1 || !models[0].Symmetric() {
		tst.Error("Wrong cache state, len:", c.Len())
	}
	if _, err := c.Get(nt.Frequency{1, 0, 0, 0}, testRho); !errors.Is(err, ErrDomain) {
		tst.Error("Expected ErrDomain, got", err)
	}
	if c.Len() != 1 {
		tst.Error("Errors should not be cached")
	}
}

func TestCacheLimit(tst *testing.T) {
	c := NewCache()
	c.SetLimit(2)
	for _, mc := range modelCases()[:5] {
		if _, err := c.Get(mc.pi, mc.rho); err != nil {
			tst.Fatal(err)
		}
		if c.Len() > 2 {
			tst.Fatal("Cache exceeds the limit:", c.Len())
		}
	}
}

func BenchmarkDecomposition(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewRateModel(testPi, testRho)
	}
}

func BenchmarkExp(b *testing.B) {
	m, _ := NewRateModel(testPi, testRho)
	for i := 0; i < b.N; i++ {
		m.Exp(0.3)
	}
}

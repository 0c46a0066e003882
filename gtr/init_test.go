package gtr

import (
	"fmt"
	"math"

	"github.com/op/go-logging"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"bitbucket.org/Davydov/gtr/nt"
)

const (
	smallDiff = 1e-9
	jcDiff    = 1e-6
)

var (
	testPi  = nt.Frequency{0.1, 0.2, 0.3, 0.4}
	testRho = nt.Exchangeability{0.1, 0.3, 0.1, 0.1, 0.3, 0.1}
)

func init() {
	logging.SetLevel(logging.WARNING, "gtr")
	logging.SetLevel(logging.WARNING, "optimize")
	logging.SetLevel(logging.WARNING, "checkpoint")
}

func jcModel() (*RateModel, error) {
	return NewRateModel(nt.F0(), nt.UniformExchangeability())
}

func matrixDiff(a, b *TransitionMatrix) (d float64) {
	for i := range a {
		for j := range a[i] {
			d = math.Max(d, math.Abs(a[i][j]-b[i][j]))
		}
	}
	return
}

type modelCase struct {
	name string
	pi   nt.Frequency
	rho  nt.Exchangeability
}

// modelCases returns parameters covering degenerate eigenvalues,
// zero exchangeabilities and random points of the simplices.
func modelCases() []modelCase {
	uniform := nt.UniformExchangeability()
	cases := []modelCase{
		{"JC", nt.F0(), uniform},
		{"GTR", testPi, testRho},
		{"AT=CG 0.3", nt.Frequency{0.3, 0.2, 0.2, 0.3}, uniform},
		{"AT=CG 0.4", nt.Frequency{0.4, 0.1, 0.1, 0.4}, uniform},
		{"AT=CG 0.35", nt.Frequency{0.35, 0.15, 0.15, 0.35}, uniform},
		{"AT=CG GTR", nt.Frequency{0.35, 0.15, 0.15, 0.35}, testRho},
		{"K80", nt.F0(), nt.Exchangeability{0.1, 0.2, 0.1, 0.1, 0.4, 0.1}},
		{"zero rho", testPi, nt.Exchangeability{0.4, 0.1, 0, 0, 0.5, 0}},
		{"reducible", testPi, nt.Exchangeability{0.5, 0, 0, 0, 0, 0.5}},
	}
	src := rand.NewSource(1)
	dpi := distmv.NewDirichlet([]float64{2, 2, 2, 2}, src)
	drho := distmv.NewDirichlet([]float64{2, 2, 2, 2, 2, 2}, src)
	for i := 0; i < 20; i++ {
		c := modelCase{name: fmt.Sprintf("dirichlet %d", i)}
		copy(c.pi[:], dpi.Rand(nil))
		copy(c.rho[:], drho.Rand(nil))
		cases = append(cases, c)
	}
	return cases
}

// decompositions lists the options for both decomposition paths.
var decompositions = []struct {
	name string
	opts []Option
}{
	{"symmetric", nil},
	{"general", []Option{General()}},
}

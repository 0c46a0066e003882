package nt

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// SimplexTolerance is the allowed deviation of a simplex sum from one.
const SimplexTolerance = 1e-6

// Frequency is the vector of stationary base frequencies (π).
type Frequency [NBase]float64

// Exchangeability is the vector of relative exchangeabilities (ρ) in
// the Pairs order.
type Exchangeability [NPair]float64

// F0 returns equal base frequencies.
func F0() (f Frequency) {
	for i := range f {
		f[i] = 1 / float64(NBase)
	}
	return
}

// EmpiricalFrequency computes base frequencies over all the
// sequences. Equal frequencies are returned if there are no bases.
func EmpiricalFrequency(seqs ...[]Base) (f Frequency) {
	n := 0
	for _, seq := range seqs {
		for _, b := range seq {
			f[b]++
			n++
		}
	}
	if n == 0 {
		return F0()
	}
	floats.Scale(1/float64(n), f[:])
	return
}

// CountsFrequency computes base frequencies over both sequences of a
// pair given their site pattern counts.
func CountsFrequency(c *Counts) (f Frequency) {
	n := 2 * c.Total()
	if n == 0 {
		return F0()
	}
	for i := 0; i < NBase; i++ {
		f[i] = float64(c.RowTotal(Base(i)) + c.ColTotal(Base(i)))
	}
	floats.Scale(1/float64(n), f[:])
	return
}

// Validate checks that all frequencies are positive and sum to one.
func (f Frequency) Validate() error {
	return validSimplex(f[:], true)
}

// Floor replaces frequencies below eps with eps and renormalizes.
func (f Frequency) Floor(eps float64) Frequency {
	floorNormalize(f[:], eps)
	return f
}

func (f Frequency) String() string {
	return fmt.Sprintf("<Frequency: A: %v, C: %v, G: %v, T: %v>", f[A], f[C], f[G], f[T])
}

// UniformExchangeability returns equal exchangeabilities (the
// Jukes-Cantor case when combined with F0).
func UniformExchangeability() (r Exchangeability) {
	for i := range r {
		r[i] = 1 / float64(NPair)
	}
	return
}

// EmpiricalExchangeability estimates exchangeabilities from the
// symmetrized off-diagonal counts. Uniform exchangeabilities are
// returned if the sequences are identical.
func EmpiricalExchangeability(c *Counts) (r Exchangeability) {
	for k, p := range Pairs {
		r[k] = float64(c[p[0]][p[1]] + c[p[1]][p[0]])
	}
	s := floats.Sum(r[:])
	if s == 0 {
		return UniformExchangeability()
	}
	floats.Scale(1/s, r[:])
	return
}

// Get returns the exchangeability of the pair (i, j), i != j.
func (r Exchangeability) Get(i, j Base) float64 {
	return r[PairIndex(i, j)]
}

// Validate checks that exchangeabilities are non-negative and sum to
// one.
func (r Exchangeability) Validate() error {
	return validSimplex(r[:], false)
}

// Floor replaces exchangeabilities below eps with eps and
// renormalizes.
func (r Exchangeability) Floor(eps float64) Exchangeability {
	floorNormalize(r[:], eps)
	return r
}

func (r Exchangeability) String() (s string) {
	s = "<Exchangeability:"
	for k, p := range Pairs {
		s += fmt.Sprintf(" %v%v: %v,", p[0], p[1], r[k])
	}
	return s[:len(s)-1] + ">"
}

// ReadFrequency reads four base frequencies (A, C, G, T) from a
// reader. It should be just a list of numbers in a text format.
func ReadFrequency(rd io.Reader) (f Frequency, err error) {
	v, err := readFloats(rd, NBase)
	if err != nil {
		return f, err
	}
	copy(f[:], v)
	return f, f.Validate()
}

// ReadExchangeability reads six exchangeabilities in the Pairs order
// from a reader.
func ReadExchangeability(rd io.Reader) (r Exchangeability, err error) {
	v, err := readFloats(rd, NPair)
	if err != nil {
		return r, err
	}
	copy(r[:], v)
	return r, r.Validate()
}

func readFloats(rd io.Reader, n int) ([]float64, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(bufio.ScanWords)
	v := make([]float64, 0, n)
	for scanner.Scan() {
		if len(v) >= n {
			return nil, fmt.Errorf("too many values, expected %d", n)
		}
		x, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, err
		}
		v = append(v, x)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(v) < n {
		return nil, fmt.Errorf("not enough values, expected %d", n)
	}
	return v, nil
}

func validSimplex(x []float64, positive bool) error {
	for i, v := range x {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return fmt.Errorf("%w: element %d is %v", ErrNotSimplex, i, v)
		case v < 0 || (positive && v == 0):
			return fmt.Errorf("%w: element %d is %v", ErrNotSimplex, i, v)
		}
	}
	if s := floats.Sum(x); math.Abs(s-1) > SimplexTolerance {
		return fmt.Errorf("%w: sum is %v", ErrNotSimplex, s)
	}
	return nil
}

func floorNormalize(x []float64, eps float64) {
	for i := range x {
		if x[i] < eps {
			x[i] = eps
		}
	}
	floats.Scale(1/floats.Sum(x), x)
}

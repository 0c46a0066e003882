package nt

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gtr/bio"
)

const smallDiff = 1e-12

func init() {
	logging.SetLevel(logging.WARNING, "nt")
}

func TestParseBase(tst *testing.T) {
	for i, c := range []byte("ACGTacgt") {
		b, err := ParseBase(c)
		if err != nil {
			tst.Error("Error parsing", string(c), err)
		}
		if b != Base(i%NBase) {
			tst.Errorf("%c parsed as %v", c, b)
		}
	}
	for _, c := range []byte("N-?U") {
		if _, err := ParseBase(c); !errors.Is(err, ErrInvalidBase) {
			tst.Errorf("%c should be rejected, got %v", c, err)
		}
	}
}

func TestPairIndex(tst *testing.T) {
	for k, p := range Pairs {
		if PairIndex(p[0], p[1]) != k || PairIndex(p[1], p[0]) != k {
			tst.Error("Wrong index for pair", p)
		}
	}
	for i := 0; i < NBase; i++ {
		if PairIndex(Base(i), Base(i)) != -1 {
			tst.Error("Diagonal pair should have index -1")
		}
	}
}

func TestToSequences(tst *testing.T) {
	seqs, err := ToSequences(bio.Sequences{
		{Name: "a", Sequence: "ACGT"},
		{Name: "b", Sequence: "TGCA"},
	})
	if err != nil {
		tst.Fatal(err)
	}
	if seqs[1].Letters() != "TGCA" || seqs[0].Sequence[2] != G {
		tst.Error("Wrong conversion:", seqs)
	}
	if _, err := ToSequences(bio.Sequences{{Name: "a", Sequence: "AC-T"}}); !errors.Is(err, ErrInvalidBase) {
		tst.Error("Expected ErrInvalidBase, got", err)
	}
	_, err = ToSequences(bio.Sequences{
		{Name: "a", Sequence: "ACGT"},
		{Name: "b", Sequence: "ACG"},
	})
	if !errors.Is(err, ErrLengthMismatch) {
		tst.Error("Expected ErrLengthMismatch, got", err)
	}
}

func TestCounts(tst *testing.T) {
	x := []Base{A, A, C, G, T, T}
	y := []Base{A, G, C, A, T, C}
	c, err := NewCounts(x, y)
	if err != nil {
		tst.Fatal(err)
	}
	if c.Total() != 6 || c.Differences() != 3 {
		tst.Error("Wrong totals:", c.Total(), c.Differences())
	}
	if c.RowTotal(A) != 2 || c.ColTotal(A) != 2 || c.ColTotal(G) != 1 {
		tst.Error("Wrong margins:\n", c)
	}
	if math.Abs(c.PDistance()-0.5) > smallDiff {
		tst.Error("Wrong p-distance:", c.PDistance())
	}
	ex, ey := c.Expand()
	c2, err := NewCounts(ex, ey)
	if err != nil || c2 != c {
		tst.Error("Expanded counts differ:\n", c2)
	}
	if _, err := NewCounts(x, y[:3]); !errors.Is(err, ErrLengthMismatch) {
		tst.Error("Expected ErrLengthMismatch, got", err)
	}
}

func TestEmpirical(tst *testing.T) {
	c := Counts{}
	c[A][A] = 10
	c[C][T] = 2
	c[T][C] = 2
	f := CountsFrequency(&c)
	if math.Abs(f[A]-20.0/28) > smallDiff || math.Abs(f[G]) > smallDiff {
		tst.Error("Wrong frequency:", f)
	}
	r := EmpiricalExchangeability(&c)
	if r.Get(C, T) != 1 || r.Get(A, G) != 0 {
		tst.Error("Wrong exchangeability:", r)
	}

	ff := f.Floor(1e-6)
	if err := ff.Validate(); err != nil {
		tst.Error("Floored frequency is not valid:", err)
	}
	if err := f.Validate(); !errors.Is(err, ErrNotSimplex) {
		tst.Error("Zero frequency should be invalid, got", err)
	}

	var same Counts
	same[G][G] = 5
	if EmpiricalExchangeability(&same) != UniformExchangeability() {
		tst.Error("No differences should give uniform exchangeabilities")
	}
}

func TestReadFrequency(tst *testing.T) {
	f, err := ReadFrequency(bytes.NewBufferString("0.1 0.2\n0.3 0.4"))
	if err != nil {
		tst.Fatal(err)
	}
	if f != (Frequency{0.1, 0.2, 0.3, 0.4}) {
		tst.Error("Wrong frequency:", f)
	}
	if _, err := ReadFrequency(bytes.NewBufferString("0.5 0.5")); err == nil {
		tst.Error("Expected an error for too few values")
	}
	if _, err := ReadExchangeability(bytes.NewBufferString("1 1 1 1 1 1")); !errors.Is(err, ErrNotSimplex) {
		tst.Error("Expected ErrNotSimplex, got", err)
	}
}

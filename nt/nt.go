// Package nt provides nucleotide alphabet, sequences, pairwise site
// pattern counts and the frequency/exchangeability vectors of the
// GTR model.
package nt

import (
	"errors"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("nt")

// Base is a nucleotide index in the canonical order A, C, G, T.
type Base byte

// Nucleotides.
const (
	A Base = iota
	C
	G
	T
)

const (
	// NBase is the number of nucleotides.
	NBase = 4
	// NPair is the number of unordered pairs of distinct nucleotides.
	NPair = NBase * (NBase - 1) / 2
)

var (
	// ErrInvalidBase is returned for letters outside of ACGT.
	ErrInvalidBase = errors.New("nt: invalid nucleotide")
	// ErrLengthMismatch is returned when sequences differ in length.
	ErrLengthMismatch = errors.New("nt: sequence lengths differ")
	// ErrNotSimplex is returned for vectors which are not strictly
	// positive or do not sum to one.
	ErrNotSimplex = errors.New("nt: vector is not on the simplex")
	// ErrNotEnoughSequences is returned when a pair of sequences is
	// required but fewer are provided.
	ErrNotEnoughSequences = errors.New("nt: not enough sequences")
)

// Alphabet maps a base to its letter.
var Alphabet = [NBase]byte{'A', 'C', 'G', 'T'}

// Pairs lists unordered pairs of bases in the exchangeability order
// AC, AG, AT, CG, CT, GT.
var Pairs = [NPair][2]Base{
	{A, C}, {A, G}, {A, T}, {C, G}, {C, T}, {G, T},
}

var pairIndex [NBase][NBase]int

func init() {
	for i := range pairIndex {
		for j := range pairIndex[i] {
			pairIndex[i][j] = -1
		}
	}
	for k, p := range Pairs {
		pairIndex[p[0]][p[1]] = k
		pairIndex[p[1]][p[0]] = k
	}
}

// ParseBase converts a letter (any case) into a Base.
func ParseBase(c byte) (Base, error) {
	switch c {
	case 'A', 'a':
		return A, nil
	case 'C', 'c':
		return C, nil
	case 'G', 'g':
		return G, nil
	case 'T', 't':
		return T, nil
	}
	return 0, ErrInvalidBase
}

// PairIndex returns the exchangeability index of the unordered pair
// (i, j), or -1 if i == j.
func PairIndex(i, j Base) int {
	return pairIndex[i][j]
}

// String returns the nucleotide letter.
func (b Base) String() string {
	if int(b) >= NBase {
		return "?"
	}
	return string(Alphabet[b])
}

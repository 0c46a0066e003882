package nt

import (
	"fmt"
	"strings"
)

// Counts stores site pattern counts of a sequence pair: Counts[i][j]
// is the number of sites with base i in the first sequence and base j
// in the second one.
type Counts [NBase][NBase]int

// NewCounts tabulates site patterns of two aligned sequences.
func NewCounts(x, y []Base) (c Counts, err error) {
	if len(x) != len(y) {
		return c, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(x), len(y))
	}
	for i := range x {
		c[x[i]][y[i]]++
	}
	return
}

// PairCounts tabulates site patterns of the first two sequences.
func PairCounts(seqs Sequences) (Counts, error) {
	if len(seqs) < 2 {
		return Counts{}, fmt.Errorf("%w: got %d, need 2", ErrNotEnoughSequences, len(seqs))
	}
	return NewCounts(seqs[0].Sequence, seqs[1].Sequence)
}

// RowTotal returns the number of sites with base i in the first
// sequence.
func (c *Counts) RowTotal(i Base) (s int) {
	for j := 0; j < NBase; j++ {
		s += c[i][j]
	}
	return
}

// ColTotal returns the number of sites with base j in the second
// sequence.
func (c *Counts) ColTotal(j Base) (s int) {
	for i := 0; i < NBase; i++ {
		s += c[i][j]
	}
	return
}

// Total returns the number of sites.
func (c *Counts) Total() (s int) {
	for i := 0; i < NBase; i++ {
		s += c.RowTotal(Base(i))
	}
	return
}

// Differences returns the number of sites where the sequences differ.
func (c *Counts) Differences() (s int) {
	for i := 0; i < NBase; i++ {
		for j := 0; j < NBase; j++ {
			if i != j {
				s += c[i][j]
			}
		}
	}
	return
}

// PDistance returns the proportion of differing sites. Zero is
// returned for empty counts.
func (c *Counts) PDistance() float64 {
	n := c.Total()
	if n == 0 {
		return 0
	}
	return float64(c.Differences()) / float64(n)
}

// Expand creates a sequence pair with the site patterns in the
// canonical order.
func (c *Counts) Expand() (x, y []Base) {
	n := c.Total()
	x = make([]Base, 0, n)
	y = make([]Base, 0, n)
	for i := 0; i < NBase; i++ {
		for j := 0; j < NBase; j++ {
			for k := 0; k < c[i][j]; k++ {
				x = append(x, Base(i))
				y = append(y, Base(j))
			}
		}
	}
	return
}

func (c Counts) String() string {
	var b strings.Builder
	b.WriteString("  ")
	for j := 0; j < NBase; j++ {
		fmt.Fprintf(&b, "\t%v", Base(j))
	}
	for i := 0; i < NBase; i++ {
		fmt.Fprintf(&b, "\n%v ", Base(i))
		for j := 0; j < NBase; j++ {
			fmt.Fprintf(&b, "\t%d", c[i][j])
		}
	}
	return b.String()
}

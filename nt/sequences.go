package nt

import (
	"fmt"

	"bitbucket.org/Davydov/gtr/bio"
)

// Sequence is a named nucleotide sequence.
type Sequence struct {
	Name     string
	Sequence []Base
}

// Sequences is a set of nucleotide sequences, e.g. an alignment.
type Sequences []Sequence

// Letters returns the sequence as a string of nucleotide letters.
func (seq Sequence) Letters() string {
	b := make([]byte, len(seq.Sequence))
	for i, n := range seq.Sequence {
		b[i] = Alphabet[n]
	}
	return string(b)
}

// String returns the sequence in FASTA format.
func (seq Sequence) String() string {
	return ">" + seq.Name + "\n" + bio.Wrap(seq.Letters(), bio.LineWidth)
}

// Length returns the alignment length (length of the first sequence).
func (seqs Sequences) Length() int {
	if len(seqs) == 0 {
		return 0
	}
	return len(seqs[0].Sequence)
}

// Bio converts sequences into their textual form.
func (seqs Sequences) Bio() bio.Sequences {
	res := make(bio.Sequences, len(seqs))
	for i, seq := range seqs {
		res[i] = bio.Sequence{Name: seq.Name, Sequence: seq.Letters()}
	}
	return res
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() string {
	return seqs.Bio().String()
}

// ToSequences converts textual sequences to nucleotide sequences.
// Gaps and ambiguity codes are rejected.
func ToSequences(seqs bio.Sequences) (Sequences, error) {
	res := make(Sequences, 0, len(seqs))
	for _, seq := range seqs {
		nseq := Sequence{
			Name:     seq.Name,
			Sequence: make([]Base, len(seq.Sequence)),
		}
		for i := 0; i < len(seq.Sequence); i++ {
			b, err := ParseBase(seq.Sequence[i])
			if err != nil {
				return nil, fmt.Errorf("%w: %q at position %d of %s",
					err, seq.Sequence[i], i+1, seq.Name)
			}
			nseq.Sequence[i] = b
		}
		res = append(res, nseq)
	}
	for _, seq := range res {
		if len(seq.Sequence) != res.Length() {
			return nil, fmt.Errorf("%w: %s", ErrLengthMismatch, seq.Name)
		}
	}
	log.Debugf("converted %d sequences of length %d", len(res), res.Length())
	return res, nil
}

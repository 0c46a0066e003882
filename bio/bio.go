// Package bio reads and writes nucleotide alignments in FASTA format.
package bio

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// LineWidth is the number of residues per line in the FASTA output.
const LineWidth = 80

// ErrNoHeader is returned when sequence data precedes the first
// FASTA header line.
var ErrNoHeader = errors.New("bio: sequence w/o header")

// Sequence is a named sequence in its textual form.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences. E.g. a sequence alignment.
type Sequences []Sequence

// ParseFasta parses FASTA sequences from a reader. Spaces inside
// sequence lines are removed and letters are converted to upper case.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: strings.TrimSpace(line[1:])}
			seqs = append(seqs, seq)
			continue
		}
		if len(seqs) == 0 {
			return nil, ErrNoHeader
		}
		line = strings.ToUpper(strings.Replace(line, " ", "", -1))
		seqs[len(seqs)-1].Sequence += line
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) string {
	var b strings.Builder
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		b.WriteString(seq[i:end])
		b.WriteByte('\n')
	}
	return b.String()
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() string {
	return ">" + seq.Name + "\n" + Wrap(seq.Sequence, LineWidth)
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() string {
	var b strings.Builder
	for _, seq := range seqs {
		b.WriteString(seq.String())
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// WriteFasta writes sequences to w in FASTA format.
func WriteFasta(w io.Writer, seqs Sequences) error {
	for _, seq := range seqs {
		if _, err := io.WriteString(w, seq.String()); err != nil {
			return err
		}
	}
	return nil
}

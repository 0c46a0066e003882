package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
)

const pairAlignment = `>a
ACGTACGTAACCGGTT
>b
ACGTACGAAACCGCTT
>c
ACGTACGTAACCGGTA
`

func init() {
	logging.SetLevel(logging.WARNING, "gtrsim")
}

func TestParseFloats(tst *testing.T) {
	v, err := parseFloats("0.1, 0.2,0.3,0.4", 4)
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if v[0] != 0.1 || v[3] != 0.4 {
		tst.Error("Wrong values:", v)
	}
	if _, err := parseFloats("0.1,0.2", 4); err == nil {
		tst.Error("Expected an error for a short list")
	}
	if _, err := parseFloats("0.1,x,0.3,0.4", 4); err == nil {
		tst.Error("Expected an error for a bad number")
	}
}

func TestReadFrequencyFlag(tst *testing.T) {
	pi, err := readFrequency("0.1,0.2,0.3,0.4", "")
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if pi[2] != 0.3 {
		tst.Error("Wrong frequency:", pi)
	}
	rho, err := readExchangeability("1,2,1,1,2,1", "")
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if rho[1] != 2 {
		tst.Error("Wrong exchangeability:", rho)
	}
}

func TestReplicateFileName(tst *testing.T) {
	if fn := replicateFileName("out.fst", 0, 1); fn != "out.fst" {
		tst.Error("Single replicate renamed:", fn)
	}
	if fn := replicateFileName("dir/out.fst", 2, 5); fn != "dir/out_3.fst" {
		tst.Error("Wrong replicate name:", fn)
	}
}

func TestReadPair(tst *testing.T) {
	fn := filepath.Join(tst.TempDir(), "ali.fst")
	if err := os.WriteFile(fn, []byte(pairAlignment), 0666); err != nil {
		tst.Fatal(err)
	}
	seqs, c, err := readPair(fn)
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if len(seqs) != 2 || seqs[1].Name != "b" {
		tst.Error("Wrong sequences:", seqs)
	}
	if c.Total() != 16 || c.Differences() != 2 {
		tst.Error("Wrong counts:", c.Total(), c.Differences())
	}
}

func TestPlotProfile(tst *testing.T) {
	ts := grid(1, 10)
	if ts[0] != 0.1 || ts[9] != 1 {
		tst.Error("Wrong grid:", ts)
	}
	ls := make([]float64, len(ts))
	for i, t := range ts {
		ls[i] = -(t - 0.5) * (t - 0.5)
	}
	ls[0] = math.Inf(-1)
	fn := filepath.Join(tst.TempDir(), "profile.png")
	if err := plotProfile(fn, ts, ls, 0.5, 0); err != nil {
		tst.Fatal("Error plotting:", err)
	}
	if fi, err := os.Stat(fn); err != nil || fi.Size() == 0 {
		tst.Error("Plot was not written:", err)
	}
}

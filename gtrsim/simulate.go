package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/Davydov/gtr/bio"
	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
	"bitbucket.org/Davydov/gtr/sim"
	"bitbucket.org/Davydov/gtr/tree"
)

var (
	simulateCmd = app.Command("simulate", "simulate an alignment along a tree")

	simTreeF      = simulateCmd.Arg("tree", "tree in newick format").Required().ExistingFile()
	simLength     = simulateCmd.Flag("length", "number of sites").Short('l').Default("1000").Int()
	simPi         = simulateCmd.Flag("pi", "base frequencies A,C,G,T").Default("0.25,0.25,0.25,0.25").String()
	simPiF        = simulateCmd.Flag("pi-file", "read base frequencies from a file").ExistingFile()
	simRho        = simulateCmd.Flag("rho", "exchangeabilities AC,AG,AT,CG,CT,GT").Default("1,1,1,1,1,1").String()
	simRhoF       = simulateCmd.Flag("rho-file", "read exchangeabilities from a file").ExistingFile()
	simReplicates = simulateCmd.Flag("replicates", "number of replicates").Short('r').Default("1").Int()
	simInternal   = simulateCmd.Flag("internal", "also output internal node sequences (single replicate only)").Bool()
	simOutF       = simulateCmd.Flag("out", "output fasta file, replicate number is appended if more than one").Short('o').String()
)

// replicateFileName returns the output file name for replicate i.
func replicateFileName(fn string, i, nrep int) string {
	if nrep == 1 {
		return fn
	}
	ext := filepath.Ext(fn)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(fn, ext), i+1, ext)
}

// internalName names an internal node.
func internalName(node *tree.Node) string {
	if node.Name != "" {
		return node.Name
	}
	return fmt.Sprintf("node%d", node.Id)
}

// writeSequences writes an alignment to a file or to stdout if fn is
// empty.
func writeSequences(fn string, seqs nt.Sequences) error {
	var w io.Writer = os.Stdout
	if fn != "" {
		f, err := os.Create(fn)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return bio.WriteFasta(w, seqs.Bio())
}

// simulateInternal simulates a single replicate keeping the
// internal node sequences.
func simulateInternal(m *gtr.RateModel, t *tree.Tree, seed uint64) (nt.Sequences, error) {
	s := sim.NewSimulator(m, sim.NewSampler(seed))
	all, seqs, err := s.SimulateAll(t, *simLength)
	if err != nil {
		return nil, err
	}
	for _, node := range t.Nodes() {
		if node.IsTerminal() {
			continue
		}
		seqs = append(seqs, nt.Sequence{
			Name:     internalName(node),
			Sequence: all[node.Id],
		})
	}
	return seqs, nil
}

func simulate(seed uint64) *SimulationSummary {
	f, err := os.Open(*simTreeF)
	if err != nil {
		log.Fatal(err)
	}
	t, err := tree.ParseNewick(f)
	f.Close()
	if err != nil {
		log.Fatal("Error parsing tree:", err)
	}
	log.Infof("Tree: %s", t)

	pi, err := readFrequency(*simPi, *simPiF)
	if err != nil {
		log.Fatal("Error reading frequencies:", err)
	}
	rho, err := readExchangeability(*simRho, *simRhoF)
	if err != nil {
		log.Fatal("Error reading exchangeabilities:", err)
	}

	m, err := gtr.NewRateModel(pi, rho, modelOptions()...)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Rate model:\n%v", m)

	summary := &SimulationSummary{
		Tree:       t.String(),
		Length:     *simLength,
		Replicates: *simReplicates,
		Pi:         pi,
		Rho:        rho,
	}

	var reps []nt.Sequences
	if *simInternal {
		if *simReplicates != 1 {
			log.Fatal("Internal sequences are only available for a single replicate")
		}
		seqs, err := simulateInternal(m, t, seed)
		if err != nil {
			log.Fatal(err)
		}
		reps = []nt.Sequences{seqs}
	} else {
		reps, err = sim.Replicates(m, t, *simLength, *simReplicates, seed)
		if err != nil {
			log.Fatal(err)
		}
	}

	for i, seqs := range reps {
		fn := ""
		if *simOutF != "" {
			fn = replicateFileName(*simOutF, i, len(reps))
			summary.Files = append(summary.Files, fn)
		}
		if err := writeSequences(fn, seqs); err != nil {
			log.Fatal("Error writing sequences:", err)
		}
	}
	log.Noticef("Simulated %d replicate(s) of %d sites for %d leaves",
		len(reps), *simLength, t.NLeaves())
	return summary
}

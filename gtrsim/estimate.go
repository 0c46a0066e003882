package main

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"bitbucket.org/Davydov/gtr/checkpoint"
	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
)

var (
	estimateCmd = app.Command("estimate", "estimate GTR parameters and the branch length for a pair of sequences")

	estAlignmentF = estimateCmd.Arg("alignment", "sequence alignment in fasta format").Required().ExistingFile()
	estMethod     = estimateCmd.Flag("method", "optimization method to use "+
		"(lbfgsb: limited-memory Broyden-Fletcher-Goldfarb-Shanno with bounding constraints, "+
		"simplex: Nelder-Mead downhill simplex, "+
		"none: just compute the likelihood at the starting point)").
		Short('m').Default(gtr.MethodLBFGSB).Enum(gtr.Methods...)
	estIterations        = estimateCmd.Flag("iter", "number of iterations").Short('i').Default("10000").Int()
	estMaxBrLen          = estimateCmd.Flag("maxbrlen", "maximum branch length").Default("5").Float64()
	estReport            = estimateCmd.Flag("report", "report every N iterations").Short('R').Default("10").Int()
	estOutF              = estimateCmd.Flag("out", "write optimization trajectory to a file").Short('o').String()
	estCheckpoint        = estimateCmd.Flag("checkpoint", "checkpoint database file").String()
	estCheckpointSeconds = estimateCmd.Flag("checkpoint-seconds", "save checkpoint every N seconds").Default("60").Float64()
)

// runEstimate estimates parameters for the first two sequences of the
// alignment. Nonconvergence is reported but is not fatal.
func runEstimate(alignment string, s *gtr.Settings) (*EstimationSummary, nt.Counts) {
	seqs, c, err := readPair(alignment)
	if err != nil {
		log.Fatal("Error reading alignment:", err)
	}
	s.General = *general
	s.Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	summary := &EstimationSummary{
		Names:       []string{seqs[0].Name, seqs[1].Name},
		Sites:       c.Total(),
		Differences: c.Differences(),
		Converged:   true,
	}

	res, err := gtr.Estimate(&c, s)
	var cerr *gtr.ConvergenceError
	switch {
	case errors.As(err, &cerr):
		log.Warning(cerr)
		summary.Converged = false
	case err != nil:
		log.Fatal(err)
	}
	summary.Result = res

	log.Noticef("lnL=%v", res.LnL)
	log.Noticef("t=%v", res.T)
	log.Noticef("pi=%v", res.Pi)
	log.Noticef("rho=%v", res.Rho)
	return summary, c
}

func estimate() *EstimationSummary {
	s := gtr.DefaultSettings()
	s.Method = *estMethod
	s.Iterations = *estIterations
	s.MaxBrLen = *estMaxBrLen
	s.ReportPeriod = *estReport

	if *estOutF != "" {
		f, err := os.Create(*estOutF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
		s.Output = f
	}

	if *estCheckpoint != "" {
		key := filepath.Base(*estAlignmentF) + ":" + s.Method
		cio, db, err := checkpoint.Open(*estCheckpoint, key, *estCheckpointSeconds)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
		s.Checkpoint = cio
	}

	summary, _ := runEstimate(*estAlignmentF, s)
	return summary
}

/*
Gtrsim simulates nucleotide alignments under the general
time-reversible (GTR) model and estimates the model parameters and the
branch length for a pair of sequences by maximum likelihood.

Simulate 1000 sites along a tree:

	gtrsim simulate --length 1000 --pi 0.1,0.2,0.3,0.4 tree.nwk

Estimate parameters from the first two sequences of an alignment:

	gtrsim estimate --method simplex alignment.fst

Plot the likelihood profile of the branch length:

	gtrsim profile --png profile.png alignment.fst

To see all the options run:

	gtrsim --help
*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/gtr/bio"
	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gtrsim")
var formatter = logging.MustStringFormatter(`%{message}`)

// loggers lists all the package loggers.
var loggers = []string{"gtrsim", "gtr", "sim", "nt", "optimize", "checkpoint"}

// command-line options
var (
	// application
	app = kingpin.New("gtrsim", "GTR nucleotide model simulator and pairwise estimator").Version(version)

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()
	general    = app.Flag("general", "use the general eigendecomposition of Q instead of the symmetric one").Bool()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// modelOptions returns the rate model options from the command line.
func modelOptions() []gtr.Option {
	if *general {
		return []gtr.Option{gtr.General()}
	}
	return nil
}

// parseFloats parses a comma separated list of n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values, got %d in %q", n, len(fields), s)
	}
	res := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

// readFrequency reads π from a file if fn is set, otherwise parses s.
func readFrequency(s, fn string) (pi nt.Frequency, err error) {
	if fn != "" {
		f, err := os.Open(fn)
		if err != nil {
			return pi, err
		}
		defer f.Close()
		return nt.ReadFrequency(f)
	}
	v, err := parseFloats(s, nt.NBase)
	if err != nil {
		return pi, err
	}
	copy(pi[:], v)
	return pi, nil
}

// readExchangeability reads ρ from a file if fn is set, otherwise
// parses s.
func readExchangeability(s, fn string) (rho nt.Exchangeability, err error) {
	if fn != "" {
		f, err := os.Open(fn)
		if err != nil {
			return rho, err
		}
		defer f.Close()
		return nt.ReadExchangeability(f)
	}
	v, err := parseFloats(s, nt.NPair)
	if err != nil {
		return rho, err
	}
	copy(rho[:], v)
	return rho, nil
}

// readPair reads an alignment and tabulates the site patterns of the
// first two sequences.
func readPair(fn string) (nt.Sequences, nt.Counts, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, nt.Counts{}, err
	}
	defer f.Close()

	ali, err := bio.ParseFasta(f)
	if err != nil {
		return nil, nt.Counts{}, err
	}
	seqs, err := nt.ToSequences(ali)
	if err != nil {
		return nil, nt.Counts{}, err
	}
	if len(seqs) > 2 {
		log.Warningf("Alignment has %d sequences, using the first two", len(seqs))
	}
	c, err := nt.PairCounts(seqs)
	if err != nil {
		return nil, c, err
	}
	log.Infof("Read %s and %s, %d sites, %d differences",
		seqs[0].Name, seqs[1].Name, c.Total(), c.Differences())
	log.Debugf("Site patterns:\n%v", c)
	return seqs[:2], c, nil
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	startTime := time.Now()

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range loggers {
		logging.SetLevel(level, module)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	runtime.GOMAXPROCS(*nThreads)
	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := &Summary{
		Version:     version,
		CommandLine: os.Args,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
		Command:     command,
	}

	switch command {
	case simulateCmd.FullCommand():
		summary.Simulation = simulate(uint64(*seed))
	case estimateCmd.FullCommand():
		summary.Estimation = estimate()
	case profileCmd.FullCommand():
		summary.Estimation, summary.Profile = profile()
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.TotalTime = deltaT.Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}

package main

import (
	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/nt"
	"bitbucket.org/Davydov/gtr/optimize"
)

// Summary is the JSON summary of a gtrsim run.
type Summary struct {
	// Version stores gtrsim version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Command is the subcommand.
	Command string `json:"command"`
	// TotalTime is the computations time in seconds.
	TotalTime float64 `json:"time"`

	Simulation *SimulationSummary `json:"simulation,omitempty"`
	Estimation *EstimationSummary `json:"estimation,omitempty"`
	Profile    *ProfileSummary    `json:"profile,omitempty"`
}

// SimulationSummary describes a simulation run.
type SimulationSummary struct {
	Tree       string             `json:"tree"`
	Length     int                `json:"length"`
	Replicates int                `json:"replicates"`
	Pi         nt.Frequency       `json:"pi"`
	Rho        nt.Exchangeability `json:"rho"`
	Files      []string           `json:"files,omitempty"`
}

// EstimationSummary describes an estimation run.
type EstimationSummary struct {
	Names       []string    `json:"names"`
	Sites       int         `json:"sites"`
	Differences int         `json:"differences"`
	Converged   bool        `json:"converged"`
	Result      *gtr.Result `json:"result"`
}

// ProfileSummary stores the branch length likelihood profile.
type ProfileSummary struct {
	Pi  nt.Frequency       `json:"pi"`
	Rho nt.Exchangeability `json:"rho"`
	T   []float64          `json:"t"`
	LnL []optimize.Float   `json:"lnL"`
	PNG string             `json:"png,omitempty"`
}

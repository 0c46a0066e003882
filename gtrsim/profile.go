package main

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/gtr/gtr"
	"bitbucket.org/Davydov/gtr/optimize"
)

var (
	profileCmd = app.Command("profile", "compute the likelihood profile over the branch length")

	profAlignmentF = profileCmd.Arg("alignment", "sequence alignment in fasta format").Required().ExistingFile()
	profMethod     = profileCmd.Flag("method", "optimization method used to estimate pi and rho").
			Short('m').Default(gtr.MethodLBFGSB).Enum(gtr.Methods...)
	profMaxT   = profileCmd.Flag("tmax", "maximum branch length of the grid").Default("2").Float64()
	profPoints = profileCmd.Flag("points", "number of grid points").Default("100").Int()
	profPNG    = profileCmd.Flag("png", "plot the profile to a png file").String()
)

// grid returns n equally spaced points in (0, max].
func grid(max float64, n int) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = max * float64(i+1) / float64(n)
	}
	return ts
}

// plotProfile saves the profile as an image, the maximum likelihood
// estimate is marked.
func plotProfile(fn string, ts, ls []float64, mle, mleL float64) error {
	p := plot.New()
	p.Title.Text = "Branch length profile"
	p.X.Label.Text = "t"
	p.Y.Label.Text = "lnL"

	pts := make(plotter.XYs, 0, len(ts))
	for i, t := range ts {
		// points with zero probability break the axis
		if math.IsInf(ls[i], 0) || math.IsNaN(ls[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: t, Y: ls[i]})
	}
	if err := plotutil.AddLines(p, "lnL", pts); err != nil {
		return err
	}
	if !math.IsInf(mleL, 0) && !math.IsNaN(mleL) {
		sc, err := plotter.NewScatter(plotter.XYs{{X: mle, Y: mleL}})
		if err != nil {
			return err
		}
		p.Add(sc)
		p.Legend.Add("MLE", sc)
	}
	return p.Save(4*vg.Inch, 4*vg.Inch, fn)
}

func profile() (*EstimationSummary, *ProfileSummary) {
	if *profPoints < 1 || !(*profMaxT > 0) {
		log.Fatal("Grid must have at least one point and positive maximum")
	}
	s := gtr.DefaultSettings()
	s.Method = *profMethod
	s.MaxBrLen = math.Max(s.MaxBrLen, *profMaxT)
	est, c := runEstimate(*profAlignmentF, s)
	res := est.Result

	m, err := gtr.NewRateModel(res.Pi, res.Rho, modelOptions()...)
	if err != nil {
		log.Fatal(err)
	}

	ts := grid(*profMaxT, *profPoints)
	ls, err := gtr.Profile(&c, m, ts)
	if err != nil {
		log.Fatal(err)
	}
	for i, t := range ts {
		log.Infof("%v\t%v", t, ls[i])
	}

	summary := &ProfileSummary{
		Pi:  res.Pi,
		Rho: res.Rho,
		T:   ts,
		LnL: optimize.Floats(ls),
	}
	if *profPNG != "" {
		if err := plotProfile(*profPNG, ts, ls, res.T, res.LnL); err != nil {
			log.Error("Error plotting profile:", err)
		} else {
			summary.PNG = *profPNG
		}
	}
	return est, summary
}

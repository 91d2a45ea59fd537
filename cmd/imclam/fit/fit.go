// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package fit implements a command to estimate
// the parameters of an isolation with migration model
// from an observed AFS.
package fit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/imclam/afs"
	"github.com/js-arias/imclam/model"
	"github.com/js-arias/imclam/optim"
	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/runstore"
	"github.com/js-arias/imclam/settings"
	"gonum.org/v1/gonum/mat"
)

var Command = &command.Command{
	Usage: `fit [--exp | --mo | --global | --fisher] [-x <values>]
	[-r <seed>] [-u <rate>] [-g <value>] [--obs] [-v]
	[--settings <file>] [--dense] [--db <file>] [--plot <prefix>]
	[-s <file>] [-m <file>] [-d <file>] [<project-file>]`,
	Short: "estimate the parameters of an IM model",
	Long: `
Command fit reads a state space, a transition template, and an observed joint
allele frequency spectrum (AFS) of two populations, and estimates the
parameters of an isolation with migration model using composite likelihood.

The parameters are scaled by the size of the first population, and are, in
order: the size of the second population (theta_pop2), the size of the
ancestral population (theta_anc), the migration rate from population 1 to
population 2 (mig_1->2), the migration rate from population 2 to population 1
(mig_2->1), and the divergence time (t_div).

The input files can be given by a project file (see 'imclam help projects'),
or with the flags -s (state space), -m (transition template), and -d
(observed AFS). A file given by a flag overrides the file of the project. If
no transition template is given, it will be built from the state space.

By default, a single local search is done from a random starting point. Use
the flag -x to define the starting point, as five comma-separated values.
Other run modes are:

	--exp     print the expected AFS of the parameters given by -x.
	--mo      after the first search, run additional searches from
	          random starting points, and report each one.
	--global  run a global search (multi-level single linkage).
	--fisher  estimate the standard errors of the parameters given by -x
	          using the observed Fisher information.

The flags --exp and --fisher require the flag -x. The --exp mode does not
require an observed AFS. If it is given, the log composite likelihood of the
parameters is also printed.

The flag -r sets the seed for the random number generator. By default the
current time is used.

The unscaled estimates are calculated from the heterozygosity of the first
population. Use the flag -u to set the mutation rate (default 1e-8) and -g to
set the number of years per generation (default 20).

The flag --obs prints the observed AFS. The flag -v prints each likelihood
evaluation in the standard error.

The optimizer settings are read from the project (see 'imclam help settings').
Use the flag --settings to use a different settings file. The flag --dense
uses a dense matrix exponential instead of uniformization.

If the flag --db is defined, or the project has a run database, the run will
be stored in that database. The flag --plot defines a prefix for image files
with heat maps of the expected and observed AFS.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var expFlag bool
var multiFlag bool
var globalFlag bool
var fisherFlag bool
var verbose bool
var printObs bool
var denseFlag bool
var startFlag string
var seedFlag uint64
var muFlag float64
var genFlag float64
var settingsFile string
var dbFile string
var plotPrefix string
var statesFile string
var matsFile string
var dataFile string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&expFlag, "exp", false, "")
	c.Flags().BoolVar(&multiFlag, "mo", false, "")
	c.Flags().BoolVar(&globalFlag, "global", false, "")
	c.Flags().BoolVar(&fisherFlag, "fisher", false, "")
	c.Flags().BoolVar(&verbose, "v", false, "")
	c.Flags().BoolVar(&printObs, "obs", false, "")
	c.Flags().BoolVar(&denseFlag, "dense", false, "")
	c.Flags().StringVar(&startFlag, "x", "", "")
	c.Flags().Uint64Var(&seedFlag, "r", 0, "")
	c.Flags().Float64Var(&muFlag, "u", 1e-8, "")
	c.Flags().Float64Var(&genFlag, "g", 20, "")
	c.Flags().StringVar(&settingsFile, "settings", "", "")
	c.Flags().StringVar(&dbFile, "db", "", "")
	c.Flags().StringVar(&plotPrefix, "plot", "", "")
	c.Flags().StringVar(&statesFile, "s", "", "")
	c.Flags().StringVar(&matsFile, "m", "", "")
	c.Flags().StringVar(&dataFile, "d", "", "")
}

// Run modes.
const (
	estimate = "estimate"
	expected = "expected"
	multi    = "multi"
	global   = "global"
	fisher   = "fisher"
)

func run(c *command.Command, args []string) error {
	mode, err := runMode()
	if err != nil {
		return c.UsageError(err.Error())
	}
	if muFlag <= 0 {
		return c.UsageError(fmt.Sprintf("invalid mutation rate %v", muFlag))
	}
	if genFlag <= 0 {
		return c.UsageError(fmt.Sprintf("invalid generation time %v", genFlag))
	}

	seed := seedFlag
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	b := bounds()

	// the random guess is always drawn
	// so a seed produces the same sequence
	// with or without -x.
	guess := param.FromSlice(optim.RandomStart(b, rng))
	if startFlag != "" {
		guess, err = param.Parse(startFlag)
		if err != nil {
			return c.UsageError(fmt.Sprintf("flag -x: %v", err))
		}
		if mode != expected && !param.Default.Contains(guess) {
			return c.UsageError(fmt.Sprintf("flag -x: starting point outside bounds: %s", guess))
		}
	}

	p, err := readProject(args)
	if err != nil {
		return err
	}
	if p.Path(project.States) == "" {
		return c.UsageError("expecting state space file")
	}
	if mode != expected && p.Path(project.Data) == "" {
		return c.UsageError("expecting observed AFS file")
	}

	set, err := p.Settings()
	if err != nil {
		return err
	}
	if denseFlag {
		if err := set.SetSolver(settings.Dense); err != nil {
			return err
		}
	}

	m, err := newModel(p, set)
	if err != nil {
		return err
	}

	// the expected mode does not require observations
	var obs *mat.Dense
	if p.Path(project.Data) != "" {
		obs, err = p.Observed(m.Full().N1(), m.Full().N2())
		if err != nil {
			return err
		}
	}

	start := time.Now()
	w := c.Stdout()
	fmt.Fprintf(w, "# im-clam: %s\n", mode)
	fmt.Fprintf(w, "# state space: %d states, %d ancestral states\n", m.Full().Len(), m.Reduced().Len())
	fmt.Fprintf(w, "# seed: %d\n", seed)
	if printObs && obs != nil {
		if err := printObserved(w, obs); err != nil {
			return err
		}
	}

	f := objective(c.Stderr(), m, obs)
	var runs []runstore.Run
	switch mode {
	case expected:
		if err := printExpected(w, m, guess, obs); err != nil {
			return err
		}
	case fisher:
		if err := printFisher(w, f, b, guess, set.Step()); err != nil {
			return err
		}
	case estimate:
		r, err := optim.Single(set.Local(), f, b, guess.Slice())
		if err != nil {
			return err
		}
		if err := report(w, m, obs, r); err != nil {
			return err
		}
		runs = append(runs, newRun(mode, seed, r))
	case multi:
		rs := []optim.Result{}
		r, err := optim.Single(set.Local(), f, b, guess.Slice())
		r.Err = err
		rs = append(rs, r)
		rs = append(rs, optim.MultiStart(set.Local(), f, b, rng, set.Starts())...)
		for i, r := range rs {
			fmt.Fprintf(w, "\n# run %d\n", i+1)
			if r.Err != nil {
				fmt.Fprintf(w, "# search failed: %v\n", r.Err)
				continue
			}
			if err := report(w, m, obs, r); err != nil {
				return err
			}
			runs = append(runs, newRun(mode, seed, r))
		}
	case global:
		ml := optim.MLSL{
			Local:   set.Local(),
			Samples: set.Samples(),
			Rounds:  set.Rounds(),
			Rand:    rng,
		}
		r, err := ml.Minimize(f, b, guess.Slice())
		if err != nil {
			return err
		}
		if err := report(w, m, obs, r); err != nil {
			return err
		}
		runs = append(runs, newRun(mode, seed, r))
	}

	if plotPrefix != "" {
		if err := plotAFS(m, obs, guess, runs); err != nil {
			return err
		}
	}
	if err := storeRuns(p, runs); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n# total run time: %v, likelihood evaluations: %d\n", time.Since(start), m.Evals())
	return nil
}

// runMode returns the run mode
// from the command flags.
func runMode() (string, error) {
	mode := estimate
	n := 0
	if expFlag {
		mode = expected
		n++
	}
	if multiFlag {
		mode = multi
		n++
	}
	if globalFlag {
		mode = global
		n++
	}
	if fisherFlag {
		mode = fisher
		n++
	}
	if n > 1 {
		return "", errors.New("flags --exp, --mo, --global, and --fisher are exclusive")
	}
	if (mode == expected || mode == fisher) && startFlag == "" {
		return "", fmt.Errorf("%s mode requires flag -x", mode)
	}
	return mode, nil
}

func bounds() optim.Bounds {
	return optim.Bounds{
		Lower: param.Default.Lower.Slice(),
		Upper: param.Default.Upper.Slice(),
	}
}

// readProject returns the project
// with the files defined by the flags.
func readProject(args []string) (*project.Project, error) {
	p := project.New()
	if len(args) > 0 {
		var err error
		p, err = project.Read(args[0])
		if err != nil {
			return nil, err
		}
	}

	files := []struct {
		set  project.Dataset
		name string
	}{
		{project.States, statesFile},
		{project.Mats, matsFile},
		{project.Data, dataFile},
		{project.Settings, settingsFile},
		{project.Runs, dbFile},
	}
	for _, f := range files {
		if f.name == "" {
			continue
		}
		p.Add(f.set, f.name)
	}
	return p, nil
}

func newModel(p *project.Project, set *settings.Settings) (*model.Model, error) {
	s, err := p.StateSpace()
	if err != nil {
		return nil, err
	}
	cfg := model.Config{
		Full:   s,
		Solver: set.MatSolver(),
	}
	if p.Path(project.Mats) != "" {
		cfg.Template, err = p.Template(s.Len())
		if err != nil {
			return nil, err
		}
	}
	return model.New(cfg)
}

// objective returns the function to be minimized.
// If verbose is set,
// each evaluation is printed in w.
func objective(w io.Writer, m *model.Model, obs *mat.Dense) optim.Func {
	return func(x []float64) (float64, error) {
		p := param.FromSlice(x)
		v, err := m.NegLogLike(p, obs)
		if verbose {
			if err != nil {
				fmt.Fprintf(w, "eval %d\t%s\terror: %v\n", m.Evals(), p, err)
			} else {
				fmt.Fprintf(w, "eval %d\t%s\t%.6f\n", m.Evals(), p, -v)
			}
		}
		return v, err
	}
}

func printObserved(w io.Writer, obs *mat.Dense) error {
	n := afs.Sites(obs)
	var norm mat.Dense
	norm.Scale(1/n, obs)
	fmt.Fprintf(w, "\nObserved AFS (%.0f SNPs):\n", n)
	return afs.Write(w, &norm)
}

func printExpected(w io.Writer, m *model.Model, p param.Params, obs *mat.Dense) error {
	e, err := m.Expected(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nParameters:\n")
	printParams(w, p)

	if obs != nil {
		nll, err := m.NegLogLike(p, obs)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nlog composite likelihood: %.6f\n", -nll)
	}
	fmt.Fprintf(w, "\nExpected AFS:\n")
	return afs.Write(w, e)
}

func printFisher(w io.Writer, f optim.Func, b optim.Bounds, p param.Params, step float64) error {
	x := p.Slice()
	fx, err := f(x)
	if err != nil {
		return err
	}
	fi, err := optim.FisherInfo(f, b, x, fx, step)
	if err != nil {
		return err
	}
	se, err := optim.StdErr(fi)
	if err != nil {
		return err
	}
	lo, hi := optim.Interval(x, se, 0.95)

	fmt.Fprintf(w, "\nlog composite likelihood: %.6f\n", -fx)
	fmt.Fprintf(w, "\nparameter\tvalue\tstd-err\tlower-95\tupper-95\n")
	for i, n := range param.Names {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", n, x[i], se[i], lo[i], hi[i])
	}
	return nil
}

func printParams(w io.Writer, p param.Params) {
	for i, n := range param.Names {
		if i > 0 {
			fmt.Fprintf(w, "\t")
		}
		fmt.Fprintf(w, "%s", n)
	}
	fmt.Fprintf(w, "\n%s\n", p)
}

// report prints the result of a search.
func report(w io.Writer, m *model.Model, obs *mat.Dense, r optim.Result) error {
	p := param.FromSlice(r.X)
	fmt.Fprintf(w, "\nStarting point:\n")
	printParams(w, param.FromSlice(r.Start))
	fmt.Fprintf(w, "\nScaled estimates:\n")
	printParams(w, p)
	fmt.Fprintf(w, "\nlog composite likelihood: %.6f\n", -r.F)
	fmt.Fprintf(w, "status: %v, evaluations: %d, failed evaluations: %d\n", r.Status, r.Evals, r.Failures)

	n0 := afs.N0(obs, muFlag)
	fmt.Fprintf(w, "\nUnscaled estimates (N0 = %.2f):\n", n0)
	printParams(w, p.Unscale(n0, genFlag))

	e, err := m.Expected(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nExpected AFS:\n")
	return afs.Write(w, e)
}

func newRun(mode string, seed uint64, r optim.Result) runstore.Run {
	return runstore.Run{
		Date:     time.Now(),
		Mode:     mode,
		Seed:     seed,
		Start:    param.FromSlice(r.Start),
		Estimate: param.FromSlice(r.X),
		LogLike:  -r.F,
		Status:   r.Status.String(),
		Evals:    r.Evals,
	}
}

func storeRuns(p *project.Project, runs []runstore.Run) error {
	if p.Path(project.Runs) == "" || len(runs) == 0 {
		return nil
	}
	db, err := p.RunStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for _, r := range runs {
		if _, err := db.Add(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// plotAFS saves the heat maps
// of the observed AFS (if any)
// and the expected AFS of the best run
// (or the given parameters if there are no runs).
func plotAFS(m *model.Model, obs *mat.Dense, p param.Params, runs []runstore.Run) error {
	best := math.Inf(-1)
	for _, r := range runs {
		if r.LogLike > best {
			best = r.LogLike
			p = r.Estimate
		}
	}
	e, err := m.Expected(p)
	if err != nil {
		return err
	}
	if err := afs.Plot(plotPrefix+"-expected.png", "expected AFS", e); err != nil {
		return err
	}
	if obs == nil {
		return nil
	}

	var norm mat.Dense
	norm.Scale(1/afs.Sites(obs), obs)
	r, c := norm.Dims()
	norm.Set(0, 0, 0)
	norm.Set(r-1, c-1, 0)
	if err := afs.Plot(plotPrefix+"-observed.png", "observed AFS", &norm); err != nil {
		return err
	}
	return nil
}

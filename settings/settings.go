// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package settings implements reading and writing
// of the im-clam optimizer settings.
package settings

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/js-arias/imclam/ctmc"
	"github.com/js-arias/imclam/optim"
)

// Param is a keyword to identify
// the type of parameter in a settings file.
type Param string

// Valid parameters
const (
	// Evals is the maximum number of likelihood evaluations
	// of a local search.
	Evals Param = "evals"

	// Iterations is the number of iterations
	// without improvement
	// to stop a local search.
	Iterations Param = "iterations"

	// Rounds is the number of sampling rounds
	// of a global search.
	Rounds Param = "rounds"

	// Samples is the number of points sampled
	// in each round of a global search.
	Samples Param = "samples"

	// Solver is the algorithm used
	// for the matrix exponential.
	Solver Param = "solver"

	// Starts is the number of local searches
	// in a multi-start search.
	Starts Param = "starts"

	// Step is the relative step of the finite differences
	// used for the Fisher information.
	Step Param = "step"

	// Tolerance is the tolerance of a local search.
	Tolerance Param = "tolerance"
)

// Valid solvers.
const (
	Dense          = "dense"
	Uniformization = "uniformization"
)

// Settings is a collection of optimizer settings.
type Settings struct {
	name string // file name

	// local search
	evals int
	tol   float64
	iter  int

	// multi-start and global search
	starts  int
	samples int
	rounds  int

	step   float64
	solver string
}

// New creates a new settings collection
// with default values.
func New(name string) *Settings {
	return &Settings{
		name:    name,
		evals:   optim.DefaultMaxEvals,
		tol:     optim.DefaultTol,
		iter:    optim.DefaultIterations,
		starts:  3,
		samples: optim.DefaultSamples,
		rounds:  optim.DefaultRounds,
		step:    optim.DefaultStep,
		solver:  Uniformization,
	}
}

var header = []string{
	"parameter",
	"value",
}

// Read reads a settings file from a TSV file.
//
// The TSV must contains the following fields:
//
//   - parameter, the name of the parameter
//   - value, the value of the parameter
//
// Here is an example file:
//
//	# im-clam optimizer settings
//	parameter	value
//	evals	2000
//	tolerance	0.000001
//	starts	3
//	solver	uniformization
func Read(name string) (*Settings, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("on file %q: expecting field %q", name, h)
		}
	}

	s := New(name)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		f := "parameter"
		p := Param(strings.ToLower(row[fields[f]]))

		f = "value"
		v := strings.TrimSpace(row[fields[f]])
		var perr error
		switch p {
		case Evals, Iterations, Rounds, Samples, Starts:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			perr = s.setInt(p, n)
		case Step, Tolerance:
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, err)
			}
			if p == Step {
				perr = s.SetStep(x)
			} else {
				perr = s.SetTolerance(x)
			}
		case Solver:
			perr = s.SetSolver(v)
		}
		if perr != nil {
			return nil, fmt.Errorf("on file %q: on row %d, field %q: %v", name, ln, f, perr)
		}
	}
	return s, nil
}

func (s *Settings) setInt(p Param, n int) error {
	switch p {
	case Evals:
		return s.SetEvals(n)
	case Iterations:
		return s.SetIterations(n)
	case Rounds:
		return s.SetRounds(n)
	case Samples:
		return s.SetSamples(n)
	case Starts:
		return s.SetStarts(n)
	}
	return nil
}

// Evals returns the maximum number of evaluations
// of a local search.
func (s *Settings) Evals() int {
	return s.evals
}

// Iterations returns the number of iterations
// without improvement
// to stop a local search.
func (s *Settings) Iterations() int {
	return s.iter
}

// Name returns the name of the settings file.
func (s *Settings) Name() string {
	return s.name
}

// Rounds returns the number of sampling rounds
// of a global search.
func (s *Settings) Rounds() int {
	return s.rounds
}

// Samples returns the number of points sampled
// in each round of a global search.
func (s *Settings) Samples() int {
	return s.samples
}

// Solver returns the name of the solver
// for the matrix exponential.
func (s *Settings) Solver() string {
	return s.solver
}

// Starts returns the number of local searches
// in a multi-start search.
func (s *Settings) Starts() int {
	return s.starts
}

// Step returns the relative step
// for the Fisher information.
func (s *Settings) Step() float64 {
	return s.step
}

// Tolerance returns the tolerance of a local search.
func (s *Settings) Tolerance() float64 {
	return s.tol
}

// Local returns a local optimizer
// with the current settings.
func (s *Settings) Local() optim.NelderMead {
	return optim.NelderMead{
		MaxEvals:   s.evals,
		Tol:        s.tol,
		Iterations: s.iter,
	}
}

// MatSolver returns the solver
// with the current settings.
func (s *Settings) MatSolver() ctmc.Solver {
	if s.solver == Dense {
		return ctmc.Dense{}
	}
	return ctmc.Uniformization{}
}

// SetEvals sets the maximum number of evaluations
// of a local search.
func (s *Settings) SetEvals(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid number of evaluations: %d", n)
	}
	s.evals = n
	return nil
}

// SetIterations sets the number of iterations
// without improvement
// to stop a local search.
func (s *Settings) SetIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid number of iterations: %d", n)
	}
	s.iter = n
	return nil
}

// SetName sets the name of a settings collection.
func (s *Settings) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.name = name
}

// SetRounds sets the number of sampling rounds
// of a global search.
func (s *Settings) SetRounds(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid number of rounds: %d", n)
	}
	s.rounds = n
	return nil
}

// SetSamples sets the number of points sampled
// in each round of a global search.
func (s *Settings) SetSamples(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid number of samples: %d", n)
	}
	s.samples = n
	return nil
}

// SetSolver sets the solver
// for the matrix exponential.
func (s *Settings) SetSolver(solver string) error {
	solver = strings.ToLower(strings.TrimSpace(solver))
	switch solver {
	case Dense:
	case Uniformization:
	default:
		return fmt.Errorf("unknown solver %q", solver)
	}
	s.solver = solver
	return nil
}

// SetStarts sets the number of local searches
// in a multi-start search.
func (s *Settings) SetStarts(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid number of starts: %d", n)
	}
	s.starts = n
	return nil
}

// SetStep sets the relative step
// for the Fisher information.
func (s *Settings) SetStep(step float64) error {
	if step <= 0 || step >= 1 {
		return fmt.Errorf("invalid step value: %v", step)
	}
	s.step = step
	return nil
}

// SetTolerance sets the tolerance of a local search.
func (s *Settings) SetTolerance(tol float64) error {
	if tol <= 0 || tol >= 1 {
		return fmt.Errorf("invalid tolerance value: %v", tol)
	}
	s.tol = tol
	return nil
}

// Write writes a settings collection into a file.
func (s *Settings) Write() (err error) {
	f, err := os.Create(s.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# im-clam optimizer settings\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", s.name, err)
	}

	rows := [][]string{
		{string(Evals), strconv.Itoa(s.evals)},
		{string(Tolerance), strconv.FormatFloat(s.tol, 'g', -1, 64)},
		{string(Iterations), strconv.Itoa(s.iter)},
		{string(Starts), strconv.Itoa(s.starts)},
		{string(Samples), strconv.Itoa(s.samples)},
		{string(Rounds), strconv.Itoa(s.rounds)},
		{string(Step), strconv.FormatFloat(s.step, 'g', -1, 64)},
		{string(Solver), s.solver},
	}
	for _, row := range rows {
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", s.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", s.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", s.name, err)
	}
	return nil
}

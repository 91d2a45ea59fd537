// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package optim implements bounded minimization
// of functions that can fail,
// with local, multi-start and global searches,
// and the estimation of the uncertainty
// of the optimum.
package optim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/optimize"
)

// Penalty is the value returned to an optimizer
// when a function evaluation fails.
const Penalty = 1e300

// Func is a function to be minimized.
type Func func(x []float64) (float64, error)

// Bounds is a box constraint.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Contains returns true if x is inside the bounds.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b.Lower) {
		return false
	}
	for i, v := range x {
		if v < b.Lower[i] || v > b.Upper[i] {
			return false
		}
	}
	return true
}

func (b Bounds) validate(n int) error {
	if len(b.Lower) != n || len(b.Upper) != n {
		return fmt.Errorf("optim: bounds of dimension %d, %d, want %d", len(b.Lower), len(b.Upper), n)
	}
	for i, lo := range b.Lower {
		if lo > b.Upper[i] {
			return fmt.Errorf("optim: bound %d: lower bound %v greater than upper bound %v", i, lo, b.Upper[i])
		}
	}
	return nil
}

// toFree maps a point in the box
// into an unbounded space.
func (b Bounds) toFree(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		w := b.Upper[i] - b.Lower[i]
		if w == 0 {
			continue
		}
		u := 2*(v-b.Lower[i])/w - 1
		y[i] = math.Asin(math.Max(-1, math.Min(1, u)))
	}
	return y
}

// fromFree maps a point of the unbounded space
// into the box.
func (b Bounds) fromFree(dst, y []float64) {
	for i, v := range y {
		w := b.Upper[i] - b.Lower[i]
		dst[i] = b.Lower[i] + w*(math.Sin(v)+1)/2
	}
}

// Result is the result of a minimization.
type Result struct {
	// Start is the starting point.
	Start []float64

	// X is the best point found.
	X []float64

	// F is the function value at X.
	F float64

	// Status is the termination status of the search.
	Status optimize.Status

	// Evals is the number of function evaluations.
	Evals int

	// Failures is the number of failed evaluations.
	Failures int

	// Err is the last evaluation error.
	// In the results of MultiStart
	// it is the error of the search
	// (nil if the search was successful).
	Err error
}

// An Optimizer minimizes a function
// inside a box.
type Optimizer interface {
	Minimize(f Func, b Bounds, x0 []float64) (Result, error)
}

// Default values for NelderMead.
const (
	DefaultMaxEvals   = 2000
	DefaultTol        = 1e-6
	DefaultIterations = 100
)

// NelderMead is a local optimizer
// that uses the Nelder-Mead simplex algorithm.
// The box constraints are enforced
// with a sine transformation of the parameters.
//
// Failed evaluations are replaced by Penalty.
type NelderMead struct {
	// MaxEvals is the maximum number of function evaluations.
	MaxEvals int

	// Tol is the absolute and relative tolerance
	// of the function value.
	Tol float64

	// Iterations is the number of iterations
	// without improvement
	// to consider that the search converged.
	Iterations int
}

// Minimize searches for a minimum of f
// starting from x0.
func (nm NelderMead) Minimize(f Func, b Bounds, x0 []float64) (Result, error) {
	if err := b.validate(len(x0)); err != nil {
		return Result{}, err
	}
	res := Result{
		Start: slices.Clone(x0),
	}

	x := make([]float64, len(x0))
	p := optimize.Problem{
		Func: func(y []float64) float64 {
			b.fromFree(x, y)
			res.Evals++
			v, err := f(x)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = fmt.Errorf("invalid function value %v", v)
			}
			if err != nil {
				res.Failures++
				res.Err = err
				return Penalty
			}
			return v
		},
	}

	maxEvals := nm.MaxEvals
	if maxEvals <= 0 {
		maxEvals = DefaultMaxEvals
	}
	tol := nm.Tol
	if tol <= 0 {
		tol = DefaultTol
	}
	iter := nm.Iterations
	if iter <= 0 {
		iter = DefaultIterations
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   tol,
			Relative:   tol,
			Iterations: iter,
		},
	}

	r, err := optimize.Minimize(p, b.toFree(x0), settings, &optimize.NelderMead{})
	if err != nil {
		return res, fmt.Errorf("optim: %w", err)
	}
	res.X = make([]float64, len(x0))
	b.fromFree(res.X, r.X)
	res.F = r.F
	res.Status = r.Status
	if res.F >= Penalty {
		return res, fmt.Errorf("optim: no valid evaluation: %w", res.Err)
	}
	return res, nil
}

// Single runs a single local search
// starting from x0.
func Single(opt Optimizer, f Func, b Bounds, x0 []float64) (Result, error) {
	if !b.Contains(x0) {
		return Result{}, errors.New("optim: starting point outside bounds")
	}
	return opt.Minimize(f, b, x0)
}

// RandomStart returns a random point
// uniformly distributed in the box.
func RandomStart(b Bounds, rng *rand.Rand) []float64 {
	x := make([]float64, len(b.Lower))
	for i, lo := range b.Lower {
		x[i] = lo + (b.Upper[i]-lo)*rng.Float64()
	}
	return x
}

// MultiStart runs n local searches
// each one from a random starting point.
// The result of each search is returned,
// in the order of the searches.
// The error of each search
// is stored in the Err field of its result.
func MultiStart(opt Optimizer, f Func, b Bounds, rng *rand.Rand, n int) []Result {
	rs := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		x0 := RandomStart(b, rng)
		r, err := opt.Minimize(f, b, x0)
		r.Start = x0
		r.Err = err
		rs = append(rs, r)
	}
	return rs
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ctmc implements transient solutions
// of continuous-time Markov chains,
// i.e., the action of the matrix exponential
// of a generator
// over a probability vector.
package ctmc

import (
	"errors"
	"fmt"
	"math"

	"github.com/js-arias/imclam/ratemat"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence is returned when a solver
// fails to produce a valid probability vector.
var ErrNoConvergence = errors.New("ctmc: no convergence")

// A Solver computes the transient distribution
// of a continuous-time Markov chain.
type Solver interface {
	// ExpAction returns p0 exp(Q t).
	ExpAction(q *ratemat.Generator, t float64, p0 []float64) ([]float64, error)

	// Occupancy returns p0 exp(Q t)
	// and the expected time spent in each state
	// during the interval [0, t].
	Occupancy(q *ratemat.Generator, t float64, p0 []float64) (p, occ []float64, err error)
}

// Dense is a solver that uses
// the dense matrix exponential.
// It is intended for small state spaces.
type Dense struct{}

// ExpAction returns p0 exp(Q t).
func (Dense) ExpAction(q *ratemat.Generator, t float64, p0 []float64) ([]float64, error) {
	if err := checkInput(q, t, p0); err != nil {
		return nil, err
	}
	var qt, e mat.Dense
	qt.Scale(t, q.Dense())
	e.Exp(&qt)

	var v mat.VecDense
	v.MulVec(e.T(), mat.NewVecDense(len(p0), p0))
	p := mat.Col(nil, 0, &v)
	if !finite(p) {
		return nil, fmt.Errorf("%w: non-finite values in dense exponential", ErrNoConvergence)
	}
	return p, nil
}

// Occupancy returns p0 exp(Q t)
// and the integral of p0 exp(Q s)
// over [0, t],
// using the exponential of the augmented matrix
// [Qt It; 0 0].
func (Dense) Occupancy(q *ratemat.Generator, t float64, p0 []float64) (p, occ []float64, err error) {
	if err := checkInput(q, t, p0); err != nil {
		return nil, nil, err
	}
	n := q.Len()
	aug := mat.NewDense(2*n, 2*n, nil)
	qd := q.Dense()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, qd.At(i, j)*t)
		}
		aug.Set(i, n+i, t)
	}
	var e mat.Dense
	e.Exp(aug)

	p = make([]float64, n)
	occ = make([]float64, n)
	for i, v := range p0 {
		if v == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			p[j] += v * e.At(i, j)
			occ[j] += v * e.At(i, n+j)
		}
	}
	if !finite(p) || !finite(occ) {
		return nil, nil, fmt.Errorf("%w: non-finite values in dense exponential", ErrNoConvergence)
	}
	return p, occ, nil
}

// Absorb returns the expected time spent
// in each state
// before absorption,
// for a chain in which all transitions
// go from a state to a state with a larger index
// (e.g., a pure coalescent chain
// in a state space sorted by decreasing number of lineages).
// Absorbing states have zero occupancy.
func Absorb(q *ratemat.Generator, p0 []float64) ([]float64, error) {
	if len(p0) != q.Len() {
		return nil, fmt.Errorf("ctmc: vector length %d, generator size %d", len(p0), q.Len())
	}
	visit := append([]float64(nil), p0...)
	occ := make([]float64, len(p0))
	for i, v := range visit {
		r := q.Rate(i)
		if r == 0 || v == 0 {
			continue
		}
		occ[i] = v / r
		cols, vals := q.Row(i)
		for x, j := range cols {
			if j <= i {
				return nil, fmt.Errorf("ctmc: transition from state %d to state %d in an acyclic chain", i, j)
			}
			visit[j] += v * vals[x] / r
		}
	}
	if !finite(occ) {
		return nil, fmt.Errorf("%w: non-finite occupancy", ErrNoConvergence)
	}
	return occ, nil
}

func checkInput(q *ratemat.Generator, t float64, p0 []float64) error {
	if len(p0) != q.Len() {
		return fmt.Errorf("ctmc: vector length %d, generator size %d", len(p0), q.Len())
	}
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("ctmc: invalid time %v", t)
	}
	return nil
}

func finite(v []float64) bool {
	s := floats.Sum(v)
	return !math.IsNaN(s) && !math.IsInf(s, 0)
}

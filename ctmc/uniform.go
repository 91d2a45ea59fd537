// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ctmc

import (
	"fmt"
	"math"

	"github.com/js-arias/imclam/ratemat"
	"gonum.org/v1/gonum/floats"
)

// Default values of the uniformization solver.
const (
	DefaultTol      = 1e-7
	DefaultMaxTerms = 10_000
)

// maxStep is the largest value of the uniformization rate
// times the step length.
const maxStep = 30

// Uniformization is a solver
// that uses the sparse generator
// through uniformization
// (Jensen's method):
// p0 exp(Q t) is the Poisson-weighted sum
// of the powers of the uniformized chain.
// Long intervals are split into sub-steps.
type Uniformization struct {
	// Tol is the truncation tolerance
	// of the Poisson series.
	// If zero, DefaultTol is used.
	Tol float64

	// MaxTerms is the maximum number of terms
	// in a single sub-step.
	// If zero, DefaultMaxTerms is used.
	MaxTerms int
}

// ExpAction returns p0 exp(Q t).
func (u Uniformization) ExpAction(q *ratemat.Generator, t float64, p0 []float64) ([]float64, error) {
	p, _, err := u.solve(q, t, p0, false)
	return p, err
}

// Occupancy returns p0 exp(Q t)
// and the integral of p0 exp(Q s)
// over [0, t].
func (u Uniformization) Occupancy(q *ratemat.Generator, t float64, p0 []float64) (p, occ []float64, err error) {
	return u.solve(q, t, p0, true)
}

func (u Uniformization) solve(q *ratemat.Generator, t float64, p0 []float64, integrate bool) (p, occ []float64, err error) {
	if err := checkInput(q, t, p0); err != nil {
		return nil, nil, err
	}
	tol := u.Tol
	if tol <= 0 {
		tol = DefaultTol
	}
	maxTerms := u.MaxTerms
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}

	n := q.Len()
	p = append([]float64(nil), p0...)
	if integrate {
		occ = make([]float64, n)
	}
	lambda := q.MaxRate()
	if lambda == 0 || t == 0 {
		if integrate {
			floats.AddScaled(occ, t, p0)
		}
		return p, occ, nil
	}

	steps := int(math.Ceil(lambda * t / maxStep))
	h := t / float64(steps)
	lh := lambda * h

	v := make([]float64, n)
	nx := make([]float64, n)
	qv := make([]float64, n)
	for s := 0; s < steps; s++ {
		copy(v, p)
		w := math.Exp(-lh)
		cum := w
		floats.Scale(w, p)
		if integrate {
			floats.AddScaled(occ, (1-cum)/lambda, v)
		}
		for k := 1; ; k++ {
			if 1-cum < tol && float64(k) > lh {
				break
			}
			if k > maxTerms {
				return nil, nil, fmt.Errorf("%w: more than %d terms (rate %.6g, step %.6g)", ErrNoConvergence, maxTerms, lambda, h)
			}

			// v = v (I + Q/lambda)
			q.MulVec(qv, v)
			for i := range nx {
				nx[i] = v[i] + qv[i]/lambda
			}
			v, nx = nx, v

			w *= lh / float64(k)
			cum += w
			floats.AddScaled(p, w, v)
			if integrate {
				floats.AddScaled(occ, (1-cum)/lambda, v)
			}
		}
	}

	if !finite(p) || (integrate && !finite(occ)) {
		return nil, nil, fmt.Errorf("%w: non-finite values", ErrNoConvergence)
	}
	m0 := floats.Sum(p0)
	if d := math.Abs(floats.Sum(p) - m0); d > 100*tol*float64(steps)*math.Max(m0, 1) {
		return nil, nil, fmt.Errorf("%w: probability mass off by %.6g", ErrNoConvergence, d)
	}
	return p, occ, nil
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Default values for MLSL.
const (
	DefaultSamples = 50
	DefaultRounds  = 4
	DefaultGamma   = 0.3
	DefaultSigma   = 2
)

// MLSL is a global optimizer
// that uses the multi-level single linkage algorithm
// of Rinnooy Kan and Timmer.
//
// At each round,
// a set of uniform random points is sampled,
// and a local search is started
// from a sampled point
// only if there is no better point
// (or a known local minimum)
// closer than a critical distance
// that decreases with the size of the sample.
type MLSL struct {
	// Local is the local optimizer.
	Local Optimizer

	// Samples is the number of random points
	// sampled at each round.
	Samples int

	// Rounds is the number of sampling rounds.
	Rounds int

	// Gamma is the fraction of the best sampled points
	// that are candidates for a local search.
	Gamma float64

	// Sigma is the scale of the critical distance.
	Sigma float64

	// Rand is the source of random numbers.
	Rand *rand.Rand
}

type sample struct {
	u    []float64 // point in the unit cube
	f    float64
	used bool
}

// Minimize searches for the global minimum of f.
// The first local search starts at x0.
// It returns the best result of all local searches,
// with the total number of evaluations
// and failures.
func (ml MLSL) Minimize(f Func, b Bounds, x0 []float64) (Result, error) {
	if err := b.validate(len(x0)); err != nil {
		return Result{}, err
	}
	local := ml.Local
	if local == nil {
		local = NelderMead{}
	}
	samples := ml.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}
	rounds := ml.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	gamma := ml.Gamma
	if gamma <= 0 || gamma > 1 {
		gamma = DefaultGamma
	}
	sigma := ml.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	rng := ml.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 1))
	}

	var evals, failures int
	var best Result
	found := false
	var minima [][]float64
	var lastErr error
	search := func(x []float64) {
		r, err := local.Minimize(f, b, x)
		evals += r.Evals
		failures += r.Failures
		if err != nil {
			lastErr = err
			return
		}
		minima = append(minima, toUnit(b, r.X))
		if !found || r.F < best.F {
			best = r
			found = true
		}
	}
	search(x0)

	n := float64(len(x0))
	var pool []*sample
	for k := 1; k <= rounds; k++ {
		for i := 0; i < samples; i++ {
			x := RandomStart(b, rng)
			evals++
			v, err := f(x)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				failures++
				continue
			}
			pool = append(pool, &sample{u: toUnit(b, x), f: v})
		}
		if len(pool) == 0 {
			continue
		}
		slices.SortFunc(pool, func(a, b *sample) int {
			if a.f < b.f {
				return -1
			}
			if a.f > b.f {
				return 1
			}
			return 0
		})

		total := float64(k * samples)
		r := math.Pow(math.Gamma(1+n/2)*sigma*math.Log(total)/total, 1/n) / math.Sqrt(math.Pi)

		reduced := int(math.Ceil(gamma * float64(len(pool))))
		for i := 0; i < reduced; i++ {
			s := pool[i]
			if s.used {
				continue
			}
			if nearBetter(s, pool[:i], r) || nearMinimum(s.u, minima, r) {
				continue
			}
			s.used = true
			search(fromUnit(b, s.u))
		}
	}

	if !found {
		return Result{Start: slices.Clone(x0), Evals: evals, Failures: failures}, fmt.Errorf("optim: all local searches failed: %w", lastErr)
	}
	best.Evals = evals
	best.Failures = failures
	return best, nil
}

// nearBetter returns true
// if a point with a better value
// is closer than r.
// Points in better are sorted by value.
func nearBetter(s *sample, better []*sample, r float64) bool {
	for _, o := range better {
		if o.f >= s.f {
			break
		}
		if floats.Distance(s.u, o.u, 2) < r {
			return true
		}
	}
	return false
}

func nearMinimum(u []float64, minima [][]float64, r float64) bool {
	for _, m := range minima {
		if floats.Distance(u, m, 2) < r {
			return true
		}
	}
	return false
}

func toUnit(b Bounds, x []float64) []float64 {
	u := make([]float64, len(x))
	for i, v := range x {
		w := b.Upper[i] - b.Lower[i]
		if w == 0 {
			continue
		}
		u[i] = (v - b.Lower[i]) / w
	}
	return u
}

func fromUnit(b Bounds, u []float64) []float64 {
	x := make([]float64, len(u))
	for i, v := range u {
		x[i] = b.Lower[i] + v*(b.Upper[i]-b.Lower[i])
	}
	return x
}

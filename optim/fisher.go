// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optim

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultStep is the default relative step
// used for finite differences.
const DefaultStep = 1e-3

// FisherInfo returns the observed information matrix
// (the Hessian of a negative log likelihood)
// at x,
// using symmetric finite differences.
// fx is the function value at x.
//
// The step of each coordinate is relative
// to the value of the coordinate.
// If a coordinate is too close to a bound,
// the differences are centered
// on a point moved inside the box.
func FisherInfo(f Func, b Bounds, x []float64, fx, step float64) (*mat.SymDense, error) {
	n := len(x)
	if err := b.validate(n); err != nil {
		return nil, err
	}
	if step <= 0 {
		step = DefaultStep
	}

	h := make([]float64, n)
	c := slices.Clone(x)
	moved := false
	for i, v := range x {
		h[i] = step * math.Abs(v)
		if h[i] == 0 {
			h[i] = step
		}
		if b.Upper[i]-b.Lower[i] < 2*h[i] {
			return nil, fmt.Errorf("optim: parameter %d: bounds too narrow for step %v", i, h[i])
		}
		if c[i]-h[i] < b.Lower[i] {
			c[i] = b.Lower[i] + h[i]
			moved = true
		}
		if c[i]+h[i] > b.Upper[i] {
			c[i] = b.Upper[i] - h[i]
			moved = true
		}
	}
	fc := fx
	if moved {
		var err error
		fc, err = f(c)
		if err != nil {
			return nil, err
		}
	}

	pt := make([]float64, n)
	eval := func(i int, di float64, j int, dj float64) (float64, error) {
		copy(pt, c)
		pt[i] += di
		pt[j] += dj
		return f(pt)
	}

	fi := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		fp, err := eval(i, h[i], i, 0)
		if err != nil {
			return nil, err
		}
		fm, err := eval(i, -h[i], i, 0)
		if err != nil {
			return nil, err
		}
		fi.SetSym(i, i, (fp-2*fc+fm)/(h[i]*h[i]))

		for j := i + 1; j < n; j++ {
			var v [4]float64
			signs := [4][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
			for k, s := range signs {
				v[k], err = eval(i, s[0]*h[i], j, s[1]*h[j])
				if err != nil {
					return nil, err
				}
			}
			fi.SetSym(i, j, (v[0]-v[1]-v[2]+v[3])/(4*h[i]*h[j]))
		}
	}
	return fi, nil
}

// StdErr returns the standard errors
// from an observed information matrix,
// i.e. the square roots of the diagonal
// of its inverse.
func StdErr(fi *mat.SymDense) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(fi); !ok {
		return nil, errors.New("optim: information matrix is not positive definite")
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("optim: %v", err)
	}

	n := fi.SymmetricDim()
	se := make([]float64, n)
	for i := range se {
		se[i] = math.Sqrt(inv.At(i, i))
	}
	return se, nil
}

// Interval returns the bounds of the normal approximation
// to the confidence interval
// of the given level (e.g., 0.95).
func Interval(x, se []float64, level float64) (lower, upper []float64) {
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-level)/2)
	lower = make([]float64, len(x))
	upper = make([]float64, len(x))
	for i, v := range x {
		lower[i] = v - z*se[i]
		upper[i] = v + z*se[i]
	}
	return lower, upper
}

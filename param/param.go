// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package param implements the parameters
// of an isolation with migration model.
//
// All parameters are scaled relative
// to the population size of the first population
// (i.e., theta_1 = 1).
package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Len is the number of free parameters of the model.
const Len = 5

// Names are the names of the parameters,
// in the order used by Slice.
var Names = []string{
	"theta_pop2",
	"theta_anc",
	"mig_1->2",
	"mig_2->1",
	"t_div",
}

// Params is a set of parameter values
// of an isolation with migration model.
type Params struct {
	// Theta2 is the size of the second population.
	Theta2 float64

	// ThetaA is the size of the ancestral population.
	ThetaA float64

	// M12 is the rate at which a lineage
	// in the first population
	// moves (backwards in time)
	// to the second population.
	M12 float64

	// M21 is the rate at which a lineage
	// in the second population
	// moves to the first population.
	M21 float64

	// TDiv is the divergence time.
	TDiv float64
}

// FromSlice returns the parameters
// stored in a slice.
func FromSlice(x []float64) Params {
	if len(x) != Len {
		panic(fmt.Sprintf("param: invalid slice length %d", len(x)))
	}
	return Params{
		Theta2: x[0],
		ThetaA: x[1],
		M12:    x[2],
		M21:    x[3],
		TDiv:   x[4],
	}
}

// Slice returns the parameters as a slice.
func (p Params) Slice() []float64 {
	return []float64{p.Theta2, p.ThetaA, p.M12, p.M21, p.TDiv}
}

// Parse reads a set of parameters
// from a string of five comma-separated values
// in the order theta_2, theta_A, mig_12, mig_21, t_div.
func Parse(s string) (Params, error) {
	f := strings.Split(s, ",")
	if len(f) != Len {
		return Params{}, fmt.Errorf("expecting %d values, found %d", Len, len(f))
	}
	x := make([]float64, Len)
	for i, v := range f {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Params{}, fmt.Errorf("parameter %q: %v", Names[i], err)
		}
		x[i] = n
	}
	return FromSlice(x), nil
}

// String returns the parameters as tab-delimited values.
func (p Params) String() string {
	x := p.Slice()
	s := make([]string, len(x))
	for i, v := range x {
		s[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(s, "\t")
}

// Unscale returns the parameters in natural units,
// using an effective population size n0
// and the number of generations per year.
// Population sizes and migration rates are scaled by n0;
// the divergence time is returned in years.
func (p Params) Unscale(n0, genPerYear float64) Params {
	return Params{
		Theta2: p.Theta2 * n0,
		ThetaA: p.ThetaA * n0,
		M12:    p.M12 * n0,
		M21:    p.M21 * n0,
		TDiv:   p.TDiv * n0 * 4 / genPerYear,
	}
}

// Bounds is a box constraint over the parameter space.
type Bounds struct {
	Lower Params
	Upper Params
}

// Default are the default bounds of the parameter space.
var Default = Bounds{
	Lower: Params{Theta2: 0.01, ThetaA: 0.01, M12: 0, M21: 0, TDiv: 0.001},
	Upper: Params{Theta2: 10, ThetaA: 10, M12: 20, M21: 20, TDiv: 10},
}

// Contains returns true if the parameters
// are inside the bounds.
func (b Bounds) Contains(p Params) bool {
	lo := b.Lower.Slice()
	hi := b.Upper.Slice()
	for i, v := range p.Slice() {
		if v < lo[i] || v > hi[i] {
			return false
		}
	}
	return true
}

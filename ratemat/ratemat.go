// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ratemat implements the rate matrix
// (infinitesimal generator)
// of a continuous-time Markov chain
// of coalescence and migration.
package ratemat

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Generator is a rate matrix
// stored as compressed sparse rows
// of the off-diagonal entries
// and a dense diagonal.
type Generator struct {
	rowPtr []int
	col    []int
	val    []float64
	diag   []float64
}

// Len returns the number of states of the generator.
func (g *Generator) Len() int {
	return len(g.diag)
}

// NNZ returns the number of stored off-diagonal entries.
func (g *Generator) NNZ() int {
	return len(g.col)
}

// At returns the value of the generator
// at the cell i, j.
func (g *Generator) At(i, j int) float64 {
	if i == j {
		return g.diag[i]
	}
	cs := g.col[g.rowPtr[i]:g.rowPtr[i+1]]
	x, ok := slices.BinarySearch(cs, j)
	if !ok {
		return 0
	}
	return g.val[g.rowPtr[i]+x]
}

// Rate returns the total rate of leaving state i.
func (g *Generator) Rate(i int) float64 {
	return -g.diag[i]
}

// MaxRate returns the largest rate
// of leaving a state.
func (g *Generator) MaxRate() float64 {
	var m float64
	for _, d := range g.diag {
		if -d > m {
			m = -d
		}
	}
	return m
}

// Row returns the off-diagonal entries
// of a row.
// The returned slices must not be modified.
func (g *Generator) Row(i int) (cols []int, vals []float64) {
	return g.col[g.rowPtr[i]:g.rowPtr[i+1]], g.val[g.rowPtr[i]:g.rowPtr[i+1]]
}

// MulVec sets dst to the product of the row vector p
// and the generator
// (i.e., dst = p Q).
// dst and p must have the length of the generator
// and must not share memory.
func (g *Generator) MulVec(dst, p []float64) {
	for j, d := range g.diag {
		dst[j] = d * p[j]
	}
	for i, v := range p {
		if v == 0 {
			continue
		}
		for x := g.rowPtr[i]; x < g.rowPtr[i+1]; x++ {
			dst[g.col[x]] += v * g.val[x]
		}
	}
}

// Dense returns the generator as a dense matrix.
func (g *Generator) Dense() *mat.Dense {
	n := g.Len()
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, g.diag[i])
		for x := g.rowPtr[i]; x < g.rowPtr[i+1]; x++ {
			m.Set(i, g.col[x], g.val[x])
		}
	}
	return m
}

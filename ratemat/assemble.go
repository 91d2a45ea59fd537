// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ratemat

import (
	"fmt"
	"slices"

	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
)

// An Assembler fills the values of a generator
// from a transition template.
// The sparsity pattern is built once,
// and reused for each set of parameters.
type Assembler struct {
	space *statespace.Space
	recs  []transition.Record
	pos   []int // position of each record in the values
	g     *Generator
}

// NewAssembler creates a new assembler
// for a state space
// and its transition template.
func NewAssembler(s *statespace.Space, t *transition.Template) (*Assembler, error) {
	n := s.Len()
	rows := make([][]int, n)
	for i, r := range t.Records() {
		if r.Source < 0 || r.Source >= n || r.Dest < 0 || r.Dest >= n {
			return nil, fmt.Errorf("record %d: state out of range", i)
		}
		if r.Source == r.Dest {
			return nil, fmt.Errorf("record %d: transition from state %d to itself", i, r.Source)
		}
		if r.Aux1 < 0 || r.Aux1 >= s.Classes() || r.Aux2 < 0 || r.Aux2 >= s.Classes() {
			return nil, fmt.Errorf("record %d: class out of range", i)
		}
		switch r.Move {
		case transition.Coal1, transition.Coal2, transition.Mig12, transition.Mig21:
			if s.Pops() != 2 {
				return nil, fmt.Errorf("record %d: move %s in an ancestral state space", i, r.Move)
			}
		case transition.CoalAnc:
			if s.Pops() != 1 {
				return nil, fmt.Errorf("record %d: move %s in a two population state space", i, r.Move)
			}
		default:
			return nil, fmt.Errorf("record %d: unknown move %d", i, int(r.Move))
		}
		rows[r.Source] = append(rows[r.Source], r.Dest)
	}

	g := &Generator{
		rowPtr: make([]int, n+1),
		diag:   make([]float64, n),
	}
	for i, cs := range rows {
		slices.Sort(cs)
		cs = slices.Compact(cs)
		g.col = append(g.col, cs...)
		g.rowPtr[i+1] = len(g.col)
	}
	g.val = make([]float64, len(g.col))

	a := &Assembler{
		space: s,
		recs:  t.Records(),
		pos:   make([]int, t.Len()),
		g:     g,
	}
	for i, r := range a.recs {
		start := g.rowPtr[r.Source]
		x, _ := slices.BinarySearch(g.col[start:g.rowPtr[r.Source+1]], r.Dest)
		a.pos[i] = start + x
	}
	return a, nil
}

// Assemble fills the generator
// with the rates defined by the parameters.
// The divergence time is not used.
//
// The returned generator is owned by the assembler
// and it is overwritten by the next call to Assemble.
func (a *Assembler) Assemble(p param.Params) *Generator {
	g := a.g
	clear(g.val)
	clear(g.diag)

	for i, r := range a.recs {
		st := a.space.State(r.Source)
		var rate float64
		switch r.Move {
		case transition.Coal1:
			rate = pairs(st, 0, r.Aux1, r.Aux2)
		case transition.Coal2:
			rate = pairs(st, 1, r.Aux1, r.Aux2) / p.Theta2
		case transition.CoalAnc:
			rate = pairs(st, 0, r.Aux1, r.Aux2) / p.ThetaA
		case transition.Mig12:
			rate = p.M12 * float64(st.Count(0, r.Aux1))
		case transition.Mig21:
			rate = p.M21 * float64(st.Count(1, r.Aux1))
		}
		g.val[a.pos[i]] += rate
	}

	for i := range g.diag {
		var sum float64
		for x := g.rowPtr[i]; x < g.rowPtr[i+1]; x++ {
			sum += g.val[x]
		}
		g.diag[i] = -sum
	}
	return g
}

// Generator returns the last assembled generator.
func (a *Assembler) Generator() *Generator {
	return a.g
}

// pairs returns the number of lineage pairs
// of classes a and b
// in a population.
func pairs(st statespace.State, pop, a, b int) float64 {
	ka := float64(st.Count(pop, a))
	if a == b {
		return ka * (ka - 1) / 2
	}
	return ka * float64(st.Count(pop, b))
}

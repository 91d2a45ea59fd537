// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package transition implements transition templates:
// parameter-free lists of the allowed moves
// between the states of a state space.
//
// A template stores the structure of a rate matrix,
// so the matrix can be filled
// for any set of parameter values.
package transition

import (
	"fmt"

	"github.com/js-arias/imclam/statespace"
)

// Move is the kind of event of a transition.
type Move int

// Valid moves.
const (
	// Coal1 is a coalescence in the first population.
	Coal1 Move = iota

	// Coal2 is a coalescence in the second population.
	Coal2

	// Mig12 is the migration of a lineage
	// from the first to the second population.
	Mig12

	// Mig21 is the migration of a lineage
	// from the second to the first population.
	Mig21

	// CoalAnc is a coalescence in the ancestral population.
	CoalAnc
)

var moveNames = map[Move]string{
	Coal1:   "coal-1",
	Coal2:   "coal-2",
	Mig12:   "mig-1->2",
	Mig21:   "mig-2->1",
	CoalAnc: "coal-anc",
}

func (m Move) String() string {
	if s, ok := moveNames[m]; ok {
		return s
	}
	return fmt.Sprintf("move(%d)", int(m))
}

// Valid returns true if m is a known move.
func (m Move) Valid() bool {
	_, ok := moveNames[m]
	return ok
}

// IsCoal returns true if the move is a coalescence.
func (m Move) IsCoal() bool {
	return m == Coal1 || m == Coal2 || m == CoalAnc
}

// Pop returns the population
// in which the move happens
// (0 for the first population,
// 1 for the second population).
// Ancestral coalescences are in population 0.
func (m Move) Pop() int {
	switch m {
	case Coal2, Mig21:
		return 1
	}
	return 0
}

// A Record is a single allowed transition.
type Record struct {
	Source int
	Dest   int
	Move   Move

	// Aux1 and Aux2 are the classes of the two lineages
	// that merge in a coalescence.
	// In a migration
	// Aux1 is the class of the migrating lineage
	// and Aux2 is equal to Aux1.
	Aux1 int
	Aux2 int
}

// A Template is an ordered list of transitions.
type Template struct {
	recs []Record
}

// Add adds a transition record to the template.
func (t *Template) Add(r Record) {
	t.recs = append(t.recs, r)
}

// Len returns the number of records in the template.
func (t *Template) Len() int {
	return len(t.recs)
}

// Records returns the records of the template.
// The returned slice must not be modified.
func (t *Template) Records() []Record {
	return t.recs
}

// Build returns the template of all the allowed moves
// in a state space.
// In a space with two populations
// moves are coalescences within each population
// and migrations of single lineages.
// In a space with a single population
// moves are ancestral coalescences.
func Build(s *statespace.Space) (*Template, error) {
	t := &Template{}
	for i := 0; i < s.Len(); i++ {
		st := s.State(i)
		for p := 0; p < st.Pops(); p++ {
			cs := st.Counts(p)
			for a, k := range cs {
				if k == 0 {
					continue
				}
				if nx := st.Migrate(p, a); nx != nil {
					m := Mig12
					if p == 1 {
						m = Mig21
					}
					if err := t.add(s, i, nx, m, a, a); err != nil {
						return nil, err
					}
				}
				for b := a; b < len(cs); b++ {
					nx := st.Coalesce(p, a, b)
					if nx == nil {
						continue
					}
					m := CoalAnc
					if s.Pops() == 2 {
						m = Coal1
						if p == 1 {
							m = Coal2
						}
					}
					if err := t.add(s, i, nx, m, a, b); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return t, nil
}

// BuildAncestral returns the template
// of the ancestral coalescences
// of a reduced state space.
func BuildAncestral(r *statespace.Space) (*Template, error) {
	if r.Pops() != 1 {
		return nil, fmt.Errorf("ancestral template: expecting a single population space, got %d populations", r.Pops())
	}
	return Build(r)
}

func (t *Template) add(s *statespace.Space, src int, pops [][]int, m Move, a, b int) error {
	key := statespace.Key(pops)
	dst, ok := s.Index(key)
	if !ok {
		return fmt.Errorf("state %d: move %s: destination state %q not in state space", src, m, key)
	}
	t.Add(Record{
		Source: src,
		Dest:   dst,
		Move:   m,
		Aux1:   a,
		Aux2:   b,
	})
	return nil
}

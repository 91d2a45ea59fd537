// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package model implements the composite likelihood
// of an isolation with migration model
// given an observed joint allele frequency spectrum.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/js-arias/imclam/afs"
	"github.com/js-arias/imclam/ctmc"
	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/ratemat"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
	"gonum.org/v1/gonum/mat"
)

// minExpected is the smallest expected value
// used in the likelihood.
const minExpected = 1e-300

// Config is the configuration of a model.
type Config struct {
	// Full is the state space of the two populations.
	Full *statespace.Space

	// Template is the transition template of the full space.
	// If nil, it is built from the state space.
	Template *transition.Template

	// Solver is used for the pre-divergence period.
	// If nil, a default Uniformization solver is used.
	Solver ctmc.Solver
}

// Model is an isolation with migration model.
// A Model is not safe for concurrent use.
type Model struct {
	full    *statespace.Space
	red     *statespace.Space
	reduce  *statespace.Reduction
	fullAsm *ratemat.Assembler
	ancAsm  *ratemat.Assembler
	solver  ctmc.Solver

	p0    []float64
	redP  []float64
	evals int
	last  *mat.Dense
}

// New creates a new model.
func New(cfg Config) (*Model, error) {
	if cfg.Full == nil {
		return nil, errors.New("model: undefined state space")
	}
	if cfg.Full.Pops() != 2 {
		return nil, fmt.Errorf("model: expecting a two population state space, got %d populations", cfg.Full.Pops())
	}
	tp := cfg.Template
	if tp == nil {
		var err error
		tp, err = transition.Build(cfg.Full)
		if err != nil {
			return nil, fmt.Errorf("model: %v", err)
		}
	}
	fullAsm, err := ratemat.NewAssembler(cfg.Full, tp)
	if err != nil {
		return nil, fmt.Errorf("model: template: %v", err)
	}

	red, rd := statespace.Reduce(cfg.Full)
	anc, err := transition.BuildAncestral(red)
	if err != nil {
		return nil, fmt.Errorf("model: %v", err)
	}
	ancAsm, err := ratemat.NewAssembler(red, anc)
	if err != nil {
		return nil, fmt.Errorf("model: ancestral template: %v", err)
	}

	init, ok := cfg.Full.Initial()
	if !ok {
		return nil, errors.New("model: sampling state not in state space")
	}
	p0 := make([]float64, cfg.Full.Len())
	p0[init] = 1

	solver := cfg.Solver
	if solver == nil {
		solver = ctmc.Uniformization{}
	}

	return &Model{
		full:    cfg.Full,
		red:     red,
		reduce:  rd,
		fullAsm: fullAsm,
		ancAsm:  ancAsm,
		solver:  solver,
		p0:      p0,
		redP:    make([]float64, red.Len()),
	}, nil
}

// Full returns the full state space of the model.
func (m *Model) Full() *statespace.Space {
	return m.full
}

// Reduced returns the ancestral state space of the model.
func (m *Model) Reduced() *statespace.Space {
	return m.red
}

// Evals returns the number of likelihood evaluations.
func (m *Model) Evals() int {
	return m.evals
}

// LastAFS returns the last expected AFS
// successfully calculated by the model.
func (m *Model) LastAFS() *mat.Dense {
	return m.last
}

// Validate returns an error
// if the parameters are not valid for the model.
func Validate(p param.Params) error {
	for i, v := range p.Slice() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %q: invalid value %v", param.Names[i], v)
		}
	}
	if p.Theta2 <= 0 {
		return fmt.Errorf("parameter %q: invalid population size %v", param.Names[0], p.Theta2)
	}
	if p.ThetaA <= 0 {
		return fmt.Errorf("parameter %q: invalid population size %v", param.Names[1], p.ThetaA)
	}
	if p.M12 < 0 {
		return fmt.Errorf("parameter %q: invalid migration rate %v", param.Names[2], p.M12)
	}
	if p.M21 < 0 {
		return fmt.Errorf("parameter %q: invalid migration rate %v", param.Names[3], p.M21)
	}
	if p.TDiv < 0 {
		return fmt.Errorf("parameter %q: invalid divergence time %v", param.Names[4], p.TDiv)
	}
	return nil
}

// Expected returns the expected AFS
// for a set of parameters.
func (m *Model) Expected(p param.Params) (*mat.Dense, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	// pre-divergence
	q := m.fullAsm.Assemble(p)
	pt, occ, err := m.solver.Occupancy(q, p.TDiv, m.p0)
	if err != nil {
		return nil, err
	}

	// ancestral population
	clear(m.redP)
	for i, v := range pt {
		m.redP[m.reduce.Forward[i]] += v
	}
	qa := m.ancAsm.Assemble(p)
	redOcc, err := ctmc.Absorb(qa, m.redP)
	if err != nil {
		return nil, err
	}

	e := afs.Project(m.full, occ, m.red, redOcc)
	m.last = e
	return e, nil
}

// NegLogLike returns the negative log composite likelihood
// of the parameters
// given an observed AFS.
//
// Monomorphic cells and cells without observations
// are ignored.
// If a calculation fails,
// it returns NaN and the error.
func (m *Model) NegLogLike(p param.Params, obs *mat.Dense) (float64, error) {
	m.evals++

	r, c := obs.Dims()
	if r != m.full.N1()+1 || c != m.full.N2()+1 {
		return math.NaN(), fmt.Errorf("model: observed AFS of size %d x %d, want %d x %d", r, c, m.full.N1()+1, m.full.N2()+1)
	}
	e, err := m.Expected(p)
	if err != nil {
		return math.NaN(), err
	}

	var ll float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if (i == 0 && j == 0) || (i == r-1 && j == c-1) {
				continue
			}
			o := obs.At(i, j)
			if o == 0 {
				continue
			}
			ll -= o * math.Log(math.Max(e.At(i, j), minExpected))
		}
	}
	return ll, nil
}

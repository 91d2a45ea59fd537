// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ctmc_test

import (
	"errors"
	"math"
	"testing"

	"github.com/js-arias/imclam/ctmc"
	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/ratemat"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
	"gonum.org/v1/gonum/floats"
)

func generator(t testing.TB, s *statespace.Space, p param.Params) *ratemat.Generator {
	t.Helper()

	var tp *transition.Template
	var err error
	if s.Pops() == 1 {
		tp, err = transition.BuildAncestral(s)
	} else {
		tp, err = transition.Build(s)
	}
	if err != nil {
		t.Fatalf("unable to build template: %v", err)
	}
	a, err := ratemat.NewAssembler(s, tp)
	if err != nil {
		t.Fatalf("unable to build assembler: %v", err)
	}
	return a.Assemble(p)
}

func initial(t testing.TB, s *statespace.Space) []float64 {
	t.Helper()

	p0 := make([]float64, s.Len())
	i, ok := s.Initial()
	if !ok {
		t.Fatalf("initial state not found")
	}
	p0[i] = 1
	return p0
}

func TestUniformization(t *testing.T) {
	s, err := statespace.Enumerate(2, 2)
	if err != nil {
		t.Fatalf("unable to enumerate states: %v", err)
	}
	p0 := initial(t, s)

	tests := map[string]struct {
		p param.Params
		t float64
	}{
		"short": {
			p: param.Params{Theta2: 1.3, ThetaA: 1, M12: 0.4, M21: 0.9, TDiv: 0.7},
			t: 0.7,
		},
		"sub-steps": {
			p: param.Params{Theta2: 0.05, ThetaA: 1, M12: 15, M21: 8, TDiv: 2},
			t: 2,
		},
		"no migration": {
			p: param.Params{Theta2: 2, ThetaA: 1, M12: 0, M21: 0, TDiv: 3},
			t: 3,
		},
	}

	for name, test := range tests {
		q := generator(t, s, test.p)
		up, uocc, err := ctmc.Uniformization{}.Occupancy(q, test.t, p0)
		if err != nil {
			t.Errorf("%s: uniformization: %v", name, err)
			continue
		}
		dp, docc, err := ctmc.Dense{}.Occupancy(q, test.t, p0)
		if err != nil {
			t.Errorf("%s: dense: %v", name, err)
			continue
		}
		testVector(t, name+": probability", up, dp, 1e-5)
		testVector(t, name+": occupancy", uocc, docc, 1e-5)

		if s := floats.Sum(up); math.Abs(s-1) > 1e-5 {
			t.Errorf("%s: probability sum %.8f", name, s)
		}
		if s := floats.Sum(uocc); math.Abs(s-test.t) > 1e-5 {
			t.Errorf("%s: occupancy sum %.8f, want %.8f", name, s, test.t)
		}

		ep, err := ctmc.Uniformization{}.ExpAction(q, test.t, p0)
		if err != nil {
			t.Errorf("%s: uniformization: %v", name, err)
			continue
		}
		testVector(t, name+": action", ep, up, 1e-12)

		ep, err = ctmc.Dense{}.ExpAction(q, test.t, p0)
		if err != nil {
			t.Errorf("%s: dense: %v", name, err)
			continue
		}
		testVector(t, name+": dense action", ep, dp, 1e-9)
	}
}

func testVector(t testing.TB, name string, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Errorf("%s: length %d, want %d", name, len(got), len(want))
		return
	}
	for i, v := range got {
		if math.Abs(v-want[i]) > tol {
			t.Errorf("%s: element %d: got %.8f, want %.8f", name, i, v, want[i])
		}
	}
}

func TestNoConvergence(t *testing.T) {
	s, err := statespace.Enumerate(2, 2)
	if err != nil {
		t.Fatalf("unable to enumerate states: %v", err)
	}
	q := generator(t, s, param.Params{Theta2: 1, ThetaA: 1, M12: 1, M21: 1, TDiv: 1})
	_, err = ctmc.Uniformization{MaxTerms: 1}.ExpAction(q, 1, initial(t, s))
	if !errors.Is(err, ctmc.ErrNoConvergence) {
		t.Errorf("expecting %v, got %v", ctmc.ErrNoConvergence, err)
	}

	if _, err := (ctmc.Uniformization{}).ExpAction(q, -1, initial(t, s)); err == nil {
		t.Errorf("expecting error on negative time")
	}
}

func TestAbsorb(t *testing.T) {
	s, err := statespace.Enumerate(2, 2)
	if err != nil {
		t.Fatalf("unable to enumerate states: %v", err)
	}
	red, _ := statespace.Reduce(s)

	thetaA := 2.5
	q := generator(t, red, param.Params{Theta2: 1, ThetaA: thetaA})
	occ, err := ctmc.Absorb(q, initial(t, red))
	if err != nil {
		t.Fatalf("absorb: %v", err)
	}

	// expected time to the most recent common ancestor
	// of four lineages
	want := thetaA * (1.0/6 + 1.0/3 + 1)
	if got := floats.Sum(occ); math.Abs(got-want) > 1e-12 {
		t.Errorf("time to absorption: got %.8f, want %.8f", got, want)
	}

	// four lineages
	if got := occ[0]; math.Abs(got-thetaA/6) > 1e-12 {
		t.Errorf("first state occupancy: got %.8f, want %.8f", got, thetaA/6)
	}

	// transitions to previous states
	fq := generator(t, s, param.Params{Theta2: 1, ThetaA: 1, M12: 1, M21: 1})
	p0 := make([]float64, s.Len())
	for i := range p0 {
		p0[i] = 1 / float64(len(p0))
	}
	if _, err := ctmc.Absorb(fq, p0); err == nil {
		t.Errorf("absorb: expecting error on a chain with cycles")
	}
}

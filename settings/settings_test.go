// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package settings_test

import (
	"os"
	"reflect"
	"testing"

	"github.com/js-arias/imclam/ctmc"
	"github.com/js-arias/imclam/settings"
)

func TestSettings(t *testing.T) {
	name := "tmp-settings-for-test.tab"
	s := settings.New(name)
	testSettings(t, s, nil, name)

	s.SetEvals(500)
	s.SetTolerance(1e-4)
	s.SetIterations(20)
	s.SetStarts(5)
	s.SetSamples(30)
	s.SetRounds(2)
	s.SetStep(1e-2)
	s.SetSolver("Dense")

	defer os.Remove(name)
	if err := s.Write(); err != nil {
		t.Fatalf("error when writing data: %v", err)
	}

	ns, err := settings.Read(name)
	if err != nil {
		t.Fatalf("error when reading data: %v", err)
	}
	testSettings(t, ns, s, name)

	if _, ok := ns.MatSolver().(ctmc.Dense); !ok {
		t.Errorf("solver: got %T, want %T", ns.MatSolver(), ctmc.Dense{})
	}
	if l := ns.Local(); l.MaxEvals != 500 || l.Tol != 1e-4 || l.Iterations != 20 {
		t.Errorf("local optimizer: got %+v", l)
	}
}

func testSettings(t testing.TB, s, want *settings.Settings, name string) {
	t.Helper()

	if want == nil {
		want = settings.New(name)
	}
	if s.Name() != want.Name() {
		t.Errorf("name: got %q, want %q", s.Name(), want.Name())
	}
	got := []any{s.Evals(), s.Tolerance(), s.Iterations(), s.Starts(), s.Samples(), s.Rounds(), s.Step(), s.Solver()}
	w := []any{want.Evals(), want.Tolerance(), want.Iterations(), want.Starts(), want.Samples(), want.Rounds(), want.Step(), want.Solver()}
	if !reflect.DeepEqual(got, w) {
		t.Errorf("settings: got %v, want %v", got, w)
	}
}

func TestSettersErrors(t *testing.T) {
	s := settings.New("")
	if err := s.SetEvals(0); err == nil {
		t.Errorf("evals: expecting error")
	}
	if err := s.SetTolerance(-1); err == nil {
		t.Errorf("tolerance: expecting error")
	}
	if err := s.SetStep(2); err == nil {
		t.Errorf("step: expecting error")
	}
	if err := s.SetSolver("expokit"); err == nil {
		t.Errorf("solver: expecting error")
	}
	if s.Solver() != settings.Uniformization {
		t.Errorf("solver: got %q, want %q", s.Solver(), settings.Uniformization)
	}
}

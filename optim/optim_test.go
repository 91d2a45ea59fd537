// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optim_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/js-arias/imclam/optim"
	"gonum.org/v1/gonum/mat"
)

func quadratic(c []float64) optim.Func {
	return func(x []float64) (float64, error) {
		var s float64
		for i, v := range x {
			d := v - c[i]
			s += d * d
		}
		return s, nil
	}
}

var box = optim.Bounds{
	Lower: []float64{0, 0},
	Upper: []float64{10, 10},
}

func TestNelderMead(t *testing.T) {
	tests := map[string]struct {
		c    []float64
		x0   []float64
		want []float64
	}{
		"interior": {
			c:    []float64{3, 7},
			x0:   []float64{5, 5},
			want: []float64{3, 7},
		},
		"at bound": {
			c:    []float64{-1, 5},
			x0:   []float64{5, 2},
			want: []float64{0, 5},
		},
	}

	for name, test := range tests {
		r, err := optim.Single(optim.NelderMead{}, quadratic(test.c), box, test.x0)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		for i, v := range r.X {
			if math.Abs(v-test.want[i]) > 1e-2 {
				t.Errorf("%s: x[%d]: got %.6f, want %.6f", name, i, v, test.want[i])
			}
		}
		if !box.Contains(r.X) {
			t.Errorf("%s: result %v outside bounds", name, r.X)
		}
		if r.Evals == 0 {
			t.Errorf("%s: no evaluations", name)
		}
		if !reflect.DeepEqual(r.Start, test.x0) {
			t.Errorf("%s: start: got %v, want %v", name, r.Start, test.x0)
		}
	}

	if _, err := optim.Single(optim.NelderMead{}, quadratic([]float64{1, 1}), box, []float64{11, 1}); err == nil {
		t.Errorf("expecting error on starting point outside bounds")
	}
}

var errFail = errors.New("evaluation failed")

func TestNelderMeadFailures(t *testing.T) {
	fail := func(x []float64) (float64, error) {
		return math.NaN(), errFail
	}
	r, err := optim.NelderMead{MaxEvals: 50}.Minimize(fail, box, []float64{5, 5})
	if !errors.Is(err, errFail) {
		t.Errorf("expecting %v, got %v", errFail, err)
	}
	if r.Failures == 0 || r.Failures != r.Evals {
		t.Errorf("failures: got %d, evaluations %d", r.Failures, r.Evals)
	}

	// failures only in a region of the box
	half := func(x []float64) (float64, error) {
		if x[0] > 8 {
			return 0, errFail
		}
		return quadratic([]float64{2, 2})(x)
	}
	r, err = optim.NelderMead{}.Minimize(half, box, []float64{7.5, 5})
	if err != nil {
		t.Fatalf("partial failures: %v", err)
	}
	if r.F >= optim.Penalty {
		t.Errorf("partial failures: penalty value as optimum")
	}
	if math.Abs(r.X[0]-2) > 1e-2 || math.Abs(r.X[1]-2) > 1e-2 {
		t.Errorf("partial failures: got %v, want [2 2]", r.X)
	}
}

func TestMultiStart(t *testing.T) {
	f := quadratic([]float64{4, 6})
	r1 := optim.MultiStart(optim.NelderMead{}, f, box, rand.New(rand.NewPCG(7, 7)), 3)
	r2 := optim.MultiStart(optim.NelderMead{}, f, box, rand.New(rand.NewPCG(7, 7)), 3)
	if len(r1) != 3 {
		t.Fatalf("results: got %d, want %d", len(r1), 3)
	}
	for i := range r1 {
		if r1[i].Err != nil {
			t.Errorf("run %d: %v", i, r1[i].Err)
		}
		if !reflect.DeepEqual(r1[i].Start, r2[i].Start) {
			t.Errorf("run %d: starts %v and %v with the same seed", i, r1[i].Start, r2[i].Start)
		}
		if !reflect.DeepEqual(r1[i].X, r2[i].X) {
			t.Errorf("run %d: results %v and %v with the same seed", i, r1[i].X, r2[i].X)
		}
		if !box.Contains(r1[i].Start) {
			t.Errorf("run %d: start %v outside bounds", i, r1[i].Start)
		}
	}
	if reflect.DeepEqual(r1[0].Start, r1[1].Start) {
		t.Errorf("different runs with the same start")
	}
}

// doubleWell has a local minimum near 1
// and the global minimum near -1.
func doubleWell(x []float64) (float64, error) {
	v := x[0]
	return (v*v-1)*(v*v-1) + 0.3*v, nil
}

func TestMLSL(t *testing.T) {
	b := optim.Bounds{
		Lower: []float64{-2},
		Upper: []float64{2},
	}
	local, err := optim.Single(optim.NelderMead{}, doubleWell, b, []float64{0.9})
	if err != nil {
		t.Fatalf("local search: %v", err)
	}

	ml := optim.MLSL{
		Local:   optim.NelderMead{},
		Samples: 20,
		Rounds:  3,
		Rand:    rand.New(rand.NewPCG(11, 11)),
	}
	r, err := ml.Minimize(doubleWell, b, []float64{0.9})
	if err != nil {
		t.Fatalf("global search: %v", err)
	}
	if r.F > local.F {
		t.Errorf("global search %.6f worse than local search %.6f", r.F, local.F)
	}
	if r.X[0] > 0 {
		t.Errorf("global search: got %.6f, want near -1", r.X[0])
	}
	if r.Evals <= local.Evals {
		t.Errorf("evaluations: global %d, local %d", r.Evals, local.Evals)
	}
}

// hessian is the Hessian of bowl.
var hessian = mat.NewSymDense(2, []float64{
	2, 0.5,
	0.5, 3,
})

func bowl(x []float64) (float64, error) {
	return x[0]*x[0] + 0.5*x[0]*x[1] + 1.5*x[1]*x[1], nil
}

func TestFisherInfo(t *testing.T) {
	for _, x := range [][]float64{{1, 2}, {0, 2}, {10, 10}} {
		fx, _ := bowl(x)
		fi, err := optim.FisherInfo(bowl, box, x, fx, 0)
		if err != nil {
			t.Fatalf("point %v: %v", x, err)
		}
		if !mat.EqualApprox(fi, hessian, 1e-4) {
			t.Errorf("point %v: got\n%v\nwant\n%v", x, mat.Formatted(fi), mat.Formatted(hessian))
		}
	}

	se, err := optim.StdErr(hessian)
	if err != nil {
		t.Fatalf("standard error: %v", err)
	}
	det := 2*3 - 0.5*0.5
	want := []float64{math.Sqrt(3 / det), math.Sqrt(2 / det)}
	for i, v := range se {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("standard error %d: got %.8f, want %.8f", i, v, want[i])
		}
	}

	if _, err := optim.StdErr(mat.NewSymDense(2, []float64{1, 2, 2, 1})); err == nil {
		t.Errorf("standard error: expecting error on a matrix that is not positive definite")
	}
}

func TestInterval(t *testing.T) {
	lo, hi := optim.Interval([]float64{1, 5}, []float64{0.5, 1}, 0.95)
	z := 1.959963984540054
	want := [][2]float64{{1 - z*0.5, 1 + z*0.5}, {5 - z, 5 + z}}
	for i := range lo {
		if math.Abs(lo[i]-want[i][0]) > 1e-6 || math.Abs(hi[i]-want[i][1]) > 1e-6 {
			t.Errorf("interval %d: got [%.6f, %.6f], want [%.6f, %.6f]", i, lo[i], hi[i], want[i][0], want[i][1])
		}
	}
}

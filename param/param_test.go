// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package param_test

import (
	"math"
	"testing"

	"github.com/js-arias/imclam/param"
)

func TestParse(t *testing.T) {
	p, err := param.Parse("0.1, 2,1,1.5,5")
	if err != nil {
		t.Fatalf("unable to parse parameters: %v", err)
	}
	want := param.Params{Theta2: 0.1, ThetaA: 2, M12: 1, M21: 1.5, TDiv: 5}
	if p != want {
		t.Errorf("parse: got %v, want %v", p, want)
	}
	if g := param.FromSlice(p.Slice()); g != want {
		t.Errorf("slice: got %v, want %v", g, want)
	}

	for _, s := range []string{"", "1,2,3,4", "1,2,3,4,x", "1,2,3,4,5,6"} {
		if _, err := param.Parse(s); err == nil {
			t.Errorf("parse %q: expecting error", s)
		}
	}
}

func TestBounds(t *testing.T) {
	b := param.Default
	if !b.Contains(b.Lower) || !b.Contains(b.Upper) {
		t.Errorf("bounds must contain its limits")
	}
	if b.Contains(param.Params{Theta2: 1, ThetaA: 1, M12: -1, M21: 0, TDiv: 1}) {
		t.Errorf("negative migration rate inside bounds")
	}
}

func TestUnscale(t *testing.T) {
	p := param.Params{Theta2: 1, ThetaA: 2, M12: 0.5, M21: 0.25, TDiv: 1}
	u := p.Unscale(1000, 20)
	want := param.Params{Theta2: 1000, ThetaA: 2000, M12: 500, M21: 250, TDiv: 200}
	got := u.Slice()
	for i, w := range want.Slice() {
		if math.Abs(got[i]-w) > 1e-9 {
			t.Errorf("unscaled %s: got %.6f, want %.6f", param.Names[i], got[i], w)
		}
	}
}

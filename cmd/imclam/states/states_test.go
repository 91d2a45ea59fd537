// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package states

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
)

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := statespace.Enumerate(2, 1)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	tp, err := transition.Build(s)
	if err != nil {
		t.Fatalf("template: %v", err)
	}

	sf := filepath.Join(dir, "states-2-1.tab")
	mf := filepath.Join(dir, "mats-2-1.txt")
	if err := writeStates(sf, s); err != nil {
		t.Fatalf("write states: %v", err)
	}
	if err := writeTemplate(mf, tp); err != nil {
		t.Fatalf("write template: %v", err)
	}

	p, err := openProject(filepath.Join(dir, "project.tab"))
	if err != nil {
		t.Fatalf("open project: %v", err)
	}
	p.Add(project.States, sf)
	p.Add(project.Mats, mf)

	ns, err := p.StateSpace()
	if err != nil {
		t.Fatalf("read states: %v", err)
	}
	if ns.Len() != s.Len() || ns.N1() != 2 || ns.N2() != 1 {
		t.Errorf("states: got %d states (%d, %d), want %d states (2, 1)", ns.Len(), ns.N1(), ns.N2(), s.Len())
	}
	nt, err := p.Template(ns.Len())
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !reflect.DeepEqual(nt.Records(), tp.Records()) {
		t.Errorf("template: records differ after round trip")
	}

	if err := p.Write(); err != nil {
		t.Fatalf("write project: %v", err)
	}
	if _, err := os.Stat(p.Name()); err != nil {
		t.Errorf("project file: %v", err)
	}
}

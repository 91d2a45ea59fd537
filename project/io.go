// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/imclam/afs"
	"github.com/js-arias/imclam/runstore"
	"github.com/js-arias/imclam/settings"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
	"gonum.org/v1/gonum/mat"
)

// StateSpace reads a state space file
// as defined in a project.
func (p *Project) StateSpace() (*statespace.Space, error) {
	name := p.Path(States)
	if name == "" {
		return nil, fmt.Errorf("state space not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := statespace.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return s, nil
}

// Template reads a transition template file
// as defined in a project,
// for a state space with nstates states.
func (p *Project) Template(nstates int) (*transition.Template, error) {
	name := p.Path(Mats)
	if name == "" {
		return nil, fmt.Errorf("transition template not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := transition.Read(f, nstates)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return t, nil
}

// Observed reads an observed AFS file
// as defined in a project.
func (p *Project) Observed(n1, n2 int) (*mat.Dense, error) {
	name := p.Path(Data)
	if name == "" {
		return nil, fmt.Errorf("observed AFS not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obs, err := afs.ReadObserved(f, n1, n2)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return obs, nil
}

// Settings reads the optimizer settings
// as defined in a project.
// If no settings are defined,
// it returns the default settings.
func (p *Project) Settings() (*settings.Settings, error) {
	name := p.Path(Settings)
	if name == "" {
		return settings.New(""), nil
	}
	return settings.Read(name)
}

// RunStore opens the database of optimization runs
// as defined in a project.
func (p *Project) RunStore() (*runstore.Store, error) {
	name := p.Path(Runs)
	if name == "" {
		return nil, fmt.Errorf("run database not defined in project %q", p.name)
	}
	return runstore.Open(name)
}

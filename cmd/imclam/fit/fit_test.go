// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package fit

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/js-arias/imclam/model"
	"github.com/js-arias/imclam/optim"
	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/statespace"
	"gonum.org/v1/gonum/mat"
)

func resetFlags() {
	expFlag = false
	multiFlag = false
	globalFlag = false
	fisherFlag = false
	verbose = false
	startFlag = ""
	statesFile = ""
	matsFile = ""
	dataFile = ""
	settingsFile = ""
	dbFile = ""
	muFlag = 1e-8
	genFlag = 20
	printObs = false
	denseFlag = false
	seedFlag = 0
	plotPrefix = ""
}

func TestRunMode(t *testing.T) {
	tests := map[string]struct {
		set   func()
		mode  string
		fails bool
	}{
		"default": {
			set:  func() {},
			mode: estimate,
		},
		"expected": {
			set: func() {
				expFlag = true
				startFlag = "1,1,0,0,1"
			},
			mode: expected,
		},
		"expected without start": {
			set:   func() { expFlag = true },
			fails: true,
		},
		"fisher without start": {
			set:   func() { fisherFlag = true },
			fails: true,
		},
		"multi": {
			set:  func() { multiFlag = true },
			mode: multi,
		},
		"global": {
			set:  func() { globalFlag = true },
			mode: global,
		},
		"exclusive": {
			set: func() {
				multiFlag = true
				globalFlag = true
			},
			fails: true,
		},
	}

	for name, test := range tests {
		resetFlags()
		test.set()
		mode, err := runMode()
		if test.fails {
			if err == nil {
				t.Errorf("%s: expecting error", name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if mode != test.mode {
			t.Errorf("%s: mode: got %q, want %q", name, mode, test.mode)
		}
	}
	resetFlags()
}

func TestReadProject(t *testing.T) {
	resetFlags()
	defer resetFlags()

	statesFile = "states.tab"
	dataFile = "afs.txt"
	p, err := readProject(nil)
	if err != nil {
		t.Fatalf("read project: %v", err)
	}
	if got := p.Path(project.States); got != statesFile {
		t.Errorf("states: got %q, want %q", got, statesFile)
	}
	if got := p.Path(project.Data); got != dataFile {
		t.Errorf("data: got %q, want %q", got, dataFile)
	}
	if got := p.Path(project.Mats); got != "" {
		t.Errorf("mats: got %q, want empty", got)
	}
}

func testModel(t testing.TB) (*model.Model, *mat.Dense) {
	t.Helper()

	s, err := statespace.Enumerate(2, 2)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	m, err := model.New(model.Config{Full: s})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	obs := mat.NewDense(3, 3, []float64{
		0, 40, 20,
		40, 10, 15,
		20, 15, 0,
	})
	return m, obs
}

func TestPrintExpected(t *testing.T) {
	resetFlags()
	m, obs := testModel(t)

	var buf bytes.Buffer
	p := param.Params{Theta2: 1, ThetaA: 1, TDiv: 1}
	if err := printExpected(&buf, m, p, obs); err != nil {
		t.Fatalf("print expected: %v", err)
	}
	out := buf.String()
	for _, s := range []string{"Parameters:", "log composite likelihood:", "Expected AFS:"} {
		if !strings.Contains(out, s) {
			t.Errorf("output: expecting %q, got\n%s", s, out)
		}
	}
}

func TestObjective(t *testing.T) {
	resetFlags()
	defer resetFlags()
	m, obs := testModel(t)

	var buf bytes.Buffer
	verbose = true
	f := objective(&buf, m, obs)
	if _, err := f([]float64{1, 1, 0, 0, 1}); err != nil {
		t.Fatalf("objective: %v", err)
	}
	if _, err := f([]float64{-1, 1, 0, 0, 1}); err == nil {
		t.Errorf("objective: expecting error on negative population size")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("verbose output: got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "eval 1\t") {
		t.Errorf("verbose output: got %q", lines[0])
	}
	if !strings.Contains(lines[1], "error:") {
		t.Errorf("verbose output: got %q", lines[1])
	}
}

func TestReport(t *testing.T) {
	resetFlags()
	m, obs := testModel(t)

	b := bounds()
	f := objective(&bytes.Buffer{}, m, obs)
	nm := optim.NelderMead{MaxEvals: 200}
	r, err := optim.Single(nm, f, b, []float64{1, 1, 1, 1, 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var buf bytes.Buffer
	if err := report(&buf, m, obs, r); err != nil {
		t.Fatalf("report: %v", err)
	}
	out := buf.String()
	for _, s := range []string{"Scaled estimates:", "Unscaled estimates", "Expected AFS:"} {
		if !strings.Contains(out, s) {
			t.Errorf("output: expecting %q, got\n%s", s, out)
		}
	}

	run := newRun(estimate, 7, r)
	if run.LogLike != -r.F {
		t.Errorf("run log likelihood: got %v, want %v", run.LogLike, -r.F)
	}
	if run.Estimate != param.FromSlice(r.X) {
		t.Errorf("run estimate: got %v, want %v", run.Estimate, param.FromSlice(r.X))
	}
}

// writeInput writes a state space
// and an observed AFS
// for two genes from each population.
func writeInput(t testing.TB) (states, data string) {
	t.Helper()

	dir := t.TempDir()
	s, err := statespace.Enumerate(2, 2)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	var buf bytes.Buffer
	if err := s.TSV(&buf); err != nil {
		t.Fatalf("write states: %v", err)
	}
	states = filepath.Join(dir, "states-2-2.tab")
	if err := os.WriteFile(states, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write states: %v", err)
	}

	data = filepath.Join(dir, "afs.txt")
	if err := os.WriteFile(data, []byte("0 40 20\n40 10 15\n20 15 0\n"), 0644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return states, data
}

func execute(t testing.TB, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	Command.SetStdout(&out)
	Command.SetStderr(&errOut)
	defer func() {
		Command.SetStdout(nil)
		Command.SetStderr(nil)
		resetFlags()
	}()

	err := Command.Execute(args)
	return out.String(), err
}

func TestExpectedMode(t *testing.T) {
	states, data := writeInput(t)

	out, err := execute(t, "--exp", "-x", "1,1,0,0,1", "-s", states)
	if err != nil {
		t.Fatalf("expected mode without data: unexpected error: %v", err)
	}
	if !strings.Contains(out, "Expected AFS:") {
		t.Errorf("expected mode without data: output without expected AFS:\n%s", out)
	}
	if strings.Contains(out, "log composite likelihood") {
		t.Errorf("expected mode without data: likelihood printed:\n%s", out)
	}

	out, err = execute(t, "--exp", "-x", "1,1,0,0,1", "-s", states, "-d", data)
	if err != nil {
		t.Fatalf("expected mode with data: unexpected error: %v", err)
	}
	for _, s := range []string{"log composite likelihood:", "Expected AFS:", "likelihood evaluations: 1"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected mode with data: expecting %q, got\n%s", s, out)
		}
	}

	out, err = execute(t, "--exp", "--obs", "--dense", "-x", "1,1,0,0,1", "-s", states, "-d", data)
	if err != nil {
		t.Fatalf("dense solver: unexpected error: %v", err)
	}
	for _, s := range []string{"Observed AFS (160 SNPs):", "Expected AFS:"} {
		if !strings.Contains(out, s) {
			t.Errorf("dense solver: expecting %q, got\n%s", s, out)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	states, _ := writeInput(t)
	missing := filepath.Join(t.TempDir(), "missing.tab")

	tests := map[string][]string{
		"expected without start": {"--exp", "-s", missing},
		"fisher without start":   {"--fisher", "-s", missing},
		"estimate without data":  {"-s", states},
		"exclusive modes":        {"--mo", "--global", "-s", states},
		"start outside bounds":   {"-x", "100,1,0,0,1", "-s", missing},
	}
	for name, args := range tests {
		_, err := execute(t, args...)
		if err == nil {
			t.Errorf("%s: expecting error", name)
			continue
		}
		if errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s: files read before usage check: %v", name, err)
		}
	}
}

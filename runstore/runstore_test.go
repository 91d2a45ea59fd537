// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package runstore_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/runstore"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	name := filepath.Join(t.TempDir(), "runs.db")

	s, err := runstore.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	date := time.Date(2023, 6, 12, 10, 30, 0, 0, time.UTC)
	runs := []runstore.Run{
		{
			Date:     date,
			Mode:     "estimate",
			Seed:     1 << 63,
			Start:    param.Params{Theta2: 1, ThetaA: 2, M12: 0.5, M21: 0.25, TDiv: 1},
			Estimate: param.Params{Theta2: 1.1, ThetaA: 1.9, M12: 0.4, M21: 0.3, TDiv: 1.2},
			LogLike:  -1234.5,
			Status:   "FunctionConvergence",
			Evals:    321,
		},
		{
			Date:     date.Add(time.Hour),
			Mode:     "global",
			Seed:     7,
			Start:    param.Params{Theta2: 3, ThetaA: 3, M12: 0, M21: 0, TDiv: 3},
			Estimate: param.Params{Theta2: 2.5, ThetaA: 0.5, M12: 0, M21: 1, TDiv: 0.5},
			LogLike:  -1200,
			Status:   "FunctionEvaluationLimit",
			Evals:    2000,
		},
	}
	for i, r := range runs {
		id, err := s.Add(ctx, r)
		if err != nil {
			t.Fatalf("add run %d: %v", i, err)
		}
		runs[i].ID = id
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = runstore.Open(name)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(got) != len(runs) {
		t.Fatalf("runs: got %d, want %d", len(got), len(runs))
	}
	for i, r := range got {
		if !r.Date.Equal(runs[i].Date) {
			t.Errorf("run %d: date: got %v, want %v", i, r.Date, runs[i].Date)
		}
		r.Date = runs[i].Date
		if !reflect.DeepEqual(r, runs[i]) {
			t.Errorf("run %d: got %+v, want %+v", i, r, runs[i])
		}
	}
}

func TestOpenError(t *testing.T) {
	if _, err := runstore.Open(""); err == nil {
		t.Errorf("open: expecting error on empty path")
	}
}

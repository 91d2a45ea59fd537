// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package runstore implements a database
// of optimization runs
// stored in an SQLite file.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/js-arias/imclam/param"

	_ "modernc.org/sqlite"
)

// A Run is the record of an optimization run.
type Run struct {
	ID   int64
	Date time.Time

	// Mode is the run mode
	// (e.g., "estimate", "multi", "global").
	Mode string

	// Seed is the seed of the random number generator.
	Seed uint64

	Start    param.Params
	Estimate param.Params

	// LogLike is the log composite likelihood
	// of the estimate.
	LogLike float64

	// Status is the termination status of the search.
	Status string

	// Evals is the number of likelihood evaluations.
	Evals int
}

// Store is a database of runs.
type Store struct {
	name string
	db   *sql.DB
}

// Open opens a run database
// creating it if it does not exist.
func Open(name string) (*Store, error) {
	if name == "" {
		return nil, errors.New("runstore: undefined database path")
	}
	db, err := sql.Open("sqlite", name)
	if err != nil {
		return nil, fmt.Errorf("runstore: on file %q: %v", name, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("runstore: on file %q: %v", name, err)
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("runstore: on file %q: %v", name, err)
	}
	return &Store{name: name, db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			mode TEXT NOT NULL,
			seed INTEGER NOT NULL,
			start_theta2 REAL NOT NULL,
			start_thetaa REAL NOT NULL,
			start_m12 REAL NOT NULL,
			start_m21 REAL NOT NULL,
			start_tdiv REAL NOT NULL,
			theta2 REAL NOT NULL,
			thetaa REAL NOT NULL,
			m12 REAL NOT NULL,
			m21 REAL NOT NULL,
			tdiv REAL NOT NULL,
			loglike REAL NOT NULL,
			status TEXT NOT NULL,
			evals INTEGER NOT NULL
		);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name returns the file name of the database.
func (s *Store) Name() string {
	return s.name
}

// Add adds a run to the database
// and returns its ID.
// If the run date is not defined,
// the current time is used.
func (s *Store) Add(ctx context.Context, r Run) (int64, error) {
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			date, mode, seed,
			start_theta2, start_thetaa, start_m12, start_m21, start_tdiv,
			theta2, thetaa, m12, m21, tdiv,
			loglike, status, evals
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Date.Format(time.RFC3339), r.Mode, int64(r.Seed),
		r.Start.Theta2, r.Start.ThetaA, r.Start.M12, r.Start.M21, r.Start.TDiv,
		r.Estimate.Theta2, r.Estimate.ThetaA, r.Estimate.M12, r.Estimate.M21, r.Estimate.TDiv,
		r.LogLike, r.Status, r.Evals,
	)
	if err != nil {
		return 0, fmt.Errorf("runstore: on file %q: %v", s.name, err)
	}
	return res.LastInsertId()
}

// Runs returns all the runs in the database
// in the order in which they were added.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, date, mode, seed,
			start_theta2, start_thetaa, start_m12, start_m21, start_tdiv,
			theta2, thetaa, m12, m21, tdiv,
			loglike, status, evals
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("runstore: on file %q: %v", s.name, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var date string
		var seed int64
		if err := rows.Scan(
			&r.ID, &date, &r.Mode, &seed,
			&r.Start.Theta2, &r.Start.ThetaA, &r.Start.M12, &r.Start.M21, &r.Start.TDiv,
			&r.Estimate.Theta2, &r.Estimate.ThetaA, &r.Estimate.M12, &r.Estimate.M21, &r.Estimate.TDiv,
			&r.LogLike, &r.Status, &r.Evals,
		); err != nil {
			return nil, fmt.Errorf("runstore: on file %q: %v", s.name, err)
		}
		r.Seed = uint64(seed)
		r.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("runstore: on file %q: run %d: %v", s.name, r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: on file %q: %v", s.name, err)
	}
	return runs, nil
}

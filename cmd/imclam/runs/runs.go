// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package runs implements a command to print
// the optimization runs stored in a database.
package runs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/imclam/param"
	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/runstore"
)

var Command = &command.Command{
	Usage: "runs [--db <file>] [--best] [--mode <name>] [<project-file>]",
	Short: "print stored optimization runs",
	Long: `
Command runs reads the database of optimization runs of a project and prints
the runs as a tab-delimited table in the standard output.

The argument of the command is the name of the project file. The flag --db
reads the runs from the given database file instead of the project.

The flag --mode prints only the runs of the given mode (e.g., "estimate",
"multi", "global"). The flag --best prints only the run with the highest log
composite likelihood.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var dbFile string
var modeFlag string
var bestFlag bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&dbFile, "db", "", "")
	c.Flags().StringVar(&modeFlag, "mode", "", "")
	c.Flags().BoolVar(&bestFlag, "best", false, "")
}

func run(c *command.Command, args []string) error {
	name := dbFile
	if name == "" {
		if len(args) < 1 {
			return c.UsageError("expecting project file or flag --db")
		}
		p, err := project.Read(args[0])
		if err != nil {
			return err
		}
		name = p.Path(project.Runs)
		if name == "" {
			msg := fmt.Sprintf("run database not defined in project %q", args[0])
			return c.UsageError(msg)
		}
	}

	db, err := runstore.Open(name)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(context.Background())
	if err != nil {
		return err
	}
	runs = filter(runs, modeFlag, bestFlag)
	return write(c.Stdout(), runs)
}

// filter returns the runs of a given mode.
// If best is true,
// only the run with the highest likelihood is returned.
func filter(runs []runstore.Run, mode string, best bool) []runstore.Run {
	if mode != "" {
		var rs []runstore.Run
		for _, r := range runs {
			if r.Mode == mode {
				rs = append(rs, r)
			}
		}
		runs = rs
	}
	if !best || len(runs) == 0 {
		return runs
	}

	b := runs[0]
	for _, r := range runs[1:] {
		if r.LogLike > b.LogLike {
			b = r
		}
	}
	return []runstore.Run{b}
}

func write(w io.Writer, runs []runstore.Run) error {
	fmt.Fprintf(w, "id\tdate\tmode\tseed")
	for _, n := range param.Names {
		fmt.Fprintf(w, "\t%s", n)
	}
	fmt.Fprintf(w, "\tloglike\tstatus\tevals\n")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.6f\t%s\t%d\n", r.ID, r.Date.Format(time.RFC3339), r.Mode, r.Seed, r.Estimate, r.LogLike, r.Status, r.Evals)
	}
	return nil
}

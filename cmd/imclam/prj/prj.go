// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package prj implements a command to print
// the basic information of a project.
package prj

import (
	"context"
	"fmt"
	"io"

	"github.com/js-arias/command"
	"github.com/js-arias/imclam/afs"
	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/statespace"
)

var Command = &command.Command{
	Usage: "prj <project-file>",
	Short: "print information about a project",
	Long: `
Command prj reads an im-clam project and prints the information of the
different project elements into the standard output.

The argument of the command is the name of the project file.
	`,
	Run: run,
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}

	p, err := project.Read(args[0])
	if err != nil {
		return err
	}
	w := c.Stdout()

	var s *statespace.Space
	if p.Path(project.States) != "" {
		s, err = readStates(w, p)
		if err != nil {
			return err
		}
	}
	if p.Path(project.Mats) != "" && s != nil {
		if err := readTemplate(w, p, s.Len()); err != nil {
			return err
		}
	}
	if p.Path(project.Data) != "" && s != nil {
		if err := readData(w, p, s); err != nil {
			return err
		}
	}
	if err := readSettings(w, p); err != nil {
		return err
	}
	if p.Path(project.Runs) != "" {
		if err := readRuns(w, p); err != nil {
			return err
		}
	}
	return nil
}

func readStates(w io.Writer, p *project.Project) (*statespace.Space, error) {
	s, err := p.StateSpace()
	if err != nil {
		return nil, err
	}
	red, _ := statespace.Reduce(s)

	fmt.Fprintf(w, "State space:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.States))
	fmt.Fprintf(w, "\tsample sizes: %d, %d\n", s.N1(), s.N2())
	fmt.Fprintf(w, "\tstates: %d\n", s.Len())
	fmt.Fprintf(w, "\tancestral states: %d\n", red.Len())
	fmt.Fprintf(w, "\n")
	return s, nil
}

func readTemplate(w io.Writer, p *project.Project, nstates int) error {
	t, err := p.Template(nstates)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Transition template:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.Mats))
	fmt.Fprintf(w, "\ttransitions: %d\n", t.Len())
	fmt.Fprintf(w, "\n")
	return nil
}

func readData(w io.Writer, p *project.Project, s *statespace.Space) error {
	obs, err := p.Observed(s.N1(), s.N2())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Observed AFS:\n")
	fmt.Fprintf(w, "\tfile: %s\n", p.Path(project.Data))
	fmt.Fprintf(w, "\tsites: %.0f\n", afs.Sites(obs))
	fmt.Fprintf(w, "\tpi (population 1): %.6f\n", afs.Pi(obs))
	fmt.Fprintf(w, "\n")
	return nil
}

func readSettings(w io.Writer, p *project.Project) error {
	s, err := p.Settings()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Settings:\n")
	if name := p.Path(project.Settings); name != "" {
		fmt.Fprintf(w, "\tfile: %s\n", name)
	} else {
		fmt.Fprintf(w, "\tdefault values\n")
	}
	fmt.Fprintf(w, "\tlocal search: %d evaluations, tolerance %g\n", s.Evals(), s.Tolerance())
	fmt.Fprintf(w, "\tmulti-start: %d starts\n", s.Starts())
	fmt.Fprintf(w, "\tglobal search: %d rounds of %d samples\n", s.Rounds(), s.Samples())
	fmt.Fprintf(w, "\tsolver: %s\n", s.Solver())
	fmt.Fprintf(w, "\n")
	return nil
}

func readRuns(w io.Writer, p *project.Project) error {
	db, err := p.RunStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Optimization runs:\n")
	fmt.Fprintf(w, "\tfile: %s\n", db.Name())
	fmt.Fprintf(w, "\truns: %d\n", len(runs))
	if len(runs) > 0 {
		best := runs[0]
		for _, r := range runs[1:] {
			if r.LogLike > best.LogLike {
				best = r
			}
		}
		fmt.Fprintf(w, "\tbest log composite likelihood: %.6f [run %d]\n", best.LogLike, best.ID)
	}
	fmt.Fprintf(w, "\n")
	return nil
}

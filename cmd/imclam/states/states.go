// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package states implements a command to build
// the state space and transition template files
// for a pair of sample sizes.
package states

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/js-arias/command"
	"github.com/js-arias/imclam/project"
	"github.com/js-arias/imclam/statespace"
	"github.com/js-arias/imclam/transition"
)

var Command = &command.Command{
	Usage: `states [--prefix <name>] [--project <project-file>]
	[--data <afs-file>] <n1> <n2>`,
	Short: "build state space and transition template files",
	Long: `
Command states enumerates the states of the coalescent process of two
populations with n1 and n2 sampled lineages, and writes the state space file
and the transition template file used by the command fit.

The arguments of the command are the sample sizes of the first and second
population. Both must be at least one.

By default the files are named 'states-<n1>-<n2>.tab' (the state space) and
'mats-<n1>-<n2>.txt' (the transition template). Use the flag --prefix to use
a different prefix for the file names.

If the flag --project is defined, the files will be added to the given project
file. If the project does not exist, it will be created. The flag --data adds
an observed AFS file to the project.

The number of states grows quickly with the sample sizes, so use the command
with care.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var prefix string
var projectFile string
var dataFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&prefix, "prefix", "", "")
	c.Flags().StringVar(&projectFile, "project", "", "")
	c.Flags().StringVar(&dataFile, "data", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 2 {
		return c.UsageError("expecting sample sizes")
	}
	n1, err := strconv.Atoi(args[0])
	if err != nil {
		return c.UsageError(fmt.Sprintf("invalid sample size %q: %v", args[0], err))
	}
	n2, err := strconv.Atoi(args[1])
	if err != nil {
		return c.UsageError(fmt.Sprintf("invalid sample size %q: %v", args[1], err))
	}

	s, err := statespace.Enumerate(n1, n2)
	if err != nil {
		return err
	}
	t, err := transition.Build(s)
	if err != nil {
		return err
	}

	sf := fmt.Sprintf("states-%d-%d.tab", n1, n2)
	mf := fmt.Sprintf("mats-%d-%d.txt", n1, n2)
	if prefix != "" {
		sf = prefix + "-" + sf
		mf = prefix + "-" + mf
	}
	if err := writeStates(sf, s); err != nil {
		return err
	}
	if err := writeTemplate(mf, t); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "states: %d [file %q]\n", s.Len(), sf)
	fmt.Fprintf(c.Stdout(), "transitions: %d [file %q]\n", t.Len(), mf)

	if projectFile == "" {
		return nil
	}
	p, err := openProject(projectFile)
	if err != nil {
		return err
	}
	p.Add(project.States, sf)
	p.Add(project.Mats, mf)
	if dataFile != "" {
		p.Add(project.Data, dataFile)
	}
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func openProject(name string) (*project.Project, error) {
	p, err := project.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		p := project.New()
		p.SetName(name)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	return p, nil
}

func writeStates(name string, s *statespace.Space) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := s.TSV(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}

func writeTemplate(name string, t *transition.Template) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := t.Write(f); err != nil {
		return fmt.Errorf("on file %q: %v", name, err)
	}
	return nil
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package project implements reading and writing
// of im-clam project files.
//
// An im-clam project is a tab-delimited file (TSV)
// used to store the different data files
// required by im-clam commands.
package project

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Dataset is a keyword to identify
// the type of a dataset file in a project.
type Dataset string

// Valid dataset types.
const (
	// File for the observed joint allele frequency spectrum.
	Data Dataset = "data"

	// File for the transition template
	// of the state space.
	Mats Dataset = "mats"

	// File for the database of optimization runs.
	Runs Dataset = "runs"

	// File for the optimizer settings.
	Settings Dataset = "settings"

	// File for the state space.
	States Dataset = "states"
)

// A Project represents a collection of paths
// for particular datasets.
type Project struct {
	name  string
	paths map[Dataset]string
}

// New creates a new empty project.
func New() *Project {
	return &Project{
		name:  "",
		paths: make(map[Dataset]string),
	}
}

// Datasets is the list of the datasets
// that can be defined in a project.
var Datasets = []Dataset{
	Data,
	Mats,
	Runs,
	Settings,
	States,
}

// Valid returns true if d is a known dataset.
func (d Dataset) Valid() bool {
	return slices.Contains(Datasets, d)
}

var header = []string{
	"dataset",
	"path",
}

// Read reads a project file from a TSV file.
//
// The TSV must contain the following fields:
//
//   - dataset, for the kind of file
//   - path, for the path of the file
//
// Here is an example file:
//
//	# im-clam project files
//	dataset	path
//	data	afs.txt
//	mats	mats-2-2.txt
//	states	states-2-2.tab
//
// Each dataset must be one of the known datasets
// and it can be defined only once.
// Relative paths are relative to the directory
// of the project file.
func Read(name string) (*Project, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsv := csv.NewReader(f)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("on file %q: header: %v", name, err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("on file %q: expecting field %q", name, h)
		}
	}

	p := New()
	p.name = name
	rows := make(map[Dataset]int)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on file %q: on row %d: %v", name, ln, err)
		}

		set := Dataset(strings.ToLower(strings.TrimSpace(row[fields["dataset"]])))
		if !set.Valid() {
			return nil, fmt.Errorf("on file %q: on row %d: unknown dataset %q", name, ln, set)
		}
		if prev, ok := rows[set]; ok {
			return nil, fmt.Errorf("on file %q: on row %d: dataset %q already defined on row %d", name, ln, set, prev)
		}
		path := strings.TrimSpace(row[fields["path"]])
		if path == "" {
			return nil, fmt.Errorf("on file %q: on row %d: empty path for dataset %q", name, ln, set)
		}
		rows[set] = ln
		p.paths[set] = filepath.ToSlash(path)
	}

	return p, nil
}

// Add adds a filepath of a dataset to a given project.
// It returns the previous value
// for the dataset.
//
// The path is relative to the working directory.
// If the project has a name,
// it is stored relative to the project file.
func (p *Project) Add(set Dataset, path string) string {
	prev := p.paths[set]
	if path == "" {
		delete(p.paths, set)
		return prev
	}

	p.paths[set] = filepath.ToSlash(p.rel(path))
	return prev
}

// Path returns the path of the given dataset,
// usable from the working directory.
func (p *Project) Path(set Dataset) string {
	path, ok := p.paths[set]
	if !ok {
		return ""
	}
	path = filepath.FromSlash(path)
	if p.name == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(p.name), path)
}

// rel returns a path relative to the project directory.
func (p *Project) rel(path string) string {
	if p.name == "" || filepath.IsAbs(path) {
		return path
	}
	dir, err := filepath.Abs(filepath.Dir(p.name))
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	r, err := filepath.Rel(dir, abs)
	if err != nil {
		return path
	}
	return r
}

// Sets returns the datasets defined on a project.
func (p *Project) Sets() []Dataset {
	var sets []Dataset
	for s := range p.paths {
		sets = append(sets, s)
	}
	slices.Sort(sets)
	return sets
}

// Name returns the project file name.
func (p *Project) Name() string {
	return p.name
}

// SetName sets the project file name.
// Stored paths keep pointing to the same files.
func (p *Project) SetName(name string) {
	paths := make(map[Dataset]string, len(p.paths))
	for s := range p.paths {
		paths[s] = p.Path(s)
	}
	p.name = name
	for s, path := range paths {
		p.paths[s] = filepath.ToSlash(p.rel(path))
	}
}

// Write writes a project into a file.
func (p *Project) Write() (err error) {
	f, err := os.Create(p.name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# im-clam project files\n")
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))
	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("on file %q: while writing header: %v", p.name, err)
	}

	sets := p.Sets()
	for _, s := range sets {
		row := []string{
			string(s),
			p.paths[s],
		}
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("on file %q: %v", p.name, err)
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", p.name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("on file %q: while writing data: %v", p.name, err)
	}
	return nil
}

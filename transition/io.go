// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package transition

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Read reads a transition template
// of a state space with nstates states.
//
// The file starts with a header
// "nnz:" with the number of records
// (the number can be attached to the colon)
// followed by the records,
// each one with five integers
// separated by spaces:
// the source state,
// the destination state,
// the move code,
// and the two auxiliary class indices.
// Move codes are:
//
//   - 0, coalescence in the first population
//   - 1, coalescence in the second population
//   - 2, migration from the first to the second population
//   - 3, migration from the second to the first population
//   - 4, coalescence in the ancestral population
//
// Here is an example file:
//
//	nnz: 2
//	0 1 2 2 2
//	0 2 3 1 1
func Read(r io.Reader, nstates int) (*Template, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("while reading header: %v", err)
		}
		return nil, errors.New("empty template")
	}
	h := strings.ToLower(sc.Text())
	if !strings.HasPrefix(h, "nnz:") {
		return nil, fmt.Errorf("invalid header %q, expecting %q", sc.Text(), "nnz:")
	}
	num := strings.TrimPrefix(h, "nnz:")
	if num == "" {
		if !sc.Scan() {
			return nil, errors.New("header: expecting number of records")
		}
		num = sc.Text()
	}
	nnz, err := strconv.Atoi(num)
	if err != nil {
		return nil, fmt.Errorf("header: %v", err)
	}
	if nnz < 0 {
		return nil, fmt.Errorf("header: invalid number of records %d", nnz)
	}

	t := &Template{recs: make([]Record, 0, min(nnz, 1<<16))}
	var v [5]int
	x := 0
	for ; sc.Scan(); x++ {
		n, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("record %d: %v", x/5, err)
		}
		v[x%5] = n
		if x%5 < 4 {
			continue
		}

		rec := Record{
			Source: v[0],
			Dest:   v[1],
			Move:   Move(v[2]),
			Aux1:   v[3],
			Aux2:   v[4],
		}
		id := x / 5
		if id >= nnz {
			return nil, fmt.Errorf("found more than %d records", nnz)
		}
		if rec.Source < 0 || rec.Source >= nstates {
			return nil, fmt.Errorf("record %d: source state %d out of range", id, rec.Source)
		}
		if rec.Dest < 0 || rec.Dest >= nstates {
			return nil, fmt.Errorf("record %d: destination state %d out of range", id, rec.Dest)
		}
		if !rec.Move.Valid() {
			return nil, fmt.Errorf("record %d: unknown move code %d", id, v[2])
		}
		if rec.Aux1 < 0 || rec.Aux2 < 0 {
			return nil, fmt.Errorf("record %d: invalid class index", id)
		}
		t.recs = append(t.recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if x%5 != 0 {
		return nil, fmt.Errorf("record %d: incomplete record", x/5)
	}
	if len(t.recs) != nnz {
		return nil, fmt.Errorf("found %d records, header declares %d", len(t.recs), nnz)
	}
	return t, nil
}

// Write writes a template into a writer.
func (t *Template) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "nnz: %d\n", len(t.recs))
	for _, r := range t.recs {
		fmt.Fprintf(bw, "%d %d %d %d %d\n", r.Source, r.Dest, int(r.Move), r.Aux1, r.Aux2)
	}
	return bw.Flush()
}

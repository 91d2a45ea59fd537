// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package statespace

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var header = []string{
	"state",
	"pop",
	"i",
	"j",
	"count",
}

type lineage struct {
	pop   int
	i, j  int
	count int
}

// ReadTSV reads a full state space from a TSV file.
//
// The TSV must contain the following fields:
//
//   - state, the index of the state
//   - pop, the population of the lineages (1 or 2)
//   - i, the number of descendants in the first population
//   - j, the number of descendants in the second population
//   - count, the number of lineages of the class
//     in the population
//
// Each row is a lineage class present in a state.
// State indices must start at 0 and be consecutive.
// The sample sizes are taken from state 0.
//
// Here is an example file:
//
//	# im-clam state space
//	state	pop	i	j	count
//	0	1	1	0	2
//	0	2	0	1	2
//	1	1	1	0	1
//	1	2	0	1	2
//	1	2	1	0	1
func ReadTSV(r io.Reader) (*Space, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.ToLower(h)
		fields[h] = i
	}
	for _, h := range header {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	states := make(map[int][]lineage)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on row %d: %v", ln, err)
		}

		var v [5]int
		for x, f := range header {
			n, err := strconv.Atoi(row[fields[f]])
			if err != nil {
				return nil, fmt.Errorf("on row %d: field %q: %v", ln, f, err)
			}
			v[x] = n
		}
		id := v[0]
		if id < 0 {
			return nil, fmt.Errorf("on row %d: field %q: invalid state index %d", ln, "state", id)
		}
		l := lineage{pop: v[1], i: v[2], j: v[3], count: v[4]}
		if l.pop != 1 && l.pop != 2 {
			return nil, fmt.Errorf("on row %d: field %q: invalid population %d", ln, "pop", l.pop)
		}
		if l.count < 1 {
			return nil, fmt.Errorf("on row %d: field %q: invalid count %d", ln, "count", l.count)
		}
		if l.i < 0 || l.j < 0 || l.i+l.j == 0 {
			return nil, fmt.Errorf("on row %d: invalid lineage class (%d, %d)", ln, l.i, l.j)
		}
		states[id] = append(states[id], l)
	}
	if len(states) == 0 {
		return nil, errors.New("empty state space")
	}

	var n1, n2 int
	for _, l := range states[0] {
		n1 += l.i * l.count
		n2 += l.j * l.count
	}
	if n1 < 1 || n2 < 1 {
		return nil, fmt.Errorf("state 0: invalid sample sizes (%d, %d)", n1, n2)
	}

	s := New(n1, n2, 2)
	for id := 0; id < len(states); id++ {
		ls, ok := states[id]
		if !ok {
			return nil, fmt.Errorf("state %d: undefined", id)
		}
		pops := [][]int{
			make([]int, s.Classes()),
			make([]int, s.Classes()),
		}
		for _, l := range ls {
			if l.i > n1 || l.j > n2 {
				return nil, fmt.Errorf("state %d: invalid lineage class (%d, %d)", id, l.i, l.j)
			}
			pops[l.pop-1][s.Class(l.i, l.j)] += l.count
		}
		if _, err := s.Add(pops); err != nil {
			return nil, fmt.Errorf("state %d: %v", id, err)
		}
	}
	return s, nil
}

// TSV writes a state space into a TSV file.
func (s *Space) TSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# im-clam state space\n")
	fmt.Fprintf(bw, "# sample sizes: %d, %d\n", s.n1, s.n2)
	fmt.Fprintf(bw, "# data save on: %s\n", time.Now().Format(time.RFC3339))

	tsv := csv.NewWriter(bw)
	tsv.Comma = '\t'
	tsv.UseCRLF = true

	if err := tsv.Write(header); err != nil {
		return fmt.Errorf("while writing header: %v", err)
	}
	for id, st := range s.states {
		for p, cs := range st.pops {
			for c, k := range cs {
				if k == 0 {
					continue
				}
				i, j := s.Freq(c)
				row := []string{
					strconv.Itoa(id),
					strconv.Itoa(p + 1),
					strconv.Itoa(i),
					strconv.Itoa(j),
					strconv.Itoa(k),
				}
				if err := tsv.Write(row); err != nil {
					return err
				}
			}
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while writing data: %v", err)
	}
	return nil
}

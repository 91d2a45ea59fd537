// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package statespace implements the state space
// of a continuous-time Markov chain
// of coalescence and migration of the lineages
// sampled from two populations.
//
// Each lineage belongs to a class,
// defined by the number of sampled genes
// of each population that descend from the lineage.
// A state is a configuration of the number of lineages
// of each class in each population.
// In the full state space,
// lineages are in one of two populations,
// in a reduced (ancestral) state space
// all lineages are in a single population.
package statespace

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// A State is a configuration of lineages.
// A State is immutable.
type State struct {
	pops [][]int
	key  string
	n    int
}

func newState(pops [][]int) State {
	n := 0
	for _, cs := range pops {
		for _, k := range cs {
			n += k
		}
	}
	return State{
		pops: pops,
		key:  Key(pops),
		n:    n,
	}
}

// Count returns the number of lineages of a class
// in a population.
func (s State) Count(pop, class int) int {
	return s.pops[pop][class]
}

// Counts returns the number of lineages
// of each class in a population.
// The returned slice must not be modified.
func (s State) Counts(pop int) []int {
	return s.pops[pop]
}

// Key returns a string that identifies the state.
func (s State) Key() string {
	return s.key
}

// Lineages returns the total number of lineages
// in the state.
func (s State) Lineages() int {
	return s.n
}

// PopLineages returns the number of lineages
// in a population.
func (s State) PopLineages(pop int) int {
	n := 0
	for _, k := range s.pops[pop] {
		n += k
	}
	return n
}

// Pops returns the number of populations of the state.
func (s State) Pops() int {
	return len(s.pops)
}

// Coalesce returns the lineage counts
// after a lineage of class a
// and a lineage of class b
// in population pop
// merge into a single lineage.
// It returns nil if there are not enough lineages
// for the event.
func (s State) Coalesce(pop, a, b int) [][]int {
	cs := s.pops[pop]
	if a == b && cs[a] < 2 {
		return nil
	}
	if cs[a] < 1 || cs[b] < 1 {
		return nil
	}
	if a+b >= len(cs) {
		return nil
	}
	pops := s.clone()
	pops[pop][a]--
	pops[pop][b]--
	pops[pop][a+b]++
	return pops
}

// Migrate returns the lineage counts
// after a lineage of the given class
// moves from a population to the other one.
// It returns nil if the event is not possible.
func (s State) Migrate(from, class int) [][]int {
	if len(s.pops) != 2 {
		return nil
	}
	if s.pops[from][class] < 1 {
		return nil
	}
	pops := s.clone()
	pops[from][class]--
	pops[1-from][class]++
	return pops
}

func (s State) clone() [][]int {
	pops := make([][]int, len(s.pops))
	for i, cs := range s.pops {
		pops[i] = slices.Clone(cs)
	}
	return pops
}

// merge returns the state
// with all lineages in a single population.
func (s State) merge() State {
	cs := make([]int, len(s.pops[0]))
	for _, p := range s.pops {
		for c, k := range p {
			cs[c] += k
		}
	}
	return newState([][]int{cs})
}

// Key returns the identifier of a state
// with the given lineage counts.
func Key(pops [][]int) string {
	var b strings.Builder
	for p, cs := range pops {
		if p > 0 {
			b.WriteByte('|')
		}
		first := true
		for c, k := range cs {
			if k == 0 {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(strconv.Itoa(c))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(k))
		}
	}
	return b.String()
}

// Space is an ordered collection of states.
type Space struct {
	n1, n2 int
	pops   int
	states []State
	index  map[string]int
}

// New creates a new empty state space
// for the given sample sizes
// and number of populations.
func New(n1, n2, pops int) *Space {
	return &Space{
		n1:    n1,
		n2:    n2,
		pops:  pops,
		index: make(map[string]int),
	}
}

// Add adds a new state to the state space
// and returns its index.
func (s *Space) Add(pops [][]int) (int, error) {
	if len(pops) != s.pops {
		return -1, fmt.Errorf("expecting %d populations, found %d", s.pops, len(pops))
	}
	var si, sj int
	for _, cs := range pops {
		if len(cs) != s.Classes() {
			return -1, fmt.Errorf("expecting %d classes, found %d", s.Classes(), len(cs))
		}
		if cs[0] != 0 {
			return -1, fmt.Errorf("lineages without descendants")
		}
		for c, k := range cs {
			if k < 0 {
				return -1, fmt.Errorf("negative number of lineages")
			}
			i, j := s.Freq(c)
			si += i * k
			sj += j * k
		}
	}
	if si != s.n1 || sj != s.n2 {
		return -1, fmt.Errorf("descendants add up to (%d, %d), want (%d, %d)", si, sj, s.n1, s.n2)
	}

	st := newState(pops)
	if _, ok := s.index[st.key]; ok {
		return -1, fmt.Errorf("repeated state %q", st.key)
	}
	return s.insert(st), nil
}

func (s *Space) insert(st State) int {
	id := len(s.states)
	s.states = append(s.states, st)
	s.index[st.key] = id
	return id
}

// Class returns the class index
// of a lineage with i descendants in the first population
// and j descendants in the second population.
func (s *Space) Class(i, j int) int {
	return i*(s.n2+1) + j
}

// Classes returns the number of lineage classes
// (including the empty class).
func (s *Space) Classes() int {
	return (s.n1 + 1) * (s.n2 + 1)
}

// Freq returns the number of descendants
// in each population
// of a lineage class.
func (s *Space) Freq(class int) (i, j int) {
	return class / (s.n2 + 1), class % (s.n2 + 1)
}

// Index returns the index of a state
// with the given key.
func (s *Space) Index(key string) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}

// Initial returns the index of the sampling state:
// all lineages are singletons
// in its own population.
func (s *Space) Initial() (int, bool) {
	return s.Index(Key(s.initial()))
}

func (s *Space) initial() [][]int {
	pops := make([][]int, s.pops)
	for i := range pops {
		pops[i] = make([]int, s.Classes())
	}
	pops[0][s.Class(1, 0)] = s.n1
	if s.pops == 1 {
		pops[0][s.Class(0, 1)] = s.n2
		return pops
	}
	pops[1][s.Class(0, 1)] = s.n2
	return pops
}

// Len returns the number of states.
func (s *Space) Len() int {
	return len(s.states)
}

// N1 returns the sample size of the first population.
func (s *Space) N1() int {
	return s.n1
}

// N2 returns the sample size of the second population.
func (s *Space) N2() int {
	return s.n2
}

// Pops returns the number of populations
// of the states.
func (s *Space) Pops() int {
	return s.pops
}

// State returns the state with the given index.
func (s *Space) State(i int) State {
	return s.states[i]
}

// Enumerate returns the full state space
// of two populations
// with sample sizes n1 and n2,
// i.e., all the states that can be reached
// from the sampling state
// by coalescence and migration events.
//
// States are sorted by decreasing number of lineages.
func Enumerate(n1, n2 int) (*Space, error) {
	if n1 < 1 || n2 < 1 {
		return nil, fmt.Errorf("invalid sample sizes (%d, %d)", n1, n2)
	}
	s := New(n1, n2, 2)

	init := newState(s.initial())
	seen := map[string]State{init.key: init}
	queue := []State{init}
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		events(st, func(pops [][]int) {
			nx := newState(pops)
			if _, ok := seen[nx.key]; ok {
				return
			}
			seen[nx.key] = nx
			queue = append(queue, nx)
		})
	}

	states := make([]State, 0, len(seen))
	for _, st := range seen {
		states = append(states, st)
	}
	sortStates(states)
	for _, st := range states {
		s.insert(st)
	}
	return s, nil
}

// events calls visit
// with the lineage counts of each state
// reachable with a single event.
func events(st State, visit func([][]int)) {
	for p, cs := range st.pops {
		for a, k := range cs {
			if k == 0 {
				continue
			}
			if nx := st.Migrate(p, a); nx != nil {
				visit(nx)
			}
			for b := a; b < len(cs); b++ {
				if nx := st.Coalesce(p, a, b); nx != nil {
					visit(nx)
				}
			}
		}
	}
}

func sortStates(states []State) {
	slices.SortFunc(states, func(a, b State) int {
		if a.n != b.n {
			return b.n - a.n
		}
		return strings.Compare(a.key, b.key)
	})
}

// Reduction maps the states of a full state space
// into the states of a reduced state space.
type Reduction struct {
	// Forward maps a full state index
	// to its reduced state index.
	Forward []int

	// Reverse maps a reduced state index
	// to the smallest full state index
	// that maps into it.
	Reverse []int
}

// Reduce returns the ancestral state space
// of a full state space,
// i.e., the state space in which the lineages
// of both populations are merged into a single population,
// and the mapping between both state spaces.
//
// States of the reduced space are sorted
// by decreasing number of lineages.
func Reduce(full *Space) (*Space, *Reduction) {
	merged := make([]State, full.Len())
	uniq := make(map[string]State)
	for i, st := range full.states {
		m := st.merge()
		merged[i] = m
		uniq[m.key] = m
	}

	states := make([]State, 0, len(uniq))
	for _, st := range uniq {
		states = append(states, st)
	}
	sortStates(states)
	red := New(full.n1, full.n2, 1)
	for _, st := range states {
		red.insert(st)
	}

	rd := &Reduction{
		Forward: make([]int, full.Len()),
		Reverse: make([]int, red.Len()),
	}
	for i := range rd.Reverse {
		rd.Reverse[i] = -1
	}
	for i, m := range merged {
		r := red.index[m.key]
		rd.Forward[i] = r
		if rd.Reverse[r] < 0 {
			rd.Reverse[r] = i
		}
	}
	return red, rd
}

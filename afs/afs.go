// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package afs implements joint allele frequency spectra
// (AFS) of two populations.
//
// An AFS is a matrix with n1+1 rows and n2+1 columns,
// in which the cell i, j
// is the number (or the proportion) of polymorphic sites
// with i derived alleles in the sample of the first population
// and j derived alleles in the sample of the second population.
package afs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/js-arias/imclam/statespace"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Project returns the expected AFS
// from the expected occupancy of the states
// of a full state space
// and a reduced state space.
//
// The expected value of each cell
// is the expected total length of the branches
// ancestral to exactly i genes of the first population
// and j genes of the second population.
// Monomorphic cells (0, 0) and (n1, n2) are set to zero,
// and the matrix is normalized to sum 1.
// The reduced state space can be nil.
func Project(full *statespace.Space, fullOcc []float64, red *statespace.Space, redOcc []float64) *mat.Dense {
	data := make([]float64, full.Classes())
	addLength(data, full, fullOcc)
	if red != nil {
		addLength(data, red, redOcc)
	}
	data[0] = 0
	data[len(data)-1] = 0

	if sum := floats.Sum(data); sum > 0 {
		floats.Scale(1/sum, data)
	}

	// classes are in row-major order
	return mat.NewDense(full.N1()+1, full.N2()+1, data)
}

func addLength(data []float64, s *statespace.Space, occ []float64) {
	for i, o := range occ {
		if o == 0 {
			continue
		}
		st := s.State(i)
		for p := 0; p < st.Pops(); p++ {
			for c, k := range st.Counts(p) {
				if k == 0 {
					continue
				}
				data[c] += o * float64(k)
			}
		}
	}
}

// ReadObserved reads an observed AFS
// for sample sizes n1 and n2.
// The AFS is a matrix of non-negative numbers
// separated by spaces,
// in row-major order.
//
// Here is an example file for n1 = 2 and n2 = 2:
//
//	0 120 15
//	98 40 12
//	11 9 0
func ReadObserved(r io.Reader, n1, n2 int) (*mat.Dense, error) {
	if n1 < 1 || n2 < 1 {
		return nil, fmt.Errorf("invalid sample sizes (%d, %d)", n1, n2)
	}
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	size := (n1 + 1) * (n2 + 1)
	data := make([]float64, 0, size)
	for sc.Scan() {
		if len(data) == size {
			return nil, fmt.Errorf("more than %d values", size)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %v", len(data), err)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %d: invalid count %v", len(data), v)
		}
		data = append(data, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("found %d values, expecting %d", len(data), size)
	}
	if floats.Sum(data) == 0 {
		return nil, errors.New("empty spectrum")
	}
	return mat.NewDense(n1+1, n2+1, data), nil
}

// Sites returns the number of sites
// of an observed AFS.
func Sites(obs *mat.Dense) float64 {
	return mat.Sum(obs)
}

// Pi returns the heterozygosity estimate
// of the first population,
// from an observed AFS.
func Pi(obs *mat.Dense) float64 {
	r, c := obs.Dims()
	n1 := float64(r - 1)
	if n1 < 2 {
		return 0
	}

	var pi float64
	for i := 1; i < r-1; i++ {
		p := float64(i) / n1
		for j := 0; j < c; j++ {
			pi += 2 * p * (1 - p) * obs.At(i, j)
		}
	}
	return pi * n1 / (n1 - 1) / Sites(obs)
}

// N0 returns the effective population size
// of the first population
// for an observed AFS
// and a mutation rate.
func N0(obs *mat.Dense, mu float64) float64 {
	return Pi(obs) / mu
}

// Write writes an AFS matrix
// in a human readable form.
func Write(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				fmt.Fprintf(bw, "\t")
			}
			fmt.Fprintf(bw, "%.6f", m.At(i, j))
		}
		fmt.Fprintf(bw, "\n")
	}
	return bw.Flush()
}

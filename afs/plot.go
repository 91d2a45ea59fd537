// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package afs

import (
	"image/color"

	"github.com/js-arias/blind"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// paletteSize is the number of colors
// used in a heat map.
const paletteSize = 64

// A gradient is a color palette
// for a heat map.
type gradient struct{}

// Colors implements the palette.Palette interface.
func (gradient) Colors() []color.Color {
	cs := make([]color.Color, paletteSize)
	for i := range cs {
		cs[i] = blind.Sequential(blind.Iridescent, float64(i)/float64(paletteSize-1))
	}
	return cs
}

// A grid is an AFS matrix
// with the first population in the Y axis
// and the second population in the X axis.
type grid struct {
	m mat.Matrix
}

// Dims implements the plotter.GridXYZ interface.
func (g grid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

// Z implements the plotter.GridXYZ interface.
func (g grid) Z(c, r int) float64 {
	return g.m.At(r, c)
}

// X implements the plotter.GridXYZ interface.
func (g grid) X(c int) float64 {
	return float64(c)
}

// Y implements the plotter.GridXYZ interface.
func (g grid) Y(r int) float64 {
	return float64(r)
}

// Plot saves an AFS matrix as a heat map
// into an image file.
// The file format is defined by the file extension.
func Plot(name, title string, m mat.Matrix) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "derived alleles (population 2)"
	p.Y.Label.Text = "derived alleles (population 1)"

	h := plotter.NewHeatMap(grid{m: m}, gradient{})
	p.Add(h)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, name); err != nil {
		return err
	}
	return nil
}

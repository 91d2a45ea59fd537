// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// IMClam is a tool for the estimation
// of isolation with migration models
// from the joint allele frequency spectrum
// of two populations
// using composite likelihood.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/imclam/cmd/imclam/fit"
	"github.com/js-arias/imclam/cmd/imclam/prj"
	"github.com/js-arias/imclam/cmd/imclam/runs"
	"github.com/js-arias/imclam/cmd/imclam/states"
)

var app = &command.Command{
	Usage: "imclam <command> [<argument>...]",
	Short: "a tool for composite likelihood estimation of isolation with migration models",
}

func init() {
	app.Add(fit.Command)
	app.Add(prj.Command)
	app.Add(runs.Command)
	app.Add(states.Command)
}

func main() {
	app.Main()
}

// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(afsFilesGuide)
	app.Add(projectsGuide)
	app.Add(settingsGuide)
	app.Add(stateFilesGuide)
	app.Add(templateFilesGuide)
}

var projectsGuide = &command.Command{
	Usage: "projects",
	Short: "about project files",
	Long: `
IMClam requires several files to estimate the parameters of an isolation with
migration model. To reduce the burden of keeping track of many files, a single
project file is used to hold the reference of all files required in the
analysis.

A project file is a tab-delimited file with the following fields:

	- dataset  for the kind of file
	- path     for the path of the file

Here is an example file:

	# im-clam project files
	dataset	path
	data	afs.txt
	mats	mats-4-4.txt
	runs	runs.db
	settings	settings.tab
	states	states-4-4.tab

The valid file types are:

- Observed AFS. Defined by the dataset keyword "data". See
  'imclam help afs-files'.
- Transition template. Defined by the dataset keyword "mats". See
  'imclam help template-files'. The recommended way to add a template file is
  by using the command 'imclam states'.
- Run database. Defined by the dataset keyword "runs". An SQLite database in
  which the command 'imclam fit' stores the result of each search.
- Optimizer settings. Defined by the dataset keyword "settings". See
  'imclam help settings'.
- State space. Defined by the dataset keyword "states". See
  'imclam help state-files'. The recommended way to add a state space file
  is by using the command 'imclam states'.
	`,
}

var afsFilesGuide = &command.Command{
	Usage: "afs-files",
	Short: "about observed AFS files",
	Long: `
The observed joint allele frequency spectrum (AFS) of two populations is a
matrix of counts. The cell at row i and column j is the number of sites with i
derived alleles in the sample of the first population, and j derived alleles
in the sample of the second population. If the sample sizes are n1 and n2,
the matrix has n1+1 rows and n2+1 columns.

An AFS file is a plain text file with the values of the matrix separated by
spaces or new lines, in row order. The first and last cells (monomorphic
sites) are ignored in the likelihood, but are used as part of the total
number of sites.

Here is an example file for n1 = 2 and n2 = 2:

	0 40 20
	40 10 15
	20 15 0
	`,
}

var settingsGuide = &command.Command{
	Usage: "settings",
	Short: "about the optimizer settings file",
	Long: `
The optimizer settings file is a tab-delimited file with the following fields:

	- parameter  the name of the parameter
	- value      the value of the parameter

The valid parameters are:

	evals       maximum number of likelihood evaluations of a local search
	            (default 2000).
	iterations  number of iterations without improvement to stop a local
	            search (default 100).
	rounds      number of sampling rounds of the global search (default 4).
	samples     number of points sampled at each round of the global search
	            (default 50).
	solver      the algorithm for the matrix exponential, either
	            "uniformization" (default) or "dense".
	starts      number of additional searches in multi-start mode
	            (default 3).
	step        relative step of the finite differences used for the Fisher
	            information (default 0.001).
	tolerance   tolerance of a local search (default 0.000001).

Here is an example file:

	# im-clam optimizer settings
	parameter	value
	evals	2000
	tolerance	0.000001
	starts	3
	solver	uniformization

Parameters not defined in the file take their default values.
	`,
}

var stateFilesGuide = &command.Command{
	Usage: "state-files",
	Short: "about state space files",
	Long: `
A state space file contains the states of the coalescent process of the two
sampled populations before their divergence. Each lineage is classified by
the number of sampled descendants it has in the first (i) and the second (j)
population.

A state space file is a tab-delimited file with the following fields:

	- state  the index of the state
	- pop    the population in which the lineages are (1 or 2)
	- i      descendants of the lineage in the first population
	- j      descendants of the lineage in the second population
	- count  the number of lineages of that class in the population

Each row is a class of lineages present in a state. State indices start at 0
and are consecutive, and state 0 must be the sampling state.

Here is an example file:

	# im-clam state space
	state	pop	i	j	count
	0	1	1	0	2
	0	2	0	1	2
	1	1	1	0	1
	1	2	0	1	2
	1	2	1	0	1

The recommended way to build a state space file is by using the command
'imclam states'.
	`,
}

var templateFilesGuide = &command.Command{
	Usage: "template-files",
	Short: "about transition template files",
	Long: `
A transition template file contains the possible transitions between the
states of a state space. The file starts with the number of transitions,
followed by the transitions. Each transition is defined by five integers
separated by spaces: the source state, the destination state, the move code,
and the indices of the two lineage classes involved in the move. The index
of the class of lineages with i descendants in the first population and j
descendants in the second population is i*(n2+1)+j.

The move codes are:

	0  coalescence in the first population
	1  coalescence in the second population
	2  migration from the first to the second population
	3  migration from the second to the first population
	4  coalescence in the ancestral population

Here is an example file:

	nnz: 2
	0 1 2 2 2
	0 2 3 1 1

The recommended way to build a template file is by using the command
'imclam states'.
	`,
}

// Graphol - project index engine for Graphol ontology diagrams.
//
// Graphol loads diagram documents into a multi-level in-memory index,
// enabling fast lookups, predicate search, and live reloading.
package main

import (
	"fmt"
	"os"

	"github.com/obdakit/graphol-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

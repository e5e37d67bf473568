// The main package for the plancrawl executable.
package main

import (
	"github.com/civicgrid/planportal-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

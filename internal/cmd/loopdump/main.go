// loopdump: a tool for displaying the loops of Go programs and how
// loopdep analyzes them.
package main

import (
	"flag"
	"os"

	"github.com/Prince781/loopdep/depcheck"
	"github.com/Prince781/loopdep/internal/passes/buildloops"

	"golang.org/x/tools/go/analysis/singlechecker"
)

func init() {
	flag.BoolFunc("forest", "Print the loop forest of every function", func(string) error {
		buildloops.Debug.Print = os.Stderr
		return nil
	})
}

func main() {
	// -trace=false still turns the trace off.
	depcheck.Analyzer.Flags.Set("trace", "true")
	singlechecker.Main(depcheck.Analyzer)
}

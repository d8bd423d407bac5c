// Package buildloops defines an Analyzer that finds the loops of every
// source function of a package. It does not report any diagnostics
// itself but may be used as an input to other analyzers.
package buildloops

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/Prince781/loopdep/go/loops"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

var Analyzer = &analysis.Analyzer{
	Name:       "buildloops",
	Doc:        "find the natural loops of SSA functions for later passes",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf(new(Loops)),
}

// Loops holds the loop forests of the source functions of the current
// package, in the order of buildssa's SrcFuncs. Functions without loops
// are left out.
type Loops struct {
	Funcs []*loops.Info
}

// Debug, if Print is set, makes the analyzer print the loop forest of
// every function it finds loops in.
var Debug struct {
	Print io.Writer
}

func run(pass *analysis.Pass) (interface{}, error) {
	ssainfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	res := &Loops{}
	for _, fn := range ssainfo.SrcFuncs {
		if info := loops.Find(fn); len(info.Loops) > 0 {
			res.Funcs = append(res.Funcs, info)
			if Debug.Print != nil {
				printForest(Debug.Print, info)
			}
		}
	}
	return res, nil
}

func printForest(w io.Writer, info *loops.Info) {
	fmt.Fprintf(w, "%s:\n", info.Function)
	for _, l := range info.All() {
		fmt.Fprintf(w, "%s%s (depth %d, %d blocks)\n", strings.Repeat("  ", l.Depth), l, l.Depth, l.Blocks.Len())
	}
}

package depcheck

import (
	"os"
	"reflect"

	"github.com/Prince781/loopdep/ilp"
	"github.com/Prince781/loopdep/internal/passes/buildloops"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "loopdep",
	Doc: `report loop-carried conflicts between memory accesses

For each loop with an induction variable, loads and stores of the same
base are paired when at least one of them is a store. A pair is reported
if its addresses may be equal in some iterations of the loop.`,
	Run:        run,
	Requires:   []*analysis.Analyzer{buildloops.Analyzer},
	ResultType: reflect.TypeOf(new(Result)),
}

// flags
var (
	trace  bool
	wide   bool
	budget int
)

func init() {
	Analyzer.Flags.BoolVar(&trace, "trace", false, "print the analysis of every loop to stderr")
	Analyzer.Flags.BoolVar(&wide, "wide", false, "follow every operand of an access, not only its address")
	Analyzer.Flags.IntVar(&budget, "budget", ilp.DefaultBudget, "search nodes per access pair")
}

// Result holds the results for all functions with loops, in source
// order.
type Result struct {
	Funcs []*FuncResult
}

func run(pass *analysis.Pass) (interface{}, error) {
	opts := &Options{WideOperands: wide, SolveBudget: budget}
	if trace {
		opts.Trace = os.Stderr
	}
	res := &Result{}
	for _, info := range pass.ResultOf[buildloops.Analyzer].(*buildloops.Loops).Funcs {
		fr := AnalyzeLoops(info, opts)
		res.Funcs = append(res.Funcs, fr)
		for _, lr := range fr.Loops {
			for _, p := range lr.Pairs {
				if p.Result.Status == ilp.Infeasible {
					continue
				}
				pass.Reportf(p.A.Pos(), "%s and %s of %s may access the same address", p.A.Kind(), p.B.Kind(), baseName(p.Base))
			}
		}
	}
	return res, nil
}

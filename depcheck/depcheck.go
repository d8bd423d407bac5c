// Package depcheck decides whether memory accesses inside loops can
// touch the same address.
//
// For every loop of a function it recognizes the loop's induction
// variable, describes each load and store by the affine functions of
// induction variables that index it, and pairs accesses of the same base
// when at least one of them is a store. Each pair yields equality
// constraints over per-side copies of the induction variables, bounded
// by the loops' iteration ranges. If the constraints have no integer
// solution, the two accesses are independent.
//
// Accesses whose indices are not affine, and loops without an induction
// variable, are left out. Leaving something out never makes two
// accesses look independent; it only means nothing is said about them.
package depcheck

import (
	"fmt"
	"go/token"
	"go/types"
	"io"
	"strings"

	"github.com/Prince781/loopdep/go/loops"
	"github.com/Prince781/loopdep/go/scev"
	"github.com/Prince781/loopdep/ilp"
	"github.com/Prince781/loopdep/internal/typeutil"

	"golang.org/x/tools/go/ssa"
)

// DefaultObjective labels the objective of emitted models.
const DefaultObjective = "obj"

type Options struct {
	// Trace, if not nil, receives a description of the analysis: the
	// induction variables, the symbolic form of every value and the
	// equations of every access, loop by loop.
	Trace io.Writer
	// WideOperands makes accesses depend on address computations
	// reachable through any of their operands, not only through the
	// address.
	WideOperands bool
	// SolveBudget limits the search for a solution of each pair's
	// model. Zero means ilp.DefaultBudget.
	SolveBudget int
	// Objective labels the objective of emitted models. Empty means
	// DefaultObjective.
	Objective string
}

func (opts *Options) objective() string {
	if opts.Objective == "" {
		return DefaultObjective
	}
	return opts.Objective
}

// A FuncResult holds the results for the loops of one function, in
// pre-order.
type FuncResult struct {
	Function *ssa.Function
	Loops    []*LoopResult
}

type LoopResult struct {
	Loop *loops.Loop
	// IV is nil if the loop has no induction variable. Such loops have
	// no accesses, pairs or model.
	IV       *InductionVariable
	Accesses []*Access
	Dropped  []DroppedAccess
	Groups   []*Group
	Pairs    []*Pair
	// Model constrains all pairs of the loop at once. It is nil if no
	// induction variable had to be instanced.
	Model *ilp.Model
	// Errors holds groups that could not be paired.
	Errors []error
}

// Models returns the models of all loops of fr that have one.
func (fr *FuncResult) Models() []*LoopResult {
	var out []*LoopResult
	for _, lr := range fr.Loops {
		if lr.Model != nil {
			out = append(out, lr)
		}
	}
	return out
}

type checker struct {
	fn    *ssa.Function
	opts  *Options
	c     *scev.Context
	ivs   *IVMap
	arena *arena
	// loads maps the invariant addresses loaded in the current loop to
	// the first load of each.
	loads map[addrKey]ssa.Value
}

// Analyze checks the loops of fn.
func Analyze(fn *ssa.Function, opts *Options) *FuncResult {
	return AnalyzeLoops(loops.Find(fn), opts)
}

// AnalyzeLoops is like Analyze, for a function whose loops have
// already been found.
func AnalyzeLoops(info *loops.Info, opts *Options) *FuncResult {
	if opts == nil {
		opts = &Options{}
	}
	c := scev.New(info)
	a := &checker{
		fn:    info.Function,
		opts:  opts,
		c:     c,
		ivs:   RecognizeAll(c),
		arena: newArena(info.Function),
	}
	res := &FuncResult{Function: info.Function}
	for _, l := range info.All() {
		res.Loops = append(res.Loops, a.loop(l))
	}
	return res
}

func (a *checker) tracef(l *loops.Loop, format string, args ...interface{}) {
	if a.opts.Trace == nil {
		return
	}
	fmt.Fprint(a.opts.Trace, strings.Repeat("  ", l.Depth-1))
	fmt.Fprintf(a.opts.Trace, format, args...)
	fmt.Fprintln(a.opts.Trace)
}

func (a *checker) loop(l *loops.Loop) *LoopResult {
	res := &LoopResult{Loop: l, IV: a.ivs.ForLoop(l)}
	a.tracef(l, "loop %s in %s (depth %d)", l, a.fn, l.Depth)
	if res.IV == nil {
		a.tracef(l, "  no induction variable")
		return res
	}
	a.tracef(l, "  induction variable %s", res.IV)
	a.loads = map[addrKey]ssa.Value{}
	if n, _, ok := a.c.BackedgeTakenCount(l); ok {
		a.tracef(l, "  backedge taken %d times", n)
	}

	for _, b := range a.c.Info.Direct(l) {
		for _, instr := range b.Instrs {
			if a.opts.Trace != nil {
				if v, ok := instr.(ssa.Value); ok && isIntegerValue(v) {
					a.tracef(l, "  %s = %s: %s", v.Name(), instr, a.c.SCEV(v))
				}
			}
			if !isAccess(instr) {
				continue
			}
			acc, err := a.access(l, instr)
			if err != nil {
				a.tracef(l, "  dropped %s: %s", instr, err)
				res.Dropped = append(res.Dropped, DroppedAccess{Instr: instr, Err: err})
				continue
			}
			a.tracef(l, "  %s: base %s, equations %s", acc, baseName(acc.Base), acc.Equations)
			res.Accesses = append(res.Accesses, acc)
		}
	}

	mb := newModelBuilder(a.c)
	res.Groups = groupByBase(res.Accesses)
	for _, g := range res.Groups {
		pairs, err := g.pairs()
		if err != nil {
			a.tracef(l, "  group %s: %s", baseName(g.Base), err)
			res.Errors = append(res.Errors, err)
			continue
		}
		for _, p := range pairs {
			mb.addPair(p)

			pmb := newModelBuilder(a.c)
			pmb.addPair(p)
			p.Model = pmb.pairModel(a.opts.objective())
			p.Result = ilp.Solve(p.Model, a.opts.SolveBudget)
			a.tracef(l, "  %s and %s of %s: %s", p.A.Kind(), p.B.Kind(), baseName(p.Base), p.Result)
			res.Pairs = append(res.Pairs, p)
		}
	}
	res.Model = mb.model(a.opts.objective())
	return res
}

// access describes a load or store directly inside l.
func (a *checker) access(l *loops.Loop, instr ssa.Instruction) (*Access, error) {
	acc := &Access{Instr: instr, Steps: a.arena.collect(instr, a.opts.WideOperands)}
	for _, step := range acc.Steps {
		if base := stepBase(step); !isAddressStep(base) {
			acc.Base = a.c.SCEV(a.base(l, base))
			break
		}
	}
	for _, step := range acc.Steps {
		offset := a.c.AtScope(stepIndex(a.c, step), l)
		eq, err := decompose(a.c, offset, a.ivs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step, err)
		}
		acc.Equations = append(acc.Equations, eq)
	}
	return acc, nil
}

// base returns the value that accesses offsetting from v are grouped
// by. Loads of an address that is the same in every iteration of l, and
// that l never stores to, all stand for the first such load.
func (a *checker) base(l *loops.Loop, v ssa.Value) ssa.Value {
	load, ok := v.(*ssa.UnOp)
	if !ok || load.Op != token.MUL {
		return v
	}
	k, ok := invariantAddr(l, load.X)
	if !ok || a.storesTo(l, k) {
		return v
	}
	if first, ok := a.loads[k]; ok {
		return first
	}
	a.loads[k] = v
	return v
}

// storesTo reports whether any block of l, including those of nested
// loops, stores to the address k.
func (a *checker) storesTo(l *loops.Loop, k addrKey) bool {
	for _, b := range a.fn.Blocks {
		if !l.Contains(b) {
			continue
		}
		for _, instr := range b.Instrs {
			store, ok := instr.(*ssa.Store)
			if !ok {
				continue
			}
			if sk, ok := invariantAddr(l, store.Addr); ok && sk == k {
				return true
			}
		}
	}
	return false
}

func isIntegerValue(v ssa.Value) bool {
	basic, ok := typeutil.CoreType(v.Type()).(*types.Basic)
	return ok && basic.Info()&types.IsInteger != 0
}

func baseName(base scev.Expr) string {
	if base == nil {
		return "memory"
	}
	return base.String()
}

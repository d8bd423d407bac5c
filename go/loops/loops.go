// Package loops computes the natural loop nesting forest of a function
// in SSA form.
//
// A natural loop is identified by a back edge b → h, where the header h
// dominates b. All back edges that share a header form a single loop.
// Loops are nested by containment of their bodies.
package loops

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"sort"

	"github.com/Prince781/loopdep/internal/typeutil"

	"golang.org/x/tools/container/intsets"
	"golang.org/x/tools/go/ssa"
)

// A Loop is a natural loop.
type Loop struct {
	// Index numbers loops of a function in pre-order, starting at 0.
	Index int
	// Depth is 1 for top-level loops.
	Depth  int
	Header *ssa.BasicBlock
	// Latches are the sources of the back edges, ordered by block index.
	Latches []*ssa.BasicBlock
	// Blocks holds the indices of all blocks in the loop body, including
	// the blocks of nested loops.
	Blocks intsets.Sparse

	// Parent is nil for top-level loops. It is a structural link only;
	// the Info owns all loops.
	Parent   *Loop
	Children []*Loop
}

func (l *Loop) String() string {
	return fmt.Sprintf("%s.%d", l.Header.Comment, l.Header.Index)
}

// Contains reports whether b is part of l's body.
func (l *Loop) Contains(b *ssa.BasicBlock) bool {
	return b != nil && l.Blocks.Has(b.Index)
}

// ContainsLoop reports whether o is l or nested inside l.
func (l *Loop) ContainsLoop(o *Loop) bool {
	for ; o != nil; o = o.Parent {
		if o == l {
			return true
		}
	}
	return false
}

// ContainsValue reports whether v is defined by an instruction inside l.
// Constants, parameters, globals and functions are never contained.
func (l *Loop) ContainsValue(v ssa.Value) bool {
	instr, ok := v.(ssa.Instruction)
	if !ok {
		return false
	}
	return l.Contains(instr.Block())
}

// Latch returns the loop's only back edge source, or nil if there is
// more than one.
func (l *Loop) Latch() *ssa.BasicBlock {
	if len(l.Latches) != 1 {
		return nil
	}
	return l.Latches[0]
}

// EntryPred returns the only predecessor of the header that lies
// outside of the loop, or nil if there is none or more than one.
func (l *Loop) EntryPred() *ssa.BasicBlock {
	var out *ssa.BasicBlock
	for _, pred := range l.Header.Preds {
		if l.Contains(pred) {
			continue
		}
		if out != nil && out != pred {
			return nil
		}
		out = pred
	}
	return out
}

// Phis returns the φ-nodes of the loop header, in declaration order.
func (l *Loop) Phis() []*ssa.Phi {
	var out []*ssa.Phi
	for _, instr := range l.Header.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		out = append(out, phi)
	}
	return out
}

// ExitingBlocks returns the blocks of the loop that have a successor
// outside of it, ordered by block index.
func (l *Loop) ExitingBlocks(fn *ssa.Function) []*ssa.BasicBlock {
	var out []*ssa.BasicBlock
	for _, b := range fn.Blocks {
		if !l.Contains(b) {
			continue
		}
		for _, succ := range b.Succs {
			if !l.Contains(succ) {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// CanonicalIV returns the loop's canonical induction variable: an
// integer φ-node in the header that starts at zero and is incremented by
// one on the back edge. It returns nil if the loop is irregular or has no
// such variable.
func (l *Loop) CanonicalIV() *ssa.Phi {
	entry := l.EntryPred()
	latch := l.Latch()
	if entry == nil || latch == nil {
		return nil
	}

	isConst := func(v ssa.Value, n int64) bool {
		// T(0) for a type parameter T is not a constant expression.
		if conv, ok := v.(*ssa.ChangeType); ok {
			v = conv.X
		}
		k, ok := v.(*ssa.Const)
		if !ok || k.Value == nil || k.Value.Kind() != constant.Int {
			return false
		}
		m, exact := constant.Int64Val(k.Value)
		return exact && m == n
	}

	for _, phi := range l.Phis() {
		basic, ok := typeutil.CoreType(phi.Type()).(*types.Basic)
		if !ok || basic.Info()&types.IsInteger == 0 {
			continue
		}
		var start, next ssa.Value
		for i, pred := range l.Header.Preds {
			switch pred {
			case entry:
				start = phi.Edges[i]
			case latch:
				next = phi.Edges[i]
			}
		}
		if !isConst(start, 0) {
			continue
		}
		inc, ok := next.(*ssa.BinOp)
		if !ok || inc.Op != token.ADD {
			continue
		}
		if (inc.X == phi && isConst(inc.Y, 1)) || (inc.Y == phi && isConst(inc.X, 1)) {
			return phi
		}
	}
	return nil
}

// Info describes the loops of a single function.
type Info struct {
	Function *ssa.Function
	// Loops holds the top-level loops, ordered by header index.
	Loops []*Loop

	all       []*Loop
	innermost []*Loop // indexed by block index
}

// Find computes the loop nesting forest of fn.
func Find(fn *ssa.Function) *Info {
	info := &Info{
		Function:  fn,
		innermost: make([]*Loop, len(fn.Blocks)),
	}
	if len(fn.Blocks) == 0 {
		return info
	}

	// Group back edges by their header.
	latches := map[*ssa.BasicBlock][]*ssa.BasicBlock{}
	var headers []*ssa.BasicBlock
	for _, b := range fn.Blocks {
		for _, succ := range b.Succs {
			if succ == fn.Recover {
				continue
			}
			if succ.Dominates(b) {
				if _, ok := latches[succ]; !ok {
					headers = append(headers, succ)
				}
				latches[succ] = append(latches[succ], b)
			}
		}
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Index < headers[j].Index })

	var loops []*Loop
	for _, h := range headers {
		l := &Loop{Header: h, Latches: latches[h]}
		sort.Slice(l.Latches, func(i, j int) bool { return l.Latches[i].Index < l.Latches[j].Index })
		body(l)
		loops = append(loops, l)
	}

	// The parent of a loop is the smallest other loop containing its
	// header. Natural loops with distinct headers are either disjoint or
	// nested, so the smallest container is the immediate parent.
	for _, child := range loops {
		var parent *Loop
		for _, cand := range loops {
			if cand == child || !cand.Contains(child.Header) {
				continue
			}
			if parent == nil || cand.Blocks.Len() < parent.Blocks.Len() {
				parent = cand
			}
		}
		if parent == nil {
			info.Loops = append(info.Loops, child)
		} else {
			child.Parent = parent
			parent.Children = append(parent.Children, child)
		}
	}

	// Number loops in pre-order and record the innermost loop of every
	// block. Visiting outer loops first lets inner loops overwrite.
	var visit func(l *Loop, depth int)
	visit = func(l *Loop, depth int) {
		l.Index = len(info.all)
		l.Depth = depth
		info.all = append(info.all, l)
		for _, idx := range l.Blocks.AppendTo(nil) {
			info.innermost[idx] = l
		}
		for _, c := range l.Children {
			visit(c, depth+1)
		}
	}
	for _, l := range info.Loops {
		visit(l, 1)
	}
	return info
}

// body fills in l.Blocks by walking backwards from the latches until
// reaching the header.
func body(l *Loop) {
	l.Blocks.Insert(l.Header.Index)
	wl := make([]*ssa.BasicBlock, 0, len(l.Latches))
	for _, b := range l.Latches {
		if l.Blocks.Insert(b.Index) {
			wl = append(wl, b)
		}
	}
	for len(wl) > 0 {
		b := wl[len(wl)-1]
		wl = wl[:len(wl)-1]
		for _, pred := range b.Preds {
			if l.Blocks.Insert(pred.Index) {
				wl = append(wl, pred)
			}
		}
	}
}

// All returns all loops of the function in pre-order: every loop comes
// before the loops nested inside it.
func (info *Info) All() []*Loop {
	return info.all
}

// LoopFor returns the innermost loop containing b, or nil.
func (info *Info) LoopFor(b *ssa.BasicBlock) *Loop {
	if b == nil || b.Index >= len(info.innermost) {
		return nil
	}
	return info.innermost[b.Index]
}

// HeaderOf returns the loop whose header is b, or nil.
func (info *Info) HeaderOf(b *ssa.BasicBlock) *Loop {
	l := info.LoopFor(b)
	if l == nil || l.Header != b {
		return nil
	}
	return l
}

// Direct returns the blocks whose innermost loop is l, that is the blocks
// of l that are not part of any nested loop.
func (info *Info) Direct(l *Loop) []*ssa.BasicBlock {
	var out []*ssa.BasicBlock
	for _, b := range info.Function.Blocks {
		if info.innermost[b.Index] == l {
			out = append(out, b)
		}
	}
	return out
}

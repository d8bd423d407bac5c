package scev

import (
	"go/token"

	"github.com/Prince781/loopdep/go/loops"
	"github.com/Prince781/loopdep/internal/intmath"

	"golang.org/x/tools/go/ssa"
)

type exitCount struct {
	backedges int64
	header    bool
	ok        bool
}

// BackedgeTakenCount returns how often the back edge of l is taken
// before the loop exits. It is only known for loops that are controlled
// by comparing a recurrence of the loop with constant start and step
// against a constant, in the header or the latch.
//
// header reports whether the controlling test is at the top of the
// loop, before the rest of the body runs. In that case the body runs
// backedges times; otherwise it runs backedges+1 times.
func (c *Context) BackedgeTakenCount(l *loops.Loop) (n int64, header bool, ok bool) {
	if ec, ok := c.exits[l]; ok {
		return ec.backedges, ec.header, ec.ok
	}
	ec := &exitCount{}
	c.exits[l] = ec

	// Only exits from the header or the latch bound every iteration.
	var candidates []*ssa.BasicBlock
	for _, b := range l.ExitingBlocks(c.Info.Function) {
		switch b {
		case l.Header:
			candidates = append([]*ssa.BasicBlock{b}, candidates...)
		case l.Latch():
			candidates = append(candidates, b)
		}
	}
	for _, b := range candidates {
		if n, ok := c.exitTest(l, b); ok {
			ec.backedges = n
			ec.header = b == l.Header && l.Latch() != l.Header
			ec.ok = true
			break
		}
	}
	return ec.backedges, ec.header, ec.ok
}

// exitTest computes the number of the first iteration in which the
// conditional branch at the end of b leaves the loop.
func (c *Context) exitTest(l *loops.Loop, b *ssa.BasicBlock) (int64, bool) {
	if len(b.Instrs) == 0 || len(b.Succs) != 2 {
		return 0, false
	}
	ctrl, ok := b.Instrs[len(b.Instrs)-1].(*ssa.If)
	if !ok {
		return 0, false
	}
	stayOnTrue := l.Contains(b.Succs[0])
	if stayOnTrue == l.Contains(b.Succs[1]) {
		return 0, false
	}
	cond, ok := ctrl.Cond.(*ssa.BinOp)
	if !ok {
		return 0, false
	}
	switch cond.Op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL, token.NEQ:
	default:
		return 0, false
	}

	op := cond.Op
	x, y := c.SCEV(cond.X), c.SCEV(cond.Y)
	rec, ok1 := x.(*AddRec)
	lim, ok2 := ConstValue(y)
	if !ok1 || !ok2 || rec.Loop != l {
		rec, ok1 = y.(*AddRec)
		lim, ok2 = ConstValue(x)
		if !ok1 || !ok2 || rec.Loop != l {
			return 0, false
		}
		op = flipToken(op)
	}
	if !stayOnTrue {
		op = negateToken(op)
	}
	start, ok1 := ConstValue(rec.Start)
	step, ok2 := ConstValue(rec.Step)
	if !ok1 || !ok2 {
		return 0, false
	}
	return firstFailure(op, start, step, lim)
}

// firstFailure returns the smallest k >= 0 for which
// start + step*k op lim does not hold.
func firstFailure(op token.Token, start, step, lim int64) (int64, bool) {
	if step == 0 {
		return 0, false
	}
	switch op {
	case token.LEQ:
		op, lim = token.LSS, lim+1
	case token.GEQ:
		op, lim = token.GTR, lim-1
	}
	switch op {
	case token.LSS:
		if start >= lim {
			return 0, true
		}
		if step < 0 {
			return 0, false
		}
		return intmath.CeilDiv(lim-start, step), true
	case token.GTR:
		if start <= lim {
			return 0, true
		}
		if step > 0 {
			return 0, false
		}
		return intmath.CeilDiv(start-lim, -step), true
	case token.NEQ:
		d := lim - start
		if d%step != 0 || d/step < 0 {
			return 0, false
		}
		return d / step, true
	case token.EQL:
		if start == lim {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// flipToken flips a binary operator. For example, '>' becomes '<'.
func flipToken(tok token.Token) token.Token {
	switch tok {
	case token.LSS:
		return token.GTR
	case token.GTR:
		return token.LSS
	case token.LEQ:
		return token.GEQ
	case token.GEQ:
		return token.LEQ
	default:
		return tok
	}
}

// negateToken negates a binary operator. For example, '>' becomes '<='.
func negateToken(tok token.Token) token.Token {
	switch tok {
	case token.LSS:
		return token.GEQ
	case token.GTR:
		return token.LEQ
	case token.LEQ:
		return token.GTR
	case token.GEQ:
		return token.LSS
	case token.EQL:
		return token.NEQ
	case token.NEQ:
		return token.EQL
	default:
		return tok
	}
}

// AtScope returns the value of e as seen from scope, which is either a
// loop or nil for the function body outside of all loops. Recurrences
// over loops that do not enclose scope have finished running and are
// replaced by their value at the loop's exit, if it is known.
func (c *Context) AtScope(e Expr, scope *loops.Loop) Expr {
	switch e := e.(type) {
	case *AddRec:
		start := c.AtScope(e.Start, scope)
		step := c.AtScope(e.Step, scope)
		if scope != nil && e.Loop.ContainsLoop(scope) {
			return c.AddRec(e.Loop, start, step, e.Flags)
		}
		n, _, ok := c.BackedgeTakenCount(e.Loop)
		if !ok {
			return c.AddRec(e.Loop, start, step, e.Flags)
		}
		return c.Add(start, c.Mul(step, c.Const(n)))
	case *Add:
		terms := make([]Expr, len(e.Terms))
		for i, t := range e.Terms {
			terms[i] = c.AtScope(t, scope)
		}
		return c.Add(terms...)
	case *Mul:
		terms := make([]Expr, len(e.Terms))
		for i, t := range e.Terms {
			terms[i] = c.AtScope(t, scope)
		}
		return c.Mul(terms...)
	default:
		return e
	}
}

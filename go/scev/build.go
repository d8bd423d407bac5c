package scev

import (
	"go/constant"
	"go/token"
	"go/types"

	"github.com/Prince781/loopdep/internal/typeutil"

	"golang.org/x/tools/go/ssa"
)

func isInteger(typ types.Type) bool {
	basic, ok := typeutil.CoreType(typ).(*types.Basic)
	return ok && basic.Info()&types.IsInteger != 0
}

func constInt(v ssa.Value) (int64, bool) {
	k, ok := v.(*ssa.Const)
	if !ok || k.Value == nil || k.Value.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(k.Value)
}

// SCEV returns the scalar evolution of v. Values that are not integers,
// or whose evolution we cannot describe, are Unknown.
func (c *Context) SCEV(v ssa.Value) Expr {
	if e, ok := c.memo[v]; ok {
		return e
	}
	// Seed the cache so that cyclic definitions terminate.
	c.memo[v] = c.Unknown(v)
	e := c.create(v)
	c.memo[v] = e
	return e
}

func (c *Context) create(v ssa.Value) Expr {
	if !isInteger(v.Type()) {
		return c.Unknown(v)
	}
	switch v := v.(type) {
	case *ssa.Const:
		if n, ok := constInt(v); ok {
			return c.Const(n)
		}
	case *ssa.BinOp:
		switch v.Op {
		case token.ADD:
			return c.Add(c.SCEV(v.X), c.SCEV(v.Y))
		case token.SUB:
			return c.Sub(c.SCEV(v.X), c.SCEV(v.Y))
		case token.MUL:
			return c.Mul(c.SCEV(v.X), c.SCEV(v.Y))
		case token.SHL:
			if n, ok := constInt(v.Y); ok && n >= 0 && n < 63 {
				return c.Mul(c.SCEV(v.X), c.Const(1<<n))
			}
		}
	case *ssa.Convert:
		if isInteger(v.X.Type()) {
			return c.SCEV(v.X)
		}
	case *ssa.ChangeType:
		if isInteger(v.X.Type()) {
			return c.SCEV(v.X)
		}
	case *ssa.Phi:
		return c.phi(v)
	}
	return c.Unknown(v)
}

// phi recognizes header φ-nodes of the form
//
//	x = phi [entry: start, latch: x + step]
//
// with a loop-invariant step.
func (c *Context) phi(phi *ssa.Phi) Expr {
	l := c.Info.HeaderOf(phi.Block())
	if l == nil {
		return c.Unknown(phi)
	}
	var start, next ssa.Value
	for i, pred := range phi.Block().Preds {
		edge := phi.Edges[i]
		if l.Contains(pred) {
			if next != nil && next != edge {
				return c.Unknown(phi)
			}
			next = edge
		} else {
			if start != nil && start != edge {
				return c.Unknown(phi)
			}
			start = edge
		}
	}
	if start == nil || next == nil {
		return c.Unknown(phi)
	}

	bin, ok := next.(*ssa.BinOp)
	if !ok {
		return c.Unknown(phi)
	}
	var stepv ssa.Value
	negate := false
	switch {
	case bin.Op == token.ADD && bin.X == phi:
		stepv = bin.Y
	case bin.Op == token.ADD && bin.Y == phi:
		stepv = bin.X
	case bin.Op == token.SUB && bin.X == phi:
		stepv = bin.Y
		negate = true
	default:
		return c.Unknown(phi)
	}
	if l.ContainsValue(stepv) {
		return c.Unknown(phi)
	}
	step := c.SCEV(stepv)
	if negate {
		step = c.Negate(step)
	}
	if !c.Invariant(step, l) {
		return c.Unknown(phi)
	}
	return c.AddRec(l, c.SCEV(start), step, FlagNW)
}

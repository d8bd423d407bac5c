package scev

import (
	"sort"

	"github.com/Prince781/loopdep/go/loops"

	"golang.org/x/tools/go/ssa"
)

// A Context uniques the expressions of one function and caches the
// evolution of its values. It is not safe for concurrent use.
type Context struct {
	Info *loops.Info

	uniq     map[string]Expr
	unknowns map[ssa.Value]*Unknown
	memo     map[ssa.Value]Expr
	exits    map[*loops.Loop]*exitCount
}

func New(info *loops.Info) *Context {
	return &Context{
		Info:     info,
		uniq:     map[string]Expr{},
		unknowns: map[ssa.Value]*Unknown{},
		memo:     map[ssa.Value]Expr{},
		exits:    map[*loops.Loop]*exitCount{},
	}
}

func (c *Context) intern(e Expr) Expr {
	k := e.key()
	if old, ok := c.uniq[k]; ok {
		return old
	}
	c.uniq[k] = e
	return e
}

func (c *Context) Const(n int64) Expr {
	return c.intern(&Constant{Value: n})
}

func (c *Context) Unknown(v ssa.Value) Expr {
	if u, ok := c.unknowns[v]; ok {
		return u
	}
	u := &Unknown{Value: v, id: len(c.unknowns)}
	c.unknowns[v] = u
	return c.intern(u)
}

// AddRec returns the recurrence {start,+,step}<l>. A recurrence with a
// zero step is just its start.
func (c *Context) AddRec(l *loops.Loop, start, step Expr, flags Flags) Expr {
	if IsZero(step) {
		return start
	}
	return c.intern(&AddRec{Loop: l, Start: start, Step: step, Flags: flags})
}

func (c *Context) Negate(e Expr) Expr {
	return c.Mul(c.Const(-1), e)
}

func (c *Context) Sub(x, y Expr) Expr {
	return c.Add(x, c.Negate(y))
}

// Add returns the canonical sum of ops.
//
// Nested sums are flattened, constants are folded and like terms are
// combined. Recurrences over the same loop are merged, and terms that
// are invariant in the innermost loop with a recurrence are folded into
// that recurrence's start, so that the result of adding affine
// functions of nested loops is a nest of recurrences with the innermost
// loop outside.
func (c *Context) Add(ops ...Expr) Expr {
	var k int64
	var terms []Expr
	var flatten func(e Expr)
	flatten = func(e Expr) {
		switch e := e.(type) {
		case *Add:
			for _, t := range e.Terms {
				flatten(t)
			}
		case *Constant:
			k += e.Value
		default:
			terms = append(terms, e)
		}
	}
	for _, op := range ops {
		flatten(op)
	}

	var rec *AddRec
	for _, t := range terms {
		if r, ok := t.(*AddRec); ok && (rec == nil || r.Loop.Depth > rec.Loop.Depth) {
			rec = r
		}
	}
	if rec != nil {
		l := rec.Loop
		flags := FlagNW
		var starts, steps, rest []Expr
		for _, t := range terms {
			if r, ok := t.(*AddRec); ok && r.Loop == l {
				starts = append(starts, r.Start)
				steps = append(steps, r.Step)
				flags &= r.Flags
			} else {
				rest = append(rest, t)
			}
		}
		invariant := true
		for _, t := range rest {
			if !c.Invariant(t, l) {
				invariant = false
				break
			}
		}
		if invariant {
			starts = append(starts, rest...)
			starts = append(starts, c.Const(k))
			return c.AddRec(l, c.Add(starts...), c.Add(steps...), flags)
		}
		merged := c.AddRec(l, c.Add(starts...), c.Add(steps...), flags)
		if _, ok := merged.(*AddRec); !ok {
			return c.Add(append(rest, merged, c.Const(k))...)
		}
		terms = append(rest, merged)
	}

	terms = c.combineLikeTerms(terms)
	if k != 0 {
		terms = append(terms, c.Const(k))
	}
	switch len(terms) {
	case 0:
		return c.Const(0)
	case 1:
		return terms[0]
	}
	sortTerms(terms)
	return c.intern(&Add{Terms: terms})
}

// combineLikeTerms merges terms that only differ in their constant
// factor, such as x and 3*x.
func (c *Context) combineLikeTerms(terms []Expr) []Expr {
	type entry struct {
		base  Expr
		coeff int64
	}
	var order []*entry
	byBase := map[Expr]*entry{}
	for _, t := range terms {
		base, coeff := t, int64(1)
		if m, ok := t.(*Mul); ok {
			if n, ok := ConstValue(m.Terms[0]); ok {
				coeff = n
				base = c.Mul(m.Terms[1:]...)
			}
		}
		if e, ok := byBase[base]; ok {
			e.coeff += coeff
			continue
		}
		e := &entry{base: base, coeff: coeff}
		byBase[base] = e
		order = append(order, e)
	}
	out := terms[:0]
	for _, e := range order {
		switch e.coeff {
		case 0:
		case 1:
			out = append(out, e.base)
		default:
			out = append(out, c.Mul(c.Const(e.coeff), e.base))
		}
	}
	return out
}

// Mul returns the canonical product of ops.
//
// Constant factors are folded and distributed over sums and recurrences.
// Products of two non-constant expressions are kept as they are; they
// are not affine.
func (c *Context) Mul(ops ...Expr) Expr {
	k := int64(1)
	var terms []Expr
	var flatten func(e Expr)
	flatten = func(e Expr) {
		switch e := e.(type) {
		case *Mul:
			for _, t := range e.Terms {
				flatten(t)
			}
		case *Constant:
			k *= e.Value
		default:
			terms = append(terms, e)
		}
	}
	for _, op := range ops {
		flatten(op)
	}

	if k == 0 {
		return c.Const(0)
	}
	switch len(terms) {
	case 0:
		return c.Const(k)
	case 1:
		if k == 1 {
			return terms[0]
		}
		kk := c.Const(k)
		switch t := terms[0].(type) {
		case *AddRec:
			return c.AddRec(t.Loop, c.Mul(kk, t.Start), c.Mul(kk, t.Step), t.Flags)
		case *Add:
			out := make([]Expr, len(t.Terms))
			for i, tt := range t.Terms {
				out[i] = c.Mul(kk, tt)
			}
			return c.Add(out...)
		}
	}
	sortTerms(terms)
	if k != 1 {
		terms = append([]Expr{c.Const(k)}, terms...)
	}
	return c.intern(&Mul{Terms: terms})
}

func sortTerms(terms []Expr) {
	sort.SliceStable(terms, func(i, j int) bool {
		ri, rj := terms[i].rank(), terms[j].rank()
		if ri != rj {
			return ri < rj
		}
		return terms[i].key() < terms[j].key()
	})
}

// Invariant reports whether e has the same value in every iteration of
// l.
func (c *Context) Invariant(e Expr, l *loops.Loop) bool {
	switch e := e.(type) {
	case *Constant:
		return true
	case *Unknown:
		return !l.ContainsValue(e.Value)
	case *AddRec:
		if l.ContainsLoop(e.Loop) {
			return false
		}
		return c.Invariant(e.Start, l) && c.Invariant(e.Step, l)
	case *Add:
		for _, t := range e.Terms {
			if !c.Invariant(t, l) {
				return false
			}
		}
		return true
	case *Mul:
		for _, t := range e.Terms {
			if !c.Invariant(t, l) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

package depcheck

import (
	"fmt"

	"github.com/Prince781/loopdep/go/scev"
	"github.com/Prince781/loopdep/ilp"
)

// Sides of a pair, as they appear in instanced variable names.
const (
	sideA = "a"
	sideB = "B"
)

// A Group holds the accesses of a loop that share a base.
type Group struct {
	Base     scev.Expr
	Accesses []*Access
}

// groupByBase buckets accesses by base, in order of first appearance.
// Accesses without a base share one group.
func groupByBase(accesses []*Access) []*Group {
	var groups []*Group
	byBase := map[scev.Expr]*Group{}
	for _, acc := range accesses {
		g, ok := byBase[acc.Base]
		if !ok {
			g = &Group{Base: acc.Base}
			byBase[acc.Base] = g
			groups = append(groups, g)
		}
		g.Accesses = append(g.Accesses, acc)
	}
	return groups
}

// A Pair is two accesses of the same base, at least one of them a
// store, whose addresses are equal if Model is feasible.
type Pair struct {
	A, B   *Access
	Base   scev.Expr
	Model  *ilp.Model
	Result ilp.Result
}

// pairs returns the pairs of g that need to be checked, or
// ErrArityMismatch if two of them are indexed differently.
func (g *Group) pairs() ([]*Pair, error) {
	var out []*Pair
	for i, a := range g.Accesses {
		for _, b := range g.Accesses[i+1:] {
			if !a.IsStore() && !b.IsStore() {
				continue
			}
			if len(a.Equations) != len(b.Equations) {
				return nil, fmt.Errorf("%w: %s has %d, %s has %d",
					ErrArityMismatch, a, len(a.Equations), b, len(b.Equations))
			}
			out = append(out, &Pair{A: a, B: b, Base: g.Base})
		}
	}
	return out, nil
}

// A modelBuilder accumulates the constraints and instanced variables of
// one model.
type modelBuilder struct {
	c    *scev.Context
	vars []string
	ivOf map[string]*InductionVariable
	cons []ilp.Constraint
}

func newModelBuilder(c *scev.Context) *modelBuilder {
	return &modelBuilder{c: c, ivOf: map[string]*InductionVariable{}}
}

// instance returns the name of iv's copy for one side of a pair.
func (mb *modelBuilder) instance(iv *InductionVariable, side string) string {
	name := ilp.Sanitize(iv.Name() + "_" + side)
	if _, ok := mb.ivOf[name]; !ok {
		mb.ivOf[name] = iv
		mb.vars = append(mb.vars, name)
	}
	return name
}

// addPair constrains every index position of p's accesses to be equal.
func (mb *modelBuilder) addPair(p *Pair) {
	for k := range p.A.Equations {
		lhs := p.A.Equations[k].Linear(func(iv *InductionVariable) string { return mb.instance(iv, sideA) })
		rhs := p.B.Equations[k].Linear(func(iv *InductionVariable) string { return mb.instance(iv, sideB) })
		mb.cons = append(mb.cons, ilp.Constraint{
			Name: fmt.Sprintf("eqn%d", len(mb.cons)),
			LHS:  lhs,
			RHS:  rhs,
		})
	}
}

// model returns the accumulated model, or nil if no variable was
// instanced.
func (mb *modelBuilder) model(label string) *ilp.Model {
	if len(mb.vars) == 0 {
		return nil
	}
	m := &ilp.Model{
		Label:       label,
		Objective:   mb.vars[0],
		Constraints: mb.cons,
	}
	for _, name := range mb.vars {
		lo, hi := bounds(mb.c, mb.ivOf[name])
		m.Vars = append(m.Vars, ilp.Var{Name: name, Lower: lo, Upper: hi})
	}
	return m
}

// pairModel is like model, but also returns a model for pairs whose
// constraints have no variables, so that they can still be checked.
func (mb *modelBuilder) pairModel(label string) *ilp.Model {
	if m := mb.model(label); m != nil {
		return m
	}
	return &ilp.Model{Label: label, Constraints: mb.cons}
}

// bounds returns the smallest and largest value iv takes inside its
// loop's body. Bounds that are not constant are nil.
func bounds(c *scev.Context, iv *InductionVariable) (lo, hi *int64) {
	rec := iv.Rec
	step, _ := scev.ConstValue(rec.Step)
	var first, last *int64
	if start, ok := scev.ConstValue(rec.Start); ok {
		first = &start
	}
	if exit, ok := scev.ConstValue(c.AtScope(rec, rec.Loop.Parent)); ok {
		// If the exit test runs before the body, the exit value itself
		// never reaches the body.
		if _, header, _ := c.BackedgeTakenCount(rec.Loop); header {
			if step > 0 {
				exit--
			} else {
				exit++
			}
		}
		last = &exit
	}
	if step < 0 {
		return last, first
	}
	return first, last
}

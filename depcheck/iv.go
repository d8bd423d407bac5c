package depcheck

import (
	"fmt"

	"github.com/Prince781/loopdep/go/loops"
	"github.com/Prince781/loopdep/go/scev"
	"github.com/Prince781/loopdep/internal/typeutil"

	"golang.org/x/tools/go/ssa"
)

// An InductionVariable is the φ-node that counts the iterations of a
// loop, together with its recurrence.
type InductionVariable struct {
	Phi  *ssa.Phi
	Loop *loops.Loop
	Rec  *scev.AddRec
}

// Name identifies the variable in models and traces.
func (iv *InductionVariable) Name() string {
	return scev.ValueName(iv.Phi)
}

func (iv *InductionVariable) String() string {
	return fmt.Sprintf("%s = %s", iv.Name(), iv.Rec)
}

// IVMap holds the induction variables of a function's loops. Two
// induction variables are the same if and only if their recurrences
// are.
type IVMap struct {
	byLoop map[*loops.Loop]*InductionVariable
	byRec  map[scev.Expr]*InductionVariable
}

// ForLoop returns the induction variable of l, or nil.
func (m *IVMap) ForLoop(l *loops.Loop) *InductionVariable {
	return m.byLoop[l]
}

// Lookup returns the induction variable whose recurrence is rec, or nil.
func (m *IVMap) Lookup(rec scev.Expr) *InductionVariable {
	return m.byRec[rec]
}

func (m *IVMap) add(iv *InductionVariable) {
	m.byLoop[iv.Loop] = iv
	m.byRec[iv.Rec] = iv
}

// RecognizeAll recognizes the induction variables of all loops of c's
// function, outer loops before the loops they contain.
func RecognizeAll(c *scev.Context) *IVMap {
	m := &IVMap{
		byLoop: map[*loops.Loop]*InductionVariable{},
		byRec:  map[scev.Expr]*InductionVariable{},
	}
	var visit func(l *loops.Loop)
	visit = func(l *loops.Loop) {
		if iv := Recognize(c, l); iv != nil {
			m.add(iv)
		}
		for _, sub := range l.Children {
			visit(sub)
		}
	}
	for _, l := range c.Info.Loops {
		visit(l)
	}
	return m
}

// Recognize returns the induction variable of l, or nil if l has none.
//
// The canonical induction variable is preferred. Otherwise, the loop
// must have a single latch and a single entry, and the first header
// φ-node of a numeric or pointer-sized type that evolves by a constant
// step in l is used.
func Recognize(c *scev.Context, l *loops.Loop) *InductionVariable {
	if phi := l.CanonicalIV(); phi != nil {
		if rec, ok := c.SCEV(phi).(*scev.AddRec); ok && rec.Loop == l {
			return &InductionVariable{Phi: phi, Loop: l, Rec: rec}
		}
	}
	if l.Latch() == nil || l.EntryPred() == nil {
		return nil
	}
	for _, phi := range l.Phis() {
		if !typeutil.IsCounter(phi.Type()) {
			continue
		}
		rec, ok := c.SCEV(phi).(*scev.AddRec)
		if !ok || rec.Loop != l {
			continue
		}
		if _, ok := scev.ConstValue(rec.Step); !ok {
			continue
		}
		return &InductionVariable{Phi: phi, Loop: l, Rec: rec}
	}
	return nil
}

package depcheck

import (
	"errors"
	"fmt"

	"github.com/Prince781/loopdep/go/scev"
	"github.com/Prince781/loopdep/ilp"
)

var (
	ErrNoInductionVariable = errors.New("no induction variable for loop")
	ErrNotAffine           = errors.New("index is not affine")
	ErrArityMismatch       = errors.New("accesses of the same base differ in index arity")
)

type Coefficient struct {
	IV    *InductionVariable
	Value int64
}

// An Equation is the affine function Σ Coeffs[i].Value*Coeffs[i].IV + Const
// of the induction variables of enclosing loops.
type Equation struct {
	// Coeffs are ordered from the innermost loop outwards.
	Coeffs []Coefficient
	Const  int64
}

// Linear instantiates eq, naming each induction variable with name.
func (eq Equation) Linear(name func(iv *InductionVariable) string) ilp.LinearExpr {
	e := ilp.LinearExpr{Const: eq.Const}
	for _, co := range eq.Coeffs {
		e.Terms = append(e.Terms, ilp.Term{Coeff: co.Value, Var: name(co.IV)})
	}
	return e
}

func (eq Equation) String() string {
	return eq.Linear((*InductionVariable).Name).String()
}

// decompose turns offset into an Equation by peeling one recurrence at
// a time, each of which must be an exact multiple of its loop's
// induction variable.
func decompose(c *scev.Context, offset scev.Expr, ivs *IVMap) (Equation, error) {
	var eq Equation
	for {
		rec, ok := offset.(*scev.AddRec)
		if !ok {
			break
		}
		iv := ivs.ForLoop(rec.Loop)
		if iv == nil {
			return Equation{}, fmt.Errorf("%w %s", ErrNoInductionVariable, rec.Loop)
		}
		if ivs.Lookup(rec) == iv {
			eq.Coeffs = append(eq.Coeffs, Coefficient{IV: iv, Value: 1})
			offset = c.Const(0)
			break
		}
		q, rem, ok := factor(c, rec.Step, iv.Rec.Step, c.Const(0))
		if !ok || !scev.IsZero(rem) {
			return Equation{}, fmt.Errorf("%w: step %s is not a multiple of %s", ErrNotAffine, rec.Step, iv.Rec.Step)
		}
		k, ok := scev.ConstValue(q)
		if !ok {
			return Equation{}, fmt.Errorf("%w: coefficient %s of %s is not constant", ErrNotAffine, q, iv.Name())
		}
		eq.Coeffs = append(eq.Coeffs, Coefficient{IV: iv, Value: k})
		offset = c.Sub(rec.Start, c.Mul(q, iv.Rec.Start))
	}
	k, ok := scev.ConstValue(offset)
	if !ok {
		return Equation{}, fmt.Errorf("%w: %s remains", ErrNotAffine, offset)
	}
	eq.Const = k
	return eq, nil
}

// Package scev implements scalar evolution for integer values of a
// function in SSA form.
//
// A scalar evolution describes how a value changes across the
// iterations of the loops that contain it. The central form is the add
// recurrence {start,+,step}<L>: a value that equals start on the first
// iteration of L and grows by step on every further iteration.
//
// Expressions are immutable and uniqued by a Context: two expressions
// are structurally equal if and only if they are the same pointer. All
// arithmetic goes through the Context, which keeps expressions in a
// canonical form.
package scev

import (
	"fmt"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/Prince781/loopdep/go/loops"
	"github.com/Prince781/loopdep/internal/typeutil"

	"golang.org/x/tools/go/ssa"
)

type Expr interface {
	String() string
	key() string
	rank() int
}

func (*Constant) rank() int { return 0 }
func (*Unknown) rank() int  { return 1 }
func (*Mul) rank() int      { return 2 }
func (*Add) rank() int      { return 3 }
func (*AddRec) rank() int   { return 4 }

type Constant struct {
	Value int64
}

func (k *Constant) key() string    { return strconv.FormatInt(k.Value, 10) }
func (k *Constant) String() string { return strconv.FormatInt(k.Value, 10) }

// An Unknown is a value we cannot analyze further, such as a parameter,
// the result of a call or a load.
type Unknown struct {
	Value ssa.Value
	id    int
}

func (u *Unknown) key() string { return fmt.Sprintf("%%u%d", u.id) }
func (u *Unknown) String() string {
	return ValueName(u.Value)
}

// ValueName returns a human-readable name for v, preferring the name of
// the source variable when SSA construction recorded one.
func ValueName(v ssa.Value) string {
	switch v := v.(type) {
	case *ssa.Alloc:
		if v.Comment != "" {
			return v.Comment
		}
	case *ssa.Phi:
		if v.Comment != "" {
			return v.Comment + "." + v.Name()
		}
	case *ssa.UnOp:
		// Loads of globals and fields read like the source expression.
		if v.Op == token.MUL {
			switch x := v.X.(type) {
			case *ssa.Global:
				return x.Name()
			case *ssa.FieldAddr:
				return ValueName(x.X) + "." + fieldName(x)
			}
		}
	}
	return v.Name()
}

func fieldName(fa *ssa.FieldAddr) string {
	if ptr, ok := typeutil.CoreType(fa.X.Type()).(*types.Pointer); ok {
		if st, ok := typeutil.CoreType(ptr.Elem()).(*types.Struct); ok {
			return st.Field(fa.Field).Name()
		}
	}
	return strconv.Itoa(fa.Field)
}

// Flags record facts about add recurrences.
type Flags uint8

const (
	// FlagNW marks recurrences that never wrap around their type's range
	// while the loop runs.
	FlagNW Flags = 1 << iota
)

type AddRec struct {
	Loop  *loops.Loop
	Start Expr
	Step  Expr
	Flags Flags
}

func (r *AddRec) key() string {
	return fmt.Sprintf("{%s,+,%s}<L%d>", r.Start.key(), r.Step.key(), r.Loop.Index)
}

func (r *AddRec) String() string {
	var nw string
	if r.Flags&FlagNW != 0 {
		nw = "<nw>"
	}
	return fmt.Sprintf("{%s,+,%s}%s<%s>", r.Start, r.Step, nw, r.Loop)
}

type Add struct {
	Terms []Expr
}

func (a *Add) key() string    { return naryKey("+", a.Terms) }
func (a *Add) String() string { return naryString(" + ", a.Terms) }

// A Mul is a product. If it has a constant factor, the constant is the
// first term.
type Mul struct {
	Terms []Expr
}

func (m *Mul) key() string    { return naryKey("*", m.Terms) }
func (m *Mul) String() string { return naryString(" * ", m.Terms) }

func naryKey(op string, terms []Expr) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(op)
	for _, t := range terms {
		sb.WriteString(" ")
		sb.WriteString(t.key())
	}
	sb.WriteString(")")
	return sb.String()
}

func naryString(sep string, terms []Expr) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// ConstValue returns the value of e if it is a constant.
func ConstValue(e Expr) (int64, bool) {
	if k, ok := e.(*Constant); ok {
		return k.Value, true
	}
	return 0, false
}

// IsZero reports whether e is the constant 0.
func IsZero(e Expr) bool {
	n, ok := ConstValue(e)
	return ok && n == 0
}

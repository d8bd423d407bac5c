package depcheck

import (
	"fmt"
	"go/token"
	"strconv"

	"github.com/Prince781/loopdep/go/loops"
	"github.com/Prince781/loopdep/go/scev"

	"golang.org/x/tools/go/ssa"
)

// An Access is a load or store inside a loop.
type Access struct {
	Instr ssa.Instruction
	// Steps are the address computations the access depends on, in
	// first-visit order of a depth-first walk of its operands.
	Steps []ssa.Instruction
	// Base is the symbolic root the address is computed from. It is nil
	// if no step has a base that is not itself an address computation.
	Base scev.Expr
	// Equations holds one equation per step.
	Equations []Equation
}

func (acc *Access) IsStore() bool {
	_, ok := acc.Instr.(*ssa.Store)
	return ok
}

func (acc *Access) Kind() string {
	if acc.IsStore() {
		return "store"
	}
	return "load"
}

// Pos returns the position of the indexing expression of the access.
func (acc *Access) Pos() token.Pos {
	if pos := acc.Instr.Pos(); pos.IsValid() {
		return pos
	}
	if load, ok := acc.Instr.(*ssa.UnOp); ok {
		return load.X.Pos()
	}
	return token.NoPos
}

func (acc *Access) String() string {
	return fmt.Sprintf("%s %s", acc.Kind(), acc.Instr)
}

// A DroppedAccess is an access that could not be turned into equations.
type DroppedAccess struct {
	Instr ssa.Instruction
	Err   error
}

func isAccess(instr ssa.Instruction) bool {
	switch instr := instr.(type) {
	case *ssa.Store:
		return true
	case *ssa.UnOp:
		return instr.Op == token.MUL
	}
	return false
}

func isAddressStep(v interface{}) bool {
	switch v.(type) {
	case *ssa.IndexAddr, *ssa.FieldAddr:
		return true
	}
	return false
}

// stepBase returns the pointer that step offsets from.
func stepBase(step ssa.Instruction) ssa.Value {
	switch step := step.(type) {
	case *ssa.IndexAddr:
		return step.X
	case *ssa.FieldAddr:
		return step.X
	}
	panic(fmt.Sprintf("unexpected address computation %T", step))
}

// stepIndex returns the offset that step adds to its base: the index of
// an element, or the number of a field.
func stepIndex(c *scev.Context, step ssa.Instruction) scev.Expr {
	switch step := step.(type) {
	case *ssa.IndexAddr:
		return c.SCEV(step.Index)
	case *ssa.FieldAddr:
		return c.Const(int64(step.Field))
	}
	panic(fmt.Sprintf("unexpected address computation %T", step))
}

// An addrKey identifies an address by the value it is computed from and
// the fields selected on the way.
type addrKey struct {
	root   ssa.Value
	fields string
}

// invariantAddr returns the key of addr if addr is the same in every
// iteration of l: a value defined outside of l, or a field of such an
// address.
func invariantAddr(l *loops.Loop, addr ssa.Value) (addrKey, bool) {
	if fa, ok := addr.(*ssa.FieldAddr); ok {
		k, ok := invariantAddr(l, fa.X)
		if !ok {
			return addrKey{}, false
		}
		k.fields += "." + strconv.Itoa(fa.Field)
		return k, true
	}
	if l.ContainsValue(addr) {
		return addrKey{}, false
	}
	return addrKey{root: addr}, true
}

// An arena numbers the instructions of a function so that walks can
// track visited instructions in a flat slice.
type arena struct {
	index map[ssa.Instruction]int
}

func newArena(fn *ssa.Function) *arena {
	a := &arena{index: map[ssa.Instruction]int{}}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			a.index[instr] = len(a.index)
		}
	}
	return a
}

type collector struct {
	arena   *arena
	visited []bool
	steps   []ssa.Instruction
}

// collect returns the address computations that access depends on. By
// default only the operand holding the accessed address is followed; if
// wide is set, every operand is.
func (a *arena) collect(access ssa.Instruction, wide bool) []ssa.Instruction {
	col := &collector{arena: a, visited: make([]bool, len(a.index))}
	if i, ok := a.index[access]; ok {
		col.visited[i] = true
	}
	var roots []*ssa.Value
	if wide {
		roots = access.Operands(nil)
	} else {
		switch access := access.(type) {
		case *ssa.Store:
			roots = []*ssa.Value{&access.Addr}
		case *ssa.UnOp:
			roots = []*ssa.Value{&access.X}
		}
	}
	for _, op := range roots {
		if op != nil {
			col.walk(*op)
		}
	}
	return col.steps
}

func (col *collector) walk(v ssa.Value) {
	instr, ok := v.(ssa.Instruction)
	if !ok {
		return
	}
	i, ok := col.arena.index[instr]
	if !ok || col.visited[i] {
		return
	}
	col.visited[i] = true
	if isAddressStep(instr) {
		col.steps = append(col.steps, instr)
	}
	for _, op := range instr.Operands(nil) {
		if op != nil && *op != nil {
			col.walk(*op)
		}
	}
}

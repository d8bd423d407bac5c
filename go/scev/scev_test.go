package scev

import (
	"go/token"
	"testing"

	"github.com/Prince781/loopdep/debug"
	"github.com/Prince781/loopdep/go/loops"

	"golang.org/x/tools/go/ssa"
)

func build(t *testing.T, src, name string) (*ssa.Function, *Context) {
	t.Helper()
	fn, err := debug.Func(src, name)
	if err != nil {
		t.Fatal(err)
	}
	return fn, New(loops.Find(fn))
}

func indexAddrs(fn *ssa.Function) []*ssa.IndexAddr {
	var out []*ssa.IndexAddr
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if ia, ok := instr.(*ssa.IndexAddr); ok {
				out = append(out, ia)
			}
		}
	}
	return out
}

func TestUniquing(t *testing.T) {
	c := New(&loops.Info{})
	if c.Const(3) != c.Add(c.Const(1), c.Const(2)) {
		t.Errorf("1+2 is not uniqued with 3")
	}
	if c.Const(0) != c.Mul(c.Const(0), c.Const(7)) {
		t.Errorf("0*7 is not uniqued with 0")
	}
	if c.Const(-4) != c.Negate(c.Const(4)) {
		t.Errorf("-(4) is not uniqued with -4")
	}
}

func TestSimpleRecurrence(t *testing.T) {
	const src = `package pkg

func fn(a []int) {
	for i := 0; i < 10; i++ {
		a[i] = a[i+2]
	}
}
`
	fn, c := build(t, src, "fn")
	if len(c.Info.Loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(c.Info.Loops))
	}
	l := c.Info.Loops[0]

	addrs := indexAddrs(fn)
	if len(addrs) != 2 {
		t.Fatalf("got %d index operations, want 2", len(addrs))
	}
	var starts []int64
	for _, ia := range addrs {
		rec, ok := c.SCEV(ia.Index).(*AddRec)
		if !ok {
			t.Fatalf("index %s: got %s, want a recurrence", ia.Index.Name(), c.SCEV(ia.Index))
		}
		if rec.Loop != l {
			t.Errorf("recurrence %s is over the wrong loop", rec)
		}
		if step, _ := ConstValue(rec.Step); step != 1 {
			t.Errorf("recurrence %s: got step %s, want 1", rec, rec.Step)
		}
		start, ok := ConstValue(rec.Start)
		if !ok {
			t.Fatalf("recurrence %s has a non-constant start", rec)
		}
		starts = append(starts, start)
	}
	if !(starts[0] == 0 && starts[1] == 2) && !(starts[0] == 2 && starts[1] == 0) {
		t.Errorf("got starts %v, want 0 and 2", starts)
	}

	n, header, ok := c.BackedgeTakenCount(l)
	if !ok || n != 10 || !header {
		t.Errorf("got backedge count (%d, %t, %t), want (10, true, true)", n, header, ok)
	}
	rec := c.SCEV(addrs[0].Index).(*AddRec)
	iv := c.AddRec(l, c.Const(0), c.Const(1), FlagNW)
	if got := c.AtScope(iv, nil); got != c.Const(10) {
		t.Errorf("exit value of %s: got %s, want 10", iv, got)
	}
	if got := c.AtScope(rec, l); got != rec {
		t.Errorf("%s inside its own loop: got %s", rec, got)
	}
}

func TestNestedRecurrence(t *testing.T) {
	const src = `package pkg

func fn(a []int) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			a[2*i+3*j+5] = 0
		}
	}
}
`
	fn, c := build(t, src, "fn")
	if len(c.Info.Loops) != 1 || len(c.Info.Loops[0].Children) != 1 {
		t.Fatalf("unexpected loop structure")
	}
	outer := c.Info.Loops[0]
	inner := outer.Children[0]
	if inner.Depth != 2 || inner.Parent != outer {
		t.Errorf("inner loop has depth %d and parent %v", inner.Depth, inner.Parent)
	}

	addrs := indexAddrs(fn)
	if len(addrs) != 1 {
		t.Fatalf("got %d index operations, want 1", len(addrs))
	}
	want := c.AddRec(inner,
		c.AddRec(outer, c.Const(5), c.Const(2), FlagNW),
		c.Const(3), FlagNW)
	if got := c.SCEV(addrs[0].Index); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestProductOfRecurrences(t *testing.T) {
	const src = `package pkg

func fn(a []int) {
	for i := 0; i < 4; i++ {
		for k := 0; k < 8; k++ {
			a[i*k] = 0
		}
	}
}
`
	fn, c := build(t, src, "fn")
	addrs := indexAddrs(fn)
	if len(addrs) != 1 {
		t.Fatalf("got %d index operations, want 1", len(addrs))
	}
	if _, ok := c.SCEV(addrs[0].Index).(*Mul); !ok {
		t.Errorf("got %s, want a product", c.SCEV(addrs[0].Index))
	}
}

func TestLikeTerms(t *testing.T) {
	const src = `package pkg

func fn(a []int, n int) {
	for i := n; i < 100; i++ {
		a[i] = 0
	}
}
`
	fn, c := build(t, src, "fn")
	rec, ok := c.SCEV(indexAddrs(fn)[0].Index).(*AddRec)
	if !ok {
		t.Fatalf("index is not a recurrence")
	}
	if _, ok := rec.Start.(*Unknown); !ok {
		t.Fatalf("got start %s, want n", rec.Start)
	}
	if got := c.Sub(rec.Start, c.Mul(c.Const(1), rec.Start)); got != c.Const(0) {
		t.Errorf("n - 1*n = %s, want 0", got)
	}
	if got := c.Add(rec.Start, rec.Start); got != c.Mul(c.Const(2), rec.Start) {
		t.Errorf("n + n = %s, want 2*n", got)
	}
	if _, _, ok := c.BackedgeTakenCount(c.Info.Loops[0]); ok {
		t.Errorf("got a backedge count for a loop with a symbolic start")
	}
}

func TestFirstFailure(t *testing.T) {
	tests := []struct {
		op               token.Token
		start, step, lim int64
		want             int64
		ok               bool
	}{
		{token.LSS, 0, 1, 10, 10, true},
		{token.LEQ, 0, 1, 10, 11, true},
		{token.LSS, 0, 3, 10, 4, true},
		{token.LSS, 12, 1, 10, 0, true},
		{token.LSS, 0, -1, 10, 0, false},
		{token.GTR, 9, -1, -1, 10, true},
		{token.GEQ, 9, -1, 0, 10, true},
		{token.GTR, 9, 1, 0, 0, false},
		{token.NEQ, 0, 2, 10, 5, true},
		{token.NEQ, 0, 3, 10, 0, false},
		{token.EQL, 5, 1, 5, 1, true},
		{token.LSS, 0, 0, 10, 0, false},
	}
	for _, tt := range tests {
		got, ok := firstFailure(tt.op, tt.start, tt.step, tt.lim)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("firstFailure(%s, %d, %d, %d) = (%d, %t), want (%d, %t)",
				tt.op, tt.start, tt.step, tt.lim, got, ok, tt.want, tt.ok)
		}
	}
}

package loops_test

import (
	"testing"

	"github.com/Prince781/loopdep/debug"
	"github.com/Prince781/loopdep/go/loops"
)

func find(t *testing.T, src, name string) *loops.Info {
	t.Helper()
	fn, err := debug.Func(src, name)
	if err != nil {
		t.Fatal(err)
	}
	return loops.Find(fn)
}

func TestNoLoops(t *testing.T) {
	const src = `package pkg

func fn(x int) int {
	if x > 0 {
		return x
	}
	return -x
}
`
	info := find(t, src, "fn")
	if len(info.Loops) != 0 || len(info.All()) != 0 {
		t.Errorf("found loops in straight-line code")
	}
	for _, b := range info.Function.Blocks {
		if l := info.LoopFor(b); l != nil {
			t.Errorf("block %d is in loop %s", b.Index, l)
		}
	}
}

func TestNesting(t *testing.T) {
	const src = `package pkg

func fn(a [][]int) {
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			a[i][j] = 0
		}
		for k := 0; k < 10; k++ {
			a[i][k]++
		}
	}
	for m := 0; m < 3; m++ {
		a[m] = nil
	}
}
`
	info := find(t, src, "fn")
	if len(info.Loops) != 2 {
		t.Fatalf("got %d top-level loops, want 2", len(info.Loops))
	}
	outer, last := info.Loops[0], info.Loops[1]
	if len(outer.Children) != 2 || len(last.Children) != 0 {
		t.Fatalf("got %d and %d children, want 2 and 0", len(outer.Children), len(last.Children))
	}

	all := info.All()
	if len(all) != 4 {
		t.Fatalf("got %d loops, want 4", len(all))
	}
	for i, l := range all {
		if l.Index != i {
			t.Errorf("loop %s has index %d, want %d", l, l.Index, i)
		}
	}
	if all[0] != outer || all[1] != outer.Children[0] || all[2] != outer.Children[1] || all[3] != last {
		t.Errorf("loops are not in pre-order")
	}

	for _, c := range outer.Children {
		if c.Parent != outer || c.Depth != 2 {
			t.Errorf("loop %s: parent %v, depth %d", c, c.Parent, c.Depth)
		}
		if !outer.ContainsLoop(c) || c.ContainsLoop(outer) {
			t.Errorf("containment of %s and %s is wrong", outer, c)
		}
		if !outer.Contains(c.Header) {
			t.Errorf("%s does not contain the header of %s", outer, c)
		}
		if info.HeaderOf(c.Header) != c {
			t.Errorf("HeaderOf(%d) is not %s", c.Header.Index, c)
		}
		for _, b := range info.Direct(c) {
			if info.LoopFor(b) != c {
				t.Errorf("direct block %d of %s belongs to %s", b.Index, c, info.LoopFor(b))
			}
		}
	}
	for _, b := range info.Direct(outer) {
		for _, c := range outer.Children {
			if c.Contains(b) {
				t.Errorf("direct block %d of %s is part of %s", b.Index, outer, c)
			}
		}
	}
	if outer.Children[0].ContainsLoop(outer.Children[1]) {
		t.Errorf("sibling loops contain each other")
	}
}

func TestCanonicalIV(t *testing.T) {
	const src = `package pkg

func fn(a []int, n int) {
	for i := 0; i < n; i++ {
		a[i] = 0
	}
	for j := 10; j > 0; j-- {
		a[j] = 0
	}
}
`
	info := find(t, src, "fn")
	if len(info.Loops) != 2 {
		t.Fatalf("got %d loops, want 2", len(info.Loops))
	}
	up, down := info.Loops[0], info.Loops[1]
	for _, l := range info.Loops {
		if l.Latch() == nil || l.EntryPred() == nil {
			t.Errorf("loop %s has no single latch or entry", l)
		}
		if l.EntryPred() != nil && l.Contains(l.EntryPred()) {
			t.Errorf("entry of %s is inside the loop", l)
		}
		if len(l.ExitingBlocks(info.Function)) != 1 || l.ExitingBlocks(info.Function)[0] != l.Header {
			t.Errorf("loop %s does not exit from its header", l)
		}
	}

	phi := up.CanonicalIV()
	if phi == nil {
		t.Fatalf("no canonical induction variable for %s", up)
	}
	if phi.Comment != "i" {
		t.Errorf("got canonical variable %s, want i", phi.Comment)
	}
	if down.CanonicalIV() != nil {
		t.Errorf("counting down is not canonical")
	}
	if len(down.Phis()) == 0 {
		t.Errorf("loop %s has no φ-nodes", down)
	}
}

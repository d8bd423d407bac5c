package ilp

import (
	"math"
	"strings"
	"testing"
)

func bound(n int64) *int64 { return &n }

func TestLinearExprString(t *testing.T) {
	tests := []struct {
		e    LinearExpr
		want string
	}{
		{LinearExpr{}, "0"},
		{LinearExpr{Const: -3}, "-3"},
		{LinearExpr{Terms: []Term{{1, "x"}}}, "x"},
		{LinearExpr{Terms: []Term{{1, "x"}}, Const: 2}, "x + 2"},
		{LinearExpr{Terms: []Term{{-1, "x"}, {4, "y"}}, Const: -7}, "-x + 4*y - 7"},
		{LinearExpr{Terms: []Term{{3, "x"}, {-2, "y"}, {-1, "z"}}}, "3*x - 2*y - z"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"i.t0_a":  "i_t0_a",
		"x":       "x",
		"0abc":    "_0abc",
		"":        "_",
		"a-b c$d": "a_b_c_d",
		"π":       "__",
	}
	for in, want := range tests {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteTo(t *testing.T) {
	m := &Model{
		Label: "obj",
		Vars: []Var{
			{Name: "i_a", Lower: bound(0), Upper: bound(9)},
			{Name: "i_B", Lower: bound(0), Upper: bound(9)},
			{Name: "j_a"},
		},
		Objective: "i_a",
		Constraints: []Constraint{{
			Name: "eqn0",
			LHS:  LinearExpr{Terms: []Term{{1, "i_a"}}},
			RHS:  LinearExpr{Terms: []Term{{1, "i_B"}}, Const: 2},
		}},
	}
	const want = `var i_a >= 0 <= 9 integer;
var i_B >= 0 <= 9 integer;
var j_a integer;

maximize obj: i_a;

s.t. eqn0: i_a = i_B + 2;
solve;
display i_a, i_B, j_a;
end;
`
	var sb strings.Builder
	n, err := m.WriteTo(&sb)
	if err != nil {
		t.Fatal(err)
	}
	if got := sb.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	if int(n) != len(want) {
		t.Errorf("WriteTo reported %d bytes, wrote %d", n, len(want))
	}
}

func eq(name string, lhs, rhs LinearExpr) Constraint {
	return Constraint{Name: name, LHS: lhs, RHS: rhs}
}

func TestSolve(t *testing.T) {
	ia := LinearExpr{Terms: []Term{{1, "i_a"}}}
	ib := LinearExpr{Terms: []Term{{1, "i_B"}}}
	vars := func(lo, hi int64) []Var {
		return []Var{
			{Name: "i_a", Lower: bound(lo), Upper: bound(hi)},
			{Name: "i_B", Lower: bound(lo), Upper: bound(hi)},
		}
	}
	plus := func(e LinearExpr, k int64) LinearExpr {
		e.Const += k
		return e
	}
	times := func(e LinearExpr, k int64) LinearExpr {
		terms := make([]Term, len(e.Terms))
		for i, t := range e.Terms {
			terms[i] = Term{t.Coeff * k, t.Var}
		}
		return LinearExpr{Terms: terms, Const: e.Const * k}
	}

	tests := []struct {
		name string
		m    *Model
		want Status
	}{
		{"distance in range", &Model{Vars: vars(0, 9), Constraints: []Constraint{eq("eqn0", ia, plus(ib, 2))}}, Feasible},
		{"distance out of range", &Model{Vars: vars(0, 9), Constraints: []Constraint{eq("eqn0", ia, plus(ib, 10))}}, Infeasible},
		{"parity", &Model{Vars: vars(0, 100), Constraints: []Constraint{eq("eqn0", times(ia, 2), plus(times(ib, 2), 1))}}, Infeasible},
		{"empty loop", &Model{Vars: vars(0, -1), Constraints: []Constraint{eq("eqn0", ia, ib)}}, Infeasible},
		{"unbounded", &Model{Vars: []Var{{Name: "i_a"}, {Name: "i_B"}}, Constraints: []Constraint{eq("eqn0", ia, plus(ib, 1))}}, Unknown},
		{"unbounded parity", &Model{Vars: []Var{{Name: "i_a"}, {Name: "i_B"}}, Constraints: []Constraint{eq("eqn0", times(ia, 4), plus(times(ib, 4), 2))}}, Infeasible},
		{"constant mismatch", &Model{Vars: vars(0, 9), Constraints: []Constraint{eq("eqn0", LinearExpr{Const: 1}, LinearExpr{Const: 2})}}, Infeasible},
		{"two dimensions", &Model{Vars: vars(0, 9), Constraints: []Constraint{
			eq("eqn0", ia, plus(ib, 1)),
			eq("eqn1", plus(ia, 3), ib),
		}}, Infeasible},
		{"no constraints", &Model{Vars: vars(0, 9)}, Feasible},
		{"large bounds", &Model{Vars: vars(0, 1<<62), Constraints: []Constraint{eq("eqn0", times(ia, 2), plus(times(ib, 2), 2))}}, Feasible},
		{"large bounds odd coefficient", &Model{Vars: vars(0, 1<<62), Constraints: []Constraint{eq("eqn0", times(ia, 3), plus(times(ib, 3), 3))}}, Feasible},
		{"large negative bounds", &Model{Vars: vars(-1<<62, 0), Constraints: []Constraint{eq("eqn0", times(ia, 2), plus(times(ib, 2), -4))}}, Feasible},
		{"bounds at max", &Model{Vars: vars(math.MaxInt64-10, math.MaxInt64), Constraints: []Constraint{eq("eqn0", ia, plus(ib, 2))}}, Feasible},
		{"bounds at max out of range", &Model{Vars: vars(math.MaxInt64-1, math.MaxInt64), Constraints: []Constraint{eq("eqn0", ia, plus(ib, 5))}}, Infeasible},
		{"coefficient overflow", &Model{Vars: vars(0, 9), Constraints: []Constraint{
			eq("eqn0", LinearExpr{Terms: []Term{{math.MaxInt64, "i_a"}, {math.MaxInt64, "i_a"}}}, ib),
		}}, Unknown},
		{"constant overflow", &Model{Vars: vars(0, 9), Constraints: []Constraint{eq("eqn0", plus(ia, math.MinInt64), ib)}}, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Solve(tt.m, 0)
			if res.Status != tt.want {
				t.Fatalf("got %s, want %s", res.Status, tt.want)
			}
			if res.Status != Feasible {
				return
			}
			vals := map[string]int64{}
			for _, a := range res.Witness {
				vals[a.Var] = a.Value
			}
			eval := func(e LinearExpr) int64 {
				v := e.Const
				for _, t := range e.Terms {
					v += t.Coeff * vals[t.Var]
				}
				return v
			}
			for _, c := range tt.m.Constraints {
				if eval(c.LHS) != eval(c.RHS) {
					t.Errorf("witness %s violates %s", res, c)
				}
			}
		})
	}
}

func TestSolveBudget(t *testing.T) {
	var vars []Var
	var lhs LinearExpr
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		vars = append(vars, Var{Name: name, Lower: bound(0), Upper: bound(1000)})
		lhs.Terms = append(lhs.Terms, Term{3, name})
	}
	m := &Model{Vars: vars, Constraints: []Constraint{eq("eqn0", lhs, LinearExpr{Const: 15000})}}
	if got := Solve(m, 10).Status; got != Unknown {
		t.Errorf("got %s with a tiny budget, want unknown", got)
	}
}

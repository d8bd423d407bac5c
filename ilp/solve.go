package ilp

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/Prince781/loopdep/internal/intmath"
)

type Status int

const (
	// Unknown means that the search was inconclusive, either because
	// a variable is unbounded or because the budget ran out.
	Unknown Status = iota
	Feasible
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

type Result struct {
	Status Status
	// Witness holds one integer assignment satisfying all constraints,
	// if Status is Feasible.
	Witness []Assignment
}

type Assignment struct {
	Var   string
	Value int64
}

func (r Result) String() string {
	if r.Status != Feasible {
		return r.Status.String()
	}
	parts := make([]string, len(r.Witness))
	for i, a := range r.Witness {
		parts[i] = fmt.Sprintf("%s=%d", a.Var, a.Value)
	}
	return fmt.Sprintf("feasible (%s)", strings.Join(parts, ", "))
}

// equation is Σ coeffs[i]*x[vars[i]] = rhs, over variable indices.
type equation struct {
	vars   []int
	coeffs []int64
	rhs    int64
}

// DefaultBudget is the number of search nodes Solve visits by default.
const DefaultBudget = 1 << 16

// Solve decides whether m has an integer solution. Equalities whose
// coefficients' greatest common divisor does not divide the constant
// are rejected outright. Otherwise, if every constrained variable is
// bounded, Solve searches the bounded domain, visiting at most budget
// nodes. A non-positive budget means DefaultBudget.
func Solve(m *Model, budget int) Result {
	if budget <= 0 {
		budget = DefaultBudget
	}
	index := map[string]int{}
	for i, v := range m.Vars {
		index[v.Name] = i
	}

	var eqs []equation
	used := make([]bool, len(m.Vars))
	for _, c := range m.Constraints {
		eq, status := normalize(c, index)
		if status != Feasible {
			return Result{Status: status}
		}
		if len(eq.vars) == 0 {
			continue
		}
		for _, i := range eq.vars {
			used[i] = true
		}
		eqs = append(eqs, eq)
	}

	lo := make([]int64, len(m.Vars))
	hi := make([]int64, len(m.Vars))
	bounded := true
	for i, v := range m.Vars {
		if v.Lower != nil {
			lo[i] = *v.Lower
		}
		if v.Upper != nil {
			hi[i] = *v.Upper
		}
		if v.Lower != nil && v.Upper != nil && lo[i] > hi[i] {
			return Result{Status: Infeasible}
		}
		if used[i] && (v.Lower == nil || v.Upper == nil) {
			bounded = false
		}
		if v.Lower == nil {
			lo[i] = 0
			if v.Upper != nil && hi[i] < 0 {
				lo[i] = hi[i]
			}
		}
		if v.Upper == nil {
			hi[i] = lo[i]
		}
	}
	if !bounded {
		return Result{Status: Unknown}
	}

	s := &search{eqs: eqs, lo: lo, hi: hi, budget: budget}
	s.val = make([]int64, len(m.Vars))
	s.set = make([]bool, len(m.Vars))
	for i := range m.Vars {
		if used[i] {
			s.order = append(s.order, i)
		} else {
			s.val[i] = lo[i]
			s.set[i] = true
		}
	}
	switch s.dfs(0) {
	case Feasible:
		res := Result{Status: Feasible}
		for i, v := range m.Vars {
			res.Witness = append(res.Witness, Assignment{Var: v.Name, Value: s.val[i]})
		}
		return res
	case Infeasible:
		return Result{Status: Infeasible}
	default:
		return Result{Status: Unknown}
	}
}

// normalize moves all terms of c to the left and all constants to the
// right. It returns Infeasible if c has no integer solution regardless
// of the bounds, and Unknown if c uses an undeclared variable or its
// coefficients do not fit in an int64.
func normalize(c Constraint, index map[string]int) (equation, Status) {
	coeffs := map[int]int64{}
	var order []int
	add := func(e LinearExpr, sign int64) bool {
		for _, t := range e.Terms {
			i, ok := index[t.Var]
			if !ok {
				return false
			}
			if _, ok := coeffs[i]; !ok {
				order = append(order, i)
			}
			a, ok1 := intmath.Mul(sign, t.Coeff)
			v, ok2 := intmath.Add(coeffs[i], a)
			if !ok1 || !ok2 {
				return false
			}
			coeffs[i] = v
		}
		return true
	}
	if !add(c.LHS, 1) || !add(c.RHS, -1) {
		return equation{}, Unknown
	}
	rhs, ok := sub(c.RHS.Const, c.LHS.Const)
	if !ok {
		return equation{}, Unknown
	}

	eq := equation{rhs: rhs}
	var g int64
	for _, i := range order {
		a := coeffs[i]
		if a == 0 {
			continue
		}
		if a == math.MinInt64 {
			return equation{}, Unknown
		}
		eq.vars = append(eq.vars, i)
		eq.coeffs = append(eq.coeffs, a)
		g = intmath.GCD(g, a)
	}
	if len(eq.vars) == 0 {
		if eq.rhs != 0 {
			return equation{}, Infeasible
		}
		return eq, Feasible
	}
	if eq.rhs%g != 0 {
		return equation{}, Infeasible
	}
	return eq, Feasible
}

func sub(a, b int64) (int64, bool) {
	if b == math.MinInt64 {
		return 0, false
	}
	return intmath.Add(a, -b)
}

type search struct {
	eqs    []equation
	lo, hi []int64
	val    []int64
	set    []bool
	order  []int
	budget int
}

// A partial is an int64 that is only meaningful if ok. Once an operation
// on it overflows it stays unknown.
type partial struct {
	v  int64
	ok bool
}

func (b partial) plus(a, x int64) partial {
	if !b.ok {
		return b
	}
	p, ok1 := intmath.Mul(a, x)
	v, ok2 := intmath.Add(b.v, p)
	return partial{v, ok1 && ok2}
}

// possible reports whether every equation can still be satisfied by
// some assignment of the unset variables within their bounds. A side of
// the range that does not fit in an int64 is not checked.
func (s *search) possible() bool {
	for _, eq := range s.eqs {
		min, max := partial{ok: true}, partial{ok: true}
		for j, i := range eq.vars {
			a := eq.coeffs[j]
			if s.set[i] {
				min = min.plus(a, s.val[i])
				max = max.plus(a, s.val[i])
				continue
			}
			lo, hi := s.lo[i], s.hi[i]
			if a < 0 {
				lo, hi = hi, lo
			}
			min = min.plus(a, lo)
			max = max.plus(a, hi)
		}
		if (min.ok && eq.rhs < min.v) || (max.ok && eq.rhs > max.v) {
			return false
		}
	}
	return true
}

// satisfied reports whether the complete assignment solves every
// equation. Sums are exact, since possible skips sides that overflow.
func (s *search) satisfied() bool {
	var sum, t big.Int
	for _, eq := range s.eqs {
		sum.SetInt64(0)
		for j, i := range eq.vars {
			t.SetInt64(eq.coeffs[j])
			sum.Add(&sum, t.Mul(&t, big.NewInt(s.val[i])))
		}
		if !sum.IsInt64() || sum.Int64() != eq.rhs {
			return false
		}
	}
	return true
}

// forced reports whether some equation has i as its last unset
// variable. If so, x is the only value i can take, unless no integer
// value satisfies the equation, in which case none is set.
func (s *search) forced(i int) (x int64, ok, none bool) {
	for _, eq := range s.eqs {
		var a int64
		rest := partial{ok: true}
		only := true
		for j, v := range eq.vars {
			switch {
			case v == i:
				a = eq.coeffs[j]
			case s.set[v]:
				rest = rest.plus(eq.coeffs[j], s.val[v])
			default:
				only = false
			}
		}
		if !only || a == 0 || !rest.ok {
			continue
		}
		d, ok := sub(eq.rhs, rest.v)
		if !ok {
			continue
		}
		if d%a != 0 {
			return 0, true, true
		}
		return d / a, true, false
	}
	return 0, false, false
}

func (s *search) dfs(depth int) Status {
	if s.budget <= 0 {
		return Unknown
	}
	s.budget--
	if !s.possible() {
		return Infeasible
	}
	if depth == len(s.order) {
		if !s.satisfied() {
			return Infeasible
		}
		return Feasible
	}
	i := s.order[depth]
	lo, hi := s.lo[i], s.hi[i]
	if x, ok, none := s.forced(i); ok {
		if none || x < lo || x > hi {
			return Infeasible
		}
		lo, hi = x, x
	}
	if lo > hi {
		return Infeasible
	}
	status := Infeasible
	for x := lo; ; x++ {
		s.val[i], s.set[i] = x, true
		switch s.dfs(depth + 1) {
		case Feasible:
			return Feasible
		case Unknown:
			status = Unknown
		}
		if s.budget <= 0 {
			status = Unknown
			break
		}
		if x == hi {
			break
		}
	}
	s.set[i] = false
	return status
}

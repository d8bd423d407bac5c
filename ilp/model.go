// Package ilp describes integer linear programs and writes them in GNU
// MathProg syntax, as accepted by glpsol.
package ilp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type Var struct {
	Name string
	// A nil bound is unbounded.
	Lower, Upper *int64
}

type Term struct {
	Coeff int64
	Var   string
}

// A LinearExpr is Σ Terms + Const.
type LinearExpr struct {
	Terms []Term
	Const int64
}

func (e LinearExpr) String() string {
	var sb strings.Builder
	for i, t := range e.Terms {
		c := t.Coeff
		switch {
		case i == 0 && c < 0:
			sb.WriteString("-")
			c = -c
		case i > 0 && c < 0:
			sb.WriteString(" - ")
			c = -c
		case i > 0:
			sb.WriteString(" + ")
		}
		if c != 1 {
			fmt.Fprintf(&sb, "%d*", c)
		}
		sb.WriteString(t.Var)
	}
	switch {
	case len(e.Terms) == 0:
		fmt.Fprintf(&sb, "%d", e.Const)
	case e.Const > 0:
		fmt.Fprintf(&sb, " + %d", e.Const)
	case e.Const < 0:
		fmt.Fprintf(&sb, " - %d", -e.Const)
	}
	return sb.String()
}

// A Constraint is the equality LHS = RHS.
type Constraint struct {
	Name     string
	LHS, RHS LinearExpr
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s: %s = %s", c.Name, c.LHS, c.RHS)
}

// A Model is a feasibility problem. Its objective maximizes a single
// variable; the optimum itself carries no meaning.
type Model struct {
	// Label names the objective.
	Label       string
	Vars        []Var
	Objective   string
	Constraints []Constraint
}

// WriteTo writes m as a MathProg model.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: bufio.NewWriter(w)}
	for _, v := range m.Vars {
		fmt.Fprintf(cw, "var %s", v.Name)
		if v.Lower != nil {
			fmt.Fprintf(cw, " >= %d", *v.Lower)
		}
		if v.Upper != nil {
			fmt.Fprintf(cw, " <= %d", *v.Upper)
		}
		fmt.Fprint(cw, " integer;\n")
	}
	fmt.Fprintf(cw, "\nmaximize %s: %s;\n\n", m.Label, m.Objective)
	for _, c := range m.Constraints {
		fmt.Fprintf(cw, "s.t. %s;\n", c)
	}
	fmt.Fprint(cw, "solve;\n")
	names := make([]string, len(m.Vars))
	for i, v := range m.Vars {
		names[i] = v.Name
	}
	fmt.Fprintf(cw, "display %s;\n", strings.Join(names, ", "))
	fmt.Fprint(cw, "end;\n")
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

func (m *Model) String() string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}

type countWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (cw *countWriter) Write(b []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(b)
	cw.n += int64(n)
	cw.err = err
	return n, err
}

// Sanitize turns name into a valid MathProg symbolic name by replacing
// every character other than ASCII letters, digits and underscores with
// an underscore. Names must not start with a digit.
func Sanitize(name string) string {
	b := []byte(name)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			b[i] = '_'
		}
	}
	if len(b) == 0 || b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

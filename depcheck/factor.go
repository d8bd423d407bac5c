package depcheck

import "github.com/Prince781/loopdep/go/scev"

// factor rewrites e as by*q + rem', where rem' is rem plus whatever
// remainder factoring e produces. Division truncates towards zero.
// factor does not retry with other factors when a rule fails.
func factor(c *scev.Context, e, by, rem scev.Expr) (q, outRem scev.Expr, ok bool) {
	if f, ok := scev.ConstValue(by); ok && f == 1 {
		return e, rem, true
	}
	if e == by {
		return c.Const(1), rem, true
	}

	switch e := e.(type) {
	case *scev.Constant:
		if e.Value == 0 {
			return c.Const(0), rem, true
		}
		f, ok := scev.ConstValue(by)
		if !ok || f == 0 {
			return nil, nil, false
		}
		if e.Value/f == 0 {
			return nil, nil, false
		}
		return c.Const(e.Value / f), c.Add(rem, c.Const(e.Value%f)), true

	case *scev.Mul:
		k, ok := scev.ConstValue(e.Terms[0])
		if !ok {
			return nil, nil, false
		}
		f, ok := scev.ConstValue(by)
		if !ok || f == 0 || k%f != 0 {
			return nil, nil, false
		}
		terms := append([]scev.Expr{c.Const(k / f)}, e.Terms[1:]...)
		return c.Mul(terms...), rem, true

	case *scev.AddRec:
		step, stepRem, ok := factor(c, e.Step, by, c.Const(0))
		if !ok || !scev.IsZero(stepRem) {
			return nil, nil, false
		}
		start, rem, ok := factor(c, e.Start, by, rem)
		if !ok {
			return nil, nil, false
		}
		return c.AddRec(e.Loop, start, step, e.Flags), rem, true
	}
	return nil, nil, false
}

// Package intmath provides small integer helpers shared by the symbolic
// and ILP packages.
package intmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// GCD returns the greatest common divisor of |a| and |b|. GCD(0, 0) is 0.
func GCD[T constraints.Signed](a, b T) T {
	a, b = Abs(a), Abs(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// CeilDiv returns ⌈a/b⌉ for a >= 0 and b > 0.
func CeilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

// Add returns a+b and whether the sum fits in an int64.
func Add(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

// Mul returns a*b and whether the product fits in an int64.
func Mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return c, false
	}
	return c, c/b == a
}

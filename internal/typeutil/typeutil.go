// Package typeutil classifies the types of loop counters, seeing
// through type parameters to their core types.
package typeutil

import (
	"go/types"

	"golang.org/x/exp/typeparams"
)

// CoreType returns the core type of t, or nil if t is a type parameter
// whose type set has no single underlying type.
func CoreType(t types.Type) types.Type {
	tp, ok := t.(*typeparams.TypeParam)
	if !ok {
		return t.Underlying()
	}
	terms, err := typeparams.NormalTerms(tp)
	if err != nil || len(terms) == 0 {
		return nil
	}
	typ := terms[0].Type().Underlying()
	for _, term := range terms[1:] {
		if !types.Identical(typ, term.Type().Underlying()) {
			return nil
		}
	}
	return typ
}

// IsCounter reports whether values of type t can count loop
// iterations: integers, floats, uintptr and unsafe.Pointer.
func IsCounter(t types.Type) bool {
	basic, ok := CoreType(t).(*types.Basic)
	if !ok {
		return false
	}
	if basic.Info()&(types.IsInteger|types.IsFloat) != 0 {
		return true
	}
	return basic.Kind() == types.UnsafePointer
}

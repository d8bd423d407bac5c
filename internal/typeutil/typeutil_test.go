package typeutil

import (
	"go/types"
	"testing"
)

func TestIsCounter(t *testing.T) {
	pkg := types.NewPackage("pkg", "pkg")
	TInt := types.Typ[types.Int]
	TUint8 := types.Typ[types.Uint8]
	TMyInt := types.NewNamed(types.NewTypeName(0, pkg, "MyInt", nil), TInt, nil)

	typeParam := func(name string, terms ...*types.Term) *types.TypeParam {
		iface := types.NewInterfaceType(nil, []types.Type{types.NewUnion(terms)})
		return types.NewTypeParam(types.NewTypeName(0, pkg, name, nil), iface)
	}

	tests := []struct {
		typ  types.Type
		want bool
	}{
		{TInt, true},
		{TMyInt, true},
		{types.Typ[types.Uintptr], true},
		{types.Typ[types.Float64], true},
		{types.Typ[types.UnsafePointer], true},
		{types.Typ[types.String], false},
		{types.Typ[types.Bool], false},
		{types.NewPointer(TInt), false},
		{types.NewSlice(TInt), false},
		{typeParam("T", types.NewTerm(true, TInt)), true},
		{typeParam("U", types.NewTerm(false, TMyInt), types.NewTerm(false, TInt)), true},
		{typeParam("V", types.NewTerm(false, TInt), types.NewTerm(false, TUint8)), false},
	}
	for _, tt := range tests {
		if got := IsCounter(tt.typ); got != tt.want {
			t.Errorf("IsCounter(%s) = %t, want %t", tt.typ, got, tt.want)
		}
	}
}

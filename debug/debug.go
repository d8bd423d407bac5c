// Package debug contains helpers for debugging and testing the loop
// analyses.
package debug

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// BuildSSA parses, type-checks and builds a single-file Go package from
// a string. The package must only import packages from the standard
// library.
func BuildSSA(src string) (*ssa.Package, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "foo.go", src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	pkg := types.NewPackage("foo", f.Name.Name)
	tcfg := &types.Config{
		Importer: importer.Default(),
	}
	ssapkg, _, err := ssautil.BuildPackage(tcfg, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		return nil, err
	}
	return ssapkg, nil
}

// Func builds src like BuildSSA and returns the package-level function
// called name.
func Func(src, name string) (*ssa.Function, error) {
	pkg, err := BuildSSA(src)
	if err != nil {
		return nil, err
	}
	fn := pkg.Func(name)
	if fn == nil {
		return nil, fmt.Errorf("no function %q in package %s", name, pkg.Pkg.Path())
	}
	return fn, nil
}

package depcmd

import (
	"go/ast"
	"go/types"

	"github.com/Prince781/loopdep/config"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// sourceFunctions returns the functions declared in pkg's files,
// followed by the function literals they contain, in source order.
// Functions whose position is in seen are skipped, which drops the
// copies that test variants of a package carry.
func sourceFunctions(prog *ssa.Program, pkg *packages.Package, seen map[string]bool) []*ssa.Function {
	var out []*ssa.Function
	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		out = append(out, fn)
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}
	for _, f := range pkg.Syntax {
		for _, decl := range f.Decls {
			fdecl, ok := decl.(*ast.FuncDecl)
			if !ok || fdecl.Name.Name == "_" {
				continue
			}
			obj, ok := pkg.TypesInfo.Defs[fdecl.Name].(*types.Func)
			if !ok {
				continue
			}
			key := prog.Fset.Position(fdecl.Pos()).String()
			if seen[key] {
				continue
			}
			seen[key] = true
			if fn := prog.FuncValue(obj); fn != nil {
				add(fn)
			}
		}
	}
	return out
}

// filter returns the functions of fns that have a body and are not
// excluded by cfg.
func filter(fns []*ssa.Function, cfg config.Config) []*ssa.Function {
	out := fns[:0:0]
	for _, fn := range fns {
		if len(fn.Blocks) == 0 || cfg.Excluded(fn.String()) {
			continue
		}
		out = append(out, fn)
	}
	return out
}

// Package version reports the version of loopdep binaries.
package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"text/tabwriter"
)

// Version is set for releases. Other builds report the version of the
// main module, if any.
const Version = "devel"

// ssaModule builds the SSA form that loops and models are derived from.
// Its version decides how loops are lowered.
const ssaModule = "golang.org/x/tools"

// Info describes a loopdep binary.
type Info struct {
	Name    string
	Version string
	Release bool
	Go      string
	// Modules lists the main module first, then its dependencies. It is
	// empty for binaries built without module support.
	Modules []Module
}

type Module struct {
	Path    string
	Version string
	// Replacement is the path of the module replacing this one, if any.
	Replacement string
}

// Read describes the running binary.
func Read() Info {
	info := Info{
		Name:    filepath.Base(os.Args[0]),
		Version: Version,
		Release: Version != "devel",
		Go:      runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if !info.Release && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	info.Modules = append(info.Modules, module(&bi.Main))
	for _, dep := range bi.Deps {
		info.Modules = append(info.Modules, module(dep))
	}
	return info
}

func module(m *debug.Module) Module {
	mod := Module{Path: m.Path, Version: m.Version}
	if m.Replace != nil {
		mod.Replacement = m.Replace.Path
	}
	return mod
}

// SSA returns the version of the SSA builder the binary was built with,
// or the empty string.
func (info Info) SSA() string {
	for _, m := range info.Modules {
		if m.Path == ssaModule {
			return m.Version
		}
	}
	return ""
}

// String returns a one-line summary, such as "loopdep v0.1.0" or
// "loopdep (devel, v0.0.0-...)".
func (info Info) String() string {
	switch {
	case info.Release:
		return fmt.Sprintf("%s %s", info.Name, info.Version)
	case info.Version == "devel":
		return fmt.Sprintf("%s (no version)", info.Name)
	default:
		return fmt.Sprintf("%s (devel, %s)", info.Name, info.Version)
	}
}

// WriteTo writes the summary followed by a table of the Go version, the
// SSA builder and all modules.
func (info Info) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	fmt.Fprintln(cw, info)
	fmt.Fprintln(cw)
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "go\t%s\n", info.Go)
	if v := info.SSA(); v != "" {
		fmt.Fprintf(tw, "ssa\t%s %s\n", ssaModule, v)
	}
	if len(info.Modules) == 0 {
		fmt.Fprintln(tw, "modules\tnone")
	}
	for i, m := range info.Modules {
		kind := "dep"
		if i == 0 {
			kind = "main"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s", kind, m.Path, m.Version)
		if m.Replacement != "" {
			fmt.Fprintf(tw, "\t=> %s", m.Replacement)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

type countWriter struct {
	w   io.Writer
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

func Print(w io.Writer) {
	fmt.Fprintln(w, Read())
}

func Verbose(w io.Writer) {
	Read().WriteTo(w)
}

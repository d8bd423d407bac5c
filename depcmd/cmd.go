// Package depcmd implements the frontend of loopdep: it parses flags,
// loads packages and writes the dependence models of all their loops
// to a single file.
package depcmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/Prince781/loopdep/config"
	"github.com/Prince781/loopdep/depcheck"
	"github.com/Prince781/loopdep/version"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Command represents a loopdep command line tool.
type Command struct {
	name  string
	flags flags
}

// NewCommand returns a new Command.
func NewCommand(name string) *Command {
	cmd := &Command{name: name}
	cmd.initFlagSet(name)
	return cmd
}

// ParseFlags parses command line flags.
// It must be called before calling Run.
func (cmd *Command) ParseFlags(args []string) {
	cmd.flags.fs.Parse(args)
}

// Run loads the packages named on the command line and writes their
// models. It always calls os.Exit and does not return.
func (cmd *Command) Run() {
	exit := func(code int) {
		if cmd.flags.debugCpuprofile != "" {
			pprof.StopCPUProfile()
		}
		if path := cmd.flags.debugMemprofile; path != "" {
			f, err := os.Create(path)
			if err != nil {
				panic(err)
			}
			runtime.GC()
			pprof.WriteHeapProfile(f)
		}
		os.Exit(code)
	}
	if path := cmd.flags.debugCpuprofile; path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
	}

	if cmd.flags.debugVersion {
		version.Verbose(os.Stdout)
		exit(0)
	}
	if cmd.flags.printVersion {
		version.Print(os.Stdout)
		exit(0)
	}

	cfg, err := cmd.config()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Output == "" {
		log.Fatal("no output file; use -o or set output in loopdep.conf")
	}

	patterns := cmd.flags.fs.Args()
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	fns, err := load(patterns, cmd.flags.tests, cmd.flags.tags)
	if err != nil {
		log.Fatal(err)
	}
	fns = filter(fns, cfg)

	var traceW io.Writer
	if cfg.Trace {
		traceW = os.Stderr
	}
	units, err := analyze(context.Background(), fns, cfg, cmd.flags.jobs, traceW)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		log.Fatal(err)
	}
	n, err := writeModels(f, units)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal(err)
	}
	if n == 0 {
		log.Printf("no models written to %s", cfg.Output)
	}
	exit(0)
}

// config returns the configuration of the working directory, or of the
// file named by -config, with command line flags applied on top.
func (cmd *Command) config() (config.Config, error) {
	var cfg config.Config
	var err error
	if cmd.flags.config != "" {
		cfg, err = config.LoadFile(cmd.flags.config)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return config.Config{}, err
	}
	cmd.flags.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output = cmd.flags.output
		case "objective":
			cfg.Objective = cmd.flags.objective
		case "trace":
			cfg.Trace = cmd.flags.trace
		case "wide":
			cfg.WideOperands = cmd.flags.wide
		case "budget":
			cfg.SolveBudget = cmd.flags.budget
		}
	})
	return cfg, nil
}

func load(patterns []string, tests bool, tags string) ([]*ssa.Function, error) {
	pcfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedImports | packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax | packages.NeedTypesInfo,
		Tests: tests,
	}
	if tags != "" {
		pcfg.BuildFlags = []string{"-tags", tags}
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, err
	}
	var errs []string
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, err := range pkg.Errors {
			errs = append(errs, err.Error())
		}
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("packages contain errors:\n%s", strings.Join(errs, "\n"))
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
	prog, ssapkgs := ssautil.Packages(pkgs, 0)
	prog.Build()
	var fns []*ssa.Function
	seen := map[string]bool{}
	for i, pkg := range pkgs {
		if ssapkgs[i] == nil || strings.HasSuffix(pkg.ID, ".test") {
			// The generated main package of a test binary.
			continue
		}
		fns = append(fns, sourceFunctions(prog, pkg, seen)...)
	}
	return fns, nil
}

// analyze checks every function in fns, using up to jobs goroutines.
// The results are in the order of fns. Traces are buffered per function
// and written to trace in the same order.
func analyze(ctx context.Context, fns []*ssa.Function, cfg config.Config, jobs int, trace io.Writer) ([]*depcheck.FuncResult, error) {
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]*depcheck.FuncResult, len(fns))
	traces := make([]bytes.Buffer, len(fns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := &depcheck.Options{
				WideOperands: cfg.WideOperands,
				SolveBudget:  cfg.SolveBudget,
				Objective:    cfg.Objective,
			}
			if trace != nil {
				opts.Trace = &traces[i]
			}
			out[i] = depcheck.Analyze(fn, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if trace != nil {
		for i := range traces {
			if _, err := traces[i].WriteTo(trace); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

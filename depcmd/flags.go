package depcmd

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/Prince781/loopdep/ilp"
)

type flags struct {
	fs *flag.FlagSet

	output       string
	config       string
	objective    string
	trace        bool
	wide         bool
	budget       int
	jobs         int
	tags         string
	tests        bool
	printVersion bool

	debugCpuprofile string
	debugMemprofile string
	debugVersion    bool
}

func (cmd *Command) initFlagSet(name string) {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	cmd.flags.fs = fs
	fs.Usage = usage(name, fs)

	fs.StringVar(&cmd.flags.output, "o", "", "Write models to `file`")
	fs.StringVar(&cmd.flags.config, "config", "", "Read configuration from `file` instead of looking up loopdep.conf")
	fs.StringVar(&cmd.flags.objective, "objective", "obj", "`Label` of every model's objective")
	fs.BoolVar(&cmd.flags.trace, "trace", false, "Print the analysis of every loop to stderr")
	fs.BoolVar(&cmd.flags.wide, "wide", false, "Follow every operand of an access, not only its address")
	fs.IntVar(&cmd.flags.budget, "budget", ilp.DefaultBudget, "Search `nodes` spent on each access pair")
	fs.IntVar(&cmd.flags.jobs, "j", 0, "Analyze up to `n` functions in parallel (0 means GOMAXPROCS)")
	fs.StringVar(&cmd.flags.tags, "tags", "", "List of `build tags`")
	fs.BoolVar(&cmd.flags.tests, "tests", false, "Include tests")
	fs.BoolVar(&cmd.flags.printVersion, "version", false, "Print version and exit")

	fs.StringVar(&cmd.flags.debugCpuprofile, "debug.cpuprofile", "", "Write CPU profile to `file`")
	fs.StringVar(&cmd.flags.debugMemprofile, "debug.memprofile", "", "Write memory profile to `file`")
	fs.BoolVar(&cmd.flags.debugVersion, "debug.version", false, "Print detailed version information about this program")
}

func usage(name string, fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [packages]\n", name)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		printDefaults(fs)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags override the settings of loopdep.conf.")
		fmt.Fprintln(os.Stderr, "For help about specifying packages, see 'go help packages'")
	}
}

// isZeroValue determines whether the string represents the zero
// value for a flag.
//
// this function has been copied from the Go standard library's 'flag' package.
func isZeroValue(f *flag.Flag, value string) bool {
	typ := reflect.TypeOf(f.Value)
	var z reflect.Value
	if typ.Kind() == reflect.Ptr {
		z = reflect.New(typ.Elem())
	} else {
		z = reflect.Zero(typ)
	}
	return value == z.Interface().(flag.Value).String()
}

// this function has been copied from the Go standard library's 'flag' package and modified to skip debug flags.
func printDefaults(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "debug.") {
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "  -%s", f.Name)
		name, usage := flag.UnquoteUsage(f)
		if len(name) > 0 {
			b.WriteString(" ")
			b.WriteString(name)
		}
		if b.Len() <= 4 { // space, space, '-', 'x'.
			b.WriteString("\t")
		} else {
			b.WriteString("\n    \t")
		}
		b.WriteString(strings.ReplaceAll(usage, "\n", "\n    \t"))

		if !isZeroValue(f, f.DefValue) {
			if _, ok := f.Value.(interface{ IsBoolFlag() bool }); ok {
				fmt.Fprintf(&b, " (default %v)", f.DefValue)
			} else {
				fmt.Fprintf(&b, " (default %q)", f.DefValue)
			}
		}
		fmt.Fprint(os.Stderr, b.String(), "\n")
	})
}

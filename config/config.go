// Package config loads loopdep.conf files.
//
// Configuration files are looked up in the target directory and all of
// its parents. Files closer to the target override files further away,
// which in turn override the defaults. Only keys that a file sets take
// effect; lists may refer to the list they override with "inherit".
package config

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

type config struct {
	cfg  Config
	meta toml.MetaData
}

func mergeLists(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, el := range b {
		if el == "inherit" {
			out = append(out, a...)
		} else {
			out = append(out, el)
		}
	}
	return out
}

func normalizeList(list []string) []string {
	if len(list) > 1 {
		sort.Strings(list)
		nlist := make([]string, 0, len(list))
		nlist = append(nlist, list[0])
		for i, el := range list[1:] {
			if el != list[i] {
				nlist = append(nlist, el)
			}
		}
		list = nlist
	}

	for _, el := range list {
		if el == "inherit" {
			// The default config never uses "inherit".
			panic(`unresolved "inherit"`)
		}
	}
	return list
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("output") {
		cfg.cfg.Output = ocfg.cfg.Output
	}
	if ocfg.meta.IsDefined("objective") {
		cfg.cfg.Objective = ocfg.cfg.Objective
	}
	if ocfg.meta.IsDefined("wide_operands") {
		cfg.cfg.WideOperands = ocfg.cfg.WideOperands
	}
	if ocfg.meta.IsDefined("solve_budget") {
		cfg.cfg.SolveBudget = ocfg.cfg.SolveBudget
	}
	if ocfg.meta.IsDefined("trace") {
		cfg.cfg.Trace = ocfg.cfg.Trace
	}
	if ocfg.meta.IsDefined("exclude") {
		cfg.cfg.Exclude = mergeLists(cfg.cfg.Exclude, ocfg.cfg.Exclude)
	}
	return cfg
}

type Config struct {
	// Output is the file that models are written to. Relative paths are
	// relative to the working directory.
	Output string `toml:"output"`
	// Objective labels the objective of every model.
	Objective    string `toml:"objective"`
	WideOperands bool   `toml:"wide_operands"`
	// SolveBudget limits the search nodes spent on each access pair.
	SolveBudget int  `toml:"solve_budget"`
	Trace       bool `toml:"trace"`
	// Exclude lists patterns, in the syntax of path.Match, of functions
	// that are not analyzed. Functions are named like
	// example.com/pkg.Func, (*example.com/pkg.T).Method or
	// example.com/pkg.Func$1 for function literals.
	Exclude []string `toml:"exclude"`
}

// Excluded reports whether the function called name is excluded.
func (cfg Config) Excluded(name string) bool {
	for _, pat := range cfg.Exclude {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}

var defaultConfig = Config{
	Objective:   "obj",
	SolveBudget: 1 << 16,
	Exclude:     []string{},
}

// Default returns the configuration used when no file sets anything.
func Default() Config {
	cfg := defaultConfig
	cfg.Exclude = append([]string{}, defaultConfig.Exclude...)
	return cfg
}

const configName = "loopdep.conf"

func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		f, err := os.Open(filepath.Join(dir, configName))
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var cfg Config
		meta, err := toml.NewDecoder(f).Decode(&cfg)
		f.Close()
		if err != nil {
			return nil, &ParseError{Filename: filepath.Join(dir, configName), Err: err}
		}
		out = append(out, config{cfg, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  Default(),
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

// ParseError is returned for configuration files that are not valid
// TOML.
type ParseError struct {
	Filename string
	Err      error
}

func (err *ParseError) Error() string {
	return err.Filename + ": " + err.Err.Error()
}

func (err *ParseError) Unwrap() error { return err.Err }

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// There is always at least the default config.
		panic("trying to merge zero configs")
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}
	return conf.cfg
}

// Load returns the configuration for the target directory dir.
func Load(dir string) (Config, error) {
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := mergeConfigs(confs)
	conf.Exclude = normalizeList(conf.Exclude)
	return conf, nil
}

// LoadFile returns the configuration in the file name, merged with the
// defaults. No other files are consulted.
func LoadFile(name string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(name, &cfg)
	if err != nil {
		return Config{}, &ParseError{Filename: name, Err: err}
	}
	conf := mergeConfigs([]config{{cfg: Default()}, {cfg, meta}})
	conf.Exclude = normalizeList(conf.Exclude)
	return conf, nil
}

// Package config describes one LLVM libc build and projects it into CMake
// cache definitions.
package config

import (
	"sort"
	"strconv"
	"strings"
)

// Definer is the write-only side of a CMake definition store.
// A later Define of the same key replaces the earlier value.
type Definer interface {
	Define(key, value string)
}

// Translator is implemented by every part of a Config that knows how to
// write itself into a definition store.
type Translator interface {
	AddTo(d Definer)
}

// Config is the complete set of options for a single libc build.
type Config struct {
	// Path is the libc source tree handed to CMake.
	Path      string `yaml:"-"`
	FullBuild bool   `yaml:"full_build"`
	// ScudoPath points at a compiler-rt tree providing the scudo allocator.
	// Empty means scudo is not built.
	ScudoPath string `yaml:"scudo_path"`

	Codegen    CodegenOpts `yaml:"codegen"`
	Errno      ErrnoMode   `yaml:"errno_mode"`
	NullChecks NullChecks  `yaml:"null_checks"`
	Math       MathOpts    `yaml:"math"`
	Printf     PrintfOpts  `yaml:"printf"`
	PThread    PThreadOpts `yaml:"pthread"`
	QSort      QSortImpl   `yaml:"qsort_impl"`
	Scanf      ScanfOpts   `yaml:"scanf"`
	Setjmp     SetjmpOpts  `yaml:"setjmp"`
	String     StringOpts  `yaml:"string"`
	Time       TimeOpts    `yaml:"time"`
}

var _ Translator = Config{}

// Default returns the stock configuration for the libc tree at path.
func Default(path string) Config {
	return Config{
		Path:       path,
		FullBuild:  true,
		Errno:      ErrnoDefault,
		NullChecks: true,
		PThread:    DefaultPThreadOpts(),
		QSort:      QSortQuickSort,
	}
}

// DefaultWithScudo is Default with the scudo allocator taken from the
// compiler-rt tree at scudoPath.
func DefaultWithScudo(path, scudoPath string) Config {
	c := Default(path)
	c.ScudoPath = scudoPath
	return c
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.Math = c.Math.clone()
	return c
}

// AddTo writes every definition implied by c.
func (c Config) AddTo(d Definer) {
	d.Define("LLVM_COMPILER_IS_GCC_COMPATIBLE", "ON")
	d.Define("LLVM_RUNTIMES_BUILD", "ON")
	d.Define("LLVM_LIBC_FULL_BUILD", strconv.FormatBool(c.FullBuild))
	if c.ScudoPath != "" {
		d.Define("LLVM_LIBC_COMPILER_RT_PATH", c.ScudoPath)
		d.Define("COMPILER_RT_BUILD_SCUDO_STANDALONE_WITH_LLVM_LIBC", "ON")
		d.Define("COMPILER_RT_SCUDO_STANDALONE_BUILD_SHARED", "OFF")
		d.Define("LLVM_LIBC_INCLUDE_SCUDO", "ON")
		d.Define("COMPILER_RT_STANDALONE_BUILD", "ON")
	}
	for _, t := range c.parts() {
		t.AddTo(d)
	}
}

func (c Config) parts() []Translator {
	return []Translator{
		c.Codegen,
		c.Errno,
		c.NullChecks,
		c.Math,
		c.Printf,
		c.PThread,
		c.QSort,
		c.Scanf,
		c.Setjmp,
		c.String,
		c.Time,
	}
}

// Defines is an in-memory definition store.
type Defines map[string]string

var _ Definer = Defines(nil)

// Collect runs t against a fresh store and returns it.
func Collect(t Translator) Defines {
	d := make(Defines)
	t.AddTo(d)
	return d
}

func (d Defines) Define(key, value string) {
	d[key] = value
}

// Keys returns the defined keys in sorted order.
func (d Defines) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders one KEY=VALUE line per definition, sorted by key.
func (d Defines) String() string {
	var sb strings.Builder
	for _, k := range d.Keys() {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(d[k])
		sb.WriteByte('\n')
	}
	return sb.String()
}

package build

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goplus/llvmlibc/config"
	"github.com/goplus/llvmlibc/internal/archive"
	"github.com/goplus/llvmlibc/internal/env"
	"github.com/goplus/llvmlibc/pkgs/buildsys"
	"github.com/goplus/llvmlibc/pkgs/buildsys/cmake"
)

// Targets are built in this order. The root returned by the first one is
// where every artifact is looked up.
var Targets = []string{
	"libc",
	"libm",
	"libc.startup.linux.crt1.__relocatable__",
	"libc.startup.linux.crti",
	"libc.startup.linux.crtn",
}

// StartupLib is the archive the startup objects are merged into.
const StartupLib = "startup"

// Archiver merges objects into archives.
type Archiver interface {
	Env(key, value string)
	Assemble(dest string, objects ...string) error
	Placeholder(stub, dest string) (archive.Outcome, error)
}

// Options configures a Builder. Zero values pick the defaults noted on
// each field.
type Options struct {
	// SourceRoot holds src/libc and src/compiler-rt.
	// Defaults to env.SourceRoot.
	SourceRoot string

	// OutDir receives the CMake tree and the build record.
	// Defaults to env.OutDir.
	OutDir string

	// ConfigFile, if set, holds YAML overrides for the default config.
	ConfigFile string

	// NoScudo builds without the scudo allocator.
	NoScudo bool

	// Placeholders names libraries to synthesize as empty archives,
	// e.g. "unwind".
	Placeholders []string

	// PlaceholderDir is where placeholder archives live.
	// Defaults to the library output directory.
	PlaceholderDir string

	// Lookup reads the environment. Defaults to os.LookupEnv.
	Lookup env.LookupFunc

	// Output receives the link directives in Format. Nil skips emission.
	Output io.Writer
	Format Format

	NewBuildSystem func(sourceDir, outDir string) buildsys.BuildSystem
	NewArchiver    func(e env.Environment) Archiver

	Logger *slog.Logger
}

// Builder runs the libc build pipeline.
type Builder struct {
	opts Options
	log  *slog.Logger
}

func NewBuilder(opts Options) *Builder {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Format == "" {
		opts.Format = FormatCargo
	}
	if opts.NewBuildSystem == nil {
		opts.NewBuildSystem = newCMake
	}
	if opts.NewArchiver == nil {
		opts.NewArchiver = newArchiver
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Builder{opts: opts, log: log}
}

func newCMake(sourceDir, outDir string) buildsys.BuildSystem {
	c := cmake.New(sourceDir, outDir)
	c.MinVersion(cmake.RequiredVersion)
	return c
}

func newArchiver(e env.Environment) Archiver {
	return archive.New("ar", e.CC)
}

// StartupObjects returns crt1, crti and crtn under root, in archive order.
func StartupObjects(root string) []string {
	dir := filepath.Join(root, "build", "startup", "linux")
	return []string{
		filepath.Join(dir, "crt1.o"),
		filepath.Join(dir, "CMakeFiles", "libc.startup.linux.crti.dir", "crti.cpp.o"),
		filepath.Join(dir, "CMakeFiles", "libc.startup.linux.crtn.dir", "crtn.cpp.o"),
	}
}

// LibDir returns the library output directory under root.
func LibDir(root string) string {
	return filepath.Join(root, "build", "lib")
}

// Build runs every step in order and stops at the first failure. All
// returned errors are *Error.
func (b *Builder) Build() (*Result, error) {
	start := time.Now()

	// Resolve
	cfg, srcRoot, err := ResolveConfig(b.opts)
	if err != nil {
		return nil, err
	}
	if err := checkPlaceholderNames(b.opts.Placeholders); err != nil {
		return nil, err
	}

	// Default toolchain
	e, err := env.Resolve(b.opts.Lookup)
	if err != nil {
		return nil, &Error{Code: ErrCodeMissingEnvironment, Message: "cannot select target", Err: err}
	}
	triple := e.Triple()
	outDir := b.opts.OutDir
	if outDir == "" {
		if outDir, err = env.OutDir(b.opts.Lookup, triple); err != nil {
			return nil, &Error{Code: ErrCodeMissingEnvironment, Message: "cannot select output directory", Err: err}
		}
	}
	b.log.Info("toolchain resolved", "cc", e.CC, "cxx", e.CXX, "triple", triple)

	// Configure
	bs := b.opts.NewBuildSystem(cfg.Path, outDir)
	cfg.AddTo(bs)
	for k, v := range e.Vars() {
		bs.Env(k, v)
	}
	bs.Target(triple)

	// Build targets
	var root string
	for i, target := range Targets {
		b.log.Info("building target", "target", target)
		dir, err := bs.BuildTarget(target)
		if err != nil {
			return nil, &Error{Code: ErrCodeExternalBuild, Message: "build failed", Target: target, Err: err}
		}
		if i == 0 {
			root = dir
		}
	}

	// Resolve artifacts
	objects := StartupObjects(root)
	libDir := LibDir(root)
	startup := filepath.Join(libDir, "lib"+StartupLib+".a")
	b.log.Debug("startup objects", "objects", objects)

	// Assemble
	ar := b.opts.NewArchiver(e)
	for k, v := range e.Vars() {
		ar.Env(k, v)
	}
	if err := ar.Assemble(startup, objects...); err != nil {
		return nil, &Error{Code: ErrCodeArchiver, Message: "cannot assemble startup archive", Paths: []string{startup}, Err: err}
	}
	b.log.Info("startup archive assembled", "path", startup)

	placeholderDir := b.opts.PlaceholderDir
	if placeholderDir == "" {
		placeholderDir = libDir
	}
	placeholders, err := b.placeholders(ar, placeholderDir)
	if err != nil {
		return nil, err
	}

	// Emit linkage metadata
	link := Directives{
		SearchPaths: []string{libDir},
		StaticLibs:  []string{"c", "m", StartupLib},
	}
	if len(placeholders) > 0 && filepath.Clean(placeholderDir) != filepath.Clean(libDir) {
		link.SearchPaths = append(link.SearchPaths, placeholderDir)
	}
	for _, p := range placeholders {
		link.StaticLibs = append(link.StaticLibs, p.Name)
	}

	res := &Result{
		ID:           newRunID(),
		Triple:       triple,
		SourceDir:    srcRoot,
		Root:         root,
		Targets:      append([]string(nil), Targets...),
		Startup:      startup,
		Placeholders: placeholders,
		Link:         link,
		BuildTime:    start,
	}
	if err := saveResult(outDir, res); err != nil {
		return nil, &Error{Code: ErrCodeOutput, Message: "cannot save build record", Paths: []string{filepath.Join(outDir, RecordFile)}, Err: err}
	}
	if b.opts.Output != nil {
		if err := link.Write(b.opts.Output, b.opts.Format); err != nil {
			return nil, &Error{Code: ErrCodeOutput, Message: "cannot emit link directives", Err: err}
		}
	}
	b.log.Info("build finished", "id", res.ID, "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

// ResolveConfig returns the configuration opts describes and the absolute
// source root it was derived from. Only the source, config and scudo fields
// of opts are used.
func ResolveConfig(opts Options) (config.Config, string, error) {
	srcRoot := opts.SourceRoot
	if srcRoot == "" {
		dir, err := env.SourceRoot(opts.Lookup)
		if err != nil {
			return config.Config{}, "", &Error{Code: ErrCodeMissingEnvironment, Message: "cannot locate sources", Err: err}
		}
		srcRoot = dir
	}
	srcRoot, err := filepath.Abs(srcRoot)
	if err != nil {
		return config.Config{}, "", &Error{Code: ErrCodeMissingEnvironment, Message: "cannot locate sources", Paths: []string{opts.SourceRoot}, Err: err}
	}

	cfg := config.DefaultWithScudo(
		filepath.Join(srcRoot, "src", "libc"),
		filepath.Join(srcRoot, "src", "compiler-rt"),
	)
	if opts.NoScudo {
		cfg.ScudoPath = ""
	}
	if opts.ConfigFile != "" {
		if cfg, err = config.Load(opts.ConfigFile, cfg); err != nil {
			return config.Config{}, "", &Error{Code: ErrCodeInvalidConfig, Message: "cannot apply config file", Paths: []string{opts.ConfigFile}, Err: err}
		}
	}
	return cfg, srcRoot, nil
}

// checkPlaceholderNames rejects names that would not land directly in the
// placeholder directory as lib<name>.a.
func checkPlaceholderNames(names []string) error {
	for _, name := range names {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return &Error{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid placeholder name %q", name)}
		}
	}
	return nil
}

// placeholders synthesizes every requested placeholder archive. Archives
// created by this run are reported together as drift once all exist.
func (b *Builder) placeholders(ar Archiver, dir string) ([]Placeholder, error) {
	if len(b.opts.Placeholders) == 0 {
		return nil, nil
	}
	tmp, err := os.MkdirTemp("", "llvmlibc-placeholder-")
	if err != nil {
		return nil, &Error{Code: ErrCodeArchiver, Message: "cannot create placeholder workspace", Err: err}
	}
	defer os.RemoveAll(tmp)
	stub, err := archive.WriteStub(tmp)
	if err != nil {
		return nil, &Error{Code: ErrCodeArchiver, Message: "cannot write placeholder stub", Paths: []string{tmp}, Err: err}
	}

	var (
		out   []Placeholder
		fresh []string
	)
	for _, name := range b.opts.Placeholders {
		dest := filepath.Join(dir, "lib"+name+".a")
		outcome, err := ar.Placeholder(stub, dest)
		if err != nil {
			return nil, &Error{Code: ErrCodeArchiver, Message: "cannot synthesize placeholder " + name, Paths: []string{dest}, Err: err}
		}
		b.log.Info("placeholder archive", "name", name, "path", dest, "outcome", outcome)
		if outcome == archive.NeedsReview {
			fresh = append(fresh, dest)
		}
		out = append(out, Placeholder{Name: name, Path: dest, Outcome: outcome})
	}
	if len(fresh) > 0 {
		return nil, &Error{
			Code:    ErrCodePlaceholderDrift,
			Message: "new placeholder archives were created; inspect and commit them, then rerun",
			Paths:   fresh,
		}
	}
	return out, nil
}

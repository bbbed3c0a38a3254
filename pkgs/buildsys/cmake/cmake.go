// Package cmake drives a CMake build tree one target at a time.
package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goplus/llvmlibc/pkgs/buildsys"
)

// CMake wraps the configure and build steps of a single CMake tree.
//
// Output layout follows <outDir>/build for the binary tree and <outDir> as
// the install prefix.
type CMake struct {
	sourceDir  string
	outDir     string
	generator  string
	buildType  string
	target     string
	minVersion string
	defines    map[string]string
	env        map[string]string
	run        buildsys.Runner
	configured bool
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New returns a CMake for the tree at sourceDir writing under outDir.
func New(sourceDir, outDir string) *CMake {
	return &CMake{
		sourceDir: sourceDir,
		outDir:    outDir,
		buildType: "Release",
		defines:   make(map[string]string),
		env:       make(map[string]string),
		run:       buildsys.Run,
	}
}

// Source overrides the source directory.
func (c *CMake) Source(dir string) { c.sourceDir = dir }

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) { c.generator = name }

// BuildType sets CMAKE_BUILD_TYPE. Empty leaves it to CMake.
func (c *CMake) BuildType(name string) { c.buildType = name }

// Target sets the compiler target triple for C, C++ and assembly.
func (c *CMake) Target(triple string) { c.target = triple }

// MinVersion makes Configure fail when the cmake binary is older than v.
func (c *CMake) MinVersion(v string) { c.minVersion = v }

// Runner replaces how commands are executed.
func (c *CMake) Runner(r buildsys.Runner) { c.run = r }

// Define adds a -D<key>=<value> definition.
func (c *CMake) Define(key, value string) {
	c.defines[key] = value
}

// Defines returns a copy of the collected definitions.
func (c *CMake) Defines() map[string]string {
	out := make(map[string]string, len(c.defines))
	for k, v := range c.defines {
		out[k] = v
	}
	return out
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// BuildDir returns the CMake binary tree.
func (c *CMake) BuildDir() string {
	return filepath.Join(c.outDir, "build")
}

// OutputDir returns the root that BuildTarget reports.
func (c *CMake) OutputDir() string {
	return c.outDir
}

// Configure runs "cmake -S <source> -B <out>/build" with all definitions.
// Extra args are appended at the end.
func (c *CMake) Configure(args ...string) error {
	if c.minVersion != "" {
		if err := c.CheckVersion(c.minVersion); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(c.BuildDir(), 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.BuildDir()}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	c.Define("CMAKE_INSTALL_PREFIX", c.outDir)
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	if c.target != "" {
		c.Define("CMAKE_C_COMPILER_TARGET", c.target)
		c.Define("CMAKE_CXX_COMPILER_TARGET", c.target)
		c.Define("CMAKE_ASM_COMPILER_TARGET", c.target)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	if err := c.run(buildsys.Command("cmake", cmakeArgs, c.env)); err != nil {
		return fmt.Errorf("cmake: configure %s: %w", c.sourceDir, err)
	}
	c.configured = true
	return nil
}

// BuildTarget configures the tree on first use, then runs
// "cmake --build <out>/build --target <name>". It returns OutputDir.
func (c *CMake) BuildTarget(name string) (string, error) {
	if !c.configured {
		if err := c.Configure(); err != nil {
			return "", err
		}
	}
	args := []string{"--build", c.BuildDir(), "--target", name}
	if c.buildType != "" {
		args = append(args, "--config", c.buildType)
	}
	if err := c.run(buildsys.Command("cmake", args, c.env)); err != nil {
		return "", fmt.Errorf("cmake: build target %s: %w", name, err)
	}
	return c.outDir, nil
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+c.defines[k])
	}
	return args
}

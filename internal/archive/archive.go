// Package archive merges object files into static archives with ar.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/llvmlibc/pkgs/buildsys"
)

// Archiver runs ar, and the C compiler for placeholder stubs.
type Archiver struct {
	ar  string
	cc  string
	env map[string]string
	run buildsys.Runner
}

// New returns an Archiver using the given ar and cc executables.
// Empty names fall back to "ar" and "cc".
func New(ar, cc string) *Archiver {
	if ar == "" {
		ar = "ar"
	}
	if cc == "" {
		cc = "cc"
	}
	return &Archiver{
		ar:  ar,
		cc:  cc,
		env: make(map[string]string),
		run: buildsys.Run,
	}
}

// Runner replaces how commands are executed.
func (a *Archiver) Runner(r buildsys.Runner) { a.run = r }

// Env sets key=value for every command the Archiver spawns.
func (a *Archiver) Env(key, value string) { a.env[key] = value }

// Assemble creates dest holding exactly objects, in order, with a fresh
// symbol table. A previous dest is replaced.
func (a *Archiver) Assemble(dest string, objects ...string) error {
	if len(objects) == 0 {
		return fmt.Errorf("archive: no objects for %s", dest)
	}
	for _, obj := range objects {
		if _, err := os.Stat(obj); err != nil {
			return fmt.Errorf("archive: missing object: %w", err)
		}
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive: remove stale %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	args := append([]string{"rs", dest}, objects...)
	if err := a.run(buildsys.Command(a.ar, args, a.env)); err != nil {
		return fmt.Errorf("archive: %s rs %s: %w", a.ar, dest, err)
	}
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("archive: %s not produced: %w", dest, err)
	}
	return nil
}

package build

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/llvmlibc/internal/archive"
	"github.com/goplus/llvmlibc/internal/env"
	"github.com/goplus/llvmlibc/pkgs/buildsys"
)

// mockBuildSystem records what the builder asks of it. Targets after
// failAt (1-based) are never reached by a correct builder.
type mockBuildSystem struct {
	sourceDir string
	outDir    string
	defines   map[string]string
	env       map[string]string
	triple    string
	built     []string
	failAt    int
}

func (m *mockBuildSystem) Define(key, value string) { m.defines[key] = value }
func (m *mockBuildSystem) Env(key, value string)    { m.env[key] = value }
func (m *mockBuildSystem) Target(triple string)     { m.triple = triple }
func (m *mockBuildSystem) OutputDir() string        { return m.outDir }

func (m *mockBuildSystem) BuildTarget(name string) (string, error) {
	m.built = append(m.built, name)
	if m.failAt == len(m.built) {
		return "", fmt.Errorf("make: *** [%s] Error 1", name)
	}
	return m.outDir, nil
}

// mockArchiver records archive requests. Placeholder creates dest when
// absent, like the real one.
type mockArchiver struct {
	env          map[string]string
	assembled    []string
	objects      []string
	placeholders []string
	assembleErr  error
}

func (m *mockArchiver) Env(key, value string) { m.env[key] = value }

func (m *mockArchiver) Assemble(dest string, objects ...string) error {
	m.assembled = append(m.assembled, dest)
	m.objects = append(m.objects, objects...)
	return m.assembleErr
}

func (m *mockArchiver) Placeholder(stub, dest string) (archive.Outcome, error) {
	m.placeholders = append(m.placeholders, dest)
	if _, err := os.Stat(dest); err == nil {
		return archive.Reused, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	return archive.NeedsReview, os.WriteFile(dest, []byte("!<arch>\n"), 0o644)
}

// fixture wires a Builder to mocks rooted in a temp dir.
type fixture struct {
	vars map[string]string
	bs   *mockBuildSystem
	ar   *mockArchiver
	opts Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		vars: map[string]string{env.KeyTargetArch: "x86_64"},
		ar:   &mockArchiver{env: map[string]string{}},
	}
	f.opts = Options{
		SourceRoot: filepath.Join(dir, "src"),
		OutDir:     filepath.Join(dir, "out"),
		Lookup: func(key string) (string, bool) {
			v, ok := f.vars[key]
			return v, ok
		},
		NewBuildSystem: func(sourceDir, outDir string) buildsys.BuildSystem {
			if f.bs == nil {
				f.bs = &mockBuildSystem{}
			}
			f.bs.sourceDir = sourceDir
			f.bs.outDir = outDir
			f.bs.defines = map[string]string{}
			f.bs.env = map[string]string{}
			return f.bs
		},
		NewArchiver: func(env.Environment) Archiver { return f.ar },
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f
}

func (f *fixture) build() (*Result, error) {
	return NewBuilder(f.opts).Build()
}

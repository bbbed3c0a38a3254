package build

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/llvmlibc/internal/archive"
	"github.com/goplus/llvmlibc/internal/env"
)

func TestBuildOrder(t *testing.T) {
	f := newFixture(t)
	res, err := f.build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !reflect.DeepEqual(f.bs.built, Targets) {
		t.Errorf("targets = %v, want %v", f.bs.built, Targets)
	}
	if f.bs.triple != "x86_64-unknown-linux-gnu" {
		t.Errorf("triple = %q", f.bs.triple)
	}
	if want := filepath.Join(f.opts.SourceRoot, "src", "libc"); f.bs.sourceDir != want {
		t.Errorf("sourceDir = %q, want %q", f.bs.sourceDir, want)
	}

	root := f.opts.OutDir
	if res.Root != root {
		t.Errorf("Root = %q, want %q", res.Root, root)
	}
	wantStartup := filepath.Join(root, "build", "lib", "libstartup.a")
	if !reflect.DeepEqual(f.ar.assembled, []string{wantStartup}) {
		t.Errorf("assembled = %v, want %v", f.ar.assembled, wantStartup)
	}
	if !reflect.DeepEqual(f.ar.objects, StartupObjects(root)) {
		t.Errorf("objects = %v, want %v", f.ar.objects, StartupObjects(root))
	}
	if base := filepath.Base(f.ar.objects[0]); base != "crt1.o" {
		t.Errorf("first object = %q, want crt1.o", base)
	}
}

func TestBuildDefines(t *testing.T) {
	f := newFixture(t)
	if _, err := f.build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	d := f.bs.defines
	for k, want := range map[string]string{
		"LLVM_LIBC_FULL_BUILD":           "true",
		"LIBC_CONF_ERRNO_MODE":           "LIBC_ERRNO_MODE_DEFAULT",
		"LLVM_LIBC_INCLUDE_SCUDO":        "ON",
		"COMPILER_RT_STANDALONE_BUILD":   "ON",
		"LIBC_CONF_QSORT_IMPL":           "LIBC_QSORT_QUICK_SORT",
		"LLVM_LIBC_COMPILER_RT_PATH":     filepath.Join(f.opts.SourceRoot, "src", "compiler-rt"),
		"LIBC_CONF_PRINTF_DISABLE_FLOAT": "false",
	} {
		if got, ok := d[k]; !ok || got != want {
			t.Errorf("%s = %q (present=%v), want %q", k, got, ok, want)
		}
	}
}

func TestBuildNoScudo(t *testing.T) {
	f := newFixture(t)
	f.opts.NoScudo = true
	if _, err := f.build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, k := range []string{"LLVM_LIBC_COMPILER_RT_PATH", "LLVM_LIBC_INCLUDE_SCUDO"} {
		if _, ok := f.bs.defines[k]; ok {
			t.Errorf("%s defined without scudo", k)
		}
	}
}

func TestBuildCompilerDefaults(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.build(); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if f.bs.env[env.KeyCC] != "clang" || f.bs.env[env.KeyCXX] != "clang++" {
			t.Errorf("build env = %v", f.bs.env)
		}
		if f.ar.env[env.KeyCC] != "clang" {
			t.Errorf("archiver env = %v", f.ar.env)
		}
	})

	t.Run("set", func(t *testing.T) {
		f := newFixture(t)
		f.vars[env.KeyCC] = "gcc"
		f.vars[env.KeyCXX] = "g++"
		if _, err := f.build(); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if f.bs.env[env.KeyCC] != "gcc" || f.bs.env[env.KeyCXX] != "g++" {
			t.Errorf("build env = %v", f.bs.env)
		}
	})
}

func TestBuildMissingArch(t *testing.T) {
	f := newFixture(t)
	delete(f.vars, env.KeyTargetArch)
	_, err := f.build()
	if code := CodeOf(err); code != ErrCodeMissingEnvironment {
		t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodeMissingEnvironment, err)
	}
	if f.bs != nil {
		t.Errorf("build system created before environment resolved")
	}
	if len(f.ar.assembled) != 0 {
		t.Errorf("archiver invoked: %v", f.ar.assembled)
	}
	if !strings.Contains(err.Error(), env.KeyTargetArch) {
		t.Errorf("error %q does not name %s", err, env.KeyTargetArch)
	}
}

func TestBuildTargetFailure(t *testing.T) {
	f := newFixture(t)
	f.bs = &mockBuildSystem{failAt: 2}
	_, err := f.build()
	if code := CodeOf(err); code != ErrCodeExternalBuild {
		t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodeExternalBuild, err)
	}
	if want := []string{"libc", "libm"}; !reflect.DeepEqual(f.bs.built, want) {
		t.Errorf("built = %v, want %v", f.bs.built, want)
	}
	if len(f.ar.assembled) != 0 {
		t.Errorf("assembly ran after a failed target")
	}
	if be := err.(*Error); be.Target != "libm" {
		t.Errorf("Target = %q, want libm", be.Target)
	}
	if _, err := LoadResult(f.opts.OutDir); !os.IsNotExist(err) {
		t.Errorf("record written for failed build: %v", err)
	}
}

func TestBuildArchiverFailure(t *testing.T) {
	f := newFixture(t)
	f.ar.assembleErr = os.ErrNotExist
	_, err := f.build()
	if code := CodeOf(err); code != ErrCodeArchiver {
		t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodeArchiver, err)
	}
	if len(f.bs.built) != len(Targets) {
		t.Errorf("built %d targets, want %d", len(f.bs.built), len(Targets))
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfgFile := filepath.Join(t.TempDir(), "libc.yaml")
	if err := os.WriteFile(cfgFile, []byte("errno_mode: bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.opts.ConfigFile = cfgFile
	_, err := f.build()
	if code := CodeOf(err); code != ErrCodeInvalidConfig {
		t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodeInvalidConfig, err)
	}
	if f.bs != nil {
		t.Errorf("build system created for invalid config")
	}
}

func TestBuildConfigFile(t *testing.T) {
	f := newFixture(t)
	cfgFile := filepath.Join(t.TempDir(), "libc.yaml")
	data := "errno_mode: thread_local\nqsort_impl: heap_sort\n"
	if err := os.WriteFile(cfgFile, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	f.opts.ConfigFile = cfgFile
	if _, err := f.build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := f.bs.defines["LIBC_CONF_ERRNO_MODE"]; got != "LIBC_ERRNO_MODE_THREAD_LOCAL" {
		t.Errorf("errno mode = %q", got)
	}
	if got := f.bs.defines["LIBC_CONF_QSORT_IMPL"]; got != "LIBC_QSORT_HEAP_SORT" {
		t.Errorf("qsort impl = %q", got)
	}
}

func TestBuildPlaceholders(t *testing.T) {
	t.Run("new archives are drift", func(t *testing.T) {
		f := newFixture(t)
		f.opts.Placeholders = []string{"unwind", "gcc_s"}
		f.opts.PlaceholderDir = filepath.Join(t.TempDir(), "vendor")
		_, err := f.build()
		if code := CodeOf(err); code != ErrCodePlaceholderDrift {
			t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodePlaceholderDrift, err)
		}
		want := []string{
			filepath.Join(f.opts.PlaceholderDir, "libunwind.a"),
			filepath.Join(f.opts.PlaceholderDir, "libgcc_s.a"),
		}
		if got := err.(*Error).Paths; !reflect.DeepEqual(got, want) {
			t.Errorf("Paths = %v, want %v", got, want)
		}
		for _, p := range want {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("placeholder not created: %v", err)
			}
		}
	})

	t.Run("existing archives are reused", func(t *testing.T) {
		f := newFixture(t)
		dir := filepath.Join(t.TempDir(), "vendor")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		committed := []byte("!<arch>\ncommitted")
		dest := filepath.Join(dir, "libunwind.a")
		if err := os.WriteFile(dest, committed, 0o644); err != nil {
			t.Fatal(err)
		}
		f.opts.Placeholders = []string{"unwind"}
		f.opts.PlaceholderDir = dir

		res, err := f.build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if len(res.Placeholders) != 1 || res.Placeholders[0].Outcome != archive.Reused {
			t.Errorf("Placeholders = %+v", res.Placeholders)
		}
		got, _ := os.ReadFile(dest)
		if !bytes.Equal(got, committed) {
			t.Errorf("committed placeholder modified")
		}
		wantSearch := []string{LibDir(res.Root), dir}
		if !reflect.DeepEqual(res.Link.SearchPaths, wantSearch) {
			t.Errorf("SearchPaths = %v, want %v", res.Link.SearchPaths, wantSearch)
		}
		wantLibs := []string{"c", "m", "startup", "unwind"}
		if !reflect.DeepEqual(res.Link.StaticLibs, wantLibs) {
			t.Errorf("StaticLibs = %v, want %v", res.Link.StaticLibs, wantLibs)
		}
	})
}

func TestBuildRecordAndOutput(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	f.opts.Output = &out
	res, err := f.build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	libDir := filepath.Join(f.opts.OutDir, "build", "lib")
	want := "cargo:rustc-link-search=native=" + libDir + "\n" +
		"cargo:rustc-link-lib=static=c\n" +
		"cargo:rustc-link-lib=static=m\n" +
		"cargo:rustc-link-lib=static=startup\n"
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}

	loaded, err := LoadResult(f.opts.OutDir)
	if err != nil {
		t.Fatalf("LoadResult failed: %v", err)
	}
	if loaded.ID != res.ID || loaded.ID == "" {
		t.Errorf("ID = %q, want %q", loaded.ID, res.ID)
	}
	if !reflect.DeepEqual(loaded.Link, res.Link) {
		t.Errorf("Link = %+v, want %+v", loaded.Link, res.Link)
	}
	if loaded.Triple != "x86_64-unknown-linux-gnu" {
		t.Errorf("Triple = %q", loaded.Triple)
	}
}

func TestBuildDefaultOutDir(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "cargo-out")
	f.opts.OutDir = ""
	f.vars[env.KeyOutDir] = out
	res, err := f.build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if f.bs.outDir != out || res.Root != out {
		t.Errorf("outDir = %q, Root = %q, want %q", f.bs.outDir, res.Root, out)
	}
}

func TestBuildUnwritableOutDir(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	f.opts.OutDir = filepath.Join(file, "out")
	_, err := f.build()
	if err == nil {
		t.Fatal("expected error for out dir under a regular file")
	}
	if code := CodeOf(err); code != ErrCodeOutput {
		t.Errorf("code = %q, want %q (err=%v)", code, ErrCodeOutput, err)
	}
}

func TestBuildRejectsPlaceholderNames(t *testing.T) {
	for _, name := range []string{"", ".", "..", "../../x", "sub/unwind", `sub\unwind`} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.opts.Placeholders = []string{"unwind", name}
			_, err := f.build()
			if code := CodeOf(err); code != ErrCodeInvalidConfig {
				t.Fatalf("code = %q, want %q (err=%v)", code, ErrCodeInvalidConfig, err)
			}
			if f.bs != nil {
				t.Errorf("build system created for invalid placeholder name")
			}
			if len(f.ar.placeholders) != 0 {
				t.Errorf("placeholders synthesized: %v", f.ar.placeholders)
			}
		})
	}
}

func TestResolveConfigRelativeSource(t *testing.T) {
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	cfg, root, err := ResolveConfig(Options{SourceRoot: "rel"})
	if err != nil {
		t.Fatalf("ResolveConfig failed: %v", err)
	}
	if want := filepath.Join(cwd, "rel"); root != want {
		t.Errorf("root = %q, want %q", root, want)
	}
	if want := filepath.Join(cwd, "rel", "src", "compiler-rt"); cfg.ScudoPath != want {
		t.Errorf("ScudoPath = %q, want %q", cfg.ScudoPath, want)
	}
}

package env

import (
	"fmt"
	"os"
	"path/filepath"
)

// Toolchain defaults used when CC or CXX are unset.
const (
	DefaultCC  = "clang"
	DefaultCXX = "clang++"
)

// Environment variables read by Resolve and the directory helpers.
const (
	KeyCC          = "CC"
	KeyCXX         = "CXX"
	KeyTargetArch  = "CARGO_CFG_TARGET_ARCH"
	KeyManifestDir = "CARGO_MANIFEST_DIR"
	KeyOutDir      = "OUT_DIR"
)

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// MissingError reports a required environment variable that is unset.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Key)
}

// Environment is the toolchain selection for one build.
type Environment struct {
	CC   string
	CXX  string
	Arch string
}

// Resolve reads the compiler and target selection through lookup. Unset
// compilers fall back to DefaultCC and DefaultCXX; the target architecture
// is required.
func Resolve(lookup LookupFunc) (Environment, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	e := Environment{
		CC:  valueOr(lookup, KeyCC, DefaultCC),
		CXX: valueOr(lookup, KeyCXX, DefaultCXX),
	}
	arch, ok := lookup(KeyTargetArch)
	if !ok || arch == "" {
		return Environment{}, &MissingError{Key: KeyTargetArch}
	}
	e.Arch = arch
	return e, nil
}

// Triple returns the target triple for e.Arch.
func (e Environment) Triple() string {
	return e.Arch + "-unknown-linux-gnu"
}

// Vars returns the compiler variables to hand to child processes.
func (e Environment) Vars() map[string]string {
	return map[string]string{
		KeyCC:  e.CC,
		KeyCXX: e.CXX,
	}
}

// SourceRoot returns the directory holding src/libc and src/compiler-rt:
// CARGO_MANIFEST_DIR when set, otherwise the working directory.
func SourceRoot(lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if dir, ok := lookup(KeyManifestDir); ok && dir != "" {
		return filepath.Abs(dir)
	}
	return os.Getwd()
}

// OutDir returns OUT_DIR when set, otherwise a per-triple directory under
// the user cache dir.
func OutDir(lookup LookupFunc, triple string) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if dir, ok := lookup(KeyOutDir); ok && dir != "" {
		return filepath.Abs(dir)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, "llvmlibc", triple), nil
}

func valueOr(lookup LookupFunc, key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

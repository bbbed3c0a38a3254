package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/goplus/llvmlibc/internal/archive"
)

// Output directory layout:
//
//	outDir/
//	  .llvmlibc.json                  # Result of the last successful build
//	  build/                          # CMake binary tree
//	    lib/
//	      libc.a libm.a libstartup.a
//	    startup/linux/
//	      crt1.o
//	      CMakeFiles/libc.startup.linux.crti.dir/crti.cpp.o
//	      CMakeFiles/libc.startup.linux.crtn.dir/crtn.cpp.o

// RecordFile is the name of the build record inside the output directory.
const RecordFile = ".llvmlibc.json"

// Placeholder is one synthesized placeholder archive.
type Placeholder struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Outcome archive.Outcome `json:"outcome"`
}

// Result describes a successful build. It is persisted in the output
// directory so the link directives can be emitted again without rebuilding.
type Result struct {
	ID           string        `json:"id"`
	Triple       string        `json:"triple"`
	SourceDir    string        `json:"source_dir"`
	Root         string        `json:"root"`
	Targets      []string      `json:"targets"`
	Startup      string        `json:"startup"`
	Placeholders []Placeholder `json:"placeholders,omitempty"`
	Link         Directives    `json:"link"`
	BuildTime    time.Time     `json:"build_time"`
}

func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// LoadResult reads the result recorded in outDir.
func LoadResult(outDir string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(outDir, RecordFile))
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// saveResult writes r into outDir.
func saveResult(outDir string, r *Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, RecordFile), data, 0o644)
}

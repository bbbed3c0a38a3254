package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goplus/llvmlibc/pkgs/buildsys"
)

// Outcome tells what Placeholder did with its destination.
type Outcome int

const (
	// Reused means the destination already existed and was left untouched.
	Reused Outcome = iota + 1
	// NeedsReview means the destination was created by this run and must be
	// inspected and committed before it is trusted.
	NeedsReview
)

func (o Outcome) String() string {
	switch o {
	case Reused:
		return "reused"
	case NeedsReview:
		return "needs-review"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reused":
		*o = Reused
	case "needs-review":
		*o = NeedsReview
	default:
		return fmt.Errorf("archive: unknown outcome %q", text)
	}
	return nil
}

// StubSource is an assembly file that defines nothing. Archived on its own
// it yields a library the linker accepts but never pulls symbols from.
const StubSource = `/* placeholder archive member, defines no symbols */
#if defined(__ELF__)
	.section .note.GNU-stack,"",%progbits
#endif
`

// WriteStub writes StubSource to dir/stub.S and returns its path.
func WriteStub(dir string) (string, error) {
	path := filepath.Join(dir, "stub.S")
	if err := os.WriteFile(path, []byte(StubSource), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Placeholder compiles stub into a single-member archive and installs it at
// dest unless dest already exists. Existing bytes at dest are never
// modified.
func (a *Archiver) Placeholder(stub, dest string) (Outcome, error) {
	_, err := os.Stat(dest)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("archive: stat %s: %w", dest, err)
	}

	tmp, err := os.MkdirTemp("", "llvmlibc-stub-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(tmp)

	obj := filepath.Join(tmp, "stub.o")
	ccArgs := []string{"-c", "-x", "assembler-with-cpp", stub, "-o", obj}
	if err := a.run(buildsys.Command(a.cc, ccArgs, a.env)); err != nil {
		return 0, fmt.Errorf("archive: compile %s: %w", stub, err)
	}
	built := filepath.Join(tmp, filepath.Base(dest))
	if err := a.run(buildsys.Command(a.ar, []string{"rcs", built, obj}, a.env)); err != nil {
		return 0, fmt.Errorf("archive: %s rcs %s: %w", a.ar, built, err)
	}

	if existed {
		return Reused, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	if err := copyFile(built, dest); err != nil {
		return 0, fmt.Errorf("archive: install %s: %w", dest, err)
	}
	return NeedsReview, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

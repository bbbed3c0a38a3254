package cmake

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/goplus/llvmlibc/pkgs/buildsys"
)

// RequiredVersion is the oldest CMake the libc runtimes build accepts.
const RequiredVersion = "3.20.0"

// Version runs "cmake --version" and returns the reported version in
// semver form ("v3.28.1").
func (c *CMake) Version() (string, error) {
	var out bytes.Buffer
	cmd := buildsys.Command("cmake", []string{"--version"}, c.env)
	cmd.Stdout = &out
	if err := c.run(cmd); err != nil {
		return "", fmt.Errorf("cmake: --version: %w", err)
	}
	return ParseVersion(out.String())
}

// CheckVersion fails unless the cmake binary is at least min.
func (c *CMake) CheckVersion(min string) error {
	have, err := c.Version()
	if err != nil {
		return err
	}
	want := "v" + strings.TrimPrefix(min, "v")
	if !semver.IsValid(want) {
		return fmt.Errorf("cmake: invalid minimum version %q", min)
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("cmake: version %s is older than required %s", strings.TrimPrefix(have, "v"), strings.TrimPrefix(want, "v"))
	}
	return nil
}

// ParseVersion extracts the version from "cmake --version" output.
func ParseVersion(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "cmake version ")
		if !ok {
			continue
		}
		v := "v" + strings.TrimSpace(rest)
		if !semver.IsValid(v) {
			return "", fmt.Errorf("cmake: unrecognized version %q", rest)
		}
		return v, nil
	}
	return "", fmt.Errorf("cmake: no version in %q", strings.TrimSpace(output))
}

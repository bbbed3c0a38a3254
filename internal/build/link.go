package build

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Directives tell the enclosing build how to link the produced libraries.
type Directives struct {
	SearchPaths []string `json:"search_paths"`
	StaticLibs  []string `json:"static_libs"`
}

// Format selects how Directives are written.
type Format string

const (
	FormatCargo   Format = "cargo"
	FormatLDFlags Format = "ldflags"
	FormatJSON    Format = "json"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatCargo, FormatLDFlags, FormatJSON}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: must be one of %v", s, Formats)
}

// Write emits d to w in format f.
func (d Directives) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCargo:
		for _, p := range d.SearchPaths {
			if _, err := fmt.Fprintf(w, "cargo:rustc-link-search=native=%s\n", p); err != nil {
				return err
			}
		}
		for _, lib := range d.StaticLibs {
			if _, err := fmt.Fprintf(w, "cargo:rustc-link-lib=static=%s\n", lib); err != nil {
				return err
			}
		}
		return nil
	case FormatLDFlags:
		_, err := fmt.Fprintln(w, d.LDFlags())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return fmt.Errorf("invalid format %q", f)
}

// LDFlags renders d as linker flags: -L<dir>... -l<lib>...
func (d Directives) LDFlags() string {
	flags := make([]string, 0, len(d.SearchPaths)+len(d.StaticLibs))
	for _, p := range d.SearchPaths {
		flags = append(flags, "-L"+p)
	}
	for _, lib := range d.StaticLibs {
		flags = append(flags, "-l"+lib)
	}
	return strings.Join(flags, " ")
}

package build

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestDirectivesWrite(t *testing.T) {
	d := Directives{
		SearchPaths: []string{"/out/build/lib", "/vendor"},
		StaticLibs:  []string{"c", "m", "startup", "unwind"},
	}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatCargo, "cargo:rustc-link-search=native=/out/build/lib\n" +
			"cargo:rustc-link-search=native=/vendor\n" +
			"cargo:rustc-link-lib=static=c\n" +
			"cargo:rustc-link-lib=static=m\n" +
			"cargo:rustc-link-lib=static=startup\n" +
			"cargo:rustc-link-lib=static=unwind\n"},
		{FormatLDFlags, "-L/out/build/lib -L/vendor -lc -lm -lstartup -lunwind\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := d.Write(&buf, tt.format); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", buf.String(), tt.want)
			}
		})
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := d.Write(&buf, FormatJSON); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		var back Directives
		if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
			t.Fatalf("invalid JSON %q: %v", buf.String(), err)
		}
		if back.LDFlags() != d.LDFlags() {
			t.Errorf("got %+v, want %+v", back, d)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := d.Write(&bytes.Buffer{}, "make"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("CARGO"); err == nil {
		t.Error("expected error for CARGO")
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Code:    ErrCodeExternalBuild,
		Message: "build failed",
		Target:  "libm",
		Paths:   []string{"/out"},
		Err:     bytes.ErrTooLarge,
	}
	want := "EXTERNAL_BUILD_FAILURE: build failed (target=libm) [/out]: " + bytes.ErrTooLarge.Error()
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if CodeOf(err) != ErrCodeExternalBuild {
		t.Errorf("CodeOf = %q", CodeOf(err))
	}
	if CodeOf(bytes.ErrTooLarge) != "" {
		t.Error("CodeOf plain error should be empty")
	}
}

package build

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes a failed build.
type ErrorCode string

const (
	// ErrCodeMissingEnvironment indicates a required environment variable
	// is unset. Nothing external has run yet.
	ErrCodeMissingEnvironment ErrorCode = "MISSING_ENVIRONMENT"

	// ErrCodeInvalidConfig indicates the configuration file could not be
	// applied.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// ErrCodeExternalBuild indicates CMake failed to configure or build a
	// target.
	ErrCodeExternalBuild ErrorCode = "EXTERNAL_BUILD_FAILURE"

	// ErrCodeArchiver indicates ar or the stub compiler failed.
	ErrCodeArchiver ErrorCode = "ARCHIVER_FAILURE"

	// ErrCodePlaceholderDrift indicates a placeholder archive was missing
	// and has been freshly created. It must be reviewed and committed.
	ErrCodePlaceholderDrift ErrorCode = "PLACEHOLDER_ARTIFACT_DRIFT"

	// ErrCodeOutput indicates the build record or the link directives
	// could not be written.
	ErrCodeOutput ErrorCode = "OUTPUT_FAILURE"
)

// Error is returned by Builder.Build. Every Error is fatal.
type Error struct {
	Code    ErrorCode
	Message string

	// Target is the CMake target being built, if any.
	Target string

	// Paths lists the artifacts involved.
	Paths []string

	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Code, e.Message)
	if e.Target != "" {
		fmt.Fprintf(&sb, " (target=%s)", e.Target)
	}
	if len(e.Paths) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(e.Paths, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/yamlfix/internal/configloader"
	"github.com/yaklabco/yamlfix/pkg/fsutil"
	"github.com/yaklabco/yamlfix/pkg/runner"
	"github.com/yaklabco/yamlfix/pkg/schema"
	"github.com/yaklabco/yamlfix/pkg/yamlpath"
)

// Exit codes for yamlfix.
const (
	// ExitSuccess indicates successful execution with no issues.
	ExitSuccess = 0

	// ExitIssuesErrors indicates problems of error severity remain.
	ExitIssuesErrors = 1

	// ExitIssuesWarnings indicates warnings remain in strict mode.
	ExitIssuesWarnings = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates a bad configuration or schema file.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrIssuesFound is returned when problems remain after a run. It only
// signals the exit code and is not worth logging.
var ErrIssuesFound = errors.New("issues found")

// ExitError attaches an exit code to an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func usageErrorf(format string, args ...any) error {
	return withExit(ExitInvalidUsage, fmt.Errorf(format, args...))
}

// ExitCodeFromResult determines the exit code of a run. Files that could
// not be processed outrank remaining problems.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	switch {
	case result == nil:
		return ExitSuccess
	case result.HasFileErrors():
		return ExitIOError
	case result.HasErrors():
		return ExitIssuesErrors
	case strict && result.HasWarnings():
		return ExitIssuesWarnings
	default:
		return ExitSuccess
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var (
		validationErr *configloader.ValidationError
		schemaErr     *schema.LoadError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		return ExitConfigError
	case errors.Is(err, yamlpath.ErrMalformedPath):
		return ExitInvalidUsage
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrConcurrentChange):
		return ExitIOError
	case strings.HasPrefix(err.Error(), "unknown command"),
		strings.HasPrefix(err.Error(), "unknown flag"),
		strings.HasPrefix(err.Error(), "unknown shorthand flag"):
		return ExitInvalidUsage
	default:
		return ExitInternalError
	}
}

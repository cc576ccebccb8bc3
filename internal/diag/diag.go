// Package diag defines the error kinds raised while binding and running a
// build, and renders them for people.
package diag

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/anvil/internal/markup"
)

var (
	// ErrConfiguration classifies every ConfigError.
	ErrConfiguration = errors.New("build configuration error")
	// ErrTask classifies every TaskError.
	ErrTask = errors.New("build task failed")
)

// ConfigError reports a structural problem in a build file: a missing
// required attribute, a value that cannot be coerced, a dangling reference.
type ConfigError struct {
	Location markup.Location
	Message  string
	Err      error
}

// Configf creates a ConfigError at loc.
func Configf(loc markup.Location, format string, args ...any) *ConfigError {
	return &ConfigError{Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a ConfigError at loc caused by err.
func Wrap(loc markup.Location, err error, format string, args ...any) *ConfigError {
	return &ConfigError{Location: loc, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Location.IsKnown() {
		return e.Location.String() + ": " + msg
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfiguration) true for every ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// Diagnostic converts the error into an hcl.Diagnostic.
func (e *ConfigError) Diagnostic() *hcl.Diagnostic {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid build configuration",
		Detail:   e.Message,
	}
	if e.Err != nil {
		d.Detail += ": " + e.Err.Error()
	}
	if e.Location.IsKnown() {
		rng := e.Location.Range()
		d.Subject = &rng
	}
	return d
}

// FromDiagnostics turns hcl diagnostics into a ConfigError located at the
// first error's subject. It returns nil when diags has no errors.
func FromDiagnostics(diags hcl.Diagnostics) *ConfigError {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		loc := markup.Unknown
		if d.Subject != nil {
			loc = markup.LocationFromRange(*d.Subject)
		}
		return &ConfigError{Location: loc, Message: d.Detail}
	}
	return nil
}

// TaskError reports a failure raised while a task executed.
type TaskError struct {
	Task     string
	Location markup.Location
	Err      error
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("task <%s> failed: %v", e.Task, e.Err)
	if e.Location.IsKnown() {
		return e.Location.String() + ": " + msg
	}
	return msg
}

func (e *TaskError) Unwrap() error { return e.Err }

func (e *TaskError) Is(target error) bool { return target == ErrTask }

// Render writes err to w. Configuration errors are printed with a source
// snippet when the file is present in files.
func Render(w io.Writer, files map[string]*hcl.File, err error, color bool) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if rerr := Render(w, files, e, color); rerr != nil {
				return rerr
			}
		}
		return nil
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		diags := hcl.Diagnostics{cfgErr.Diagnostic()}
		return hcl.NewDiagnosticTextWriter(w, files, 100, color).WriteDiagnostics(diags)
	}
	var diags hcl.Diagnostics
	if errors.As(err, &diags) {
		return hcl.NewDiagnosticTextWriter(w, files, 100, color).WriteDiagnostics(diags)
	}
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

package diag

import (
	"errors"
	"fmt"
	"io"
	"log"
)

// ExitStatus is the process exit code of an invocation.
type ExitStatus int

const (
	Ok            ExitStatus = 0
	ErrorStatus   ExitStatus = 1
	WarningStatus ExitStatus = 2
)

// Diagnostic is one message about one path.
type Diagnostic struct {
	Severity Severity
	// Path is empty for diagnostics that are not about a file.
	Path    string
	Kind    Kind
	Err     error
	Message string
}

// FromError creates a Diagnostic from an error, classifying it first if it isn't already an *Error.
func FromError(path string, err error) Diagnostic {
	e := Classify(path, err)
	d := Diagnostic{Severity: e.Severity(), Kind: e.Kind, Err: e, Message: e.Message()}
	if e.Kind.HasPath() {
		d.Path = e.Path
	}

	return d
}

// Infof creates an Info Diagnostic.
func Infof(path, format string, a ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Path: path, Message: fmt.Sprintf(format, a...)}
}

// String returns "{path}: {message}" or just the message if there is no path.
func (d Diagnostic) String() string {
	if d.Path == "" {
		return d.Message
	}

	return d.Path + ": " + d.Message
}

// Report is the outcome of an invocation.
type Report struct {
	Diagnostics []Diagnostic
	Status      ExitStatus
	// Quiet and NoWarn control whether warnings change Status.
	Quiet  int
	NoWarn bool
}

// Add appends the diagnostic and updates Status.
//
// An Error always sets Status to ErrorStatus. A Warning sets Status to WarningStatus unless Status is already
// ErrorStatus, Quiet is at least 1, or NoWarn is set.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)

	switch d.Severity {
	case SeverityError:
		r.Status = ErrorStatus
	case SeverityWarning:
		if r.Status == Ok && r.Quiet < 1 && !r.NoWarn {
			r.Status = WarningStatus
		}
	}
}

// Err returns the first Error diagnostic as an error, or nil.
func (r *Report) Err() error {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			if d.Err != nil {
				return d.Err
			}
			return errors.New(d.String())
		}
	}

	return nil
}

// Formatter prints diagnostics as "{program}: {path}: {message}" lines.
type Formatter struct {
	// Quiet 1 suppresses warnings and info, 2 also suppresses errors.
	Quiet int
	// Verbose enables info messages.
	Verbose bool
	// Logger is the destination, usually created with NewLogger.
	Logger *log.Logger
}

// NewLogger creates a logger prefixed with "{program}: " and without timestamps.
func NewLogger(w io.Writer, program string) *log.Logger {
	return log.New(w, program+": ", 0)
}

// Suppressed returns true if the diagnostic would not be printed.
func (f *Formatter) Suppressed(d Diagnostic) bool {
	switch d.Severity {
	case SeverityInfo:
		return !f.Verbose || f.Quiet >= 1
	case SeverityWarning:
		return f.Quiet >= 1
	default:
		return f.Quiet >= 2
	}
}

// Print prints the diagnostic unless it is suppressed.
func (f *Formatter) Print(d Diagnostic) {
	if f.Suppressed(d) {
		return
	}

	f.Logger.Print(d.String())
}

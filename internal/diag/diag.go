// Package diag turns failures into user-facing diagnostics and derives the exit status of an invocation.
package diag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/nguyengg/xzutils"
	"github.com/nguyengg/xzutils/codec"
	"github.com/nguyengg/xzutils/internal/config"
	"github.com/nguyengg/xzutils/internal/fileio"
	"github.com/nguyengg/xzutils/internal/naming"
)

// StdinName is the path shown for standard input.
const StdinName = "(stdin)"

// Severity of a Diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Kind is the taxonomy of failures.
type Kind int

const (
	// Other is any failure not covered by the other kinds.
	Other Kind = iota
	OpenInput
	NotRegularFile
	CreateOutput
	OutputExists
	UnknownSuffix
	AlreadyHasSuffix
	InvalidOutputFilename
	CorruptData
	UnsupportedCheck
	UnsupportedFormat
	MemlimitExceeded
	ProgrammingError
	InvalidCompressionLevel
	InvalidThreadCount
	InvalidMemoryLimit
	InvalidOption
	Unimplemented
	TerminalInput
	TerminalOutput
	RemoveFile
	ReadError
	WriteError
	Interrupted
)

// Severity returns the severity of failures of this kind.
func (k Kind) Severity() Severity {
	switch k {
	case NotRegularFile, UnknownSuffix, AlreadyHasSuffix, UnsupportedCheck, RemoveFile:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// HasPath returns false for configuration errors, which are not about any file.
func (k Kind) HasPath() bool {
	switch k {
	case InvalidCompressionLevel, InvalidThreadCount, InvalidMemoryLimit, InvalidOption, Unimplemented:
		return false
	default:
		return true
	}
}

// ErrTerminalInput is returned when compressed data would be read from a terminal.
var ErrTerminalInput = errors.New("compressed data cannot be read from a terminal")

// ErrTerminalOutput is returned when compressed data would be written to a terminal.
var ErrTerminalOutput = errors.New("compressed data cannot be written to a terminal")

// RemoveFileError is returned when the input cannot be removed after its output has been committed.
type RemoveFileError struct {
	Err error
}

func (e *RemoveFileError) Unwrap() error {
	return e.Err
}

func (e *RemoveFileError) Error() string {
	return fmt.Sprintf("remove input file error: %v", e.Err)
}

// Error is a failure attributed to a path.
type Error struct {
	Kind Kind
	// Path is the file the failure is about, StdinName for standard input, or empty.
	Path string
	Err  error
}

// New creates a new Error.
func New(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Classify wraps err into an *Error whose Kind is derived from err.
//
// If err already is or wraps an *Error, that *Error is returned with its Path filled in if it was empty.
func Classify(path string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Path == "" && e.Kind.HasPath() {
			e.Path = path
		}
		return e
	}

	return &Error{Kind: kindOf(err), Path: path, Err: err}
}

func kindOf(err error) Kind {
	var (
		openErr   *fileio.OpenInputError
		createErr *fileio.CreateOutputError
		suffixErr *naming.AlreadyHasSuffixError
		readErr   *xzutils.ReadError
		writeErr  *xzutils.WriteError
		removeErr *RemoveFileError
		codecErr  *codec.Error
	)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Interrupted
	case errors.As(err, &openErr):
		return OpenInput
	case errors.Is(err, fileio.ErrIsDirectory), errors.Is(err, fileio.ErrNotRegularFile):
		return NotRegularFile
	case errors.Is(err, fileio.ErrOutputExists):
		return OutputExists
	case errors.As(err, &createErr):
		return CreateOutput
	case errors.Is(err, naming.ErrUnknownSuffix):
		return UnknownSuffix
	case errors.As(err, &suffixErr):
		return AlreadyHasSuffix
	case errors.Is(err, naming.ErrInvalidOutputFilename):
		return InvalidOutputFilename
	case errors.Is(err, config.ErrInvalidCompressionLevel):
		return InvalidCompressionLevel
	case errors.Is(err, config.ErrInvalidThreadCount):
		return InvalidThreadCount
	case errors.Is(err, config.ErrInvalidMemoryLimit):
		return InvalidMemoryLimit
	case errors.Is(err, config.ErrUnimplemented):
		return Unimplemented
	case errors.Is(err, config.ErrInvalidOption):
		return InvalidOption
	case errors.Is(err, ErrTerminalInput):
		return TerminalInput
	case errors.Is(err, ErrTerminalOutput):
		return TerminalOutput
	case errors.As(err, &removeErr):
		return RemoveFile
	case errors.As(err, &readErr):
		return ReadError
	case errors.As(err, &writeErr):
		return WriteError
	case errors.As(err, &codecErr):
		switch codecErr.Kind {
		case codec.CorruptData:
			return CorruptData
		case codec.UnsupportedCheck:
			return UnsupportedCheck
		case codec.UnsupportedFormat:
			return UnsupportedFormat
		case codec.MemlimitExceeded:
			return MemlimitExceeded
		case codec.IoWithinCodec:
			if codecErr.Op == "write" {
				return WriteError
			}
			return ReadError
		default:
			return ProgrammingError
		}
	default:
		return Other
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error returns the same message as Message.
func (e *Error) Error() string {
	return e.Message()
}

// Severity is the severity of the Kind.
func (e *Error) Severity() Severity {
	return e.Kind.Severity()
}

// Message returns the message shown to users, without program name or path.
func (e *Error) Message() string {
	switch e.Kind {
	case OpenInput, CreateOutput:
		return cause(e.Err)
	case NotRegularFile:
		if errors.Is(e.Err, fileio.ErrIsDirectory) {
			return "Is a directory, skipping"
		}
		return "Not a regular file, skipping"
	case OutputExists:
		return "Output file already exists"
	case UnknownSuffix:
		return "Filename has an unknown suffix, skipping"
	case AlreadyHasSuffix:
		var suffixErr *naming.AlreadyHasSuffixError
		if errors.As(e.Err, &suffixErr) {
			return fmt.Sprintf("Already has `%s' suffix, skipping", suffixErr.Suffix)
		}
		return "Already has a compressed suffix, skipping"
	case InvalidOutputFilename:
		return "Cannot determine output filename"
	case MemlimitExceeded:
		var memErr *codec.MemlimitError
		if errors.As(e.Err, &memErr) {
			return memErr.Error()
		}
		return codec.MemlimitExceeded.String()
	case CorruptData:
		return codec.CorruptData.String()
	case UnsupportedCheck:
		return codec.UnsupportedCheck.String()
	case UnsupportedFormat:
		return codec.UnsupportedFormat.String()
	case ProgrammingError:
		return codec.ProgrammingError.String()
	case Unimplemented:
		return config.ErrUnimplemented.Error()
	case TerminalInput:
		return "Compressed data cannot be read from a terminal"
	case TerminalOutput:
		return "Compressed data cannot be written to a terminal"
	case RemoveFile:
		return "Cannot remove: " + cause(e.Err)
	case ReadError:
		return "Read error: " + cause(e.Err)
	case WriteError:
		return "Write error: " + cause(e.Err)
	case Interrupted:
		return "Interrupted"
	default:
		if e.Err == nil {
			return "Unknown error"
		}
		return capitalize(e.Err.Error())
	}
}

// cause returns the innermost system error message, capitalised like strerror.
func cause(err error) string {
	if err == nil {
		return "Unknown error"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return capitalize(errno.Error())
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return capitalize(pathErr.Err.Error())
	}

	var codecErr *codec.Error
	if errors.As(err, &codecErr) && codecErr.Err != nil {
		return cause(codecErr.Err)
	}

	var (
		readErr  *xzutils.ReadError
		writeErr *xzutils.WriteError
	)
	switch {
	case errors.As(err, &readErr):
		return cause(readErr.Err)
	case errors.As(err, &writeErr):
		return cause(writeErr.Err)
	}

	return capitalize(err.Error())
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}

	return string(s[0]-'a'+'A') + s[1:]
}

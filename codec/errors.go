package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Kind classifies codec failures.
type Kind int

const (
	// CorruptData means the compressed input is invalid or truncated, or its integrity check does not match.
	CorruptData Kind = iota
	// UnsupportedCheck means the xz stream uses an integrity check the decoder cannot verify.
	UnsupportedCheck
	// UnsupportedFormat means the input is not in any of the supported formats.
	UnsupportedFormat
	// MemlimitExceeded means decoding would need more memory than allowed.
	MemlimitExceeded
	// IoWithinCodec means the reader or writer given to the codec failed.
	IoWithinCodec
	// ProgrammingError means the codec was used incorrectly, such as calling Process after Finish.
	ProgrammingError
)

func (k Kind) String() string {
	switch k {
	case CorruptData:
		return "Compressed data is corrupt"
	case UnsupportedCheck:
		return "Unsupported type of integrity check"
	case UnsupportedFormat:
		return "File format not recognized"
	case MemlimitExceeded:
		return "Memory usage limit reached"
	case IoWithinCodec:
		return "I/O error"
	case ProgrammingError:
		return "Internal error (bug)"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned by all encoders and decoders.
type Error struct {
	Kind Kind
	// Op is the failing operation, such as "read", "write", "decode", "encode".
	Op  string
	Err error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	if e.Kind == IoWithinCodec {
		return fmt.Sprintf("%s error: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// MemlimitError is wrapped by Error with Kind MemlimitExceeded.
type MemlimitError struct {
	Needed, Limit uint64
}

func (e *MemlimitError) Error() string {
	return fmt.Sprintf("Memory usage limit reached (%s needed, limit is %s)", humanize.IBytes(e.Needed), humanize.IBytes(e.Limit))
}

// IsKind returns true if err is or wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func programmingError(format string, a ...any) *Error {
	return &Error{Kind: ProgrammingError, Op: "sequence", Err: fmt.Errorf(format, a...)}
}

// ioReader tags errors from the caller's reader so that they are not mistaken for corrupt data.
type ioReader struct {
	r io.Reader
}

func (r *ioReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if err != nil && err != io.EOF {
		err = newError(IoWithinCodec, "read", err)
	}

	return
}

// ioWriter tags errors from the caller's writer.
type ioWriter struct {
	w io.Writer
}

func (w *ioWriter) Write(p []byte) (n int, err error) {
	if n, err = w.w.Write(p); err != nil {
		err = newError(IoWithinCodec, "write", err)
	}

	return
}

// classify passes through *Error produced by ioReader/ioWriter, and labels everything else with the given kind.
func classify(err error, kind Kind, op string) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return newError(kind, op, err)
}

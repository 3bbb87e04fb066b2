package xzutils

import (
	"errors"
	"fmt"
	"io"
)

// ReadError is returned when reading from the source fails.
type ReadError struct {
	Err error
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error: %v", e.Err)
}

// WriteError is returned when writing to the destination fails.
type WriteError struct {
	Err error
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error: %v", e.Err)
}

// ioError replaces a codec error caused by the source or destination with the ReadError or WriteError behind it.
func ioError(err error) error {
	var re *ReadError
	if errors.As(err, &re) {
		return re
	}

	var we *WriteError
	if errors.As(err, &we) {
		return we
	}

	return err
}

// countingReader counts bytes read, tees them to progress, and tags errors with ReadError.
type countingReader struct {
	r        io.Reader
	progress io.Writer
	n        int64
}

func (r *countingReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if n > 0 {
		r.n += int64(n)
		if r.progress != nil {
			_, _ = r.progress.Write(p[:n])
		}
	}
	if err != nil && err != io.EOF {
		err = &ReadError{Err: err}
	}

	return
}

// countingWriter counts bytes written and tags errors with WriteError.
type countingWriter struct {
	w        io.Writer
	n        int64
	detached bool
}

func (w *countingWriter) Write(p []byte) (n int, err error) {
	if w.detached {
		return len(p), nil
	}

	n, err = w.w.Write(p)
	w.n += int64(n)
	switch {
	case err != nil:
		err = &WriteError{Err: err}
	case n != len(p):
		err = &WriteError{Err: io.ErrShortWrite}
	}

	return
}

// Package fileio opens the inputs and outputs of file jobs.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// BufferSize is the size of the buffers in front of files and standard streams.
const BufferSize = 64 * 1024

// ErrIsDirectory is returned by OpenInput for directories.
var ErrIsDirectory = errors.New("is a directory")

// ErrNotRegularFile is returned by OpenInput for special files unless forced.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenInputError is returned when the input file cannot be opened.
type OpenInputError struct {
	Path string
	Err  error
}

func (e *OpenInputError) Unwrap() error {
	return e.Err
}

func (e *OpenInputError) Error() string {
	return fmt.Sprintf("open input file error: %v", e.Err)
}

// Source is a buffered input.
type Source struct {
	*bufio.Reader

	// File is nil for standard input.
	File *os.File
	// Info is nil for standard input.
	Info os.FileInfo
}

// IsStdin returns true if the source is standard input.
func (s *Source) IsStdin() bool {
	return s.File == nil
}

// Name returns the file name, or empty string for standard input.
func (s *Source) Name() string {
	if s.File == nil {
		return ""
	}

	return s.File.Name()
}

// Size returns the file size, or -1 if unknown.
func (s *Source) Size() int64 {
	if s.Info == nil || !s.Info.Mode().IsRegular() {
		return -1
	}

	return s.Info.Size()
}

// Close closes the file. Standard input is never closed.
func (s *Source) Close() error {
	if s.File == nil {
		return nil
	}

	return s.File.Close()
}

// OpenInput opens the named file, or wraps stdin if name is empty or "-".
//
// Directories are always refused. Other special files (devices, named pipes) are refused unless force is true.
func OpenInput(name string, stdin io.Reader, force bool) (*Source, error) {
	if name == "" || name == "-" {
		return &Source{Reader: bufio.NewReaderSize(stdin, BufferSize)}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, &OpenInputError{Path: name, Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &OpenInputError{Path: name, Err: err}
	}

	switch {
	case fi.IsDir():
		_ = f.Close()
		return nil, ErrIsDirectory
	case !fi.Mode().IsRegular() && !force:
		_ = f.Close()
		return nil, ErrNotRegularFile
	}

	return &Source{Reader: bufio.NewReaderSize(f, BufferSize), File: f, Info: fi}, nil
}

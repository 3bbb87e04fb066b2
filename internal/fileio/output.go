package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nguyengg/xzutils/internal/config"
	"github.com/nguyengg/xzutils/sparse"
)

// OutputKind is the kind of a Sink.
type OutputKind int

const (
	FileOutput OutputKind = iota
	StdoutOutput
	DiscardOutput
)

// ErrOutputExists is returned by OpenOutput when the file exists and force is not set.
var ErrOutputExists = errors.New("output file already exists")

// CreateOutputError is returned when the output file cannot be created.
type CreateOutputError struct {
	Path string
	Err  error
}

func (e *CreateOutputError) Unwrap() error {
	return e.Err
}

func (e *CreateOutputError) Error() string {
	return fmt.Sprintf("create output file error: %v", e.Err)
}

// Sink is where decompressed or compressed bytes go.
//
// Exactly one of Commit or Abort should be called; calling either again afterwards is a no-op.
type Sink interface {
	io.Writer

	// Name returns the file name, empty for standard output and discard.
	Name() string

	// Kind returns the kind of the sink.
	Kind() OutputKind

	// Commit flushes everything and releases the sink. A file is synced (best-effort) and closed.
	Commit() error

	// Abort releases the sink. A file is closed and removed.
	Abort() error
}

// OpenOutput opens the output of a job.
//
// Standard output is used if cfg.Stdout is set or name is empty. Otherwise, the file is created, failing with
// ErrOutputExists if it already exists unless cfg.Force is set, in which case the file is truncated. Regular files are
// wrapped with a sparse.Writer if cfg.Sparse is set.
func OpenOutput(name string, cfg *config.Config, stdout io.Writer) (Sink, error) {
	if cfg.Stdout || name == "" {
		return Stdout(stdout), nil
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if cfg.Force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(name, flag, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrOutputExists
		}

		return nil, &CreateOutputError{Path: name, Err: err}
	}

	s := &fileSink{f: f}

	if fi, err := f.Stat(); cfg.Sparse && err == nil && fi.Mode().IsRegular() {
		if s.sw, err = sparse.NewWriter(f); err != nil {
			_, _ = f.Close(), os.Remove(name)
			return nil, &CreateOutputError{Path: name, Err: err}
		}

		s.w = s.sw
		return s, nil
	}

	s.bw = bufio.NewWriterSize(f, BufferSize)
	s.w = s.bw
	return s, nil
}

type fileSink struct {
	f    *os.File
	w    io.Writer
	bw   *bufio.Writer
	sw   *sparse.Writer
	done bool
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *fileSink) Name() string {
	return s.f.Name()
}

func (s *fileSink) Kind() OutputKind {
	return FileOutput
}

func (s *fileSink) flush() error {
	if s.sw != nil {
		return s.sw.Flush()
	}

	return s.bw.Flush()
}

func (s *fileSink) Commit() error {
	if s.done {
		return nil
	}
	s.done = true

	if err := s.flush(); err != nil {
		_, _ = s.f.Close(), os.Remove(s.f.Name())
		return fmt.Errorf("flush output file error: %w", err)
	}

	// some file systems and special files do not support fsync.
	_ = s.f.Sync()

	if err := s.f.Close(); err != nil {
		_ = os.Remove(s.f.Name())
		return fmt.Errorf("close output file error: %w", err)
	}

	return nil
}

func (s *fileSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true

	_ = s.f.Close()
	if err := os.Remove(s.f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial output file error: %w", err)
	}

	return nil
}

// Stdout returns a Sink writing to the given standard output. Standard output is flushed but never closed.
func Stdout(stdout io.Writer) Sink {
	return &stdoutSink{bw: bufio.NewWriterSize(stdout, BufferSize)}
}

type stdoutSink struct {
	bw *bufio.Writer
}

func (s *stdoutSink) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

func (s *stdoutSink) Name() string {
	return ""
}

func (s *stdoutSink) Kind() OutputKind {
	return StdoutOutput
}

func (s *stdoutSink) Commit() error {
	return s.bw.Flush()
}

// Abort flushes what has been produced so far.
func (s *stdoutSink) Abort() error {
	return s.bw.Flush()
}

// Discard returns a Sink that counts and drops everything.
func Discard() Sink {
	return &discardSink{}
}

type discardSink struct {
	Size int64
}

func (s *discardSink) Write(p []byte) (n int, err error) {
	n = len(p)
	s.Size += int64(n)
	return
}

func (s *discardSink) Name() string {
	return ""
}

func (s *discardSink) Kind() OutputKind {
	return DiscardOutput
}

func (s *discardSink) Commit() error {
	return nil
}

func (s *discardSink) Abort() error {
	return nil
}

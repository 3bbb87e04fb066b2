// Package sparse provides a writer that turns long runs of zero bytes into file holes.
package sparse

import (
	"bufio"
	"fmt"
	"io"
)

const (
	// DefaultThreshold is the minimum length of a zero run that is skipped over instead of written.
	DefaultThreshold = 4096
	// DefaultBufferSize is the size of the write buffer in front of the file.
	DefaultBufferSize = 512 * 1024

	zeroBufSize = 8192
)

var zeros [zeroBufSize]byte

// File is the subset of *os.File used by Writer.
type File interface {
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

// Options customises NewWriter.
type Options struct {
	// Threshold is the minimum length of a zero run to be turned into a hole.
	//
	// Default to DefaultThreshold. Values less than 1 are treated as 1.
	Threshold int64

	// BufferSize is the size of the write buffer.
	//
	// Default to DefaultBufferSize.
	BufferSize int
}

// Writer elides runs of zero bytes of at least Options.Threshold length by seeking over them.
//
// The file's readable contents are identical to what a plain writer would have produced. Flush must be called at the
// end so that a trailing run of zeros is materialised by setting the file's length.
type Writer struct {
	f         File
	bw        *bufio.Writer
	threshold int64
	// base is the file offset at which the writer started.
	base int64
	// pos is the logical offset relative to base, excluding pending zeros.
	pos     int64
	pending int64
	err     error
}

// NewWriter wraps the given file starting at its current offset.
func NewWriter(f File, optFns ...func(*Options)) (*Writer, error) {
	opts := &Options{
		Threshold:  DefaultThreshold,
		BufferSize: DefaultBufferSize,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	base, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get file offset error: %w", err)
	}

	return &Writer{
		f:         f,
		bw:        bufio.NewWriterSize(f, max(opts.BufferSize, 4096)),
		threshold: max(opts.Threshold, 1),
		base:      base,
	}, nil
}

// WithThreshold changes Options.Threshold.
func WithThreshold(threshold int64) func(*Options) {
	return func(opts *Options) {
		opts.Threshold = threshold
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}

	for n < len(p) {
		rest := p[n:]

		if z := zeroPrefix(rest); z > 0 {
			w.pending += int64(z)
			n += z
			continue
		}

		if w.err = w.materialize(); w.err != nil {
			return n, w.err
		}

		m := nonZeroPrefix(rest)
		if _, w.err = w.bw.Write(rest[:m]); w.err != nil {
			return n, w.err
		}
		w.pos += int64(m)
		n += m
	}

	return n, nil
}

// materialize turns the pending zeros into either a hole or literal zeros.
func (w *Writer) materialize() error {
	if w.pending == 0 {
		return nil
	}

	if w.pending >= w.threshold {
		if err := w.bw.Flush(); err != nil {
			return err
		}

		if _, err := w.f.Seek(w.base+w.pos+w.pending, io.SeekStart); err != nil {
			return fmt.Errorf("seek over hole error: %w", err)
		}
	} else {
		for remaining := w.pending; remaining > 0; {
			m := min(remaining, zeroBufSize)
			if _, err := w.bw.Write(zeros[:m]); err != nil {
				return err
			}
			remaining -= m
		}
	}

	w.pos += w.pending
	w.pending = 0
	return nil
}

// Flush writes all buffered data and sets the file's length to the logical position.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}

	if w.err = w.materialize(); w.err != nil {
		return w.err
	}

	if w.err = w.bw.Flush(); w.err != nil {
		return w.err
	}

	if w.err = w.f.Truncate(w.base + w.pos); w.err != nil {
		w.err = fmt.Errorf("set file length error: %w", w.err)
	}

	return w.err
}

// Close flushes the writer. The underlying file is not closed.
func (w *Writer) Close() error {
	return w.Flush()
}

// Size returns the number of logical bytes written so far.
func (w *Writer) Size() int64 {
	return w.pos + w.pending
}

func zeroPrefix(p []byte) int {
	for i, b := range p {
		if b != 0 {
			return i
		}
	}

	return len(p)
}

func nonZeroPrefix(p []byte) int {
	for i, b := range p {
		if b == 0 {
			return i
		}
	}

	return len(p)
}

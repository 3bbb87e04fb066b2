package codec

import (
	"fmt"
	"io"
	"time"
)

// Encoder compresses everything written to it into the destination given to NewEncoder.
//
// Write is Process with Run, Close is Process with Finish (Close after Finish is a no-op). Once Finish has been
// processed the encoder reports Done, and any further Process call fails with ProgrammingError.
type Encoder interface {
	io.WriteCloser

	// Process compresses in and then applies action.
	//
	// consumed is always len(in) on success since the encoder writes its output directly to the destination.
	Process(in []byte, action Action) (consumed int, state State, err error)

	// Flush is Process with no input.
	Flush(action Action) error

	// State returns the state reported by the last Process call.
	State() State
}

// EncoderOptions customises NewEncoder.
type EncoderOptions struct {
	// Format is the output format. Auto means Xz.
	Format Format
	// Level is the compression preset 0..9.
	Level int
	// Extreme trades more CPU time for slightly better ratio.
	Extreme bool
	// Threads is the number of worker goroutines. Only gzip supports more than 1.
	Threads int
	// Check is the integrity check of xz streams.
	Check Check
	// BlockSize is the uncompressed size of xz blocks. 0 uses the library default.
	BlockSize int64
	// Lzma1 overrides the LZMA properties of the xz and lzma formats.
	Lzma1 *Lzma1Options
	// Name and ModTime are stored in the gzip header.
	Name    string
	ModTime time.Time
}

// stream is implemented by each format.
type stream interface {
	io.Writer
	flush(action Action) error
	finish() error
}

// NewEncoder creates a new Encoder writing compressed data to dst.
func NewEncoder(dst io.Writer, opts EncoderOptions) (Encoder, error) {
	if opts.Level < 0 || opts.Level > 9 {
		return nil, newError(ProgrammingError, "encode", fmt.Errorf("unsupported preset: %d", opts.Level))
	}

	var (
		s   stream
		err error
		w   = &ioWriter{w: dst}
	)

	switch opts.Format {
	case Auto, Xz:
		s, err = newXzStream(w, opts)
	case Lzma:
		s, err = newLzmaStream(w, opts)
	case Gzip:
		s, err = newGzipStream(w, opts)
	default:
		return nil, newError(UnsupportedFormat, "encode", fmt.Errorf("unknown format: %v", opts.Format))
	}
	if err != nil {
		return nil, classify(err, ProgrammingError, "encode")
	}

	return &encoder{s: s}, nil
}

type encoder struct {
	s     stream
	state State
}

func (e *encoder) Process(in []byte, action Action) (consumed int, state State, err error) {
	if e.state == Done {
		return 0, Done, programmingError("%s after finish", action)
	}

	if len(in) > 0 {
		if consumed, err = e.s.Write(in); err != nil {
			return consumed, e.state, classify(err, IoWithinCodec, "encode")
		}
	}

	switch action {
	case Run:
		e.state = NeedMore
	case Finish:
		if err = e.s.finish(); err != nil {
			return consumed, e.state, classify(err, IoWithinCodec, "encode")
		}
		e.state = Done
	case SyncFlush, FullFlush, FullBarrier:
		if err = e.s.flush(action); err != nil {
			return consumed, e.state, classify(err, IoWithinCodec, "flush")
		}
		e.state = NeedMore
	default:
		return consumed, e.state, programmingError("unknown action %v", action)
	}

	return consumed, e.state, nil
}

func (e *encoder) Write(p []byte) (n int, err error) {
	n, _, err = e.Process(p, Run)
	return
}

func (e *encoder) Flush(action Action) error {
	_, _, err := e.Process(nil, action)
	return err
}

func (e *encoder) Close() error {
	if e.state == Done {
		return nil
	}

	_, _, err := e.Process(nil, Finish)
	return err
}

func (e *encoder) State() State {
	return e.state
}

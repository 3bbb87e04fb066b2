package xzutils

import (
	"context"
	"io"

	"github.com/nguyengg/xzutils/codec"
)

// CompressOptions customises Compress.
type CompressOptions struct {
	// Encoder customises the codec.
	//
	// Default to xz at level 6 with CRC64 check.
	Encoder codec.EncoderOptions

	// BufferSize is the size of the input scratch buffer.
	//
	// Default to DefaultBufferSize. Values smaller than MinBufferSize are raised to MinBufferSize.
	BufferSize int

	// FlushEvery requests a codec.FullFlush every time at least this many bytes have been read since the last flush.
	//
	// The zero value means only codec.Finish at the end.
	FlushEvery int64

	// Progress receives a copy of every chunk read from the source.
	Progress io.Writer
}

// Compress compresses src into dst.
//
// The context is checked after every chunk. The returned Summary is valid even if an error is returned.
func Compress(ctx context.Context, src io.Reader, dst io.Writer, optFns ...func(*CompressOptions)) (s Summary, err error) {
	opts := &CompressOptions{
		Encoder:    codec.EncoderOptions{Format: codec.Xz, Level: 6, Check: codec.Crc64},
		BufferSize: DefaultBufferSize,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	cr := &countingReader{r: src, progress: opts.Progress}
	cw := &countingWriter{w: dst}
	defer func() {
		s = Summary{BytesRead: cr.n, BytesWritten: cw.n}
	}()

	enc, err := codec.NewEncoder(cw, opts.Encoder)
	if err != nil {
		return s, err
	}

	success := false
	defer func() {
		if !success {
			// release the encoder (and any pgzip workers) without emitting a trailer.
			cw.detached = true
			_ = enc.Close()
		}
	}()

	var (
		buf        = make([]byte, max(opts.BufferSize, MinBufferSize))
		sinceFlush int64
		n          int
		state      codec.State
	)

	for state != codec.Done {
		if err = checkContext(ctx); err != nil {
			return s, err
		}

		n, err = cr.Read(buf)
		if err != nil && err != io.EOF {
			return s, err
		}

		action := codec.Run
		switch sinceFlush += int64(n); {
		case err == io.EOF:
			action = codec.Finish
		case opts.FlushEvery > 0 && sinceFlush >= opts.FlushEvery:
			action = codec.FullFlush
			sinceFlush = 0
		}

		if _, state, err = enc.Process(buf[:n], action); err != nil {
			return s, ioError(err)
		}
	}

	success = true
	return s, nil
}

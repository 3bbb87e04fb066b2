package xzutils

import (
	"context"
	"io"

	"github.com/nguyengg/xzutils/codec"
)

// DecompressOptions customises Decompress and Test.
type DecompressOptions struct {
	// Decoder customises the codec.
	//
	// Default to auto-detecting the format, consuming concatenated streams, without memory limit.
	Decoder codec.DecoderOptions

	// BufferSize is the size of the output scratch buffer.
	//
	// Default to DefaultBufferSize. Values smaller than MinBufferSize are raised to MinBufferSize.
	BufferSize int

	// Progress receives a copy of every chunk of compressed data read from the source.
	Progress io.Writer
}

// Decompress decompresses src into dst.
//
// The context is checked after every chunk. The returned Summary is valid even if an error is returned.
func Decompress(ctx context.Context, src io.Reader, dst io.Writer, optFns ...func(*DecompressOptions)) (s Summary, err error) {
	opts := &DecompressOptions{
		Decoder:    codec.DecoderOptions{Format: codec.Auto, Flags: codec.Concatenated},
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

	dec, err := codec.NewDecoder(ctx, cr, opts.Decoder)
	if err != nil {
		return s, ioError(err)
	}

	buf := make([]byte, max(opts.BufferSize, MinBufferSize))
	for dec.State() != codec.Done {
		if err = checkContext(ctx); err != nil {
			_ = dec.Close()
			return s, err
		}

		var n int
		n, err = dec.Read(buf)
		if n > 0 {
			if _, werr := cw.Write(buf[:n]); werr != nil {
				_ = dec.Close()
				return s, werr
			}
		}

		if err != nil && err != io.EOF {
			_ = dec.Close()
			return s, ioError(err)
		}
	}

	if err = dec.Close(); err != nil {
		return s, ioError(err)
	}

	return s, nil
}

// Test decompresses src and discards the output, verifying that it can be decompressed.
func Test(ctx context.Context, src io.Reader, optFns ...func(*DecompressOptions)) (Summary, error) {
	return Decompress(ctx, src, io.Discard, optFns...)
}

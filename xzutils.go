// Package xzutils drives data through the xz, lzma, and gzip codecs with bounded memory.
//
// Compress, Decompress, and Test each run one input through one codec and report the number of bytes read and
// written. They are the streaming core behind the xz, unxz, xzcat, xzdec, lzma, unlzma, lzcat, gzip, gunzip, and zcat
// commands.
package xzutils

import (
	"context"
	"fmt"
)

const (
	// DefaultBufferSize is the default size of each scratch buffer.
	DefaultBufferSize = 512 * 1024
	// MinBufferSize is the minimum size of each scratch buffer.
	MinBufferSize = 64 * 1024
)

// Summary is the number of bytes read from the source and written to the destination.
type Summary struct {
	BytesRead    int64
	BytesWritten int64
}

// Ratio returns compressed size over uncompressed size in percent, or 0 if nothing was read.
//
// For compression that is BytesWritten/BytesRead, for decompression BytesRead/BytesWritten.
func (s Summary) Ratio(compress bool) float64 {
	in, out := s.BytesRead, s.BytesWritten
	if !compress {
		in, out = out, in
	}
	if in == 0 {
		return 0
	}

	return float64(out) * 100 / float64(in)
}

func (s Summary) String() string {
	return fmt.Sprintf("read %d bytes, wrote %d bytes", s.BytesRead, s.BytesWritten)
}

// checkContext returns ctx.Err() if ctx is done.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

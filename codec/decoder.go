package codec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// decoderBufferSize must be large enough to peek the largest xz block header.
const decoderBufferSize = 64 << 10

// Decoder decompresses data read from the source given to NewDecoder.
//
// Read returns io.EOF once the end of the compressed data has been reached, at which point State returns Done.
type Decoder interface {
	io.ReadCloser

	// State returns NeedMore until the end of the stream has been reached, then Done.
	State() State

	// Format returns the format of the compressed data, detected if DecoderOptions.Format was Auto.
	Format() Format
}

// DecoderOptions customises NewDecoder.
type DecoderOptions struct {
	// Format is the expected format. Auto detects the format from the first bytes.
	Format Format
	// MemoryLimit is the maximum amount of memory the decoder may use. 0 means no limit.
	MemoryLimit uint64
	// Threads is the number of worker goroutines. Only gzip supports more than 1.
	Threads int
	Flags   Flags
}

// NewDecoder creates a new Decoder reading compressed data from src.
//
// The headers are inspected eagerly, so a memory limit violation or an unknown format is reported here rather than on
// the first Read.
func NewDecoder(ctx context.Context, src io.Reader, opts DecoderOptions) (Decoder, error) {
	br := bufio.NewReaderSize(&ioReader{r: src}, decoderBufferSize)

	format := opts.Format
	if format == Auto {
		var err error
		if format, err = Detect(ctx, br); err != nil {
			return nil, err
		}
	} else if err := checkMagic(br, format); err != nil {
		return nil, err
	}

	if err := checkMemlimit(br, format, opts.Threads, opts.MemoryLimit); err != nil {
		return nil, err
	}

	d := &decoder{format: format, flags: opts.Flags, br: br}

	switch format {
	case Xz:
		r, err := xz.ReaderConfig{SingleStream: opts.Flags.Has(SingleStream)}.NewReader(br)
		if err != nil {
			return nil, classify(err, CorruptData, "decode")
		}
		d.r = r

	case Lzma:
		r, err := lzma.NewReader(br)
		if err != nil {
			return nil, classify(err, CorruptData, "decode")
		}
		d.r = r

	case Gzip:
		if opts.Threads > 1 {
			r, err := pgzip.NewReaderN(br, pgzipBlockSize, opts.Threads)
			if err != nil {
				return nil, classify(err, CorruptData, "decode")
			}
			r.Multistream(!opts.Flags.Has(SingleStream))
			d.r, d.closer = r, r
			break
		}

		r, err := gzip.NewReader(br)
		if err != nil {
			return nil, classify(err, CorruptData, "decode")
		}
		r.Multistream(!opts.Flags.Has(SingleStream))
		d.r, d.closer = r, r

	default:
		return nil, newError(UnsupportedFormat, "decode", fmt.Errorf("unknown format: %v", format))
	}

	return d, nil
}

type decoder struct {
	format Format
	flags  Flags
	br     *bufio.Reader
	r      io.Reader
	closer io.Closer
	state  State
	closed bool
}

func (d *decoder) Read(p []byte) (n int, err error) {
	switch {
	case d.closed:
		return 0, programmingError("read after close")
	case d.state == Done:
		return 0, io.EOF
	case len(p) == 0:
		return 0, nil
	}

	n, err = d.r.Read(p)
	switch {
	case err == nil:
		if n == len(p) {
			d.state = HasMore
		} else {
			d.state = NeedMore
		}
		return n, nil

	case err == io.EOF:
		if err = d.checkTrailing(); err != nil {
			return n, err
		}
		d.state = Done
		return n, io.EOF

	case d.format == Xz && d.flags.Has(SingleStream) && strings.Contains(err.Error(), "after stream"):
		// ulikunitz/xz reports data following the first stream as an error in single-stream mode.
		d.state = Done
		return n, io.EOF

	default:
		return n, classify(err, CorruptData, "decode")
	}
}

// checkTrailing rejects bytes after the end of a .lzma stream, which cannot be concatenated.
func (d *decoder) checkTrailing() error {
	if d.format != Lzma || d.flags.Has(SingleStream) {
		return nil
	}

	switch _, err := d.br.Peek(1); {
	case err == nil:
		return newError(CorruptData, "decode", errors.New("trailing data after end of lzma stream"))
	case err == io.EOF:
		return nil
	default:
		return classify(err, IoWithinCodec, "read")
	}
}

func (d *decoder) State() State {
	return d.state
}

func (d *decoder) Format() Format {
	return d.format
}

func (d *decoder) Close() error {
	if d.closed {
		return programmingError("close after close")
	}

	d.closed = true
	if d.closer != nil {
		return d.closer.Close()
	}

	return nil
}

package codec

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/mholt/archives"
)

// Detect peeks at the first bytes of br and returns the format of the compressed data.
//
// XZ and gzip are recognised by their magic bytes. Legacy .lzma has no magic bytes, so its header is recognised only
// if the properties, dictionary size, and uncompressed size all look sane.
func Detect(ctx context.Context, br peeker) (Format, error) {
	head, err := br.Peek(lzmaHeaderLen)
	if len(head) == 0 {
		if err == nil || err == io.EOF {
			return Auto, newError(UnsupportedFormat, "detect", errors.New("empty input"))
		}

		return Auto, classify(err, IoWithinCodec, "read")
	}

	if m, err := (archives.Xz{}).Match(ctx, "", bytes.NewReader(head)); err == nil && m.ByStream {
		return Xz, nil
	}

	if m, err := (archives.Gz{}).Match(ctx, "", bytes.NewReader(head)); err == nil && m.ByStream {
		return Gzip, nil
	}

	if h, ok := parseLzmaHeader(head); ok && h.plausible() {
		return Lzma, nil
	}

	return Auto, newError(UnsupportedFormat, "detect", nil)
}

// checkMagic verifies that an explicitly requested format matches the input.
func checkMagic(br peeker, format Format) error {
	switch format {
	case Xz:
		// parseXzHeader reports the mismatch.
		return nil
	case Gzip:
		head, _ := br.Peek(len(gzipMagic))
		if !bytes.Equal(head, gzipMagic) {
			return newError(UnsupportedFormat, "detect", nil)
		}
	case Lzma:
		head, _ := br.Peek(lzmaHeaderLen)
		if _, ok := parseLzmaHeader(head); !ok {
			return newError(UnsupportedFormat, "detect", nil)
		}
	}

	return nil
}

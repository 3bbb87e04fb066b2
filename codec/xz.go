package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

const (
	xzStreamHeaderLen = 12
	xzFilterLZMA2     = 0x21
)

// presetDictCap maps compression levels 0..9 to dictionary sizes.
var presetDictCap = [10]int{
	256 << 10,
	1 << 20,
	2 << 20,
	4 << 20,
	4 << 20,
	8 << 20,
	8 << 20,
	16 << 20,
	32 << 20,
	64 << 20,
}

func matcher(extreme bool) lzma.MatchAlgorithm {
	if extreme {
		return lzma.BinaryTree
	}

	return lzma.HashTable4
}

// xzStream emulates flushing by ending the current xz stream; the next write starts a new one. Decoders consume
// concatenated streams so the output remains a valid .xz file.
type xzStream struct {
	cfg     xz.WriterConfig
	dst     io.Writer
	w       *xz.Writer
	started bool
}

func newXzStream(dst io.Writer, opts EncoderOptions) (*xzStream, error) {
	cfg := xz.WriterConfig{
		DictCap:   presetDictCap[opts.Level],
		BlockSize: opts.BlockSize,
		Matcher:   matcher(opts.Extreme),
	}

	switch opts.Check {
	case None:
		cfg.NoCheckSum = true
	case Crc32:
		cfg.CheckSum = xz.CRC32
	case Crc64:
		cfg.CheckSum = xz.CRC64
	case Sha256:
		cfg.CheckSum = xz.SHA256
	default:
		return nil, fmt.Errorf("unknown check: %v", opts.Check)
	}

	if o := opts.Lzma1; o != nil {
		o.apply(&cfg.DictCap, &cfg.Matcher)
		cfg.Properties = o.properties()
	}

	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("verify xz writer config error: %w", err)
	}

	return &xzStream{cfg: cfg, dst: dst}, nil
}

func (s *xzStream) start() (err error) {
	s.w, err = s.cfg.NewWriter(s.dst)
	s.started = true
	return
}

func (s *xzStream) Write(p []byte) (int, error) {
	if s.w == nil {
		if err := s.start(); err != nil {
			return 0, err
		}
	}

	return s.w.Write(p)
}

func (s *xzStream) flush(Action) error {
	if s.w == nil {
		return nil
	}

	w := s.w
	s.w = nil
	return w.Close()
}

func (s *xzStream) finish() error {
	// an empty input still produces one complete stream.
	if !s.started {
		if err := s.start(); err != nil {
			return err
		}
	}

	return s.flush(Finish)
}

// xzHeader is what can be learned about an xz stream from its first bytes.
type xzHeader struct {
	// check is the check ID from the stream flags.
	check byte
	// dictCap is the dictionary size of the first block's LZMA2 filter, 0 if the stream has no block.
	dictCap uint64
}

// parseXzHeader parses the stream header and, if present, the first block header.
//
// The bufio.Reader is only peeked, never advanced.
func parseXzHeader(br peeker) (h xzHeader, err error) {
	data, err := br.Peek(xzStreamHeaderLen + 1)
	if len(data) < xzStreamHeaderLen+1 {
		return h, newError(CorruptData, "decode", fmt.Errorf("truncated xz header: %w", noEOF(err)))
	}

	if !bytes.Equal(data[:len(xzMagic)], xzMagic) {
		return h, newError(UnsupportedFormat, "decode", errors.New("invalid xz magic bytes"))
	}

	flags := data[6:8]
	if crc32.ChecksumIEEE(flags) != binary.LittleEndian.Uint32(data[8:12]) {
		return h, newError(CorruptData, "decode", errors.New("xz stream header checksum mismatch"))
	}
	if flags[0] != 0 || flags[1]&0xf0 != 0 {
		return h, newError(CorruptData, "decode", errors.New("invalid xz stream flags"))
	}

	switch h.check = flags[1] & 0x0f; h.check {
	case xz.None, xz.CRC32, xz.CRC64, xz.SHA256:
	default:
		return h, newError(UnsupportedCheck, "decode", fmt.Errorf("check ID %d", h.check))
	}

	// 0 indicates the index, i.e. a stream without blocks.
	b := data[xzStreamHeaderLen]
	if b == 0 {
		return h, nil
	}

	size := (int(b) + 1) * 4
	if data, err = br.Peek(xzStreamHeaderLen + size); len(data) < xzStreamHeaderLen+size {
		return h, newError(CorruptData, "decode", fmt.Errorf("truncated xz block header: %w", noEOF(err)))
	}

	hdr := data[xzStreamHeaderLen : xzStreamHeaderLen+size-4]
	if crc32.ChecksumIEEE(hdr) != binary.LittleEndian.Uint32(data[xzStreamHeaderLen+size-4:]) {
		return h, newError(CorruptData, "decode", errors.New("xz block header checksum mismatch"))
	}

	pos := 2
	next := func() (uint64, bool) {
		v, n := binary.Uvarint(hdr[min(pos, len(hdr)):])
		if n <= 0 {
			return 0, false
		}
		pos += n
		return v, true
	}

	bflags := hdr[1]
	if bflags&0x40 != 0 {
		if _, ok := next(); !ok {
			return h, newError(CorruptData, "decode", errors.New("invalid compressed size in xz block header"))
		}
	}
	if bflags&0x80 != 0 {
		if _, ok := next(); !ok {
			return h, newError(CorruptData, "decode", errors.New("invalid uncompressed size in xz block header"))
		}
	}

	for i, n := 0, int(bflags&0x03)+1; i < n; i++ {
		id, ok := next()
		if !ok {
			return h, newError(CorruptData, "decode", errors.New("invalid filter ID in xz block header"))
		}
		propsLen, ok := next()
		if !ok || pos+int(propsLen) > len(hdr) {
			return h, newError(CorruptData, "decode", errors.New("invalid filter properties in xz block header"))
		}
		props := hdr[pos : pos+int(propsLen)]
		pos += int(propsLen)

		if id == xzFilterLZMA2 && len(props) == 1 {
			if h.dictCap, err = lzma2DictCap(props[0]); err != nil {
				return h, err
			}
		}
	}

	return h, nil
}

func lzma2DictCap(p byte) (uint64, error) {
	switch {
	case p > 40:
		return 0, newError(CorruptData, "decode", fmt.Errorf("invalid LZMA2 dictionary size byte %d", p))
	case p == 40:
		return 0xffffffff, nil
	default:
		return uint64(2|(p&1)) << (p/2 + 11), nil
	}
}

type peeker interface {
	Peek(n int) ([]byte, error)
}

func noEOF(err error) error {
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}

	return err
}

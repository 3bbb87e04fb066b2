package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz/lzma"
)

const (
	lzmaHeaderLen = 13
	// lzmaMaxKnownSize rejects absurd uncompressed sizes during format detection.
	lzmaMaxKnownSize = 1 << 38
	lzmaUnknownSize  = ^uint64(0)
)

type lzmaStream struct {
	w *lzma.Writer
}

func newLzmaStream(dst io.Writer, opts EncoderOptions) (*lzmaStream, error) {
	cfg := lzma.WriterConfig{
		Properties: &lzma.Properties{LC: 3, LP: 0, PB: 2},
		DictCap:    presetDictCap[opts.Level],
		Matcher:    matcher(opts.Extreme),
		EOSMarker:  true,
	}

	if o := opts.Lzma1; o != nil {
		o.apply(&cfg.DictCap, &cfg.Matcher)
		cfg.Properties = o.properties()
	}

	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("verify lzma writer config error: %w", err)
	}

	w, err := cfg.NewWriter(dst)
	if err != nil {
		return nil, err
	}

	return &lzmaStream{w: w}, nil
}

func (s *lzmaStream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *lzmaStream) flush(action Action) error {
	return programmingError("%s is not supported by the lzma format", action)
}

func (s *lzmaStream) finish() error {
	return s.w.Close()
}

// lzmaHeader is the 13-byte header of a .lzma file.
type lzmaHeader struct {
	lc, lp, pb int
	dictCap    uint32
	size       uint64
}

func parseLzmaHeader(data []byte) (h lzmaHeader, ok bool) {
	if len(data) < lzmaHeaderLen {
		return h, false
	}

	d := int(data[0])
	if d >= 9*5*5 {
		return h, false
	}
	h.lc, d = d%9, d/9
	h.lp, h.pb = d%5, d/5

	h.dictCap = binary.LittleEndian.Uint32(data[1:5])
	h.size = binary.LittleEndian.Uint64(data[5:13])
	return h, true
}

// plausible applies the checks used to recognise a .lzma file in auto-detect mode: the dictionary size must be
// 2^n or 2^n+2^(n-1) (or UINT32_MAX), and the uncompressed size must be unknown or reasonably small.
func (h lzmaHeader) plausible() bool {
	if h.dictCap != 0xffffffff {
		d := h.dictCap
		if d < 4096 {
			return false
		}
		n := bits.Len32(d) - 1
		if d != 1<<n && d != 1<<n|1<<(n-1) {
			return false
		}
	}

	return h.size == lzmaUnknownSize || h.size < lzmaMaxKnownSize
}

// memUsage approximates the decoder's memory need: dictionary plus literal coder probabilities.
func (h lzmaHeader) memUsage() uint64 {
	return uint64(h.dictCap) + uint64(0x300<<(h.lc+h.lp))*2 + decoderOverhead
}

// Lzma1Options are the LZMA1/LZMA2 encoder properties that can be set with --lzma1.
//
// Options not supported by the encoder (nice, depth) are parsed and ignored.
type Lzma1Options struct {
	DictCap     int
	LC, LP, PB  int
	MatchFinder lzma.MatchAlgorithm
	// Nice and Depth are accepted for compatibility.
	Nice, Depth int
}

// DefaultLzma1Options returns the options of the given preset level.
func DefaultLzma1Options(level int, extreme bool) *Lzma1Options {
	return &Lzma1Options{
		DictCap:     presetDictCap[max(0, min(9, level))],
		LC:          3,
		LP:          0,
		PB:          2,
		MatchFinder: matcher(extreme),
	}
}

// ParseLzma1Options parses a comma-separated list of name=value pairs such as "preset=6e,dict=64MiB,lc=4".
//
// A preset entry resets every option to the preset's values, so it should come first.
func ParseLzma1Options(s string) (*Lzma1Options, error) {
	o := DefaultLzma1Options(6, false)

	for _, kv := range strings.Split(s, ",") {
		if kv = strings.TrimSpace(kv); kv == "" {
			continue
		}

		k, v, ok := strings.Cut(kv, "=")
		if !ok || v == "" {
			return nil, fmt.Errorf("invalid lzma1 option %q: expected name=value", kv)
		}

		var err error
		switch k {
		case "preset":
			extreme := strings.HasSuffix(v, "e")
			var level int
			if level, err = strconv.Atoi(strings.TrimSuffix(v, "e")); err != nil || level < 0 || level > 9 {
				return nil, fmt.Errorf("unsupported preset: %s", v)
			}
			o = DefaultLzma1Options(level, extreme)
		case "dict":
			var n uint64
			if n, err = parseSize(v); err == nil && (n < 4096 || n > 1<<30*3/2) {
				err = errors.New("out of range")
			}
			o.DictCap = int(n)
		case "lc":
			o.LC, err = parseIntRange(v, 0, 4)
		case "lp":
			o.LP, err = parseIntRange(v, 0, 4)
		case "pb":
			o.PB, err = parseIntRange(v, 0, 4)
		case "mf":
			switch v {
			case "hc3", "hc4":
				o.MatchFinder = lzma.HashTable4
			case "bt2", "bt3", "bt4":
				o.MatchFinder = lzma.BinaryTree
			default:
				err = errors.New("unknown match finder")
			}
		case "mode":
			switch v {
			case "fast":
				o.MatchFinder = lzma.HashTable4
			case "normal":
				o.MatchFinder = lzma.BinaryTree
			default:
				err = errors.New("unknown mode")
			}
		case "nice":
			o.Nice, err = parseIntRange(v, 2, 273)
		case "depth":
			o.Depth, err = parseIntRange(v, 0, 1<<30)
		default:
			return nil, fmt.Errorf("unknown lzma1 option name: %s", k)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid lzma1 option %s=%s: %w", k, v, err)
		}
	}

	if o.LC+o.LP > 4 {
		return nil, errors.New("invalid lzma1 options: the sum of lc and lp must not exceed 4")
	}

	return o, nil
}

func (o *Lzma1Options) apply(dictCap *int, m *lzma.MatchAlgorithm) {
	*dictCap = o.DictCap
	*m = o.MatchFinder
}

func (o *Lzma1Options) properties() *lzma.Properties {
	return &lzma.Properties{LC: o.LC, LP: o.LP, PB: o.PB}
}

func parseIntRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be in range [%d, %d]", lo, hi)
	}

	return n, nil
}

// parseSize accepts the KiB/MiB/GiB suffixes used by --lzma1 dict values.
func parseSize(s string) (uint64, error) {
	multiplier := uint64(1)
	lower := strings.ToLower(s)
	for _, u := range []struct {
		suffix string
		m      uint64
	}{
		{"kib", 1 << 10}, {"k", 1 << 10},
		{"mib", 1 << 20}, {"m", 1 << 20},
		{"gib", 1 << 30}, {"g", 1 << 30},
	} {
		if strings.HasSuffix(lower, u.suffix) {
			lower, multiplier = strings.TrimSuffix(lower, u.suffix), u.m
			break
		}
	}

	n, err := strconv.ParseUint(lower, 10, 64)
	if err != nil {
		return 0, err
	}
	if n > ^uint64(0)/multiplier {
		return 0, errors.New("value too large")
	}

	return n * multiplier, nil
}

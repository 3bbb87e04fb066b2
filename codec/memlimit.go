package codec

const (
	// decoderOverhead approximates the fixed state of an LZMA decoder besides its dictionary.
	decoderOverhead = 32 << 10
	// gzipMemUsage approximates the DEFLATE window and decoder tables.
	gzipMemUsage = 64 << 10
)

// MemUsage estimates how much memory decoding the input will need.
//
// The estimate is computed from the headers alone; br is peeked and never advanced.
func MemUsage(br peeker, format Format, threads int) (uint64, error) {
	switch format {
	case Xz:
		h, err := parseXzHeader(br)
		if err != nil {
			return 0, err
		}

		return h.dictCap + decoderOverhead, nil

	case Lzma:
		head, _ := br.Peek(lzmaHeaderLen)
		h, ok := parseLzmaHeader(head)
		if !ok {
			return 0, newError(UnsupportedFormat, "decode", nil)
		}

		return h.memUsage(), nil

	case Gzip:
		if threads > 1 {
			return gzipMemUsage + uint64(threads)*pgzipBlockSize, nil
		}

		return gzipMemUsage, nil

	default:
		return 0, newError(UnsupportedFormat, "decode", nil)
	}
}

func checkMemlimit(br peeker, format Format, threads int, limit uint64) error {
	needed, err := MemUsage(br, format, threads)
	if err != nil {
		return err
	}

	if limit != 0 && needed > limit {
		return newError(MemlimitExceeded, "decode", &MemlimitError{Needed: needed, Limit: limit})
	}

	return nil
}

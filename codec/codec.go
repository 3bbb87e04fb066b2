// Package codec provides a uniform streaming encoder/decoder over the xz, legacy lzma, and gzip formats.
//
// The encoder is driven with actions (Run, Finish, and the flush variants) and reports its state after each call. The
// decoder is an io.ReadCloser that reports Done exactly once when the compressed stream (or streams) ends. All failures
// are returned as *Error whose Kind classifies the failure.
package codec

import (
	"fmt"
	"strings"
)

// Format identifies a container format.
type Format int

const (
	// Auto is only meaningful for decoding; the format is detected from the first bytes of the input. When used for
	// encoding, Auto means Xz.
	Auto Format = iota
	// Xz is the .xz container (LZMA2 blocks, index, footer).
	Xz
	// Lzma is the legacy .lzma format (LZMA1 without block framing).
	Lzma
	// Gzip is RFC 1952 gzip.
	Gzip
)

// ParseFormat parses the names accepted by --format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto":
		return Auto, nil
	case "xz":
		return Xz, nil
	case "lzma", "alone":
		return Lzma, nil
	case "gzip", "gz":
		return Gzip, nil
	default:
		return Auto, fmt.Errorf("unknown file format type: %s", s)
	}
}

func (f Format) String() string {
	switch f {
	case Auto:
		return "auto"
	case Xz:
		return "xz"
	case Lzma:
		return "lzma"
	case Gzip:
		return "gzip"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext returns the default suffix for compressed files of this format.
//
// Auto returns the Xz suffix.
func (f Format) Ext() string {
	switch f {
	case Lzma:
		return ".lzma"
	case Gzip:
		return ".gz"
	default:
		return ".xz"
	}
}

// Check is the integrity check stored in an xz stream.
type Check int

const (
	Crc64 Check = iota
	None
	Crc32
	Sha256
)

// ParseCheck parses the names accepted by --check.
func ParseCheck(s string) (Check, error) {
	switch strings.ToLower(s) {
	case "none":
		return None, nil
	case "crc32":
		return Crc32, nil
	case "crc64":
		return Crc64, nil
	case "sha256":
		return Sha256, nil
	default:
		return Crc64, fmt.Errorf("unsupported integrity check type: %s", s)
	}
}

func (c Check) String() string {
	switch c {
	case None:
		return "none"
	case Crc32:
		return "crc32"
	case Crc64:
		return "crc64"
	case Sha256:
		return "sha256"
	default:
		return fmt.Sprintf("Check(%d)", int(c))
	}
}

// Action tells the encoder what to do with the input given to Encoder.Process.
type Action int

const (
	// Run compresses the input; output may be buffered.
	Run Action = iota
	// Finish compresses the input and ends the stream. No further actions are allowed afterwards.
	Finish
	// SyncFlush makes all input so far decodable without ending the stream where the format allows it.
	SyncFlush
	// FullFlush is SyncFlush that also resets the encoder state so that decoding can start at this point.
	FullFlush
	// FullBarrier is FullFlush for multi-threaded encoders; it is treated as FullFlush.
	FullBarrier
)

func (a Action) String() string {
	switch a {
	case Run:
		return "run"
	case Finish:
		return "finish"
	case SyncFlush:
		return "sync-flush"
	case FullFlush:
		return "full-flush"
	case FullBarrier:
		return "full-barrier"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// State is reported by encoders and decoders after each call.
type State int

const (
	// NeedMore means the codec can accept more input.
	NeedMore State = iota
	// HasMore means the caller's buffer was filled and more output is pending.
	HasMore
	// Done means the end of the stream has been reached. Reported exactly once.
	Done
)

func (s State) String() string {
	switch s {
	case NeedMore:
		return "need-more"
	case HasMore:
		return "has-more"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Flags customise decoding.
type Flags uint

const (
	// Concatenated consumes back-to-back streams. Formats without concatenation support reject trailing bytes.
	Concatenated Flags = 1 << iota
	// IgnoreCheck asks the decoder to skip integrity verification.
	//
	// The underlying libraries always verify, so the flag is recorded but has no effect on the decoded output.
	IgnoreCheck
	// SingleStream stops at the end of the first stream and ignores whatever follows.
	SingleStream
)

// Has returns true if all bits in other are set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

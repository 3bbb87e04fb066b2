// Package config contains the configuration shared by every front-end.
//
// A Config is built once per invocation from command-line flags and environment variables, normalised, validated, and
// then passed by pointer to every component. Fields that a given format does not use are simply ignored.
package config

import (
	"errors"
	"fmt"

	"github.com/nguyengg/xzutils/codec"
)

// Mode is the operation mode.
type Mode int

const (
	Compress Mode = iota
	Decompress
	// Cat decompresses to standard output.
	Cat
	// Test decompresses and discards the output.
	Test
	// List is reserved and not implemented.
	List
)

func (m Mode) String() string {
	switch m {
	case Compress:
		return "compress"
	case Decompress:
		return "decompress"
	case Cat:
		return "cat"
	case Test:
		return "test"
	case List:
		return "list"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	// LevelUnset means no compression level was given.
	LevelUnset = -1
	// DefaultLevel is the compression level used when none is given.
	DefaultLevel = 6
	// MaxThreads caps the thread count.
	MaxThreads = 16384
)

// Config is the configuration of one invocation.
type Config struct {
	Mode   Mode
	Format codec.Format

	// Level is 0..9 or LevelUnset.
	Level   int
	Extreme bool
	// Threads is 0 when unset.
	Threads int
	// MemoryLimit is in bytes, 0 when unset.
	MemoryLimit uint64
	Check       codec.Check

	Force  bool
	Keep   bool
	Stdout bool

	Verbose bool
	// Quiet is 0, 1 (suppress warnings), or 2 (also suppress errors).
	Quiet int
	// NoWarn keeps warnings from changing the exit status.
	NoWarn bool

	SingleStream bool
	IgnoreCheck  bool
	Sparse       bool

	// Suffix overrides the default suffix of the format. Empty when unset.
	Suffix string

	// BlockSize is the xz block size, 0 for the library default.
	BlockSize int64
	// Lzma1 overrides the LZMA properties, nil when unset.
	Lzma1 *codec.Lzma1Options
	// NoName stops gzip from storing the original file name and modification time.
	NoName bool
}

// New returns a Config with the defaults of a compressor.
func New() *Config {
	return &Config{
		Mode:   Compress,
		Format: codec.Auto,
		Level:  LevelUnset,
		Check:  codec.Crc64,
		Sparse: true,
	}
}

// Normalize applies the implications between fields.
func (c *Config) Normalize() {
	switch c.Mode {
	case Compress:
		if c.Level == LevelUnset {
			c.Level = DefaultLevel
		}
	case Decompress:
		c.Level = LevelUnset
	case Cat:
		c.Level = LevelUnset
		c.Stdout = true
		c.Keep = true
	case Test:
		c.Level = LevelUnset
		c.Keep = true
	}

	c.Quiet = min(max(c.Quiet, 0), 2)
}

// ErrInvalidCompressionLevel is returned by Validate for a level outside 0..9.
var ErrInvalidCompressionLevel = errors.New("invalid compression level")

// ErrInvalidThreadCount is returned by Validate for a thread count outside 0..MaxThreads.
var ErrInvalidThreadCount = errors.New("invalid thread count")

// ErrInvalidOption is wrapped by errors about command-line options and their values.
var ErrInvalidOption = errors.New("invalid option")

// ErrUnimplemented is returned by Validate for List mode.
var ErrUnimplemented = errors.New("--list is not implemented")

// Validate checks the Config before any I/O.
func (c *Config) Validate() error {
	if c.Level != LevelUnset && (c.Level < 0 || c.Level > 9) {
		return fmt.Errorf("%w: %d", ErrInvalidCompressionLevel, c.Level)
	}

	if c.Threads < 0 || c.Threads > MaxThreads {
		return fmt.Errorf("%w: %d", ErrInvalidThreadCount, c.Threads)
	}

	if c.Mode == List {
		return ErrUnimplemented
	}

	return nil
}

// EffectiveFormat returns the format used for compression.
func (c *Config) EffectiveFormat() codec.Format {
	if c.Format == codec.Auto {
		return codec.Xz
	}

	return c.Format
}

// DecoderFlags returns the codec flags matching the Config.
func (c *Config) DecoderFlags() codec.Flags {
	flags := codec.Concatenated
	if c.SingleStream {
		flags = codec.SingleStream
	}
	if c.IgnoreCheck {
		flags |= codec.IgnoreCheck
	}

	return flags
}

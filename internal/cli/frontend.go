package cli

import (
	"github.com/nguyengg/xzutils/codec"
	"github.com/nguyengg/xzutils/internal/config"
)

type family int

const (
	xzFamily family = iota
	gzipFamily
	xzdecFamily
)

// Frontend is one of the commands: its name, option set, and defaults.
type Frontend struct {
	Name   string
	Mode   config.Mode
	Format codec.Format

	family family
}

var (
	Xz     = &Frontend{Name: "xz", Mode: config.Compress, Format: codec.Auto, family: xzFamily}
	Unxz   = &Frontend{Name: "unxz", Mode: config.Decompress, Format: codec.Auto, family: xzFamily}
	Xzcat  = &Frontend{Name: "xzcat", Mode: config.Cat, Format: codec.Auto, family: xzFamily}
	Lzma   = &Frontend{Name: "lzma", Mode: config.Compress, Format: codec.Lzma, family: xzFamily}
	Unlzma = &Frontend{Name: "unlzma", Mode: config.Decompress, Format: codec.Lzma, family: xzFamily}
	Lzcat  = &Frontend{Name: "lzcat", Mode: config.Cat, Format: codec.Lzma, family: xzFamily}
	Xzdec  = &Frontend{Name: "xzdec", Mode: config.Cat, Format: codec.Xz, family: xzdecFamily}
	Gzip   = &Frontend{Name: "gzip", Mode: config.Compress, Format: codec.Gzip, family: gzipFamily}
	Gunzip = &Frontend{Name: "gunzip", Mode: config.Decompress, Format: codec.Gzip, family: gzipFamily}
	Zcat   = &Frontend{Name: "zcat", Mode: config.Cat, Format: codec.Gzip, family: gzipFamily}
)

// Frontends lists every command.
var Frontends = []*Frontend{Xz, Unxz, Xzcat, Lzma, Unlzma, Lzcat, Xzdec, Gzip, Gunzip, Zcat}

// Lookup returns the Frontend with the given name, or nil.
func Lookup(name string) *Frontend {
	for _, fe := range Frontends {
		if fe.Name == name {
			return fe
		}
	}

	return nil
}

// envVars are the environment variables parsed before the command line, in order.
func (fe *Frontend) envVars() []string {
	switch fe.family {
	case xzFamily:
		return []string{"XZ_DEFAULTS", "XZ_OPT"}
	case gzipFamily:
		return []string{"GZIP"}
	default:
		return nil
	}
}

func (fe *Frontend) newOptions(st *state) options {
	switch fe.family {
	case gzipFamily:
		return newGzipOptions(st)
	case xzdecFamily:
		return newXzdecOptions(st)
	default:
		return newXzOptions(st)
	}
}

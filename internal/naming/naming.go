// Package naming derives output file names from input file names.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyengg/xzutils/codec"
	"github.com/nguyengg/xzutils/internal/config"
)

// ErrUnknownSuffix is returned when decompressing a file whose name has none of the recognised suffixes.
var ErrUnknownSuffix = errors.New("filename has an unknown suffix")

// ErrInvalidOutputFilename is returned when the input path has no file name component.
var ErrInvalidOutputFilename = errors.New("cannot determine output filename")

// AlreadyHasSuffixError is returned when compressing a file that already has a compressed suffix.
type AlreadyHasSuffixError struct {
	Suffix string
}

func (e *AlreadyHasSuffixError) Error() string {
	return fmt.Sprintf("already has %s suffix", e.Suffix)
}

// rule maps a compressed suffix to what replaces it on decompression.
type rule struct {
	suffix, replacement string
}

var (
	xzRules   = []rule{{".txz", ".tar"}, {".xz", ""}}
	lzmaRules = []rule{{".lzma", ""}, {".tlz", ".tar"}}
	gzipRules = []rule{{".tgz", ".tar"}, {".taz", ".tar"}, {".gz", ""}, {"-gz", ""}, {".z", ""}, {"-z", ""}, {"_z", ""}}
)

// Suffix returns the suffix appended by compression: Config.Suffix if set, otherwise the format's default.
func Suffix(cfg *config.Config) string {
	if cfg.Suffix == "" {
		return cfg.EffectiveFormat().Ext()
	}

	if strings.HasPrefix(cfg.Suffix, ".") {
		return cfg.Suffix
	}

	return "." + cfg.Suffix
}

func rules(cfg *config.Config) []rule {
	if cfg.Suffix != "" {
		return []rule{{Suffix(cfg), ""}}
	}

	switch cfg.Format {
	case codec.Xz:
		return xzRules
	case codec.Lzma:
		return lzmaRules
	case codec.Gzip:
		return gzipRules
	default:
		return append(append([]rule{}, xzRules...), lzmaRules...)
	}
}

// OutputPath returns the output path of the given input.
//
// An empty string is returned without error for standard input and for modes that do not write files (Test and
// List). Cat is resolved like Decompress, though callers writing to standard output do not need a path at all.
func OutputPath(input string, cfg *config.Config) (string, error) {
	if input == "" || input == "-" {
		return "", nil
	}

	dir, base := filepath.Split(input)
	if base == "" || base == "." || base == ".." {
		return "", ErrInvalidOutputFilename
	}

	switch cfg.Mode {
	case config.Compress:
		suffix := Suffix(cfg)
		if !cfg.Force {
			candidates := []rule{{suffix, ""}}
			if cfg.Suffix == "" {
				candidates = append(candidates, rules(&config.Config{Format: cfg.EffectiveFormat()})...)
			}

			for _, r := range candidates {
				if hasSuffixFold(base, r.suffix) {
					return "", &AlreadyHasSuffixError{Suffix: r.suffix}
				}
			}
		}

		return input + suffix, nil

	case config.Decompress, config.Cat:
		for _, r := range rules(cfg) {
			// a name that is only the suffix is a dot file, not a compressed file with an empty stem.
			if len(base) > len(r.suffix) && hasSuffixFold(base, r.suffix) {
				name := base[:len(base)-len(r.suffix)] + r.replacement
				if dir == "" {
					return name, nil
				}

				return filepath.Join(dir, name), nil
			}
		}

		return "", ErrUnknownSuffix

	default:
		return "", nil
	}
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

// IsStdin returns true if the path denotes standard input.
func IsStdin(path string) bool {
	return path == "" || path == "-"
}

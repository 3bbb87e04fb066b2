// Package argfile reads lists of file names for --files and --files0.
package argfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// Delimiter separates names in an argfile.
type Delimiter byte

const (
	// Line separates names with newlines. A trailing carriage return is stripped from each name.
	Line Delimiter = '\n'
	// Nul separates names with NUL bytes.
	Nul Delimiter = 0
)

// ErrInvalidUTF8 is returned for names that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("file name is not valid UTF-8")

// Read returns the names listed in the file at path, or in stdin if path is empty or "-".
//
// Empty names are dropped.
func Read(path string, stdin io.Reader, delim Delimiter) ([]string, error) {
	var (
		data []byte
		err  error
	)

	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read argfile error: %w", err)
	}

	return Parse(data, delim)
}

// Parse splits data into names.
func Parse(data []byte, delim Delimiter) ([]string, error) {
	var names []string

	for i, name := range bytes.Split(data, []byte{byte(delim)}) {
		if delim == Line {
			name = bytes.TrimSuffix(name, []byte{'\r'})
		}
		if len(name) == 0 {
			continue
		}

		if !utf8.Valid(name) {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidUTF8, i+1)
		}

		names = append(names, string(name))
	}

	return names, nil
}

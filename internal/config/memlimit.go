package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMemoryLimit is wrapped by every error from ParseMemoryLimit.
var ErrInvalidMemoryLimit = errors.New("invalid memory limit")

var memoryUnits = []struct {
	suffix     string
	multiplier uint64
}{
	{"kib", 1 << 10}, {"kb", 1 << 10}, {"k", 1 << 10},
	{"mib", 1 << 20}, {"mb", 1 << 20}, {"m", 1 << 20},
	{"gib", 1 << 30}, {"gb", 1 << 30}, {"g", 1 << 30},
	{"b", 1},
}

// ParseMemoryLimit parses a size such as "512K", "16MiB", or "1g" into bytes.
//
// All units are powers of 1024 and matched case-insensitively. "0" and "max" both return 0 which means no limit.
func ParseMemoryLimit(s string) (uint64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "max" {
		return 0, nil
	}

	multiplier := uint64(1)
	for _, u := range memoryUnits {
		if strings.HasSuffix(v, u.suffix) {
			v, multiplier = strings.TrimSpace(strings.TrimSuffix(v, u.suffix)), u.multiplier
			break
		}
	}

	if v == "" || v[0] < '0' || v[0] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMemoryLimit, s)
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMemoryLimit, s)
	}

	if n > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidMemoryLimit, s)
	}

	return n * multiplier, nil
}

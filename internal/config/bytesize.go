package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/wallthemes/internal/format"
)

// ByteSize is a size value that accepts human-readable units such as
// "256MB" or "1.5 GB" (binary multiples). A bare number is bytes.
type ByteSize int64

// Binary size units.
const (
	Byte     ByteSize = 1
	Kilobyte          = 1024 * Byte
	Megabyte          = 1024 * Kilobyte
	Gigabyte          = 1024 * Megabyte
	Terabyte          = 1024 * Gigabyte
)

var unitMultipliers = map[string]ByteSize{
	"":    Byte,
	"b":   Byte,
	"k":   Kilobyte,
	"kb":  Kilobyte,
	"kib": Kilobyte,
	"m":   Megabyte,
	"mb":  Megabyte,
	"mib": Megabyte,
	"g":   Gigabyte,
	"gb":  Gigabyte,
	"gib": Gigabyte,
	"t":   Terabyte,
	"tb":  Terabyte,
	"tib": Terabyte,
}

var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-z]*)\s*$`)

// ParseByteSize parses a human-readable byte size string.
func ParseByteSize(s string) (ByteSize, error) {
	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	multiplier, ok := unitMultipliers[strings.ToLower(matches[2])]
	if !ok {
		return 0, fmt.Errorf("invalid byte size %q: unknown unit %q", s, matches[2])
	}
	return ByteSize(value * float64(multiplier)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for viper and YAML.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Bytes returns the size in bytes.
func (b ByteSize) Bytes() int64 {
	return int64(b)
}

func (b ByteSize) String() string {
	return format.Bytes(int64(b))
}

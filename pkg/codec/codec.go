// Package codec provides the bit, hex and fixed-point conversions shared by the
// timing and attribute encoders.
package codec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrOutOfRange is returned when a value does not fit a signed 32-bit integer
	ErrOutOfRange = errors.New("value out of representable 32-bit range")

	// ErrNotInteger is returned when text is not an integral number
	ErrNotInteger = errors.New("value is not an integer")
)

var (
	integerPattern = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^-?([0-9]+\.?[0-9]*|\.[0-9]+)$`)
	hexPattern     = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]{1,2}$`)
)

// IsInteger reports whether s is made of decimal digits with an optional leading minus
func IsInteger(s string) bool {
	return integerPattern.MatchString(s)
}

// IsFloat reports whether s is a decimal number with an optional leading minus
// and at most one decimal point
func IsFloat(s string) bool {
	return floatPattern.MatchString(s)
}

// ParseInt parses s when it passes IsInteger
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !IsInteger(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat parses s when it passes IsFloat
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !IsFloat(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseHexByte parses a one or two digit hex string, with or without 0x prefix
func ParseHexByte(s string) (byte, bool) {
	s = strings.TrimSpace(s)
	if !hexPattern.MatchString(s) {
		return 0, false
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}

// ToBinary32 returns the 32 character two's complement bit string of n
func ToBinary32(n int64) (string, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return "", fmt.Errorf("%d: %w", n, ErrOutOfRange)
	}
	return fmt.Sprintf("%032b", uint32(int32(n))), nil
}

// ToBinary32String is ToBinary32 for textual input
func ToBinary32String(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsInteger(s) {
		return "", fmt.Errorf("%q: %w", s, ErrNotInteger)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, ErrOutOfRange)
	}
	return ToBinary32(n)
}

// FixedPointFraction encodes fraction as a radix-2 fixed point fraction of the
// given width. Each step doubles the remainder and emits its integer part; the
// result is truncated, never rounded. Once a step reaches one, the next
// remainder is re-read from the digits after the decimal point of its shortest
// decimal form, so the same input always yields the same bits.
func FixedPointFraction(bits int, fraction float64) string {
	if bits <= 0 || fraction < 0 || fraction >= 1 || math.IsNaN(fraction) {
		return ""
	}

	var sb strings.Builder
	sb.Grow(bits)
	rem := fraction
	for i := 0; i < bits; i++ {
		rem *= 2
		if rem < 1 {
			sb.WriteByte('0')
			continue
		}
		sb.WriteByte('1')
		rem = FractionDigits(rem)
	}
	return sb.String()
}

// FractionDigits returns the part of v after the decimal point of its shortest
// decimal form, or 0 when there is none
func FractionDigits(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	f, err := strconv.ParseFloat("0"+s[i:], 64)
	if err != nil {
		return 0
	}
	return f
}

// HexByte formats the low byte of n as two lowercase hex digits
func HexByte(n int) string {
	return fmt.Sprintf("%02x", n&0xff)
}

// JoinHex concatenates hex byte strings, most significant first, after padding
// each to two digits, and parses the result. Skipping the padding would turn
// ("01", "0") into 0x010 instead of 0x0100.
func JoinHex(parts ...string) (int, error) {
	if len(parts) == 0 || len(parts) > 4 {
		return 0, fmt.Errorf("invalid hex part count: %d", len(parts))
	}

	var sb strings.Builder
	for _, p := range parts {
		b, ok := ParseHexByte(p)
		if !ok {
			return 0, fmt.Errorf("invalid hex byte %q", p)
		}
		sb.WriteString(HexByte(int(b)))
	}

	n, err := strconv.ParseUint(sb.String(), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", sb.String(), err)
	}
	return int(n), nil
}

// BitsToUint parses a bit string such as the output of FixedPointFraction
func BitsToUint(bits string) uint64 {
	if bits == "" {
		return 0
	}
	n, err := strconv.ParseUint(bits, 2, 64)
	if err != nil {
		return 0
	}
	return n
}

// Round drops the fractional part: positive values floor, negative values ceil
func Round(x float64) int {
	return int(math.Trunc(x))
}

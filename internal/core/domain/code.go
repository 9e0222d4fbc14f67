// internal/core/domain/code.go
package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Code is a normalized product identifier: either a 12-digit barcode or a
// structured SKU. All codes entering the system pass through NormalizeCode
// exactly once at the acquisition boundary; everything downstream (the
// resolver, the store, the dispatcher) compares codes byte-for-byte.
type Code string

const (
	// MaxCodeLength bounds normalized codes. Anything longer is scanner
	// garbage, not a code.
	MaxCodeLength = 12 * 5 // generous for structured SKUs

	// BarcodeDigits is the width of generated numeric barcodes.
	BarcodeDigits = 12
)

// NormalizeCode canonicalizes raw scanner or keyboard input into a Code.
// It trims surrounding whitespace and control characters (HID scanners
// append CR/LF framing), uppercases, and validates the charset. The
// operation is idempotent: NormalizeCode(string(c)) == c for any Code it
// has produced.
func NormalizeCode(raw string) (Code, error) {
	trimmed := strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrMalformedCode)
	}
	if len(trimmed) > MaxCodeLength {
		return "", fmt.Errorf("%w: %d bytes exceeds limit", ErrMalformedCode, len(trimmed))
	}

	upper := strings.ToUpper(trimmed)
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return "", fmt.Errorf("%w: invalid character %q", ErrMalformedCode, r)
		}
	}
	return Code(upper), nil
}

// IsNumeric reports whether the code consists solely of digits, i.e. looks
// like a generated barcode rather than a SKU.
func (c Code) IsNumeric() bool {
	if c == "" {
		return false
	}
	for _, r := range c {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c Code) String() string { return string(c) }

// CodeSet is the in-memory view of codes currently assigned to products,
// used by the generator for collision checks.
type CodeSet map[Code]struct{}

// Has reports membership. A nil CodeSet has no members.
func (s CodeSet) Has(c Code) bool {
	_, ok := s[c]
	return ok
}

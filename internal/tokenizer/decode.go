package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DecodeMode selects how Decode treats bytes that are not valid UTF-8.
type DecodeMode int

const (
	// Strict fails with InvalidUTF8Error.
	Strict DecodeMode = iota

	// Replace substitutes U+FFFD for each maximal ill-formed subsequence.
	Replace
)

// String returns the mode name.
func (m DecodeMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("DecodeMode(%d)", int(m))
	}
}

// ParseDecodeMode parses "strict" or "replace". The empty string means Strict.
func ParseDecodeMode(s string) (DecodeMode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "replace", "lossy":
		return Replace, nil
	default:
		return Strict, fmt.Errorf("unknown decode mode %q (want strict or replace)", s)
	}
}

func finishDecode(b []byte, mode DecodeMode) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	switch mode {
	case Strict:
		return "", &InvalidUTF8Error{Offset: invalidOffset(b)}
	case Replace:
		out, err := unicode.UTF8.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("failed to replace invalid UTF-8: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown decode mode %d", int(mode))
	}
}

// invalidOffset returns the offset of the first byte that does not start a valid rune.
func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch    = errors.New("checksum mismatch: file may be corrupted")
	ErrFingerprintMismatch = errors.New("fingerprint mismatch: rank table differs from header")
	ErrHeaderTooLarge      = errors.New("header exceeds maximum size")
	ErrInvalidMagic        = errors.New("invalid magic bytes")
	ErrUnsupportedVersion  = errors.New("unsupported format version")
	ErrInvalidHeader       = errors.New("invalid header")
)

// ValidationError provides detailed information about header validation failures.
type ValidationError struct {
	Field   string // Header field at fault (e.g., "vocab_size", "control_tokens")
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidHeader, e.Field, e.Details)
}

// Unwrap lets errors.Is match ErrInvalidHeader.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidHeader
}

package tokenizer

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnknownID              = errors.New("unknown token id")
	ErrDisallowedControlToken = errors.New("text contains disallowed control token")
	ErrInvalidUTF8            = errors.New("invalid UTF-8")
	ErrUnencodable            = errors.New("bytes not covered by vocabulary")
)

// UnknownIDError reports an id outside [0, VocabSize).
type UnknownIDError struct {
	ID        int
	VocabSize int
}

// Error implements the error interface.
func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("%s: %d not in [0, %d)", ErrUnknownID, e.ID, e.VocabSize)
}

// Unwrap lets errors.Is match ErrUnknownID.
func (e *UnknownIDError) Unwrap() error {
	return ErrUnknownID
}

// DisallowedControlTokenError reports a control-token literal the encode policy rejects.
type DisallowedControlTokenError struct {
	Token  string // Control-token literal found in the text
	Offset int    // Byte offset of the occurrence
}

// Error implements the error interface.
func (e *DisallowedControlTokenError) Error() string {
	return fmt.Sprintf("%s %q at byte %d", ErrDisallowedControlToken, e.Token, e.Offset)
}

// Unwrap lets errors.Is match ErrDisallowedControlToken.
func (e *DisallowedControlTokenError) Unwrap() error {
	return ErrDisallowedControlToken
}

// InvalidUTF8Error reports the first malformed byte of a text or decoded byte sequence.
type InvalidUTF8Error struct {
	Offset int
}

// Error implements the error interface.
func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("%s at byte %d", ErrInvalidUTF8, e.Offset)
}

// Unwrap lets errors.Is match ErrInvalidUTF8.
func (e *InvalidUTF8Error) Unwrap() error {
	return ErrInvalidUTF8
}

// UnencodableError reports a merge result with no rank. This only happens when a
// truncated vocabulary lost some single-byte tokens.
type UnencodableError struct {
	Piece []byte
}

// Error implements the error interface.
func (e *UnencodableError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnencodable, e.Piece)
}

// Unwrap lets errors.Is match ErrUnencodable.
func (e *UnencodableError) Unwrap() error {
	return ErrUnencodable
}

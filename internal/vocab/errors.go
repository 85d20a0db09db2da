package vocab

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrConfiguration          = errors.New("invalid vocabulary configuration")
	ErrInsufficientVocabulary = errors.New("insufficient base vocabulary")
)

// ConfigurationError reports build inputs that can never produce a valid vocabulary.
type ConfigurationError struct {
	Field   string // Offending input (e.g., "vocab_size", "control_tokens")
	Details string // Human-readable reason
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Details)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// InsufficientVocabularyError reports a base table too small for the requested size.
type InsufficientVocabularyError struct {
	Need int // Regular tokens required (vocab size minus control tokens)
	Have int // Regular tokens left after filtering
}

// Error implements the error interface.
func (e *InsufficientVocabularyError) Error() string {
	return fmt.Sprintf("%s: need %d regular tokens, have %d", ErrInsufficientVocabulary, e.Need, e.Have)
}

// Unwrap lets errors.Is match ErrInsufficientVocabulary.
func (e *InsufficientVocabularyError) Unwrap() error {
	return ErrInsufficientVocabulary
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Details: fmt.Sprintf(format, args...)}
}

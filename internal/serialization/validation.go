package serialization

import (
	"fmt"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum header size
	MaxControlTokens = 4096             // Maximum number of control tokens
	MaxVocabSize     = 1 << 24          // Maximum total ids
)

// ValidateHeader checks the header fields that do not depend on the body.
func ValidateHeader(h *Header) error {
	if h.FormatVersion != FormatVersion {
		return &ValidationError{
			Field:   "format_version",
			Details: fmt.Sprintf("got %d, want %d", h.FormatVersion, FormatVersion),
		}
	}
	if h.VocabSize <= 0 || h.VocabSize > MaxVocabSize {
		return &ValidationError{
			Field:   "vocab_size",
			Details: fmt.Sprintf("%d outside (0, %d]", h.VocabSize, MaxVocabSize),
		}
	}
	if len(h.ControlTokens) > MaxControlTokens {
		return &ValidationError{
			Field:   "control_tokens",
			Details: fmt.Sprintf("got %d, max %d", len(h.ControlTokens), MaxControlTokens),
		}
	}
	if h.RankCount+len(h.ControlTokens) != h.VocabSize {
		return &ValidationError{
			Field: "vocab_size",
			Details: fmt.Sprintf("%d != rank_count %d + %d control tokens",
				h.VocabSize, h.RankCount, len(h.ControlTokens)),
		}
	}

	// Control tokens occupy the top ids in order.
	for i, c := range h.ControlTokens {
		if want := h.RankCount + i; c.ID != want {
			return &ValidationError{
				Field:   "control_tokens",
				Details: fmt.Sprintf("%q has id %d, want %d", c.Name, c.ID, want),
			}
		}
		if c.Name == "" {
			return &ValidationError{Field: "control_tokens", Details: "empty control token name"}
		}
	}

	if h.Checksum == "" {
		return &ValidationError{Field: "checksum", Details: "missing"}
	}
	return nil
}

package serialization

import (
	"time"

	"github.com/born-ml/hastings/internal/vocab"
)

// Version is the Hastings release recorded in files it writes.
const Version = "0.1.0"

// Format constants.
const (
	MagicBytes      = "HSTK"
	FormatVersion   = 1
	FixedHeaderSize = 4 + 4 + 4 + 8 // magic + version + flags + header size
)

// Flags for the .hastings format.
const (
	FlagCompressed uint32 = 1 << 0 // bit 0: body is zstd-compressed
)

// Header represents the JSON header in a .hastings file.
type Header struct {
	FormatVersion   int               `json:"format_version"`     // Version of the .hastings format
	HastingsVersion string            `json:"hastings_version"`   // Version of Hastings that created this file
	Name            string            `json:"name"`               // Vocabulary name
	Pattern         string            `json:"pattern"`            // Pre-tokenization pattern
	VocabSize       int               `json:"vocab_size"`         // Total ids, control tokens included
	RankCount       int               `json:"rank_count"`         // Regular tokens in the body
	ControlTokens   []ControlToken    `json:"control_tokens"`     // Control tokens in id order
	Fingerprint     string            `json:"fingerprint"`        // Vocabulary.Fingerprint of the saved vocabulary
	Checksum        string            `json:"checksum"`           // Hex SHA-256 of the uncompressed body
	CreatedAt       time.Time         `json:"created_at"`         // When the file was created
	Metadata        map[string]string `json:"metadata,omitempty"` // Custom metadata (base encoding, recipe, ...)
}

// ControlToken is one reserved id as stored in the header.
type ControlToken struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// ControlTokenIDs returns the header's control tokens as a literal -> id map.
func (h *Header) ControlTokenIDs() map[string]int {
	out := make(map[string]int, len(h.ControlTokens))
	for _, c := range h.ControlTokens {
		out[c.Name] = c.ID
	}
	return out
}

// newHeader describes v. Checksum and CreatedAt are filled in by the writer.
func newHeader(v *vocab.Vocabulary, metadata map[string]string) Header {
	controls := v.ControlTokens()
	tokens := make([]ControlToken, len(controls))
	for i, name := range controls {
		tokens[i] = ControlToken{Name: name, ID: v.RankLimit() + i}
	}

	return Header{
		FormatVersion:   FormatVersion,
		HastingsVersion: Version,
		Name:            v.Name(),
		Pattern:         v.Pattern(),
		VocabSize:       v.Size(),
		RankCount:       v.RankLimit(),
		ControlTokens:   tokens,
		Fingerprint:     v.Fingerprint(),
		Metadata:        metadata,
	}
}

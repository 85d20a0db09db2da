package tokenizer

// Tokenizer is the core interface for text tokenization.
//
// Codec is the native implementation; TikToken runs the same vocabulary through
// tiktoken-go and exists to cross-check it.
type Tokenizer interface {
	// Encode converts text to token IDs, handling control-token literals per policy.
	Encode(text string, policy Policy) ([]int, error)

	// Decode converts token IDs back to text.
	Decode(ids []int, mode DecodeMode) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// ControlTokenID returns the reserved id of a control token.
	ControlTokenID(name string) (int, bool)

	// IsControlToken checks if a token ID is a reserved control-token id.
	IsControlToken(id int) bool
}

var (
	_ Tokenizer = (*Codec)(nil)
	_ Tokenizer = (*TikToken)(nil)
)

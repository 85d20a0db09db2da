package vocab

// Split patterns inherited from the OpenAI base encodings.
const (
	// PatternGPT2 is the r50k_base / p50k_base / gpt2 pre-tokenization pattern.
	PatternGPT2 = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

	// PatternCL100k is the cl100k_base pre-tokenization pattern.
	PatternCL100k = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`
)

// DefaultName is used when Build is not given WithName.
const DefaultName = "hastings"

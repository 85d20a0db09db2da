// Package tokenizer provides the byte-level BPE codec for Hastings vocabularies.
//
// Encoding runs in three stages:
//   - Control tokens: literals such as <|endoftext|> are located first and handled
//     according to a Policy (DisallowAll by default, AllowAll, AllowSet, AllowSetAndRaw).
//   - Pre-tokenization: the remaining text is split with the vocabulary's pattern.
//   - Merging: each chunk starts as single bytes and the adjacent pair with the
//     lowest ranked concatenation is merged, leftmost first, until nothing merges.
//
// Decoding concatenates token bytes and control-token literals; a DecodeMode picks
// strict validation or U+FFFD replacement for malformed UTF-8.
//
// Example usage:
//
//	codec, err := tokenizer.NewCodec(v)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	ids, err := codec.Encode("<|user|>Hello, world!", tokenizer.AllowAll())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := codec.Decode(ids, tokenizer.Strict)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Apply chat template
//	messages := []ChatMessage{
//	    {Role: "user", Content: "Hello, world!"},
//	    {Role: "assistant", Content: "Hey there!"},
//	}
//	ids, err = tokenizer.NewHastingsTemplate().Encode(codec, messages)
package tokenizer

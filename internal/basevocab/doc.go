// Package basevocab loads the ordered base tables a Hastings vocabulary is cut from.
//
// A base table is a list of byte sequences in increasing rank order. Four sources
// are supported:
//
//   - Named OpenAI encodings (r50k_base, p50k_base, cl100k_base), either from the
//     copies bundled with tiktoken-go-loader or downloaded by tiktoken-go.
//   - Any file in the tiktoken text format ("base64 SP rank" per line).
//   - A HuggingFace tokenizer.json with a byte-level BPE model.
//   - The tokenizer metadata of a GGUF model file (tokenizer.ggml.model "gpt2").
//
// Example:
//
//	base, err := basevocab.LoadEncoding("r50k_base", basevocab.SourceOffline)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := vocab.Build(base.Entries, 32768, tokenizer.DefaultControlTokens)
package basevocab

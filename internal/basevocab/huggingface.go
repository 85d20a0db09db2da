package basevocab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/hastings/internal/vocab"
)

// HFTokenizerType identifies the model type declared in tokenizer.json.
type HFTokenizerType string

const (
	// HFTypeBPE indicates Byte-Pair Encoding tokenizer.
	HFTypeBPE HFTokenizerType = "BPE"

	// HFTypeWordPiece indicates WordPiece tokenizer (BERT-style).
	HFTypeWordPiece HFTokenizerType = "WordPiece"

	// HFTypeUnigram indicates Unigram tokenizer (SentencePiece-style).
	HFTypeUnigram HFTokenizerType = "Unigram"

	// HFTypeUnknown indicates an unknown or unsupported tokenizer type.
	HFTypeUnknown HFTokenizerType = "Unknown"
)

// HFMetadata summarizes a tokenizer.json without loading its vocabulary.
type HFMetadata struct {
	Type          HFTokenizerType
	TokenizerType string
	VocabSize     int
	AddedTokens   []string
}

// DetectHuggingFace reads the model type and sizes from tokenizer.json.
//
//nolint:gocognit // JSON probing requires nested type assertions.
func DetectHuggingFace(path string) (*HFMetadata, error) {
	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	metadata := &HFMetadata{Type: HFTypeUnknown}

	if model, ok := raw["model"].(map[string]interface{}); ok {
		if tokType, ok := model["type"].(string); ok {
			metadata.TokenizerType = tokType
			switch tokType {
			case "BPE":
				metadata.Type = HFTypeBPE
			case "WordPiece":
				metadata.Type = HFTypeWordPiece
			case "Unigram":
				metadata.Type = HFTypeUnigram
			}
		}
		switch v := model["vocab"].(type) {
		case map[string]interface{}:
			metadata.VocabSize = len(v)
		case []interface{}:
			metadata.VocabSize = len(v)
		}
	}

	if added, ok := raw["added_tokens"].([]interface{}); ok {
		for _, tokenRaw := range added {
			if token, ok := tokenRaw.(map[string]interface{}); ok {
				if content, ok := token["content"].(string); ok {
					metadata.AddedTokens = append(metadata.AddedTokens, content)
				}
			}
		}
	}

	return metadata, nil
}

type hfAddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

type hfBPEFile struct {
	Model struct {
		Type  string         `json:"type"`
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
	AddedTokens []hfAddedToken `json:"added_tokens"`
}

// LoadHuggingFace reads the vocabulary of a byte-level BPE tokenizer.json as a
// base table. Token strings are mapped back to raw bytes through the GPT-2
// byte-to-unicode table; added tokens are reported as SpecialTokens and left out
// of the entries.
func LoadHuggingFace(path string) (*Base, error) {
	metadata, err := DetectHuggingFace(path)
	if err != nil {
		return nil, err
	}
	if metadata.Type != HFTypeBPE {
		return nil, fmt.Errorf("%s: %s tokenizer is not supported, only byte-level BPE", path, metadata.TokenizerType)
	}

	//nolint:gosec // Loading tokenizer from user-specified path is intentional.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer.json: %w", err)
	}
	var file hfBPEFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tokenizer.json: %w", err)
	}

	specials := make(map[string]int, len(file.AddedTokens))
	for _, tok := range file.AddedTokens {
		specials[tok.Content] = tok.ID
	}

	decoder := unicodeToBytes()
	ranks := make(map[string]int, len(file.Model.Vocab))
	for sym, id := range file.Model.Vocab {
		if _, ok := specials[sym]; ok {
			continue
		}
		raw, err := decodeSymbol(sym, decoder)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := ranks[string(raw)]; dup {
			return nil, fmt.Errorf("%s: ids %d and %d decode to the same bytes", path, prev, id)
		}
		ranks[string(raw)] = id
	}

	name := filepath.Base(filepath.Dir(path))
	if name == "." || name == string(filepath.Separator) {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Base{
		Name:          name,
		Pattern:       vocab.PatternGPT2,
		Entries:       vocab.SortedEntries(ranks),
		SpecialTokens: specials,
	}, nil
}

func decodeSymbol(sym string, decoder map[rune]byte) ([]byte, error) {
	out := make([]byte, 0, len(sym))
	for _, r := range sym {
		b, ok := decoder[r]
		if !ok {
			return nil, fmt.Errorf("symbol %q is not byte-level (rune %U)", sym, r)
		}
		out = append(out, b)
	}
	return out, nil
}

// bytesToUnicode is the GPT-2 reversible byte <-> printable rune table.
// Printable Latin-1 bytes map to themselves; the rest map to 256, 257, ...
func bytesToUnicode() map[byte]rune {
	printable := func(b int) bool {
		return (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
	}

	enc := make(map[byte]rune, 256)
	n := 0
	for b := 0; b < 256; b++ {
		if printable(b) {
			enc[byte(b)] = rune(b)
			continue
		}
		enc[byte(b)] = rune(256 + n)
		n++
	}
	return enc
}

func unicodeToBytes() map[rune]byte {
	dec := make(map[rune]byte, 256)
	for b, r := range bytesToUnicode() {
		dec[r] = b
	}
	return dec
}

package basevocab

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyHFTokenizer uses GPT-2 byte-level symbols: "Ġ" is a space, "Ċ" a newline.
var tinyHFTokenizer = map[string]interface{}{
	"model": map[string]interface{}{
		"type": "BPE",
		"vocab": map[string]int{
			"h":   0,
			"e":   1,
			"Ġ":   2,
			"Ċ":   3,
			"he":  4,
			"Ġhe": 5,
		},
	},
	"added_tokens": []map[string]interface{}{
		{"id": 6, "content": "<|endoftext|>", "special": true},
	},
}

func writeTokenizerJSON(t *testing.T, path string, content map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestBytesToUnicode(t *testing.T) {
	enc := bytesToUnicode()
	require.Len(t, enc, 256)

	assert.Equal(t, 'a', enc['a'])
	assert.Equal(t, 'Ġ', enc[' '])
	assert.Equal(t, 'Ċ', enc['\n'])
	assert.Equal(t, rune(256), enc[0])

	seen := map[rune]bool{}
	for _, r := range enc {
		assert.False(t, seen[r], "rune %U mapped twice", r)
		seen[r] = true
	}
	assert.Len(t, unicodeToBytes(), 256)
}

func TestDetectHuggingFace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	writeTokenizerJSON(t, path, tinyHFTokenizer)

	metadata, err := DetectHuggingFace(path)
	require.NoError(t, err)
	assert.Equal(t, HFTypeBPE, metadata.Type)
	assert.Equal(t, "BPE", metadata.TokenizerType)
	assert.Equal(t, 6, metadata.VocabSize)
	assert.Equal(t, []string{"<|endoftext|>"}, metadata.AddedTokens)
}

func TestDetectHuggingFace_Unigram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	writeTokenizerJSON(t, path, map[string]interface{}{
		"model": map[string]interface{}{
			"type":  "Unigram",
			"vocab": []interface{}{[]interface{}{"a", -1.0}, []interface{}{"b", -2.0}},
		},
	})

	metadata, err := DetectHuggingFace(path)
	require.NoError(t, err)
	assert.Equal(t, HFTypeUnigram, metadata.Type)
	assert.Equal(t, 2, metadata.VocabSize)

	_, err = LoadHuggingFace(path)
	assert.Error(t, err)
}

func TestDetectHuggingFace_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	require.NoError(t, os.WriteFile(path, []byte("invalid json"), 0o600))

	_, err := DetectHuggingFace(path)
	assert.Error(t, err)

	_, err = DetectHuggingFace(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadHuggingFace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tiny-gpt")
	require.NoError(t, os.Mkdir(dir, 0o750))
	path := filepath.Join(dir, "tokenizer.json")
	writeTokenizerJSON(t, path, tinyHFTokenizer)

	base, err := LoadHuggingFace(path)
	require.NoError(t, err)

	assert.Equal(t, "tiny-gpt", base.Name)
	assert.Equal(t, map[string]int{"<|endoftext|>": 6}, base.SpecialTokens)

	want := []string{"h", "e", " ", "\n", "he", " he"}
	require.Len(t, base.Entries, len(want))
	for i, tok := range want {
		assert.Equal(t, tok, string(base.Entries[i].Token))
		assert.Equal(t, i, base.Entries[i].Rank)
	}
}

func TestLoadHuggingFace_NotByteLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	writeTokenizerJSON(t, path, map[string]interface{}{
		"model": map[string]interface{}{
			"type":  "BPE",
			"vocab": map[string]int{"a": 0, "▁b": 1},
		},
	})

	_, err := LoadHuggingFace(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not byte-level")
}

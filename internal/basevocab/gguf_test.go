package basevocab

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hastings/internal/vocab"
)

// ggufWriter emits the header and metadata section of a GGUF file.
type ggufWriter struct {
	order binary.ByteOrder
	count uint64
	body  bytes.Buffer
}

func newGGUFWriter(order binary.ByteOrder) *ggufWriter {
	return &ggufWriter{order: order}
}

func (w *ggufWriter) put(v any) {
	_ = binary.Write(&w.body, w.order, v)
}

func (w *ggufWriter) str(s string) {
	w.put(uint64(len(s)))
	w.body.WriteString(s)
}

func (w *ggufWriter) key(k string, t ggufValueType) {
	w.count++
	w.str(k)
	w.put(uint32(t))
}

func (w *ggufWriter) Str(k, v string) *ggufWriter {
	w.key(k, ggufString)
	w.str(v)
	return w
}

func (w *ggufWriter) Uint32(k string, v uint32) *ggufWriter {
	w.key(k, ggufUint32)
	w.put(v)
	return w
}

func (w *ggufWriter) Bool(k string, v bool) *ggufWriter {
	w.key(k, ggufBool)
	if v {
		w.put(uint8(1))
	} else {
		w.put(uint8(0))
	}
	return w
}

func (w *ggufWriter) Strings(k string, vs []string) *ggufWriter {
	w.key(k, ggufArray)
	w.put(uint32(ggufString))
	w.put(uint64(len(vs)))
	for _, v := range vs {
		w.str(v)
	}
	return w
}

func (w *ggufWriter) Int32s(k string, vs []int32) *ggufWriter {
	w.key(k, ggufArray)
	w.put(uint32(ggufInt32))
	w.put(uint64(len(vs)))
	w.put(vs)
	return w
}

func (w *ggufWriter) Float32s(k string, vs []float32) *ggufWriter {
	w.key(k, ggufArray)
	w.put(uint32(ggufFloat32))
	w.put(uint64(len(vs)))
	w.put(vs)
	return w
}

// ArrayHeader declares an array of n elements without writing any of them.
func (w *ggufWriter) ArrayHeader(k string, t ggufValueType, n uint64) *ggufWriter {
	w.key(k, ggufArray)
	w.put(uint32(t))
	w.put(n)
	return w
}

func (w *ggufWriter) Bytes(version uint32) []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, w.order, ggufMagicLE)
	_ = binary.Write(&out, w.order, version)
	_ = binary.Write(&out, w.order, uint64(0)) // tensors
	_ = binary.Write(&out, w.order, w.count)
	out.Write(w.body.Bytes())
	return out.Bytes()
}

// gpt2Tokens returns the 256 byte symbols followed by extra symbols.
func gpt2Tokens(extra ...string) []string {
	enc := bytesToUnicode()
	out := make([]string, 0, 256+len(extra))
	for b := 0; b < 256; b++ {
		out = append(out, string(enc[byte(b)]))
	}
	return append(out, extra...)
}

func tinyGGUF(t *testing.T) []byte {
	t.Helper()
	tokens := gpt2Tokens("he", "Ġw", "<|endoftext|>")
	types := make([]int32, len(tokens))
	for i := range types {
		types[i] = ggufTokenNormal
	}
	types[len(types)-1] = ggufTokenControl

	return newGGUFWriter(binary.LittleEndian).
		Str("general.architecture", "gpt2").
		Str(ggufKeyName, "tiny").
		Uint32("gpt2.context_length", 1024).
		Str(ggufKeyModel, "gpt2").
		Str(ggufKeyPre, "gpt-2").
		Strings(ggufKeyTokens, tokens).
		Int32s(ggufKeyTokenType, types).
		Bytes(3)
}

func TestLoadGGUF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.gguf")
	require.NoError(t, os.WriteFile(path, tinyGGUF(t), 0o600))

	base, err := LoadGGUF(path)
	require.NoError(t, err)

	assert.Equal(t, "tiny", base.Name)
	assert.Equal(t, vocab.PatternGPT2, base.Pattern)
	require.Equal(t, 258, base.Size())
	assert.Equal(t, []byte{' '}, base.Entries[' '].Token)
	assert.Equal(t, "he", string(base.Entries[256].Token))
	assert.Equal(t, " w", string(base.Entries[257].Token))
	assert.Equal(t, 257, base.Entries[257].Rank)
	assert.Equal(t, map[string]int{"<|endoftext|>": 258}, base.SpecialTokens)

	viaLoad, err := Load(path, SourceOffline)
	require.NoError(t, err)
	assert.Equal(t, base.Entries, viaLoad.Entries)
}

func TestLoadGGUF_BuildsVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.gguf")
	require.NoError(t, os.WriteFile(path, tinyGGUF(t), 0o600))

	base, err := LoadGGUF(path)
	require.NoError(t, err)

	v, err := vocab.Build(base.Entries, 259, []string{"<|endoftext|>"})
	require.NoError(t, err)
	id, ok := v.ControlTokenID("<|endoftext|>")
	require.True(t, ok)
	assert.Equal(t, 258, id)
}

func TestReadGGUFMetadata_Values(t *testing.T) {
	data := newGGUFWriter(binary.BigEndian).
		Uint32("a.count", 7).
		Bool("a.flag", true).
		Str("a.name", "x").
		Float32s("a.scores", []float32{0.5, -1}).
		Bytes(3)

	md, err := ReadGGUFMetadata(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), md["a.count"])
	assert.Equal(t, true, md["a.flag"])
	assert.Equal(t, "x", md["a.name"])
	assert.Equal(t, []float32{0.5, -1}, md["a.scores"])
}

func TestReadGGUFMetadata_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: []byte("NOPE\x03\x00\x00\x00")},
		{name: "version 1", data: newGGUFWriter(binary.LittleEndian).Bytes(1)},
		{name: "truncated", data: newGGUFWriter(binary.LittleEndian).Str("k", "value").Bytes(3)[:30]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGGUFMetadata(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestReadGGUFMetadata_OversizedArrayLength(t *testing.T) {
	tests := []struct {
		name string
		typ  ggufValueType
	}{
		{name: "strings", typ: ggufString},
		{name: "int64", typ: ggufInt64},
		{name: "bool", typ: ggufBool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newGGUFWriter(binary.LittleEndian).ArrayHeader("big", tt.typ, 90_000_000).Bytes(3)

			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := ReadGGUFMetadata(bytes.NewReader(data))
			runtime.ReadMemStats(&after)

			require.Error(t, err)
			assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
		})
	}
}

func TestGGUFBase_Errors(t *testing.T) {
	tokens := gpt2Tokens("he")

	tests := []struct {
		name     string
		metadata map[string]any
	}{
		{
			name:     "sentencepiece model",
			metadata: map[string]any{ggufKeyModel: "llama", ggufKeyTokens: tokens},
		},
		{
			name:     "missing tokens",
			metadata: map[string]any{ggufKeyModel: "gpt2"},
		},
		{
			name:     "token type length mismatch",
			metadata: map[string]any{ggufKeyModel: "gpt2", ggufKeyTokens: tokens, ggufKeyTokenType: []int32{1}},
		},
		{
			name:     "token type wrong type",
			metadata: map[string]any{ggufKeyModel: "gpt2", ggufKeyTokens: tokens, ggufKeyTokenType: "x"},
		},
		{
			name:     "symbol outside byte table",
			metadata: map[string]any{ggufKeyModel: "gpt2", ggufKeyTokens: []string{"a", "世"}},
		},
		{
			name:     "duplicate bytes",
			metadata: map[string]any{ggufKeyModel: "gpt2", ggufKeyTokens: []string{"a", "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := ggufBase(tt.metadata)
			assert.Nil(t, base)
			assert.Error(t, err)
		})
	}
}

func TestGGUFBase_SkipsUnusedAndMapsPattern(t *testing.T) {
	tokens := []string{"a", "b", "<unused0>", "<|eot_id|>"}
	md := map[string]any{
		ggufKeyModel:     "gpt2",
		ggufKeyPre:       "llama-bpe",
		ggufKeyTokens:    tokens,
		ggufKeyTokenType: []uint32{ggufTokenNormal, ggufTokenNormal, ggufTokenUnused, ggufTokenControl},
	}

	base, err := ggufBase(md)
	require.NoError(t, err)
	assert.Equal(t, vocab.PatternCL100k, base.Pattern)
	require.Len(t, base.Entries, 2)
	assert.Equal(t, map[string]int{"<|eot_id|>": 3}, base.SpecialTokens)
}

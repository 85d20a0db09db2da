package basevocab

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/hastings/internal/vocab"
)

// GGUF magic bytes ("GGUF" read as a uint32 in either byte order).
const (
	ggufMagicLE uint32 = 0x46554747
	ggufMagicBE uint32 = 0x47475546
)

// ggufValueType is the type tag of a GGUF metadata value.
type ggufValueType uint32

const (
	ggufUint8   ggufValueType = 0
	ggufInt8    ggufValueType = 1
	ggufUint16  ggufValueType = 2
	ggufInt16   ggufValueType = 3
	ggufUint32  ggufValueType = 4
	ggufInt32   ggufValueType = 5
	ggufFloat32 ggufValueType = 6
	ggufBool    ggufValueType = 7
	ggufString  ggufValueType = 8
	ggufArray   ggufValueType = 9
	ggufUint64  ggufValueType = 10
	ggufInt64   ggufValueType = 11
	ggufFloat64 ggufValueType = 12
)

// Token types stored in tokenizer.ggml.token_type.
const (
	ggufTokenNormal      = 1
	ggufTokenUnknown     = 2
	ggufTokenControl     = 3
	ggufTokenUserDefined = 4
	ggufTokenUnused      = 5
)

// Metadata keys read by LoadGGUF.
const (
	ggufKeyName      = "general.name"
	ggufKeyModel     = "tokenizer.ggml.model"
	ggufKeyPre       = "tokenizer.ggml.pre"
	ggufKeyTokens    = "tokenizer.ggml.tokens"
	ggufKeyTokenType = "tokenizer.ggml.token_type"
)

// Limits guarding against corrupt headers.
const (
	ggufMaxString = 1 << 20
	ggufMaxArray  = 100_000_000
	ggufChunk     = 1 << 16 // array elements allocated ahead of reading
)

// ReadGGUFMetadata parses the header and metadata key/values of a GGUF file and
// stops before the tensor table. Numeric arrays are returned as typed slices,
// string arrays as []string.
func ReadGGUFMetadata(r io.Reader) (map[string]any, error) {
	p := &ggufParser{r: r, order: binary.LittleEndian}

	var magic uint32
	if err := binary.Read(p.r, p.order, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	switch magic {
	case ggufMagicLE:
	case ggufMagicBE:
		p.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("invalid magic: 0x%08X (expected GGUF)", magic)
	}

	var version uint32
	if err := binary.Read(p.r, p.order, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version < 2 || version > 3 {
		return nil, fmt.Errorf("unsupported GGUF version: %d (supported: 2-3)", version)
	}

	var counts [2]uint64 // tensor count, metadata count
	if err := binary.Read(p.r, p.order, &counts); err != nil {
		return nil, fmt.Errorf("read counts: %w", err)
	}

	metadata := make(map[string]any)
	for i := uint64(0); i < counts[1]; i++ {
		key, err := p.readString()
		if err != nil {
			return nil, fmt.Errorf("metadata %d: read key: %w", i, err)
		}
		var t uint32
		if err := binary.Read(p.r, p.order, &t); err != nil {
			return nil, fmt.Errorf("metadata %q: read type: %w", key, err)
		}
		value, err := p.readValue(ggufValueType(t))
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", key, err)
		}
		metadata[key] = value
	}
	return metadata, nil
}

type ggufParser struct {
	r     io.Reader
	order binary.ByteOrder
}

func (p *ggufParser) readString() (string, error) {
	var n uint64
	if err := binary.Read(p.r, p.order, &n); err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if n > ggufMaxString {
		return "", fmt.Errorf("string too long: %d bytes", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(p.r, data); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}
	return string(data), nil
}

func (p *ggufParser) readValue(t ggufValueType) (any, error) {
	switch t {
	case ggufString:
		return p.readString()
	case ggufBool:
		var v uint8
		err := binary.Read(p.r, p.order, &v)
		return v != 0, err
	case ggufArray:
		return p.readArray()
	}

	v, err := newGGUFScalar(t)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(p.r, p.order, v); err != nil {
		return nil, err
	}
	return derefGGUFScalar(v), nil
}

func (p *ggufParser) readArray() (any, error) {
	var t uint32
	if err := binary.Read(p.r, p.order, &t); err != nil {
		return nil, fmt.Errorf("read array element type: %w", err)
	}
	var n uint64
	if err := binary.Read(p.r, p.order, &n); err != nil {
		return nil, fmt.Errorf("read array length: %w", err)
	}
	if n > ggufMaxArray {
		return nil, fmt.Errorf("array too large: %d elements", n)
	}

	switch ggufValueType(t) {
	case ggufString:
		out := make([]string, 0, min(n, ggufChunk))
		for i := uint64(0); i < n; i++ {
			s, err := p.readString()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, s)
		}
		return out, nil
	case ggufBool:
		raw, err := readGGUFNumbers[uint8](p, n)
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(raw))
		for i, b := range raw {
			out[i] = b != 0
		}
		return out, nil
	case ggufArray:
		return nil, errors.New("nested arrays are not supported")
	}

	return p.readNumbers(ggufValueType(t), n)
}

// readGGUFNumbers reads n fixed-size values a chunk at a time, so a corrupt
// length fails at end of input instead of allocating the whole array up front.
func readGGUFNumbers[T any](p *ggufParser, n uint64) ([]T, error) {
	out := make([]T, 0, min(n, ggufChunk))
	buf := make([]T, min(n, ggufChunk))
	for left := n; left > 0; {
		k := min(left, uint64(len(buf)))
		if err := binary.Read(p.r, p.order, buf[:k]); err != nil {
			return nil, err
		}
		out = append(out, buf[:k]...)
		left -= k
	}
	return out, nil
}

func (p *ggufParser) readNumbers(t ggufValueType, n uint64) (any, error) {
	switch t {
	case ggufUint8:
		return readGGUFNumbers[uint8](p, n)
	case ggufInt8:
		return readGGUFNumbers[int8](p, n)
	case ggufUint16:
		return readGGUFNumbers[uint16](p, n)
	case ggufInt16:
		return readGGUFNumbers[int16](p, n)
	case ggufUint32:
		return readGGUFNumbers[uint32](p, n)
	case ggufInt32:
		return readGGUFNumbers[int32](p, n)
	case ggufFloat32:
		return readGGUFNumbers[float32](p, n)
	case ggufUint64:
		return readGGUFNumbers[uint64](p, n)
	case ggufInt64:
		return readGGUFNumbers[int64](p, n)
	case ggufFloat64:
		return readGGUFNumbers[float64](p, n)
	default:
		return nil, fmt.Errorf("unsupported array element type: %d", t)
	}
}

func newGGUFScalar(t ggufValueType) (any, error) {
	switch t {
	case ggufUint8:
		return new(uint8), nil
	case ggufInt8:
		return new(int8), nil
	case ggufUint16:
		return new(uint16), nil
	case ggufInt16:
		return new(int16), nil
	case ggufUint32:
		return new(uint32), nil
	case ggufInt32:
		return new(int32), nil
	case ggufFloat32:
		return new(float32), nil
	case ggufUint64:
		return new(uint64), nil
	case ggufInt64:
		return new(int64), nil
	case ggufFloat64:
		return new(float64), nil
	default:
		return nil, fmt.Errorf("unknown value type: %d", t)
	}
}

func derefGGUFScalar(v any) any {
	switch x := v.(type) {
	case *uint8:
		return *x
	case *int8:
		return *x
	case *uint16:
		return *x
	case *int16:
		return *x
	case *uint32:
		return *x
	case *int32:
		return *x
	case *float32:
		return *x
	case *uint64:
		return *x
	case *int64:
		return *x
	case *float64:
		return *x
	default:
		return v
	}
}

// ggufTokenTypes normalizes tokenizer.ggml.token_type, which writers store as
// int32 or uint32.
func ggufTokenTypes(v any, n int) ([]int, error) {
	out := make([]int, n)
	switch x := v.(type) {
	case nil:
		for i := range out {
			out[i] = ggufTokenNormal
		}
		return out, nil
	case []int32:
		if len(x) != n {
			return nil, fmt.Errorf("%s has %d entries for %d tokens", ggufKeyTokenType, len(x), n)
		}
		for i, t := range x {
			out[i] = int(t)
		}
	case []uint32:
		if len(x) != n {
			return nil, fmt.Errorf("%s has %d entries for %d tokens", ggufKeyTokenType, len(x), n)
		}
		for i, t := range x {
			out[i] = int(t)
		}
	default:
		return nil, fmt.Errorf("%s has unexpected type %T", ggufKeyTokenType, v)
	}
	return out, nil
}

// LoadGGUF reads the tokenizer embedded in a GGUF model file as a base table.
//
// Only byte-level BPE tokenizers (tokenizer.ggml.model "gpt2") are supported.
// Token ids become ranks; control and user-defined tokens are reported as
// SpecialTokens and unused slots are skipped.
func LoadGGUF(path string) (*Base, error) {
	//nolint:gosec // Loading a model from a user-specified path is intentional.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GGUF file: %w", err)
	}
	defer func() {
		_ = f.Close() // Read-only file.
	}()

	metadata, err := ReadGGUFMetadata(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base, err := ggufBase(metadata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if base.Name == "" {
		base.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return base, nil
}

func ggufBase(metadata map[string]any) (*Base, error) {
	model, _ := metadata[ggufKeyModel].(string)
	if model != "gpt2" {
		return nil, fmt.Errorf("tokenizer model %q is not supported, only byte-level BPE (gpt2)", model)
	}
	tokens, ok := metadata[ggufKeyTokens].([]string)
	if !ok || len(tokens) == 0 {
		return nil, fmt.Errorf("missing %s", ggufKeyTokens)
	}
	types, err := ggufTokenTypes(metadata[ggufKeyTokenType], len(tokens))
	if err != nil {
		return nil, err
	}

	pattern := vocab.PatternGPT2
	if pre, _ := metadata[ggufKeyPre].(string); pre == "llama-bpe" || pre == "dbrx" {
		pattern = vocab.PatternCL100k
	}

	decoder := unicodeToBytes()
	specials := make(map[string]int)
	ranks := make(map[string]int, len(tokens))
	for id, sym := range tokens {
		switch types[id] {
		case ggufTokenControl, ggufTokenUserDefined, ggufTokenUnknown:
			specials[sym] = id
			continue
		case ggufTokenUnused:
			continue
		}
		raw, err := decodeSymbol(sym, decoder)
		if err != nil {
			return nil, err
		}
		if prev, dup := ranks[string(raw)]; dup {
			return nil, fmt.Errorf("ids %d and %d decode to the same bytes", prev, id)
		}
		ranks[string(raw)] = id
	}

	name, _ := metadata[ggufKeyName].(string)
	return &Base{
		Name:          name,
		Pattern:       pattern,
		Entries:       vocab.SortedEntries(ranks),
		SpecialTokens: specials,
	}, nil
}

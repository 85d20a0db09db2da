package tokenizer

import (
	"context"
	"fmt"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/born-ml/hastings/internal/parallel"
	"github.com/born-ml/hastings/internal/vocab"
)

// Codec encodes text to token ids and back with a fixed Vocabulary.
//
// A Codec never mutates its Vocabulary and is safe for concurrent use.
type Codec struct {
	vocab    *vocab.Vocabulary
	ranks    map[string]int
	controls []string
	split    *splitter
	control  *controlMatcher
	cache    *lru.Cache[string, []int]
	batch    parallel.Config
}

// CodecOption configures NewCodec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	cacheSize int
	batch     parallel.Config
}

// WithCacheSize memoizes the ids of up to n distinct chunks. Zero disables the cache.
func WithCacheSize(n int) CodecOption {
	return func(o *codecOptions) {
		o.cacheSize = n
	}
}

// WithBatchConfig sets the fan-out used by EncodeBatch.
func WithBatchConfig(cfg parallel.Config) CodecOption {
	return func(o *codecOptions) {
		o.batch = cfg
	}
}

// NewCodec creates a codec over v.
func NewCodec(v *vocab.Vocabulary, opts ...CodecOption) (*Codec, error) {
	if v == nil {
		return nil, fmt.Errorf("nil vocabulary")
	}

	o := codecOptions{batch: parallel.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	split, err := newSplitter(v.Pattern())
	if err != nil {
		return nil, err
	}

	controls := v.ControlTokens()
	control, err := compileControlMatcher(controls)
	if err != nil {
		return nil, fmt.Errorf("failed to compile control token matcher: %w", err)
	}

	c := &Codec{
		vocab:    v,
		ranks:    v.Ranks(),
		controls: controls,
		split:    split,
		control:  control,
		batch:    o.batch,
	}

	if o.cacheSize > 0 {
		cache, err := lru.New[string, []int](o.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create chunk cache: %w", err)
		}
		c.cache = cache
	}

	return c, nil
}

// Vocabulary returns the vocabulary the codec was built from.
func (c *Codec) Vocabulary() *vocab.Vocabulary {
	return c.vocab
}

// VocabSize returns the total vocabulary size, control tokens included.
func (c *Codec) VocabSize() int {
	return c.vocab.Size()
}

// ControlTokenID returns the reserved id of a control token.
func (c *Codec) ControlTokenID(name string) (int, bool) {
	return c.vocab.ControlTokenID(name)
}

// IsControlToken checks if a token ID is a reserved control-token id.
func (c *Codec) IsControlToken(id int) bool {
	return c.vocab.IsControl(id)
}

// Encode converts text to token ids.
//
// Control-token literals are handled by policy; spans between honoured control
// tokens are pre-tokenized and merged independently.
func (c *Codec) Encode(text string, policy Policy) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, &InvalidUTF8Error{Offset: invalidOffset([]byte(text))}
	}

	ids := make([]int, 0, len(text)/3+1)
	start := 0
	err := scanControls(c.control, text, policy, func(s, e int) error {
		var err error
		if ids, err = c.encodeOrdinary(ids, text[start:s]); err != nil {
			return err
		}
		id, _ := c.vocab.ControlTokenID(text[s:e])
		ids = append(ids, id)
		start = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c.encodeOrdinary(ids, text[start:])
}

// EncodeOrdinary encodes text ignoring control tokens entirely: every literal is
// plain text. It is equivalent to Encode(text, AllowSetAndRaw()).
func (c *Codec) EncodeOrdinary(text string) ([]int, error) {
	return c.Encode(text, AllowSetAndRaw())
}

// EncodeBatch encodes every text independently and returns the ids in input order.
func (c *Codec) EncodeBatch(ctx context.Context, texts []string, policy Policy) ([][]int, error) {
	out := make([][]int, len(texts))
	err := parallel.ForEach(ctx, len(texts), func(_ context.Context, i int) error {
		ids, err := c.Encode(texts[i], policy)
		if err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = ids
		return nil
	}, c.batch)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) encodeOrdinary(dst []int, text string) ([]int, error) {
	chunks, err := c.split.chunks(text)
	if err != nil {
		return dst, err
	}
	for _, chunk := range chunks {
		if dst, err = c.encodeChunk(dst, chunk); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func (c *Codec) encodeChunk(dst []int, chunk string) ([]int, error) {
	if c.cache != nil {
		if ids, ok := c.cache.Get(chunk); ok {
			return append(dst, ids...), nil
		}
	}

	n := len(dst)
	dst, err := bytePairEncode(dst, []byte(chunk), c.ranks)
	if err != nil {
		return dst, err
	}

	if c.cache != nil {
		c.cache.Add(chunk, append([]int(nil), dst[n:]...))
	}
	return dst, nil
}

// DecodeBytes concatenates the bytes of every id without any UTF-8 check.
func (c *Codec) DecodeBytes(ids []int) ([]byte, error) {
	out := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		if tok, ok := c.vocab.Token(id); ok {
			out = append(out, tok...)
			continue
		}
		if lit, ok := c.vocab.ControlToken(id); ok {
			out = append(out, lit...)
			continue
		}
		return nil, &UnknownIDError{ID: id, VocabSize: c.vocab.Size()}
	}
	return out, nil
}

// Decode converts token ids back to text. mode decides what happens to bytes
// that do not form valid UTF-8.
func (c *Codec) Decode(ids []int, mode DecodeMode) (string, error) {
	b, err := c.DecodeBytes(ids)
	if err != nil {
		return "", err
	}
	return finishDecode(b, mode)
}

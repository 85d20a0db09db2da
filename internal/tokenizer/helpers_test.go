package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/hastings/internal/vocab"
)

// exampleControls puts <|endoftext|> last so it gets id V-1.
var exampleControls = []string{TokenPad, TokenUser, TokenAssistant, TokenEndOfText}

// wordMerges is BPE-closed: every multi-byte token is two earlier tokens joined,
// and each merge path reaches it.
var wordMerges = []string{"he", "ll", "hell", "hello", " w", "or", " wor", "ld", " world"}

// byteBase returns the 256 single-byte tokens ranked by byte value followed by merges.
func byteBase(merges ...string) []vocab.Entry {
	base := make([]vocab.Entry, 0, 256+len(merges))
	for b := 0; b < 256; b++ {
		base = append(base, vocab.Entry{Token: []byte{byte(b)}, Rank: b})
	}
	for i, tok := range merges {
		base = append(base, vocab.Entry{Token: []byte(tok), Rank: 256 + i})
	}
	return base
}

func buildVocab(t testing.TB, merges []string, controls []string) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.Build(byteBase(merges...), 256+len(merges)+len(controls), controls, vocab.WithName("test"))
	require.NoError(t, err)
	return v
}

func newCodec(t testing.TB, merges []string, controls []string, opts ...CodecOption) *Codec {
	t.Helper()
	c, err := NewCodec(buildVocab(t, merges, controls), opts...)
	require.NoError(t, err)
	return c
}

// exampleCodec is 256 bytes + "he", V = 261, <|endoftext|> = 260.
func exampleCodec(t testing.TB, opts ...CodecOption) *Codec {
	t.Helper()
	return newCodec(t, []string{"he"}, exampleControls, opts...)
}

func bytesOf(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i])
	}
	return out
}

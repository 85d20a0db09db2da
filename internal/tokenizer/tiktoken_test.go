package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTikToken(t *testing.T) (*TikToken, *Codec) {
	t.Helper()
	v := buildVocab(t, wordMerges, DefaultControlTokens)

	tk, err := NewTikToken(v)
	require.NoError(t, err)
	c, err := NewCodec(v)
	require.NoError(t, err)
	return tk, c
}

func TestTikToken_Parity(t *testing.T) {
	tk, c := newTikToken(t)

	tests := []struct {
		name   string
		text   string
		policy Policy
	}{
		{"words", "hello world", DisallowAll()},
		{"punctuation", "Hello, world!", DisallowAll()},
		{"repeats", "hello hello  world\n", DisallowAll()},
		{"partial merges", "tell the world", DisallowAll()},
		{"quotes", "he said: 'hello'", DisallowAll()},
		{"multibyte", "日本語 text 123", DisallowAll()},
		{"chat", "<|startoftext|><|user|>Hello, world!<|assistant|>Hey there!<|endoftext|>", AllowAll()},
		{"allow set", "<|user|>hello world", AllowSet(TokenUser)},
		{"raw", "<|user|>hello<|endoftext|>", AllowSetAndRaw(TokenUser)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := c.Encode(tt.text, tt.policy)
			require.NoError(t, err)

			got, err := tk.Encode(tt.text, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			text, err := tk.Decode(got, Strict)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestTikToken_PolicyErrors(t *testing.T) {
	tk, _ := newTikToken(t)

	_, err := tk.Encode("hi<|endoftext|>", DisallowAll())
	var disallowed *DisallowedControlTokenError
	require.ErrorAs(t, err, &disallowed)
	assert.Equal(t, 2, disallowed.Offset)

	_, err = tk.Encode("<|user|><|pad|>", AllowSet(TokenUser))
	assert.ErrorIs(t, err, ErrDisallowedControlToken)

	_, err = tk.Encode("bad\xff", AllowAll())
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestTikToken_Decode(t *testing.T) {
	tk, c := newTikToken(t)

	_, err := tk.Decode([]int{c.VocabSize()}, Strict)
	assert.ErrorIs(t, err, ErrUnknownID)

	_, err = tk.Decode([]int{'a', 0xff}, Strict)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	text, err := tk.Decode([]int{'a', 0xff}, Replace)
	require.NoError(t, err)
	assert.Equal(t, "a�", text)
}

func TestTikToken_Accessors(t *testing.T) {
	tk, c := newTikToken(t)

	assert.Equal(t, "test", tk.Name())
	assert.Equal(t, c.VocabSize(), tk.VocabSize())

	id, ok := tk.ControlTokenID(TokenStartOfText)
	require.True(t, ok)
	assert.Equal(t, c.VocabSize()-1, id)
	assert.True(t, tk.IsControlToken(id))
	assert.False(t, tk.IsControlToken(0))
}

package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hastings/internal/vocab"
)

func TestSplitter_GPT2(t *testing.T) {
	s, err := newSplitter(vocab.PatternGPT2)
	require.NoError(t, err)

	tests := []struct {
		text string
		want []string
	}{
		{"Hello world", []string{"Hello", " world"}},
		{"Hello, world!", []string{"Hello", ",", " world", "!"}},
		{"I'm here", []string{"I", "'m", " here"}},
		{"we'll", []string{"we", "'ll"}},
		{"123abc", []string{"123", "abc"}},
		{"a  b", []string{"a", " ", " b"}},
		{"hi  ", []string{"hi", "  "}},
		{"line\nnext", []string{"line", "\n", "next"}},
		{"日本語 テキスト", []string{"日本語", " テキスト"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := s.chunks(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitter_Concatenation(t *testing.T) {
	for _, pattern := range []string{vocab.PatternGPT2, vocab.PatternCL100k} {
		s, err := newSplitter(pattern)
		require.NoError(t, err)

		for _, text := range []string{
			"The quick brown fox's 42 jumps!!  \n\n over\tthe lazy dog   ",
			"emoji 🦀🚀, accents café and CJK 中文",
			"   ",
			"x",
		} {
			got, err := s.chunks(text)
			require.NoError(t, err)
			assert.Equal(t, text, strings.Join(got, ""), "pattern %q", pattern)
			for _, chunk := range got {
				assert.NotEmpty(t, chunk)
			}
		}
	}
}

func TestSplitter_Gaps(t *testing.T) {
	// Only letters match; everything else must survive as gap chunks.
	s, err := newSplitter(`\p{L}+`)
	require.NoError(t, err)

	got, err := s.chunks("12ab--cd!")
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "ab", "--", "cd", "!"}, got)
}

func TestNewSplitter_BadPattern(t *testing.T) {
	_, err := newSplitter(`(unclosed`)
	assert.Error(t, err)
}

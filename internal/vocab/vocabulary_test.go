package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRanks_RoundTrip(t *testing.T) {
	built, err := Build(byteBase("he", "ll"), 260, []string{"<|user|>", "<|endoftext|>"}, WithName("Hastings"))
	require.NoError(t, err)

	loaded, err := FromRanks(built.Name(), built.Pattern(), built.Ranks(), built.ControlTokenIDs(), built.Size())
	require.NoError(t, err)

	assert.True(t, built.Equal(loaded))
	assert.Equal(t, built.Fingerprint(), loaded.Fingerprint())
	assert.Equal(t, "Hastings", loaded.Name())
}

func TestFromRanks_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		ranks    map[string]int
		controls map[string]int
		size     int
	}{
		{
			name:  "size mismatch",
			ranks: map[string]int{"a": 0, "b": 1},
			size:  3,
		},
		{
			name:  "empty",
			ranks: map[string]int{},
			size:  0,
		},
		{
			name:  "rank gap",
			ranks: map[string]int{"a": 0, "b": 2},
			size:  2,
		},
		{
			name:  "negative rank",
			ranks: map[string]int{"a": -1, "b": 0},
			size:  2,
		},
		{
			name:     "control id inside rank range",
			ranks:    map[string]int{"a": 0, "b": 1},
			controls: map[string]int{"<|x|>": 1},
			size:     3,
		},
		{
			name:     "duplicate control id",
			ranks:    map[string]int{"a": 0},
			controls: map[string]int{"<|x|>": 1, "<|y|>": 1},
			size:     3,
		},
		{
			name:     "control collides with token",
			ranks:    map[string]int{"a": 0},
			controls: map[string]int{"a": 1},
			size:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromRanks("x", PatternGPT2, tt.ranks, tt.controls, tt.size)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestVocabulary_Lookups(t *testing.T) {
	v, err := Build(byteBase("he"), 258, []string{"<|endoftext|>"})
	require.NoError(t, err)

	t.Run("token bounds", func(t *testing.T) {
		_, ok := v.Token(-1)
		assert.False(t, ok)
		_, ok = v.Token(257)
		assert.False(t, ok)
		tok, ok := v.Token('a')
		require.True(t, ok)
		assert.Equal(t, []byte("a"), tok)
	})

	t.Run("control bounds", func(t *testing.T) {
		assert.True(t, v.IsControl(257))
		assert.False(t, v.IsControl(256))
		assert.False(t, v.IsControl(258))
		_, ok := v.ControlToken(258)
		assert.False(t, ok)
		_, ok = v.ControlTokenID("<|user|>")
		assert.False(t, ok)
	})

	t.Run("copies", func(t *testing.T) {
		ranks := v.Ranks()
		ranks["zz"] = 999
		_, ok := v.Rank([]byte("zz"))
		assert.False(t, ok)

		controls := v.ControlTokens()
		controls[0] = "mutated"
		lit, _ := v.ControlToken(257)
		assert.Equal(t, "<|endoftext|>", lit)
	})

	t.Run("entries", func(t *testing.T) {
		entries := v.Entries()
		require.Len(t, entries, 257)
		assert.Equal(t, "he", string(entries[256].Token))
		assert.Equal(t, 256, entries[256].Rank)
	})
}

func TestVocabulary_FingerprintSensitivity(t *testing.T) {
	a, err := Build(byteBase("he"), 258, []string{"<|endoftext|>"})
	require.NoError(t, err)
	b, err := Build(byteBase("hi"), 258, []string{"<|endoftext|>"})
	require.NoError(t, err)
	c, err := Build(byteBase("he"), 258, []string{"<|eot|>"})
	require.NoError(t, err)
	d, err := Build(byteBase("he"), 258, []string{"<|endoftext|>"}, WithPattern(PatternCL100k))
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

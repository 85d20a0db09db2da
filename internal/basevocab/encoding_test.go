package basevocab

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hastings/internal/vocab"
)

// mapLoader serves fixed rank tables by URL.
type mapLoader struct {
	files map[string]map[string]int
	asked []string
}

func (l *mapLoader) LoadTiktokenBpe(file string) (map[string]int, error) {
	l.asked = append(l.asked, file)
	ranks, ok := l.files[file]
	if !ok {
		return nil, errors.New("not found")
	}
	return ranks, nil
}

func TestLoadEncodingWith(t *testing.T) {
	loader := &mapLoader{files: map[string]map[string]int{
		blobURL + "r50k_base.tiktoken": {"b": 1, "a": 0, "ab": 2},
	}}

	for _, name := range []string{"r50k_base", "gpt2", "R50K_BASE"} {
		base, err := LoadEncodingWith(name, loader)
		require.NoError(t, err, name)
		assert.Equal(t, "r50k_base", base.Name)
		assert.Equal(t, vocab.PatternGPT2, base.Pattern)
		assert.Equal(t, 50256, base.SpecialTokens["<|endoftext|>"])
		require.Len(t, base.Entries, 3)
		assert.Equal(t, "a", string(base.Entries[0].Token))
		assert.Equal(t, "ab", string(base.Entries[2].Token))
	}
	assert.Equal(t, blobURL+"r50k_base.tiktoken", loader.asked[0])
}

func TestLoadEncodingWith_Errors(t *testing.T) {
	loader := &mapLoader{}

	_, err := LoadEncodingWith("o999k", loader)
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	_, err = LoadEncodingWith("cl100k_base", loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cl100k_base")
}

func TestLoaderFor(t *testing.T) {
	for _, src := range []Source{"", SourceOffline, SourceRemote} {
		l, err := LoaderFor(src)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}

	_, err := LoaderFor("ftp")
	assert.Error(t, err)
}

func TestLoadEncoding_OfflineR50k(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the full r50k_base table")
	}

	base, err := LoadEncoding("r50k_base", SourceOffline)
	require.NoError(t, err)
	require.Equal(t, 50256, base.Size())

	for i, e := range base.Entries {
		require.Equal(t, i, e.Rank)
	}
	assert.Equal(t, []byte("!"), base.Entries[0].Token)

	// The default Hastings recipe: 32768 ids, five control tokens on top.
	controls := []string{"<|pad|>", "<|endoftext|>", "<|assistant|>", "<|user|>", "<|startoftext|>"}
	v, err := vocab.Build(base.Entries, 32768, controls, vocab.WithName("Hastings"))
	require.NoError(t, err)
	assert.Equal(t, 32768, v.Size())
	assert.Equal(t, 32763, v.RankLimit())

	id, ok := v.ControlTokenID("<|startoftext|>")
	require.True(t, ok)
	assert.Equal(t, 32767, id)
}

func TestLoad_Dispatch(t *testing.T) {
	dir := t.TempDir()

	tiktokenPath := filepath.Join(dir, "ranks.tiktoken")
	require.NoError(t, os.WriteFile(tiktokenPath, []byte("YQ== 0\n"), 0o600))
	base, err := Load(tiktokenPath, SourceOffline)
	require.NoError(t, err)
	assert.Equal(t, "ranks", base.Name)

	modelDir := filepath.Join(dir, "model")
	require.NoError(t, os.Mkdir(modelDir, 0o750))
	writeTokenizerJSON(t, filepath.Join(modelDir, "tokenizer.json"), tinyHFTokenizer)
	base, err = Load(modelDir, SourceOffline)
	require.NoError(t, err)
	assert.Equal(t, "model", base.Name)

	_, err = Load("no-such-encoding", SourceOffline)
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestEncodings(t *testing.T) {
	for _, name := range Encodings() {
		_, ok := encodings[name]
		assert.True(t, ok, name)
		assert.True(t, strings.HasSuffix(encodings[name].file, name+".tiktoken"))
	}
}

package basevocab

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/born-ml/hastings/internal/vocab"
)

// ErrUnknownEncoding is returned for encoding names with no known base table.
var ErrUnknownEncoding = errors.New("unknown base encoding")

// Source selects where named encodings are read from.
type Source string

const (
	// SourceOffline reads the copies bundled into the binary. No network access.
	SourceOffline Source = "offline"

	// SourceRemote downloads the file on first use and caches it under
	// TIKTOKEN_CACHE_DIR (or the system temp dir).
	SourceRemote Source = "remote"
)

// Loader fetches a tiktoken rank file by URL.
// Both tiktoken-go loaders satisfy it.
type Loader interface {
	LoadTiktokenBpe(tiktokenBpeFile string) (map[string]int, error)
}

// Base is an ordered base table plus the metadata of the encoding it came from.
type Base struct {
	Name    string
	Pattern string
	Entries []vocab.Entry

	// SpecialTokens are the encoding's own special tokens. They are informational
	// only: a Hastings vocabulary brings its own control tokens.
	SpecialTokens map[string]int
}

// Size returns the number of entries in the table.
func (b *Base) Size() int {
	return len(b.Entries)
}

type encodingInfo struct {
	file     string
	pattern  string
	specials map[string]int
}

const blobURL = "https://openaipublic.blob.core.windows.net/encodings/"

var encodings = map[string]encodingInfo{
	"r50k_base": {
		file:     blobURL + "r50k_base.tiktoken",
		pattern:  vocab.PatternGPT2,
		specials: map[string]int{"<|endoftext|>": 50256},
	},
	"p50k_base": {
		file:     blobURL + "p50k_base.tiktoken",
		pattern:  vocab.PatternGPT2,
		specials: map[string]int{"<|endoftext|>": 50256},
	},
	"cl100k_base": {
		file:    blobURL + "cl100k_base.tiktoken",
		pattern: vocab.PatternCL100k,
		specials: map[string]int{
			"<|endoftext|>":   100257,
			"<|fim_prefix|>":  100258,
			"<|fim_middle|>":  100259,
			"<|fim_suffix|>":  100260,
			"<|endofprompt|>": 100276,
		},
	},
}

// aliases maps alternate names onto the encodings above.
var aliases = map[string]string{
	"gpt2":   "r50k_base",
	"r50k":   "r50k_base",
	"p50k":   "p50k_base",
	"cl100k": "cl100k_base",
}

// Encodings lists the supported encoding names.
func Encodings() []string {
	return []string{"r50k_base", "p50k_base", "cl100k_base"}
}

// LoaderFor returns the tiktoken loader for src.
func LoaderFor(src Source) (Loader, error) {
	switch src {
	case SourceOffline, "":
		return tiktoken_loader.NewOfflineLoader(), nil
	case SourceRemote:
		return tiktoken.NewDefaultBpeLoader(), nil
	default:
		return nil, fmt.Errorf("unknown base source %q (want offline or remote)", src)
	}
}

// LoadEncoding loads a named encoding from src.
func LoadEncoding(name string, src Source) (*Base, error) {
	loader, err := LoaderFor(src)
	if err != nil {
		return nil, err
	}
	return LoadEncodingWith(name, loader)
}

// LoadEncodingWith loads a named encoding through loader.
func LoadEncodingWith(name string, loader Loader) (*Base, error) {
	canonical := strings.ToLower(name)
	if alias, ok := aliases[canonical]; ok {
		canonical = alias
	}
	info, ok := encodings[canonical]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEncoding, name, strings.Join(Encodings(), ", "))
	}

	ranks, err := loader.LoadTiktokenBpe(info.file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", canonical, err)
	}

	specials := make(map[string]int, len(info.specials))
	for k, v := range info.specials {
		specials[k] = v
	}

	return &Base{
		Name:          canonical,
		Pattern:       info.pattern,
		Entries:       vocab.SortedEntries(ranks),
		SpecialTokens: specials,
	}, nil
}

// Load resolves ref as a file or directory on disk, falling back to a named encoding.
//
// Directories must contain tokenizer.json. Files ending in .json are read as
// HuggingFace tokenizers, .gguf files as model files with an embedded
// tokenizer, anything else as a tiktoken rank file.
func Load(ref string, src Source) (*Base, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return LoadEncoding(ref, src)
	}

	if info.IsDir() {
		return LoadHuggingFace(filepath.Join(ref, "tokenizer.json"))
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".json":
		return LoadHuggingFace(ref)
	case ".gguf":
		return LoadGGUF(ref)
	default:
		return ReadTiktokenFile(ref)
	}
}

// Package tokenizer provides the public API of the Hastings byte-level BPE tokenizer.
//
// This package wraps the internal vocabulary builder, codec and file format and
// provides a clean public API for building vocabularies and tokenizing text.
//
// Example usage:
//
//	import "github.com/born-ml/hastings/tokenizer"
//
//	// Build the default vocabulary from the embedded GPT-2 table
//	v, err := tokenizer.BuildDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	codec, err := tokenizer.NewCodec(v)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text, honouring every control token
//	ids, err := codec.Encode("<|user|>Hello, world!", tokenizer.AllowAll())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode ids
//	text, err := codec.Decode(ids, tokenizer.Strict)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/hastings/internal/basevocab"
	"github.com/born-ml/hastings/internal/config"
	"github.com/born-ml/hastings/internal/serialization"
	"github.com/born-ml/hastings/internal/tokenizer"
	"github.com/born-ml/hastings/internal/vocab"
)

// Vocabulary is the finalized, read-only token table.
type Vocabulary = vocab.Vocabulary

// Entry is one row of an ordered rank table.
type Entry = vocab.Entry

// BuildOption configures Build.
type BuildOption = vocab.Option

// Codec encodes text to token ids and back. It is safe for concurrent use.
type Codec = tokenizer.Codec

// CodecOption configures NewCodec.
type CodecOption = tokenizer.CodecOption

// Tokenizer is the core interface for text tokenization.
type Tokenizer = tokenizer.Tokenizer

// Policy decides what Encode does with control-token literals.
type Policy = tokenizer.Policy

// DecodeMode selects how Decode treats invalid UTF-8.
type DecodeMode = tokenizer.DecodeMode

// ChatMessage represents a single message in a conversation.
type ChatMessage = tokenizer.ChatMessage

// ChatTemplate formats messages for conversational models.
type ChatTemplate = tokenizer.ChatTemplate

// Base is a pretrained rank table a vocabulary is built from.
type Base = basevocab.Base

// Decode modes.
const (
	Strict  = tokenizer.Strict
	Replace = tokenizer.Replace
)

// Hastings control tokens.
const (
	TokenPad         = tokenizer.TokenPad
	TokenEndOfText   = tokenizer.TokenEndOfText
	TokenAssistant   = tokenizer.TokenAssistant
	TokenUser        = tokenizer.TokenUser
	TokenStartOfText = tokenizer.TokenStartOfText
)

// DefaultControlTokens is the Hastings control-token order; the last gets id V-1.
var DefaultControlTokens = tokenizer.DefaultControlTokens

// Errors returned by the builder and the codec; match them with errors.Is.
var (
	ErrConfiguration          = vocab.ErrConfiguration
	ErrInsufficientVocabulary = vocab.ErrInsufficientVocabulary
	ErrUnknownID              = tokenizer.ErrUnknownID
	ErrDisallowedControlToken = tokenizer.ErrDisallowedControlToken
	ErrInvalidUTF8            = tokenizer.ErrInvalidUTF8
	ErrUnencodable            = tokenizer.ErrUnencodable
)

// Build derives a vocabulary of exactly vocabSize ids from an ordered base table.
//
// Control tokens take the top ids in the order given.
func Build(base []Entry, vocabSize int, controlTokens []string, opts ...BuildOption) (*Vocabulary, error) {
	return vocab.Build(base, vocabSize, controlTokens, opts...)
}

// BuildDefault builds the Hastings vocabulary: the embedded GPT-2 table
// truncated to 32768 ids with the five Hastings control tokens on top.
func BuildDefault() (*Vocabulary, error) {
	base, err := LoadBase(config.DefaultBase)
	if err != nil {
		return nil, err
	}
	return vocab.Build(base.Entries, config.DefaultVocabSize, DefaultControlTokens,
		vocab.WithName(config.DefaultName),
		vocab.WithPattern(base.Pattern),
	)
}

// WithName sets the vocabulary name.
func WithName(name string) BuildOption {
	return vocab.WithName(name)
}

// WithPattern sets the pre-tokenization pattern carried by the vocabulary.
func WithPattern(pattern string) BuildOption {
	return vocab.WithPattern(pattern)
}

// LoadBase loads a base table by encoding name (r50k_base, p50k_base,
// cl100k_base), tiktoken file or HuggingFace tokenizer.json. Named encodings
// come from the embedded offline copy.
func LoadBase(ref string) (*Base, error) {
	return basevocab.Load(ref, basevocab.SourceOffline)
}

// NewCodec creates a codec over v.
func NewCodec(v *Vocabulary, opts ...CodecOption) (*Codec, error) {
	return tokenizer.NewCodec(v, opts...)
}

// WithCacheSize memoizes the ids of up to n distinct pre-tokenized chunks.
func WithCacheSize(n int) CodecOption {
	return tokenizer.WithCacheSize(n)
}

// NewTikToken runs v through tiktoken-go, for cross-checking a Codec.
func NewTikToken(v *Vocabulary) (Tokenizer, error) {
	return tokenizer.NewTikToken(v)
}

// LoadVocabulary reads a .hastings file, validating its checksum and fingerprint.
func LoadVocabulary(path string) (*Vocabulary, error) {
	v, _, err := serialization.Load(path, serialization.ReaderOptions{})
	return v, err
}

// SaveVocabulary writes v as a .hastings file, optionally zstd-compressed.
func SaveVocabulary(path string, v *Vocabulary, compress bool) error {
	return serialization.Save(path, v, serialization.WriterOptions{Compress: compress})
}

// DisallowAll rejects every control-token literal. It is the zero Policy.
func DisallowAll() Policy {
	return tokenizer.DisallowAll()
}

// AllowAll encodes every control-token literal as its reserved id.
func AllowAll() Policy {
	return tokenizer.AllowAll()
}

// AllowSet encodes the named control tokens and rejects all others.
func AllowSet(names ...string) Policy {
	return tokenizer.AllowSet(names...)
}

// AllowSetAndRaw encodes the named control tokens and treats all others as plain text.
func AllowSetAndRaw(names ...string) Policy {
	return tokenizer.AllowSetAndRaw(names...)
}

// GetChatTemplate returns a chat template by name.
//
// Supported names: "hastings".
func GetChatTemplate(name string) (ChatTemplate, error) {
	return tokenizer.GetChatTemplate(name)
}

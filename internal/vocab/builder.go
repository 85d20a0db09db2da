package vocab

import (
	"cmp"
	"slices"
)

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	name    string
	pattern string
}

// WithName sets the vocabulary name.
func WithName(name string) Option {
	return func(o *buildOptions) {
		o.name = name
	}
}

// WithPattern sets the pre-tokenization pattern carried by the vocabulary.
// Defaults to PatternGPT2.
func WithPattern(pattern string) Option {
	return func(o *buildOptions) {
		o.pattern = pattern
	}
}

// Build derives a vocabulary of exactly vocabSize ids from an ordered base table.
//
// base must be sorted by strictly increasing rank. Base entries whose bytes equal
// a control-token literal are dropped, the first vocabSize-len(controlTokens)
// survivors are re-ranked 0, 1, 2, ... in base order, and control tokens take the
// top ids in the order given. Build is pure: identical inputs give identical output.
func Build(base []Entry, vocabSize int, controlTokens []string, opts ...Option) (*Vocabulary, error) {
	o := buildOptions{name: DefaultName, pattern: PatternGPT2}
	for _, opt := range opts {
		opt(&o)
	}

	if vocabSize <= len(controlTokens) {
		return nil, configErr("vocab_size", "%d leaves no room for regular tokens next to %d control tokens",
			vocabSize, len(controlTokens))
	}

	controlSet := make(map[string]struct{}, len(controlTokens))
	for _, name := range controlTokens {
		if name == "" {
			return nil, configErr("control_tokens", "empty control token name")
		}
		if _, dup := controlSet[name]; dup {
			return nil, configErr("control_tokens", "%q listed more than once", name)
		}
		controlSet[name] = struct{}{}
	}

	rankLimit := vocabSize - len(controlTokens)
	v := &Vocabulary{
		name:       o.name,
		pattern:    o.pattern,
		tokens:     make([][]byte, 0, rankLimit),
		ranks:      make(map[string]int, rankLimit),
		controls:   slices.Clone(controlTokens),
		controlIDs: make(map[string]int, len(controlTokens)),
	}

	seen := make(map[string]struct{}, len(base))
	for i, e := range base {
		if len(e.Token) == 0 {
			return nil, configErr("base", "empty token at rank %d", e.Rank)
		}
		if i > 0 && e.Rank <= base[i-1].Rank {
			return nil, configErr("base", "rank %d follows rank %d; table must be strictly increasing",
				e.Rank, base[i-1].Rank)
		}
		key := string(e.Token)
		if _, dup := seen[key]; dup {
			return nil, configErr("base", "token %q appears more than once", e.Token)
		}
		seen[key] = struct{}{}

		if _, collides := controlSet[key]; collides {
			v.displaced = append(v.displaced, key)
			continue
		}
		if len(v.tokens) == rankLimit {
			// Keep scanning only to validate the rest of the table.
			continue
		}
		v.ranks[key] = len(v.tokens)
		v.tokens = append(v.tokens, slices.Clone(e.Token))
	}

	if len(v.tokens) < rankLimit {
		return nil, &InsufficientVocabularyError{Need: rankLimit, Have: len(v.tokens)}
	}

	for i, name := range controlTokens {
		v.controlIDs[name] = rankLimit + i
	}

	return v, nil
}

// SortedEntries orders a rank map into a base table.
func SortedEntries(ranks map[string]int) []Entry {
	out := make([]Entry, 0, len(ranks))
	for tok, r := range ranks {
		out = append(out, Entry{Token: []byte(tok), Rank: r})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return out
}

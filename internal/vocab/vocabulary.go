package vocab

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"maps"
	"slices"
)

// Entry is one row of an ordered rank table.
type Entry struct {
	Token []byte
	Rank  int
}

// Vocabulary is the finalized, read-only token table.
type Vocabulary struct {
	name       string
	pattern    string
	tokens     [][]byte       // rank -> bytes
	ranks      map[string]int // bytes -> rank
	controls   []string       // id-RankLimit() -> literal
	controlIDs map[string]int // literal -> id
	displaced  []string       // control literals removed from the base table
}

// Name returns the vocabulary name (e.g., "Hastings").
func (v *Vocabulary) Name() string {
	return v.name
}

// Pattern returns the pre-tokenization pattern the ranks were computed over.
func (v *Vocabulary) Pattern() string {
	return v.pattern
}

// Size returns the declared total vocabulary size V.
func (v *Vocabulary) Size() int {
	return len(v.tokens) + len(v.controls)
}

// RankLimit returns the number of regular tokens; it is also the first reserved id.
func (v *Vocabulary) RankLimit() int {
	return len(v.tokens)
}

// Rank returns the rank of a byte sequence.
func (v *Vocabulary) Rank(token []byte) (int, bool) {
	r, ok := v.ranks[string(token)]
	return r, ok
}

// Token returns the bytes for a regular rank. The returned slice must not be modified.
func (v *Vocabulary) Token(rank int) ([]byte, bool) {
	if rank < 0 || rank >= len(v.tokens) {
		return nil, false
	}
	return v.tokens[rank], true
}

// ControlTokens returns the control-token literals in reserved-id order.
func (v *Vocabulary) ControlTokens() []string {
	return slices.Clone(v.controls)
}

// ControlTokenID returns the reserved id of a control token.
func (v *Vocabulary) ControlTokenID(name string) (int, bool) {
	id, ok := v.controlIDs[name]
	return id, ok
}

// ControlToken returns the literal of a reserved id.
func (v *Vocabulary) ControlToken(id int) (string, bool) {
	i := id - len(v.tokens)
	if i < 0 || i >= len(v.controls) {
		return "", false
	}
	return v.controls[i], true
}

// IsControl reports whether id is a reserved control-token id.
func (v *Vocabulary) IsControl(id int) bool {
	return id >= len(v.tokens) && id < v.Size()
}

// Ranks returns a copy of the byte-sequence -> rank table.
func (v *Vocabulary) Ranks() map[string]int {
	return maps.Clone(v.ranks)
}

// ControlTokenIDs returns a copy of the literal -> reserved id table.
func (v *Vocabulary) ControlTokenIDs() map[string]int {
	return maps.Clone(v.controlIDs)
}

// Displaced lists control-token literals that were present in the base table and
// removed from it during Build.
func (v *Vocabulary) Displaced() []string {
	return slices.Clone(v.displaced)
}

// Entries returns the regular tokens as an ordered rank table.
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.tokens))
	for i, tok := range v.tokens {
		out[i] = Entry{Token: tok, Rank: i}
	}
	return out
}

// Fingerprint is a hex SHA-256 over everything that affects encode/decode:
// pattern, ranks in order and control tokens in id order.
func (v *Vocabulary) Fingerprint() string {
	h := sha256.New()
	var n [8]byte
	write := func(b []byte) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	write([]byte(v.pattern))
	binary.LittleEndian.PutUint64(n[:], uint64(len(v.tokens)))
	h.Write(n[:])
	for _, tok := range v.tokens {
		write(tok)
	}
	binary.LittleEndian.PutUint64(n[:], uint64(len(v.controls)))
	h.Write(n[:])
	for _, c := range v.controls {
		write([]byte(c))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports whether two vocabularies encode and decode identically.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.pattern != other.pattern || !slices.Equal(v.controls, other.controls) {
		return false
	}
	return slices.EqualFunc(v.tokens, other.tokens, bytes.Equal)
}

// FromRanks rebuilds a Vocabulary from persisted tables.
//
// The rank table must be dense over [0, vocabSize-len(controls)) and the control
// ids dense over the remaining top ids; anything else is a ConfigurationError.
//
//nolint:gocyclo,cyclop // Each invariant is checked separately for a precise error.
func FromRanks(name, pattern string, ranks map[string]int, controls map[string]int, vocabSize int) (*Vocabulary, error) {
	if vocabSize != len(ranks)+len(controls) {
		return nil, configErr("vocab_size", "declared %d, have %d ranks and %d control tokens",
			vocabSize, len(ranks), len(controls))
	}
	if len(ranks) == 0 {
		return nil, configErr("ranks", "empty rank table")
	}

	v := &Vocabulary{
		name:       name,
		pattern:    pattern,
		tokens:     make([][]byte, len(ranks)),
		ranks:      make(map[string]int, len(ranks)),
		controls:   make([]string, len(controls)),
		controlIDs: make(map[string]int, len(controls)),
	}

	for tok, r := range ranks {
		if r < 0 || r >= len(ranks) {
			return nil, configErr("ranks", "rank %d outside [0, %d)", r, len(ranks))
		}
		if v.tokens[r] != nil {
			return nil, configErr("ranks", "rank %d assigned twice", r)
		}
		if tok == "" {
			return nil, configErr("ranks", "empty token at rank %d", r)
		}
		v.tokens[r] = []byte(tok)
		v.ranks[tok] = r
	}

	limit := len(ranks)
	for lit, id := range controls {
		if lit == "" {
			return nil, configErr("control_tokens", "empty control token name")
		}
		if id < limit || id >= vocabSize {
			return nil, configErr("control_tokens", "%q has id %d outside [%d, %d)", lit, id, limit, vocabSize)
		}
		if v.controls[id-limit] != "" {
			return nil, configErr("control_tokens", "id %d assigned twice", id)
		}
		if _, ok := ranks[lit]; ok {
			return nil, configErr("control_tokens", "%q is also a regular token", lit)
		}
		v.controls[id-limit] = lit
		v.controlIDs[lit] = id
	}

	return v, nil
}

package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/born-ml/hastings/internal/vocab"
)

// TikToken runs a Vocabulary through the pkoukk/tiktoken-go engine.
//
// It honours the same Policy and DecodeMode contract as Codec, so the two can be
// compared id for id. One known difference: tiktoken emits a whole chunk as a
// single id whenever the chunk itself is ranked, without running the merge loop.
// For vocabularies where every ranked token is reachable by merges (any prefix
// truncation of a trained BPE table) the outputs are identical. tiktoken-go also
// orders its control-token alternation by map iteration, so when one literal is a
// prefix of another the match it picks at that offset varies between runs.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	vocab    *vocab.Vocabulary
	controls []string
	control  *controlMatcher
}

// NewTikToken creates a tiktoken-go encoder for v.
func NewTikToken(v *vocab.Vocabulary) (*TikToken, error) {
	ranks := v.Ranks()
	specials := v.ControlTokenIDs()

	bpe, err := tiktoken.NewCoreBPE(ranks, specials, v.Pattern())
	if err != nil {
		return nil, fmt.Errorf("failed to build tiktoken core for %q: %w", v.Name(), err)
	}

	specialSet := make(map[string]any, len(specials))
	for name := range specials {
		specialSet[name] = true
	}

	controls := v.ControlTokens()
	control, err := compileControlMatcher(controls)
	if err != nil {
		return nil, fmt.Errorf("failed to compile control token matcher: %w", err)
	}

	encoding := &tiktoken.Encoding{
		Name:           v.Name(),
		PatStr:         v.Pattern(),
		MergeableRanks: ranks,
		SpecialTokens:  specials,
		ExplicitNVocab: v.Size(),
	}

	return &TikToken{
		encoding: tiktoken.NewTiktoken(bpe, encoding, specialSet),
		vocab:    v,
		controls: controls,
		control:  control,
	}, nil
}

// Encode converts text to token IDs.
//
// Policy violations are detected before calling tiktoken-go, which would panic on them.
func (t *TikToken) Encode(text string, policy Policy) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, &InvalidUTF8Error{Offset: invalidOffset([]byte(text))}
	}
	if err := scanControls(t.control, text, policy, func(int, int) error { return nil }); err != nil {
		return nil, err
	}

	var allowed []string
	if policy.mode == policyAllowAll {
		allowed = []string{"all"}
	} else {
		allowed = policy.allowedNames(t.controls)
	}

	return t.encoding.Encode(text, allowed, nil), nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(ids []int, mode DecodeMode) (string, error) {
	for _, id := range ids {
		if id < 0 || id >= t.vocab.Size() {
			return "", &UnknownIDError{ID: id, VocabSize: t.vocab.Size()}
		}
	}
	return finishDecode([]byte(t.encoding.Decode(ids)), mode)
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	return t.vocab.Size()
}

// ControlTokenID returns the reserved id of a control token.
func (t *TikToken) ControlTokenID(name string) (int, bool) {
	return t.vocab.ControlTokenID(name)
}

// IsControlToken checks if a token ID is a reserved control-token id.
func (t *TikToken) IsControlToken(id int) bool {
	return t.vocab.IsControl(id)
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.vocab.Name()
}

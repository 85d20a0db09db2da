package tokenizer

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// splitter cuts text into chunks with the vocabulary's pre-tokenization pattern.
// regexp2 is required because the inherited patterns use lookahead (\s+(?!\S)).
type splitter struct {
	re *regexp2.Regexp
}

func newSplitter(pattern string) (*splitter, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile split pattern: %w", err)
	}
	return &splitter{re: re}, nil
}

// chunks partitions text into non-overlapping pieces whose concatenation is text.
// Any span the pattern does not match becomes a chunk of its own.
func (s *splitter) chunks(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	out := make([]string, 0, len(runes)/3+1)
	pos := 0

	m, err := s.re.FindRunesMatch(runes)
	for ; m != nil && err == nil; m, err = s.re.FindNextMatch(m) {
		if m.Length == 0 {
			continue
		}
		if m.Index > pos {
			out = append(out, string(runes[pos:m.Index]))
		}
		out = append(out, string(runes[m.Index:m.Index+m.Length]))
		pos = m.Index + m.Length
	}
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	if pos < len(runes) {
		out = append(out, string(runes[pos:]))
	}
	return out, nil
}

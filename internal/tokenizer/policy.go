package tokenizer

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

type policyMode int

const (
	policyDisallowAll policyMode = iota
	policyAllowAll
	policyAllowSet
	policyAllowSetAndRaw
)

// Policy decides what Encode does with control-token literals found in text.
//
// The zero value is DisallowAll.
type Policy struct {
	mode  policyMode
	names map[string]struct{}
}

// DisallowAll rejects every control-token literal.
func DisallowAll() Policy {
	return Policy{mode: policyDisallowAll}
}

// AllowAll encodes every control-token literal as its reserved id.
func AllowAll() Policy {
	return Policy{mode: policyAllowAll}
}

// AllowSet encodes the named control tokens and rejects all others.
func AllowSet(names ...string) Policy {
	return Policy{mode: policyAllowSet, names: nameSet(names)}
}

// AllowSetAndRaw encodes the named control tokens and treats all others as plain text.
// AllowSetAndRaw() with no names encodes every literal as plain text.
func AllowSetAndRaw(names ...string) Policy {
	return Policy{mode: policyAllowSetAndRaw, names: nameSet(names)}
}

// ParsePolicy maps the conventional allowed_special list onto a Policy:
// ["all"] allows everything, names allow that set, and raw decides whether the
// remaining literals are plain text or an error.
func ParsePolicy(allowed []string, raw bool) Policy {
	if len(allowed) == 1 && allowed[0] == "all" {
		return AllowAll()
	}
	if raw {
		return AllowSetAndRaw(allowed...)
	}
	if len(allowed) == 0 {
		return DisallowAll()
	}
	return AllowSet(allowed...)
}

// String returns a short description for logs.
func (p Policy) String() string {
	switch p.mode {
	case policyAllowAll:
		return "allow-all"
	case policyAllowSet:
		return fmt.Sprintf("allow-set(%s)", strings.Join(p.sortedNames(), ","))
	case policyAllowSetAndRaw:
		return fmt.Sprintf("allow-set-and-raw(%s)", strings.Join(p.sortedNames(), ","))
	default:
		return "disallow-all"
	}
}

func (p Policy) sortedNames() []string {
	out := make([]string, 0, len(p.names))
	for name := range p.names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

type controlAction int

const (
	actionReject controlAction = iota
	actionHonor
	actionRaw
)

func (p Policy) action(literal string) controlAction {
	switch p.mode {
	case policyAllowAll:
		return actionHonor
	case policyAllowSet, policyAllowSetAndRaw:
		if _, ok := p.names[literal]; ok {
			return actionHonor
		}
		if p.mode == policyAllowSetAndRaw {
			return actionRaw
		}
		return actionReject
	default:
		return actionReject
	}
}

// allowedNames lists the literals the policy honours out of the vocabulary's set.
func (p Policy) allowedNames(literals []string) []string {
	out := make([]string, 0, len(literals))
	for _, lit := range literals {
		if p.action(lit) == actionHonor {
			out = append(out, lit)
		}
	}
	return out
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// controlMatcher finds control-token literals in text.
type controlMatcher struct {
	re       *regexp.Regexp
	literals []string // longest first
}

// compileControlMatcher builds an alternation of control-token literals, longest
// first so the longest literal wins at a shared start offset.
func compileControlMatcher(literals []string) (*controlMatcher, error) {
	if len(literals) == 0 {
		return nil, nil
	}

	keys := slices.Clone(literals)
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	escaped := make([]string, 0, len(keys))
	for _, key := range keys {
		escaped = append(escaped, regexp.QuoteMeta(key))
	}
	re, err := regexp.Compile(strings.Join(escaped, "|"))
	if err != nil {
		return nil, err
	}
	return &controlMatcher{re: re, literals: keys}, nil
}

// honoredPrefix returns the length of the longest literal the policy honours
// that s starts with, or 0.
func (m *controlMatcher) honoredPrefix(s string, policy Policy) int {
	for _, lit := range m.literals {
		if strings.HasPrefix(s, lit) && policy.action(lit) == actionHonor {
			return len(lit)
		}
	}
	return 0
}

// scanControls walks control-token occurrences left to right. Honoured ones are
// reported through honor; raw ones are skipped; the first rejected one stops the
// scan with a DisallowedControlTokenError.
//
// When the longest literal at an offset is raw, a shorter honoured literal at
// the same offset is still honoured.
func scanControls(m *controlMatcher, text string, policy Policy, honor func(start, end int) error) error {
	if m == nil {
		return nil
	}

	from := 0
	for from < len(text) {
		loc := m.re.FindStringIndex(text[from:])
		if loc == nil {
			return nil
		}
		start, end := from+loc[0], from+loc[1]
		literal := text[start:end]

		switch policy.action(literal) {
		case actionHonor:
			if err := honor(start, end); err != nil {
				return err
			}
			from = end
		case actionRaw:
			if n := m.honoredPrefix(text[start:], policy); n > 0 {
				if err := honor(start, start+n); err != nil {
					return err
				}
				from = start + n
				continue
			}
			_, size := utf8.DecodeRuneInString(text[start:])
			from = start + size
		default:
			return &DisallowedControlTokenError{Token: literal, Offset: start}
		}
	}
	return nil
}

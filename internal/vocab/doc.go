// Package vocab builds and holds the fixed Hastings vocabulary.
//
// A Vocabulary pairs a dense rank table of byte sequences with a small set of
// control tokens whose reserved ids sit above every rank:
//
//	ranks:    [0, RankLimit())            byte sequence -> merge priority
//	controls: [RankLimit(), Size())       control token literal -> reserved id
//
// Build derives a Vocabulary from a larger base table by dropping entries that
// collide with a control-token literal, keeping the first RankLimit() survivors
// in base order and re-ranking them densely. FromRanks rebuilds a Vocabulary from
// a persisted rank table and validates the same invariants.
//
// Example usage:
//
//	v, err := vocab.Build(base.Entries, 32768, []string{
//	    "<|pad|>", "<|endoftext|>", "<|assistant|>", "<|user|>", "<|startoftext|>",
//	}, vocab.WithName("Hastings"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, _ := v.ControlTokenID("<|endoftext|>") // 32764
//
// A Vocabulary is never mutated after construction and may be shared freely
// between goroutines.
package vocab

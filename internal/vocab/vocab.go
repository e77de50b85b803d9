// Package vocab holds the fixed, ordered vocabulary of byte-string
// continuations a generator may emit: a read-only index, nothing more.
package vocab

import "fmt"

// Continuation is one entry of a vocabulary: an arbitrary byte string. It need
// not be valid UTF-8 and may be empty.
type Continuation []byte

// Vocab is the ordered, 0-indexed list of continuations a generator chooses
// from. It is immutable after construction; its methods only read it (Len,
// At, Index, String).
type Vocab struct {
	entries []Continuation
}

// New builds a Vocab from an ordered list of byte strings. The index of each
// entry in raw becomes its stable vocabulary id.
func New(raw [][]byte) *Vocab {
	entries := make([]Continuation, len(raw))
	for i := range raw {
		c := make(Continuation, len(raw[i]))
		copy(c, raw[i])
		entries[i] = c
	}
	return &Vocab{entries: entries}
}

// FromStrings builds a Vocab from an ordered list of strings, the shape the
// external vocabulary file is loaded into.
func FromStrings(raw []string) *Vocab {
	entries := make([]Continuation, len(raw))
	for i := range raw {
		entries[i] = Continuation(raw[i])
	}
	return &Vocab{entries: entries}
}

// Len returns the number of continuations in the vocabulary.
func (v *Vocab) Len() int {
	return len(v.entries)
}

// At returns the continuation at the given vocabulary index. It panics on an
// out-of-range index, same as a slice index would; callers iterate 0..Len()-1.
func (v *Vocab) At(i int) Continuation {
	return v.entries[i]
}

// Index returns the vocabulary index of the first continuation whose bytes
// equal want, or -1 if no entry matches. Vocabularies are small enough
// (thousands to low hundreds-of-thousands of entries) that a linear scan here
// is acceptable; callers that need repeated lookups should build their own
// index (the prefix-match trie already provides one).
func (v *Vocab) Index(want []byte) int {
	for i := range v.entries {
		if string(v.entries[i]) == string(want) {
			return i
		}
	}
	return -1
}

func (v *Vocab) String() string {
	return fmt.Sprintf("Vocab<%d continuations>", v.Len())
}

package lroracle

import (
	"fmt"
	"sort"

	"github.com/dekarrin/gramoracle/internal/grammar"
	"github.com/dekarrin/gramoracle/internal/oraerrors"
	"github.com/dekarrin/gramoracle/internal/trie"
	"github.com/dekarrin/gramoracle/internal/vocab"
)

// RegularOracle is the "regular" LR(1) continuation oracle variant: fast,
// lexer-level viability only, no parser-reachability simulation beyond the
// single shallow T_valid check at the querying state's stack top.
type RegularOracle struct {
	core     *core
	voc      *vocab.Vocab
	trie     *trie.Trie
	cache    *stateCache
	emptyIdx []int
	trace    func(s string)
}

// NewRegular builds a regular-variant oracle from an already-constructed
// ACTION/GOTO table, lexer, and vocabulary. cacheCapacity bounds the
// continuation cache; pass 0 for the default of 8192 entries.
func NewRegular(table grammar.Table, lexer grammar.Lexer, v *vocab.Vocab, cacheCapacity int) *RegularOracle {
	var emptyIdx []int
	for i := 0; i < v.Len(); i++ {
		if len(v.At(i)) == 0 {
			emptyIdx = append(emptyIdx, i)
		}
	}

	return &RegularOracle{
		core:     newCore(table, lexer),
		voc:      v,
		trie:     trie.Build(v.Len(), func(i int) []byte { return v.At(i) }),
		cache:    newStateCache(cacheCapacity),
		emptyIdx: emptyIdx,
	}
}

// RegisterTraceListener sets a function to be called with diagnostic strings
// as the oracle works. Must be set before the oracle is shared between
// goroutines; it is not guarded.
func (o *RegularOracle) RegisterTraceListener(listener func(s string)) {
	o.trace = listener
}

func (o *RegularOracle) notifyTrace(fmtStr string, args ...interface{}) {
	if o.trace != nil {
		o.trace(fmt.Sprintf(fmtStr, args...))
	}
}

// StartState returns the initial (S, L, P, M) state.
func (o *RegularOracle) StartState() State { return o.core.startState() }

// StateAfter returns the state reached after reading prefix, byte by byte,
// from the initial state.
func (o *RegularOracle) StateAfter(p []byte) State {
	return o.core.stateAfter(o.StartState(), p)
}

// CheckPrefix returns nil when prefix can still extend to an accepted
// string, or an InvalidPrefixError carrying the offset of the byte that
// made acceptance impossible.
func (o *RegularOracle) CheckPrefix(p []byte) error {
	s := o.StartState()
	for i, b := range p {
		s = o.core.advance(s, b)
		if s.Invalid() {
			return oraerrors.NewInvalidPrefix(i, "prefix cannot extend to an accepted string")
		}
	}
	return nil
}

// Advance returns the state reached after reading p, byte by byte, from s.
func (o *RegularOracle) Advance(s State, p []byte) State {
	if s.Invalid() {
		return invalidState
	}
	return o.core.stateAfter(s, p)
}

// NextState returns the state reached after reading vocabulary entry i from
// s, or the invalid state if doing so makes the prefix malformed.
func (o *RegularOracle) NextState(s State, i int) State {
	if s.Invalid() {
		return invalidState
	}
	return o.core.stateAfter(s, o.voc.At(i))
}

// IsMatch reports whether s, committed and reduced to the start symbol,
// would accept.
func (o *RegularOracle) IsMatch(s State) bool { return o.core.isMatch(s) }

// OnlySkippableMatching reports whether s is a match with nothing but
// skippable tokens left to consume.
func (o *RegularOracle) OnlySkippableMatching(s State) bool {
	return o.core.onlySkippableMatching(s)
}

// Vocab returns the vocabulary this oracle was built over.
func (o *RegularOracle) Vocab() *vocab.Vocab { return o.voc }

// ValidContinuations returns the vocabulary indices viable at s under the
// regular variant's lexer-level approximation. Results are cached per
// distinct state key, bounded by the oracle's configured capacity.
func (o *RegularOracle) ValidContinuations(s State) []int {
	if s.Invalid() {
		return nil
	}

	key := s.key()
	if entry, ok := o.cache.get(key); ok {
		o.notifyTrace("continuations: cache hit for state %q", key)
		return entry.continuations
	}

	continuations := o.computeRegular(s)
	o.notifyTrace("continuations: computed %d viable for state %q", len(continuations), key)
	o.cache.put(cacheEntry{key: key, continuations: continuations, isMatch: o.IsMatch(s)})
	return continuations
}

func (o *RegularOracle) computeRegular(s State) []int {
	w := &lexWalker{core: o.core, first: o.core.tValid(s.stack)}

	start := walkState{lex: s.lexState, run: append([]byte{}, s.pending...)}
	if s.matched != nil {
		start.tok = s.matched.tokenID
		start.matchLen = s.matched.length
	}

	var out []int
	w.walk(o.trie.Root(), start, &out)
	sort.Ints(out)
	if len(out) == 0 {
		// a non-invalid state always admits the empty continuations, even
		// when no byte can extend it.
		return o.emptyIdx
	}
	return out
}

// ExactOracle is the "exact" LR(1) continuation oracle variant: it walks the
// vocabulary trie in lockstep with the full streaming engine itself, so a
// vocabulary index is reported viable exactly when NextState on it stays
// valid (reductions and shifts simulated for every candidate byte). Its
// answer is always a subset of the regular variant's: the walks take
// identical lexer steps, and the regular variant's commit checks are never
// stricter than the parser drive performed here.
type ExactOracle struct {
	regular *RegularOracle
	cache   *stateCache
}

// NewExact builds an exact-variant oracle over a fresh regular-variant
// oracle, whose streaming engine, vocabulary trie, and empty-entry list it
// reuses; the exact variant walks the trie itself and keeps its own cache.
func NewExact(table grammar.Table, lexer grammar.Lexer, v *vocab.Vocab, cacheCapacity int) *ExactOracle {
	return &ExactOracle{
		regular: NewRegular(table, lexer, v, cacheCapacity),
		cache:   newStateCache(cacheCapacity),
	}
}

// RegisterTraceListener sets a diagnostic listener on the oracle, by setting
// it on the embedded regular-variant oracle.
func (o *ExactOracle) RegisterTraceListener(listener func(s string)) {
	o.regular.RegisterTraceListener(listener)
}

func (o *ExactOracle) StartState() State                 { return o.regular.StartState() }
func (o *ExactOracle) CheckPrefix(p []byte) error        { return o.regular.CheckPrefix(p) }
func (o *ExactOracle) StateAfter(p []byte) State         { return o.regular.StateAfter(p) }
func (o *ExactOracle) Advance(s State, p []byte) State   { return o.regular.Advance(s, p) }
func (o *ExactOracle) NextState(s State, i int) State    { return o.regular.NextState(s, i) }
func (o *ExactOracle) IsMatch(s State) bool              { return o.regular.IsMatch(s) }
func (o *ExactOracle) OnlySkippableMatching(s State) bool {
	return o.regular.OnlySkippableMatching(s)
}

// Vocab returns the vocabulary this oracle was built over.
func (o *ExactOracle) Vocab() *vocab.Vocab { return o.regular.Vocab() }

// ValidContinuations returns the vocabulary indices viable at s under full
// parser simulation: exactly those i for which NextState(s, i) stays valid.
func (o *ExactOracle) ValidContinuations(s State) []int {
	if s.Invalid() {
		return nil
	}

	key := s.key()
	if entry, ok := o.cache.get(key); ok {
		return entry.continuations
	}

	var out []int
	o.walkExact(o.regular.trie.Root(), s, &out)
	sort.Ints(out)
	if len(out) == 0 {
		out = o.regular.emptyIdx
	}
	o.regular.notifyTrace("exact: %d viable for state %q", len(out), key)

	o.cache.put(cacheEntry{key: key, continuations: out, isMatch: o.IsMatch(s)})
	return out
}

// walkExact visits the vocabulary trie in lockstep with the streaming
// engine, pruning a subtree as soon as advancing into it makes the state
// invalid.
func (o *ExactOracle) walkExact(node *trie.Node, s State, out *[]int) {
	*out = append(*out, node.Indices...)

	node.Each(func(b byte, child *trie.Node) {
		next := o.regular.core.advance(s, b)
		if next.Invalid() {
			return
		}
		o.walkExact(child, next, out)
	})
}
